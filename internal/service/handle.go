package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docgate/internal/model"
	"docgate/internal/repository"
	"docgate/internal/repository/postgres"
	"docgate/internal/resolver"
	"docgate/internal/storage"
)

// Stable outcomes the gateway maps onto the error taxonomy. Lower-layer
// sentinels are translated here so handlers depend on one package only.
var (
	ErrForbidden                = errors.New("subject is not allowed to access document")
	ErrAuthorizationUnavailable = errors.New("authorization could not be decided")
	ErrDocumentNotFound         = errors.New("document not found")
	ErrMappingMissing           = errors.New("document storage mapping missing")
	ErrStorageNotFound          = errors.New("object not found in storage")
	ErrUpstreamUnavailable      = errors.New("upstream storage unavailable")
	// ErrRegistryUnavailable is a registry infrastructure failure on the read
	// path, kept apart from ErrUpstreamUnavailable so "registry down" and
	// "blob store down" stay distinguishable at the gateway.
	ErrRegistryUnavailable = errors.New("document registry unavailable")
)

// Authorizer is the decision gate. It must complete before any storage call.
type Authorizer interface {
	Authorize(ctx context.Context, subjectID, documentID string, op model.Operation) (model.Decision, error)
}

// DocumentResolver maps a document id to validated storage coordinates.
type DocumentResolver interface {
	Resolve(ctx context.Context, documentID string) (*model.Document, model.Coordinates, error)
}

// HandleResult pairs an issued handle with the document it covers, so the
// gateway can shape response metadata without a second registry read.
type HandleResult struct {
	Handle   model.Handle
	Document *model.Document
}

// HandleService defines the use cases of the gateway.
type HandleService interface {
	// PreviewHandle issues a short-lived inline-view URL for the document.
	PreviewHandle(ctx context.Context, subjectID, documentID string) (*HandleResult, error)

	// DownloadHandle issues a short-lived attachment URL for the document.
	DownloadHandle(ctx context.Context, subjectID, documentID string) (*HandleResult, error)

	// GetDocument returns the document's registry record, gated by the same
	// authorizer (preview operation).
	GetDocument(ctx context.Context, subjectID, documentID string) (*model.Document, error)
}

type handleService struct {
	auth     Authorizer
	resolver DocumentResolver
	issuer   storage.Issuer
	repo     repository.RegistryRepository
}

// NewHandleService constructs the orchestration layer.
func NewHandleService(auth Authorizer, res DocumentResolver, issuer storage.Issuer, repo repository.RegistryRepository) HandleService {
	return &handleService{auth: auth, resolver: res, issuer: issuer, repo: repo}
}

func (s *handleService) PreviewHandle(ctx context.Context, subjectID, documentID string) (*HandleResult, error) {
	return s.issue(ctx, subjectID, documentID, model.OperationPreview)
}

func (s *handleService) DownloadHandle(ctx context.Context, subjectID, documentID string) (*HandleResult, error) {
	return s.issue(ctx, subjectID, documentID, model.OperationDownload)
}

// issue runs the per-request pipeline: Authorizing → Resolving →
// CallingUpstream. The authorization gate runs first and its order is a hard
// invariant — there is no path that reaches storage on an unauthorized
// request.
func (s *handleService) issue(ctx context.Context, subjectID, documentID string, op model.Operation) (*HandleResult, error) {
	if err := s.authorize(ctx, subjectID, documentID, op); err != nil {
		return nil, err
	}

	doc, coords, err := s.resolver.Resolve(ctx, documentID)
	if err != nil {
		return nil, translateResolveError(err)
	}

	handle, err := s.issuer.IssueHandle(ctx, coords, op, doc.FileName)
	if err != nil {
		return nil, translateIssueError(err)
	}
	// A handle without a future expiry must never reach a caller.
	if !handle.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: handle expiry not in the future", ErrUpstreamUnavailable)
	}

	return &HandleResult{Handle: handle, Document: doc}, nil
}

func (s *handleService) GetDocument(ctx context.Context, subjectID, documentID string) (*model.Document, error) {
	if err := s.authorize(ctx, subjectID, documentID, model.OperationPreview); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	return doc, nil
}

func (s *handleService) authorize(ctx context.Context, subjectID, documentID string, op model.Operation) error {
	decision, err := s.auth.Authorize(ctx, subjectID, documentID, op)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthorizationUnavailable, err)
	}
	if !decision.Allowed {
		return ErrForbidden
	}
	return nil
}

func translateResolveError(err error) error {
	switch {
	case errors.Is(err, resolver.ErrDocumentNotFound):
		return ErrDocumentNotFound
	case errors.Is(err, resolver.ErrMappingMissing):
		return fmt.Errorf("%w: %w", ErrMappingMissing, err)
	default:
		return fmt.Errorf("%w: resolve document: %w", ErrRegistryUnavailable, err)
	}
}

func translateIssueError(err error) error {
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return fmt.Errorf("%w: %w", ErrStorageNotFound, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		// storage.ErrUnavailable and anything unexpected: the retry budget
		// is spent either way.
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
}
