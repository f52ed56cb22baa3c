package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	authzMocks "docgate/internal/authz/mocks"
	"docgate/internal/model"
	repoMocks "docgate/internal/repository/mocks"
	"docgate/internal/resolver"
	resolverMocks "docgate/internal/resolver/mocks"
	"docgate/internal/storage"
	storeMocks "docgate/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fixtures struct {
	auth   *authzMocks.MockAuthorizer
	res    *resolverMocks.MockResolver
	issuer *storeMocks.MockIssuer
	repo   *repoMocks.MockRegistryRepository
	svc    HandleService
}

func newFixtures() *fixtures {
	f := &fixtures{
		auth:   new(authzMocks.MockAuthorizer),
		res:    new(resolverMocks.MockResolver),
		issuer: new(storeMocks.MockIssuer),
		repo:   new(repoMocks.MockRegistryRepository),
	}
	f.svc = NewHandleService(f.auth, f.res, f.issuer, f.repo)
	return f
}

func allow() model.Decision { return model.Decision{Allowed: true, Reason: "owner"} }
func deny() model.Decision  { return model.Decision{Allowed: false, Reason: "no rule allowed"} }

var (
	testDoc = &model.Document{
		ID:            "doc-1",
		ContainerID:   "tenant-bucket",
		ObjectID:      "documents/report.pdf",
		FileName:      "report.pdf",
		FileSizeBytes: 4096,
		MimeType:      "application/pdf",
	}
	testCoords = model.Coordinates{ContainerID: "tenant-bucket", ObjectID: "documents/report.pdf"}
)

func validHandle() model.Handle {
	return model.Handle{
		URL:         "https://store.example/tenant-bucket/documents/report.pdf?sig=abc",
		ExpiresAt:   time.Now().Add(10 * time.Minute),
		ContentType: "application/pdf",
	}
}

func TestHandleService_PreviewHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(testDoc, testCoords, nil)
		f.issuer.On("IssueHandle", ctx, testCoords, model.OperationPreview, "report.pdf").
			Return(validHandle(), nil)

		res, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.NoError(t, err)
		assert.NotNil(t, res)
		assert.True(t, res.Handle.ExpiresAt.After(time.Now()))
		assert.Equal(t, testDoc, res.Document)
		f.auth.AssertExpectations(t)
		f.res.AssertExpectations(t)
		f.issuer.AssertExpectations(t)
	})

	t.Run("denied - no resolution, no upstream call", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(deny(), nil)

		res, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrForbidden)
		assert.Nil(t, res)
		f.res.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		f.issuer.AssertNotCalled(t, "IssueHandle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("authorizer unavailable - fail closed, no upstream call", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).
			Return(deny(), errors.New("registry unreachable"))

		res, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrAuthorizationUnavailable)
		assert.Nil(t, res)
		f.issuer.AssertNotCalled(t, "IssueHandle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("document not found", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(nil, model.Coordinates{}, resolver.ErrDocumentNotFound)

		_, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrDocumentNotFound)
		f.issuer.AssertNotCalled(t, "IssueHandle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mapping missing is distinct from not found", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(nil, model.Coordinates{}, resolver.ErrMappingMissing)

		_, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrMappingMissing)
		assert.NotErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("registry outage during resolve is not an upstream failure", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(nil, model.Coordinates{}, errors.New("connection refused"))

		_, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrRegistryUnavailable)
		assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
		f.issuer.AssertNotCalled(t, "IssueHandle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("object gone upstream", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(testDoc, testCoords, nil)
		f.issuer.On("IssueHandle", ctx, testCoords, model.OperationPreview, "report.pdf").
			Return(model.Handle{}, storage.ErrObjectNotFound)

		_, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrStorageNotFound)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(testDoc, testCoords, nil)
		f.issuer.On("IssueHandle", ctx, testCoords, model.OperationPreview, "report.pdf").
			Return(model.Handle{}, storage.ErrUnavailable)

		_, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})

	t.Run("cancellation passes through", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(testDoc, testCoords, nil)
		f.issuer.On("IssueHandle", ctx, testCoords, model.OperationPreview, "report.pdf").
			Return(model.Handle{}, context.Canceled)

		_, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
	})

	t.Run("handle without future expiry never reaches the caller", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(testDoc, testCoords, nil)
		f.issuer.On("IssueHandle", ctx, testCoords, model.OperationPreview, "report.pdf").
			Return(model.Handle{URL: "https://store.example/x"}, nil)

		res, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
		assert.Nil(t, res)
	})

	t.Run("two calls yield two independent handles", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil).Twice()
		f.res.On("Resolve", ctx, "doc-1").Return(testDoc, testCoords, nil).Twice()
		f.issuer.On("IssueHandle", ctx, testCoords, model.OperationPreview, "report.pdf").
			Return(validHandle(), nil).Twice()

		first, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")
		assert.NoError(t, err)
		second, err := f.svc.PreviewHandle(ctx, "subject-1", "doc-1")
		assert.NoError(t, err)
		assert.NotNil(t, first)
		assert.NotNil(t, second)
		f.issuer.AssertNumberOfCalls(t, "IssueHandle", 2)
	})
}

func TestHandleService_DownloadHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("uses download operation end to end", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationDownload).Return(allow(), nil)
		f.res.On("Resolve", ctx, "doc-1").Return(testDoc, testCoords, nil)
		f.issuer.On("IssueHandle", ctx, testCoords, model.OperationDownload, "report.pdf").
			Return(validHandle(), nil)

		res, err := f.svc.DownloadHandle(ctx, "subject-1", "doc-1")

		assert.NoError(t, err)
		assert.NotNil(t, res)
		f.auth.AssertExpectations(t)
		f.issuer.AssertExpectations(t)
	})

	t.Run("denied", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationDownload).Return(deny(), nil)

		_, err := f.svc.DownloadHandle(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestHandleService_GetDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.repo.On("GetDocument", ctx, "doc-1").Return(testDoc, nil)

		doc, err := f.svc.GetDocument(ctx, "subject-1", "doc-1")

		assert.NoError(t, err)
		assert.Equal(t, testDoc, doc)
	})

	t.Run("denied before registry read", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(deny(), nil)

		_, err := f.svc.GetDocument(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrForbidden)
		f.repo.AssertNotCalled(t, "GetDocument", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.repo.On("GetDocument", ctx, "doc-1").Return(nil, sql.ErrNoRows)

		_, err := f.svc.GetDocument(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("registry outage", func(t *testing.T) {
		f := newFixtures()
		f.auth.On("Authorize", ctx, "subject-1", "doc-1", model.OperationPreview).Return(allow(), nil)
		f.repo.On("GetDocument", ctx, "doc-1").Return(nil, errors.New("connection refused"))

		_, err := f.svc.GetDocument(ctx, "subject-1", "doc-1")

		assert.ErrorIs(t, err, ErrRegistryUnavailable)
	})
}
