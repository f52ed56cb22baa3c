// Package resolver maps a registry document id to validated blob-store
// coordinates. Its one job beyond the lookup is keeping "no such document"
// and "document exists but its mapping is incomplete" apart — collapsing the
// two into a generic not-found hides the most common real-world defect
// (a partially completed upload or a caller passing the wrong identifier).
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"docgate/internal/model"
	"docgate/internal/repository"
	"docgate/internal/repository/postgres"
)

var (
	// ErrDocumentNotFound means the registry has no record for the id.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrMappingMissing means the record exists but its storage coordinates
	// are absent or malformed.
	ErrMappingMissing = errors.New("document storage mapping missing")
)

// containerIDPattern follows S3 bucket naming: 3-63 chars, lowercase
// alphanumeric plus '.' and '-', starting and ending alphanumeric.
var containerIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

const maxObjectIDLen = 1024

// Resolver fetches and validates document storage coordinates.
type Resolver struct {
	repo repository.RegistryRepository
}

func New(repo repository.RegistryRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the document record together with its validated
// coordinates.
func (r *Resolver) Resolve(ctx context.Context, documentID string) (*model.Document, model.Coordinates, error) {
	doc, err := r.repo.GetDocument(ctx, documentID)
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, model.Coordinates{}, ErrDocumentNotFound
		}
		return nil, model.Coordinates{}, fmt.Errorf("get document: %w", err)
	}

	if err := validateCoordinates(doc.ContainerID, doc.ObjectID); err != nil {
		return nil, model.Coordinates{}, err
	}

	return doc, model.Coordinates{ContainerID: doc.ContainerID, ObjectID: doc.ObjectID}, nil
}

// validateCoordinates enforces the both-present-and-well-formed invariant.
// A record with exactly one coordinate populated is an inconsistent state,
// reported the same way as an absent mapping.
func validateCoordinates(containerID, objectID string) error {
	if containerID == "" && objectID == "" {
		return fmt.Errorf("%w: coordinates not yet written", ErrMappingMissing)
	}
	if containerID == "" || objectID == "" {
		return fmt.Errorf("%w: only one coordinate populated", ErrMappingMissing)
	}
	if !containerIDPattern.MatchString(containerID) {
		return fmt.Errorf("%w: malformed container id", ErrMappingMissing)
	}
	if len(objectID) > maxObjectIDLen || objectID[0] == '/' {
		return fmt.Errorf("%w: malformed object id", ErrMappingMissing)
	}
	return nil
}
