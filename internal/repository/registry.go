package repository

import (
	"context"

	"docgate/internal/model"
)

// RegistryRepository defines read-only data access against the system of
// record. No business logic here — strictly persistence queries; the read
// path described by this service never mutates registry rows.
type RegistryRepository interface {
	// GetDocument returns a document by its ID. Callers translate
	// sql.ErrNoRows; the repository passes it through.
	GetDocument(ctx context.Context, id string) (*model.Document, error)

	// IsDocumentOwner reports whether the subject owns the entity the
	// document belongs to.
	IsDocumentOwner(ctx context.Context, subjectID, documentID string) (bool, error)

	// HasGrant reports whether an explicit per-operation grant exists for
	// the subject on the document.
	HasGrant(ctx context.Context, subjectID, documentID string, op model.Operation) (bool, error)

	// HasRole reports whether the subject holds the given role.
	HasRole(ctx context.Context, subjectID, role string) (bool, error)
}
