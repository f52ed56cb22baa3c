package postgres

import (
	"context"
	"database/sql"
	"errors"

	"docgate/internal/model"
	"docgate/internal/repository"
)

// RegistryPostgres is a PostgreSQL implementation of repository.RegistryRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type RegistryPostgres struct {
	db *sql.DB
}

// NewRegistryPostgres creates a new RegistryPostgres repository.
func NewRegistryPostgres(db *sql.DB) *RegistryPostgres {
	return &RegistryPostgres{db: db}
}

var _ repository.RegistryRepository = (*RegistryPostgres)(nil)

// IsNoRowsError reports whether err means the queried row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// GetDocument fetches a single document record by its ID.
// Coordinates may be NULL for documents whose upload never completed; they
// scan to empty strings and are validated by the resolver, not here.
func (r *RegistryPostgres) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT id, owner_entity_id, COALESCE(container_id, ''), COALESCE(object_id, ''),
		       file_name, file_size_bytes, mime_type, created_at
		FROM documents
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.OwnerEntityID,
		&d.ContainerID,
		&d.ObjectID,
		&d.FileName,
		&d.FileSizeBytes,
		&d.MimeType,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// IsDocumentOwner checks document → entity → owning subject in one query.
func (r *RegistryPostgres) IsDocumentOwner(ctx context.Context, subjectID, documentID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM documents d
			JOIN entities e ON e.id = d.owner_entity_id
			WHERE d.id = $1 AND e.owner_subject_id = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, documentID, subjectID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// HasGrant checks for an explicit per-operation grant.
func (r *RegistryPostgres) HasGrant(ctx context.Context, subjectID, documentID string, op model.Operation) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM document_grants
			WHERE subject_id = $1 AND document_id = $2 AND operation = $3
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, subjectID, documentID, string(op)).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// HasRole checks role membership.
func (r *RegistryPostgres) HasRole(ctx context.Context, subjectID, role string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM subject_roles
			WHERE subject_id = $1 AND role = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, subjectID, role).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
