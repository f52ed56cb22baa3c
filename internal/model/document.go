package model

import "time"

// Operation is an action a subject can request on a document.
type Operation string

const (
	OperationPreview  Operation = "preview"
	OperationDownload Operation = "download"
)

// Document is the registry's record for a stored file.
// This is a pure domain model with no database-specific dependencies or tags.
// The read path never mutates it; coordinates are written back by the
// upload-completion writer, which is a separate system.
type Document struct {
	ID            string    `json:"id"`
	OwnerEntityID string    `json:"owner_entity_id"`
	ContainerID   string    `json:"container_id"`
	ObjectID      string    `json:"object_id"`
	FileName      string    `json:"file_name"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	MimeType      string    `json:"mime_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// Coordinates is a validated (container, object) pair in the blob store.
type Coordinates struct {
	ContainerID string
	ObjectID    string
}

// Handle is a time-boxed URL granting preview or download access to one
// object. Handles are never stored; every request produces a new one, and a
// Handle without a future expiry must never reach a caller.
type Handle struct {
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ContentType string    `json:"contentType,omitempty"`
}

// Decision is the outcome of one authorization check. It is ephemeral:
// produced fresh on every request and never cached, since registry-side
// grants can change between calls.
type Decision struct {
	Allowed    bool
	Reason     string
	SubjectID  string
	DocumentID string
	Operation  Operation
}
