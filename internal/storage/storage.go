// Package storage talks to the upstream S3-compatible blob store on behalf
// of the service identity. It issues the only artifact clients ever see:
// short-lived presigned URLs.
package storage

import (
	"context"
	"errors"

	"docgate/internal/model"
)

var (
	// ErrObjectNotFound means the upstream reports the object no longer
	// exists. Distinct from the registry's not-found and never retried.
	ErrObjectNotFound = errors.New("object not found in storage")
	// ErrUnavailable means the retry budget was exhausted against a
	// transient upstream failure.
	ErrUnavailable = errors.New("upstream storage unavailable")
)

// Issuer issues time-boxed access handles for one object.
// Implementations must never return a handle without a future expiry.
type Issuer interface {
	// IssueHandle produces a presigned URL for the given coordinates.
	// kind selects inline preview or attachment download; fileName is used
	// for the download disposition. The correlation id is taken from ctx
	// and attached to every attempt's log line.
	IssueHandle(ctx context.Context, coords model.Coordinates, kind model.Operation, fileName string) (model.Handle, error)
}
