package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"docgate/internal/http/middleware"
	"docgate/internal/service"
)

// problem is the standardized error response body. Every failure leaving the
// gateway carries a stable code, a safe message, the correlation id, and the
// HTTP status it was sent with.
type problem struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
	HTTPStatus    int    `json:"httpStatus"`
}

// Stable problem codes. These are part of the API contract; clients branch on
// them, so renaming one is a breaking change.
const (
	CodeInvalidID                = "invalid_id"
	CodeUnauthenticated          = "unauthenticated"
	CodeForbidden                = "forbidden"
	CodeDocumentNotFound         = "document_not_found"
	CodeMappingMissing           = "mapping_missing"
	CodeStorageNotFound          = "storage_not_found"
	CodeUpstreamUnavailable      = "upstream_unavailable"
	CodeAuthorizationUnavailable = "authorization_unavailable"
	CodeServiceUnavailable       = "service_unavailable"
	CodeNotFound                 = "not_found"
	CodeMethodNotAllowed         = "method_not_allowed"
	CodeInternalError            = "internal_error"
)

// correlationIDFromCtx extracts the id previously stored by
// middleware.Correlation.
func correlationIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.CorrelationLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeProblem writes a standardized JSON error response without leaking
// internal details.
func writeProblem(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(problem{
		Code:          code,
		Message:       message,
		CorrelationID: correlationIDFromCtx(c),
		HTTPStatus:    status,
	})
}

// writeServiceError maps service-layer outcomes onto the problem taxonomy.
// Anything unrecognized defaults to upstream_unavailable so an unmapped
// failure can never leak a handle or masquerade as success.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return writeProblem(c, fiber.StatusForbidden, CodeForbidden, "access denied")
	case errors.Is(err, service.ErrAuthorizationUnavailable):
		return writeProblem(c, fiber.StatusServiceUnavailable, CodeAuthorizationUnavailable, "authorization could not be decided")
	case errors.Is(err, service.ErrDocumentNotFound):
		return writeProblem(c, fiber.StatusNotFound, CodeDocumentNotFound, "document not found")
	case errors.Is(err, service.ErrMappingMissing):
		return writeProblem(c, fiber.StatusConflict, CodeMappingMissing, "document has no usable storage mapping")
	case errors.Is(err, service.ErrStorageNotFound):
		return writeProblem(c, fiber.StatusNotFound, CodeStorageNotFound, "document content not found in storage")
	case errors.Is(err, service.ErrUpstreamUnavailable):
		// Checked before the cancellation cases: an exhausted retry budget
		// carries the last attempt's DeadlineExceeded in its chain and must
		// still map to upstream_unavailable.
		return writeProblem(c, fiber.StatusBadGateway, CodeUpstreamUnavailable, "upstream storage unavailable")
	case errors.Is(err, service.ErrRegistryUnavailable):
		return writeProblem(c, fiber.StatusServiceUnavailable, CodeServiceUnavailable, "document registry unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Only bare caller cancellation reaches here.
		return writeProblem(c, fiber.StatusServiceUnavailable, CodeServiceUnavailable, "request aborted")
	default:
		return writeProblem(c, fiber.StatusBadGateway, CodeUpstreamUnavailable, "upstream storage unavailable")
	}
}

// writeUnauthenticated is handed to middleware.RequireAuth so rejected
// requests get the same problem shape as everything else.
func writeUnauthenticated(c *fiber.Ctx) error {
	return writeProblem(c, fiber.StatusUnauthorized, CodeUnauthenticated, "missing or invalid credential")
}

// ErrorHandler returns a Fiber global error handler that standardizes
// responses for errors that escape the handlers.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeProblem(c, status, CodeInvalidID, "bad request")
		case fiber.StatusNotFound:
			return writeProblem(c, status, CodeNotFound, "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeProblem(c, status, CodeMethodNotAllowed, "method not allowed")
		default:
			return writeProblem(c, status, CodeInternalError, "internal server error")
		}
	}
}
