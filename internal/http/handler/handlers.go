package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docgate/internal/http/middleware"
	"docgate/internal/service"
)

// PreviewHandle godoc
//
//	@Summary	Issue a short-lived inline-view URL for a document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"Document ID"
//	@Success	200	{object}	handleResponse
//	@Failure	400	{object}	problem
//	@Failure	401	{object}	problem
//	@Failure	403	{object}	problem
//	@Failure	404	{object}	problem
//	@Failure	409	{object}	problem
//	@Failure	502	{object}	problem
//	@Security	BearerAuth
//	@Router		/documents/{id}/preview-url [get]
func PreviewHandle(svc service.HandleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeProblem(c, fiber.StatusBadRequest, CodeInvalidID, "invalid document id format")
		}

		res, err := svc.PreviewHandle(c.UserContext(), middleware.SubjectFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeHandle(c, res)
	}
}

// DownloadHandle godoc
//
//	@Summary	Issue a short-lived attachment URL for a document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"Document ID"
//	@Success	200	{object}	handleResponse
//	@Failure	400	{object}	problem
//	@Failure	401	{object}	problem
//	@Failure	403	{object}	problem
//	@Failure	404	{object}	problem
//	@Failure	409	{object}	problem
//	@Failure	502	{object}	problem
//	@Security	BearerAuth
//	@Router		/documents/{id}/download [get]
func DownloadHandle(svc service.HandleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeProblem(c, fiber.StatusBadRequest, CodeInvalidID, "invalid document id format")
		}

		res, err := svc.DownloadHandle(c.UserContext(), middleware.SubjectFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeHandle(c, res)
	}
}

// GetDocument godoc
//
//	@Summary	Fetch a document's registry record
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"Document ID"
//	@Success	200	{object}	model.Document
//	@Failure	400	{object}	problem
//	@Failure	401	{object}	problem
//	@Failure	403	{object}	problem
//	@Failure	404	{object}	problem
//	@Security	BearerAuth
//	@Router		/documents/{id} [get]
func GetDocument(svc service.HandleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeProblem(c, fiber.StatusBadRequest, CodeInvalidID, "invalid document id format")
		}

		doc, err := svc.GetDocument(c.UserContext(), middleware.SubjectFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// HealthCheck godoc
//
//	@Summary	Readiness check including registry connectivity
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	problem
//	@Router		/health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeProblem(c, fiber.StatusServiceUnavailable, CodeServiceUnavailable, "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness check with no dependency fan-out.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
