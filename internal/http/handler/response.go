package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"docgate/internal/model"
	"docgate/internal/service"
)

// handleResponse is the success envelope for handle issuance. The handle
// itself lives under data; request metadata lives beside it so clients never
// have to parse the URL to learn what it covers.
type handleResponse struct {
	Data     model.Handle   `json:"data"`
	Metadata handleMetadata `json:"metadata"`
}

type handleMetadata struct {
	CorrelationID string    `json:"correlationId"`
	DocumentID    string    `json:"documentId"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	Timestamp     time.Time `json:"timestamp"`
}

func writeHandle(c *fiber.Ctx, res *service.HandleResult) error {
	return c.Status(fiber.StatusOK).JSON(handleResponse{
		Data: res.Handle,
		Metadata: handleMetadata{
			CorrelationID: correlationIDFromCtx(c),
			DocumentID:    res.Document.ID,
			FileName:      res.Document.FileName,
			FileSize:      res.Document.FileSizeBytes,
			Timestamp:     time.Now().UTC(),
		},
	})
}
