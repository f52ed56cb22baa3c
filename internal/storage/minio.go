package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docgate/internal/config"
	"docgate/internal/logging"
	"docgate/internal/model"
	"docgate/internal/retry"
)

const (
	minHandleTTL = 5 * time.Minute
	maxHandleTTL = 15 * time.Minute
)

// minioIssuer implements Issuer against an S3-compatible backend (MinIO,
// AWS S3, etc.). It is safe for concurrent use by multiple goroutines.
type minioIssuer struct {
	client *minio.Client
	ttl    time.Duration
	policy retry.Policy
	log    *slog.Logger
}

// NewMinIO creates the upstream handle client. The credential cache feeds
// request signing, so a refresh never blocks more than one caller.
func NewMinIO(cfg config.MinIOConfig, handle config.HandleConfig, cache *CredentialCache, log *slog.Logger) (Issuer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     NewMinioCredentials(cache),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &minioIssuer{
		client: cli,
		ttl:    clampTTL(handle.TTL),
		policy: retry.NewPolicy(handle.MaxAttempts, handle.AttemptTimeout, handle.BackoffInitial),
		log:    log,
	}, nil
}

// clampTTL keeps issued handles inside the documented 5-15 minute window
// even when the configured value is off.
func clampTTL(ttl time.Duration) time.Duration {
	if ttl < minHandleTTL {
		return minHandleTTL
	}
	if ttl > maxHandleTTL {
		return maxHandleTTL
	}
	return ttl
}

// IssueHandle stats the object (so a vanished object fails fast as not-found
// and throttling surfaces before a URL is minted) and presigns a GET with
// the disposition matching kind. Transient failures are retried with
// backoff; not-found is never retried.
func (m *minioIssuer) IssueHandle(ctx context.Context, coords model.Coordinates, kind model.Operation, fileName string) (model.Handle, error) {
	log := logging.WithCorrelation(ctx, m.log).With(
		"container_id", coords.ContainerID,
		"object_id", coords.ObjectID,
		"kind", string(kind),
	)

	handle, err := retry.Do(ctx, m.policy, isTransient, func(ctx context.Context, attempt int) (model.Handle, error) {
		h, err := m.issueOnce(ctx, coords, kind, fileName)
		if err != nil {
			attrs := []any{"attempt", attempt, "error", err.Error()}
			if rid := upstreamRequestID(err); rid != "" {
				attrs = append(attrs, "upstream_request_id", rid)
			}
			log.Warn("issue_handle_attempt_failed", attrs...)
			return model.Handle{}, err
		}
		log.Info("issue_handle_attempt_succeeded", "attempt", attempt, "expires_at", h.ExpiresAt)
		return h, nil
	})
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) || errors.Is(err, context.Canceled) {
			return model.Handle{}, err
		}
		return model.Handle{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return handle, nil
}

func (m *minioIssuer) issueOnce(ctx context.Context, coords model.Coordinates, kind model.Operation, fileName string) (model.Handle, error) {
	stat, err := m.client.StatObject(ctx, coords.ContainerID, coords.ObjectID, minio.StatObjectOptions{})
	if err != nil {
		return model.Handle{}, classify(err)
	}

	reqParams := make(url.Values)
	switch kind {
	case model.OperationDownload:
		reqParams.Set("response-content-disposition",
			fmt.Sprintf(`attachment; filename="%s"`, sanitizeFileName(fileName)))
	default:
		reqParams.Set("response-content-disposition", "inline")
	}
	if stat.ContentType != "" {
		reqParams.Set("response-content-type", stat.ContentType)
	}

	u, err := m.client.PresignedGetObject(ctx, coords.ContainerID, coords.ObjectID, m.ttl, reqParams)
	if err != nil {
		return model.Handle{}, classify(err)
	}

	// Presigning does not report a validity window; expiry is the local
	// issuance time plus the configured TTL.
	return model.Handle{
		URL:         u.String(),
		ExpiresAt:   time.Now().Add(m.ttl),
		ContentType: stat.ContentType,
	}, nil
}

// classify maps upstream not-found onto the package sentinel; everything
// else passes through for the retryable predicate.
func classify(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, resp.Code, resp.Message)
	}
	return err
}

// isTransient decides what is worth retrying: network failures, attempt
// timeouts, upstream 5xx, and explicit throttling. Not-found and caller
// cancellation are final.
func isTransient(err error) bool {
	if errors.Is(err, ErrObjectNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode != 0 {
		return resp.StatusCode >= 500 ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.Code == "SlowDown"
	}
	return true
}

func upstreamRequestID(err error) string {
	return minio.ToErrorResponse(err).RequestID
}

// sanitizeFileName strips characters that would break the Content-Disposition
// header value.
func sanitizeFileName(name string) string {
	r := strings.NewReplacer(`"`, "", "\r", "", "\n", "", "\\", "")
	name = r.Replace(name)
	if name == "" {
		name = "download"
	}
	return name
}
