// Package fetch downloads attachment bytes referenced by gateway events.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/domain/entity/asset"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// HTTP fetches attachments over plain GET requests. Transport errors and 5xx
// responses are retried with a linear backoff; client errors are not, since
// an expired or malformed attachment URL will not heal by itself.
type HTTP struct {
	client     *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	retryDelay time.Duration
	logger     types.Logger
	metrics    types.Metrics
}

func NewHTTP(cfg config.FetchConfig, logger types.Logger, metrics types.Metrics) *HTTP {
	return &HTTP{
		client:     &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBytes,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Second,
		logger:     logger.WithFields(types.Fields{"component": "http_fetcher"}),
		metrics:    metrics,
	}
}

// Fetch downloads the object behind url into a size-capped payload. When the
// server does not name a content type, the payload bytes are sniffed.
func (f *HTTP) Fetch(ctx context.Context, url string) (*asset.Payload, error) {
	start := time.Now()
	f.metrics.StartOperation("fetch")
	defer f.metrics.EndOperation("fetch")

	resp, err := f.get(ctx, url)
	if err != nil {
		f.metrics.RecordError("fetch", "request")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.metrics.RecordError("fetch", "status")
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	payload, err := asset.NewPayloadFromReader(resp.Body, url, resp.Header.Get("Content-Type"), f.maxBytes)
	if err != nil {
		f.metrics.RecordError("fetch", "read")
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	if payload.ContentType() == "" {
		detected := mimetype.Detect(payload.Content())
		payload, err = asset.NewPayload(payload.Content(), url, detected.String())
		if err != nil {
			return nil, err
		}
	}

	f.logger.Debug(ctx, "attachment fetched", types.Fields{
		"url":          url,
		"bytes":        payload.Size(),
		"content_type": payload.ContentType(),
	})
	f.metrics.RecordSuccess("fetch")
	f.metrics.RecordDuration("fetch", time.Since(start).Seconds())
	f.metrics.RecordPayloadSize("attachment", payload.Size())

	return payload, nil
}

func (f *HTTP) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * f.retryDelay
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			f.logger.Warn(ctx, "retrying fetch", types.Fields{"url": url, "attempt": attempt})
		}

		resp, lastErr = f.client.Do(req)
		if lastErr == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("fetching %s: request failed after %d attempts: %w", url, f.maxRetries+1, lastErr)
	}
	return nil, fmt.Errorf("fetching %s: server error %d after %d attempts", url, resp.StatusCode, f.maxRetries+1)
}
