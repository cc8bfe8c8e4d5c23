package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/makomweb/request-batcher/pkg/batch"
	"github.com/makomweb/request-batcher/pkg/log"
)

// HTTPClient abstracts HTTP request execution for testing and custom transports.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig configures the HTTP sink.
type HTTPConfig struct {
	// URL receives one POST per batch.
	URL string

	// AuthKey is sent as a bearer token when set.
	AuthKey string

	// Retries is the number of additional attempts after a failed POST.
	Retries int

	// InitialBackoff and MaxBackoff bound the delay between attempts.
	// Defaults: 200ms and 5s.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// HTTPSink posts every batch as JSON to a collector endpoint.
type HTTPSink struct {
	client HTTPClient
	cfg    HTTPConfig
	logger log.Logger
}

// NewHTTP creates an HTTP sink. A nil logger disables logging.
func NewHTTP(client HTTPClient, cfg HTTPConfig, logger log.Logger) *HTTPSink {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &HTTPSink{client: client, cfg: cfg, logger: logger}
}

// Process implements batch.ProcessFunc. The response body of the first
// successful POST is the batch result.
func (s *HTTPSink) Process(ctx context.Context, req batch.Request[string]) (string, error) {
	body, err := json.Marshal(newPayload(req))
	if err != nil {
		return "", fmt.Errorf("marshal batch: %w", err)
	}

	backoff := NewBackoff(s.cfg.InitialBackoff, s.cfg.MaxBackoff)

	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("retrying batch delivery",
				log.String("batch_id", req.BatchID().String()),
				log.Int("attempt", attempt),
				log.Duration("backoff", backoff.Current()),
				log.Err(lastErr))
			if err := backoff.Wait(ctx); err != nil {
				return "", err
			}
		}

		result, err := s.post(ctx, body)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("deliver batch %s after %d attempts: %w", req.BatchID(), s.cfg.Retries+1, lastErr)
}

func (s *HTTPSink) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.cfg.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AuthKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	return string(respBody), nil
}
