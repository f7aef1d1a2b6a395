package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"signal_relay/internal/domain"
	"signal_relay/internal/infra"
)

// DefaultTimeout is how long the secondary API gets before the relay falls back.
const DefaultTimeout = 50 * time.Second

const maxResponseBody = 1 << 20

var errNullResponse = errors.New("null response")

// Client calls the secondary API that may return a newTabUrl.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client racing each call against timeout.
func NewClient(timeout time.Duration) *Client {
	return NewClientWithHTTP(&http.Client{}, timeout)
}

// NewClientWithHTTP creates a client on top of an existing http.Client.
// The deadline is carried by the request context, not hc.Timeout.
func NewClientWithHTTP(hc *http.Client, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{httpClient: hc, timeout: timeout}
}

// Timeout returns the deadline applied to each call
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

type requestPayload struct {
	URL string `json:"url"`
}

// Enrich posts {"url": payloadURL} to apiURL and extracts newTabUrl from the reply.
// When the deadline wins, the request is cancelled and a *domain.TimeoutError is returned.
func (c *Client) Enrich(ctx context.Context, apiURL, payloadURL string) (domain.EnrichmentResult, error) {
	var result domain.EnrichmentResult

	if apiURL == "" {
		return result, &domain.EnrichmentError{Op: "request", Err: domain.ErrMissingAPIURL}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(requestPayload{URL: payloadURL})
	if err != nil {
		return result, &domain.EnrichmentError{Op: "request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(data))
	if err != nil {
		return result, &domain.EnrichmentError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, c.classify(ctx, "request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return result, c.classify(ctx, "read", err)
	}

	slog.DebugContext(ctx, "Enrichment API response",
		append(infra.LogAttrs(ctx),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)...,
	)

	return decodeResult(body)
}

// classify turns a transport error into a timeout when the deadline caused it.
func (c *Client) classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.TimeoutError{After: c.timeout.String()}
	}
	return &domain.EnrichmentError{Op: op, Err: err}
}

// decodeResult extracts newTabUrl. Non-object replies carry no link;
// only a string value counts.
func decodeResult(body []byte) (domain.EnrichmentResult, error) {
	var result domain.EnrichmentResult

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return result, &domain.EnrichmentError{Op: "decode", Err: err}
	}

	switch v := parsed.(type) {
	case nil:
		return result, &domain.EnrichmentError{Op: "decode", Err: errNullResponse}
	case map[string]any:
		if link, ok := v["newTabUrl"].(string); ok {
			result.NewTabURL = link
		}
	}
	return result, nil
}
