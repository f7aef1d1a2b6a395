// Package telegram sends relay messages through the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signal_relay/internal/domain"
	"signal_relay/internal/infra"
)

const maxResponseBody = 1 << 20

// Client sends messages via GET /bot{token}/sendMessage.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Bot API client.
// baseURL: API host, e.g. https://api.telegram.org
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendMessage delivers text to chatID. Transport and decode failures are
// returned as *domain.MessagingError; an ok:false reply is returned as-is.
func (c *Client) SendMessage(ctx context.Context, botToken, chatID, text string) (*domain.SendResult, error) {
	q := url.Values{}
	q.Set("chat_id", chatID)
	q.Set("text", text)
	endpoint := c.baseURL + "/bot" + botToken + "/sendMessage?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.MessagingError{Op: "request", Err: redact(err)}
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.MessagingError{Op: "request", Err: redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &domain.MessagingError{Op: "read", Err: err}
	}

	var result domain.SendResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &domain.MessagingError{Op: "decode", Err: err}
	}

	return &result, nil
}

// redact drops the request URL, which embeds the bot token, from transport errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
