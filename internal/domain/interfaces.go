package domain

import (
	"context"
)

// Enricher calls the secondary API that may contribute a link to the message
type Enricher interface {
	Enrich(ctx context.Context, apiURL, payloadURL string) (EnrichmentResult, error)
}

// Messenger delivers the final text to a chat
type Messenger interface {
	SendMessage(ctx context.Context, botToken, chatID, text string) (*SendResult, error)
}

// SendResult is the parsed reply of the bot API.
type SendResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Result      *struct {
		MessageID int64 `json:"message_id"`
	} `json:"result,omitempty"`
}
