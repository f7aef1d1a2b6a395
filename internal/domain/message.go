package domain

import (
	"encoding/json"
)

// EnrichmentResult is what the secondary API contributed, if anything.
type EnrichmentResult struct {
	NewTabURL string `json:"newTabUrl"`
}

// HasLink reports whether there is something to append
func (r EnrichmentResult) HasLink() bool {
	return r.NewTabURL != ""
}

// ComposeMessage builds the outgoing text. The link, when present, goes after a blank line.
func ComposeMessage(rendered string, r EnrichmentResult) string {
	if !r.HasLink() {
		return rendered
	}
	return rendered + "\n\n " + r.NewTabURL
}

// Outcome classifies how an invocation ended.
type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
)

// Response bodies, one per outcome.
const (
	MsgSent     = "Message sent successfully!"
	MsgFallback = "Fallback message sent successfully!"
	MsgFailed   = "Error sending message"
)

// Response is returned to the hosting platform.
// Body holds a JSON-encoded string.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// NewResponse maps an outcome to its status code and encoded body.
func NewResponse(outcome Outcome) Response {
	switch outcome {
	case OutcomeSent:
		return jsonResponse(200, MsgSent)
	case OutcomeFallback:
		return jsonResponse(200, MsgFallback)
	default:
		return jsonResponse(500, MsgFailed)
	}
}

func jsonResponse(status int, msg string) Response {
	b, _ := json.Marshal(msg)
	return Response{StatusCode: status, Body: string(b)}
}
