package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// InvocationEvent is the inbound alert as delivered by the hosting platform.
// Body carries the serialized AlertBody; the remaining fields feed the template.
type InvocationEvent struct {
	Body     string `json:"body"`
	Exchange Scalar `json:"exchange"`
	Ticker   Scalar `json:"ticker"`
	Close    Scalar `json:"close"`
	Time     Scalar `json:"time"`
}

// AlertBody is the decoded form of InvocationEvent.Body
type AlertBody struct {
	BotToken      string  `json:"bot_token"`
	ChatID        Scalar  `json:"chat_id"` // Telegram accepts numeric IDs too
	Text          *string `json:"text"`
	APIURL        string  `json:"api_url"`
	APIPayloadURL string  `json:"api_payload_url"`
}

// DecodeAlertBody parses the serialized body of an invocation.
func DecodeAlertBody(raw string) (*AlertBody, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseError{Err: ErrEmptyBody}
	}

	var body AlertBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &body, nil
}

// Scalar holds a raw JSON value whose presence must be distinguishable
// from its absence. The zero value is "absent".
type Scalar struct {
	raw json.RawMessage
}

// StringScalar builds a present Scalar holding a JSON string.
func StringScalar(s string) Scalar {
	b, _ := json.Marshal(s)
	return Scalar{raw: b}
}

// NumberScalar builds a present Scalar holding a JSON number.
func NumberScalar(d decimal.Decimal) Scalar {
	return Scalar{raw: json.RawMessage(d.String())}
}

// UnmarshalJSON keeps the literal, including null.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	s.raw = append(s.raw[:0], data...)
	return nil
}

// MarshalJSON writes the literal back out; absent values encode as null.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.Present() {
		return []byte("null"), nil
	}
	return s.raw, nil
}

// Present reports whether the field appeared in the source document.
func (s Scalar) Present() bool {
	return s.raw != nil
}

// String renders the value for template substitution:
// strings verbatim, numbers in canonical decimal form, other literals as written.
func (s Scalar) String() string {
	if !s.Present() {
		return ""
	}
	raw := bytes.TrimSpace(s.raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			return str
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if d, err := decimal.NewFromString(string(raw)); err == nil {
			return d.String()
		}
	}
	return string(raw)
}
