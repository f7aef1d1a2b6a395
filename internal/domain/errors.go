package domain

import (
	"context"
	"errors"
)

// RecoverableError defines an interface for errors the relay can absorb by
// falling back to the plain message.
type RecoverableError interface {
	error
	IsRecoverable() bool
}

// IsRecoverable checks if an error leads to the fallback path rather than a 500
func IsRecoverable(err error) bool {
	var re RecoverableError
	if errors.As(err, &re) {
		return re.IsRecoverable()
	}
	return false
}

// ParseError is returned when the invocation body is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse body: " + e.Err.Error()
}

func (e *ParseError) IsRecoverable() bool { return false }

func (e *ParseError) Unwrap() error { return e.Err }

// RenderError is returned when the message template cannot be rendered.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render template: " + e.Err.Error()
}

func (e *RenderError) IsRecoverable() bool { return false }

func (e *RenderError) Unwrap() error { return e.Err }

// EnrichmentError represents a failed call to the secondary API
type EnrichmentError struct {
	Op  string // "request", "read", "decode"
	Err error
}

func (e *EnrichmentError) Error() string {
	return "enrichment " + e.Op + ": " + e.Err.Error()
}

func (e *EnrichmentError) IsRecoverable() bool { return true }

func (e *EnrichmentError) Unwrap() error { return e.Err }

// TimeoutError is returned when the enrichment call loses the race against
// its deadline. It unwraps to context.DeadlineExceeded.
type TimeoutError struct {
	After string
}

func (e *TimeoutError) Error() string {
	return "enrichment timed out after " + e.After
}

func (e *TimeoutError) IsRecoverable() bool { return true }

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// MessagingError represents a failure delivering to the bot API.
type MessagingError struct {
	Op  string // "request", "read", "decode"
	Err error
}

func (e *MessagingError) Error() string {
	return "messaging " + e.Op + ": " + e.Err.Error()
}

func (e *MessagingError) IsRecoverable() bool { return false }

func (e *MessagingError) Unwrap() error { return e.Err }

// ConfigError represents a configuration error (never recoverable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRecoverable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrEmptyBody is returned when the invocation carries no body at all.
	ErrEmptyBody = errors.New("empty body")

	// ErrMissingTemplate is returned when the body has no text field.
	ErrMissingTemplate = errors.New("missing text template")

	// ErrMissingAPIURL is returned when no enrichment endpoint was given. Recovered like any enrichment failure.
	ErrMissingAPIURL = errors.New("missing api_url")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
