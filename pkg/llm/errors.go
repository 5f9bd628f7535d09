package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes provider failures so the gateway knows how to treat
// the model that produced them.
type ErrorType string

const (
	// ErrorTypeQuota marks 429 / quota / rate-limit failures. The model is
	// quota-exhausted for the rest of the session.
	ErrorTypeQuota ErrorType = "quota"

	// ErrorTypeNotFound marks 404 / unknown-model failures. The model is
	// permanently excluded.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeAuth marks 401/403 failures. Retrying other models with the
	// same key is still attempted.
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeTransient marks timeouts and 5xx failures. The model is not
	// marked at all.
	ErrorTypeTransient ErrorType = "transient"

	// ErrorTypeUnknown is everything else, treated as transient.
	ErrorTypeUnknown ErrorType = "unknown"
)

// ErrUnavailable is returned by the gateway when every candidate model has
// been tried and none produced a response.
var ErrUnavailable = errors.New("llm unavailable: all candidate models failed")

// Error is a classified provider failure.
type Error struct {
	Type     ErrorType
	Model    string
	Provider string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s error (provider=%s model=%s): %v", e.Type, e.Provider, e.Model, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether another attempt could succeed. Quota and
// unknown-model failures are final for the model in question.
func (e *Error) IsRetryable() bool {
	return e.Type == ErrorTypeTransient || e.Type == ErrorTypeUnknown
}

// Classify inspects a provider error and assigns an ErrorType. Provider SDKs
// surface failures as strings with embedded status codes, so this matches
// substrings the same way for all three providers.
func Classify(err error, provider, model string) *Error {
	classified := &Error{
		Type:     ErrorTypeUnknown,
		Model:    model,
		Provider: provider,
		Cause:    err,
	}
	if err == nil {
		return classified
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate_limit"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		classified.Type = ErrorTypeQuota
	case strings.Contains(msg, "404"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "unknown model"),
		strings.Contains(msg, "model_not_found"):
		classified.Type = ErrorTypeNotFound
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "invalid x-api-key"):
		classified.Type = ErrorTypeAuth
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "504"),
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "internal server error"),
		strings.Contains(msg, "service unavailable"):
		classified.Type = ErrorTypeTransient
	}

	return classified
}
