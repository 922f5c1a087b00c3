package ai

import (
	"errors"
	"fmt"
)

// ExhaustedMessage is shown to site operators when no provider produced an accepted result.
const ExhaustedMessage = "No AI provider could generate a response. Please check the API key configuration in the AI settings."

var (
	// ErrTransport covers DNS, TLS, connection and timeout failures.
	ErrTransport = errors.New("provider transport error")
	// ErrUnexpectedResponse is a 2xx reply whose body is not the documented shape,
	// or a non-2xx reply below 400.
	ErrUnexpectedResponse = errors.New("unexpected response from provider")
	// ErrUnsupportedContent is returned when a prompt carries input the provider cannot take.
	ErrUnsupportedContent = errors.New("provider does not support this content")
)

// ProviderError is an HTTP >= 400 reply. Message is the provider's own text.
type ProviderError struct {
	Provider   ProviderName
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Message)
}

// ExhaustedError terminates a fallback chain. Attempts lists every failure seen on the way.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return ExhaustedMessage
}

// IsExhausted reports whether err ended a fallback chain.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

// Outcome classifies a single attempt for logs and metrics.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeTransport  Outcome = "transport_error"
	OutcomeProvider   Outcome = "provider_error"
	OutcomeUnexpected Outcome = "unexpected_response"
	OutcomeRejected   Outcome = "rejected"
	OutcomeError      Outcome = "error"
)

// Classify maps a caller error onto the outcome taxonomy.
func Classify(err error) Outcome {
	var pe *ProviderError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &pe):
		return OutcomeProvider
	case errors.Is(err, ErrTransport):
		return OutcomeTransport
	case errors.Is(err, ErrUnexpectedResponse):
		return OutcomeUnexpected
	default:
		return OutcomeError
	}
}
