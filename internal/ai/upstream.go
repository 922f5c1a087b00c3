package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/care-assist/internal/httpclient"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single provider call when none is configured.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the bounded client adapters use for one provider.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// TranslateError maps httpclient failures onto the provider error taxonomy.
// Only statuses >= 400 become a ProviderError; other non-2xx replies are unexpected.
// Every supported provider reports failures as {"error": {"message": "..."}}.
func TranslateError(name ProviderName, err error) error {
	var upstream *httpclient.UpstreamError
	var transport *httpclient.TransportError

	switch {
	case errors.As(err, &upstream) && upstream.StatusCode < http.StatusBadRequest:
		return Unexpected(name, fmt.Sprintf("status %d", upstream.StatusCode))
	case errors.As(err, &upstream):
		return &ProviderError{
			Provider:   name,
			StatusCode: upstream.StatusCode,
			Message:    upstreamMessage(upstream),
		}
	case errors.As(err, &transport):
		return fmt.Errorf("%w: %s: %v", ErrTransport, name, transport.Err)
	default:
		return err
	}
}

func upstreamMessage(e *httpclient.UpstreamError) string {
	if gjson.ValidBytes(e.Body) {
		body := gjson.ParseBytes(e.Body)
		if msg := strings.TrimSpace(body.Get("error.message").String()); msg != "" {
			return msg
		}
		if errField := body.Get("error"); errField.Type == gjson.String && errField.String() != "" {
			return errField.String()
		}
		if msg := strings.TrimSpace(body.Get("message").String()); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Unexpected wraps ErrUnexpectedResponse with provider context.
func Unexpected(name ProviderName, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrUnexpectedResponse, name, detail)
}
