package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/pkg/api"
)

// problemFor maps generation failures onto HTTP problems.
func problemFor(err error) *api.Problem {
	var exhausted *ai.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		return api.ExhaustedError(ai.ExhaustedMessage, exhausted.Attempts, err)
	case errors.Is(err, context.DeadlineExceeded):
		return api.NewError(http.StatusGatewayTimeout, "Gateway Timeout", "The request took too long to complete.", api.WithLog(err))
	case errors.Is(err, context.Canceled):
		// nginx convention for a client that went away
		return api.NewError(499, "Client Closed Request", "The request was cancelled.")
	default:
		return api.InternalError("Failed to generate a response", err)
	}
}
