package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/care-assist/internal/features/alttext"
	"github.com/nulzo/care-assist/internal/features/seochat"
	"github.com/nulzo/care-assist/internal/server/validator"
	"github.com/nulzo/care-assist/pkg/api"
)

type AltTextGenerator interface {
	Generate(ctx context.Context, req alttext.Request) (*alttext.Result, error)
}

type ChatAssistant interface {
	Reply(ctx context.Context, req seochat.Request) (*seochat.Reply, error)
}

type GenerationHandler struct {
	altText   AltTextGenerator
	chat      ChatAssistant
	validator *validator.Validator
}

func NewGenerationHandler(altText AltTextGenerator, chat ChatAssistant, v *validator.Validator) *GenerationHandler {
	return &GenerationHandler{
		altText:   altText,
		chat:      chat,
		validator: v,
	}
}

// AltText handles POST /v1/alt-text.
func (h *GenerationHandler) AltText(c *gin.Context) {
	var req alttext.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	res, err := h.altText.Generate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, alttext.ErrMissingImage) {
			_ = c.Error(api.BadRequestError(err.Error()))
			return
		}
		_ = c.Error(problemFor(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

// Chat handles POST /v1/chat.
func (h *GenerationHandler) Chat(c *gin.Context) {
	var req seochat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, seochat.ErrEmptyMessage) {
			_ = c.Error(api.BadRequestError(err.Error()))
			return
		}
		_ = c.Error(problemFor(err))
		return
	}

	c.JSON(http.StatusOK, reply)
}
