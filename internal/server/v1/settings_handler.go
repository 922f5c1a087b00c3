package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/server/validator"
	"github.com/nulzo/care-assist/internal/settings"
	"github.com/nulzo/care-assist/pkg/api"
)

type SettingsHandler struct {
	settings  settings.Service
	validator *validator.Validator
}

func NewSettingsHandler(s settings.Service, v *validator.Validator) *SettingsHandler {
	return &SettingsHandler{
		settings:  s,
		validator: v,
	}
}

// ListProviders handles GET /v1/settings/providers. Keys are always masked.
func (h *SettingsHandler) ListProviders(c *gin.Context) {
	list, err := h.settings.List(c.Request.Context())
	if err != nil {
		_ = c.Error(api.InternalError("Failed to read AI settings", err))
		return
	}

	c.JSON(http.StatusOK, api.ListResponse[settings.ProviderStatus]{Object: "list", Data: list})
}

// SetKey handles PUT /v1/settings/providers/:provider/key.
func (h *SettingsHandler) SetKey(c *gin.Context) {
	name, ok := h.provider(c)
	if !ok {
		return
	}

	var req api.SetKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	if err := h.settings.SetKey(c.Request.Context(), name, req.APIKey); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearKey handles DELETE /v1/settings/providers/:provider/key.
func (h *SettingsHandler) ClearKey(c *gin.Context) {
	name, ok := h.provider(c)
	if !ok {
		return
	}

	if err := h.settings.ClearKey(c.Request.Context(), name); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPreferred handles PUT /v1/settings/preferred.
func (h *SettingsHandler) SetPreferred(c *gin.Context) {
	var req api.SetPreferredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	if err := h.settings.SetPreferred(c.Request.Context(), ai.ProviderName(req.Provider)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SettingsHandler) provider(c *gin.Context) (ai.ProviderName, bool) {
	name, ok := ai.ParseProviderName(c.Param("provider"))
	if !ok {
		_ = c.Error(api.NotFoundError("Unknown provider: " + c.Param("provider")))
		return "", false
	}
	return name, true
}

func (h *SettingsHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, settings.ErrUnknownProvider), errors.Is(err, settings.ErrEmptyKey):
		_ = c.Error(api.BadRequestError(err.Error()))
	default:
		_ = c.Error(api.InternalError("Failed to update AI settings", err))
	}
}
