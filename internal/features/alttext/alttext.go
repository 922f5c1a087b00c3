// Package alttext generates accessible image metadata for media library uploads.
package alttext

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/store/cache"
	"go.uber.org/zap"
)

const (
	Feature = "alt_text"

	cachePrefix = "alttext:"
	maxTokens   = 500
)

var ErrMissingImage = errors.New("image_url is required")

var schema = ai.Schema{
	Fields:   []string{"title", "caption", "alt", "description"},
	Fallback: "alt",
}

const instructions = `You write image metadata for the website of a UK care-sector training company.
Use British English. Be factual and describe only what is visible.
Respond with a single JSON object and nothing else, using these keys:
"title": a short title of at most 60 characters,
"caption": one sentence suitable for display under the image,
"alt": alternative text for screen readers of at most 125 characters, without "image of" or "picture of",
"description": two or three sentences for the media library.`

type Request struct {
	ImageURL  string          `json:"image_url" binding:"required"`
	Filename  string          `json:"filename,omitempty"`
	PageTitle string          `json:"page_title,omitempty"`
	Context   string          `json:"context,omitempty" binding:"max=2000"`
	Preferred ai.ProviderName `json:"preferred_provider,omitempty"`
}

type Result struct {
	Title       string          `json:"title"`
	Caption     string          `json:"caption"`
	Alt         string          `json:"alt"`
	Description string          `json:"description"`
	Provider    ai.ProviderName `json:"provider"`
	Cached      bool            `json:"cached"`
	Attempts    []ai.Attempt    `json:"attempts,omitempty"`
}

// Generator runs the vision fallback chain and caches successful results.
type Generator struct {
	svc    ai.Service
	cache  cache.CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// New returns a Generator. A nil cache disables caching.
func New(svc ai.Service, c cache.CacheService, ttl time.Duration, logger *zap.Logger) *Generator {
	return &Generator{svc: svc, cache: c, ttl: ttl, logger: logger}
}

// accept is the alt-text success predicate: an alt or a title must be present.
func accept(r ai.Result) bool {
	return r.Get("alt") != "" || r.Get("title") != ""
}

func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.ImageURL == "" {
		return nil, ErrMissingImage
	}

	key := CacheKey(req)
	if g.cache != nil {
		var hit Result
		err := g.cache.Get(ctx, key, &hit)
		switch {
		case err == nil:
			hit.Cached = true
			hit.Attempts = nil
			return &hit, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			g.logger.Warn("Alt text cache read failed", zap.Error(err))
		}
	}

	gen, err := g.svc.Generate(ctx, ai.GenerateRequest{
		Feature:      Feature,
		Preferred:    req.Preferred,
		Instructions: instructions,
		Messages:     []ai.Message{{Role: ai.RoleUser, Text: userPrompt(req)}},
		Image:        &ai.Image{URL: req.ImageURL},
		MaxTokens:    maxTokens,
		Capability:   ai.VisionCapable,
		Schema:       schema,
		Accept:       accept,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Title:       gen.Result.Get("title"),
		Caption:     gen.Result.Get("caption"),
		Alt:         gen.Result.Get("alt"),
		Description: gen.Result.Get("description"),
		Provider:    gen.Result.Provider,
		Attempts:    gen.Attempts,
	}

	if g.cache != nil {
		stored := *res
		stored.Attempts = nil
		if err := g.cache.Set(ctx, key, stored, g.ttl); err != nil {
			g.logger.Warn("Alt text cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Generate the metadata for the attached image.")
	if req.Filename != "" {
		fmt.Fprintf(&b, "\nFilename: %s", req.Filename)
	}
	if req.PageTitle != "" {
		fmt.Fprintf(&b, "\nPage title: %s", req.PageTitle)
	}
	if c := strings.TrimSpace(req.Context); c != "" {
		fmt.Fprintf(&b, "\nSurrounding content: %s", c)
	}
	return b.String()
}

// CacheKey identifies a request by its image and context; the preferred provider is ignored.
func CacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{strings.TrimSpace(req.ImageURL), req.Filename, req.PageTitle, strings.TrimSpace(req.Context)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cachePrefix + hex.EncodeToString(h.Sum(nil))
}
