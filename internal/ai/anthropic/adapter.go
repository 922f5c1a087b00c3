package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/ai/media"
	"github.com/nulzo/care-assist/internal/httpclient"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultVersion   = "2023-06-01"
	defaultMaxTokens = 1024
)

func init() {
	ai.Register(ai.Anthropic, NewAdapter)
}

type Adapter struct {
	config ai.ProviderConfig
	client httpclient.HTTPClient
}

func NewAdapter(config ai.ProviderConfig) (ai.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	return &Adapter{
		config: config,
		client: ai.NewHTTPClient(config.Timeout),
	}, nil
}

func (a *Adapter) Name() ai.ProviderName { return ai.Anthropic }

type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Request struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

type Content struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

type ImageSource struct {
	Type      string `json:"type"`       // "base64"
	MediaType string `json:"media_type"` // "image/jpeg"
	Data      string `json:"data"`
}

// Shape converts a prompt into a messages API body. The image must already be
// loaded as base64; it is placed before the text of the last user turn.
func Shape(model string, p ai.Prompt, img *media.ImageData) Request {
	req := Request{
		Model:     model,
		System:    p.System,
		MaxTokens: p.MaxTokens,
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultMaxTokens
	}

	lastUser := -1
	for i, m := range p.Messages {
		if m.Role == ai.RoleUser {
			lastUser = i
		}
	}

	imagePart := func() Content {
		return Content{
			Type: "image",
			Source: &ImageSource{
				Type:      "base64",
				MediaType: img.MediaType,
				Data:      img.Data,
			},
		}
	}

	for i, m := range p.Messages {
		var parts []Content
		if i == lastUser && img != nil {
			parts = append(parts, imagePart())
		}
		if m.Text != "" {
			parts = append(parts, Content{Type: "text", Text: m.Text})
		}
		if len(parts) > 0 {
			req.Messages = append(req.Messages, Message{Role: string(m.Role), Content: parts})
		}
	}

	if lastUser == -1 && img != nil {
		req.Messages = append(req.Messages, Message{Role: string(ai.RoleUser), Content: []Content{imagePart()}})
	}
	return req
}

func (a *Adapter) Call(ctx context.Context, p ai.Prompt) (string, error) {
	var img *media.ImageData
	if p.Image != nil {
		loaded, err := media.Load(ctx, a.client, p.Image.URL)
		if err != nil {
			return "", ai.TranslateError(ai.Anthropic, fmt.Errorf("loading image: %w", err))
		}
		img = loaded
	}

	headers := map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": DefaultVersion,
	}
	if v, ok := a.config.Config["version"]; ok {
		headers["anthropic-version"] = v
	}

	url := fmt.Sprintf("%s/messages", strings.TrimRight(a.config.BaseURL, "/"))
	body, err := httpclient.Send(ctx, a.client, http.MethodPost, url, headers, Shape(a.config.Model, p, img))
	if err != nil {
		return "", ai.TranslateError(ai.Anthropic, err)
	}

	if !gjson.ValidBytes(body) {
		return "", ai.Unexpected(ai.Anthropic, "response is not JSON")
	}
	blocks := gjson.GetBytes(body, "content")
	if !blocks.IsArray() {
		return "", ai.Unexpected(ai.Anthropic, "missing content blocks")
	}

	var sb strings.Builder
	found := false
	blocks.ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			sb.WriteString(block.Get("text").String())
			found = true
		}
		return true
	})
	if !found {
		return "", ai.Unexpected(ai.Anthropic, "no text content block")
	}
	return strings.TrimSpace(sb.String()), nil
}
