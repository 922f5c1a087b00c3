package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/httpclient"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

func init() {
	ai.Register(ai.OpenAI, NewAdapter)
}

// Defaults describe an OpenAI-compatible upstream.
type Defaults struct {
	BaseURL string
	Model   string
	Vision  bool
}

type Adapter struct {
	name   ai.ProviderName
	config ai.ProviderConfig
	client httpclient.HTTPClient
	vision bool
}

func NewAdapter(config ai.ProviderConfig) (ai.Provider, error) {
	return NewCompatible(ai.OpenAI, config, Defaults{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Vision:  true,
	}), nil
}

// NewCompatible builds an adapter for any chat-completions compatible API.
func NewCompatible(name ai.ProviderName, config ai.ProviderConfig, d Defaults) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = d.BaseURL
	}
	if config.Model == "" {
		config.Model = d.Model
	}
	return &Adapter{
		name:   name,
		config: config,
		client: ai.NewHTTPClient(config.Timeout),
		vision: d.Vision,
	}
}

func (a *Adapter) Name() ai.ProviderName { return a.name }

type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []ContentPart
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// Shape converts a provider-neutral prompt into a chat completions body.
// The image, if any, is attached to the last user turn as an image_url part.
func Shape(model string, p ai.Prompt) Request {
	req := Request{
		Model:       model,
		MaxTokens:   p.MaxTokens,
		Temperature: 0.5,
	}
	if p.System != "" {
		req.Messages = append(req.Messages, Message{Role: "system", Content: p.System})
	}

	lastUser := -1
	for i, m := range p.Messages {
		if m.Role == ai.RoleUser {
			lastUser = i
		}
	}

	for i, m := range p.Messages {
		if i == lastUser && p.Image != nil {
			req.Messages = append(req.Messages, Message{Role: string(m.Role), Content: []ContentPart{
				{Type: "text", Text: m.Text},
				{Type: "image_url", ImageURL: &ImageURL{URL: p.Image.URL}},
			}})
			continue
		}
		req.Messages = append(req.Messages, Message{Role: string(m.Role), Content: m.Text})
	}

	if lastUser == -1 && p.Image != nil {
		req.Messages = append(req.Messages, Message{Role: string(ai.RoleUser), Content: []ContentPart{
			{Type: "image_url", ImageURL: &ImageURL{URL: p.Image.URL}},
		}})
	}
	return req
}

func (a *Adapter) Call(ctx context.Context, p ai.Prompt) (string, error) {
	if p.Image != nil && !a.vision {
		return "", fmt.Errorf("%w: %s cannot take image input", ai.ErrUnsupportedContent, a.name)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
	if org, ok := a.config.Config["organization"]; ok {
		headers["OpenAI-Organization"] = org
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.config.BaseURL, "/"))
	body, err := httpclient.Send(ctx, a.client, http.MethodPost, url, headers, Shape(a.config.Model, p))
	if err != nil {
		return "", ai.TranslateError(a.name, err)
	}

	if !gjson.ValidBytes(body) {
		return "", ai.Unexpected(a.name, "response is not JSON")
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if content.Type != gjson.String {
		return "", ai.Unexpected(a.name, "missing choices[0].message.content")
	}
	return strings.TrimSpace(content.String()), nil
}
