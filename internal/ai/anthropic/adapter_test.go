package anthropic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/ai/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const pixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func TestShape_ImageBeforeText(t *testing.T) {
	req := Shape("claude-test", ai.Prompt{
		System:   "You write alt text.",
		Messages: []ai.Message{{Role: ai.RoleUser, Text: "Filename: staff-training.jpg"}},
	}, &media.ImageData{MediaType: "image/png", Data: pixel})

	assert.Equal(t, "You write alt text.", req.System)
	assert.Equal(t, defaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Content, 2)
	assert.Equal(t, "image", req.Messages[0].Content[0].Type)
	assert.Equal(t, "base64", req.Messages[0].Content[0].Source.Type)
	assert.Equal(t, "image/png", req.Messages[0].Content[0].Source.MediaType)
	assert.Equal(t, "text", req.Messages[0].Content[1].Type)
}

func TestShape_SimpleText(t *testing.T) {
	req := Shape("claude-test", ai.Prompt{
		Messages:  []ai.Message{{Role: ai.RoleUser, Text: "Hello!"}},
		MaxTokens: 300,
	}, nil)

	assert.Empty(t, req.System)
	assert.Equal(t, 300, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "Hello!", req.Messages[0].Content[0].Text)
}

func TestAnthropicCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, DefaultVersion, r.Header.Get("anthropic-version"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "image/png", gjson.GetBytes(body, "messages.0.content.0.source.media_type").String())
		assert.Equal(t, pixel, gjson.GetBytes(body, "messages.0.content.0.source.data").String())

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"content": [{"type": "text", "text": "` + "```json\\n{\\\"alt\\\":\\\"Pixel\\\"}\\n```" + `"}],
			"stop_reason": "end_turn"
		}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(ai.ProviderConfig{APIKey: "sk-ant", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	text, err := adapter.Call(context.Background(), ai.Prompt{
		Messages: []ai.Message{{Role: ai.RoleUser, Text: "Describe"}},
		Image:    &ai.Image{URL: "data:image/png;base64," + pixel},
	})
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"alt\":\"Pixel\"}\n```", text)
	assert.Equal(t, "Pixel", ai.Parse(text, ai.Schema{Fields: []string{"alt"}, Fallback: "alt"}).Get("alt"))
}

func TestAnthropicCall_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: field required"}}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(ai.ProviderConfig{APIKey: "sk-ant", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.Call(context.Background(), ai.Prompt{Messages: []ai.Message{{Role: ai.RoleUser, Text: "x"}}})

	var pe *ai.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "max_tokens: field required", pe.Message)
}

func TestAnthropicCall_NoTextBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"tool_use","id":"t1"}]}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(ai.ProviderConfig{APIKey: "sk-ant", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.Call(context.Background(), ai.Prompt{Messages: []ai.Message{{Role: ai.RoleUser, Text: "x"}}})
	assert.ErrorIs(t, err, ai.ErrUnexpectedResponse)
}
