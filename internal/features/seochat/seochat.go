// Package seochat is the conversational SEO assistant shown in the site admin.
package seochat

import (
	"context"
	"errors"
	"strings"

	"github.com/nulzo/care-assist/internal/ai"
	"go.uber.org/zap"
)

const (
	Feature = "seo_chat"

	// MaxHistory caps how many prior turns are sent with each message.
	MaxHistory = 10
	maxTokens  = 1000
)

var ErrEmptyMessage = errors.New("message is required")

var schema = ai.Schema{Fallback: "reply"}

const instructions = `You are an SEO assistant for a UK care-sector training company that runs
courses such as moving and handling, medication awareness and safeguarding.
Use British English. Give practical, specific advice on page titles, meta descriptions,
headings, internal links and content for care providers and their staff.
Keep answers concise and use short lists where they help.`

type Turn struct {
	Role    ai.Role `json:"role" binding:"required,oneof=user assistant"`
	Content string  `json:"content" binding:"required"`
}

type Request struct {
	Message   string          `json:"message" binding:"required,max=4000"`
	History   []Turn          `json:"history,omitempty" binding:"dive"`
	Preferred ai.ProviderName `json:"preferred_provider,omitempty"`
}

type Reply struct {
	Reply    string          `json:"reply"`
	Provider ai.ProviderName `json:"provider"`
	Attempts []ai.Attempt    `json:"attempts,omitempty"`
}

type Assistant struct {
	svc    ai.Service
	logger *zap.Logger
}

func New(svc ai.Service, logger *zap.Logger) *Assistant {
	return &Assistant{svc: svc, logger: logger}
}

// accept is the chat success predicate: the reply must carry text.
func accept(r ai.Result) bool {
	return r.Get("reply") != ""
}

func (a *Assistant) Reply(ctx context.Context, req Request) (*Reply, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	gen, err := a.svc.Generate(ctx, ai.GenerateRequest{
		Feature:      Feature,
		Preferred:    req.Preferred,
		Instructions: instructions,
		Messages:     Conversation(req.History, msg),
		MaxTokens:    maxTokens,
		Capability:   ai.AnyCapability,
		Schema:       schema,
		Accept:       accept,
	})
	if err != nil {
		return nil, err
	}

	return &Reply{
		Reply:    gen.Result.Get("reply"),
		Provider: gen.Result.Provider,
		Attempts: gen.Attempts,
	}, nil
}

// Conversation keeps the latest MaxHistory usable turns and appends the new message.
// Turns with an unknown role or no content are dropped.
func Conversation(history []Turn, message string) []ai.Message {
	kept := make([]ai.Message, 0, len(history)+1)
	for _, t := range history {
		text := strings.TrimSpace(t.Content)
		if text == "" || (t.Role != ai.RoleUser && t.Role != ai.RoleAssistant) {
			continue
		}
		kept = append(kept, ai.Message{Role: t.Role, Text: text})
	}
	if len(kept) > MaxHistory {
		kept = kept[len(kept)-MaxHistory:]
	}
	return append(kept, ai.Message{Role: ai.RoleUser, Text: message})
}
