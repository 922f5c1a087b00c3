package api

import (
	"encoding/json"
	"time"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type SetKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

type SetPreferredRequest struct {
	// Empty clears the preference.
	Provider string `json:"provider" binding:"omitempty,oneof=openai anthropic groq"`
}

// ListResponse wraps collection payloads.
type ListResponse[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
}

type StatsResponse struct {
	Days        int         `json:"days"`
	GeneratedAt time.Time   `json:"generated_at"`
	Data        interface{} `json:"data"`
}

type GenerationResponse struct {
	ID        string          `json:"id"`
	Feature   string          `json:"feature"`
	Provider  string          `json:"provider,omitempty"`
	Status    string          `json:"status"`
	Attempts  json.RawMessage `json:"attempts"`
	LatencyMS int64           `json:"latency_ms"`
	CreatedAt time.Time       `json:"created_at"`
}
