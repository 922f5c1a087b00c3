package model

import (
	"time"
)

// Credential is the API key stored for one AI provider.
type Credential struct {
	Provider  string    `db:"provider" json:"provider"`
	APIKey    string    `db:"api_key" json:"-"` // Never returned
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Setting is a single site-level configuration value.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GenerationLog captures one fallback chain run.
type GenerationLog struct {
	ID           string    `db:"id" json:"id"`
	Feature      string    `db:"feature" json:"feature"`
	ProviderID   string    `db:"provider_id" json:"provider_id"` // Empty when exhausted
	Status       string    `db:"status" json:"status"`           // 'success', 'exhausted'
	AttemptCount int       `db:"attempt_count" json:"attempt_count"`
	AttemptsJSON string    `db:"attempts_json" json:"attempts_json"`
	LatencyMS    int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DailyStats represents aggregated generation data for a specific day.
type DailyStats struct {
	Date             string  `db:"date" json:"date"`
	TotalRequests    int     `db:"total_requests" json:"total_requests"`
	SuccessCount     int     `db:"success_count" json:"success_count"`
	ExhaustedCount   int     `db:"exhausted_count" json:"exhausted_count"`
	AverageAttempts  float64 `db:"avg_attempts" json:"avg_attempts"`
	AverageLatencyMS float64 `db:"avg_latency" json:"avg_latency"`
}
