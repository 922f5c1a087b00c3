package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := sqlite.NewSQLiteStorage(zap.NewNop(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestToLog(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	log := ToLog(&ai.Generation{
		ID:      "g1",
		Feature: "alt_text",
		Result:  &ai.Result{Provider: ai.Groq},
		Attempts: []ai.Attempt{
			{Provider: ai.OpenAI, Outcome: ai.OutcomeTransport, Error: "timeout"},
			{Provider: ai.Groq, Outcome: ai.OutcomeSuccess},
		},
		Latency:   1500 * time.Millisecond,
		CreatedAt: created,
	})

	assert.Equal(t, StatusSuccess, log.Status)
	assert.Equal(t, "groq", log.ProviderID)
	assert.Equal(t, 2, log.AttemptCount)
	assert.Equal(t, int64(1500), log.LatencyMS)
	assert.Contains(t, log.AttemptsJSON, `"outcome":"transport_error"`)
	assert.Equal(t, created, log.CreatedAt)

	exhausted := ToLog(&ai.Generation{ID: "g2", Exhausted: true})
	assert.Equal(t, StatusExhausted, exhausted.Status)
	assert.Equal(t, "", exhausted.ProviderID)
	assert.Equal(t, "[]", exhausted.AttemptsJSON)
}

func TestIngestor_FlushesOnStop(t *testing.T) {
	repo := newRepo(t)
	ing := NewIngestor(zap.NewNop(), repo)
	ing.Start(context.Background())

	now := time.Now()
	ing.Record(&ai.Generation{ID: "a", Feature: "alt_text", Result: &ai.Result{Provider: ai.OpenAI}, CreatedAt: now})
	ing.Record(&ai.Generation{ID: "b", Feature: "seo_chat", Exhausted: true, CreatedAt: now})
	ing.Stop()

	// records after stop are dropped silently
	ing.Record(&ai.Generation{ID: "c", CreatedAt: now})
	ing.Stop()

	got, err := repo.Generations().GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "openai", got.ProviderID)

	_, err = repo.Generations().GetByID(context.Background(), "c")
	assert.ErrorIs(t, err, store.ErrNotFound)

	stats, err := NewService(repo).GetUsageOverview(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].TotalRequests)
	assert.Equal(t, 1, stats[0].ExhaustedCount)
}

func TestClampDays(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultDays},
		{-3, DefaultDays},
		{1, 1},
		{30, 30},
		{MaxDays, MaxDays},
		{500, MaxDays},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampDays(tt.in), "days=%d", tt.in)
	}
}
