package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/internal/store/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := NewSQLiteStorage(zap.NewNop(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCredentials_UpsertListDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Credentials().Upsert(ctx, &model.Credential{Provider: "openai", APIKey: "sk-one"}))
	require.NoError(t, repo.Credentials().Upsert(ctx, &model.Credential{Provider: "anthropic", APIKey: "sk-ant"}))
	require.NoError(t, repo.Credentials().Upsert(ctx, &model.Credential{Provider: "openai", APIKey: "sk-two"}))

	creds, err := repo.Credentials().List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "anthropic", creds[0].Provider)
	assert.Equal(t, "openai", creds[1].Provider)
	assert.Equal(t, "sk-two", creds[1].APIKey)

	require.NoError(t, repo.Credentials().Delete(ctx, "openai"))
	_, err = repo.Credentials().Get(ctx, "openai")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSettings_GetSet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Settings().Get(ctx, "ai.preferred_provider")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.Settings().Set(ctx, "ai.preferred_provider", "groq"))
	require.NoError(t, repo.Settings().Set(ctx, "ai.preferred_provider", "anthropic"))

	v, err := repo.Settings().Get(ctx, "ai.preferred_provider")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", v)
}

func TestWithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx store.Repository) error {
		if err := tx.Settings().Set(ctx, "k", "v"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Settings().Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenerations_DailyStats(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Now().UTC()

	logs := []*model.GenerationLog{
		{ID: "g1", Feature: "alt_text", ProviderID: "openai", Status: "success", AttemptCount: 1, AttemptsJSON: "[]", LatencyMS: 100, CreatedAt: now},
		{ID: "g2", Feature: "alt_text", ProviderID: "groq", Status: "success", AttemptCount: 3, AttemptsJSON: "[]", LatencyMS: 300, CreatedAt: now},
		{ID: "g3", Feature: "seo_chat", Status: "exhausted", AttemptCount: 2, AttemptsJSON: "[]", LatencyMS: 200, CreatedAt: now},
		{ID: "old", Feature: "seo_chat", Status: "success", AttemptCount: 1, AttemptsJSON: "[]", LatencyMS: 10, CreatedAt: now.AddDate(0, 0, -30)},
	}
	for _, l := range logs {
		require.NoError(t, repo.Generations().Log(ctx, l))
	}

	got, err := repo.Generations().GetByID(ctx, "g3")
	require.NoError(t, err)
	assert.Equal(t, "exhausted", got.Status)
	assert.Equal(t, "", got.ProviderID)

	stats, err := repo.Generations().GetDailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, now.Format("2006-01-02"), stats[0].Date)
	assert.Equal(t, 3, stats[0].TotalRequests)
	assert.Equal(t, 2, stats[0].SuccessCount)
	assert.Equal(t, 1, stats[0].ExhaustedCount)
	assert.InDelta(t, 2.0, stats[0].AverageAttempts, 0.001)
	assert.InDelta(t, 200.0, stats[0].AverageLatencyMS, 0.001)
}
