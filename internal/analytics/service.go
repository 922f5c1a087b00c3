package analytics

import (
	"context"

	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/internal/store/model"
)

const (
	DefaultDays = 7
	MaxDays     = 90
)

type Service interface {
	GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error)
	// GetGeneration returns store.ErrNotFound for unknown ids.
	GetGeneration(ctx context.Context, id string) (*model.GenerationLog, error)
}

type service struct {
	repo store.Repository
}

func NewService(repo store.Repository) Service {
	return &service{
		repo: repo,
	}
}

// ClampDays bounds a requested stats window to 1..MaxDays, defaulting when unset.
func ClampDays(days int) int {
	if days <= 0 {
		return DefaultDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

func (s *service) GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error) {
	return s.repo.Generations().GetDailyStats(ctx, ClampDays(days))
}

func (s *service) GetGeneration(ctx context.Context, id string) (*model.GenerationLog, error) {
	return s.repo.Generations().GetByID(ctx, id)
}
