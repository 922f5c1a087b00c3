package store

import (
	"context"
	"errors"

	"github.com/nulzo/care-assist/internal/store/model"
)

var ErrNotFound = errors.New("record not found")

// Repository is the main contract for the data layer.
type Repository interface {
	Credentials() CredentialRepository
	Settings() SettingRepository
	Generations() GenerationRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type CredentialRepository interface {
	// List returns every stored credential ordered by provider.
	List(ctx context.Context) ([]model.Credential, error)
	// Get returns ErrNotFound when the provider has no key.
	Get(ctx context.Context, provider string) (*model.Credential, error)
	Upsert(ctx context.Context, cred *model.Credential) error
	Delete(ctx context.Context, provider string) error
}

type SettingRepository interface {
	// Get returns ErrNotFound when the key was never set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type GenerationRepository interface {
	// Log stores a finished generation.
	Log(ctx context.Context, log *model.GenerationLog) error
	GetByID(ctx context.Context, id string) (*model.GenerationLog, error)
	// GetDailyStats returns aggregated stats grouped by day.
	GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}
