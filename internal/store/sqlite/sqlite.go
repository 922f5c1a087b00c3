package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Credentials() store.CredentialRepository {
	return &credentialRepo{db: r.executor}
}

func (r *SqliteRepository) Settings() store.SettingRepository {
	return &settingRepo{db: r.executor}
}

func (r *SqliteRepository) Generations() store.GenerationRepository {
	return &generationRepo{db: r.executor}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

type credentialRepo struct {
	db DB
}

func (r *credentialRepo) List(ctx context.Context) ([]model.Credential, error) {
	creds := []model.Credential{}
	err := r.db.SelectContext(ctx, &creds, `SELECT * FROM provider_credentials ORDER BY provider`)
	return creds, err
}

func (r *credentialRepo) Get(ctx context.Context, provider string) (*model.Credential, error) {
	var cred model.Credential
	if err := r.db.GetContext(ctx, &cred, `SELECT * FROM provider_credentials WHERE provider = ?`, provider); err != nil {
		return nil, notFound(err)
	}
	return &cred, nil
}

func (r *credentialRepo) Upsert(ctx context.Context, cred *model.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	query := `
	INSERT INTO provider_credentials (provider, api_key, created_at, updated_at)
	VALUES (:provider, :api_key, :created_at, :updated_at)
	ON CONFLICT(provider) DO UPDATE SET
		api_key = excluded.api_key,
		updated_at = excluded.updated_at`
	_, err := r.db.NamedExecContext(ctx, query, cred)
	return err
}

func (r *credentialRepo) Delete(ctx context.Context, provider string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM provider_credentials WHERE provider = ?`, provider)
	return err
}

type settingRepo struct {
	db DB
}

func (r *settingRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := r.db.GetContext(ctx, &value, `SELECT value FROM site_settings WHERE key = ?`, key); err != nil {
		return "", notFound(err)
	}
	return value, nil
}

func (r *settingRepo) Set(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO site_settings (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}

type generationRepo struct {
	db DB
}

func (r *generationRepo) Log(ctx context.Context, log *model.GenerationLog) error {
	query := `
	INSERT INTO generation_logs (
		id, feature, provider_id, status, attempt_count, attempts_json, latency_ms, created_at
	) VALUES (
		:id, :feature, :provider_id, :status, :attempt_count, :attempts_json, :latency_ms, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, log)
	return err
}

func (r *generationRepo) GetByID(ctx context.Context, id string) (*model.GenerationLog, error) {
	var log model.GenerationLog
	if err := r.db.GetContext(ctx, &log, `SELECT * FROM generation_logs WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &log, nil
}

func (r *generationRepo) GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	if days < 1 {
		days = 1
	}
	stats := []model.DailyStats{}
	query := `
		SELECT
			DATE(created_at) as date,
			COUNT(*) as total_requests,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN status = 'exhausted' THEN 1 ELSE 0 END) as exhausted_count,
			AVG(attempt_count) as avg_attempts,
			AVG(latency_ms) as avg_latency
		FROM generation_logs
		WHERE DATE(created_at) >= DATE('now', ?)
		GROUP BY date
		ORDER BY date DESC
	`
	// SQLite date offset format is '-6 days'; today counts as the first day
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days-1))
	return stats, err
}
