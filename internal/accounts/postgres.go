package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `user_id, is_premium, daily_uses, last_usage_date::text, created_at, updated_at`

// postgres-backed account store
// reads and charges go through pool; lazy creation goes through the privileged admin pool
type PostgresStore struct {
	pool  *pgxpool.Pool
	admin *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// admin may be nil, in which case pool is used for creation as well
func NewPostgresStore(pool, admin *pgxpool.Pool) *PostgresStore {
	if admin == nil {
		admin = pool
	}

	return &PostgresStore{pool: pool, admin: admin}
}

// creates the accounts table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.admin.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS study_accounts (
			user_id TEXT PRIMARY KEY,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			daily_uses INTEGER NOT NULL DEFAULT 0 CHECK (daily_uses >= 0),
			last_usage_date DATE NOT NULL DEFAULT CURRENT_DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure accounts schema: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM study_accounts
		WHERE user_id = $1
	`, userID)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

func (s *PostgresStore) Create(ctx context.Context, account *Account) error {
	_, err := s.admin.Exec(ctx, `
		INSERT INTO study_accounts (user_id, is_premium, daily_uses, last_usage_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4::date, $5, $6)
		ON CONFLICT (user_id) DO NOTHING
	`,
		account.UserID,
		account.IsPremium,
		account.DailyUses,
		account.LastUsageDate,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (s *PostgresStore) Charge(ctx context.Context, userID, today string, limit int) (*Account, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE study_accounts
		SET daily_uses = CASE WHEN last_usage_date < $2::date THEN 1 ELSE daily_uses + 1 END,
			last_usage_date = $2::date,
			updated_at = NOW()
		WHERE user_id = $1
		AND (last_usage_date < $2::date OR daily_uses < $3)
		RETURNING `+accountColumns,
		userID, today, limit,
	)

	account, err := scanAccount(row)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to charge account: %w", err)
	}

	// nothing updated: either the record is gone or the allowance is spent
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	return nil, ErrQuotaExhausted
}

// closes both pools
func (s *PostgresStore) Close() error {
	if s.admin != s.pool {
		s.admin.Close()
	}

	s.pool.Close()
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account

	err := row.Scan(
		&a.UserID,
		&a.IsPremium,
		&a.DailyUses,
		&a.LastUsageDate,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
