package accounts

import (
	"context"
	"errors"
	"time"
)

// layout of LastUsageDate
const DateLayout = "2006-01-02"

// default number of requests a free account may make per day
const DefaultDailyLimit = 15

var (
	ErrNotFound       = errors.New("account not found")
	ErrQuotaExhausted = errors.New("daily quota exhausted")
)

// per-user record holding the premium flag and today's usage
type Account struct {
	UserID        string    `json:"user_id"`
	IsPremium     bool      `json:"is_premium"`
	DailyUses     int       `json:"daily_uses"`
	LastUsageDate string    `json:"last_usage_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// persists account records
type Store interface {
	// returns ErrNotFound when no record exists
	Get(ctx context.Context, userID string) (*Account, error)

	// inserts a record; an existing record for the user is left untouched
	Create(ctx context.Context, account *Account) error

	// atomically records one use for today
	// the counter restarts at 1 when the stored date is before today,
	// otherwise it is incremented only while below limit
	// returns ErrQuotaExhausted or ErrNotFound when nothing was updated
	Charge(ctx context.Context, userID, today string, limit int) (*Account, error)

	Close() error
}
