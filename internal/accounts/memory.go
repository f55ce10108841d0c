package accounts

import (
	"context"
	"sync"
	"time"
)

// in-process store for development and tests
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}

	return &a, nil
}

func (s *MemoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.UserID]; ok {
		return nil
	}

	s.accounts[account.UserID] = *account
	return nil
}

func (s *MemoryStore) Charge(_ context.Context, userID, today string, limit int) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}

	switch {
	case a.LastUsageDate < today:
		a.DailyUses = 1
	case a.DailyUses < limit:
		a.DailyUses++
	default:
		return nil, ErrQuotaExhausted
	}

	a.LastUsageDate = today
	a.UpdatedAt = time.Now().UTC()
	s.accounts[userID] = a

	return &a, nil
}

// replaces a record outright; used to seed premium or historical accounts
func (s *MemoryStore) Put(account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.UserID] = account
}

func (s *MemoryStore) Close() error {
	return nil
}
