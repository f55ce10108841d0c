package accounts

import "time"

// daily allowance rules for free accounts
type Policy struct {
	DailyLimit int
	Now        func() time.Time
}

func NewPolicy(dailyLimit int) Policy {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}

	return Policy{DailyLimit: dailyLimit, Now: time.Now}
}

// current UTC date in DateLayout
func (p Policy) Today() string {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	return now().UTC().Format(DateLayout)
}

// uses counted against today; a record last used on an earlier date counts as zero
func (p Policy) EffectiveUses(a *Account) int {
	if a.LastUsageDate < p.Today() {
		return 0
	}

	return a.DailyUses
}

// true when a free account has no requests left today
func (p Policy) Exhausted(a *Account) bool {
	if a.IsPremium {
		return false
	}

	return p.EffectiveUses(a) >= p.DailyLimit
}

// requests left today, -1 for unlimited
func (p Policy) Remaining(a *Account) int {
	if a.IsPremium {
		return -1
	}

	remaining := p.DailyLimit - p.EffectiveUses(a)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// defaults for a lazily created record
func (p Policy) NewAccount(userID string) *Account {
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now().UTC()
	}

	return &Account{
		UserID:        userID,
		IsPremium:     false,
		DailyUses:     0,
		LastUsageDate: now.Format(DateLayout),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// account state as shown to the client
type Snapshot struct {
	UserID        string `json:"user_id"`
	IsPremium     bool   `json:"is_premium"`
	DailyUses     int    `json:"daily_uses"`
	DailyLimit    int    `json:"daily_limit"`
	Remaining     int    `json:"remaining"` // -1 for unlimited
	LastUsageDate string `json:"last_usage_date"`
}

// true when a free account has nothing left today; premium never is
func (s *Snapshot) Exhausted() bool {
	return s.ExhaustedOn(time.Now().UTC().Format(DateLayout))
}

// a snapshot last used before today is stale; its allowance has reset
func (s *Snapshot) ExhaustedOn(today string) bool {
	if s.IsPremium || s.LastUsageDate < today {
		return false
	}

	return s.Remaining == 0
}

func (p Policy) Snapshot(a *Account) *Snapshot {
	return &Snapshot{
		UserID:        a.UserID,
		IsPremium:     a.IsPremium,
		DailyUses:     p.EffectiveUses(a),
		DailyLimit:    p.DailyLimit,
		Remaining:     p.Remaining(a),
		LastUsageDate: a.LastUsageDate,
	}
}
