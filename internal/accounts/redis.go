package accounts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyAccount = "studyai:account:%s"

// redis-backed account store, one hash per user
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// creates a store from a redis URL and checks the connection
func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// returns the underlying client so other components can share the connection
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// KEYS[1] = account hash
// ARGV = is_premium, daily_uses, last_usage_date, created_at, updated_at
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1],
	"is_premium", ARGV[1],
	"daily_uses", ARGV[2],
	"last_usage_date", ARGV[3],
	"created_at", ARGV[4],
	"updated_at", ARGV[5])
return 1
`)

// KEYS[1] = account hash
// ARGV[1] = today, ARGV[2] = limit, ARGV[3] = now
// returns the updated hash, -1 when missing, 0 when exhausted
var chargeScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
local last = redis.call("HGET", KEYS[1], "last_usage_date") or ""
local uses = tonumber(redis.call("HGET", KEYS[1], "daily_uses") or "0")
if last < ARGV[1] then
	uses = 1
elseif uses < tonumber(ARGV[2]) then
	uses = uses + 1
else
	return 0
end
redis.call("HSET", KEYS[1],
	"daily_uses", tostring(uses),
	"last_usage_date", ARGV[1],
	"updated_at", ARGV[3])
return redis.call("HGETALL", KEYS[1])
`)

func (s *RedisStore) Get(ctx context.Context, userID string) (*Account, error) {
	fields, err := s.client.HGetAll(ctx, fmt.Sprintf(keyAccount, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get account from redis: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	return accountFromHash(userID, fields)
}

func (s *RedisStore) Create(ctx context.Context, account *Account) error {
	err := createScript.Run(ctx, s.client,
		[]string{fmt.Sprintf(keyAccount, account.UserID)},
		boolToFlag(account.IsPremium),
		account.DailyUses,
		account.LastUsageDate,
		account.CreatedAt.UTC().Format(time.RFC3339Nano),
		account.UpdatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to create account in redis: %w", err)
	}

	return nil
}

func (s *RedisStore) Charge(ctx context.Context, userID, today string, limit int) (*Account, error) {
	res, err := chargeScript.Run(ctx, s.client,
		[]string{fmt.Sprintf(keyAccount, userID)},
		today,
		limit,
		time.Now().UTC().Format(time.RFC3339Nano),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to charge account in redis: %w", err)
	}

	switch v := res.(type) {
	case int64:
		if v < 0 {
			return nil, ErrNotFound
		}

		return nil, ErrQuotaExhausted
	case []any:
		fields := make(map[string]string, len(v)/2)
		for i := 0; i+1 < len(v); i += 2 {
			key, _ := v[i].(string)
			val, _ := v[i+1].(string)
			fields[key] = val
		}

		return accountFromHash(userID, fields)
	default:
		return nil, fmt.Errorf("unexpected charge script result %T", res)
	}
}

// flips the premium flag; scripts/gen_test_token.go uses it to seed premium accounts
func (s *RedisStore) SetPremium(ctx context.Context, userID string, premium bool) error {
	key := fmt.Sprintf(keyAccount, userID)

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check account in redis: %w", err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return s.client.HSet(ctx, key,
		"is_premium", boolToFlag(premium),
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func accountFromHash(userID string, fields map[string]string) (*Account, error) {
	uses, err := strconv.Atoi(fields["daily_uses"])
	if err != nil {
		return nil, fmt.Errorf("invalid daily_uses for account %s: %w", userID, err)
	}

	a := &Account{
		UserID:        userID,
		IsPremium:     fields["is_premium"] == "1",
		DailyUses:     uses,
		LastUsageDate: fields["last_usage_date"],
	}

	// timestamps are informational; tolerate missing values
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])

	return a, nil
}

func boolToFlag(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
