package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles repeated login attempts for one account.
type LoginLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}

var loginAttemptScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLoginLimiter counts attempts in a fixed window keyed by normalized email.
type RedisLoginLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
}

// NewRedisLoginLimiter builds a limiter. A non-positive limit disables throttling.
func NewRedisLoginLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLoginLimiter {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &RedisLoginLimiter{client: client, limit: limit, window: window}
}

// Allow records an attempt and reports whether it is within the limit.
func (l *RedisLoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true, nil
	}
	result, err := loginAttemptScript.Run(ctx, l.client, []string{loginKey(email)}, l.window.Milliseconds()).Result()
	if err != nil {
		return true, err
	}
	current, ok := result.(int64)
	if !ok {
		return true, errors.New("unexpected redis login counter response")
	}
	return current <= int64(l.limit), nil
}

// Reset clears the counter after a successful login.
func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, loginKey(email)).Err()
}

func loginKey(email string) string {
	return "login:attempts:" + strings.ToLower(strings.TrimSpace(email))
}
