// Package ratelimit throttles repeated attempts, such as logins, per key
// using fixed time windows.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another attempt for key is allowed. When it is not,
// retryAfter tells how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Redis is a fixed-window limiter shared by every server using the same
// Redis instance.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// NewRedis returns a limiter allowing limit attempts per window.
func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow implements Limiter.
func (l *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := incrWindow.Run(ctx, l.client, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected result %v", res)
	}
	if res[0] <= int64(l.limit) {
		return true, 0, nil
	}
	return false, time.Duration(max(res[1], 0)) * time.Millisecond, nil
}

// Memory is a fixed-window limiter local to one process.
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]window
}

type window struct {
	count int
	reset time.Time
}

// NewMemory returns an in-process limiter allowing limit attempts per window.
func NewMemory(limit int, w time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  w,
		now:     time.Now,
		windows: make(map[string]window),
	}
}

// Allow implements Limiter.
func (l *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if !now.Before(w.reset) {
		// Drop stale windows so the map does not grow without bound.
		for k, old := range l.windows {
			if !now.Before(old.reset) {
				delete(l.windows, k)
			}
		}
		w = window{reset: now.Add(l.window)}
	}
	w.count++
	l.windows[key] = w

	if w.count <= l.limit {
		return true, 0, nil
	}
	return false, w.reset.Sub(now), nil
}
