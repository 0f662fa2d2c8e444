// Package ratelimiter implements per-user token buckets in Redis.
package ratelimiter

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	obs "github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// Bucket families for LLM-backed operations.
const (
	FamilyInterview = "interview"
	FamilyAssistant = "assistant"
	FamilyResume    = "resume"
	FamilyAudio     = "audio"
)

// Families lists every family that NewUserLimiter configures.
var Families = []string{FamilyInterview, FamilyAssistant, FamilyResume, FamilyAudio}

type BucketConfig struct {
	Capacity   int64
	RefillRate float64 // tokens per second
}

func NewBucketConfigFromPerMinute(perMinute int) BucketConfig {
	if perMinute <= 0 {
		return BucketConfig{}
	}
	return BucketConfig{
		Capacity:   int64(perMinute),
		RefillRate: float64(perMinute) / 60.0,
	}
}

// RedisLuaLimiter evaluates a token bucket atomically inside Redis so that
// every API replica shares the same budget per user.
type RedisLuaLimiter struct {
	redis   redis.Scripter
	buckets map[string]BucketConfig
	script  *redis.Script
	mu      sync.RWMutex
	now     func() time.Time
}

var _ domain.RateLimiter = (*RedisLuaLimiter)(nil)

// NewRedisLuaLimiter returns nil when rdb is nil; a nil limiter allows everything.
func NewRedisLuaLimiter(rdb redis.Scripter, buckets map[string]BucketConfig) *RedisLuaLimiter {
	if rdb == nil {
		return nil
	}
	if buckets == nil {
		buckets = map[string]BucketConfig{}
	}
	return &RedisLuaLimiter{
		redis:   rdb,
		buckets: buckets,
		script:  redis.NewScript(luaTokenBucketScript),
		now:     time.Now,
	}
}

// NewUserLimiter configures every family with the same per-minute budget.
func NewUserLimiter(rdb redis.Scripter, perMinute int) *RedisLuaLimiter {
	cfg := NewBucketConfigFromPerMinute(perMinute)
	buckets := make(map[string]BucketConfig, len(Families))
	for _, f := range Families {
		buckets[f] = cfg
	}
	return NewRedisLuaLimiter(rdb, buckets)
}

// Redis truncates Lua numbers to integers in replies, so the wait is
// returned in whole milliseconds.
const luaTokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

local tokens = capacity
local last_refill = now

local data = redis.call("HMGET", key, "tokens", "last_refill")
if data[1] then
  tokens = tonumber(data[1])
end
if data[2] then
  last_refill = tonumber(data[2])
end

local delta = now - last_refill
if delta < 0 then
  delta = 0
end

tokens = math.min(capacity, tokens + delta * refill_rate)

local allowed = 0
local retry_ms = 0
if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
else
  retry_ms = math.ceil((cost - tokens) / refill_rate * 1000)
end

redis.call("HSET", key, "tokens", tostring(tokens), "last_refill", tostring(now))
redis.call("EXPIRE", key, math.ceil(capacity / refill_rate) + 1)

return { allowed, retry_ms }
`

// Allow consumes one token from family's bucket for key. Unknown families
// and Redis failures fail open.
func (l *RedisLuaLimiter) Allow(ctx context.Context, family, key string) (bool, time.Duration, error) {
	if l == nil || l.redis == nil {
		return true, 0, nil
	}
	l.mu.RLock()
	cfg, ok := l.buckets[family]
	l.mu.RUnlock()
	if !ok || cfg.Capacity <= 0 || cfg.RefillRate <= 0 {
		return true, 0, nil
	}

	nowSec := float64(l.now().UnixNano()) / 1e9
	redisKey := "rate:" + family + ":" + key
	res, err := l.script.Run(ctx, l.redis, []string{redisKey},
		cfg.Capacity,
		strconv.FormatFloat(cfg.RefillRate, 'f', -1, 64),
		strconv.FormatFloat(nowSec, 'f', 6, 64),
		1,
	).Int64Slice()
	if err != nil {
		slog.Error("redis rate limiter script error", slog.String("family", family), slog.Any("error", err))
		return true, 0, err
	}
	if len(res) < 2 {
		slog.Error("redis rate limiter unexpected script result", slog.String("family", family), slog.Any("result", res))
		return true, 0, nil
	}

	if res[0] != 1 {
		obs.RateLimitDenied(family)
		return false, time.Duration(res[1]) * time.Millisecond, nil
	}
	return true, 0, nil
}

// SetBucketConfig updates or creates the bucket configuration for a family.
// It is safe for concurrent use.
func (l *RedisLuaLimiter) SetBucketConfig(family string, cfg BucketConfig) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buckets == nil {
		l.buckets = map[string]BucketConfig{}
	}
	l.buckets[family] = cfg
}
