package railpoint

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint/storage/model"
)

// Rate limit scopes; each scope counts independently per client IP.
const (
	RateLimitScopeLookup  = "lookup"
	RateLimitScopeResolve = "resolve"
)

const (
	defaultLookupLimit   = 60
	defaultResolveLimit  = 30
	defaultWindowSeconds = 60
)

// RedisConf configures the redis connection used for rate limit counters.
type RedisConf struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConf configures request throttling on the lookup and resolve
// endpoints.
type RateLimitConf struct {
	Enabled       bool      `yaml:"enabled"`
	Redis         RedisConf `yaml:"redis"`
	LookupLimit   int       `yaml:"lookup_limit"`
	ResolveLimit  int       `yaml:"resolve_limit"`
	WindowSeconds int       `yaml:"window_seconds"`
}

func (c *RateLimitConf) validate() error {
	if c.LookupLimit <= 0 {
		c.LookupLimit = defaultLookupLimit
	}
	if c.ResolveLimit <= 0 {
		c.ResolveLimit = defaultResolveLimit
	}
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = defaultWindowSeconds
	}
	return nil
}

type localWindow struct {
	start time.Time
	count int
}

// RateLimiter throttles per-IP request counts in fixed windows. Counters
// live in redis when configured so limits hold across replicas; on redis
// errors or without redis it degrades to per-process counting rather
// than failing requests.
type RateLimiter struct {
	conf RateLimitConf
	rdb  *redis.Client
	kv   model.KeyValueStore

	mu    sync.Mutex
	local map[string]*localWindow
}

// NewRateLimiter creates a RateLimiter. kv may carry admin-set limit
// overrides; pass nil to use the static configuration only.
func NewRateLimiter(conf RateLimitConf, kv model.KeyValueStore) *RateLimiter {
	_ = conf.validate()
	l := &RateLimiter{
		conf:  conf,
		kv:    kv,
		local: make(map[string]*localWindow),
	}
	if conf.Enabled && conf.Redis.Addr != "" {
		l.rdb = redis.NewClient(
			&redis.Options{
				Addr:     conf.Redis.Addr,
				Password: conf.Redis.Password,
				DB:       conf.Redis.DB,
			},
		)
	}
	return l
}

// Middleware returns a fiber handler enforcing the limit for the scope.
func (l *RateLimiter) Middleware(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil || !l.conf.Enabled {
			return c.Next()
		}
		limit, window := l.limitFor(scope)
		now := time.Now()
		windowStart := now.Truncate(window)
		key := fmt.Sprintf("rl:%s:%s:%d", scope, c.IP(), windowStart.Unix())

		var count int
		if l.rdb != nil {
			var err error
			count, err = l.increment(c, key, window)
			if err != nil {
				log.WithError(err).Warn("rate limit counter unavailable, using in-process fallback")
				count = l.incrementLocal(key, windowStart)
			}
		} else {
			count = l.incrementLocal(key, windowStart)
		}
		if count > limit {
			retryAfter := int(windowStart.Add(window).Sub(now).Seconds()) + 1
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(
				ErrorRateLimited("too many requests, slow down"),
			)
		}
		return c.Next()
	}
}

// limitFor returns the limit and window for a scope, preferring admin
// overrides from the key-value store over the static configuration.
func (l *RateLimiter) limitFor(scope string) (int, time.Duration) {
	limit := l.conf.LookupLimit
	key := model.KeyValueKeyLookupLimit
	if scope == RateLimitScopeResolve {
		limit = l.conf.ResolveLimit
		key = model.KeyValueKeyResolveLimit
	}
	windowSeconds := l.conf.WindowSeconds
	if l.kv != nil {
		var override int
		if found, err := l.kv.GetAs(model.KeyValueScopeRateLimit, key, &override); err == nil && found && override > 0 {
			limit = override
		}
		if found, err := l.kv.GetAs(
			model.KeyValueScopeRateLimit, model.KeyValueKeyWindow, &override,
		); err == nil && found && override > 0 {
			windowSeconds = override
		}
	}
	return limit, time.Duration(windowSeconds) * time.Second
}

func (l *RateLimiter) increment(c *fiber.Ctx, key string, window time.Duration) (int, error) {
	ctx := c.Context()
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (l *RateLimiter) incrementLocal(key string, windowStart time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.local[key]
	if w == nil || !w.start.Equal(windowStart) {
		w = &localWindow{start: windowStart}
		l.local[key] = w
	}
	w.count++
	// Drop stale windows so the map does not grow without bound.
	if len(l.local) > 10000 {
		for k, v := range l.local {
			if v.start.Before(windowStart) {
				delete(l.local, k)
			}
		}
	}
	return w.count
}
