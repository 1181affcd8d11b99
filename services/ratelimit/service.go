package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxClients = 10000
	idleLimiterTTL    = 10 * time.Minute
)

// Config holds token bucket settings shared by every client
type Config struct {
	RequestsPerSecond float64
	Burst             int
	MaxClients        int
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitService keeps one token bucket per client scope. Buckets idle
// for longer than idleLimiterTTL are dropped.
type RateLimitService struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	logger   *zap.Logger
	now      func() time.Time
}

// NewRateLimitService creates a new RateLimitService instance
func NewRateLimitService(cfg Config, logger *zap.Logger) (*RateLimitService, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive")
	}
	if cfg.Burst <= 0 {
		return nil, fmt.Errorf("burst must be positive")
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultMaxClients
	}

	return &RateLimitService{
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, idleLimiterTTL),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// CheckLimit consumes one token from the bucket of scopeKey
func (s *RateLimitService) CheckLimit(ctx context.Context, scopeKey string) (*RateLimitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limiter := s.limiterFor(scopeKey)
	now := s.now()

	if limiter.AllowN(now, 1) {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int(math.Max(0, math.Floor(limiter.TokensAt(now)))),
		}, nil
	}

	retryAfter := time.Duration(float64(time.Second) / float64(s.limit))
	if deficit := 1 - limiter.TokensAt(now); deficit > 0 {
		retryAfter = time.Duration(deficit / float64(s.limit) * float64(time.Second))
	}

	s.logger.Debug("rate limit exceeded",
		zap.String("scope", scopeKey),
		zap.Duration("retry_after", retryAfter))

	return &RateLimitResult{Allowed: false, RetryAfter: retryAfter}, nil
}

// limiterFor returns the bucket of scopeKey, creating it on first use.
// Every hit re-adds the bucket so active clients do not expire.
func (s *RateLimitService) limiterFor(scopeKey string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters.Get(scopeKey)
	if !ok {
		limiter = rate.NewLimiter(s.limit, s.burst)
	}
	s.limiters.Add(scopeKey, limiter)
	return limiter
}

// Clients returns the number of tracked client buckets
func (s *RateLimitService) Clients() int {
	return s.limiters.Len()
}

// BuildScopeKey builds the bucket key of a client
func BuildScopeKey(clientIP string) string {
	return "ip:" + clientIP
}
