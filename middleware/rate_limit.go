package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/wellirecord/connect/internal/observability"
	"github.com/wellirecord/connect/services/ratelimit"
	"github.com/wellirecord/connect/utils"
	"go.uber.org/zap"
)

// RateLimitChecker defines the interface for rate limit checking
type RateLimitChecker interface {
	CheckLimit(ctx context.Context, scopeKey string) (*ratelimit.RateLimitResult, error)
}

// RateLimitMiddleware throttles requests per client IP
type RateLimitMiddleware struct {
	limiter RateLimitChecker
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware
func NewRateLimitMiddleware(limiter RateLimitChecker, metrics *observability.Metrics, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// Limit rejects requests over the client's budget with 429. Limiter errors
// let the request through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := ClientIP(r)

		result, err := m.limiter.CheckLimit(ctx, ratelimit.BuildScopeKey(ip))
		if err != nil {
			observability.FromContext(ctx, m.logger).Error("rate limit check failed",
				zap.String("client_ip", ip),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if !result.Allowed {
			m.metrics.RecordRateLimited()
			observability.FromContext(ctx, m.logger).Warn("rate limit exceeded",
				zap.String("client_ip", ip))
			_ = utils.WriteTooManyRequests(w, "", result.RetryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of RemoteAddr. chi's RealIP middleware
// has already replaced it with the forwarded address when present.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
