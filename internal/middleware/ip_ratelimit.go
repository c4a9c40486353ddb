package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/streamerhub/hub-server-go/internal/audit"
	apperrors "github.com/streamerhub/hub-server-go/internal/errors"
	"github.com/streamerhub/hub-server-go/internal/httputil"
	"github.com/streamerhub/hub-server-go/internal/service"
)

type IPRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration
	prefix  string
}

func NewIPRateLimitMiddleware(limiter *service.RateLimiter, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !allowed {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"prefix": m.prefix},
			})

			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}
