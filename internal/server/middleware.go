package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	obsmiddleware "github.com/smallbiznis/campusswap/internal/observability/logger"
	"github.com/smallbiznis/campusswap/internal/ratelimit"
	"go.uber.org/zap"
)

const messageTooManyRequests = "Too many requests"

// IngressRateLimit throttles deliveries per client address. Limiter errors
// let the request through so a redis outage never blocks payments.
func (s *Server) IngressRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		res, err := s.limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			obsmiddleware.WithContext(c.Request.Context(), s.log).Warn("webhook rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if res != nil && !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(ratelimit.RetryAfterSeconds(res.RetryAfter)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, webhookFailure(messageTooManyRequests, obsmiddleware.RequestID(c)))
			return
		}
		c.Next()
	}
}
