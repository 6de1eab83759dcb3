package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/eoladapo/sellmate-backend-sub002/internal/observability/context"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
)

// HeaderUser carries the authenticated seller's ID, set by the gateway in
// front of this service.
const HeaderUser = "X-User-ID"

// UserRequired resolves the seller from the gateway header and injects it
// into the request context.
func (s *Server) UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUser))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		userID, err := snowflake.ParseString(raw)
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := userctx.WithUserID(c.Request.Context(), int64(userID))
		ctx = obscontext.WithUserID(ctx, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OrderIntakeRateLimit throttles order creation per seller. Redis being down
// fails open: a missed throttle beats a dead intake path.
func (s *Server) OrderIntakeRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.intakeLimiter.Enabled() {
			c.Next()
			return
		}

		userID, ok := userctx.UserIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		res, err := s.intakeLimiter.AllowUser(c.Request.Context(), userID)
		if err != nil {
			c.Next()
			return
		}
		if !res.Allowed {
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), userID.String(), "order_intake", "rate")
			}
			if res.RetryAfter > 0 {
				c.Header("Retry-After", formatRetryAfter(res.RetryAfter))
			}
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), userID.String(), "order_intake")
		}
		c.Next()
	}
}
