package middleware

import (
	"net/http"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRules chooses which limiter a request is counted against. Paths in
// Strict get their own bucket per client and path.
type RateLimitRules struct {
	Strict map[string]ratelimit.Limiter
}

// RateLimit rejects clients that exceed their request budget with 429
func RateLimit(limiter ratelimit.Limiter, rules RateLimitRules, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		active := limiter

		path := c.FullPath()
		if strict, ok := rules.Strict[path]; ok {
			key = key + "|" + path
			active = strict
		}

		if active == nil || active.Allow(key) {
			c.Next()
			return
		}

		logger.Warn().Str("clientIP", c.ClientIP()).Str("path", path).Msg("Rate limit exceeded")
		c.Header("Retry-After", "60")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests").
			WithSeverity(dto.ErrorSeverityWarning).
			WithDetails("Please slow down and try again shortly")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(errorDetail))
	}
}
