package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/keepsakelabs/keepsake/internal/ratelimit"
)

// ValidateRateLimit throttles the public validation endpoints per client
// address. A limiter backend failure fails open; validation availability
// matters more than strict accounting.
func (s *Server) ValidateRateLimit() gin.HandlerFunc {
	return s.rateLimitWith(func(c *gin.Context) (*ratelimit.Result, error) {
		return s.publicLimiter.AllowValidate(c.Request.Context(), c.ClientIP())
	})
}

// UploadRateLimit throttles artwork uploads, which carry a much smaller
// budget than validation checks.
func (s *Server) UploadRateLimit() gin.HandlerFunc {
	return s.rateLimitWith(func(c *gin.Context) (*ratelimit.Result, error) {
		return s.publicLimiter.AllowUpload(c.Request.Context(), c.ClientIP())
	})
}

func (s *Server) rateLimitWith(allow func(c *gin.Context) (*ratelimit.Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.publicLimiter.Enabled() {
			c.Next()
			return
		}

		res, err := allow(c)
		if err != nil {
			c.Next()
			return
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				seconds := int(math.Ceil(res.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
