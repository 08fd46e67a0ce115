package server

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/output"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

var (
	// ErrCrossOrigin rejects a state-changing request sent by another site.
	ErrCrossOrigin = &storeerr.StoreError{
		Code:     "CROSS_ORIGIN",
		Message:  "request from another origin refused",
		ExitCode: storeerr.ExitRejected,
	}
	// ErrContentType rejects a state-changing request that is not JSON.
	ErrContentType = &storeerr.StoreError{
		Code:       "UNSUPPORTED_CONTENT_TYPE",
		Message:    "request body must be application/json",
		Suggestion: "send Content-Type: application/json",
		ExitCode:   storeerr.ExitInput,
	}
)

// sameOrigin guards state-changing routes. Browsers label cross-site
// requests with Sec-Fetch-Site and Origin; a JSON content type cannot be
// sent cross-origin without a preflight, which is never answered.
func sameOrigin(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		site := c.GetHeader("Sec-Fetch-Site")
		origin := c.GetHeader("Origin")
		if (site != "" && site != "same-origin" && site != "none") || !originMatches(origin, c.Request.Host) {
			logger.Warn("cross-origin request refused",
				zap.String("path", c.FullPath()),
				zap.String("origin", origin),
				zap.String("sec_fetch_site", site))
			c.AbortWithStatusJSON(http.StatusForbidden, output.ErrorOutput{Error: output.Describe(ErrCrossOrigin)})
			return
		}
		if c.ContentType() != "application/json" {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, output.ErrorOutput{Error: output.Describe(ErrContentType)})
			return
		}
		c.Next()
	}
}

// originMatches reports whether origin is absent or names host.
func originMatches(origin, host string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == host
}
