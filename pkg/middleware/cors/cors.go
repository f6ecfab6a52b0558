package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	allowMethods  = "GET, POST, OPTIONS"
	allowHeaders  = "Content-Type, X-Requested-With, X-Request-ID"
	exposeHeaders = "X-Request-ID, Retry-After, Content-Disposition"
)

// Options configures the CORS middleware.
type Options struct {
	// AllowedOrigins lists exact origins; empty allows every origin.
	AllowedOrigins []string
	MaxAge         time.Duration
}

// New returns a CORS middleware for the read-only insights API. Credentials
// are never allowed because the API carries no session state.
func New(opts Options) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	maxAge := strconv.Itoa(int(opts.MaxAge / time.Second))

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		if origin := allowOrigin(allowed, c.GetHeader("Origin")); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		h.Set("Access-Control-Expose-Headers", exposeHeaders)

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Max-Age", maxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// allowOrigin returns the value for Access-Control-Allow-Origin, or "" to deny.
func allowOrigin(allowed map[string]struct{}, origin string) string {
	if len(allowed) == 0 {
		if origin == "" {
			return "*"
		}
		return origin
	}
	if _, ok := allowed[strings.TrimRight(origin, "/")]; ok {
		return origin
	}
	return ""
}
