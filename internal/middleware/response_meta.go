package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// Meta keys shared by handlers.
const (
	MetaCacheHit       = "cache_hit"
	MetaProcessingTime = "processing_time_ms"
	MetaRequestID      = "request_id"
	MetaReportID       = "report_id"
)

// WithResponseMeta seeds a per-request meta map with the request ID. Handlers
// add entries to it and pass it to response.JSON.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := metaFor(c)
		if id := requestid.Value(c); id != "" {
			meta[MetaRequestID] = id
		}
		c.Next()
	}
}

// SetCacheHit records whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// SetMeta records a metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	metaFor(c)[key] = value
}

// StampProcessingTime records the elapsed handler time in milliseconds.
func StampProcessingTime(c *gin.Context, start time.Time) {
	SetMeta(c, MetaProcessingTime, time.Since(start).Milliseconds())
}

// ExtractMeta returns the metadata collected so far, or nil when none was set.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := raw.(map[string]interface{})
	return meta
}

func metaFor(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
