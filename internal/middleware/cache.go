package middleware

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// cacheWriter captures the response body while forwarding it to the client.
type cacheWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// CacheGET serves successful GET responses from Redis for the given TTL.
// Only the JSON body is cached; any non-200 response passes through
// unrecorded. With a nil client the middleware is a no-op, so the server
// works without Redis.
func CacheGET(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		sum := sha1.Sum([]byte(c.Request.URL.Path + "?" + c.Request.URL.RawQuery))
		key := fmt.Sprintf("mitanda:cache:%x", sum)

		ctx := c.Request.Context()
		if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		w := &cacheWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()

		if c.Writer.Status() == http.StatusOK && w.buf.Len() > 0 {
			_ = rdb.SetEx(ctx, key, w.buf.Bytes(), ttl).Err()
		}
	}
}
