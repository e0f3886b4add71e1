package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mitanda/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryRateLimiter(t *testing.T) {
	t.Run("allows up to the limit inside the window", func(t *testing.T) {
		l := middleware.NewInMemoryRateLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, l.Allow("10.0.0.1"))
		}
		assert.False(t, l.Allow("10.0.0.1"))
	})

	t.Run("keys do not share a budget", func(t *testing.T) {
		l := middleware.NewInMemoryRateLimiter(1, time.Minute)
		assert.True(t, l.Allow("10.0.0.1"))
		assert.False(t, l.Allow("10.0.0.1"))
		assert.True(t, l.Allow("10.0.0.2"))
	})

	t.Run("expired requests free the window", func(t *testing.T) {
		l := middleware.NewInMemoryRateLimiter(1, 20*time.Millisecond)
		assert.True(t, l.Allow("10.0.0.1"))
		assert.False(t, l.Allow("10.0.0.1"))
		time.Sleep(30 * time.Millisecond)
		assert.True(t, l.Allow("10.0.0.1"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(1, time.Minute)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	primero := httptest.NewRecorder()
	r.ServeHTTP(primero, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, primero.Code)

	segundo := httptest.NewRecorder()
	r.ServeHTTP(segundo, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, segundo.Code)
	assert.Contains(t, segundo.Body.String(), "demasiadas solicitudes")
}
