package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// InMemoryRateLimiter enforces a sliding window of requests per key. One
// instance guards the whole API surface; webhook retries from the payment
// gateway share the window with storefront traffic, so the limit must stay
// well above the gateway's retry cadence.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	ventana time.Duration
	limite  int
	marcas  map[string][]time.Time
}

func NewInMemoryRateLimiter(limite int, ventana time.Duration) *InMemoryRateLimiter {
	l := &InMemoryRateLimiter{
		ventana: ventana,
		limite:  limite,
		marcas:  make(map[string][]time.Time),
	}
	go l.purgar()
	return l
}

// Allow records one request for key and reports whether it fits the window.
func (l *InMemoryRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	ahora := time.Now()
	recientes := recorte(l.marcas[key], ahora.Add(-l.ventana))
	if len(recientes) >= l.limite {
		l.marcas[key] = recientes
		return false
	}
	l.marcas[key] = append(recientes, ahora)
	return true
}

// recorte drops timestamps at or before the cutoff, reusing the slice.
func recorte(marcas []time.Time, corte time.Time) []time.Time {
	vivas := marcas[:0]
	for _, m := range marcas {
		if m.After(corte) {
			vivas = append(vivas, m)
		}
	}
	return vivas
}

// purgar evicts idle keys so one-off clients do not accumulate forever.
func (l *InMemoryRateLimiter) purgar() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		corte := time.Now().Add(-l.ventana)
		for key, marcas := range l.marcas {
			if vivas := recorte(marcas, corte); len(vivas) == 0 {
				delete(l.marcas, key)
			} else {
				l.marcas[key] = vivas
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit rejects requests over the per-IP budget with a 429.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "demasiadas solicitudes"})
			return
		}
		c.Next()
	}
}
