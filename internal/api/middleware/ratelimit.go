package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"greendrake/estates/internal/config"
)

const (
	cleanupInterval = 10 * time.Minute
	clientIdleTTL   = 30 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware keeps one token bucket per client IP.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	logger  *zap.Logger
	done    chan struct{}
	once    sync.Once
}

// NewRateLimiterMiddleware creates the limiter and starts its idle-client sweeper. Call Close to stop it.
func NewRateLimiterMiddleware(cfg *config.Config, logger *zap.Logger) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(cfg.RateLimitRefillRate),
		burst:   cfg.RateLimitBucketSize,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go rm.cleanupClients()
	return rm
}

func (rm *RateLimiterMiddleware) getClientLimiter(identifier string, now time.Time) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	client, exists := rm.clients[identifier]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(rm.limit, rm.burst)}
		rm.clients[identifier] = client
	}
	client.lastSeen = now
	return client.limiter
}

func (rm *RateLimiterMiddleware) sweep(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	removed := 0
	for id, client := range rm.clients {
		if now.Sub(client.lastSeen) > clientIdleTTL {
			delete(rm.clients, id)
			removed++
		}
	}
	return removed
}

func (rm *RateLimiterMiddleware) cleanupClients() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.done:
			return
		case now := <-ticker.C:
			if n := rm.sweep(now); n > 0 {
				rm.logger.Debug("rate limiter cleanup", zap.Int("removed", n))
			}
		}
	}
}

func (rm *RateLimiterMiddleware) Close() {
	rm.once.Do(func() { close(rm.done) })
}

// Limit answers 429 once a client's bucket is empty.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.ClientIP()
		if !rm.getClientLimiter(clientKey, time.Now()).Allow() {
			rm.logger.Info("rate limit exceeded",
				zap.String("client", clientKey),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()))
			abort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
