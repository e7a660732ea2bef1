package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"ledgerstats/internal/log"
)

// Limiter provides rate limiting functionality. Each client gets a token
// bucket refilled at RequestsPerMinute; the bucket holds at most Burst tokens.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	now          func() time.Time
	logger       *log.Logger
	hits         atomic.Int64

	// Configuration
	perSecond       float64
	burst           float64
	cleanupInterval time.Duration
	idleTimeout     time.Duration
}

type clientInfo struct {
	lastRequest time.Time
	tokens      float64
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute float64
	// Burst defaults to RequestsPerMinute rounded up, at least 1.
	Burst           int
	CleanupInterval time.Duration
	Logger          *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 30,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter and starts its cleanup goroutine.
func NewLimiter(config Config) *Limiter {
	rl := newLimiter(config, time.Now)
	go rl.startCleanup()
	return rl
}

func newLimiter(config Config, now func() time.Time) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	burst := float64(config.Burst)
	if burst < 1 {
		burst = math.Max(1, math.Ceil(config.RequestsPerMinute))
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Discard()
	}

	perSecond := config.RequestsPerMinute / 60
	return &Limiter{
		clients:         make(map[string]*clientInfo),
		stopCleanup:     make(chan struct{}),
		now:             now,
		logger:          logger.WithComponent(log.ComponentRateLimit),
		perSecond:       perSecond,
		burst:           burst,
		cleanupInterval: config.CleanupInterval,
		// A client idle this long has a full bucket again, so its entry can go.
		idleTimeout: max(time.Duration(burst/perSecond*float64(time.Second)), time.Minute),
	}
}

// Allow checks if a request from the given IP should be allowed
func (rl *Limiter) Allow(clientIP string) bool {
	ok, _ := rl.reserve(clientIP)
	return ok
}

// reserve takes a token for clientIP. When none is left it returns how long
// until the next one.
func (rl *Limiter) reserve(clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, exists := rl.clients[clientIP]
	if !exists {
		client = &clientInfo{lastRequest: now, tokens: rl.burst}
		rl.clients[clientIP] = client
	}

	elapsed := now.Sub(client.lastRequest).Seconds()
	if elapsed > 0 {
		client.tokens = math.Min(rl.burst, client.tokens+elapsed*rl.perSecond)
	}
	client.lastRequest = now

	if client.tokens >= 1 {
		client.tokens--
		return true, 0
	}
	rl.hits.Add(1)
	wait := time.Duration((1 - client.tokens) / rl.perSecond * float64(time.Second))
	return false, wait
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := rl.cleanupStaleEntries(); n > 0 {
				rl.logger.Debug("Rate limiter cleanup", "removed", n)
			}
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes clients idle long enough to be back at a full
// bucket.
func (rl *Limiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTimeout)
	removed := 0
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

// GetMetrics returns current rate limiting metrics
func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// Middleware creates HTTP middleware for rate limiting
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)

			ok, wait := rl.reserve(clientIP)
			if !ok {
				retry := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				rl.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
