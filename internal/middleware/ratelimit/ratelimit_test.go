package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiter_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{RequestsPerMinute: 2}, clock.now)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("clients are limited independently")
	}

	clock.advance(30 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("one token should refill after 30s at 2/min")
	}
	if rl.Allow("a") {
		t.Fatal("only one token refilled")
	}
	if got := rl.GetMetrics().TotalHits; got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestLimiter_FractionalRate(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := newLimiter(Config{RequestsPerMinute: 0.5}, clock.now)

	if !rl.Allow("a") {
		t.Fatal("first request allowed")
	}
	clock.advance(time.Minute)
	if rl.Allow("a") {
		t.Fatal("0.5/min needs two minutes per token")
	}
	clock.advance(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("token should be back after two minutes")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := newLimiter(Config{RequestsPerMinute: 60}, clock.now)
	rl.Allow("a")
	rl.Allow("b")
	if rl.ActiveClients() != 2 {
		t.Fatalf("clients = %d", rl.ActiveClients())
	}
	clock.advance(2 * time.Minute)
	rl.Allow("b")
	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("clients = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := newLimiter(Config{RequestsPerMinute: 1}, clock.now)
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
