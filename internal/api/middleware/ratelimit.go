package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gatherpoint/server/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierAdmin  RateLimitTier = "admin"
	TierLogin  RateLimitTier = "login" // Aggressive rate limiting for login attempts
)

type rateLimitKey string

const rateLimitTierKey rateLimitKey = "rateLimitTier"

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey, tier)
}

func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRateLimitTier(r.Context(), tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			tier := TierPublic
			if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
				tier = value
			}

			limiter := store.limiter(tier, clientKey(r))
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow() {
				retryAfter := "60"
				if tier == TierLogin {
					retryAfter = "180" // matches the login token refill rate
				}
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	perMinute   map[RateLimitTier]int
	stopCleanup chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		perMinute: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierAdmin:  cfg.AdminPerMinute,
			TierLogin:  cfg.LoginPer15Minutes, // Special handling below
		},
		stopCleanup: make(chan struct{}),
	}

	// Entries not seen for a while are removed so the map cannot grow
	// without bound under attack.
	go store.cleanupLoop()

	return store
}

func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.perMinute[tier]
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key
	if key == "" {
		lookup = string(tier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	// Login tier: N attempts per 15 minutes as a token bucket, refilled at
	// one token every 15/N minutes. Other tiers are per-minute.
	var limiter *rate.Limiter
	if tier == TierLogin {
		interval := 15 * time.Minute / time.Duration(limit)
		limiter = rate.NewLimiter(rate.Every(interval), limit)
	} else {
		interval := time.Minute / time.Duration(limit)
		limiter = rate.NewLimiter(rate.Every(interval), limit)
	}

	s.limiters[lookup] = &limiterEntry{
		limiter:  limiter,
		lastSeen: time.Now(),
	}
	return limiter
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ttl := 15 * time.Minute

	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	close(s.stopCleanup)
}

func clientKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
