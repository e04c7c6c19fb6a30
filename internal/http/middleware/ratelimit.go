package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter mantém limiters por chave com expiração simples.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	mu     sync.Mutex
	store  map[string]*limiterEntry
	maxAge time.Duration
}

type limiterEntry struct {
	limiter *rate.Limiter
	updated time.Time
}

// NewRateLimiter cria o limitador com taxa e burst configurados.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:  rate.Limit(reqPerSec),
		burst:  burst,
		store:  make(map[string]*limiterEntry),
		maxAge: 10 * time.Minute,
	}
}

func (r *RateLimiter) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.store[key]; ok {
		entry.updated = time.Now()
		return entry.limiter
	}

	lim := rate.NewLimiter(r.limit, r.burst)
	r.store[key] = &limiterEntry{limiter: lim, updated: time.Now()}

	for k, entry := range r.store {
		if time.Since(entry.updated) > r.maxAge {
			delete(r.store, k)
		}
	}

	return lim
}

// IPRateLimit aplica o limite por IP remoto (rotas públicas).
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limitByKey(limiter, func(r *http.Request) (string, bool) {
		return realIPFromRequest(r), true
	})
}

// UserRateLimit aplica o limite por usuário autenticado.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limitByKey(limiter, func(r *http.Request) (string, bool) {
		subject := GetSubject(r.Context())
		return subject, subject != ""
	})
}

func limitByKey(limiter *RateLimiter, keyFunc func(*http.Request) (string, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key, ok := keyFunc(req)
			if !ok || key == "" {
				next.ServeHTTP(w, req)
				return
			}

			if !limiter.get(key).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "limite de requisições excedido")
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

func realIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
