package middlewarectx

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/minigestor/internal/http/response"
)

// userLimiters хранит ограничители по пользователям.
type userLimiters struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	lastGC   time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (u *userLimiters) get(key string, now time.Time) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()

	if now.Sub(u.lastGC) > u.idle {
		for k, e := range u.limiters {
			if now.Sub(e.lastSeen) > u.idle {
				delete(u.limiters, k)
			}
		}
		u.lastGC = now
	}

	e, ok := u.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(u.limit, u.burst)}
		u.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimitMiddleware ограничивает частоту запросов каждого пользователя.
// Без UID в контексте ключом служит адрес клиента.
func RateLimitMiddleware(log *slog.Logger, limit float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	users := &userLimiters{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(limit),
		burst:    burst,
		idle:     10 * time.Minute,
		lastGC:   time.Now(),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserUIDFrom(r.Context())
			if !ok {
				key = r.RemoteAddr
			}
			if !users.get(key, time.Now()).Allow() {
				log.Warn("too many requests", slog.String("key", key))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
