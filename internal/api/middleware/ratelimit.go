package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/api/shared"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long a user's limiter survives without requests.
const idleLimiterTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter applies a token bucket per authenticated user.
// It must run after AuthMiddleware.
type UserRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[uuid.UUID]*userLimiter
	lastSweep time.Time
}

// NewUserRateLimiter allows each user requestsPerSecond sustained requests
// with bursts of up to burst.
func NewUserRateLimiter(requestsPerSecond float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[uuid.UUID]*userLimiter),
	}
}

// Limit rejects requests beyond the caller's budget with 429 and a Retry-After header.
func (l *UserRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := shared.UserIDFromContext(r.Context())
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
			return
		}

		reservation := l.reserve(userID)
		if !reservation.OK() {
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}
		if delay := reservation.DelayFrom(l.now()); delay > 0 {
			reservation.CancelAt(l.now())
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *UserRateLimiter) reserve(userID uuid.UUID) *rate.Reservation {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > idleLimiterTTL {
		for id, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > idleLimiterTTL {
				delete(l.limiters, id)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.limiters[userID]
	if !ok {
		entry = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.ReserveN(now, 1)
}

// trackedUsers reports how many users currently hold a limiter.
func (l *UserRateLimiter) trackedUsers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// LogValue implements slog.LogValuer.
func (l *UserRateLimiter) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("requests_per_second", float64(l.limit)),
		slog.Int("burst", l.burst),
	)
}
