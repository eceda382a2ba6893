package web

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter returns middleware enforcing a per-client token bucket. Clients are keyed on the
// remote IP address.
func rateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}

	var guard sync.Mutex
	clients := map[string]*client{}
	sweep := time.Now()

	limiter := func(ip string) *rate.Limiter {
		guard.Lock()
		defer guard.Unlock()

		now := time.Now()
		if now.Sub(sweep) > 5*time.Minute {
			for k, c := range clients {
				if now.Sub(c.lastSeen) > 10*time.Minute {
					delete(clients, k)
				}
			}

			sweep = now
		}

		c, ok := clients[ip]
		if !ok {
			c = &client{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			clients[ip] = c
		}

		c.lastSeen = now

		return c.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reservation := limiter(remoteIP(r)).Reserve()

			if !reservation.OK() {
				writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
				writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
