package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimit allows limit requests per window for each client IP, with a burst
// of the full window. Idle per-client limiters expire from the cache.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiters := cache.New(limiterIdleTTL, limiterIdleTTL)
	every := rate.Every(per / time.Duration(limit))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			var lim *rate.Limiter
			if v, ok := limiters.Get(ip); ok {
				lim = v.(*rate.Limiter)
			} else {
				lim = rate.NewLimiter(every, limit)
				if err := limiters.Add(ip, lim, cache.DefaultExpiration); err != nil {
					// lost the race to a concurrent request from the same client
					if v, ok := limiters.Get(ip); ok {
						lim = v.(*rate.Limiter)
					}
				}
			}
			if !lim.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded. Please wait and try again."}`))
				return
			}
			limiters.SetDefault(ip, lim)
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
