package http

import (
	"net"
	stdhttp "net/http"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

// RateLimiter admits requests per source address with a token bucket of
// capacity tokens refilled evenly over refillInterval. Buckets are created
// full on first sight and kept for the process lifetime.
type RateLimiter struct {
	// mu makes the check and the consume of Allow one step across readers.
	mu       sync.Mutex
	capacity int
	limit    rate.Limit
	buckets  *xsync.MapOf[string, *rate.Limiter]
	now      func() time.Time
}

// NewRateLimiter builds a limiter. A non-positive capacity disables limiting.
func NewRateLimiter(capacity int, refillInterval time.Duration) *RateLimiter {
	l := &RateLimiter{
		capacity: capacity,
		buckets:  xsync.NewMapOf[string, *rate.Limiter](),
		now:      time.Now,
	}
	if capacity > 0 && refillInterval > 0 {
		l.limit = rate.Every(refillInterval / time.Duration(capacity))
	}
	return l
}

// Allow consumes one token from every address bucket. If any bucket holds
// less than one token the request is rejected and nothing is consumed.
func (l *RateLimiter) Allow(addrs ...string) bool {
	if l == nil || l.capacity <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limiters := make([]*rate.Limiter, 0, len(addrs))
	for _, addr := range addrs {
		lim, _ := l.buckets.LoadOrCompute(addr, func() *rate.Limiter {
			return rate.NewLimiter(l.limit, l.capacity)
		})
		if lim.TokensAt(now) < 1 {
			return false
		}
		limiters = append(limiters, lim)
	}
	for _, lim := range limiters {
		lim.AllowN(now, 1)
	}
	return true
}

// Buckets reports how many addresses have been seen.
func (l *RateLimiter) Buckets() int {
	return l.buckets.Size()
}

// sourceAddresses lists the addresses a request is accounted against: every
// X-Forwarded-For hop when trusted, then the direct peer.
func sourceAddresses(r *stdhttp.Request, trustForwarded bool) []string {
	var addrs []string
	seen := make(map[string]struct{})
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return
		}
		if _, dup := seen[addr]; dup {
			return
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}

	if trustForwarded {
		for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
			add(hop)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	add(host)
	return addrs
}
