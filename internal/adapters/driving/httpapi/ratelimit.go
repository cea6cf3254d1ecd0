package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client. Buckets idle for longer
// than a window are dropped.
type clientLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	window    time.Duration
	clients   map[string]*clientBucket
	lastPrune time.Time
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// newClientLimiter allows requests per window for each client, with a
// burst of the full allowance. A non-positive setting disables limiting.
func newClientLimiter(requests int, window time.Duration) *clientLimiter {
	if requests <= 0 || window <= 0 {
		return nil
	}
	return &clientLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		window:  window,
		clients: make(map[string]*clientBucket),
	}
}

// allow takes a token for key. When none is available it returns false
// and how long the client should wait.
func (l *clientLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > l.window {
		l.prune(now)
	}

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.seen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *clientLimiter) prune(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.seen) > l.window {
			delete(l.clients, key)
		}
	}
	l.lastPrune = now
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// clientKey identifies the caller by remote address. RealIP has already
// replaced RemoteAddr when a proxy header is present. The API key header
// is caller-controlled and is not part of the key.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
