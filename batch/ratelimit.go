package batch

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/fwojciec/pagegraph"
	"golang.org/x/time/rate"
)

var _ pagegraph.DomainLimiter = (*HostLimiter)(nil)

// HostLimiter spaces out requests to the same host with one token bucket
// per host. Hosts are compared case-insensitively with default ports
// removed, so "Example.com:443" and "example.com" share a bucket.
type HostLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewHostLimiter returns a limiter allowing rps requests per second per
// host, with up to burst requests at once. A non-positive rps disables
// limiting; burst is at least 1.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	return &HostLimiter{
		limit: rate.Limit(rps),
		burst: max(burst, 1),
		hosts: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l.limit <= 0 {
		return ctx.Err()
	}
	return l.bucket(host).Wait(ctx)
}

func (l *HostLimiter) bucket(host string) *rate.Limiter {
	key := hostKey(host)

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.hosts[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.hosts[key] = b
	}
	return b
}

func hostKey(host string) string {
	host = strings.ToLower(host)
	if h, port, err := net.SplitHostPort(host); err == nil && (port == "80" || port == "443") {
		return h
	}
	return host
}
