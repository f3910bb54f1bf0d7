package httpclient

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"syscall"
	"time"
)

// RetryPolicy decides how often and how long to wait between attempts.
type RetryPolicy interface {
	MaxAttempts() int
	// Backoff returns the wait before the given retry (1 for the first retry).
	Backoff(retry int) time.Duration
	Retryable(status int, err error) bool
}

// HeaderPolicy selects the request headers for each call.
type HeaderPolicy interface {
	Headers() map[string]string
}

// FixedRetryPolicy retries transport errors and the usual transient statuses
// with exponential backoff: Base, 2*Base, 4*Base, ...
type FixedRetryPolicy struct {
	Attempts int
	Base     time.Duration
	Statuses map[int]struct{}
}

// DefaultRetryStatuses are the statuses retried by DefaultRetryPolicy.
var DefaultRetryStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// NewFixedRetryPolicy builds a policy retrying DefaultRetryStatuses.
func NewFixedRetryPolicy(attempts int, base time.Duration) *FixedRetryPolicy {
	statuses := make(map[int]struct{}, len(DefaultRetryStatuses))
	for _, s := range DefaultRetryStatuses {
		statuses[s] = struct{}{}
	}
	return &FixedRetryPolicy{Attempts: attempts, Base: base, Statuses: statuses}
}

// DefaultRetryPolicy is 5 attempts starting at 0.5s.
func DefaultRetryPolicy() *FixedRetryPolicy {
	return NewFixedRetryPolicy(5, 500*time.Millisecond)
}

func (p *FixedRetryPolicy) MaxAttempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

func (p *FixedRetryPolicy) Backoff(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	return p.Base * time.Duration(1<<(retry-1))
}

func (p *FixedRetryPolicy) Retryable(status int, err error) bool {
	if err != nil {
		return IsTransportError(err)
	}
	_, ok := p.Statuses[status]
	return ok
}

// IsTransportError reports whether err came from the connection rather than
// from the request itself. Bad schemes, malformed URLs and cancellation are not
// transport errors.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// DefaultUserAgents is the pool RotatingUserAgent picks from.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:90.0) Gecko/20100101 Firefox/90.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
}

// RotatingUserAgent picks a User-Agent uniformly at random on every call.
type RotatingUserAgent struct {
	mu     sync.Mutex
	agents []string
	rnd    *rand.Rand
}

// NewRotatingUserAgent builds a header policy over agents (DefaultUserAgents when empty).
// A nil rnd uses a time-seeded source.
func NewRotatingUserAgent(agents []string, rnd *rand.Rand) *RotatingUserAgent {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RotatingUserAgent{agents: agents, rnd: rnd}
}

func (r *RotatingUserAgent) Headers() map[string]string {
	r.mu.Lock()
	ua := r.agents[r.rnd.Intn(len(r.agents))]
	r.mu.Unlock()
	return map[string]string{"User-Agent": ua}
}

// StaticHeaders always returns the same headers.
type StaticHeaders map[string]string

func (s StaticHeaders) Headers() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
