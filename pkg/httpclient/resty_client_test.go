package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestGetRetriesTransientStatuses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := NewRestyClient(time.Second, WithSleeper(sleeper.sleep))

	resp, err := client.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body()) != "ok" {
		t.Fatalf("unexpected body %q", resp.Body())
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(sleeper.waits) != len(want) || sleeper.waits[0] != want[0] || sleeper.waits[1] != want[1] {
		t.Fatalf("unexpected backoff schedule %v", sleeper.waits)
	}
}

func TestGetReturnsFetchErrorWhenExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := NewRestyClient(time.Second,
		WithSleeper(sleeper.sleep),
		WithRetryPolicy(NewFixedRetryPolicy(3, time.Millisecond)),
	)

	_, err := client.Get(context.Background(), srv.URL, nil)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Attempts != 3 || fetchErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected FetchError %+v", fetchErr)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewRestyClient(time.Second, WithSleeper((&recordingSleeper{}).sleep))
	_, err := client.Get(context.Background(), srv.URL, nil)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 FetchError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestGetRetriesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	sleeper := &recordingSleeper{}
	client := NewRestyClient(time.Second,
		WithSleeper(sleeper.sleep),
		WithRetryPolicy(NewFixedRetryPolicy(2, time.Millisecond)),
	)
	_, err := client.Get(context.Background(), url, nil)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Err == nil || fetchErr.Attempts != 2 {
		t.Fatalf("expected transport cause after 2 attempts, got %+v", fetchErr)
	}
	if len(sleeper.waits) != 1 {
		t.Fatalf("expected one backoff, got %v", sleeper.waits)
	}
}

func TestGetAppliesHeaderPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "UA-Test" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "text/html" {
			t.Errorf("Accept = %q", got)
		}
	}))
	defer srv.Close()

	client := NewRestyClient(time.Second, WithHeaderPolicy(StaticHeaders{"User-Agent": "UA-Test"}))
	if _, err := client.Get(context.Background(), srv.URL, map[string]string{"Accept": "text/html"}); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestStreamReturnsUnreadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	client := NewRestyClient(time.Second)
	resp, err := client.Stream(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer resp.Body().Close()

	data, err := io.ReadAll(resp.Body())
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "image-bytes" || resp.StatusCode() != http.StatusOK {
		t.Fatalf("unexpected stream %q / %d", data, resp.StatusCode())
	}
}

func TestRotatingUserAgentPicksFromPool(t *testing.T) {
	policy := NewRotatingUserAgent(nil, rand.New(rand.NewSource(1)))
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[policy.Headers()["User-Agent"]] = true
	}
	for ua := range seen {
		found := false
		for _, known := range DefaultUserAgents {
			if ua == known {
				found = true
			}
		}
		if !found {
			t.Fatalf("unexpected user agent %q", ua)
		}
	}
	if len(seen) < 2 {
		t.Fatalf("expected rotation across the pool, saw %d agent(s)", len(seen))
	}
}

func TestFixedRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxAttempts() != 5 {
		t.Fatalf("MaxAttempts = %d", p.MaxAttempts())
	}
	if p.Backoff(1) != 500*time.Millisecond || p.Backoff(3) != 2*time.Second {
		t.Fatalf("unexpected backoff %v / %v", p.Backoff(1), p.Backoff(3))
	}
	for _, status := range DefaultRetryStatuses {
		if !p.Retryable(status, nil) {
			t.Errorf("expected %d to be retryable", status)
		}
	}
	if p.Retryable(http.StatusNotFound, nil) {
		t.Errorf("404 must not be retryable")
	}
}

func TestIsTransportError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection refused", err: &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}}, want: true},
		{name: "connection reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), want: true},
		{name: "unexpected eof", err: &url.Error{Op: "Get", URL: "http://x", Err: io.ErrUnexpectedEOF}, want: true},
		{name: "unsupported scheme", err: &url.Error{Op: "Get", URL: "data:x", Err: errors.New(`unsupported protocol scheme "data"`)}, want: false},
		{name: "cancelled", err: &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tc := range cases {
		if got := IsTransportError(tc.err); got != tc.want {
			t.Errorf("%s: IsTransportError = %v want %v", tc.name, got, tc.want)
		}
		if got := DefaultRetryPolicy().Retryable(0, tc.err); tc.err != nil && got != tc.want {
			t.Errorf("%s: Retryable = %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestGetDoesNotRetryUnsupportedScheme(t *testing.T) {
	sleeper := &recordingSleeper{}
	client := NewRestyClient(time.Second, WithSleeper(sleeper.sleep))

	_, err := client.Stream(context.Background(), "data:image/gif;base64,R0lGODlhAQABAAAAACw=", nil)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Attempts != 1 || len(sleeper.waits) != 0 {
		t.Fatalf("expected a single attempt without backoff, got attempts=%d waits=%v", fetchErr.Attempts, sleeper.waits)
	}
}

func TestGetStopsRetryingWhenContextCancelled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := NewRestyClient(time.Second, WithSleeper(sleeper.sleep))
	_, err := client.Get(ctx, srv.URL, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if calls.Load() != 1 || len(sleeper.waits) != 0 {
		t.Fatalf("expected no retries after cancel, calls=%d waits=%v", calls.Load(), sleeper.waits)
	}
}
