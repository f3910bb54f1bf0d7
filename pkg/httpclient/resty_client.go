package httpclient

import (
	"context"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option customises a RestyClient.
type Option func(*RestyClient)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *RestyClient) {
		if p != nil {
			r.retry = p
		}
	}
}

// WithHeaderPolicy overrides the default rotating User-Agent policy.
func WithHeaderPolicy(p HeaderPolicy) Option {
	return func(r *RestyClient) {
		if p != nil {
			r.headers = p
		}
	}
}

// WithSleeper replaces the backoff sleeper, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(r *RestyClient) {
		if s != nil {
			r.sleep = s
		}
	}
}

// RestyClient adapts resty.Client to the httpclient.Client interface and adds
// policy-driven retries and per-call headers.
type RestyClient struct {
	client  *resty.Client
	retry   RetryPolicy
	headers HeaderPolicy
	sleep   Sleeper
}

// NewRestyClient creates a new RestyClient with the specified per-attempt timeout.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	r := &RestyClient{
		client:  newRestyBaseClient(timeout),
		retry:   DefaultRetryPolicy(),
		headers: NewRotatingUserAgent(nil, nil),
		sleep:   SleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get performs an HTTP GET and buffers the body.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	var out *restyResponseAdapter
	err := r.withRetry(ctx, url, func() (int, func(), error) {
		resp, err := r.request(ctx, headers).Get(url)
		if err != nil {
			return 0, nil, err
		}
		out = &restyResponseAdapter{resp: resp}
		return resp.StatusCode(), nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stream performs an HTTP GET and hands back the unread body.
func (r *RestyClient) Stream(ctx context.Context, url string, headers map[string]string) (StreamResponse, error) {
	var out *restyStreamAdapter
	err := r.withRetry(ctx, url, func() (int, func(), error) {
		resp, err := r.request(ctx, headers).SetDoNotParseResponse(true).Get(url)
		if err != nil {
			if resp != nil && resp.RawBody() != nil {
				resp.RawBody().Close()
			}
			return 0, nil, err
		}
		out = &restyStreamAdapter{resp: resp}
		release := func() {
			if body := resp.RawBody(); body != nil {
				body.Close()
			}
		}
		return resp.StatusCode(), release, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RestyClient) request(ctx context.Context, headers map[string]string) *resty.Request {
	req := r.client.R().SetContext(ctx)
	if h := r.headers.Headers(); len(h) > 0 {
		req.SetHeaders(h)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	return req
}

// withRetry runs attempt until it yields a 2xx status, the error is not
// retryable, ctx is done, or the policy's attempt budget is spent. release, when non-nil,
// frees a response that is being discarded.
func (r *RestyClient) withRetry(ctx context.Context, url string, attempt func() (status int, release func(), err error)) error {
	maxAttempts := r.retry.MaxAttempts()
	for n := 1; ; n++ {
		status, release, err := attempt()
		if err == nil && status >= 200 && status < 300 {
			return nil
		}
		if release != nil {
			release()
		}
		if cerr := ctx.Err(); cerr != nil {
			return &FetchError{URL: url, Attempts: n, StatusCode: status, Err: cerr}
		}

		if !r.retry.Retryable(status, err) || n >= maxAttempts {
			return &FetchError{URL: url, Attempts: n, StatusCode: status, Err: err}
		}
		if serr := r.sleep(ctx, r.retry.Backoff(n)); serr != nil {
			return &FetchError{URL: url, Attempts: n, StatusCode: status, Err: serr}
		}
	}
}

// SleepContext blocks for d unless ctx is cancelled first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

// restyStreamAdapter adapts an unparsed resty.Response to StreamResponse.
type restyStreamAdapter struct {
	resp *resty.Response
}

func (r *restyStreamAdapter) Body() io.ReadCloser { return r.resp.RawBody() }
func (r *restyStreamAdapter) StatusCode() int     { return r.resp.StatusCode() }
