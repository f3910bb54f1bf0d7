package httpclient

import (
	"context"
	"io"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// StreamResponse exposes an unread response body. Callers must close Body.
type StreamResponse interface {
	StatusCode() int
	Body() io.ReadCloser
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Stream(ctx context.Context, url string, headers map[string]string) (StreamResponse, error)
}
