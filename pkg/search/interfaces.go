package search

import (
	"context"

	"github.com/samvad-hq/keyword-image-harvester/pkg/httpclient"
)

// Searcher returns candidate result links for a keyword.
type Searcher interface {
	ID() string
	Search(ctx context.Context, keyword string) ([]string, error)
}

// Logger defines the logging surface searchers rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within search.
type HTTPClient = httpclient.Client

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
