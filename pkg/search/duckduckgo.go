package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// TypeDuckDuckGoHTML selects the DuckDuckGo HTML results page.
	TypeDuckDuckGoHTML = "duckduckgo_html"
	// DefaultDuckDuckGoEndpoint takes the escaped keyword in place of %s.
	DefaultDuckDuckGoEndpoint = "https://duckduckgo.com/html/?q=%s"
)

type duckDuckGo struct {
	endpoint string
	client   HTTPClient
	log      Logger
}

// NewDuckDuckGo builds a searcher for an HTML results endpoint containing one %s.
func NewDuckDuckGo(endpoint string, client HTTPClient, log Logger) (Searcher, error) {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultDuckDuckGoEndpoint
	}
	if strings.Count(endpoint, "%s") != 1 {
		return nil, fmt.Errorf("search endpoint %q must contain exactly one %%s", endpoint)
	}
	if client == nil {
		return nil, fmt.Errorf("search http client is nil")
	}
	return &duckDuckGo{endpoint: endpoint, client: client, log: ensureLogger(log)}, nil
}

func (d *duckDuckGo) ID() string { return TypeDuckDuckGoHTML }

// Search fetches the results page and returns every absolute anchor on it.
// A failed fetch is logged and yields no links rather than an error.
func (d *duckDuckGo) Search(ctx context.Context, keyword string) ([]string, error) {
	searchURL := QueryURL(d.endpoint, keyword)
	d.log.InfoObj("searching", "search_request", map[string]any{
		"engine": d.ID(),
		"url":    searchURL,
	})

	resp, err := d.client.Get(ctx, searchURL, nil)
	if err != nil {
		d.log.ErrorObj("search request failed", "search_error", map[string]any{
			"url":   searchURL,
			"error": err.Error(),
		})
		return []string{}, nil
	}

	links, err := ExtractAnchors(resp.Body())
	if err != nil {
		d.log.ErrorObj("search results parse failed", "search_error", map[string]any{
			"url":   searchURL,
			"error": err.Error(),
		})
		return []string{}, nil
	}

	d.log.InfoObj("search completed", "search_result", map[string]any{
		"anchors_found": len(links),
	})
	return links, nil
}

// QueryURL substitutes the percent-encoded keyword for the first %s in endpoint.
// Other percent escapes in endpoint are kept as written.
func QueryURL(endpoint, keyword string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(keyword), "+", "%20")
	return strings.Replace(endpoint, "%s", escaped, 1)
}

// ExtractAnchors returns, in document order, every href that starts with "http".
// Relative links are dropped, not resolved.
func ExtractAnchors(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http") {
			links = append(links, href)
		}
	})
	return links, nil
}
