package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
	"github.com/samvad-hq/keyword-image-harvester/internal/logger"
	"github.com/samvad-hq/keyword-image-harvester/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes = 5 << 20 // 5 MiB
)

// Scraper fetches trusted pages and collects their image URLs.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
}

// NewScraper constructs a scraper over the provided HTTP client.
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	return &Scraper{client: client, log: logger.Ensure(log)}
}

// Harvest returns the absolute image URLs of pageURL in document order.
// Fetch and parse failures are logged and yield an empty list.
func (s *Scraper) Harvest(ctx context.Context, pageURL string) []string {
	if s == nil || s.client == nil {
		return []string{}
	}

	resp, err := s.client.Get(ctx, pageURL, nil)
	if err != nil {
		s.log.ErrorObj("page fetch failed", "page_error", map[string]any{
			"url":   pageURL,
			"error": err.Error(),
		})
		return []string{}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		s.log.ErrorObj("page fetch failed", "page_error", map[string]any{
			"url":    pageURL,
			"status": resp.StatusCode(),
			"body":   snippet,
		})
		return []string{}
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.WarnObj("page body truncated", "page_truncated", map[string]any{
			"url":   pageURL,
			"size":  len(body),
			"limit": maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	images, err := ExtractImageURLs(pageURL, body)
	if err != nil {
		s.log.ErrorObj("page parse failed", "parse_error", map[string]any{
			"url":   pageURL,
			"error": err.Error(),
		})
		return []string{}
	}

	s.log.InfoObj("page harvested", "page_result", map[string]any{
		"url":    pageURL,
		"images": len(images),
	})
	return images
}

// ExtractImageURLs resolves every img src (or data-src when src is empty) against pageURL.
func ExtractImageURLs(pageURL string, body []byte) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &domain.ParseError{URL: pageURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ParseError{URL: pageURL, Err: fmt.Errorf("parse html: %w", err)}
	}

	images := make([]string, 0)
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		ref := firstNonEmpty(sel.AttrOr("src", ""), sel.AttrOr("data-src", ""))
		if abs := resolveURL(base, ref); abs != "" {
			images = append(images, abs)
		}
	})
	return images, nil
}

func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		if u, err = url.Parse(escapeStrayPercent(ref)); err != nil {
			return ""
		}
	}
	return base.ResolveReference(u).String()
}

// escapeStrayPercent rewrites every '%' that does not start a valid escape as "%25".
func escapeStrayPercent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
