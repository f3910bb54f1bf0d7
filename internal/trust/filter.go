// Package trust keeps search results whose host is on the allowlist.
package trust

import (
	"net/url"
	"strings"
)

// Filter returns the candidates whose domain equals, or is a subdomain of, one
// of the trusted sites. Input order is kept and duplicates are not removed.
func Filter(candidates, trusted []string) []string {
	domains := make([]string, 0, len(trusted))
	for _, t := range trusted {
		if d := Domain(t); d != "" {
			domains = append(domains, d)
		}
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := Match(Domain(c), domains); ok {
			out = append(out, c)
		}
	}
	return out
}

// Match reports the first trusted domain that domain equals or is a
// subdomain of. Comparison is case-insensitive.
func Match(domain string, trusted []string) (string, bool) {
	domain = strings.ToLower(domain)
	if domain == "" {
		return "", false
	}
	for _, t := range trusted {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		if domain == t || strings.HasSuffix(domain, "."+t) {
			return t, true
		}
	}
	return "", false
}

// Domain returns the lowercased network location (userinfo@host:port) of raw.
// Scheme-less input such as "example.com/path" is re-parsed as "http://example.com/path".
func Domain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if d := netloc(raw); d != "" {
		return d
	}
	u, err := url.Parse(raw)
	if err != nil {
		return netloc("http://" + raw)
	}
	return netloc("http://" + u.Path)
}

func netloc(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return authority(raw)
	}
	host := u.Host
	if u.User != nil {
		host = u.User.String() + "@" + host
	}
	return strings.ToLower(host)
}

// authority cuts the network location out of raw by hand, for URLs whose path
// or query url.Parse rejects (a stray '%', say).
func authority(raw string) string {
	i := strings.Index(raw, "//")
	if i < 0 || (i > 0 && raw[i-1] != ':') {
		return ""
	}
	rest := raw[i+2:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return strings.ToLower(rest)
}
