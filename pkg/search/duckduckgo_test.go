package search

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/keyword-image-harvester/pkg/httpclient"
)

type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte    { return f.body }
func (f fakeResponse) StatusCode() int { return f.statusCode }

// fakeHTTPClient returns canned responses per URL to avoid network calls.
type fakeHTTPClient struct {
	responses map[string]fakeResponse
	calls     []string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	f.calls = append(f.calls, url)
	resp, ok := f.responses[url]
	if !ok {
		return nil, &httpclient.FetchError{URL: url, Attempts: 1, Err: errors.New("not found")}
	}
	return resp, nil
}

func (f *fakeHTTPClient) Stream(context.Context, string, map[string]string) (httpclient.StreamResponse, error) {
	return nil, errors.New("not implemented")
}

const resultsPage = `
<html><body>
  <a href="https://example.com/a">A</a>
  <a href="/relative/link">rel</a>
  <a href="http://other.com/b">B</a>
  <a>no href</a>
  <a href="mailto:x@example.com">mail</a>
  <a href="//cdn.example.com/c">proto-relative</a>
</body></html>`

func TestExtractAnchorsKeepsOnlySchemeQualifiedLinks(t *testing.T) {
	links, err := ExtractAnchors([]byte(resultsPage))
	if err != nil {
		t.Fatalf("ExtractAnchors: %v", err)
	}
	if len(links) != 2 || links[0] != "https://example.com/a" || links[1] != "http://other.com/b" {
		t.Fatalf("unexpected links %#v", links)
	}
}

func TestQueryURLEncodesKeyword(t *testing.T) {
	got := QueryURL(DefaultDuckDuckGoEndpoint, "Geo-political Tension & more")
	want := "https://duckduckgo.com/html/?q=Geo-political%20Tension%20%26%20more"
	if got != want {
		t.Fatalf("QueryURL = %q want %q", got, want)
	}
}

func TestQueryURLKeepsEndpointEscapes(t *testing.T) {
	endpoint := "https://html.duckduckgo.com/html/?kl=us%2Den&q=%s"
	got := QueryURL(endpoint, "Geo Tension")
	want := "https://html.duckduckgo.com/html/?kl=us%2Den&q=Geo%20Tension"
	if got != want {
		t.Fatalf("QueryURL = %q want %q", got, want)
	}
	if _, err := NewDuckDuckGo(endpoint, &fakeHTTPClient{}, nil); err != nil {
		t.Fatalf("NewDuckDuckGo rejected escaped endpoint: %v", err)
	}
}

func TestDuckDuckGoSearch(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://duckduckgo.com/html/?q=Test": {body: []byte(resultsPage), statusCode: 200},
	}}
	searcher, err := NewDuckDuckGo("", client, nil)
	if err != nil {
		t.Fatalf("NewDuckDuckGo: %v", err)
	}

	links, err := searcher.Search(context.Background(), "Test")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %#v", links)
	}
}

func TestDuckDuckGoSearchSwallowsFetchErrors(t *testing.T) {
	searcher, err := NewDuckDuckGo("", &fakeHTTPClient{}, nil)
	if err != nil {
		t.Fatalf("NewDuckDuckGo: %v", err)
	}

	links, err := searcher.Search(context.Background(), "Test")
	if err != nil {
		t.Fatalf("expected fetch failure to be absorbed, got %v", err)
	}
	if links == nil || len(links) != 0 {
		t.Fatalf("expected empty, non-nil links, got %#v", links)
	}
}

func TestNewDuckDuckGoRejectsBadEndpoint(t *testing.T) {
	if _, err := NewDuckDuckGo("https://example.com/search", &fakeHTTPClient{}, nil); err == nil {
		t.Fatalf("expected error for endpoint without placeholder")
	}
}

func TestDefaultRegistryResolvesDuckDuckGo(t *testing.T) {
	searcher, err := DefaultRegistry().SearcherFor(Engine{Type: "DuckDuckGo_HTML"}, &fakeHTTPClient{}, nil)
	if err != nil {
		t.Fatalf("SearcherFor: %v", err)
	}
	if searcher.ID() != TypeDuckDuckGoHTML {
		t.Fatalf("unexpected searcher %q", searcher.ID())
	}

	if _, err := DefaultRegistry().SearcherFor(Engine{Type: "altavista"}, &fakeHTTPClient{}, nil); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}
