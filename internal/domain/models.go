package domain

import "strings"

// RunContext describes a single scrape run. It is built once at startup.
type RunContext struct {
	Keyword      string
	TrustedSites []string
	OutputDir    string
}

// KeywordSlug replaces spaces in the keyword with underscores.
func KeywordSlug(keyword string) string {
	return strings.ReplaceAll(keyword, " ", "_")
}

// OutputFolderName returns the per-keyword output folder name.
func OutputFolderName(keyword string) string {
	return KeywordSlug(keyword) + "_data"
}

// MatchRecord aggregates the images discovered on one trusted page.
// ImagePaths only lists successful downloads, so it may be shorter than ImageURLs.
type MatchRecord struct {
	AnchorTag  string   `json:"anchor_tag"`
	ImageURLs  []string `json:"image_urls"`
	ImagePaths []string `json:"image_paths"`
}

// RunResult is the accumulator written at the end of a run.
type RunResult struct {
	Keyword     string        `json:"keyword"`
	MatchedURLs []MatchRecord `json:"matched_urls"`
}

// NewRunResult returns an empty result for keyword.
func NewRunResult(keyword string) *RunResult {
	return &RunResult{Keyword: keyword, MatchedURLs: []MatchRecord{}}
}

// Append adds a record in discovery order. Nil slices are normalised to empty ones.
func (r *RunResult) Append(rec MatchRecord) {
	if rec.ImageURLs == nil {
		rec.ImageURLs = []string{}
	}
	if rec.ImagePaths == nil {
		rec.ImagePaths = []string{}
	}
	r.MatchedURLs = append(r.MatchedURLs, rec)
}

// ImageCount returns the number of downloaded images across all records.
func (r *RunResult) ImageCount() int {
	n := 0
	for _, rec := range r.MatchedURLs {
		n += len(rec.ImagePaths)
	}
	return n
}
