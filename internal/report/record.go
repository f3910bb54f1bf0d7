// Package report writes the JSON record and the PDF gallery of a run.
package report

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
)

const (
	// RecordFileName is the JSON record inside the output folder.
	RecordFileName = "scraped_data.json"
	// DocumentFileName is the PDF gallery inside the output folder.
	DocumentFileName = "images_document.pdf"
)

// WriteRecord overwrites path with the run result as 4-space indented JSON.
func WriteRecord(path string, result *domain.RunResult) error {
	if result == nil {
		result = domain.NewRunResult("")
	}
	normalized := *result
	normalized.MatchedURLs = make([]domain.MatchRecord, 0, len(result.MatchedURLs))
	for _, rec := range result.MatchedURLs {
		if rec.ImageURLs == nil {
			rec.ImageURLs = []string{}
		}
		if rec.ImagePaths == nil {
			rec.ImagePaths = []string{}
		}
		normalized.MatchedURLs = append(normalized.MatchedURLs, rec)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(normalized); err != nil {
		return &domain.IOError{Op: "encode", Path: path, Err: err}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &domain.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// ReadRecord parses a record written by WriteRecord.
func ReadRecord(path string) (*domain.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IOError{Op: "read", Path: path, Err: err}
	}
	var result domain.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &domain.IOError{Op: "decode", Path: path, Err: err}
	}
	if result.MatchedURLs == nil {
		result.MatchedURLs = []domain.MatchRecord{}
	}
	return &result, nil
}
