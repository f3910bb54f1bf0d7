package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
)

func TestWriteRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordFileName)
	result := domain.NewRunResult("Geo-political Tension")
	result.Append(domain.MatchRecord{
		AnchorTag:  "https://www.foreignaffairs.com/a?x=1&y=<2>",
		ImageURLs:  []string{"https://www.foreignaffairs.com/1.png", "https://www.foreignaffairs.com/2.png"},
		ImagePaths: []string{"Geo-political_Tension_data/images/abc.png"},
	})

	if err := WriteRecord(path, result); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	got, err := ReadRecord(path)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got.Keyword != result.Keyword || len(got.MatchedURLs) != 1 {
		t.Fatalf("unexpected result %#v", got)
	}
	rec := got.MatchedURLs[0]
	if rec.AnchorTag != result.MatchedURLs[0].AnchorTag || len(rec.ImageURLs) != 2 || len(rec.ImagePaths) != 1 {
		t.Fatalf("unexpected record %#v", rec)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "\n    \"keyword\": ") {
		t.Fatalf("expected 4-space indentation, got:\n%s", raw)
	}
	if !strings.Contains(string(raw), "&y=<2>") {
		t.Fatalf("expected unescaped URL characters, got:\n%s", raw)
	}
}

func TestWriteRecordEmitsEmptyArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordFileName)
	result := &domain.RunResult{Keyword: "Test", MatchedURLs: []domain.MatchRecord{{AnchorTag: "https://example.com"}}}

	if err := WriteRecord(path, result); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"image_paths": []`) || !strings.Contains(string(raw), `"image_urls": []`) {
		t.Fatalf("expected empty arrays, got:\n%s", raw)
	}
}

func TestWriteRecordOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordFileName)
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 4096)), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := WriteRecord(path, domain.NewRunResult("Test")); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	got, err := ReadRecord(path)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got.Keyword != "Test" || got.MatchedURLs == nil {
		t.Fatalf("unexpected result %#v", got)
	}
}

func TestWriteRecordReportsIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", RecordFileName)
	err := WriteRecord(path, domain.NewRunResult("Test"))
	var ioErr *domain.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
}
