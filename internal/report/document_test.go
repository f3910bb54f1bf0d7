package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
)

type drawnImage struct {
	path string
	box  Box
	page int
}

// fakeCanvas records layout calls instead of drawing.
type fakeCanvas struct {
	pages  int
	texts  []string
	images []drawnImage
	fail   map[string]bool
}

func (f *fakeCanvas) AddPage()                    { f.pages++ }
func (f *fakeCanvas) Text(_, _ float64, s string) { f.texts = append(f.texts, s) }
func (f *fakeCanvas) Save(string) error           { return nil }

func (f *fakeCanvas) Image(path string, box Box) error {
	if f.fail[path] {
		return errors.New("corrupt")
	}
	f.images = append(f.images, drawnImage{path: path, box: box, page: f.pages})
	return nil
}

func touchImages(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".png")
		if err := os.WriteFile(paths[i], []byte("img"), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	return paths
}

func TestRenderDocumentPaginates(t *testing.T) {
	layout := DefaultLayout()
	result := domain.NewRunResult("Test")
	result.Append(domain.MatchRecord{
		AnchorTag:  "https://example.com/a",
		ImageURLs:  []string{"u"},
		ImagePaths: touchImages(t, 10),
	})

	c := &fakeCanvas{}
	RenderDocument(c, result, layout, nil)

	if len(c.images) != 10 {
		t.Fatalf("expected 10 images drawn, got %d", len(c.images))
	}
	if c.pages < 3 {
		t.Fatalf("expected at least 3 pages for 10 images, got %d", c.pages)
	}
	for _, img := range c.images {
		if img.box.Y < layout.TopMargin || img.box.Y+img.box.H > layout.BottomLimit {
			t.Fatalf("image %s drawn outside the page body: %#v", img.path, img.box)
		}
	}
	// 42+40+20 leaves room for three 170pt slots on the first page.
	if c.images[3].page != 2 || c.images[3].box.Y != layout.TopMargin {
		t.Fatalf("expected fourth image at the top of page 2, got %#v", c.images[3])
	}
	if c.texts[0] != "Scraped Images for 'Test'" || c.texts[1] != "URL: https://example.com/a" {
		t.Fatalf("unexpected texts %#v", c.texts)
	}
}

func TestRenderDocumentSkipsMissingAndFailedImages(t *testing.T) {
	paths := touchImages(t, 2)
	result := domain.NewRunResult("Test")
	result.Append(domain.MatchRecord{AnchorTag: "https://example.com/empty", ImageURLs: []string{"u"}})
	result.Append(domain.MatchRecord{
		AnchorTag:  "https://example.com/a",
		ImageURLs:  []string{"u1", "u2", "u3"},
		ImagePaths: []string{paths[0], filepath.Join(t.TempDir(), "gone.png"), paths[1]},
	})

	c := &fakeCanvas{fail: map[string]bool{paths[0]: true}}
	RenderDocument(c, result, DefaultLayout(), nil)

	if len(c.texts) != 2 {
		t.Fatalf("records without paths must not be listed, got %#v", c.texts)
	}
	if len(c.images) != 1 || c.images[0].path != paths[1] {
		t.Fatalf("expected only the second image drawn, got %#v", c.images)
	}
	if c.images[0].box.Y != DefaultLayout().TopMargin+60 {
		t.Fatalf("skipped images must not advance the cursor, got y=%v", c.images[0].box.Y)
	}
}

func TestFitBoxPreservesAspect(t *testing.T) {
	box := Box{X: 100, Y: 100, W: 200, H: 150}

	wide := FitBox(400, 100, box)
	if wide.W != 200 || wide.H != 50 || wide.X != 100 || wide.Y != 150 {
		t.Fatalf("unexpected wide fit %#v", wide)
	}

	tall := FitBox(100, 300, box)
	if tall.H != 150 || tall.W != 50 || tall.X != 175 || tall.Y != 100 {
		t.Fatalf("unexpected tall fit %#v", tall)
	}

	if got := FitBox(0, 10, box); got != box {
		t.Fatalf("expected box unchanged for empty image, got %#v", got)
	}
}
