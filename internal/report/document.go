package report

import (
	"fmt"
	"os"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
	"github.com/samvad-hq/keyword-image-harvester/internal/logger"
)

// Box is a rectangle in points with a top-left origin.
type Box struct {
	X, Y, W, H float64
}

// Canvas is the drawing surface the document layout writes to.
type Canvas interface {
	AddPage()
	Text(x, y float64, s string)
	// Image draws the file at path scaled into box, preserving aspect ratio.
	Image(path string, box Box) error
	Save(path string) error
}

// Layout holds the page geometry in points. Y grows downwards.
type Layout struct {
	TopMargin   float64
	BottomLimit float64
	Left        float64
	TitleGap    float64
	LineGap     float64
	ImageWidth  float64
	ImageHeight float64
	ImageGap    float64
}

// DefaultLayout is a US Letter page (612x792) with a 100pt bottom margin.
func DefaultLayout() Layout {
	return Layout{
		TopMargin:   42,
		BottomLimit: 692,
		Left:        100,
		TitleGap:    40,
		LineGap:     20,
		ImageWidth:  200,
		ImageHeight: 150,
		ImageGap:    170,
	}
}

// DocumentTitle is the heading of the first page.
func DocumentTitle(keyword string) string {
	return fmt.Sprintf("Scraped Images for '%s'", keyword)
}

// RenderDocument lays out every record with downloaded images onto c.
// Pages are added before any element that would cross BottomLimit, so nothing is drawn below it.
// Missing files and images the canvas rejects are skipped.
func RenderDocument(c Canvas, result *domain.RunResult, layout Layout, log logger.Logger) {
	log = logger.Ensure(log)
	keyword := ""
	if result != nil {
		keyword = result.Keyword
	}

	c.AddPage()
	y := layout.TopMargin
	c.Text(layout.Left, y, DocumentTitle(keyword))
	y += layout.TitleGap

	if result == nil {
		return
	}

	ensure := func(height float64) {
		if y+height > layout.BottomLimit {
			c.AddPage()
			y = layout.TopMargin
		}
	}

	for _, rec := range result.MatchedURLs {
		if len(rec.ImagePaths) == 0 {
			continue
		}

		ensure(layout.LineGap)
		c.Text(layout.Left, y, "URL: "+rec.AnchorTag)
		y += layout.LineGap

		for _, p := range rec.ImagePaths {
			if _, err := os.Stat(p); err != nil {
				log.WarnObj("image file missing", "document_image_missing", map[string]any{
					"path": p,
				})
				continue
			}

			ensure(layout.ImageHeight)
			box := Box{X: layout.Left, Y: y, W: layout.ImageWidth, H: layout.ImageHeight}
			if err := c.Image(p, box); err != nil {
				log.ErrorObj("image embed failed", "document_image_error", map[string]any{
					"path":  p,
					"error": err.Error(),
				})
				continue
			}
			y += layout.ImageGap
		}
	}
}

// FitBox scales a w x h image into box keeping its aspect ratio, centred.
func FitBox(w, h float64, box Box) Box {
	if w <= 0 || h <= 0 {
		return box
	}
	scale := box.W / w
	if s := box.H / h; s < scale {
		scale = s
	}
	fw, fh := w*scale, h*scale
	return Box{
		X: box.X + (box.W-fw)/2,
		Y: box.Y + (box.H-fh)/2,
		W: fw,
		H: fh,
	}
}

// WriteDocument renders result into a PDF at path.
func WriteDocument(path string, result *domain.RunResult, log logger.Logger) error {
	c := NewPDFCanvas()
	RenderDocument(c, result, DefaultLayout(), log)
	return c.Save(path)
}
