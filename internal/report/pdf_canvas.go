package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/webp"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
)

const (
	fontFamily = "Helvetica"
	fontSize   = 12
)

// PDFCanvas draws onto a US Letter fpdf document measured in points.
type PDFCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFCanvas returns an empty document with automatic page breaks off.
func NewPDFCanvas() *PDFCanvas {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &PDFCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (c *PDFCanvas) AddPage() {
	c.pdf.AddPage()
	c.pdf.SetFont(fontFamily, "", fontSize)
}

func (c *PDFCanvas) Text(x, y float64, s string) {
	c.pdf.Text(x, y, c.tr(s))
}

// Image embeds JPEG, PNG and GIF as-is; anything else image.Decode understands
// is re-encoded as PNG. A native file fpdf refuses (16-bit or interlaced PNG,
// progressive quirks) is re-encoded as an 8-bit PNG and tried once more.
func (c *PDFCanvas) Image(path string, box Box) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.IOError{Op: "read", Path: path, Err: err}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image config: %w", err)
	}

	name := path
	opts, err := c.register(name, format, data)
	if err != nil && isNative(format) {
		name = path + "#png"
		var converted []byte
		if converted, err = toPNG(format, data); err == nil {
			opts, err = c.register(name, "png", converted)
		}
	}
	if err != nil {
		return err
	}

	fit := FitBox(float64(cfg.Width), float64(cfg.Height), box)
	c.pdf.ImageOptions(name, fit.X, fit.Y, fit.W, fit.H, false, opts, 0, "")
	if !c.pdf.Ok() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return fmt.Errorf("draw image: %w", err)
	}
	return nil
}

func (c *PDFCanvas) register(name, format string, data []byte) (fpdf.ImageOptions, error) {
	imageType, data, err := embeddable(format, data)
	if err != nil {
		return fpdf.ImageOptions{}, err
	}
	opts := fpdf.ImageOptions{ImageType: imageType}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !c.pdf.Ok() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return opts, fmt.Errorf("register image: %w", err)
	}
	return opts, nil
}

func isNative(format string) bool {
	return format == "jpeg" || format == "png" || format == "gif"
}

func embeddable(format string, data []byte) (string, []byte, error) {
	switch format {
	case "jpeg":
		return "JPG", data, nil
	case "png":
		return "PNG", data, nil
	case "gif":
		return "GIF", data, nil
	}
	converted, err := toPNG(format, data)
	if err != nil {
		return "", nil, err
	}
	return "PNG", converted, nil
}

// toPNG decodes data and writes it back as a non-interlaced 8-bit NRGBA PNG.
func toPNG(format string, data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Clone(img), imaging.PNG); err != nil {
		return nil, fmt.Errorf("convert %s image to png: %w", format, err)
	}
	return buf.Bytes(), nil
}

// PageCount returns the number of pages added so far.
func (c *PDFCanvas) PageCount() int {
	return c.pdf.PageCount()
}

func (c *PDFCanvas) Save(path string) error {
	if err := c.pdf.OutputFileAndClose(path); err != nil {
		return &domain.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
