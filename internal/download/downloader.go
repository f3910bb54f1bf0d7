// Package download saves images under content-addressed file names.
package download

import (
	"context"
	"crypto/md5" //nolint:gosec // non-cryptographic file naming
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
	"github.com/samvad-hq/keyword-image-harvester/internal/logger"
	"github.com/samvad-hq/keyword-image-harvester/internal/storage"
	"github.com/samvad-hq/keyword-image-harvester/pkg/httpclient"
)

const (
	defaultExtension = ".jpg"
	chunkSize        = 32 << 10
)

// Downloader fetches images into a single directory.
type Downloader struct {
	dir    string
	client httpclient.Client
	ledger storage.Store
	log    logger.Logger
}

// New builds a downloader writing into dir, creating it if needed. A nil ledger disables recording.
func New(dir string, client httpclient.Client, ledger storage.Store, log logger.Logger) (*Downloader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("image directory is required")
	}
	if client == nil {
		return nil, fmt.Errorf("http client is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.IOError{Op: "create", Path: dir, Err: err}
	}
	if ledger == nil {
		ledger, _ = storage.NewStore("none", "", storage.Options{})
	}
	return &Downloader{dir: dir, client: client, ledger: ledger, log: logger.Ensure(log)}, nil
}

// Dir returns the image directory.
func (d *Downloader) Dir() string { return d.dir }

// FileName returns md5(imageURL) plus the extension of the URL path, ".jpg" when there is none.
// The name depends on the URL only, so a URL whose content changes keeps its stale file.
func FileName(imageURL string) string {
	sum := md5.Sum([]byte(imageURL)) //nolint:gosec // non-cryptographic file naming
	return hex.EncodeToString(sum[:]) + extension(imageURL)
}

// extension mirrors splitext on the URL path: the suffix from the last dot of
// the final segment, unless the segment is only leading dots before it.
func extension(imageURL string) string {
	p := urlPath(imageURL)
	sep := strings.LastIndex(p, "/")
	dot := strings.LastIndex(p, ".")
	if dot > sep && strings.Trim(p[sep+1:dot], ".") != "" {
		return p[dot:]
	}
	return defaultExtension
}

// urlPath returns the path of raw, cutting it out by hand when url.Parse rejects raw.
func urlPath(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Path
	}
	p := raw
	if i := strings.Index(p, "//"); i >= 0 && (i == 0 || p[i-1] == ':') {
		p = p[i+2:]
		if j := strings.IndexByte(p, '/'); j >= 0 {
			p = p[j:]
		} else {
			p = ""
		}
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p
}

// Path returns the local path for imageURL.
func (d *Downloader) Path(imageURL string) string {
	return filepath.Join(d.dir, FileName(imageURL))
}

// Download saves imageURL and returns its local path. An existing file is
// returned as-is without touching the network.
func (d *Downloader) Download(ctx context.Context, imageURL string) (string, error) {
	name := FileName(imageURL)
	target := filepath.Join(d.dir, name)

	if _, err := os.Stat(target); err == nil {
		d.checkLedger(name, imageURL)
		return target, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", d.fail(imageURL, &domain.IOError{Op: "stat", Path: target, Err: err})
	}

	if !fetchable(imageURL) {
		return "", d.fail(imageURL, &domain.ParseError{URL: imageURL, Err: errors.New("unsupported image URL scheme")})
	}

	resp, err := d.client.Stream(ctx, imageURL, nil)
	if err != nil {
		return "", d.fail(imageURL, err)
	}
	body := resp.Body()
	if body == nil {
		return "", d.fail(imageURL, fmt.Errorf("empty response body"))
	}
	defer body.Close()

	if err := writeAtomic(target, body); err != nil {
		return "", d.fail(imageURL, err)
	}

	if err := d.ledger.RecordImage(storage.ImageEntry{Name: name, SourceURL: imageURL, Path: target}); err != nil {
		d.log.WarnObj("image ledger write failed", "ledger_error", map[string]any{
			"name":  name,
			"error": err.Error(),
		})
	}
	d.log.InfoObj("downloaded image", "image_download", map[string]any{
		"url":  imageURL,
		"path": target,
	})
	return target, nil
}

// checkLedger warns when a cached file was recorded for a different URL.
func (d *Downloader) checkLedger(name, imageURL string) {
	entry, found, err := d.ledger.LookupImage(name)
	if err != nil {
		d.log.WarnObj("image ledger lookup failed", "ledger_error", map[string]any{
			"name":  name,
			"error": err.Error(),
		})
		return
	}
	if found && entry.SourceURL != imageURL {
		d.log.WarnObj("image file name collision", "ledger_collision", map[string]any{
			"name":        name,
			"url":         imageURL,
			"recorded_by": entry.SourceURL,
		})
		return
	}
	d.log.DebugObj("image already cached", "image_cached", map[string]any{
		"url":  imageURL,
		"name": name,
	})
}

// fetchable reports whether imageURL is an absolute http(s) URL.
func fetchable(imageURL string) bool {
	u, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func (d *Downloader) fail(imageURL string, err error) error {
	d.log.ErrorObj("image download failed", "image_download_error", map[string]any{
		"url":   imageURL,
		"error": err.Error(),
	})
	return err
}

// writeAtomic streams r into a temp file next to target and renames it into place.
func writeAtomic(target string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.part")
	if err != nil {
		return &domain.IOError{Op: "create", Path: target, Err: err}
	}
	tmpName := tmp.Name()

	// Hide ReadFrom so the copy goes through the fixed-size buffer.
	if _, err := io.CopyBuffer(struct{ io.Writer }{tmp}, r, make([]byte, chunkSize)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.IOError{Op: "write", Path: target, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "close", Path: target, Err: err}
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return &domain.IOError{Op: "rename", Path: target, Err: err}
	}
	return nil
}
