package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a local ledger of downloaded images.

// ImageEntry records which source URL produced a cached image file.
type ImageEntry struct {
	Name         string    `json:"name"`
	SourceURL    string    `json:"source_url"`
	Path         string    `json:"path"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Store tracks downloaded images keyed by file name.
type Store interface {
	Close() error
	LookupImage(name string) (ImageEntry, bool, error)
	RecordImage(entry ImageEntry) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                 { return nil }
func (noopStore) LookupImage(string) (ImageEntry, bool, error) { return ImageEntry{}, false, nil }
func (noopStore) RecordImage(ImageEntry) error                 { return nil }
