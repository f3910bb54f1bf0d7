package crawler

import (
	"context"
	"fmt"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
	"github.com/samvad-hq/keyword-image-harvester/internal/logger"
	"github.com/samvad-hq/keyword-image-harvester/internal/pacing"
)

// Service walks trusted pages, downloading their images into match records.
type Service struct {
	harvester  ImageHarvester
	downloader ImageDownloader
	pacer      pacing.Policy
	log        logger.Logger
}

// NewService wires a crawler. A nil pacer disables the pause between pages.
func NewService(h ImageHarvester, d ImageDownloader, pacer pacing.Policy, log logger.Logger) *Service {
	if pacer == nil {
		pacer = pacing.Fixed{}
	}
	return &Service{
		harvester:  h,
		downloader: d,
		pacer:      pacer,
		log:        logger.Ensure(log),
	}
}

// Run processes trusted URLs in order and appends a record for every page with images.
// Only context cancellation stops the pass early.
func (s *Service) Run(ctx context.Context, result *domain.RunResult, trusted []string) error {
	if s == nil || s.harvester == nil || s.downloader == nil {
		return fmt.Errorf("crawler service is not initialized")
	}
	if result == nil {
		return fmt.Errorf("run result is nil")
	}

	for _, pageURL := range trusted {
		if err := ctx.Err(); err != nil {
			return err
		}

		if rec, ok := s.processPage(ctx, pageURL); ok {
			result.Append(rec)
		}

		if err := pacing.Wait(ctx, s.pacer.BetweenPages()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) processPage(ctx context.Context, pageURL string) (domain.MatchRecord, bool) {
	images := s.harvester.Harvest(ctx, pageURL)
	if len(images) == 0 {
		s.log.DebugObj("no images on page", "page_skipped", map[string]any{"url": pageURL})
		return domain.MatchRecord{}, false
	}

	paths := make([]string, 0, len(images))
	for _, img := range images {
		p, err := s.downloader.Download(ctx, img)
		if err != nil {
			continue
		}
		paths = append(paths, p)
	}

	s.log.InfoObj("page processed", "page_result", map[string]any{
		"url":        pageURL,
		"images":     len(images),
		"downloaded": len(paths),
	})
	return domain.MatchRecord{AnchorTag: pageURL, ImageURLs: images, ImagePaths: paths}, true
}
