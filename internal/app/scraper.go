package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/keyword-image-harvester/internal/config"
	"github.com/samvad-hq/keyword-image-harvester/internal/crawler"
	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
	"github.com/samvad-hq/keyword-image-harvester/internal/download"
	"github.com/samvad-hq/keyword-image-harvester/internal/logger"
	"github.com/samvad-hq/keyword-image-harvester/internal/pacing"
	"github.com/samvad-hq/keyword-image-harvester/internal/report"
	"github.com/samvad-hq/keyword-image-harvester/internal/storage"
	"github.com/samvad-hq/keyword-image-harvester/internal/trust"
	"github.com/samvad-hq/keyword-image-harvester/pkg/httpclient"
	"github.com/samvad-hq/keyword-image-harvester/pkg/publishers"
	"github.com/samvad-hq/keyword-image-harvester/pkg/search"
)

// Scraper is a single keyword run: search, filter, harvest, download, report.
type Scraper struct {
	runID        string
	run          domain.RunContext
	searcher     search.Searcher
	pacer        pacing.Policy
	crawlService *crawler.Service
	fanout       *publishers.Fanout
	store        storage.Store
	log          logger.Logger
}

// Option customises a Scraper at construction time.
type Option func(*options)

type options struct {
	pacer  pacing.Policy
	client httpclient.Client
}

// WithPacer replaces the default randomised pauses.
func WithPacer(p pacing.Policy) Option {
	return func(o *options) { o.pacer = p }
}

// WithHTTPClient replaces the resty client built from config.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *options) { o.client = c }
}

// NewScraper wires every component of a run from cfg.
func NewScraper(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Scraper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	o := options{pacer: pacing.DefaultPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = httpclient.NewRestyClient(cfg.RequestTimeout,
			httpclient.WithRetryPolicy(httpclient.NewFixedRetryPolicy(cfg.RetryMaxAttempts, cfg.RetryBackoff)),
		)
	}

	run := domain.RunContext{
		Keyword:      cfg.Keyword,
		TrustedSites: append([]string(nil), cfg.TrustedWebsites...),
		OutputDir:    filepath.Join(cfg.OutputRoot, domain.OutputFolderName(cfg.Keyword)),
	}

	searcher, err := search.DefaultRegistry().SearcherFor(search.Engine{
		Type:     cfg.SearchEngine,
		Endpoint: cfg.SearchEndpoint,
	}, o.client, log)
	if err != nil {
		return nil, fmt.Errorf("init search engine: %w", err)
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	downloader, err := download.New(filepath.Join(run.OutputDir, "images"), o.client, store, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init downloader: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Scraper{
		runID:        uuid.NewString(),
		run:          run,
		searcher:     searcher,
		pacer:        o.pacer,
		crawlService: crawler.NewService(crawler.NewScraper(o.client, log), downloader, o.pacer, log),
		fanout:       fanout,
		store:        store,
		log:          log,
	}, nil
}

// buildFanout loads the optional publishers file. No file means no publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// RunContext returns the immutable parameters of this run.
func (s *Scraper) RunContext() domain.RunContext { return s.run }

// Run executes the pipeline once. Network failures are absorbed; failures to
// write the record or the document are returned.
func (s *Scraper) Run(ctx context.Context) (*domain.RunResult, error) {
	if s == nil || s.crawlService == nil {
		return nil, fmt.Errorf("scraper is not initialized")
	}
	defer s.close()

	start := time.Now()
	s.log.InfoObj("run started", "run_meta", map[string]any{
		"run_id":        s.runID,
		"keyword":       s.run.Keyword,
		"trusted_sites": s.run.TrustedSites,
		"output_dir":    s.run.OutputDir,
	})

	links, err := s.searcher.Search(ctx, s.run.Keyword)
	if err != nil {
		s.log.ErrorObj("search failed", "search_error", map[string]any{"error": err.Error()})
		links = nil
	}
	if err := pacing.Wait(ctx, s.pacer.AfterSearch()); err != nil {
		return nil, err
	}

	trusted := trust.Filter(links, s.run.TrustedSites)
	s.log.InfoObj("trusted links selected", "trust_result", map[string]any{
		"candidates": len(links),
		"trusted":    len(trusted),
	})

	result := domain.NewRunResult(s.run.Keyword)
	if err := s.crawlService.Run(ctx, result, trusted); err != nil {
		return nil, fmt.Errorf("crawl trusted pages: %w", err)
	}

	recordPath := filepath.Join(s.run.OutputDir, report.RecordFileName)
	if err := report.WriteRecord(recordPath, result); err != nil {
		return nil, fmt.Errorf("write record: %w", err)
	}
	s.log.InfoObj("record saved", "record_path", recordPath)

	documentPath := filepath.Join(s.run.OutputDir, report.DocumentFileName)
	if err := report.WriteDocument(documentPath, result, s.log); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	s.log.InfoObj("document saved", "document_path", documentPath)

	published := s.publish(ctx, result)

	s.log.InfoObj("run completed", "run_summary", map[string]any{
		"run_id":          s.runID,
		"candidate_links": len(links),
		"trusted_links":   len(trusted),
		"matched_pages":   len(result.MatchedURLs),
		"images_saved":    result.ImageCount(),
		"events_sent":     published,
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return result, nil
}

// publish sends one event per match record; failures are logged only.
func (s *Scraper) publish(ctx context.Context, result *domain.RunResult) int {
	if s.fanout.Size() == 0 || len(result.MatchedURLs) == 0 {
		return 0
	}

	events := make([]publishers.Event, 0, len(result.MatchedURLs))
	for _, rec := range result.MatchedURLs {
		events = append(events, publishers.NewEvent(s.runID, result.Keyword, rec))
	}
	delivered, err := s.fanout.PublishAll(ctx, events)
	if err != nil {
		s.log.WarnObj("publishing match events failed", "publish_error", map[string]any{
			"run_id":    s.runID,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
	return delivered
}

// close releases the ledger and publishers, logging any errors encountered.
func (s *Scraper) close() {
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
