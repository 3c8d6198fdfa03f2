package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"chanscraper/pkg/classifier"
	"chanscraper/pkg/config"
	errs "chanscraper/pkg/errors"
	"chanscraper/pkg/extractor"
	"chanscraper/pkg/iqdb"
	"chanscraper/pkg/logger"
	"chanscraper/pkg/models"
	"chanscraper/pkg/registry"
	"chanscraper/pkg/storage"
)

// ErrReverseSearchUpdate is returned when update is asked to use the aggregator
var ErrReverseSearchUpdate = errors.New("reverse image search is not supported when updating")

// Scraper drives threads end to end: page, links, images, registry
type Scraper struct {
	client   Client
	resolver Resolver
	registry *registry.Registry
	config   *config.Config
	logger   logger.Logger
}

// New creates a Scraper. cfg is read but never modified.
func New(cfg *config.Config, client Client, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	registryPath := cfg.Output.RegistryFile
	if !filepath.IsAbs(registryPath) {
		registryPath = filepath.Join(cfg.Output.BaseDirectory, registryPath)
	}

	return &Scraper{
		client:   client,
		resolver: iqdb.NewResolver(client, cfg.Site.AggregatorURL, log),
		registry: registry.New(registryPath, log),
		config:   cfg,
		logger:   log,
	}
}

// Registry returns the thread registry used by Download and Update
func (s *Scraper) Registry() *registry.Registry {
	return s.registry
}

// thread is a target whose page has been fetched and parsed
type thread struct {
	target models.ThreadTarget
	base   *url.URL
	doc    *extractor.Document
}

// Download scrapes one thread and records it in the registry. Failure to fetch
// the thread page is returned as an error; failures of single images are not.
func (s *Scraper) Download(ctx context.Context, req models.DownloadRequest, rep Reporter) (*models.Summary, error) {
	target := models.ThreadTarget{
		SourceURL:        req.URL,
		ThreadID:         ThreadID(req.URL),
		DisplayName:      req.Name,
		UseReverseSearch: req.Iqdb,
		OverrideExisting: req.Override,
		StampModTime:     req.StampModTime,
	}

	th, err := s.resolveIdentity(ctx, target, req.Directory)
	if err != nil {
		rep.ThreadFailed(req.URL, err)
		return nil, fmt.Errorf("failed to fetch thread %s: %w", req.URL, err)
	}

	summary, scrapeErr := s.scrapeThread(ctx, th, rep)
	if summary == nil {
		rep.ThreadFailed(req.URL, scrapeErr)
		return nil, scrapeErr
	}

	name := req.Name
	if name == "" {
		name = th.target.ThreadID
	}

	entries, err := s.registry.Load()
	if err != nil {
		return summary, fmt.Errorf("failed to load registry: %w", err)
	}
	entries = registry.Upsert(entries, models.RegistryEntry{URL: req.URL, Name: name})
	if err := s.registry.Save(entries); err != nil {
		return summary, fmt.Errorf("failed to save registry: %w", err)
	}

	// an interrupted thread is still registered so that update can finish it
	if scrapeErr != nil {
		return summary, fmt.Errorf("download interrupted: %w", scrapeErr)
	}
	return summary, nil
}

// Update re-scrapes every thread in the registry. Threads whose page is gone
// (404) or unreachable are dropped from the registry. Cancellation is honoured
// between threads: the registry is saved with every thread not yet visited.
func (s *Scraper) Update(ctx context.Context, req models.UpdateRequest, rep Reporter) error {
	if req.Iqdb {
		return ErrReverseSearchUpdate
	}

	entries, err := s.registry.Load()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	s.logger.InfoWithFields("updating threads", map[string]interface{}{
		"threads": len(entries),
	})

	remaining := entries
	var interrupted error

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}

		id := ThreadID(entry.URL)
		name := entry.Name
		if name == id {
			name = ""
		}
		target := models.ThreadTarget{
			SourceURL:        entry.URL,
			ThreadID:         id,
			DisplayName:      name,
			OverrideExisting: req.Override,
			StampModTime:     req.StampModTime,
		}

		th, err := s.resolveIdentity(ctx, target, "")
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				interrupted = ctxErr
				break
			}
			if errs.IsNotFound(err) || errs.IsUnreachable(err) {
				s.logger.WarnWithFields("dropping thread", map[string]interface{}{
					"thread": entry.URL,
					"error":  err.Error(),
				})
				remaining = registry.Remove(remaining, entry.URL)
				rep.ThreadDropped(entry.URL)
				continue
			}
			// Other failures (5xx, 403) may be transient; keep the thread
			rep.ThreadFailed(entry.URL, err)
			continue
		}

		if _, err := s.scrapeThread(ctx, th, rep); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				interrupted = ctxErr
				break
			}
			rep.ThreadFailed(entry.URL, err)
		}
	}

	if err := s.registry.Save(remaining); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	if interrupted != nil {
		return fmt.Errorf("update interrupted: %w", interrupted)
	}
	return nil
}

// resolveIdentity fetches the thread page and derives the directory name from
// its title
func (s *Scraper) resolveIdentity(ctx context.Context, target models.ThreadTarget, dirOverride string) (*thread, error) {
	page, err := s.client.Fetch(ctx, target.SourceURL)
	if err != nil {
		return nil, err
	}

	doc, err := extractor.Parse(page.Body, page.ContentType)
	if err != nil {
		return nil, errs.Parsing(target.SourceURL, err)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, errs.Parsing(target.SourceURL, err)
	}

	target.DirectoryName = DirectoryName(dirOverride, target.DisplayName, target.ThreadID, doc.Title())
	return &thread{target: target, base: base, doc: doc}, nil
}

// scrapeThread classifies the links of the page and materializes each image in
// page order. When ctx is cancelled between images the partial summary is
// returned together with the context error.
func (s *Scraper) scrapeThread(ctx context.Context, th *thread, rep Reporter) (*models.Summary, error) {
	target := th.target
	log := s.logger.WithFields(map[string]interface{}{
		"thread":    target.SourceURL,
		"directory": target.DirectoryName,
	})

	dir := target.DirectoryName
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.config.Output.BaseDirectory, dir)
	}

	manager, err := storage.NewManager(dir, s.client, storage.Policy{
		Override:      target.OverrideExisting,
		StampModTime:  target.StampModTime,
		MinFileSize:   s.config.Download.MinFileSize,
		ReverseSearch: target.UseReverseSearch,
	}, log)
	if err != nil {
		return nil, err
	}

	hrefs := th.doc.Links()
	var links []string
	if target.UseReverseSearch {
		links = classifier.SeedLinks(hrefs)
	} else {
		links = classifier.DirectLinks(th.base, hrefs)
	}

	log.DebugWithFields("links classified", map[string]interface{}{
		"anchors":  len(hrefs),
		"images":   len(links),
		"existing": manager.FileCount(),
	})

	total := len(links)
	summary := models.NewSummary(target.DirectoryName)
	rep.ThreadStarted(target.DirectoryName, total)

	var interrupted error
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			log.Warn("thread interrupted")
			interrupted = err
			break
		}

		task := manager.NewTask(link, i+1)
		outcome := s.processImage(ctx, manager, task, target, rep, total)

		summary.Add(outcome)
		rep.Outcome(task, outcome, total)
		logger.LogDownload(log, target.SourceURL, outcome.Name, outcome.Kind.String(), outcome.Err)
	}

	rep.ThreadFinished(summary)
	log.InfoWithFields("thread done", map[string]interface{}{
		"summary": summary.String(),
	})
	return summary, interrupted
}

// processImage runs one task through existence check, optional reverse search
// and download
func (s *Scraper) processImage(ctx context.Context, manager *storage.Manager, task models.ImageTask, target models.ThreadTarget, rep Reporter, total int) models.Outcome {
	if outcome, ok := manager.CheckExisting(task); ok {
		return outcome
	}

	if target.UseReverseSearch {
		res, err := s.resolver.Resolve(ctx, task.OriginLink)
		if err != nil {
			return models.Outcome{Kind: models.FetchFailedAllCandidates, Name: task.Filename, Err: err}
		}
		switch res.Status {
		case iqdb.NotFound:
			return models.Outcome{Kind: models.AggregatorMiss, Name: task.Filename, Err: &errs.Error{
				Type:    errs.ErrorTypeAggregatorMiss,
				Message: "no match on aggregator",
				URL:     task.OriginLink,
			}}
		case iqdb.FoundNoLink:
			return models.Outcome{Kind: models.AggregatorFoundNoLink, Name: task.Filename, Err: &errs.Error{
				Type:    errs.ErrorTypeAggregatorNoLink,
				Message: fmt.Sprintf("%d result pages without media links", len(res.Sources)),
				URL:     task.OriginLink,
			}}
		}
		task.Candidates = res.Links
	}

	rep.Progress(task, total)
	return manager.Materialize(ctx, task)
}
