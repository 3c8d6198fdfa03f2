package scraper

import (
	"context"

	"chanscraper/pkg/iqdb"
	"chanscraper/pkg/models"
	"chanscraper/pkg/storage"
)

// Client defines the HTTP operations the scraper needs: page fetches for
// threads, aggregator lookups and image downloads
type Client interface {
	iqdb.PageFetcher
	storage.Downloader
}

// Resolver looks up full-size candidates for a thumbnail seed
type Resolver interface {
	Resolve(ctx context.Context, seed string) (iqdb.Resolution, error)
}

// Reporter receives the status of a scrape as it progresses
type Reporter interface {
	ThreadStarted(directory string, images int)
	Progress(task models.ImageTask, total int)
	Outcome(task models.ImageTask, outcome models.Outcome, total int)
	ThreadFinished(summary *models.Summary)
	ThreadFailed(url string, err error)
	ThreadDropped(url string)
}
