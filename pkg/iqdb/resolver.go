package iqdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"chanscraper/pkg/classifier"
	errs "chanscraper/pkg/errors"
	"chanscraper/pkg/extractor"
	"chanscraper/pkg/fetcher"
	"chanscraper/pkg/logger"
)

// endOfResults is the anchor after which the aggregator page only has footer links
const endOfResults = "#"

// noResultsMarker shows up as the first result when the aggregator found nothing
// and offers the fallback provider instead
const noResultsMarker = "saucenao.com/search.php"

// PageFetcher is the subset of the fetcher the resolver needs
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
	FetchAggregator(ctx context.Context, url string) (*fetcher.Page, error)
}

// Status classifies a resolution
type Status int

const (
	// Found means Links holds at least one downloadable candidate
	Found Status = iota
	// NotFound means the aggregator had no match for the seed
	NotFound
	// FoundNoLink means matches exist but none of their pages had a media link
	FoundNoLink
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case FoundNoLink:
		return "found_no_link"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Resolution is the result of looking up one seed
type Resolution struct {
	Status Status
	// Sources are the aggregator's result pages
	Sources []string
	// Links is the pooled, deduplicated list of media links found on Sources
	Links []string
}

// Resolver finds full-size candidates for a thumbnail through the aggregator
type Resolver struct {
	client        PageFetcher
	aggregatorURL string
	logger        logger.Logger
}

// NewResolver creates a resolver querying aggregatorURL
func NewResolver(client PageFetcher, aggregatorURL string, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		client:        client,
		aggregatorURL: aggregatorURL,
		logger:        log,
	}
}

// QueryURL builds the aggregator lookup for seed
func (r *Resolver) QueryURL(seed string) (string, error) {
	u, err := url.Parse(r.aggregatorURL)
	if err != nil {
		return "", fmt.Errorf("invalid aggregator url: %w", err)
	}
	q := u.Query()
	q.Set("url", seed)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Resolve looks seed up and collects media links from every result page.
// A failed aggregator request counts as NotFound; a failed result page is skipped.
// The only error returned is cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, seed string) (Resolution, error) {
	log := r.logger.WithField("seed", seed)

	query, err := r.QueryURL(seed)
	if err != nil {
		return Resolution{}, err
	}

	page, err := r.client.FetchAggregator(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Resolution{}, ctxErr
		}
		log.WithError(err).Warn("aggregator lookup failed")
		return Resolution{Status: NotFound}, nil
	}

	doc, err := extractor.Parse(page.Body, page.ContentType)
	if err != nil {
		log.WithError(errs.Parsing(query, err)).Warn("aggregator page unreadable")
		return Resolution{Status: NotFound}, nil
	}

	sources := Candidates(pageBase(page), doc.Links())
	if len(sources) == 0 {
		log.Debug("no match on aggregator")
		return Resolution{Status: NotFound}, nil
	}

	var pooled []string
	for _, source := range sources {
		links, err := r.mediaLinks(ctx, source)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Resolution{}, ctxErr
			}
			log.WithFields(map[string]interface{}{
				"source": source,
				"error":  err.Error(),
			}).Debug("skipping result page")
			continue
		}
		pooled = append(pooled, links...)
	}
	pooled = classifier.Dedup(pooled)

	log.DebugWithFields("aggregator resolution", map[string]interface{}{
		"sources": len(sources),
		"links":   len(pooled),
	})

	if len(pooled) == 0 {
		return Resolution{Status: FoundNoLink, Sources: sources}, nil
	}
	return Resolution{Status: Found, Sources: sources, Links: pooled}, nil
}

func (r *Resolver) mediaLinks(ctx context.Context, source string) ([]string, error) {
	page, err := r.client.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	doc, err := extractor.Parse(page.Body, page.ContentType)
	if err != nil {
		return nil, errs.Parsing(source, err)
	}
	return classifier.MediaLinks(pageBase(page), doc.Links()), nil
}

// Candidates turns the anchors of an aggregator page into the list of result
// pages: everything before the first "#", minus the leading self link. When the
// first result is the fallback provider the aggregator found nothing.
func Candidates(base *url.URL, hrefs []string) []string {
	for i, href := range hrefs {
		if href == endOfResults {
			hrefs = hrefs[:i]
			break
		}
	}
	if len(hrefs) == 0 {
		return nil
	}
	hrefs = hrefs[1:]

	candidates := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		candidates = append(candidates, classifier.Absolute(base, href))
	}
	if len(candidates) > 0 && strings.Contains(candidates[0], noResultsMarker) {
		return nil
	}
	return classifier.Dedup(candidates)
}

func pageBase(page *fetcher.Page) *url.URL {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	return u
}
