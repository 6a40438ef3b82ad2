package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sjsage522/dealaggregator/internal/crawler"
	"sjsage522/dealaggregator/internal/renderer"
	"sjsage522/dealaggregator/internal/source"
	"sjsage522/dealaggregator/logger"
	"sjsage522/dealaggregator/pkg/errors"
	"sjsage522/dealaggregator/services/cache"
	"sjsage522/dealaggregator/services/publisher"
)

const publishTimeout = 5 * time.Second

// Aggregator scrapes the requested sources concurrently. Each source is
// isolated: a failure or timeout yields an empty list for that source only.
type Aggregator struct {
	registry   *source.Registry
	renderer   renderer.PageRenderer
	cache      *cache.ResultCache
	publisher  publisher.Publisher
	timeout    time.Duration
	production bool

	publishing sync.WaitGroup
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithPublisher hands every fresh, non-empty scrape to p
func WithPublisher(p publisher.Publisher) Option {
	return func(a *Aggregator) {
		a.publisher = p
	}
}

// WithProductionLogging logs only the category of source failures
func WithProductionLogging(production bool) Option {
	return func(a *Aggregator) {
		a.production = production
	}
}

// New creates an aggregator. timeout bounds each source independently.
func New(registry *source.Registry, r renderer.PageRenderer, c *cache.ResultCache, timeout time.Duration, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry: registry,
		renderer: r,
		cache:    c,
		timeout:  timeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Scrape returns one entry per known requested id. Unknown ids are left out;
// a request naming no known source is a validation error.
func (a *Aggregator) Scrape(ctx context.Context, ids []string) (map[string][]crawler.DealItem, error) {
	known := a.registry.Filter(ids)
	if len(known) == 0 {
		return nil, errors.NewValidation("", fmt.Sprintf("no known source in %v", ids))
	}

	logger.ForAggregator().Info().Strs("sources", known).Msg("Scrape requested")

	results := make(map[string][]crawler.DealItem, len(known))
	var mu sync.Mutex
	var g errgroup.Group

	for _, id := range known {
		g.Go(func() error {
			deals := a.scrapeSource(ctx, id)

			mu.Lock()
			results[id] = deals
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// ClearCache drops every cached result
func (a *Aggregator) ClearCache() error {
	if err := a.cache.Clear(); err != nil {
		return err
	}
	logger.ForAggregator().Info().Msg("Cache cleared")
	return nil
}

// Wait blocks until background publishes finish
func (a *Aggregator) Wait() {
	a.publishing.Wait()
}

// scrapeSource never fails: errors are logged and become an empty list
func (a *Aggregator) scrapeSource(ctx context.Context, id string) []crawler.DealItem {
	log := logger.ForSource(id)

	src, err := a.registry.Lookup(id)
	if err != nil {
		return []crawler.DealItem{}
	}

	if deals, ok := a.cache.Get(id); ok {
		log.Debug().Int("deals", len(deals)).Msg("Cache hit")
		return deals
	}

	ticket := a.cache.Ticket()
	start := time.Now()
	deals, err := a.fetch(ctx, src)
	if err != nil {
		a.logFailure(log, err)
		if ctx.Err() != nil {
			// the caller went away, the source itself did not fail
			return []crawler.DealItem{}
		}
		deals = []crawler.DealItem{}
	} else {
		log.Info().
			Int("deals", len(deals)).
			Dur("elapsed", time.Since(start)).
			Msg("Extracted deals")
	}

	if !a.cache.Store(id, deals, ticket) {
		log.Debug().Msg("Cache write skipped, a newer result or a clear won")
	}

	if err == nil && len(deals) > 0 {
		a.publish(id, deals)
	}
	return deals
}

type outcome struct {
	deals []crawler.DealItem
	err   error
}

// fetch renders and extracts under the per-source timeout. The work runs in
// its own goroutine so a renderer that overruns is abandoned; its late result
// lands in a buffered channel nobody reads.
func (a *Aggregator) fetch(parent context.Context, src source.Source) ([]crawler.DealItem, error) {
	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.NewParsing(src.ID, fmt.Sprintf("panic: %v", r), nil)}
			}
		}()

		html, err := a.renderer.Render(ctx, src.BaseURL, src.Readiness)
		if err != nil {
			done <- outcome{err: errors.NewRender(src.ID, "render failed", err)}
			return
		}
		deals, err := src.Extractor(a.registry.Resolver()).Extract(html)
		if err != nil {
			done <- outcome{err: errors.NewParsing(src.ID, "extract failed", err)}
			return
		}
		done <- outcome{deals: deals}
	}()

	select {
	case out := <-done:
		return out.deals, out.err
	case <-ctx.Done():
		if parent.Err() != nil {
			return nil, errors.NewRender(src.ID, "request cancelled", parent.Err())
		}
		return nil, errors.NewTimeout(src.ID, a.timeout)
	}
}

func (a *Aggregator) logFailure(log *logger.Logger, err error) {
	if a.production {
		log.Warn().Str("error_type", string(errors.TypeOf(err))).Msg("Source failed, returning no deals")
		return
	}
	log.WithError(err).Warn().Msg("Source failed, returning no deals")
}

// Message is the payload published for a fresh scrape
type Message struct {
	Source    string             `json:"source"`
	ScrapedAt time.Time          `json:"scraped_at"`
	Deals     []crawler.DealItem `json:"deals"`
}

func (a *Aggregator) publish(id string, deals []crawler.DealItem) {
	if a.publisher == nil {
		return
	}
	payload, err := json.Marshal(Message{Source: id, ScrapedAt: time.Now().UTC(), Deals: deals})
	if err != nil {
		logger.ForPublisher().Error().Err(err).Str("source", id).Msg("Failed to encode deals")
		return
	}

	a.publishing.Add(1)
	go func() {
		defer a.publishing.Done()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := a.publisher.Publish(ctx, id, payload); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("source", id).Msg("Publish failed")
			return
		}
		if err := a.publisher.TrimStreams(ctx); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Stream trimming failed")
		}
	}()
}
