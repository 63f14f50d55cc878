package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"leboncoin/adcrawler/internal/scraper"
	"leboncoin/adcrawler/logger"
	"leboncoin/adcrawler/services/publisher"
)

// minDelay is the floor on the inter-request delay during hydration
const minDelay = 200 * time.Millisecond

// Worker runs the hydration pass over a crawled result set. Listings are
// hydrated with bounded concurrency behind a shared token-bucket limiter,
// so the caller-supplied delay keeps acting as a rate limit even when
// several fetches are in flight. Output order matches input order, and a
// failure on one listing never affects the others.
type Worker struct {
	hydrator *scraper.Hydrator
	pub      publisher.Publisher
	limiter  *rate.Limiter
	workers  int
	log      *logger.Logger
}

// NewWorker creates a hydration worker
func NewWorker(hydrator *scraper.Hydrator, pub publisher.Publisher, delay time.Duration, workers int) *Worker {
	if delay < minDelay {
		delay = minDelay
	}
	if workers <= 0 {
		workers = 1
	}
	return &Worker{
		hydrator: hydrator,
		pub:      pub,
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
		workers:  workers,
		log:      logger.ForWorker(),
	}
}

// HydrateAll hydrates every listing in place and returns the same slice.
// Cancellation stops dispatching new items; listings already hydrated
// keep their data.
func (w *Worker) HydrateAll(ctx context.Context, listings []*scraper.Listing) []*scraper.Listing {
	var wg sync.WaitGroup
	sem := make(chan struct{}, w.workers)

	total := len(listings)
	for i, l := range listings {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, l *scraper.Listing) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := w.limiter.Wait(ctx); err != nil {
				return
			}

			w.hydrator.Hydrate(ctx, l)
			w.log.Info().
				Int("item", i+1).
				Int("total", total).
				Str("url", l.URL).
				Msg("Hydrated listing")

			w.publish(l)
		}(i, l)
	}

	wg.Wait()

	if w.pub != nil {
		if err := w.pub.TrimStreams(); err != nil {
			w.log.Error().Err(err).Msg("Failed to trim streams")
		}
	}

	return listings
}

// publish sends one hydrated listing to the publisher, when configured
func (w *Worker) publish(l *scraper.Listing) {
	if w.pub == nil {
		return
	}

	data, err := json.Marshal(l)
	if err != nil {
		w.log.Error().Err(err).Str("url", l.URL).Msg("Failed to marshal listing")
		return
	}

	if err := w.pub.Publish("listing", data); err != nil {
		w.log.Error().Err(err).Str("url", l.URL).Msg("Failed to publish listing")
	}
}
