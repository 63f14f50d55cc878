package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"leboncoin/adcrawler/config"
	"leboncoin/adcrawler/helpers"
	"leboncoin/adcrawler/internal/output"
	"leboncoin/adcrawler/internal/scraper"
	"leboncoin/adcrawler/logger"
	"leboncoin/adcrawler/services/cache"
	"leboncoin/adcrawler/services/publisher"
	"leboncoin/adcrawler/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("search_url", cfg.SearchURL).
		Dur("crawl_delay", cfg.CrawlDelay).
		Int("max_pages", cfg.MaxPages).
		Msg("Starting crawl")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling; the crawl and hydration loops stop between
	// iterations and the partial result set is still exported
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Initialize services
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	fetcher := helpers.NewFetcher(cfg.FetchTimeout).
		WithBlockCache(cacheService, "fetch_rate_limited", cfg.FetchBlockDuration)

	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		defer redisPublisher.Close()
		pub = redisPublisher

		log.Info().
			Str("redis_addr", cfg.RedisAddr).
			Str("stream", cfg.RedisStream).
			Msg("Publishing hydrated listings to Redis")
	}

	// Crawl the paginated search results
	crawler := scraper.NewCrawler(fetcher.Fetch, cfg.BaseURL, scraper.CrawlerOptions{
		MaxPages:       cfg.MaxPages,
		MaxAds:         cfg.MaxAds,
		Delay:          cfg.CrawlDelay,
		StalePageLimit: cfg.StalePageLimit,
	})

	listings, err := crawler.Crawl(ctx, cfg.SearchURL)
	if err != nil {
		log.Error().Err(err).Int("listings", len(listings)).Msg("Crawl aborted")
	}
	log.Info().Int("count", len(listings)).Msg("Collected listings")

	// Apply the model filter before hydration
	if cfg.ModelFilter != "" {
		listings = scraper.NewModelFilter(cfg.ModelFilter).Apply(listings)
		log.Info().Int("count", len(listings)).Msg("Listings after model filter")
	}

	// Hydrate each listing from its detail page
	if cfg.Hydrate && len(listings) > 0 {
		hydrator := scraper.NewHydrator(fetcher.Fetch)
		w := worker.NewWorker(hydrator, pub, cfg.CrawlDelay, cfg.HydrationWorkers)
		listings = w.HydrateAll(ctx, listings)
	}

	// Export results
	if err := output.SaveCSV(listings, cfg.CSVPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.CSVPath).Msg("Failed to write CSV")
	}
	log.Info().Str("path", cfg.CSVPath).Msg("Wrote CSV export")

	if cfg.JSONPath != "" {
		if err := output.SaveJSON(listings, cfg.JSONPath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.JSONPath).Msg("Failed to write JSON")
		}
		log.Info().Str("path", cfg.JSONPath).Msg("Wrote JSON export")
	}
}
