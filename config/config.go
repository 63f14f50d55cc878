package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	apperr "leboncoin/adcrawler/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Site configuration
	BaseURL   string
	SearchURL string

	// Crawl configuration
	CrawlDelay     time.Duration
	MaxPages       int
	MaxAds         int
	StalePageLimit int

	// Hydration configuration
	Hydrate            bool
	HydrationWorkers   int
	ModelFilter        string
	FetchTimeout       time.Duration
	FetchBlockDuration time.Duration

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration (publishing is disabled when RedisAddr is empty)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Output configuration
	CSVPath  string
	JSONPath string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	delayMillis, _ := strconv.Atoi(getEnv("CRAWL_DELAY_MILLIS", "1000"))
	maxPages, _ := strconv.Atoi(getEnv("MAX_PAGES", "20"))
	maxAds, _ := strconv.Atoi(getEnv("MAX_ADS", "0"))
	staleLimit, _ := strconv.Atoi(getEnv("STALE_PAGE_LIMIT", "2"))
	workers, _ := strconv.Atoi(getEnv("HYDRATION_WORKERS", "1"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "25"))
	blockSeconds, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "300"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))

	return Config{
		BaseURL:              getEnv("LBC_BASE_URL", "https://www.leboncoin.fr"),
		SearchURL:            getEnv("LBC_SEARCH_URL", ""),
		CrawlDelay:           time.Duration(delayMillis) * time.Millisecond,
		MaxPages:             maxPages,
		MaxAds:               maxAds,
		StalePageLimit:       staleLimit,
		Hydrate:              getEnv("HYDRATE", "true") != "false",
		HydrationWorkers:     workers,
		ModelFilter:          getEnv("MODEL_FILTER", ""),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		FetchBlockDuration:   time.Duration(blockSeconds) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		CSVPath:              getEnv("OUTPUT_CSV", "leboncoin.csv"),
		JSONPath:             getEnv("OUTPUT_JSON", ""),
		Environment:          getEnv("LBC_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the crawler cannot run with
func (c *Config) Validate() error {
	if c.SearchURL == "" {
		return apperr.NewConfiguration("LBC_SEARCH_URL is required", nil)
	}
	u, err := url.Parse(c.SearchURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.NewConfiguration("LBC_SEARCH_URL must be an absolute http(s) URL", err)
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return apperr.NewConfiguration("LBC_BASE_URL is not a valid URL", err)
	}
	if c.MaxPages <= 0 {
		return apperr.NewConfiguration("MAX_PAGES must be positive", nil)
	}
	if c.StalePageLimit <= 0 {
		return apperr.NewConfiguration("STALE_PAGE_LIMIT must be positive", nil)
	}
	if c.CrawlDelay < 0 {
		return apperr.NewConfiguration("CRAWL_DELAY_MILLIS must not be negative", nil)
	}
	if c.HydrationWorkers <= 0 {
		c.HydrationWorkers = 1
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
