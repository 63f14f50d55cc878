package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	apperr "leboncoin/adcrawler/pkg/errors"
	"leboncoin/adcrawler/services/cache"
)

// HTTP header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.google.fr/",
	}
)

// Fetcher performs HTTP GET requests with browser-like headers and
// converts response bodies to UTF-8. When a cache service and block key
// are configured, a 429 from the site sets a block entry so further
// requests are refused until it expires.
type Fetcher struct {
	client    *http.Client
	cacheSvc  cache.CacheService
	blockKey  string
	blockTime time.Duration
}

// NewFetcher creates a fetcher with the given per-request timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// WithBlockCache configures rate-limit blocking backed by a cache service
func (f *Fetcher) WithBlockCache(cacheSvc cache.CacheService, key string, blockTime time.Duration) *Fetcher {
	f.cacheSvc = cacheSvc
	f.blockKey = key
	f.blockTime = blockTime
	return f
}

// Fetch sends an HTTP GET request with browser-like headers, converts the
// response body to UTF-8 (if needed), and returns it as an io.Reader.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	if f.cacheSvc != nil && f.blockKey != "" {
		if _, err := f.cacheSvc.Get(f.blockKey); err == nil {
			return nil, apperr.NewRateLimit(url, fmt.Sprintf("%d", int(f.blockTime.Seconds())))
		}
	}

	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.NewFetch(url, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperr.NewFetch(url, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if f.cacheSvc != nil && f.blockKey != "" {
			if setErr := f.cacheSvc.Set(f.blockKey, []byte(fmt.Sprintf("%d", int(f.blockTime.Seconds()))), f.blockTime); setErr != nil {
				return nil, apperr.NewCache("failed to set rate limit block", setErr)
			}
		}
		return nil, apperr.NewRateLimit(url, resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.NewFetchStatus(url, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewFetch(url, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperr.NewFetch(url, "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}
