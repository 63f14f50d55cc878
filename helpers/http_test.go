package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "leboncoin/adcrawler/pkg/errors"
)

// mapCache is an in-memory cache service for testing
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Get(key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, io.EOF
}

func (m *mapCache) Set(key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept-Language"), "fr-FR")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(data))
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), server.URL)

	require.Error(t, err)
	var scrapeErr *apperr.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, 404, scrapeErr.StatusCode)
	assert.Equal(t, server.URL, scrapeErr.URL)
}

func TestFetchRateLimitSetsBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cacheSvc := newMapCache()
	f := NewFetcher(5 * time.Second).WithBlockCache(cacheSvc, "test_block", time.Minute)

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var scrapeErr *apperr.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, apperr.ErrorTypeRateLimit, scrapeErr.Type)

	// the block is now in place: the next fetch is refused locally
	_, err = f.Fetch(context.Background(), server.URL)
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, apperr.ErrorTypeRateLimit, scrapeErr.Type)
}

func TestFetchCharsetConversion(t *testing.T) {
	// ISO-8859-1 body with an accented character
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte{'a', 0xe9, 'z'}) // "aéz" in latin-1
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "aéz", string(data))
}
