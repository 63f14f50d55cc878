package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents network/transport errors and non-success statuses
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeParsing represents HTML or embedded JSON parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting by the remote site
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a scraper-specific error
type ScrapeError struct {
	Type       ErrorType
	URL        string
	StatusCode int
	Message    string
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("[%s] %s: %s (status %d)", e.Type, e.URL, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.URL, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.URL, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsFetch reports whether the error is a fetch (network/status) failure.
// Fetch failures abort pagination but are recorded in-band during hydration.
func (e *ScrapeError) IsFetch() bool {
	return e.Type == ErrorTypeFetch || e.Type == ErrorTypeRateLimit
}

// New creates a new ScrapeError
func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new fetch error carrying the URL and transport cause
func NewFetch(url, message string, err error) *ScrapeError {
	return New(ErrorTypeFetch, url, message, err)
}

// NewFetchStatus creates a fetch error for a non-success HTTP status
func NewFetchStatus(url string, status int) *ScrapeError {
	e := New(ErrorTypeFetch, url, "unexpected status code", nil)
	e.StatusCode = status
	return e
}

// NewParsing creates a new parsing error
func NewParsing(url, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, url, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(url string, retryAfter string) *ScrapeError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	e := New(ErrorTypeRateLimit, url, message, nil)
	e.StatusCode = 429
	return e
}

// NewCache creates a new cache error
func NewCache(message string, err error) *ScrapeError {
	return New(ErrorTypeCache, "", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
