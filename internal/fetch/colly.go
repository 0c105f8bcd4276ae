package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options configures a CollyFetcher
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	Headers           map[string]string
	MaxBodyBytes      int
	RequestsPerSecond float64 // 0 disables the politeness limiter
}

// CollyFetcher fetches pages through a colly collector.
// Each fetch runs on a clone of the base collector so callbacks never mix
// between concurrent requests, while the HTTP backend is shared.
type CollyFetcher struct {
	base    *colly.Collector
	headers map[string]string
	limiter *rate.Limiter
	mu      sync.Mutex // guards base.Clone
}

// NewCollyFetcher creates a fetcher with the given options
func NewCollyFetcher(opts Options) *CollyFetcher {
	collectorOpts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
		colly.MaxDepth(0), // depth is managed by the frontier
	}
	if opts.UserAgent != "" {
		collectorOpts = append(collectorOpts, colly.UserAgent(opts.UserAgent))
	}
	if opts.MaxBodyBytes > 0 {
		collectorOpts = append(collectorOpts, colly.MaxBodySize(opts.MaxBodyBytes))
	}

	base := colly.NewCollector(collectorOpts...)
	if opts.Timeout > 0 {
		base.SetRequestTimeout(opts.Timeout)
	}

	f := &CollyFetcher{
		base:    base,
		headers: opts.Headers,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return f
}

// Fetch retrieves url. It never returns nil and never returns an error:
// transport failures come back as a synthetic 500 response.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Fetch of %s panicked: %v", url, r)
			resp = Failure(url, errors.New("fetch panicked"))
		}
	}()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Failure(url, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return Failure(url, err)
	}

	f.mu.Lock()
	c := f.base.Clone()
	f.mu.Unlock()
	c.Context = ctx

	var (
		result   *Response
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range f.headers {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		result = &Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
		if r.Headers != nil {
			result.Header = r.Headers.Clone()
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil && r.StatusCode != 0 {
			// A real HTTP status that colly still routed here
			result = &Response{URL: url, StatusCode: r.StatusCode, Body: r.Body}
			if r.Request != nil && r.Request.URL != nil {
				result.URL = r.Request.URL.String()
			}
		}
	})

	start := time.Now()
	err := c.Visit(url)
	logrus.Debugf("Fetched %s in %v", url, time.Since(start))

	if result != nil {
		return result
	}
	if fetchErr == nil {
		fetchErr = err
	}
	if fetchErr == nil {
		fetchErr = errors.New("no response received")
	}
	return Failure(url, fetchErr)
}
