package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alvmarrod/graph-weaver/internal/config"
	"github.com/alvmarrod/graph-weaver/internal/extract"
	"github.com/alvmarrod/graph-weaver/internal/fetch"
	"github.com/alvmarrod/graph-weaver/internal/graph"
	"github.com/alvmarrod/graph-weaver/internal/metrics"
	"github.com/alvmarrod/graph-weaver/internal/weburl"
)

// ErrConcurrencyExhausted is returned with the partial graph when backoff drove concurrency to zero
var ErrConcurrencyExhausted = errors.New("concurrency exhausted")

// Termination reasons
const (
	ReasonFrontierEmpty        = "frontier_empty"
	ReasonMaxDepth             = "max_depth"
	ReasonConcurrencyExhausted = "concurrency_exhausted"
	ReasonCancelled            = "cancelled"
	ReasonError                = "error"
)

// Crawler runs one bounded crawl, round by round, into its own graph store
type Crawler struct {
	cfg        *config.Config
	fetcher    fetch.Fetcher
	extractors []extract.Extractor
	filter     *Filter
	frontier   *Frontier
	limiter    *SubdomainLimiter
	controller *Controller
	store      *graph.Store
	tracker    *metrics.Tracker
}

// NewCrawler creates a crawler instance. A nil tracker gets a private one.
func NewCrawler(cfg *config.Config, fetcher fetch.Fetcher, extractors []extract.Extractor, tracker *metrics.Tracker) (*Crawler, error) {
	filter, err := NewFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = metrics.NewTracker()
	}

	return &Crawler{
		cfg:        cfg,
		fetcher:    fetcher,
		extractors: extractors,
		filter:     filter,
		frontier:   NewFrontier(),
		limiter:    NewSubdomainLimiter(cfg.MaxSubdomainsPerRoot),
		controller: NewController(cfg.InitialConcurrency, cfg.MaxConcurrency, cfg.ConcurrencyStep, cfg.Cooldown()),
		store:      graph.NewStore(),
		tracker:    tracker,
	}, nil
}

// Controller exposes the concurrency controller state
func (c *Crawler) Controller() *Controller {
	return c.controller
}

// Crawl walks from the seeds until the frontier is empty, the next entry is deeper than
// max depth, or concurrency collapses. The graph built so far is always returned,
// together with the termination reason.
func (c *Crawler) Crawl(ctx context.Context, seeds ...string) (*graph.Store, string, error) {
	for _, seed := range seeds {
		url := weburl.Absolute(seed)
		c.filter.MarkSeen(url)
		c.limiter.Allow(url)
		c.frontier.Push(url, 0)
	}

	round := 0
	for {
		if err := ctx.Err(); err != nil {
			return c.store, ReasonCancelled, err
		}
		if c.controller.Exhausted() {
			return c.store, ReasonConcurrencyExhausted, ErrConcurrencyExhausted
		}

		depth, ok := c.frontier.Peek()
		if !ok {
			logrus.Infof("Frontier empty after %d rounds, %d pages visited", round, c.frontier.VisitedCount())
			return c.store, ReasonFrontierEmpty, nil
		}
		if depth > c.cfg.MaxDepth {
			logrus.Infof("Next depth %d exceeds max depth %d, stopping", depth, c.cfg.MaxDepth)
			return c.store, ReasonMaxDepth, nil
		}

		batch := c.frontier.PopBatch(c.controller.Concurrency(), c.cfg.MaxDepth)
		round++
		c.tracker.IncrementRounds()

		logrus.WithFields(logrus.Fields{
			"round":       round,
			"depth":       depth,
			"batch":       len(batch),
			"concurrency": c.controller.Concurrency(),
		}).Info("Dispatching round")

		if err := c.runRound(ctx, batch); err != nil {
			switch {
			case errors.Is(err, ErrConcurrencyExhausted):
				logrus.Warn("Concurrency reached zero, returning partial graph")
				return c.store, ReasonConcurrencyExhausted, err
			case ctx.Err() != nil:
				return c.store, ReasonCancelled, err
			default:
				return c.store, ReasonError, err
			}
		}

		c.controller.EndRound()
		c.tracker.SetConcurrency(c.controller.Concurrency())
		logrus.Info(c.tracker.LogProgress())
	}
}

// runRound dispatches a batch and retries its unresolved part until it is empty,
// the retry budget is spent, or concurrency hits zero
func (c *Crawler) runRound(ctx context.Context, batch []Entry) error {
	pending := batch

	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt > c.cfg.Retries {
			logrus.Warnf("Giving up on %d unresolved URLs after %d retries", len(pending), c.cfg.Retries)
			for range pending {
				c.tracker.IncrementPagesFailed()
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.controller.Exhausted() {
			return ErrConcurrencyExhausted
		}
		if attempt > 0 {
			logrus.Infof("Retrying %d unresolved URLs (attempt %d, concurrency %d)", len(pending), attempt, c.controller.Concurrency())
		}

		var unresolved []Entry
		transient := false

		for _, a := range c.dispatch(ctx, pending) {
			switch c.controller.Observe(ctx, a.resp) {
			case VerdictAccept:
				c.tracker.IncrementPagesFetched()
				if err := c.ingest(a.entry, a.resp); err != nil {
					return err
				}
			case VerdictThrottled:
				c.tracker.IncrementPagesThrottled()
				unresolved = append(unresolved, a.entry)
			case VerdictTransient:
				logrus.Warnf("Transient failure on %s: %v", a.entry.URL, a.resp.Err)
				transient = true
				unresolved = append(unresolved, a.entry)
			default:
				c.tracker.IncrementPagesFailed()
				if a.resp.Err != nil {
					logrus.Warnf("Dropping %s: %v", a.entry.URL, a.resp.Err)
				} else {
					logrus.Warnf("Dropping %s: status %d", a.entry.URL, a.resp.StatusCode)
				}
			}
		}

		if transient {
			c.controller.Backoff()
			c.tracker.IncrementBackoffs()
		}
		c.tracker.SetConcurrency(c.controller.Concurrency())
		pending = unresolved
	}

	return nil
}

type arrival struct {
	entry Entry
	resp  *fetch.Response
}

// dispatch fetches entries on a worker pool sized to the current concurrency and
// returns the responses in arrival order
func (c *Crawler) dispatch(ctx context.Context, entries []Entry) []arrival {
	slots := make([]*fetch.Response, len(entries))
	order := make(chan int, len(entries))

	var g errgroup.Group
	g.SetLimit(c.controller.Concurrency())

	for i, e := range entries {
		g.Go(func() error {
			start := time.Now()
			resp := c.fetcher.Fetch(ctx, e.URL)
			if resp == nil {
				resp = fetch.Failure(e.URL, errors.New("fetcher returned no response"))
			}
			c.tracker.RecordFetchTime(time.Since(start))

			slots[i] = resp
			order <- i
			return nil
		})
	}
	_ = g.Wait()
	close(order)

	arrivals := make([]arrival, 0, len(entries))
	for i := range order {
		arrivals = append(arrivals, arrival{entry: entries[i], resp: slots[i]})
	}
	return arrivals
}

// ingest runs every extractor over a page. URL results pass the admission filter
// before reaching the graph and the frontier; other results go straight to the graph.
func (c *Crawler) ingest(entry Entry, resp *fetch.Response) error {
	nodesBefore, edgesBefore := c.store.GetStats()

	for _, ex := range c.extractors {
		results, err := ex.Extract(resp)
		if err != nil {
			return fmt.Errorf("extractor %s failed on %s: %w", ex.ID(), resp.URL, err)
		}

		var links []graph.Result
		for _, r := range results {
			if r.Type == graph.TypeURL {
				links = append(links, r)
				continue
			}
			if err := c.store.Add(r); err != nil {
				return err
			}
		}

		if err := c.addLinks(entry, links); err != nil {
			return err
		}
	}

	nodesAfter, edgesAfter := c.store.GetStats()
	c.tracker.AddGraphGrowth(nodesAfter-nodesBefore, edgesAfter-edgesBefore)
	return nil
}

func (c *Crawler) addLinks(entry Entry, links []graph.Result) error {
	if len(links) == 0 {
		return nil
	}

	payloads := make([]string, len(links))
	for i, r := range links {
		payloads[i] = r.Payload
	}
	admitted := make(map[string]bool)
	for _, url := range c.filter.Filter(payloads) {
		admitted[url] = true
	}

	for _, r := range links {
		if !admitted[r.Payload] {
			continue
		}
		// a page can list the same link twice; only the first one is admitted
		delete(admitted, r.Payload)

		if err := c.store.Add(r); err != nil {
			return err
		}
		if !c.limiter.Allow(r.Payload) {
			logrus.Debugf("Subdomain cap reached, not queueing %s", r.Payload)
			continue
		}
		c.frontier.Push(r.Payload, entry.Depth+1)
	}

	return nil
}
