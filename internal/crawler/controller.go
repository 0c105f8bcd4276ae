package crawler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alvmarrod/graph-weaver/internal/fetch"
)

// Verdict is the controller's decision for one response
type Verdict int

const (
	// VerdictAccept hands the response to extraction
	VerdictAccept Verdict = iota
	// VerdictThrottled means the server answered 429; the URL stays unresolved
	VerdictThrottled
	// VerdictTransient means a timeout or connection failure; the URL stays unresolved
	VerdictTransient
	// VerdictDrop is a permanent per-URL failure
	VerdictDrop
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictThrottled:
		return "throttled"
	case VerdictTransient:
		return "transient"
	default:
		return "drop"
	}
}

// Controller adapts fetch concurrency to throttling and transport failures.
// Once locked it never scales up again.
type Controller struct {
	concurrency int
	ceiling     int
	step        int
	locked      bool
	cooldown    time.Duration
	sleep       func(ctx context.Context, d time.Duration)
}

// NewController creates a controller starting at initial, never exceeding ceiling
func NewController(initial, ceiling, step int, cooldown time.Duration) *Controller {
	if ceiling < 1 {
		ceiling = 1
	}
	if initial > ceiling {
		initial = ceiling
	}
	return &Controller{
		concurrency: initial,
		ceiling:     ceiling,
		step:        step,
		cooldown:    cooldown,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Observe classifies a response and applies its effect on concurrency.
// A 429 costs a cool-down pause and halves concurrency on the spot.
func (c *Controller) Observe(ctx context.Context, resp *fetch.Response) Verdict {
	if c.concurrency > c.ceiling {
		c.concurrency = c.ceiling
	}

	switch {
	case resp.Throttled():
		logrus.Warnf("Throttled by %s, cooling down %v", resp.URL, c.cooldown)
		c.sleep(ctx, c.cooldown)
		c.halve()
		return VerdictThrottled
	case resp.OK():
		return VerdictAccept
	case resp.Transient():
		return VerdictTransient
	default:
		return VerdictDrop
	}
}

// Backoff halves concurrency after transport failures and locks scaling
func (c *Controller) Backoff() {
	c.halve()
}

func (c *Controller) halve() {
	c.concurrency /= 2
	c.locked = true
	logrus.WithFields(logrus.Fields{
		"concurrency": c.concurrency,
	}).Warn("Backing off")
}

// EndRound probes for more throughput unless scaling is locked
func (c *Controller) EndRound() {
	if c.locked {
		return
	}
	c.concurrency += c.step
	if c.concurrency > c.ceiling {
		c.concurrency = c.ceiling
	}
}

// Exhausted reports whether backoff has driven concurrency to zero
func (c *Controller) Exhausted() bool {
	return c.concurrency <= 0
}

// Concurrency returns the current worker pool size
func (c *Controller) Concurrency() int {
	return c.concurrency
}

// Locked reports whether scale-up is suppressed for the rest of the crawl
func (c *Controller) Locked() bool {
	return c.locked
}
