// Package pipeline drives a source fetcher page by page with retry,
// rate-limit cooldown and jittered pacing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"go-jobscout-crawler/internal/source"
)

// maxConsecutiveFailures is the abort threshold: this many pages failing in
// a row (each after its full retry budget) ends the source.
const maxConsecutiveFailures = 3

// BackoffPolicy is the injectable pacing/retry policy. Tests supply zero
// delays and a fixed Rand to make runs deterministic.
type BackoffPolicy struct {
	// BaseDelay is applied before every dispatch; it grows with the retry
	// attempt and carries random jitter on top.
	BaseDelay time.Duration
	// MaxDelay caps a single pre-dispatch delay, jitter included.
	MaxDelay time.Duration
	// MaxRetries is the attempt budget per page (first try included).
	MaxRetries int
	// CooldownMin/Max bound the randomized sleep after a rate-limit signal.
	CooldownMin time.Duration
	CooldownMax time.Duration

	// Rand defaults to the global source when nil.
	Rand *rand.Rand
	// Sleep defaults to a context-aware time.Sleep when nil.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p BackoffPolicy) intn(n int64) int64 {
	if n <= 0 {
		return 0
	}
	if p.Rand != nil {
		return p.Rand.Int63n(n)
	}
	return rand.Int63n(n)
}

// dispatchDelay returns the jittered pre-request delay for the given
// zero-based attempt number.
func (p BackoffPolicy) dispatchDelay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay * time.Duration(attempt+1)
	d += time.Duration(p.intn(int64(d)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// cooldown returns a randomized rate-limit sleep in [CooldownMin, CooldownMax).
func (p BackoffPolicy) cooldown() time.Duration {
	if p.CooldownMax <= p.CooldownMin {
		return p.CooldownMin
	}
	return p.CooldownMin + time.Duration(p.intn(int64(p.CooldownMax-p.CooldownMin)))
}

func (p BackoffPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stats summarizes one source crawl for the run log.
type Stats struct {
	TotalFound     int
	PagesFetched   int
	FailedRequests int
	FailedPages    int
	Aborted        bool
}

// Controller holds no state across Crawl invocations.
type Controller struct {
	policy BackoffPolicy
	log    *zap.SugaredLogger
}

func NewController(policy BackoffPolicy, log *zap.SugaredLogger) *Controller {
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 3
	}
	return &Controller{policy: policy, log: log}
}

// Crawl pages through the fetcher until the source is exhausted, maxPages is
// reached, or three consecutive pages fail. Records collected before an
// abort are returned, not discarded. Cancellation is checked between pages
// only; an in-flight request finishes.
func (c *Controller) Crawl(ctx context.Context, f source.Fetcher, maxPages int) ([]source.RawRecord, Stats, error) {
	var (
		records []source.RawRecord
		stats   Stats
		fails   int
	)

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return records, stats, err
		}

		res, err := c.fetchWithRetry(ctx, f, page, &stats)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return records, stats, err
			}
			stats.FailedPages++
			fails++
			c.log.Warnw("page failed", "source", f.Name(), "label", f.Label(), "page", page, "error", err)
			if fails >= maxConsecutiveFailures {
				stats.Aborted = true
				c.log.Errorw("aborting source after consecutive failures",
					"source", f.Name(), "label", f.Label(), "failures", fails)
				break
			}
			continue
		}
		fails = 0
		stats.PagesFetched++
		stats.TotalFound += len(res.Raw)
		records = append(records, res.Raw...)

		c.log.Infow("page fetched", "source", f.Name(), "label", f.Label(),
			"page", page, "items", len(res.Raw), "total_reported", res.TotalCount)

		if !hasMore(res, page, maxPages, f.PageSize()) {
			break
		}
	}

	return records, stats, nil
}

// fetchWithRetry runs one page through the attempt budget. Rate-limit
// responses cool down and retry without consuming an attempt.
func (c *Controller) fetchWithRetry(ctx context.Context, f source.Fetcher, page int, stats *Stats) (*source.PageResult, error) {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxRetries; {
		if err := c.policy.sleep(ctx, c.policy.dispatchDelay(attempt)); err != nil {
			return nil, err
		}

		res, err := f.FetchPage(ctx, page)
		if err == nil {
			return res, nil
		}
		stats.FailedRequests++

		if errors.Is(err, source.ErrRateLimited) {
			cd := c.policy.cooldown()
			c.log.Warnw("rate limited, cooling down", "source", f.Name(), "page", page, "cooldown", cd)
			if err := c.policy.sleep(ctx, cd); err != nil {
				return nil, err
			}
			continue
		}

		lastErr = err
		attempt++
		c.log.Warnw("request failed", "source", f.Name(), "page", page,
			"attempt", attempt, "budget", c.policy.MaxRetries, "error", err)
	}
	return nil, fmt.Errorf("retry budget exhausted: %w", lastErr)
}

// hasMore decides whether another page should be requested. A positive
// reported total count is authoritative; otherwise a short or empty page
// ends the loop. Sources without a fixed page size (scroll cursors) report
// PageSize 0 and run until an empty batch.
func hasMore(res *source.PageResult, page, maxPages, pageSize int) bool {
	if res.TotalCount > 0 && pageSize > 0 {
		lastPage := (res.TotalCount + pageSize - 1) / pageSize
		return page < lastPage && page < maxPages
	}
	if len(res.Raw) == 0 {
		return false
	}
	return (pageSize <= 0 || len(res.Raw) == pageSize) && page < maxPages
}
