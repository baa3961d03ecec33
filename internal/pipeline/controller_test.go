package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-jobscout-crawler/internal/source"
)

// fakeFetcher scripts FetchPage responses per page number.
type fakeFetcher struct {
	pageSize int
	calls    []int
	fetch    func(page int, call int) (*source.PageResult, error)
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page int) (*source.PageResult, error) {
	f.calls = append(f.calls, page)
	return f.fetch(page, len(f.calls))
}

func (f *fakeFetcher) PageSize() int { return f.pageSize }
func (f *fakeFetcher) Name() string  { return "fake" }
func (f *fakeFetcher) Label() string { return "test" }

func instantPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxRetries: 3,
		Sleep:      func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	}
}

func rawPage(n int) []source.RawRecord {
	out := make([]source.RawRecord, n)
	for i := range out {
		out[i] = source.RawRecord{"id": i}
	}
	return out
}

func TestCrawl_TotalCountIsAuthoritative(t *testing.T) {
	// 45 results at 20 per page: exactly 3 requests, no 4th.
	f := &fakeFetcher{
		pageSize: 20,
		fetch: func(page, _ int) (*source.PageResult, error) {
			n := 20
			if page == 3 {
				n = 5
			}
			return &source.PageResult{Raw: rawPage(n), TotalCount: 45}, nil
		},
	}

	c := NewController(instantPolicy(), zap.NewNop().Sugar())
	records, stats, err := c.Crawl(context.Background(), f, 10)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, f.calls)
	assert.Len(t, records, 45)
	assert.Equal(t, 3, stats.PagesFetched)
	assert.False(t, stats.Aborted)
}

func TestCrawl_ShortPageEndsLoopWithoutTotal(t *testing.T) {
	f := &fakeFetcher{
		pageSize: 20,
		fetch: func(page, _ int) (*source.PageResult, error) {
			if page == 1 {
				return &source.PageResult{Raw: rawPage(20)}, nil
			}
			return &source.PageResult{Raw: rawPage(7)}, nil
		},
	}

	c := NewController(instantPolicy(), zap.NewNop().Sugar())
	records, _, err := c.Crawl(context.Background(), f, 10)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, f.calls)
	assert.Len(t, records, 27)
}

func TestCrawl_AbortsAfterThreeConsecutivePageFailures(t *testing.T) {
	// Pages 1-2 succeed, everything after fails every attempt. The run must
	// halt after the third failed page and keep the earlier records.
	policy := instantPolicy()
	policy.MaxRetries = 1

	f := &fakeFetcher{
		pageSize: 5,
		fetch: func(page, _ int) (*source.PageResult, error) {
			if page <= 2 {
				return &source.PageResult{Raw: rawPage(5)}, nil
			}
			return nil, errors.New("connection reset")
		},
	}

	c := NewController(policy, zap.NewNop().Sugar())
	records, stats, err := c.Crawl(context.Background(), f, 50)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, f.calls, "no request beyond the third failed page")
	assert.Len(t, records, 10, "records from successful pages survive the abort")
	assert.True(t, stats.Aborted)
	assert.Equal(t, 3, stats.FailedPages)
	assert.Equal(t, 3, stats.FailedRequests)
}

func TestCrawl_RetryBudgetPerPage(t *testing.T) {
	// One page failing twice then succeeding consumes retries but no
	// consecutive-failure count.
	f := &fakeFetcher{
		pageSize: 20,
		fetch: func(page, call int) (*source.PageResult, error) {
			if call <= 2 {
				return nil, errors.New("timeout")
			}
			return &source.PageResult{Raw: rawPage(3)}, nil
		},
	}

	c := NewController(instantPolicy(), zap.NewNop().Sugar())
	records, stats, err := c.Crawl(context.Background(), f, 10)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, f.calls)
	assert.Len(t, records, 3)
	assert.Equal(t, 0, stats.FailedPages)
	assert.Equal(t, 2, stats.FailedRequests)
}

func TestCrawl_RateLimitDoesNotConsumeRetries(t *testing.T) {
	policy := instantPolicy()
	policy.MaxRetries = 1

	f := &fakeFetcher{
		pageSize: 20,
		fetch: func(page, call int) (*source.PageResult, error) {
			if call <= 2 {
				return nil, source.ErrRateLimited
			}
			return &source.PageResult{Raw: rawPage(2)}, nil
		},
	}

	c := NewController(policy, zap.NewNop().Sugar())
	records, stats, err := c.Crawl(context.Background(), f, 10)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, stats.FailedPages, "rate-limit attempts never count toward the abort threshold")
	assert.Equal(t, 2, stats.FailedRequests)
	assert.False(t, stats.Aborted)
}

func TestCrawl_CancelledBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	f := &fakeFetcher{
		pageSize: 2,
		fetch: func(page, _ int) (*source.PageResult, error) {
			cancel() // takes effect at the next loop check, not mid-page
			return &source.PageResult{Raw: rawPage(2)}, nil
		},
	}

	c := NewController(instantPolicy(), zap.NewNop().Sugar())
	records, _, err := c.Crawl(ctx, f, 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, records, 2)
	assert.Equal(t, []int{1}, f.calls)
}
