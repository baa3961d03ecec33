package remember

import (
	"context"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-jobscout-crawler/internal/filter"
	"go-jobscout-crawler/internal/source"
)

func setupPlaywright(t *testing.T) (*playwright.Playwright, playwright.Browser, playwright.Page) {
	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("could not launch playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("could not launch browser: %v", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return pw, browser, page
}

func newTestAdapter(page playwright.Page) *Adapter {
	a := New(page, "개발자", siteBase+"/job/categories/1", filter.New(), zap.NewNop().Sugar())
	a.pause = func(minMs, maxMs int) {}
	return a
}

const listingHTML = `<html><head><title>개발자 채용</title></head><body><ul>
<li><h3>백엔드 엔지니어</h3><span class="company">한빛소프트</span>
<div>D-13﹒서울 영등포구﹒7년 이상</div><a href="/job/postings/101">보기</a></li>
<li><h3>헤드헌터 채용 대행</h3><span class="company">서치펌코리아</span>
<div>D-5﹒서울 강남구﹒경력 3년</div><a href="/job/postings/102">보기</a></li>
</ul></body></html>`

func TestAdapter_FetchPage_ExtractsAndFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pw, browser, page := setupPlaywright(t)
	defer pw.Stop()
	defer browser.Close()

	page.Route("**/*", func(route playwright.Route) {
		route.Fulfill(playwright.RouteFulfillOptions{
			Status: playwright.Int(200),
			Body:   listingHTML,
		})
	})

	a := newTestAdapter(page)

	res, err := a.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, res.Raw, 1, "headhunter card should be filtered out")
	assert.Equal(t, 1, a.Excluded())

	raw := res.Raw[0]
	assert.Equal(t, "101", raw["id"])
	assert.Equal(t, "백엔드 엔지니어", raw["title"])
	assert.Equal(t, "한빛소프트", raw["company"])
	assert.Equal(t, "D-13", raw["deadline"])
	assert.Equal(t, "서울 영등포구", raw["location"])
	assert.Equal(t, "7년 이상", raw["career"])
	assert.Equal(t, siteBase+"/job/postings/101", raw["link"])
	assert.Equal(t, "개발자", raw["category"])

	// nothing new appears on scroll, so the next batch is empty
	res, err = a.FetchPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, res.Raw)
}

func TestAdapter_FetchPage_ChallengeIsRateLimited(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pw, browser, page := setupPlaywright(t)
	defer pw.Stop()
	defer browser.Close()

	mockHTML := `<html><head><title>Just a moment...</title></head><body></body></html>`
	page.Route("**/*", func(route playwright.Route) {
		route.Fulfill(playwright.RouteFulfillOptions{
			Status: playwright.Int(200),
			Body:   mockHTML,
		})
	})

	a := newTestAdapter(page)

	_, err := a.FetchPage(context.Background(), 1)
	assert.ErrorIs(t, err, source.ErrRateLimited)
}
