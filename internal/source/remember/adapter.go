package remember

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"go-jobscout-crawler/internal/browser"
	"go-jobscout-crawler/internal/filter"
	"go-jobscout-crawler/internal/source"
)

const (
	sourceName = "remember"
	siteBase   = "https://career.rememberapp.co.kr"

	// stabilityWindow is how many consecutive scrolls may surface no new
	// postings before the listing is considered fully loaded.
	stabilityWindow = 5

	// maxScrollsPerBatch bounds a single FetchPage call even when the
	// page keeps growing with cards that are all filtered out.
	maxScrollsPerBatch = 50
)

var (
	titleSelectors   = []string{"h1", "h2", "h3", "h4", "[class*='title']", "strong"}
	companySelectors = []string{"[class*='company']", "[class*='corp']"}
)

// Adapter drives an infinite-scroll category listing through a live browser
// page and yields card-level records batch by batch. PageSize is zero:
// the crawl controller keeps calling FetchPage until a batch comes back
// empty, which happens once the scroll position has been stable for
// stabilityWindow rounds.
type Adapter struct {
	page     playwright.Page
	category string
	url      string
	filt     *filter.Filter
	log      *zap.SugaredLogger

	navigated bool
	seen      map[string]bool
	excluded  int

	// pause is indirected so tests can run without real sleeps.
	pause func(minMs, maxMs int)
}

func New(page playwright.Page, category, url string, filt *filter.Filter, log *zap.SugaredLogger) *Adapter {
	return &Adapter{
		page:     page,
		category: category,
		url:      url,
		filt:     filt,
		log:      log,
		seen:     make(map[string]bool),
		pause:    browser.RandomDelay,
	}
}

func (a *Adapter) Name() string  { return sourceName }
func (a *Adapter) Label() string { return a.category }

// PageSize is zero: batches have no fixed size, the empty batch ends the
// crawl.
func (a *Adapter) PageSize() int { return 0 }

// Excluded reports how many cards the listing pass dropped via the
// exclusion filter.
func (a *Adapter) Excluded() int { return a.excluded }

func (a *Adapter) FetchPage(ctx context.Context, _ int) (*source.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !a.navigated {
		if _, err := a.page.Goto(a.url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(30000),
		}); err != nil {
			return nil, fmt.Errorf("navigate %s: %w", a.url, err)
		}
		if a.challenged() {
			a.log.Warnw("challenge page detected", "category", a.category)
			return nil, source.ErrRateLimited
		}
		a.navigated = true
		a.pause(3000, 5000)

		if batch, _ := a.collectNew(); len(batch) > 0 {
			return &source.PageResult{Raw: batch}, nil
		}
	}

	stable := 0
	for scrolls := 0; stable < stabilityWindow && scrolls < maxScrollsPerBatch; scrolls++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := browser.ScrollBy(a.page, 800, 1500); err != nil {
			return nil, fmt.Errorf("scroll %s: %w", a.category, err)
		}
		a.pause(2000, 4000)

		batch, grew := a.collectNew()
		if len(batch) > 0 {
			return &source.PageResult{Raw: batch}, nil
		}
		if grew {
			stable = 0
			continue
		}
		stable++
	}
	return &source.PageResult{}, nil
}

func (a *Adapter) challenged() bool {
	title, _ := a.page.Title()
	return strings.Contains(title, "Cloudflare") ||
		strings.Contains(title, "Attention Required") ||
		strings.Contains(title, "Just a moment")
}

// collectNew scans all posting links currently in the DOM and extracts
// cards not seen in earlier rounds. grew is true when any unseen link
// appeared, even if every one of them was filtered out.
func (a *Adapter) collectNew() (batch []source.RawRecord, grew bool) {
	links, err := a.page.Locator("a[href*='/job/postings/']").All()
	if err != nil {
		a.log.Warnw("listing query failed", "category", a.category, "error", err)
		return nil, false
	}

	for _, link := range links {
		href, err := link.GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		id := ExtractPostingID(href)
		if id == "" || a.seen[id] {
			continue
		}
		a.seen[id] = true
		grew = true

		if raw, ok := a.extractCard(link, id, href); ok {
			batch = append(batch, raw)
		}
	}
	return batch, grew
}

func (a *Adapter) extractCard(link playwright.Locator, id, href string) (source.RawRecord, bool) {
	card := link.Locator("xpath=ancestor::li[1] | ancestor::div[contains(@class,'job') or contains(@class,'card')][1]").First()
	if n, err := card.Count(); err != nil || n == 0 {
		card = link
	}

	title := firstText(card, titleSelectors, 2, 100)
	company := firstText(card, companySelectors, 1, 100)

	cardText, _ := card.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(2000),
	})
	deadline, location, career := SplitMixedText(cardText)

	if excluded, reason := a.filt.IsExcluded(title, company, cardText); excluded {
		a.excluded++
		a.log.Infow("card excluded", "category", a.category, "title", title, "reason", reason)
		return nil, false
	}

	if strings.HasPrefix(href, "/") {
		href = siteBase + href
	}
	return source.RawRecord{
		"id":       id,
		"title":    title,
		"company":  company,
		"deadline": deadline,
		"location": location,
		"career":   career,
		"link":     href,
		"category": a.category,
	}, true
}

// firstText tries each selector inside card and returns the first text
// whose rune length falls inside (minLen, maxLen).
func firstText(card playwright.Locator, selectors []string, minLen, maxLen int) string {
	for _, sel := range selectors {
		text, err := card.Locator(sel).First().TextContent(playwright.LocatorTextContentOptions{
			Timeout: playwright.Float(500),
		})
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if n := len([]rune(text)); n > minLen && n < maxLen {
			return text
		}
	}
	return ""
}
