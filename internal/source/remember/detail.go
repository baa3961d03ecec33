package remember

import (
	"context"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-jobscout-crawler/internal/normalize"
	"go-jobscout-crawler/internal/source"
)

const (
	detailRetries = 3

	// restEvery inserts a long pause after this many detail visits.
	restEvery = 5
)

var (
	detailTitleSelectors = []string{
		"h1", "h2", ".job-title", "[class*='title']", "[data-testid*='title']", "strong",
	}
	detailCompanySelectors = []string{
		"[class*='company']", "[class*='corp']", "h2", "h3",
	}

	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([가-힣A-Za-z0-9&\-]{2,20})\s*주식회사`),
		regexp.MustCompile(`주식회사\s*([가-힣A-Za-z0-9&\-]{2,20})`),
		regexp.MustCompile(`[（(]주[)）]\s*([가-힣A-Za-z0-9&\-]{2,20})`),
		regexp.MustCompile(`㈜\s*([가-힣A-Za-z0-9&\-]{2,20})`),
		regexp.MustCompile(`\b([A-Z][A-Za-z0-9&\-]{1,20})\s+(?:Inc|Corp|Co|Ltd)\.`),
	}

	jobCategoryRe = regexp.MustCompile(`(개발|엔지니어|프로그래머|디자인|디자이너|마케팅|마케터|영업|세일즈|기획|PM|PO|데이터|인사|HR|재무|회계|운영|CS|연구)`)
)

// sectionsJS walks the detail page DOM: for each section it finds the first
// short element containing a heading keyword, then gathers up to ten
// following siblings, stopping at the next recognized heading.
const sectionsJS = `(headerMap) => {
	const sections = {};
	const stops = [];
	for (const key in headerMap) stops.push(...headerMap[key]);
	const candidates = Array.from(
		document.querySelectorAll('h1,h2,h3,h4,h5,h6,div,span,p,strong'));
	for (const key in headerMap) {
		let content = '';
		for (const kw of headerMap[key]) {
			if (content) break;
			const header = candidates.find(el => {
				const t = (el.textContent || '').trim();
				return t.length > 0 && t.length < 30 && t.includes(kw);
			});
			if (!header) continue;
			const parts = [];
			let cur = header.nextElementSibling;
			while (cur && parts.length < 10) {
				const t = (cur.textContent || '').trim();
				if (t.length > 10) {
					if (stops.some(s => s !== kw && t.slice(0, 20).includes(s))) break;
					parts.push(t);
				}
				cur = cur.nextElementSibling;
			}
			if (parts.length) content = parts.join(' ');
		}
		sections[key] = content;
	}
	return sections;
}`

// EnhanceDetails visits the detail pages of up to maxDetail records and
// fills in titles, companies, categories, qualifications and the long-form
// sections. Records past the cap, and records whose detail page cannot be
// reached, keep their card-level fields.
func (a *Adapter) EnhanceDetails(ctx context.Context, records []source.RawRecord, maxDetail int) []source.RawRecord {
	for i, raw := range records {
		if i >= maxDetail {
			break
		}
		if ctx.Err() != nil {
			break
		}
		link := normalize.Str(raw, "link")
		if link == "" {
			continue
		}

		if !a.visitDetail(link) {
			a.log.Warnw("detail page unreachable, keeping card fields",
				"category", a.category, "link", link)
			continue
		}
		a.pause(2000, 4000)

		pageText, _ := a.page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
			Timeout: playwright.Float(5000),
		})

		a.completeTitle(raw)
		a.completeCompany(raw, pageText)
		a.completeCategory(raw, pageText)

		if m := educationRe.FindStringSubmatch(pageText); m != nil {
			raw["education"] = m[1]
		}
		if m := employmentRe.FindStringSubmatch(pageText); m != nil {
			raw["employment"] = m[1]
		}

		a.fillSections(raw, pageText)

		if (i+1)%restEvery == 0 && i+1 < len(records) {
			a.pause(15000, 25000)
		}
	}
	return records
}

func (a *Adapter) visitDetail(link string) bool {
	for attempt := 0; attempt < detailRetries; attempt++ {
		if attempt > 0 {
			a.pause(10000, 15000)
		}
		if _, err := a.page.Goto(link, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(30000),
		}); err != nil {
			a.log.Debugw("detail navigation failed",
				"link", link, "attempt", attempt+1, "error", err)
			continue
		}
		if a.challenged() {
			continue
		}
		return true
	}
	return false
}

func (a *Adapter) completeTitle(raw source.RawRecord) {
	if normalize.Str(raw, "title") != "" {
		return
	}
	for _, sel := range detailTitleSelectors {
		text, err := a.page.Locator(sel).First().TextContent(playwright.LocatorTextContentOptions{
			Timeout: playwright.Float(500),
		})
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if n := len([]rune(text)); n > 2 && n < 100 {
			raw["title"] = text
			return
		}
	}
	if title, err := a.page.Title(); err == nil {
		if cleaned := cleanPageTitle(title); cleaned != "" {
			raw["title"] = cleaned
		}
	}
}

func (a *Adapter) completeCompany(raw source.RawRecord, pageText string) {
	if normalize.Str(raw, "company") != "" {
		return
	}
	for _, sel := range detailCompanySelectors {
		text, err := a.page.Locator(sel).First().TextContent(playwright.LocatorTextContentOptions{
			Timeout: playwright.Float(500),
		})
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if n := len([]rune(text)); n > 1 && n < 60 {
			raw["company"] = text
			return
		}
	}
	if company := mostFrequentCompany(pageText); company != "" {
		raw["company"] = company
	}
}

// mostFrequentCompany runs the corporate-suffix patterns over the page text
// and picks the name that occurs most often.
func mostFrequentCompany(pageText string) string {
	counts := map[string]int{}
	for _, re := range companyPatterns {
		for _, m := range re.FindAllStringSubmatch(pageText, -1) {
			name := strings.TrimSpace(m[1])
			if name != "" {
				counts[name]++
			}
		}
	}
	best, bestN := "", 0
	for name, n := range counts {
		if n > bestN {
			best, bestN = name, n
		}
	}
	return best
}

// completeCategory refines the configured navigation category with up to
// three role keywords found in the page text.
func (a *Adapter) completeCategory(raw source.RawRecord, pageText string) {
	var found []string
	seen := map[string]bool{}
	for _, m := range jobCategoryRe.FindAllString(pageText, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		found = append(found, m)
		if len(found) == 3 {
			break
		}
	}
	if len(found) > 0 {
		raw["category"] = strings.Join(found, ", ")
	}
}

func (a *Adapter) fillSections(raw source.RawRecord, pageText string) {
	structural := map[string]string{}
	if res, err := a.page.Evaluate(sectionsJS, sectionKeywords); err == nil {
		if byKey, ok := res.(map[string]any); ok {
			for key, val := range byKey {
				if s, ok := val.(string); ok {
					structural[key] = strings.TrimSpace(s)
				}
			}
		}
	}
	for key, kws := range sectionKeywords {
		content := structural[key]
		if content == "" {
			content = FallbackSection(pageText, kws)
		}
		if content != "" {
			raw[key] = content
		}
	}
}
