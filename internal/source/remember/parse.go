package remember

import (
	"regexp"
	"strings"
)

// Card text bundles deadline, location and experience into one string joined
// by a distinctive separator: "D-13﹒서울 영등포구﹒7년 이상". The combined
// pattern is tried first; the independent single-field patterns are the
// fallback when the card layout drifts.
var (
	postingIDRe = regexp.MustCompile(`/job/postings/(\d+)`)

	mixedRe    = regexp.MustCompile(`(D-\d+)﹒([^﹒\n]+)﹒([^﹒\n]+)`)
	deadlineRe = regexp.MustCompile(`(D-\d+|상시채용|\d{4}-\d{2}-\d{2})`)
	locationRe = regexp.MustCompile(`(서울[^﹒\n]*|경기[^﹒\n]*|인천[^﹒\n]*|부산[^﹒\n]*|원격근무|재택)`)
	careerRe   = regexp.MustCompile(`(\d+년[^﹒\n]*|신입[^﹒\n]*|경력[^﹒\n]*|\d+~\d+년)`)

	educationRe  = regexp.MustCompile(`(고졸|전문학사|학사|석사|박사|대졸|대학교|학력무관)`)
	employmentRe = regexp.MustCompile(`(정규직|계약직|인턴|파트타임|프리랜서|임시직)`)

	siteSuffixRe = regexp.MustCompile(`\s*-\s*리멤버.*`)
	pipeTailRe   = regexp.MustCompile(`\s*\|\s*.*`)
)

// sectionKeywords maps each detail-page section to its heading synonyms, in
// probe order.
var sectionKeywords = map[string][]string{
	"introduction":     {"공고소개", "회사소개", "기업소개", "소개"},
	"responsibilities": {"주요업무", "업무내용", "담당업무", "주요 업무", "업무"},
	"requirements":     {"자격요건", "지원자격", "필수자격", "자격 요건", "요구사항"},
	"preferred":        {"우대사항", "우대조건", "우대 사항", "선호사항", "플러스"},
	"process":          {"채용절차", "전형절차", "채용 절차", "전형과정", "선발과정"},
}

// allSectionKeywords is the flat stop-word list for sibling walks and
// fallback bounds.
var allSectionKeywords = func() []string {
	var out []string
	for _, kws := range sectionKeywords {
		out = append(out, kws...)
	}
	return out
}()

// fallbackSectionLimit bounds a regex-extracted section.
const fallbackSectionLimit = 1000

// ExtractPostingID pulls the numeric posting id out of a listing href.
// Empty when the href does not point at a posting.
func ExtractPostingID(href string) string {
	m := postingIDRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// SplitMixedText separates the bundled deadline/location/experience string.
// First success wins: combined pattern, then per-field patterns.
func SplitMixedText(text string) (deadline, location, career string) {
	if m := mixedRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	}
	if m := deadlineRe.FindStringSubmatch(text); m != nil {
		deadline = strings.TrimSpace(m[1])
	}
	if m := locationRe.FindStringSubmatch(text); m != nil {
		location = strings.TrimSpace(m[1])
	}
	if m := careerRe.FindStringSubmatch(text); m != nil {
		career = strings.TrimSpace(m[1])
	}
	return deadline, location, career
}

// FallbackSection extracts a section from flattened page text when the
// structural walk found nothing: the text after the first matching keyword,
// cut at the next recognized heading, bounded at fallbackSectionLimit runes
// with an ellipsis marker.
func FallbackSection(pageText string, keywords []string) string {
	for _, kw := range keywords {
		idx := strings.Index(pageText, kw)
		if idx < 0 {
			continue
		}
		content := pageText[idx+len(kw):]

		end := len(content)
		for _, stop := range allSectionKeywords {
			if stop == kw {
				continue
			}
			if i := strings.Index(content, stop); i >= 0 && i < end {
				end = i
			}
		}
		section := strings.TrimSpace(strings.Trim(content[:end], ":： \n\t"))
		if section == "" {
			continue
		}
		runes := []rune(section)
		if len(runes) > fallbackSectionLimit {
			section = string(runes[:fallbackSectionLimit]) + "..."
		}
		return section
	}
	return ""
}

// cleanPageTitle strips the site suffix off a browser tab title so it can
// stand in for a missing posting title.
func cleanPageTitle(title string) string {
	title = siteSuffixRe.ReplaceAllString(title, "")
	title = pipeTailRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}
