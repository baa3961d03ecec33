// Package filter holds the stateless exclusion predicate applied once on
// list-card text and again after detail normalization.
package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Exclusion reason labels; part of the run-log vocabulary.
const (
	ReasonIntermediary = "헤드헌터"
	ReasonOverseas     = "해외근무"
	ReasonConfigured   = "설정제외"
)

// Staffing-agency / recruitment-intermediary terms.
var intermediaryKeywords = []string{
	"헤드헌터", "헤드헌팅", "headhunter", "headhunting",
	"인재개발", "인사컨설팅", "채용대행", "서치펌",
	"스카우트", "scout", "리크루터", "recruiter",
	"인력파견", "파견", "용역", "아웃소싱",
}

// Overseas-assignment terms.
var overseasKeywords = []string{
	"해외근무", "해외파견", "해외출장", "국외근무",
	"중국", "일본", "미국", "유럽", "동남아", "베트남", "태국", "인도네시아",
	"싱가포르", "말레이시아", "필리핀", "인도", "캐나다", "호주",
	"china", "japan", "usa", "vietnam", "thailand", "singapore",
	"해외사업", "글로벌", "국제", "overseas", "global", "international",
}

// Filter is a pure predicate; safe for reuse across sources.
type Filter struct {
	extra []string
}

// New builds a filter; extra keywords come from config and are reported
// under ReasonConfigured.
func New(extra ...string) *Filter {
	cleaned := make([]string, 0, len(extra))
	for _, kw := range extra {
		if kw = strings.TrimSpace(kw); kw != "" {
			cleaned = append(cleaned, normalizeText(kw))
		}
	}
	return &Filter{extra: cleaned}
}

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}

// IsExcluded matches the concatenated title/company/body against the keyword
// sets, case-insensitively. The first matching set names the reason.
func (f *Filter) IsExcluded(title, company, body string) (bool, string) {
	fullText := normalizeText(title + " " + company + " " + body)

	for _, kw := range intermediaryKeywords {
		if strings.Contains(fullText, normalizeText(kw)) {
			return true, ReasonIntermediary
		}
	}
	for _, kw := range overseasKeywords {
		if strings.Contains(fullText, normalizeText(kw)) {
			return true, ReasonOverseas
		}
	}
	for _, kw := range f.extra {
		if strings.Contains(fullText, kw) {
			return true, ReasonConfigured
		}
	}
	return false, ""
}
