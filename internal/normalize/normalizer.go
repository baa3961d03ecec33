// Package normalize maps source-native raw records onto the canonical
// posting schema. Field-level parse failures degrade to defaults; only a
// missing identity drops the record.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-jobscout-crawler/internal/models"
	"go-jobscout-crawler/internal/source"
)

var relativeDeadlineRe = regexp.MustCompile(`^D-(\d+)$`)

var closedAtLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer converts raw records. Now is injectable so relative deadlines
// resolve against a fixed reference date in tests.
type Normalizer struct {
	Now func() time.Time
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// CareerLevel renders the experience requirement the way the posting boards
// display it.
func CareerLevel(minYears, maxYears int, newcomer bool) string {
	switch {
	case newcomer:
		return "신입 환영"
	case minYears == 0 && maxYears == 0:
		return "경력무관"
	case minYears == maxYears:
		return fmt.Sprintf("%d년", minYears)
	default:
		return fmt.Sprintf("%d~%d년", minYears, maxYears)
	}
}

// Deadline normalizes the closing date to YYYY-MM-DD or the always-open
// sentinel. Relative D-N tokens are resolved now because they decay in
// meaning once persisted. Anything unparseable is kept verbatim.
func (n *Normalizer) Deadline(alwaysOpen bool, value string) string {
	if alwaysOpen {
		return models.DeadlineAlwaysOpen
	}
	value = strings.TrimSpace(value)
	if value == "" || value == models.DeadlineAlwaysOpen {
		return value
	}
	if m := relativeDeadlineRe.FindStringSubmatch(value); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return value
		}
		return n.now().AddDate(0, 0, days).Format("2006-01-02")
	}
	for _, layout := range closedAtLayouts {
		trimmed := strings.TrimSuffix(value, "Z")
		if len(trimmed) > len(layout) {
			trimmed = trimmed[:len(layout)]
		}
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}

// FromJumpit maps one positions-API item. Returns (nil, false) when the
// identity field is missing or the posting is hidden.
func (n *Normalizer) FromJumpit(raw source.RawRecord, label string) (*models.JobRecord, bool) {
	id := Str(raw, "id")
	if id == "" {
		return nil, false
	}
	if Bool(raw, "hiddenPosition") {
		return nil, false
	}

	newcomer := Bool(raw, "newcomer")
	career := CareerLevel(Int(raw, "minCareer"), Int(raw, "maxCareer"), newcomer)

	tags := ""
	if newcomer {
		tags = "신입환영"
	}

	rec := &models.JobRecord{
		SourceID:   id,
		SourceName: "Jumpit",

		Title:          Str(raw, "title"),
		CompanyName:    Str(raw, "companyName"),
		Location:       JoinList(raw, "locations"),
		JobCategory:    Str(raw, "jobCategory"),
		EmploymentType: "정규직", // the API does not carry one
		CareerLevel:    career,

		TechStacks: JoinList(raw, "techStacks"),
		Tags:       tags,

		ViewCount:     Int(raw, "viewCount"),
		BookmarkCount: Int(raw, "scrapCount"),
		ResponseRate:  Float(raw, "responseRate"),
		SigningBonus:  Int(raw, "celebration"),

		Deadline:  n.Deadline(Bool(raw, "alwaysOpen"), Str(raw, "closedAt")),
		CrawledAt: n.now(),

		Link:        fmt.Sprintf("https://www.jumpit.co.kr/position/%s", id),
		SearchLabel: label,
	}
	return rec, true
}

// FromRemember maps one rendered list card (detail fields, when present,
// were merged into the raw record by the adapter).
func (n *Normalizer) FromRemember(raw source.RawRecord, label string) (*models.JobRecord, bool) {
	id := Str(raw, "id")
	if id == "" {
		return nil, false
	}

	posted := Str(raw, "posted")
	if posted == "" {
		posted = n.now().Format("2006-01-02")
	}

	employment := Str(raw, "employment")
	if employment == "" {
		employment = "정규직"
	}

	rec := &models.JobRecord{
		SourceID:   id,
		SourceName: "Remember",

		Title:          Str(raw, "title"),
		CompanyName:    Str(raw, "company"),
		Location:       Str(raw, "location"),
		JobCategory:    Str(raw, "category"),
		EmploymentType: employment,
		CareerLevel:    Str(raw, "career"),
		EducationLevel: Str(raw, "education"),

		Introduction:            Str(raw, "introduction"),
		Responsibilities:        Str(raw, "responsibilities"),
		Requirements:            Str(raw, "requirements"),
		PreferredQualifications: Str(raw, "preferred"),
		HiringProcess:           Str(raw, "process"),

		SigningBonus: Int(raw, "bonus"),

		PostedDate: posted,
		Deadline:   n.Deadline(false, Str(raw, "deadline")),
		CrawledAt:  n.now(),

		Link:        Str(raw, "link"),
		SearchLabel: label,
	}
	return rec, true
}
