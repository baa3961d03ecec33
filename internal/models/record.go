package models

import (
	"time"
)

// DeadlineAlwaysOpen is the sentinel stored when a posting has no closing
// date. Kept in Korean because it is part of the exported data contract.
const DeadlineAlwaysOpen = "상시채용"

// UpsertResult reports what the store did with a record.
type UpsertResult string

const (
	ResultInserted UpsertResult = "INSERTED"
	ResultUpdated  UpsertResult = "UPDATED"
)

// JobRecord is the canonical, source-agnostic posting shape. Every text
// field defaults to "" (never null) so the export schema stays stable.
type JobRecord struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`

	Title          string `json:"title"`
	CompanyName    string `json:"company_name"`
	Location       string `json:"location"`
	JobCategory    string `json:"job_category"`
	EmploymentType string `json:"employment_type"`
	CareerLevel    string `json:"career_level"`
	EducationLevel string `json:"education_level"`

	Introduction            string `json:"introduction"`
	Responsibilities        string `json:"responsibilities"`
	Requirements            string `json:"requirements"`
	PreferredQualifications string `json:"preferred_qualifications"`
	HiringProcess           string `json:"hiring_process"`

	TechStacks string `json:"tech_stacks"`
	Tags       string `json:"tags"`

	ViewCount        int     `json:"view_count"`
	BookmarkCount    int     `json:"bookmark_count"`
	ApplicationCount int     `json:"application_count"`
	ResponseRate     float64 `json:"response_rate"`
	SigningBonus     int     `json:"signing_bonus"`

	PostedDate string `json:"posted_date"`
	// Deadline is an ISO date (YYYY-MM-DD), DeadlineAlwaysOpen, or the raw
	// source string when normalization could not parse it.
	Deadline  string    `json:"deadline"`
	CrawledAt time.Time `json:"crawled_at"`

	Link        string `json:"link"`
	SearchLabel string `json:"search_label"`
}

// RunLog is one append-only row per crawl invocation per search label.
type RunLog struct {
	SearchLabel string        `json:"search_label"`
	TotalFound  int           `json:"total_found"`
	Stored      int           `json:"stored"`
	Failed      int           `json:"failed"`
	Excluded    int           `json:"excluded"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at"`
	Duration    time.Duration `json:"duration"`
}
