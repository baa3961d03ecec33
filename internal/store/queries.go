package store

import (
	"context"
	"fmt"
	"time"

	"go-jobscout-crawler/internal/models"
)

// Read-only aggregate queries for the reporting collaborator. None of these
// mutate state.

// GroupCount is one group-by bucket.
type GroupCount struct {
	Key   string
	Count int
}

// RunSummary is a thin view of one crawl_logs row.
type RunSummary struct {
	SearchLabel string
	Stored      int
	CreatedAt   time.Time
}

// likeColumns whitelists the columns CountFieldLike may touch; field names
// arrive from reporting code, never interpolate them blindly.
var likeColumns = map[string]bool{
	"tech_stacks":  true,
	"location":     true,
	"tags":         true,
	"career_level": true,
	"title":        true,
}

func (s *Store) TotalJobs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM job_postings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count postings: %w", err)
	}
	return n, nil
}

// CountByCategory returns posting counts per job category, largest first.
func (s *Store) CountByCategory(ctx context.Context, limit int) ([]GroupCount, error) {
	rows, err := s.db.Query(ctx, `
		SELECT job_category, COUNT(*) AS job_count
		FROM job_postings
		WHERE job_category <> ''
		GROUP BY job_category
		ORDER BY job_count DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()
	return scanGroupCounts(rows)
}

// TopCompanies returns the companies with the most stored postings.
func (s *Store) TopCompanies(ctx context.Context, limit int) ([]GroupCount, error) {
	rows, err := s.db.Query(ctx, `
		SELECT company_name, COUNT(*) AS job_count
		FROM job_postings
		WHERE company_name <> ''
		GROUP BY company_name
		ORDER BY job_count DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top companies: %w", err)
	}
	defer rows.Close()
	return scanGroupCounts(rows)
}

// CountFieldLike counts postings whose whitelisted column contains the
// pattern, for e.g. per-tech-stack tallies.
func (s *Store) CountFieldLike(ctx context.Context, column, pattern string) (int, error) {
	if !likeColumns[column] {
		return 0, fmt.Errorf("column %q not allowed for LIKE queries", column)
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM job_postings WHERE %s LIKE $1`, column)
	var n int
	if err := s.db.QueryRow(ctx, query, "%"+pattern+"%").Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s like %q: %w", column, pattern, err)
	}
	return n, nil
}

// RecentRuns returns the newest crawl-log rows.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT search_label, stored, created_at
		FROM crawl_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.SearchLabel, &r.Stored, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllForExport loads every stored posting, newest crawl first.
func (s *Store) AllForExport(ctx context.Context) ([]models.JobRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT source_id, source_name, title, company_name, location,
			job_category, employment_type, career_level, education_level,
			introduction, responsibilities, requirements,
			preferred_qualifications, hiring_process, tech_stacks, tags,
			view_count, bookmark_count, application_count, response_rate,
			signing_bonus, posted_date, deadline, crawled_at, link, search_label
		FROM job_postings
		ORDER BY crawled_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("load postings for export: %w", err)
	}
	defer rows.Close()

	var out []models.JobRecord
	for rows.Next() {
		var r models.JobRecord
		if err := rows.Scan(
			&r.SourceID, &r.SourceName, &r.Title, &r.CompanyName, &r.Location,
			&r.JobCategory, &r.EmploymentType, &r.CareerLevel, &r.EducationLevel,
			&r.Introduction, &r.Responsibilities, &r.Requirements,
			&r.PreferredQualifications, &r.HiringProcess, &r.TechStacks, &r.Tags,
			&r.ViewCount, &r.BookmarkCount, &r.ApplicationCount, &r.ResponseRate,
			&r.SigningBonus, &r.PostedDate, &r.Deadline, &r.CrawledAt, &r.Link,
			&r.SearchLabel,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanGroupCounts(rows pgxRows) ([]GroupCount, error) {
	var out []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
