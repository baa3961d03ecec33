package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-jobscout-crawler/internal/models"
)

type Store struct {
	db *pgxpool.Pool
}

// Open connects, pings and ensures the schema exists.
func Open(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	// Pooled connections behind PgBouncer in transaction mode cannot use the
	// statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Store{db: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS job_postings (
			id BIGSERIAL PRIMARY KEY,
			source_id TEXT NOT NULL,
			source_name TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			company_name TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			job_category TEXT NOT NULL DEFAULT '',
			employment_type TEXT NOT NULL DEFAULT '',
			career_level TEXT NOT NULL DEFAULT '',
			education_level TEXT NOT NULL DEFAULT '',
			introduction TEXT NOT NULL DEFAULT '',
			responsibilities TEXT NOT NULL DEFAULT '',
			requirements TEXT NOT NULL DEFAULT '',
			preferred_qualifications TEXT NOT NULL DEFAULT '',
			hiring_process TEXT NOT NULL DEFAULT '',
			tech_stacks TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			view_count INTEGER NOT NULL DEFAULT 0,
			bookmark_count INTEGER NOT NULL DEFAULT 0,
			application_count INTEGER NOT NULL DEFAULT 0,
			response_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			signing_bonus INTEGER NOT NULL DEFAULT 0,
			posted_date TEXT NOT NULL DEFAULT '',
			deadline TEXT NOT NULL DEFAULT '',
			crawled_at TIMESTAMPTZ NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			search_label TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (source_name, source_id)
		)`,
		`CREATE TABLE IF NOT EXISTS crawl_logs (
			id BIGSERIAL PRIMARY KEY,
			search_label TEXT NOT NULL,
			total_found INTEGER NOT NULL,
			stored INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			excluded INTEGER NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			duration_seconds DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts or whole-record replaces a posting keyed on
// (source_name, source_id). One statement, so a crash cannot leave a row
// half-written. xmax = 0 discriminates freshly inserted rows.
func (s *Store) Upsert(ctx context.Context, rec *models.JobRecord) (models.UpsertResult, error) {
	query := `
		INSERT INTO job_postings (
			source_id, source_name, title, company_name, location, job_category,
			employment_type, career_level, education_level, introduction,
			responsibilities, requirements, preferred_qualifications,
			hiring_process, tech_stacks, tags, view_count, bookmark_count,
			application_count, response_rate, signing_bonus, posted_date,
			deadline, crawled_at, link, search_label
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		ON CONFLICT (source_name, source_id) DO UPDATE SET
			title = EXCLUDED.title,
			company_name = EXCLUDED.company_name,
			location = EXCLUDED.location,
			job_category = EXCLUDED.job_category,
			employment_type = EXCLUDED.employment_type,
			career_level = EXCLUDED.career_level,
			education_level = EXCLUDED.education_level,
			introduction = EXCLUDED.introduction,
			responsibilities = EXCLUDED.responsibilities,
			requirements = EXCLUDED.requirements,
			preferred_qualifications = EXCLUDED.preferred_qualifications,
			hiring_process = EXCLUDED.hiring_process,
			tech_stacks = EXCLUDED.tech_stacks,
			tags = EXCLUDED.tags,
			view_count = EXCLUDED.view_count,
			bookmark_count = EXCLUDED.bookmark_count,
			application_count = EXCLUDED.application_count,
			response_rate = EXCLUDED.response_rate,
			signing_bonus = EXCLUDED.signing_bonus,
			posted_date = EXCLUDED.posted_date,
			deadline = EXCLUDED.deadline,
			crawled_at = EXCLUDED.crawled_at,
			link = EXCLUDED.link,
			search_label = EXCLUDED.search_label
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := s.db.QueryRow(ctx, query,
		rec.SourceID, rec.SourceName, rec.Title, rec.CompanyName, rec.Location,
		rec.JobCategory, rec.EmploymentType, rec.CareerLevel, rec.EducationLevel,
		rec.Introduction, rec.Responsibilities, rec.Requirements,
		rec.PreferredQualifications, rec.HiringProcess, rec.TechStacks, rec.Tags,
		rec.ViewCount, rec.BookmarkCount, rec.ApplicationCount, rec.ResponseRate,
		rec.SigningBonus, rec.PostedDate, rec.Deadline, rec.CrawledAt, rec.Link,
		rec.SearchLabel,
	).Scan(&inserted)
	if err != nil {
		return "", fmt.Errorf("failed to upsert posting %s/%s: %w", rec.SourceName, rec.SourceID, err)
	}

	if inserted {
		return models.ResultInserted, nil
	}
	return models.ResultUpdated, nil
}

// AppendRunLog records one crawl invocation. Append-only by contract.
func (s *Store) AppendRunLog(ctx context.Context, rl *models.RunLog) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO crawl_logs
			(search_label, total_found, stored, failed, excluded, started_at, ended_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rl.SearchLabel, rl.TotalFound, rl.Stored, rl.Failed, rl.Excluded,
		rl.StartedAt, rl.EndedAt, rl.Duration.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to append run log: %w", err)
	}
	return nil
}
