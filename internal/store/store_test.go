package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobscout-crawler/internal/models"
)

// Integration tests run only against a throwaway database:
//
//	TEST_DATABASE_URL=postgres://... go test ./internal/store
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func sampleRecord(id string) *models.JobRecord {
	return &models.JobRecord{
		SourceID:    id,
		SourceName:  "Jumpit",
		Title:       "백엔드 엔지니어",
		CompanyName: "테스트컴퍼니",
		JobCategory: "서버/백엔드 개발자",
		CareerLevel: "경력무관",
		Deadline:    models.DeadlineAlwaysOpen,
		CrawledAt:   time.Now().UTC(),
		SearchLabel: "store-test",
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("upsert-test-1")

	res, err := s.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, models.ResultInserted, res)

	rec.ViewCount = 99
	res, err = s.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, models.ResultUpdated, res, "second apply of the same key reports UPDATED")

	var n int
	err = s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_postings WHERE source_name = 'Jumpit' AND source_id = 'upsert-test-1'`,
	).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one row regardless of how often the record is applied")
}

func TestRunLogAppendAndRecentRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Now().UTC().Add(-time.Minute)
	err := s.AppendRunLog(ctx, &models.RunLog{
		SearchLabel: "store-test-log",
		TotalFound:  10,
		Stored:      8,
		Failed:      1,
		Excluded:    1,
		StartedAt:   start,
		EndedAt:     start.Add(time.Minute),
		Duration:    time.Minute,
	})
	require.NoError(t, err)

	runs, err := s.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
}

func TestCountFieldLikeRejectsUnknownColumn(t *testing.T) {
	s := &Store{}
	_, err := s.CountFieldLike(context.Background(), "source_id; DROP TABLE job_postings", "x")
	assert.Error(t, err)
}
