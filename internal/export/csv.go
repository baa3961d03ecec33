// Package export writes the bulk CSV consumed by spreadsheet tooling.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go-jobscout-crawler/internal/models"
)

// maxFieldRunes bounds a single cell; longer values are cut with an
// ellipsis so a runaway rich-text section cannot blow up the sheet.
const maxFieldRunes = 2000

// utf8BOM keeps Excel happy with Korean text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// header intentionally omits the internal-only link and crawl timestamp.
var header = []string{
	"source_id", "source_name", "title", "company_name", "location",
	"job_category", "employment_type", "career_level", "education_level",
	"introduction", "responsibilities", "requirements",
	"preferred_qualifications", "hiring_process", "tech_stacks", "tags",
	"view_count", "bookmark_count", "application_count", "response_rate",
	"signing_bonus", "posted_date", "deadline", "search_label",
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxFieldRunes {
		return s
	}
	return string(runes[:maxFieldRunes]) + "..."
}

// WriteCSV writes all rows as UTF-8 with a byte-order marker.
func WriteCSV(w io.Writer, rows []models.JobRecord) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		record := []string{
			r.SourceID, r.SourceName, truncate(r.Title), truncate(r.CompanyName),
			truncate(r.Location), truncate(r.JobCategory), r.EmploymentType,
			r.CareerLevel, r.EducationLevel, truncate(r.Introduction),
			truncate(r.Responsibilities), truncate(r.Requirements),
			truncate(r.PreferredQualifications), truncate(r.HiringProcess),
			truncate(r.TechStacks), truncate(r.Tags),
			strconv.Itoa(r.ViewCount), strconv.Itoa(r.BookmarkCount),
			strconv.Itoa(r.ApplicationCount),
			strconv.FormatFloat(r.ResponseRate, 'f', -1, 64),
			strconv.Itoa(r.SigningBonus), r.PostedDate, r.Deadline,
			truncate(r.SearchLabel),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile exports rows to <dir>/job_postings_<timestamp>.csv and returns
// the file path.
func WriteFile(dir string, rows []models.JobRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	name := fmt.Sprintf("job_postings_%s.csv", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return "", err
	}
	return path, nil
}
