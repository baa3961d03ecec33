package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go-jobscout-crawler/internal/browser"
	"go-jobscout-crawler/internal/config"
	"go-jobscout-crawler/internal/export"
	"go-jobscout-crawler/internal/filter"
	"go-jobscout-crawler/internal/logging"
	"go-jobscout-crawler/internal/models"
	"go-jobscout-crawler/internal/normalize"
	"go-jobscout-crawler/internal/pipeline"
	"go-jobscout-crawler/internal/reporter"
	"go-jobscout-crawler/internal/source/jumpit"
	"go-jobscout-crawler/internal/source/remember"
	"go-jobscout-crawler/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("opening store", "error", err)
	}
	defer st.Close()

	var rep *reporter.TelegramReporter
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		rep, err = reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warnw("telegram reporter disabled", "error", err)
			rep = nil
		}
	}

	ctrl := pipeline.NewController(pipeline.BackoffPolicy{
		BaseDelay:   cfg.Backoff.BaseDelay(),
		MaxDelay:    cfg.Backoff.MaxDelay(),
		MaxRetries:  cfg.Backoff.MaxRetries,
		CooldownMin: time.Duration(cfg.Backoff.CooldownMinSeconds) * time.Second,
		CooldownMax: time.Duration(cfg.Backoff.CooldownMaxSeconds) * time.Second,
	}, log)
	norm := &normalize.Normalizer{}
	filt := filter.New(cfg.ExtraExcludeKeywords...)

	var runLogs []models.RunLog

	for _, facet := range cfg.Facets {
		if ctx.Err() != nil {
			break
		}
		rl := crawlJumpit(ctx, ctrl, cfg, facet, norm, filt, st, log)
		runLogs = append(runLogs, rl)
	}

	if len(cfg.Categories) > 0 && ctx.Err() == nil {
		runLogs = append(runLogs, crawlRendered(ctx, ctrl, cfg, norm, filt, st, log)...)
	}

	if path := exportAll(ctx, cfg, st, log); path != "" {
		log.Infow("export written", "path", path)
	}

	if total, err := st.TotalJobs(ctx); err == nil {
		log.Infow("crawl complete", "total_jobs", total, "runs", len(runLogs))
	}

	if rep != nil {
		if err := rep.SendRunSummary(runLogs); err != nil {
			log.Warnw("sending run summary", "error", err)
		}
	}
}

// crawlJumpit fetches one facet of the positions API, normalizes, filters
// and upserts, then appends the run log row.
func crawlJumpit(ctx context.Context, ctrl *pipeline.Controller, cfg *config.Config,
	facet config.Facet, norm *normalize.Normalizer, filt *filter.Filter,
	st *store.Store, log *zap.SugaredLogger) models.RunLog {

	started := time.Now()
	label := "jumpit:" + facet.Name

	f := jumpit.New(cfg.JumpitBaseURL, facet.Name, facet.Params, cfg.PageSize, log)
	raws, stats, err := ctrl.Crawl(ctx, f, cfg.MaxPages)
	if err != nil {
		log.Warnw("facet crawl interrupted", "facet", facet.Name, "error", err)
	}

	var stored, failed, excluded int
	for _, raw := range raws {
		rec, ok := norm.FromJumpit(raw, label)
		if !ok {
			continue
		}
		body := strings.Join([]string{rec.TechStacks, rec.Tags, rec.Location}, " ")
		if hit, reason := filt.IsExcluded(rec.Title, rec.CompanyName, body); hit {
			excluded++
			log.Debugw("record excluded", "label", label, "title", rec.Title, "reason", reason)
			continue
		}
		if _, err := st.Upsert(ctx, rec); err != nil {
			failed++
			log.Warnw("upsert failed", "label", label, "id", rec.SourceID, "error", err)
			continue
		}
		stored++
	}

	return finishRun(ctx, st, log, models.RunLog{
		SearchLabel: label,
		TotalFound:  stats.TotalFound,
		Stored:      stored,
		Failed:      failed + stats.FailedPages,
		Excluded:    excluded,
		StartedAt:   started,
	})
}

// crawlRendered walks the configured listing categories through a single
// browser session. A category that cannot even open its page is reported as
// a failed run, not a crash.
func crawlRendered(ctx context.Context, ctrl *pipeline.Controller, cfg *config.Config,
	norm *normalize.Normalizer, filt *filter.Filter,
	st *store.Store, log *zap.SugaredLogger) []models.RunLog {

	sess, err := browser.NewSession(cfg.Headless)
	if err != nil {
		log.Errorw("browser session unavailable, skipping rendered source", "error", err)
		return nil
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warnw("closing browser session", "error", err)
		}
	}()

	var runLogs []models.RunLog
	for _, cat := range cfg.Categories {
		if ctx.Err() != nil {
			break
		}
		runLogs = append(runLogs, crawlCategory(ctx, ctrl, cfg, cat, sess, norm, filt, st, log))
	}
	return runLogs
}

func crawlCategory(ctx context.Context, ctrl *pipeline.Controller, cfg *config.Config,
	cat config.Category, sess *browser.Session, norm *normalize.Normalizer,
	filt *filter.Filter, st *store.Store, log *zap.SugaredLogger) models.RunLog {

	started := time.Now()
	label := "remember:" + cat.Name

	a := remember.New(sess.Page(), cat.Name, cat.URL, filt, log)
	raws, stats, err := ctrl.Crawl(ctx, a, cfg.MaxPages)
	if err != nil {
		log.Warnw("category crawl interrupted", "category", cat.Name, "error", err)
	}

	raws = a.EnhanceDetails(ctx, raws, cfg.DetailsPerCat)

	var stored, failed, excluded int
	for _, raw := range raws {
		rec, ok := norm.FromRemember(raw, label)
		if !ok {
			continue
		}
		body := strings.Join([]string{
			rec.Introduction, rec.Responsibilities, rec.Requirements, rec.Location,
		}, " ")
		if hit, reason := filt.IsExcluded(rec.Title, rec.CompanyName, body); hit {
			excluded++
			log.Debugw("record excluded", "label", label, "title", rec.Title, "reason", reason)
			continue
		}
		if _, err := st.Upsert(ctx, rec); err != nil {
			failed++
			log.Warnw("upsert failed", "label", label, "id", rec.SourceID, "error", err)
			continue
		}
		stored++
	}

	return finishRun(ctx, st, log, models.RunLog{
		SearchLabel: label,
		TotalFound:  stats.TotalFound,
		Stored:      stored,
		Failed:      failed + stats.FailedPages,
		Excluded:    excluded + a.Excluded(),
		StartedAt:   started,
	})
}

func finishRun(ctx context.Context, st *store.Store, log *zap.SugaredLogger, rl models.RunLog) models.RunLog {
	rl.EndedAt = time.Now()
	rl.Duration = rl.EndedAt.Sub(rl.StartedAt)

	if err := st.AppendRunLog(ctx, &rl); err != nil {
		log.Warnw("appending run log", "label", rl.SearchLabel, "error", err)
	}
	log.Infow("run finished", "label", rl.SearchLabel,
		"found", rl.TotalFound, "stored", rl.Stored,
		"excluded", rl.Excluded, "failed", rl.Failed,
		"duration", rl.Duration.Round(time.Second))
	return rl
}

func exportAll(ctx context.Context, cfg *config.Config, st *store.Store, log *zap.SugaredLogger) string {
	rows, err := st.AllForExport(ctx)
	if err != nil {
		log.Warnw("loading rows for export", "error", err)
		return ""
	}
	if len(rows) == 0 {
		return ""
	}
	path, err := export.WriteFile(cfg.ExportDir, rows)
	if err != nil {
		log.Warnw("writing export", "error", err)
		return ""
	}
	return path
}
