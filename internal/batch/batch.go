package batch

import (
	"context"
	"log/slog"
	"time"

	"stolpersteine/internal"
	"stolpersteine/internal/config"
	"stolpersteine/internal/pipeline"
	"stolpersteine/internal/source"
	"stolpersteine/internal/storage"
)

// Lister returns the article pages of a category.
type Lister interface {
	CategoryMembers(ctx context.Context, category string, recursive bool) ([]internal.CategoryMember, error)
}

type Service struct {
	db        *storage.DB
	cfg       config.Config
	lister    Lister
	processor *pipeline.ProcessingService
}

func NewService(db *storage.DB, cfg config.Config, lister Lister, processor *pipeline.ProcessingService) *Service {
	return &Service{db: db, cfg: cfg, lister: lister, processor: processor}
}

type CycleResult struct {
	Listed    int
	Processed int
	Records   int
	Exported  int
}

// Run repeats cycles every BatchIntervalSec until ctx is done. With an
// interval of zero a single cycle runs and its error is returned.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.BatchIntervalSec <= 0 {
		_, err := s.RunCycle(ctx)
		return err
	}

	for {
		if _, err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("batch cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.BatchIntervalSec) * time.Second):
		}
	}
}

// RunCycle lists the category, extracts pending pages and, when enabled,
// exports every extracted page.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	res := CycleResult{}

	members, err := s.lister.CategoryMembers(ctx, s.cfg.WikiCategory, true)
	if err != nil {
		return res, err
	}
	dialect := s.defaultDialect()
	for _, m := range members {
		if _, err := s.db.UpsertPage(m.PageID, m.Title, string(dialect)); err != nil {
			return res, err
		}
	}
	res.Listed = len(members)
	_ = s.db.SetMetadata("batch.last_listing", time.Now().UTC().Format(time.RFC3339))

	res.Processed, res.Records, err = s.processor.ProcessPending(ctx, s.cfg.BatchSize)
	if err != nil {
		return res, err
	}

	if s.cfg.BatchAutoExport {
		res.Exported, err = s.exportExtracted()
		if err != nil {
			return res, err
		}
	}

	slog.Info("batch cycle done", "category", s.cfg.WikiCategory, "listed", res.Listed, "processed", res.Processed, "records", res.Records, "exported", res.Exported)
	return res, nil
}

func (s *Service) exportExtracted() (int, error) {
	pages, err := s.db.ListPagesByStatus(internal.PageExtracted, 1000)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, page := range pages {
		path, err := s.processor.ExportPage(page)
		if err != nil {
			return exported, err
		}
		slog.Debug("page exported", "page", page.Title, "path", path)
		exported++
	}
	return exported, nil
}

func (s *Service) defaultDialect() source.Dialect {
	d, err := source.ParseDialect(s.cfg.DefaultDialect)
	if err != nil {
		return source.DialectHTML
	}
	return d
}
