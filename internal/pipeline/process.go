package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stolpersteine/internal"
	"stolpersteine/internal/config"
	"stolpersteine/internal/logging"
	"stolpersteine/internal/rawstore"
	"stolpersteine/internal/source"
	"stolpersteine/internal/storage"
	"stolpersteine/internal/util"
)

// PageFetcher returns the raw page body for a title in a dialect.
type PageFetcher interface {
	FetchPage(ctx context.Context, title string, dialect source.Dialect) ([]byte, error)
}

type ProcessingService struct {
	db      *storage.DB
	cfg     config.Config
	fetcher PageFetcher
	aliases internal.ColumnAliases
	raw     *rawstore.Store
}

func NewProcessingService(db *storage.DB, cfg config.Config, fetcher PageFetcher, aliases internal.ColumnAliases) *ProcessingService {
	if aliases == nil {
		aliases = internal.DefaultColumnAliases()
	}
	svc := &ProcessingService{db: db, cfg: cfg, fetcher: fetcher, aliases: aliases}
	if cfg.RawPageDir != "" {
		svc.raw = rawstore.New(cfg.RawPageDir)
	}
	return svc
}

type ProcessResult struct {
	PageRef int
	Title   string
	Records int
}

func (s *ProcessingService) ProcessByTitle(ctx context.Context, title string) (ProcessResult, error) {
	page, err := s.db.MustPageByTitle(title)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessPage(ctx, page)
}

// ProcessPending extracts up to limit listed pages. A page that fails is
// marked failed and the batch moves on; only storage errors and context
// cancellation stop it.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int) (int, int, error) {
	pending, err := s.db.ListPagesByStatus(internal.PageListed, limit)
	if err != nil {
		return 0, 0, err
	}
	processedPages := 0
	processedRecords := 0
	for _, page := range pending {
		if err := ctx.Err(); err != nil {
			return processedPages, processedRecords, err
		}
		res, err := s.ProcessPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return processedPages, processedRecords, ctx.Err()
			}
			if markErr := s.db.MarkPageFailed(page.ID, err); markErr != nil {
				return processedPages, processedRecords, markErr
			}
			continue
		}
		processedPages++
		processedRecords += res.Records
	}
	return processedPages, processedRecords, nil
}

func (s *ProcessingService) ProcessPage(ctx context.Context, page internal.PageRow) (ProcessResult, error) {
	start := time.Now()
	traceID := uuid.NewString()
	ctx = logging.WithTraceID(ctx, traceID)
	logger := logging.WithFields(ctx, "page", page.Title)

	dialect, err := source.ParseDialect(page.Dialect)
	if err != nil {
		return ProcessResult{}, err
	}

	body, err := s.fetcher.FetchPage(ctx, page.Title, dialect)
	if err != nil {
		logger.Warn("fetch failed", "error", err)
		return ProcessResult{}, fmt.Errorf("fetch %s: %w", page.Title, err)
	}
	fetchMs := time.Since(start).Milliseconds()

	records, err := s.extract(body, dialect, page.Title)
	if err != nil {
		logger.Warn("extraction failed", "error", err)
		return ProcessResult{}, err
	}

	hash, err := s.snapshot(body, dialect)
	if err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.ReplaceRecords(page.ID, records); err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.MarkPageExtracted(page.ID, hash, len(records)); err != nil {
		return ProcessResult{}, err
	}

	totalMs := time.Since(start).Milliseconds()
	_ = s.db.InsertRun(traceID, page.ID,
		map[string]float64{"fetchMs": float64(fetchMs), "totalMs": float64(totalMs)},
		map[string]int{"records": len(records), "bytes": len(body)},
	)
	logger.Info("page extracted", "records", len(records), "ms", totalMs)

	return ProcessResult{PageRef: page.ID, Title: page.Title, Records: len(records)}, nil
}

// snapshot stores the fetched body when a raw page directory is configured
// and returns its content hash either way.
func (s *ProcessingService) snapshot(body []byte, dialect source.Dialect) (string, error) {
	if s.raw == nil {
		return rawstore.Hash(body), nil
	}
	hash, _, err := s.raw.Save(body, dialect)
	return hash, err
}

func (s *ProcessingService) extract(body []byte, dialect source.Dialect, title string) ([]internal.Record, error) {
	parsed, err := source.Parse(dialect, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", title, err)
	}
	return Extract(parsed, title, s.aliases)
}

// ExportPage writes the stored records of a page to OutputDir as JSON and
// marks the page exported. The written path is returned.
func (s *ProcessingService) ExportPage(page internal.PageRow) (string, error) {
	records, err := s.db.ListRecords(page.ID)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%d_%s.json", page.ID, util.SanitizeFilename(page.Title))
	outputPath := filepath.Join(s.cfg.OutputDir, "pages", filename)
	if err := WriteRecordsJSON(records, outputPath); err != nil {
		return "", err
	}
	if err := s.db.UpdatePageStatus(page.ID, internal.PageExported); err != nil {
		return "", err
	}
	return outputPath, nil
}
