// Package services contains the core pipeline orchestration: listing
// filings, parsing archives into sub-documents, normalizing and segmenting
// them into pages, and uploading the pages in idempotent batches.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/edgar-core/internal/archive"
	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// maxTitleRunes caps how long a page's first line may be before the page
// falls back to a synthetic title.
const maxTitleRunes = 80

// PipelineConfig configures one pipeline run.
type PipelineConfig struct {
	// Tickers are the symbols to ingest, in order.
	Tickers []string
	// ACL is attached to every index item.
	ACL []domain.ACLEntry
	// MaxFilings caps filings per entity. Zero means all.
	MaxFilings int
	Logger     *slog.Logger
}

// Pipeline runs the full ingestion sequence: tickers, filings, sub-documents,
// pages, batches. Everything is sequential; resumability comes from the
// archive cache and the processed ledger, not from checkpoints.
type Pipeline struct {
	catalog   driven.CatalogClient
	cache     driven.ArchiveCache
	parser    *archive.Parser
	registry  driven.NormaliserRegistry
	segmenter driven.Segmenter
	uploader  *Uploader
	cfg       PipelineConfig
	logger    *slog.Logger
}

// NewPipeline wires the pipeline. The cache is optional and only used to
// distinguish cached from downloaded archives in the run stats.
func NewPipeline(
	catalog driven.CatalogClient,
	cache driven.ArchiveCache,
	parser *archive.Parser,
	registry driven.NormaliserRegistry,
	segmenter driven.Segmenter,
	uploader *Uploader,
	cfg PipelineConfig,
) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		catalog:   catalog,
		cache:     cache,
		parser:    parser,
		registry:  registry,
		segmenter: segmenter,
		uploader:  uploader,
		cfg:       cfg,
		logger:    logger.With("service", "pipeline"),
	}
}

// runLockName is the lock every ingestion run contends on.
const runLockName = "ingest-run"

// RunLocked wraps Run with a run lock so two processes sharing a ledger
// backend cannot upload concurrently. A run that loses the race returns
// ErrRunLocked without touching the catalog.
func (p *Pipeline) RunLocked(ctx context.Context, lock driven.RunLock, ttl time.Duration) (*domain.RunResult, error) {
	acquired, err := lock.Acquire(ctx, runLockName, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrRunLocked
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx), runLockName); err != nil {
			p.logger.Warn("releasing run lock failed", "error", err)
		}
	}()

	return p.Run(ctx), nil
}

// Run processes every configured ticker. Per-ticker and per-filing failures
// are logged and counted without stopping the run; only context
// cancellation aborts it.
func (p *Pipeline) Run(ctx context.Context) *domain.RunResult {
	start := time.Now()
	var stats domain.RunStats
	var runErr error

tickers:
	for _, ticker := range p.cfg.Tickers {
		entityID, err := p.catalog.ResolveTicker(ctx, ticker)
		if err != nil {
			p.logger.Error("ticker resolution failed", "ticker", ticker, "error", err)
			stats.Errors++
			continue
		}

		filings, err := p.catalog.ListFilings(ctx, entityID)
		if err != nil {
			p.logger.Error("listing filings failed", "ticker", ticker, "entity", entityID, "error", err)
			stats.Errors++
			continue
		}
		if p.cfg.MaxFilings > 0 && len(filings) > p.cfg.MaxFilings {
			filings = filings[:p.cfg.MaxFilings]
		}
		stats.FilingsListed += len(filings)

		for _, filing := range filings {
			if ctx.Err() != nil {
				runErr = fmt.Errorf("run cancelled: %w", ctx.Err())
				break tickers
			}
			if err := p.processFiling(ctx, filing, &stats); err != nil {
				p.logger.Error("filing failed",
					"accession_number", filing.AccessionNumber,
					"error", err)
				stats.Errors++
			}
		}
	}

	// The final partial batch of the run.
	if err := p.uploader.Flush(ctx, &stats); err != nil {
		p.logger.Error("final batch flush failed", "error", err)
		stats.Errors++
	}

	result := &domain.RunResult{
		Success:  runErr == nil && stats.Errors == 0,
		Stats:    stats,
		Duration: time.Since(start).Seconds(),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	p.logger.Info("run finished",
		"success", result.Success,
		"filings", stats.FilingsListed,
		"pages_uploaded", stats.PagesUploaded,
		"pages_skipped", stats.PagesSkipped,
		"batches", stats.BatchesSubmitted,
		"errors", stats.Errors,
		"duration_seconds", result.Duration)
	return result
}

// processFiling runs one filing through fetch, parse, normalize, segment and
// upload.
func (p *Pipeline) processFiling(ctx context.Context, filing domain.FilingDescriptor, stats *domain.RunStats) error {
	cached := false
	if p.cache != nil {
		_, cached = p.cache.Get(filing.SourceURL)
	}

	raw, err := p.catalog.FetchArchive(ctx, filing)
	if err != nil {
		return fmt.Errorf("fetching archive: %w", err)
	}
	if cached {
		stats.ArchivesCached++
	} else {
		stats.ArchivesDownloaded++
	}

	parsed := p.parser.Parse(filing.AccessionNumber, raw)
	if filing.CompanyName == "" {
		filing.CompanyName = parsed.CompanyName
	}
	stats.SubDocuments += len(parsed.Documents)
	stats.SubDocumentsSkipped += parsed.Skipped

	// A failed sub-document is counted and abandoned; the filing's remaining
	// documents still run.
	for _, doc := range parsed.Documents {
		if err := p.processDocument(ctx, filing, doc, stats); err != nil {
			p.logger.Error("sub-document abandoned",
				"accession_number", filing.AccessionNumber,
				"sequence", doc.Sequence,
				"error", err)
			stats.Errors++
		}
	}
	return nil
}

// processDocument turns one sub-document into pages and hands them to the
// uploader. Only the primary document (sequence 1) is uploaded; pages of
// supporting documents are recorded as processed so reruns skip them.
func (p *Pipeline) processDocument(ctx context.Context, filing domain.FilingDescriptor, doc domain.SubDocument, stats *domain.RunStats) error {
	normaliser := p.registry.Get(doc.Extension)
	if normaliser == nil {
		stats.SubDocumentsSkipped++
		return nil
	}

	text := normaliser.Normalise(doc.Body)
	segments := p.segmenter.Segment(text)
	stats.PagesSegmented += len(segments)

	if doc.Sequence != 1 {
		ids := make([]string, len(segments))
		for i := range segments {
			ids[i] = domain.ItemID(doc.AccessionNumber, doc.Sequence, i+1)
		}
		return p.uploader.MarkProcessed(ctx, ids, stats)
	}

	for i, content := range segments {
		page := domain.Page{
			AccessionNumber: doc.AccessionNumber,
			Sequence:        doc.Sequence,
			Index:           i + 1,
			Title:           pageTitle(doc.Filename, i+1, content),
			Content:         content,
		}
		item := domain.NewIndexItem(filing, page, p.cfg.ACL)
		if err := p.uploader.Enqueue(ctx, item, stats); err != nil {
			return err
		}
	}
	// Batches never span sub-documents.
	return p.uploader.Flush(ctx, stats)
}

// pageTitle derives a page's title from its first non-blank line, falling
// back to "{filename} p.{index}" when the line is missing or too long.
func pageTitle(filename string, index int, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxTitleRunes {
			return line
		}
		break
	}
	return fmt.Sprintf("%s p.%d", filename, index)
}
