package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

const (
	defaultBatchSize   = 20
	defaultMaxAttempts = 3
	defaultUploadDelay = 5 * time.Second
)

// UploaderConfig tunes batching and retry behavior.
type UploaderConfig struct {
	// BatchSize is the number of items per upload call.
	BatchSize int
	// MaxAttempts bounds upload retries per batch.
	MaxAttempts int
	// RetryDelay is the pause between upload attempts.
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Uploader accumulates index items into fixed-size batches, submits them and
// records confirmed ids in the processed ledger. It is the only component
// that mutates the ledger.
type Uploader struct {
	indexer driven.BatchIndexer
	ledger  driven.ProcessedLedger
	cfg     UploaderConfig
	logger  *slog.Logger

	pending []*domain.IndexItem
}

// NewUploader creates an Uploader. Zero config values take defaults.
func NewUploader(indexer driven.BatchIndexer, ledger driven.ProcessedLedger, cfg UploaderConfig) *Uploader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultUploadDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		indexer: indexer,
		ledger:  ledger,
		cfg:     cfg,
		logger:  logger.With("service", "uploader"),
	}
}

// Enqueue adds one item to the current batch, submitting when the batch is
// full. Items already in the ledger are skipped without upload.
func (u *Uploader) Enqueue(ctx context.Context, item *domain.IndexItem, stats *domain.RunStats) error {
	if u.ledger.Contains(item.ID) {
		stats.PagesSkipped++
		return nil
	}
	u.pending = append(u.pending, item)
	if len(u.pending) >= u.cfg.BatchSize {
		return u.Flush(ctx, stats)
	}
	return nil
}

// Flush submits the pending partial batch. A no-op when nothing is pending.
func (u *Uploader) Flush(ctx context.Context, stats *domain.RunStats) error {
	if len(u.pending) == 0 {
		return nil
	}
	batch := u.pending
	u.pending = nil
	return u.submit(ctx, batch, stats)
}

// MarkProcessed records ids in the ledger without uploading them, for pages
// that must never be submitted but should not be revisited on a rerun.
func (u *Uploader) MarkProcessed(ctx context.Context, ids []string, stats *domain.RunStats) error {
	fresh := ids[:0:0]
	for _, id := range ids {
		if !u.ledger.Contains(id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := u.ledger.MarkBatch(ctx, fresh); err != nil {
		return fmt.Errorf("marking %d ids processed: %w", len(fresh), err)
	}
	stats.PagesSkipped += len(fresh)
	return nil
}

// submit uploads one batch with bounded retries. After the last failed
// attempt the batch is abandoned: its ids stay out of the ledger and will be
// retried on the next run.
func (u *Uploader) submit(ctx context.Context, batch []*domain.IndexItem, stats *domain.RunStats) error {
	var lastErr error
	for attempt := 1; attempt <= u.cfg.MaxAttempts; attempt++ {
		lastErr = u.indexer.IndexBatch(ctx, batch)
		if lastErr == nil {
			ids := make([]string, len(batch))
			for i, item := range batch {
				ids[i] = item.ID
			}
			if err := u.ledger.MarkBatch(ctx, ids); err != nil {
				return fmt.Errorf("recording uploaded batch: %w", err)
			}
			stats.BatchesSubmitted++
			stats.PagesUploaded += len(batch)
			u.logger.Debug("batch uploaded", "items", len(batch), "attempt", attempt)
			return nil
		}

		if attempt < u.cfg.MaxAttempts {
			u.logger.Warn("batch upload failed, retrying",
				"attempt", attempt,
				"items", len(batch),
				"error", lastErr)
			select {
			case <-ctx.Done():
				return fmt.Errorf("upload cancelled: %w", ctx.Err())
			case <-time.After(u.cfg.RetryDelay):
			}
		}
	}

	stats.BatchesFailed++
	u.logger.Error("batch abandoned after retries",
		"attempts", u.cfg.MaxAttempts,
		"items", len(batch),
		"error", lastErr)
	return fmt.Errorf("uploading batch after %d attempts: %w", u.cfg.MaxAttempts, lastErr)
}
