// Package ledgerfile implements the processed ledger port as an append-only
// newline-delimited file. The whole file is loaded at open, ids are appended
// and fsynced per batch, and the file is never rewritten or compacted.
package ledgerfile

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// Ledger is the file-backed processed set.
type Ledger struct {
	mu     sync.RWMutex
	file   *os.File
	seen   map[string]struct{}
	closed bool
	logger *slog.Logger
}

var _ driven.ProcessedLedger = (*Ledger)(nil)

// Open loads an existing ledger file or creates an empty one. Blank lines
// are tolerated: an interrupted append leaves at most a trailing partial
// line, which is dropped on the next load.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		seen[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	logger.Info("ledger loaded", "path", path, "entries", len(seen))
	return &Ledger{file: file, seen: seen, logger: logger}, nil
}

func (l *Ledger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[id]
	return ok
}

// MarkBatch appends the ids and syncs the file before updating the
// in-memory set, so the durable record never lags what the process
// believes is processed.
func (l *Ledger) MarkBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return domain.ErrLedgerClosed
	}

	var sb strings.Builder
	for _, id := range ids {
		if _, ok := l.seen[id]; ok {
			continue
		}
		sb.WriteString(id)
		sb.WriteByte('\n')
	}
	if sb.Len() == 0 {
		return nil
	}

	if _, err := l.file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("appending to ledger: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing ledger: %w", err)
	}

	for _, id := range ids {
		l.seen[id] = struct{}{}
	}
	return nil
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen)
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}
