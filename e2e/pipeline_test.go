// Package e2e runs Gherkin scenarios for the ledger's idempotence and
// resumability guarantees against an in-memory catalog and indexer with a
// real on-disk ledger.
package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/edgar-core/internal/adapters/driven/ledgerfile"
	"github.com/custodia-labs/edgar-core/internal/archive"
	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/edgar-core/internal/core/services"
	"github.com/custodia-labs/edgar-core/internal/normalisers"
	"github.com/custodia-labs/edgar-core/internal/segmentation"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

const accession = "0000320193-24-000001"

// recordingIndexer accepts batches until failAfter successful batches have
// been seen in the current run, then rejects everything. Accepted ids
// accumulate across runs for the duplicate check.
type recordingIndexer struct {
	mu        sync.Mutex
	uploaded  []string
	failAfter int // 0 means never fail
	batches   int
}

func (r *recordingIndexer) IndexBatch(ctx context.Context, items []*domain.IndexItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter > 0 && r.batches >= r.failAfter {
		return domain.ErrBatchRejected
	}
	r.batches++
	for _, item := range items {
		r.uploaded = append(r.uploaded, item.ID)
	}
	return nil
}

func (r *recordingIndexer) HealthCheck(ctx context.Context) error { return nil }

type pipelineWorld struct {
	catalog    *mocks.MockCatalogClient
	indexer    *recordingIndexer
	workDir    string
	ledgerPath string
	lastStats  domain.RunStats
	logger     *slog.Logger
}

func (w *pipelineWorld) aCatalogWithOneFilingOfPages(pages int) error {
	var sb strings.Builder
	sb.WriteString("COMPANY CONFORMED NAME: Example Corp\n")
	sb.WriteString("<DOCUMENT>\n<TYPE>10-K\n<SEQUENCE>1\n<FILENAME>annual.txt\n<TEXT>\n")
	for i := 1; i <= pages; i++ {
		if i > 1 {
			sb.WriteString("<PAGE>\n")
		}
		fmt.Fprintf(&sb, "Body of page %d.\n", i)
	}
	sb.WriteString("</TEXT>\n</DOCUMENT>\n")

	w.catalog = mocks.NewMockCatalogClient()
	w.catalog.Tickers["EXMP"] = "0000320193"
	w.catalog.Filings["0000320193"] = []domain.FilingDescriptor{{
		EntityID:        "0000320193",
		Ticker:          "EXMP",
		AccessionNumber: accession,
		FormType:        "10-K",
		SourceURL:       "https://example.com/" + accession + ".txt",
	}}
	w.catalog.Archives[accession] = sb.String()
	w.indexer = &recordingIndexer{}
	return nil
}

func (w *pipelineWorld) anEmptyProcessedLedger() error {
	w.ledgerPath = filepath.Join(w.workDir, "processed.log")
	return os.RemoveAll(w.ledgerPath)
}

// run executes one pipeline run against a freshly reopened ledger, proving
// the processed set survives process boundaries.
func (w *pipelineWorld) run(failAfter int) error {
	ledger, err := ledgerfile.Open(w.ledgerPath, w.logger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	w.indexer.failAfter = failAfter
	w.indexer.batches = 0

	uploader := services.NewUploader(w.indexer, ledger, services.UploaderConfig{
		MaxAttempts: 1,
		Logger:      w.logger,
	})
	pipe := services.NewPipeline(
		w.catalog,
		nil,
		archive.NewParser(w.logger),
		normalisers.DefaultRegistry(),
		segmentation.New(segmentation.Config{Logger: w.logger}),
		uploader,
		services.PipelineConfig{Tickers: []string{"EXMP"}, Logger: w.logger},
	)

	result := pipe.Run(context.Background())
	w.lastStats = result.Stats
	return nil
}

func (w *pipelineWorld) thePipelineRuns() error {
	return w.run(0)
}

func (w *pipelineWorld) thePipelineRunsWithFailingIndexer(after int) error {
	return w.run(after)
}

func (w *pipelineWorld) pagesAreUploadedInBatches(pages, batches int) error {
	if w.lastStats.PagesUploaded != pages {
		return fmt.Errorf("uploaded %d pages, want %d", w.lastStats.PagesUploaded, pages)
	}
	if w.lastStats.BatchesSubmitted != batches {
		return fmt.Errorf("submitted %d batches, want %d", w.lastStats.BatchesSubmitted, batches)
	}
	return nil
}

func (w *pipelineWorld) theLedgerContainsItems(n int) error {
	ledger, err := ledgerfile.Open(w.ledgerPath, w.logger)
	if err != nil {
		return err
	}
	defer ledger.Close()
	if ledger.Len() != n {
		return fmt.Errorf("ledger holds %d items, want %d", ledger.Len(), n)
	}
	return nil
}

func (w *pipelineWorld) noPageWasUploadedTwice() error {
	seen := make(map[string]struct{}, len(w.indexer.uploaded))
	for _, id := range w.indexer.uploaded {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("id %s uploaded more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func InitializeScenario(sc *godog.ScenarioContext) {
	w := &pipelineWorld{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "edgar-e2e-*")
		if err != nil {
			return ctx, err
		}
		w.workDir = dir
		w.lastStats = domain.RunStats{}
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		return ctx, os.RemoveAll(w.workDir)
	})

	sc.Step(`^a catalog with one filing of (\d+) pages$`, w.aCatalogWithOneFilingOfPages)
	sc.Step(`^an empty processed ledger$`, w.anEmptyProcessedLedger)
	sc.Step(`^the pipeline runs$`, w.thePipelineRuns)
	sc.Step(`^the pipeline runs with an indexer that fails after (\d+) batch(?:es)?$`, w.thePipelineRunsWithFailingIndexer)
	sc.Step(`^(\d+) pages are uploaded in (\d+) batches$`, w.pagesAreUploadedInBatches)
	sc.Step(`^the ledger contains (\d+) items$`, w.theLedgerContainsItems)
	sc.Step(`^no page was uploaded twice$`, w.noPageWasUploadedTwice)
}
