package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/custodia-labs/edgar-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/edgar-core/internal/adapters/driven/edgar"
	"github.com/custodia-labs/edgar-core/internal/adapters/driven/graph"
	"github.com/custodia-labs/edgar-core/internal/adapters/driven/ledgerfile"
	"github.com/custodia-labs/edgar-core/internal/adapters/driven/postgres"
	redisledger "github.com/custodia-labs/edgar-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/edgar-core/internal/archive"
	"github.com/custodia-labs/edgar-core/internal/config"
	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
	"github.com/custodia-labs/edgar-core/internal/core/services"
	"github.com/custodia-labs/edgar-core/internal/normalisers"
	"github.com/custodia-labs/edgar-core/internal/runtime"
	"github.com/custodia-labs/edgar-core/internal/segmentation"
)

func main() {
	app := &cli.App{
		Name:  "edgar-core",
		Usage: "Filing ingestion and page-chunking pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the full ingestion pipeline",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "ticker",
						Usage: "Tickers to ingest (overrides the config file)",
					},
					&cli.IntFlag{
						Name:  "max-filings",
						Usage: "Cap filings per entity (0 = all)",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Print ledger and archive cache statistics",
				Action: statusCommand,
			},
			{
				Name:      "normalise",
				Usage:     "Normalise a local markup file and print the result",
				ArgsUsage: "<file>",
				Action:    normaliseCommand,
			},
			{
				Name:      "segment",
				Usage:     "Segment a local normalised text file into pages",
				ArgsUsage: "<file>",
				Action:    segmentCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads the config and builds the logger shared by all commands.
func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if v := c.String("log-level"); v != "" {
		level = v
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runCommand(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	if tickers := c.StringSlice("ticker"); len(tickers) > 0 {
		cfg.Run.Tickers = tickers
	}
	if c.IsSet("max-filings") {
		cfg.Run.MaxFilings = c.Int("max-filings")
	}
	if len(cfg.Run.Tickers) == 0 {
		return fmt.Errorf("no tickers configured: %w", domain.ErrInvalidInput)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := edgar.NewDiskCache(cfg.Catalog.CacheDir)
	if err != nil {
		return err
	}

	catalog, err := edgar.NewClient(edgar.Config{
		UserAgent:  cfg.Catalog.UserAgent,
		FormTypes:  cfg.Run.FormTypes,
		RetryDelay: cfg.CatalogRetryDelay(),
		MaxRetries: cfg.Catalog.MaxRetries,
		Cache:      cache,
		Rates:      runtime.NewRateCounter(0),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ledger, lock, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	tokens, err := auth.NewStaticTokenProvider(cfg.Graph.Token)
	if err != nil {
		return err
	}
	indexer, err := graph.NewIndexer(graph.Config{
		BaseURL:      cfg.Graph.BaseURL,
		ConnectionID: cfg.Graph.ConnectionID,
		Tokens:       tokens,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	if err := indexer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("index endpoint unavailable: %w", err)
	}

	uploader := services.NewUploader(indexer, ledger, services.UploaderConfig{
		BatchSize:   cfg.Upload.BatchSize,
		MaxAttempts: cfg.Upload.MaxAttempts,
		RetryDelay:  cfg.UploadRetryDelay(),
		Logger:      logger,
	})

	pipeline := services.NewPipeline(
		catalog,
		cache,
		archive.NewParser(logger),
		normalisers.DefaultRegistry(),
		segmentation.New(segmentation.Config{Logger: logger}),
		uploader,
		services.PipelineConfig{
			Tickers:    cfg.Run.Tickers,
			ACL:        []domain.ACLEntry{{Type: "everyone", Value: "everyone", AccessType: "grant"}},
			MaxFilings: cfg.Run.MaxFilings,
			Logger:     logger,
		},
	)

	var result *domain.RunResult
	if lock != nil {
		result, err = pipeline.RunLocked(ctx, lock, runLockTTL)
		if err != nil {
			return err
		}
	} else {
		result = pipeline.Run(ctx)
	}
	if !result.Success {
		return fmt.Errorf("run finished with %d errors", result.Stats.Errors)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	ledger, _, err := openLedger(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer ledger.Close()
	fmt.Printf("ledger backend: %s\n", cfg.Ledger.Backend)
	fmt.Printf("processed items: %d\n", ledger.Len())

	cache, err := edgar.NewDiskCache(cfg.Catalog.CacheDir)
	if err != nil {
		return err
	}
	n, err := cache.Len()
	if err != nil {
		return err
	}
	fmt.Printf("cached archives: %d\n", n)
	return nil
}

func normaliseCommand(c *cli.Context) error {
	_, _, err := setup(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	normaliser := normalisers.DefaultRegistry().Get(ext)
	if normaliser == nil {
		return fmt.Errorf("no normaliser for extension %q: %w", ext, domain.ErrInvalidInput)
	}

	fmt.Println(normaliser.Normalise(string(data)))
	return nil
}

func segmentCommand(c *cli.Context) error {
	_, logger, err := setup(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	pages := segmentation.New(segmentation.Config{Logger: logger}).Segment(string(data))
	for i, page := range pages {
		fmt.Printf("--- page %d (%d chars) ---\n%s\n", i+1, len(page), page)
	}
	fmt.Printf("%d pages\n", len(pages))
	return nil
}

// runLockTTL bounds how long a crashed run can block the next one on
// backends with expiring locks.
const runLockTTL = time.Hour

// openLedger builds the configured processed-ledger backend. Shared
// backends also return a run lock; the file backend is single-host and
// runs unlocked.
func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.ProcessedLedger, driven.RunLock, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerFile:
		ledger, err := ledgerfile.Open(cfg.Ledger.Path, logger)
		return ledger, nil, err
	case config.LedgerPostgres:
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.Ledger.PostgresURL))
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		ledger, err := postgres.OpenLedgerStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return ledger, postgres.NewAdvisoryLock(db), nil
	case config.LedgerRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Ledger.RedisAddr})
		ledger, err := redisledger.OpenLedgerStore(ctx, client, cfg.Ledger.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		return ledger, redisledger.NewLock(client), nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q: %w", cfg.Ledger.Backend, domain.ErrInvalidInput)
	}
}
