// Package main runs the probabilistic sensitivity analysis and writes the
// draw table of every jurisdiction.
// Executes: load model → sample → simulate → write CSV → persist
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"trd-cea-lab/internal/config"
	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/idhash"
	"trd-cea-lab/internal/observability"
	"trd-cea-lab/internal/simulation"
	"trd-cea-lab/internal/tableio"
)

func main() {
	rt, err := config.LoadRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	modelPath := flag.String("model", "configs/model.example.yaml", "Model YAML document")
	draws := flag.Int("draws", 0, "PSA draws (0 = simulation.draws from the model)")
	seedFlag := flag.String("seed", "", "Master seed (empty = simulation.seed from the model)")
	jurisdiction := flag.String("jurisdiction", "", "Simulate only this jurisdiction (empty = all)")
	workers := flag.Int("workers", rt.Workers, "Worker goroutines (0 = GOMAXPROCS)")
	outputDir := flag.String("output-dir", rt.OutputDir, "Output directory for draw tables")

	// Storage
	clickhouseDSN := flag.String("clickhouse-dsn", rt.ClickHouseDSN, "ClickHouse connection string for draws and parameters")
	postgresDSN := flag.String("postgres-dsn", rt.PostgresDSN, "PostgreSQL connection string for run metadata")
	sqlitePath := flag.String("sqlite-path", rt.SQLitePath, "SQLite file for a local run store")

	metricsFile := flag.String("metrics-file", rt.MetricsFile, "Write Prometheus metrics to this textfile")
	logLevel := flag.String("log-level", rt.LogLevel, "Log level")
	flag.Parse()

	logger, err := observability.NewLogger(os.Stderr, *logLevel, "simulate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("Received signal, cancelling simulation...")
		cancel()
	}()

	opts := runOptions{
		modelPath:     *modelPath,
		draws:         *draws,
		seed:          *seedFlag,
		jurisdiction:  *jurisdiction,
		workers:       *workers,
		outputDir:     *outputDir,
		clickhouseDSN: *clickhouseDSN,
		postgresDSN:   *postgresDSN,
		sqlitePath:    *sqlitePath,
	}
	if err := run(ctx, opts, logger); err != nil {
		logger.Error().Err(err).Msg("simulation failed")
		os.Exit(1)
	}

	observability.MarkSuccess(time.Now().Unix())
	if *metricsFile != "" {
		if err := observability.DefaultMetrics.WriteTextfile(*metricsFile); err != nil {
			logger.Error().Err(err).Msg("write metrics")
			os.Exit(1)
		}
	}
}

type runOptions struct {
	modelPath     string
	draws         int
	seed          string
	jurisdiction  string
	workers       int
	outputDir     string
	clickhouseDSN string
	postgresDSN   string
	sqlitePath    string
}

func run(ctx context.Context, opts runOptions, logger zerolog.Logger) error {
	// Phase 1: Model
	logger.Info().Str("model", opts.modelPath).Msg("Phase 1: Loading model...")
	document, err := os.ReadFile(opts.modelPath)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	model, err := config.Parse(document)
	if err != nil {
		return err
	}
	configHash := idhash.ComputeConfigHash(document)

	settings := model.Simulation
	if opts.draws > 0 {
		settings.Draws = opts.draws
	}
	if opts.seed != "" {
		seed, err := strconv.ParseUint(opts.seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid --seed %q: %w", opts.seed, err)
		}
		settings.Seed = seed
	}

	jurisdictions := model.Jurisdictions
	if opts.jurisdiction != "" {
		j, ok := model.Jurisdiction(opts.jurisdiction)
		if !ok {
			return fmt.Errorf("unknown jurisdiction %q", opts.jurisdiction)
		}
		jurisdictions = []domain.Jurisdiction{j}
	}

	// Phase 2: Simulation
	logger.Info().
		Int("draws", settings.Draws).
		Uint64("seed", settings.Seed).
		Int("strategies", len(model.Strategies)).
		Int("jurisdictions", len(jurisdictions)).
		Msg("Phase 2: Running PSA...")
	runner := simulation.NewRunner(simulation.RunnerOptions{
		Strategies:    model.StrategyConfig,
		Jurisdictions: jurisdictions,
		Settings:      settings,
		Workers:       opts.workers,
		Logger:        logger,
	})
	result, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("phase 2 (simulation) failed: %w", err)
	}

	// Phase 3: Draw tables
	logger.Info().Str("dir", opts.outputDir).Msg("Phase 3: Writing draw tables...")
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, j := range jurisdictions {
		path := filepath.Join(opts.outputDir, fmt.Sprintf("draws_%s.csv", j.ID))
		if err := tableio.WriteDrawsFile(path, result.Draws[j.ID]); err != nil {
			return err
		}
		logger.Info().Str("path", path).Int("rows", len(result.Draws[j.ID])).Msg("  draw table written")
	}
	for _, j := range jurisdictions {
		path := filepath.Join(opts.outputDir, fmt.Sprintf("parameters_%s.csv", j.ID))
		if err := tableio.WriteParametersFile(path, result.Parameters[j.ID]); err != nil {
			return err
		}
		logger.Info().Str("path", path).Int("samples", len(result.Parameters[j.ID])).Msg("  parameter trace written")
	}

	// Phase 4: Persistence
	out, err := openSinks(ctx, opts)
	if err != nil {
		return fmt.Errorf("phase 4 (persist) failed: %w", err)
	}
	defer out.close()
	if out.inMemory {
		logger.Info().Msg("Phase 4: Persisting runs (in-memory, no stores configured)...")
	} else {
		logger.Info().Msg("Phase 4: Persisting runs...")
	}

	for _, j := range jurisdictions {
		r := &domain.AnalysisRun{
			RunID:        idhash.ComputeRunID(configHash, j.ID, settings.Seed, settings.Draws).String(),
			ConfigHash:   configHash,
			Jurisdiction: j.ID,
			Seed:         settings.Seed,
			Draws:        settings.Draws,
			CreatedAt:    time.Now().UTC(),
		}
		fresh, err := out.persist(ctx, r, result.Draws[j.ID], result.Parameters[j.ID])
		if err != nil {
			return fmt.Errorf("persist %s: %w", j.ID, err)
		}
		if fresh == 0 {
			logger.Info().Str("run_id", r.RunID).Str("jurisdiction", j.ID).Msg("  run already stored, skipping")
			continue
		}
		logger.Info().Str("run_id", r.RunID).Str("jurisdiction", j.ID).Int("sinks", fresh).Msg("  run stored")
	}
	return nil
}
