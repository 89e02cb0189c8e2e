// Package main runs the decision analysis of a draw table.
// Executes: load draws → NMB/CEAC/CEAF/EVPI → VBP → equity/ICER → PRCC → reports
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"trd-cea-lab/internal/config"
	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/draws"
	"trd-cea-lab/internal/idhash"
	"trd-cea-lab/internal/observability"
	"trd-cea-lab/internal/orchestrator"
	"trd-cea-lab/internal/reporting"
	"trd-cea-lab/internal/storage"
	chstore "trd-cea-lab/internal/storage/clickhouse"
	"trd-cea-lab/internal/storage/memory"
	"trd-cea-lab/internal/storage/migrations"
	pgstore "trd-cea-lab/internal/storage/postgres"
	sqlitestore "trd-cea-lab/internal/storage/sqlite"
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
	drawsFile := flag.String("draws", "", "Draw table CSV (draw,strategy,cost,effect,perspective)")
	paramsFile := flag.String("parameters", "", "Parameter sample CSV for PRCC (optional)")
	runID := flag.String("run-id", "", "Load draws and parameters of this run from a store")
	jurisdiction := flag.String("jurisdiction", "", "Jurisdiction of the draws (default: the run's, else the first in the model)")
	outputDir := flag.String("output-dir", rt.OutputDir, "Output directory for result tables")

	// Storage
	postgresDSN := flag.String("postgres-dsn", rt.PostgresDSN, "PostgreSQL connection string for result rows")
	clickhouseDSN := flag.String("clickhouse-dsn", rt.ClickHouseDSN, "ClickHouse connection string to load draws by run id")
	sqlitePath := flag.String("sqlite-path", rt.SQLitePath, "SQLite run store to load draws by run id")

	metricsFile := flag.String("metrics-file", rt.MetricsFile, "Write Prometheus metrics to this textfile")
	logLevel := flag.String("log-level", rt.LogLevel, "Log level")
	flag.Parse()

	logger, err := observability.NewLogger(os.Stderr, *logLevel, "analyze")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Validate required flags
	if *drawsFile == "" && *runID == "" {
		logger.Fatal().Msg("--draws or --run-id is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("Received signal, shutting down...")
		cancel()
	}()

	opts := runOptions{
		modelPath:     *modelPath,
		drawsFile:     *drawsFile,
		paramsFile:    *paramsFile,
		runID:         *runID,
		jurisdiction:  *jurisdiction,
		outputDir:     *outputDir,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		sqlitePath:    *sqlitePath,
	}
	if err := run(ctx, opts, logger); err != nil {
		logger.Error().Err(err).Msg("analysis failed")
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
	drawsFile     string
	paramsFile    string
	runID         string
	jurisdiction  string
	outputDir     string
	postgresDSN   string
	clickhouseDSN string
	sqlitePath    string
}

func run(ctx context.Context, opts runOptions, logger zerolog.Logger) error {
	document, err := os.ReadFile(opts.modelPath)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	model, err := config.Parse(document)
	if err != nil {
		return err
	}
	configHash := idhash.ComputeConfigHash(document)

	// Load inputs
	in, err := loadInputs(ctx, opts, logger)
	if err != nil {
		return err
	}

	jurID := opts.jurisdiction
	if jurID == "" && in.run != nil {
		jurID = in.run.Jurisdiction
	}
	if jurID == "" {
		jurID = model.Jurisdictions[0].ID
	}
	jur, ok := model.Jurisdiction(jurID)
	if !ok {
		return fmt.Errorf("unknown jurisdiction %q", jurID)
	}

	table, err := draws.New(in.records)
	if err != nil {
		return fmt.Errorf("draw table: %w", err)
	}

	runID := opts.runID
	if runID == "" {
		runID = idhash.ComputeRunID(configHash, jur.ID, model.Simulation.Seed, model.Simulation.Draws).String()
	}
	logger.Info().
		Str("run_id", runID).
		Str("jurisdiction", jur.ID).
		Int("records", table.Len()).
		Int("parameter_samples", len(in.params)).
		Msg("inputs loaded")

	// Result stores
	orchOpts := orchestrator.Options{
		Strategies:   model.StrategyConfig,
		Analysis:     model.Analysis,
		Jurisdiction: jur,
		Parameters:   in.params,
		RunID:        runID,
		Logger:       logger,
	}
	if opts.postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}

		// Result rows reference the run.
		r := in.run
		if r == nil {
			r = &domain.AnalysisRun{
				RunID:        runID,
				ConfigHash:   configHash,
				Jurisdiction: jur.ID,
				Seed:         model.Simulation.Seed,
				Draws:        countDraws(in.records),
				CreatedAt:    time.Now().UTC(),
			}
		}
		if err := pgstore.NewAnalysisRunStore(pool).Insert(ctx, r); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("store run: %w", err)
		}

		orchOpts.CurveStore = pgstore.NewCurveStore(pool)
		orchOpts.ThresholdStore = pgstore.NewThresholdStore(pool)
		orchOpts.SensitivityStore = pgstore.NewSensitivityStore(pool)
	} else {
		logger.Debug().Msg("no postgres DSN, result rows kept in memory")
		orchOpts.CurveStore = memory.NewCurveStore()
		orchOpts.ThresholdStore = memory.NewThresholdStore()
		orchOpts.SensitivityStore = memory.NewSensitivityStore()
	}

	result, err := orchestrator.New(orchOpts).Run(ctx, table)
	if err != nil {
		return err
	}

	// Reports
	w := reporting.NewWriter(opts.outputDir)
	report := w.NewReport(runID, result.Perspectives)
	report.ConfigHash = configHash
	report.Jurisdiction = jur.ID
	report.Draws = countDraws(in.records)
	paths, err := w.Write(report)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Info().Str("path", p).Msg("  wrote")
	}
	return nil
}

type inputs struct {
	run     *domain.AnalysisRun // nil when read from files
	records []domain.DrawRecord
	params  []domain.ParameterSample
}

// loadInputs reads the draw table and parameter trace from files, or from
// the ClickHouse or SQLite store when only a run id is given.
func loadInputs(ctx context.Context, opts runOptions, logger zerolog.Logger) (*inputs, error) {
	in := &inputs{}
	if opts.drawsFile != "" {
		records, err := tableio.ReadDrawsFile(opts.drawsFile)
		if err != nil {
			return nil, err
		}
		in.records = records
		if opts.paramsFile != "" {
			params, err := tableio.ReadParametersFile(opts.paramsFile)
			if err != nil {
				return nil, err
			}
			in.params = params
		}
		return in, nil
	}

	var (
		drawStore  storage.DrawStore
		paramStore storage.ParameterSampleStore
		runStore   storage.AnalysisRunStore
	)
	switch {
	case opts.clickhouseDSN != "":
		conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		drawStore = chstore.NewDrawStore(conn)
		paramStore = chstore.NewParameterSampleStore(conn)
	case opts.sqlitePath != "":
		db, err := sqlitestore.Open(ctx, opts.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		defer db.Close()
		drawStore = sqlitestore.NewDrawStore(db)
		paramStore = sqlitestore.NewParameterSampleStore(db)
		runStore = sqlitestore.NewAnalysisRunStore(db)
	default:
		return nil, errors.New("--run-id needs --clickhouse-dsn or --sqlite-path")
	}

	logger.Info().Str("run_id", opts.runID).Msg("loading draws from store")
	records, err := drawStore.GetByRun(ctx, opts.runID)
	if err != nil {
		return nil, fmt.Errorf("load draws: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: %w", opts.runID, storage.ErrNotFound)
	}
	in.records = records

	if opts.paramsFile != "" {
		in.params, err = tableio.ReadParametersFile(opts.paramsFile)
	} else {
		in.params, err = paramStore.GetByRun(ctx, opts.runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load parameters: %w", err)
	}

	if runStore != nil {
		r, err := runStore.GetByID(ctx, opts.runID)
		switch {
		case err == nil:
			in.run = r
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("load run: %w", err)
		}
	}
	return in, nil
}

func countDraws(records []domain.DrawRecord) int {
	seen := make(map[int]struct{})
	for _, r := range records {
		seen[r.Draw] = struct{}{}
	}
	return len(seen)
}
