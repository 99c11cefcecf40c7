package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/internal/config"
	"github.com/kass/go-geo-audit/internal/logging"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/ingest"
	"github.com/kass/go-geo-audit/pkg/postgis"
)

func main() {
	var (
		configFile = flag.String("c", "geo-audit.yaml", "Config file path")
		inputFile  = flag.String("f", "", "Test point workbook or CSV (default from config)")
		sheet      = flag.String("sheet", "", "Worksheet name (default first sheet)")
		reset      = flag.Bool("reset", false, "Drop and recreate the test_points table")
		snapshot   = flag.String("snapshot", "", "Also write a gob snapshot of the loaded points")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, *inputFile, *sheet, *reset, *snapshot); err != nil {
		logger.Fatal("Load failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, path, sheet string, reset bool, snapshot string) error {
	if path == "" {
		path = cfg.GroundTruth.Path
	}
	if path == "" {
		return errors.New("no input file: pass -f or set ground_truth.path")
	}
	if sheet == "" {
		sheet = cfg.GroundTruth.Sheet
	}

	start := time.Now()
	rows, err := ingest.TestPointFile{Path: path, Sheet: sheet, HeaderRow: cfg.GroundTruth.HeaderRow}.TestPoints(ctx)
	if err != nil {
		return err
	}
	logger.Info("Test points read", zap.String("path", path), zap.Int("rows", len(rows)), zap.Duration("elapsed", time.Since(start)))

	// Deduplicate the same way the audit does before anything is written
	store, st := groundtruth.Build(rows)
	if st.Duplicates > 0 {
		logger.Warn("Duplicate test point IDs, last row wins",
			zap.Int("duplicates", st.Duplicates),
			zap.Strings("ids", st.DuplicateIDs))
	}
	rows = store.Rows()

	db, err := postgis.Open(ctx, cfg.PostGIS, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(ctx, reset); err != nil {
		return err
	}

	start = time.Now()
	inserted, skipped, err := db.BulkInsertTestPoints(ctx, rows)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("Test points loaded",
		zap.Int("inserted", inserted),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", elapsed),
		zap.Float64("rows_per_sec", float64(inserted)/elapsed.Seconds()))

	if err := db.CreateSpatialIndex(ctx); err != nil {
		return err
	}

	ts, err := db.Stats(ctx)
	if err != nil {
		return err
	}
	logger.Info("Table stats", zap.Int64("rows", ts.RowCount), zap.String("database_size", ts.DatabaseSize), zap.String("table_size", ts.TableSize), zap.String("index_size", ts.IndexSize))

	if snapshot != "" {
		if err := store.SaveToFile(snapshot); err != nil {
			return err
		}
		logger.Info("Snapshot written", zap.String("path", snapshot), zap.Int("points", store.Len()))
	}
	return nil
}
