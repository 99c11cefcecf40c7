package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-audit/internal/config"
	"github.com/kass/go-geo-audit/pkg/audit"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/ingest"
	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/postgis"
)

var (
	truthPath    string
	truthDB      bool
	workbookPath string
	groupBy      string

	floorFilter    string
	stageFilter    string
	buildingFilter string
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&truthPath, "truth", "", "Test point workbook or CSV (default from config)")
	cmd.Flags().BoolVar(&truthDB, "truth-db", false, "Read test points from PostGIS")
	cmd.Flags().StringVarP(&workbookPath, "workbook", "w", "", "Measurement workbook or CSV")
	cmd.Flags().StringVarP(&groupBy, "group-by", "g", "", "Record field to group by (default from config)")
	_ = cmd.MarkFlagRequired("workbook")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&floorFilter, "floor", "", "Only records on this floor")
	cmd.Flags().StringVar(&stageFilter, "stage", "", "Only records from this stage")
	cmd.Flags().StringVar(&buildingFilter, "building", "", "Only records in this building")
}

// snapshotSource serves ground truth from a gob snapshot
type snapshotSource struct {
	path string
}

func (s snapshotSource) TestPoints(ctx context.Context) ([]models.TestPointRow, error) {
	store, err := groundtruth.LoadFromFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrDataUnavailable, err)
	}
	return store.Rows(), nil
}

// groundTruthSource picks the test point source: PostGIS when requested, an
// explicit file, the configured file, then the snapshot. It returns nil when
// none is available, which runs the audit without ground truth.
func groundTruthSource(c *config.Config, path string, useDB bool) audit.GroundTruthSource {
	if useDB || c.GroundTruth.UseDB {
		return postgis.Source{Config: c.PostGIS, Logger: logger}
	}
	if path == "" {
		path = c.GroundTruth.Path
	}
	if path != "" {
		return ingest.TestPointFile{Path: path, Sheet: c.GroundTruth.Sheet, HeaderRow: c.GroundTruth.HeaderRow}
	}
	if c.GroundTruth.Snapshot != "" {
		if _, err := os.Stat(c.GroundTruth.Snapshot); err == nil {
			return snapshotSource{path: c.GroundTruth.Snapshot}
		}
	}
	return nil
}

func measurementSource(c *config.Config, path string) audit.MeasurementSource {
	return ingest.CorrelationFile{Path: path, Sheet: c.Workbook.Sheet, HeaderRow: c.Workbook.HeaderRow}
}

func recordFilter() audit.Predicate {
	return audit.All(
		audit.Where("floor", floorFilter),
		audit.Where("stage", stageFilter),
		audit.Where("building", buildingFilter),
	)
}

func groupField() string {
	if groupBy != "" {
		return groupBy
	}
	return cfg.Workbook.GroupBy
}

// runAudit loads and scores the configured inputs
func runAudit(ctx context.Context) (*audit.Result, error) {
	auditor := audit.NewAuditor(logger, cfg.Thresholds)
	res, err := auditor.Run(ctx, audit.Sources{
		GroundTruth:  groundTruthSource(cfg, truthPath, truthDB),
		Measurements: measurementSource(cfg, workbookPath),
	})
	if errors.Is(err, audit.ErrNoData) {
		return nil, fmt.Errorf("no measurement rows found in %s", workbookPath)
	}
	return res, err
}
