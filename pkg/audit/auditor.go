package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kass/go-geo-audit/pkg/correlate"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// ErrNoData is returned when a run produced no measurement records
var ErrNoData = errors.New("no measurement records")

// GroundTruthSource supplies surveyed test points
type GroundTruthSource interface {
	TestPoints(ctx context.Context) ([]models.TestPointRow, error)
}

// MeasurementSource supplies device-reported fixes
type MeasurementSource interface {
	Fixes(ctx context.Context) ([]models.ReportedFix, error)
}

// Sources are the inputs of one audit run
type Sources struct {
	GroundTruth  GroundTruthSource
	Measurements MeasurementSource
}

// Result is the outcome of an audit run
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Truth      *groundtruth.Store
	BuildStats groundtruth.BuildStats
	// TruthErr is set when ground truth could not be loaded and the run
	// continued against an empty store
	TruthErr error

	Diagnostics correlate.Diagnostics
	Records     *Set
	Thresholds  stats.Thresholds
}

// Summary summarizes the records selected by keep
func (r *Result) Summary(keep Predicate) stats.Summary {
	return stats.Summarize(r.Records.Subset(keep).Records(), r.Thresholds)
}

// Groups aggregates the records selected by keep by key
func (r *Result) Groups(keep Predicate, key, breakdown stats.KeyFunc) []stats.Group {
	return stats.GroupBy(r.Records.Subset(keep).Records(), key, breakdown, r.Thresholds)
}

// Auditor runs the load, correlate and score pipeline
type Auditor struct {
	logger     *zap.Logger
	thresholds stats.Thresholds
}

// NewAuditor creates an auditor; a nil logger discards output
func NewAuditor(logger *zap.Logger, th stats.Thresholds) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{logger: logger, thresholds: th}
}

// Run loads ground truth and measurements concurrently, then correlates them.
// A ground truth failure degrades to an empty store; a measurement failure
// fails the run.
func (a *Auditor) Run(ctx context.Context, src Sources) (*Result, error) {
	if src.Measurements == nil {
		return nil, fmt.Errorf("failed to run audit: %w", ErrNoData)
	}

	res := &Result{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		Thresholds: a.thresholds,
	}
	log := a.logger.With(zap.String("run_id", res.RunID))

	var (
		rows  []models.TestPointRow
		fixes []models.ReportedFix
	)

	eg, egCtx := errgroup.WithContext(ctx)
	if src.GroundTruth != nil {
		eg.Go(func() error {
			var err error
			rows, err = src.GroundTruth.TestPoints(egCtx)
			if err != nil {
				// not fatal; the run continues without ground truth
				res.TruthErr = err
			}
			return nil
		})
	} else {
		res.TruthErr = errors.New("no ground truth source configured")
	}
	eg.Go(func() error {
		var err error
		fixes, err = src.Measurements.Fixes(egCtx)
		if err != nil {
			return fmt.Errorf("failed to load measurements: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if res.TruthErr != nil {
		log.Warn("Ground truth unavailable, continuing without it", zap.Error(res.TruthErr))
		res.Truth = groundtruth.Empty()
	} else {
		res.Truth, res.BuildStats = groundtruth.Build(rows)
		log.Info("Ground truth loaded",
			zap.Int("rows", res.BuildStats.Rows),
			zap.Int("points", res.BuildStats.Loaded),
			zap.Int("skipped", res.BuildStats.Skipped),
			zap.Int("duplicates", res.BuildStats.Duplicates))
		if res.BuildStats.Duplicates > 0 {
			log.Warn("Duplicate test point IDs, last row wins", zap.Strings("ids", res.BuildStats.DuplicateIDs))
		}
	}

	if len(fixes) == 0 {
		return nil, fmt.Errorf("failed to run audit: %w", ErrNoData)
	}

	records, diag := correlate.Correlate(fixes, res.Truth)
	res.Records = NewSet(records)
	res.Diagnostics = diag
	res.Duration = time.Since(res.StartedAt)

	log.Info("Audit complete",
		zap.Int("records", diag.Total),
		zap.Int("matched", diag.Matched),
		zap.Int("unmatched", diag.Unmatched),
		zap.Duration("duration", res.Duration))
	if len(diag.MissingIDs) > 0 {
		log.Debug("Point IDs without ground truth", zap.Strings("ids", diag.MissingIDs))
	}
	return res, nil
}
