package stats

import (
	"math"

	"github.com/kass/go-geo-audit/pkg/models"
)

const (
	HorizontalFailureMeters = 50.0
	VerticalFailureMeters   = 5.0
	KPIPercentile           = 80.0
	BiasMaterialityMeters   = 0.5
)

// Thresholds are the pass/fail limits and KPI rank applied to scored records
type Thresholds struct {
	HorizontalMeters float64 `yaml:"horizontal_meters" json:"horizontalMeters"`
	VerticalMeters   float64 `yaml:"vertical_meters" json:"verticalMeters"`
	Percentile       float64 `yaml:"percentile" json:"percentile"`
}

// DefaultThresholds returns the standard 50 m / 5 m / P80 limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		HorizontalMeters: HorizontalFailureMeters,
		VerticalMeters:   VerticalFailureMeters,
		Percentile:       KPIPercentile,
	}
}

// Outcome is the overall classification of a record
type Outcome string

const (
	OutcomeUnscored Outcome = "UNSCORED"
	OutcomePass     Outcome = "PASS"
	OutcomeFail     Outcome = "FAIL"
)

// Classification holds per-axis failure flags. Unscored records fail neither axis.
type Classification struct {
	Scored         bool
	HorizontalFail bool
	VerticalFail   bool
}

// Failed reports whether either axis failed
func (c Classification) Failed() bool {
	return c.HorizontalFail || c.VerticalFail
}

// Outcome collapses the flags into pass, fail or unscored
func (c Classification) Outcome() Outcome {
	switch {
	case !c.Scored:
		return OutcomeUnscored
	case c.Failed():
		return OutcomeFail
	default:
		return OutcomePass
	}
}

// IsHorizontalFailure reports a horizontal error strictly above the limit
func (th Thresholds) IsHorizontalFailure(errMeters float64) bool {
	return errMeters > th.HorizontalMeters
}

// IsVerticalFailure reports an absolute vertical error strictly above the limit
func (th Thresholds) IsVerticalFailure(errMeters float64) bool {
	return math.Abs(errMeters) > th.VerticalMeters
}

// Classify applies the thresholds to one record
func Classify(r models.ScoredRecord, th Thresholds) Classification {
	if r.HorizontalErrorMeters == nil || r.VerticalErrorMeters == nil {
		return Classification{}
	}
	return Classification{
		Scored:         true,
		HorizontalFail: th.IsHorizontalFailure(*r.HorizontalErrorMeters),
		VerticalFail:   th.IsVerticalFailure(*r.VerticalErrorMeters),
	}
}

// Failures returns the records failing either axis, in input order
func Failures(records []models.ScoredRecord, th Thresholds) []models.ScoredRecord {
	var failures []models.ScoredRecord
	for _, r := range records {
		if Classify(r, th).Failed() {
			failures = append(failures, r)
		}
	}
	return failures
}
