package stats

import (
	"strings"

	"github.com/kass/go-geo-audit/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// Summary is the headline accuracy report over a record subset.
//
// Rates divide by Scored, the records that matched ground truth. Unmatched
// records count toward Total and Unmatched only.
type Summary struct {
	Total     int `json:"total"`
	Scored    int `json:"scored"`
	Unmatched int `json:"unmatched"`

	Thresholds Thresholds `json:"thresholds"`

	HorizontalPercentile float64 `json:"horizontalPercentile"`
	VerticalPercentile   float64 `json:"verticalPercentile"`
	MeanHorizontal       float64 `json:"meanHorizontal"`
	MeanVertical         float64 `json:"meanVertical"`

	HorizontalFailures int     `json:"horizontalFailures"`
	VerticalFailures   int     `json:"verticalFailures"`
	AnyFailures        int     `json:"anyFailures"`
	HorizontalFailRate float64 `json:"horizontalFailRate"`
	VerticalFailRate   float64 `json:"verticalFailRate"`
	FailRate           float64 `json:"failRate"`

	WithinUncertainty     int     `json:"withinUncertainty"`
	WithinUncertaintyRate float64 `json:"withinUncertaintyRate"`

	Qualifiers QualifierCounts `json:"qualifiers"`
}

// QualifierCounts tallies affirmative pass/fail qualifier columns over all records
type QualifierCounts struct {
	CompletedCalls  int `json:"completedCalls"`
	CorrelatedCalls int `json:"correlatedCalls"`
	ValidHorizontal int `json:"validHorizontal"`
	ValidVertical   int `json:"validVertical"`
}

// Summarize computes the headline statistics for records
func Summarize(records []models.ScoredRecord, th Thresholds) Summary {
	s := Summary{Total: len(records), Thresholds: th}
	b := NewBucket(records, nil)

	s.Scored = b.Scored()
	s.Unmatched = s.Total - s.Scored
	s.HorizontalPercentile = b.HorizontalPercentile(th.Percentile)
	s.VerticalPercentile = b.VerticalPercentile(th.Percentile)
	if s.Scored > 0 {
		s.MeanHorizontal = stat.Mean(b.HorizontalErrors, nil)
		s.MeanVertical = stat.Mean(b.VerticalErrors, nil)
	}

	for _, r := range records {
		c := Classify(r, th)
		if c.HorizontalFail {
			s.HorizontalFailures++
		}
		if c.VerticalFail {
			s.VerticalFailures++
		}
		if c.Failed() {
			s.AnyFailures++
		}
		if c.Scored && r.IsWithinHorizontalUncertainty {
			s.WithinUncertainty++
		}

		if IsAffirmative(r.CompletedCall) {
			s.Qualifiers.CompletedCalls++
		}
		if IsAffirmative(r.CorrelatedCall) {
			s.Qualifiers.CorrelatedCalls++
		}
		if IsAffirmative(r.ValidHorizontal) {
			s.Qualifiers.ValidHorizontal++
		}
		if IsAffirmative(r.ValidVertical) {
			s.Qualifiers.ValidVertical++
		}
	}

	s.HorizontalFailRate = rate(s.HorizontalFailures, s.Scored)
	s.VerticalFailRate = rate(s.VerticalFailures, s.Scored)
	s.FailRate = rate(s.AnyFailures, s.Scored)
	s.WithinUncertaintyRate = rate(s.WithinUncertainty, s.Scored)
	return s
}

// IsAffirmative reports whether a qualifier cell reads as yes
func IsAffirmative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "true", "1", "pass", "passed", "x":
		return true
	}
	return false
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
