// Package correlate joins reported fixes to ground truth and scores them.
package correlate

import (
	"github.com/kass/go-geo-audit/pkg/geodesy"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/models"
)

// Lookup resolves a point identifier to its ground truth
type Lookup interface {
	Lookup(id string) (models.GroundTruthPoint, bool)
}

// NearestFinder is implemented by lookups that can also suggest the closest
// surveyed point to a location
type NearestFinder interface {
	NearestPoint(loc models.Location) (groundtruth.Neighbor, bool)
}

// UnmatchedFix describes a fix whose point ID has no ground truth
type UnmatchedFix struct {
	Index          int     `json:"index"`
	PointID        string  `json:"pointId"`
	NearestPointID string  `json:"nearestPointId,omitempty"`
	NearestMeters  float64 `json:"nearestMeters,omitempty"`
}

// Diagnostics are the per-run counts surfaced next to the scored records
type Diagnostics struct {
	Total      int            `json:"total"`
	Matched    int            `json:"matched"`
	Unmatched  int            `json:"unmatched"`
	MissingIDs []string       `json:"missingIds,omitempty"`
	Unscored   []UnmatchedFix `json:"unscored,omitempty"`
}

// Correlate scores every fix against truth, keeping input order.
// Fixes without a match are kept with nil error fields. truth may be nil.
func Correlate(fixes []models.ReportedFix, truth Lookup) ([]models.ScoredRecord, Diagnostics) {
	records := make([]models.ScoredRecord, len(fixes))
	diag := Diagnostics{Total: len(fixes)}
	missing := make(map[string]bool)

	finder, _ := truth.(NearestFinder)

	for i, fix := range fixes {
		fix.PointID = groundtruth.NormalizeID(fix.PointID)
		records[i] = models.ScoredRecord{ReportedFix: fix}

		var (
			point models.GroundTruthPoint
			ok    bool
		)
		if truth != nil && fix.PointID != "" {
			point, ok = truth.Lookup(fix.PointID)
		}
		if !ok {
			diag.Unmatched++
			if !missing[fix.PointID] {
				missing[fix.PointID] = true
				diag.MissingIDs = append(diag.MissingIDs, fix.PointID)
			}
			u := UnmatchedFix{Index: i, PointID: fix.PointID}
			if finder != nil && fix.HasPosition {
				if n, found := finder.NearestPoint(fix.ReportedLocation()); found {
					u.NearestPointID = n.Point.PointID
					u.NearestMeters = n.DistanceMeters
				}
			}
			diag.Unscored = append(diag.Unscored, u)
			continue
		}

		diag.Matched++
		records[i] = Score(fix, point)
	}

	return records, diag
}

// Score computes the error fields of a single fix against its ground truth
func Score(fix models.ReportedFix, point models.GroundTruthPoint) models.ScoredRecord {
	horizontal := geodesy.HorizontalDistanceMeters(point.Lat, point.Lon, fix.ReportedLat, fix.ReportedLon)
	in := VerticalInput(fix)
	delta, _ := geodesy.VerticalDelta(in, point.AltitudeEllipsoid)
	vertical, method := geodesy.VerticalError(in, point.AltitudeEllipsoid)

	truth := point
	return models.ScoredRecord{
		ReportedFix:                   fix,
		Truth:                         &truth,
		HorizontalErrorMeters:         &horizontal,
		VerticalErrorMeters:           &vertical,
		VerticalDeltaMeters:           &delta,
		VerticalMethod:                models.VerticalMethod(method.String()),
		IsWithinHorizontalUncertainty: horizontal <= fix.HorizontalUncertainty,
	}
}

// VerticalInput extracts the altitude values of a fix
func VerticalInput(fix models.ReportedFix) geodesy.VerticalInput {
	return geodesy.VerticalInput{
		Altitude:    fix.ReportedAltitude,
		HAE:         fix.AltitudeHAE,
		Geoid:       fix.AltitudeGeoid,
		Precomputed: fix.PrecomputedVerticalError,
	}
}
