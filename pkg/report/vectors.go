// Package report projects scored records into exportable artifacts: KML
// error vectors, CSV tables, an HTML chart dashboard and an error CDF plot.
package report

import (
	"github.com/kass/go-geo-audit/pkg/correlate"
	"github.com/kass/go-geo-audit/pkg/geodesy"
	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// DefaultFolder names the single group used when vectors are not grouped
const DefaultFolder = "Vectors"

// Vector pairs a surveyed point with the position a device reported for it.
// Altitudes are display altitudes, on the geoid datum where known.
type Vector struct {
	PointID   string
	Timestamp string

	TruthLat, TruthLon, TruthAlt          float64
	ReportedLat, ReportedLon, ReportedAlt float64

	HorizontalErrorMeters float64
	VerticalErrorMeters   float64
	Pass                  bool
}

// VectorGroup is one folder of vectors
type VectorGroup struct {
	Name    string
	Vectors []Vector
}

// VectorReport is the map projection of a record set
type VectorReport struct {
	Groups []VectorGroup

	Matched    int
	Skipped    int // no ground truth
	NoPosition int // matched but without a reported position
	Pass       int
	Fail       int
	MissingIDs []string
}

// Vectors projects matched records with a reported position into groups named
// by groupKey, in first-seen order. A nil groupKey puts everything in one folder.
func Vectors(records []models.ScoredRecord, th stats.Thresholds, groupKey stats.KeyFunc) VectorReport {
	var rep VectorReport
	index := make(map[string]int)
	missing := make(map[string]bool)

	for _, r := range records {
		if !r.Matched() {
			rep.Skipped++
			if !missing[r.PointID] {
				missing[r.PointID] = true
				rep.MissingIDs = append(rep.MissingIDs, r.PointID)
			}
			continue
		}
		rep.Matched++
		if !r.HasPosition {
			rep.NoPosition++
			continue
		}

		truthAlt, reportedAlt := geodesy.DisplayAltitudes(correlate.VerticalInput(r.ReportedFix), r.Truth.AltitudeEllipsoid)
		pass := !stats.Classify(r, th).Failed()
		if pass {
			rep.Pass++
		} else {
			rep.Fail++
		}

		name := DefaultFolder
		if groupKey != nil {
			name = groupKey(r)
		}
		i, ok := index[name]
		if !ok {
			i = len(rep.Groups)
			index[name] = i
			rep.Groups = append(rep.Groups, VectorGroup{Name: name})
		}
		rep.Groups[i].Vectors = append(rep.Groups[i].Vectors, Vector{
			PointID:               r.PointID,
			Timestamp:             r.Timestamp,
			TruthLat:              r.Truth.Lat,
			TruthLon:              r.Truth.Lon,
			TruthAlt:              truthAlt,
			ReportedLat:           r.ReportedLat,
			ReportedLon:           r.ReportedLon,
			ReportedAlt:           reportedAlt,
			HorizontalErrorMeters: *r.HorizontalErrorMeters,
			VerticalErrorMeters:   *r.VerticalErrorMeters,
			Pass:                  pass,
		})
	}
	return rep
}
