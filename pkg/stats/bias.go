package stats

import (
	"math"

	"github.com/kass/go-geo-audit/pkg/geodesy"
	"github.com/kass/go-geo-audit/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// CenteredLabel is the direction of a horizontal bias below the materiality threshold
const CenteredLabel = "centered"

// Bias is the systematic reported-minus-truth offset of a record subset
type Bias struct {
	Applicable      bool    `json:"applicable"`
	Count           int     `json:"count"`
	NorthMeters     float64 `json:"northMeters"`
	EastMeters      float64 `json:"eastMeters"`
	MagnitudeMeters float64 `json:"magnitudeMeters"`
	Direction       string  `json:"direction"`

	VerticalApplicable bool    `json:"verticalApplicable"`
	VerticalCount      int     `json:"verticalCount"`
	VerticalMeters     float64 `json:"verticalMeters"`
	VerticalDirection  string  `json:"verticalDirection"`
}

// DirectionalBias averages the signed offsets of matched records.
//
// Horizontal bias uses records with a reported position; the degree deltas
// are scaled with 111 km per degree of latitude and the cosine of the mean
// truth latitude for longitude. Vertical bias uses records with a reported
// altitude. Either side is not applicable when it has no records.
func DirectionalBias(records []models.ScoredRecord, materiality float64) Bias {
	var dLat, dLon, lats, dAlt []float64
	for _, r := range records {
		if r.Truth == nil {
			continue
		}
		if r.HasPosition {
			dLat = append(dLat, r.ReportedLat-r.Truth.Lat)
			dLon = append(dLon, r.ReportedLon-r.Truth.Lon)
			lats = append(lats, r.Truth.Lat)
		}
		if r.HasAltitude && r.VerticalDeltaMeters != nil {
			dAlt = append(dAlt, *r.VerticalDeltaMeters)
		}
	}

	var b Bias
	if len(dLat) > 0 {
		b.Applicable = true
		b.Count = len(dLat)
		meanLat := stat.Mean(lats, nil)
		b.NorthMeters = stat.Mean(dLat, nil) * geodesy.MetersPerDegreeLat
		b.EastMeters = stat.Mean(dLon, nil) * geodesy.MetersPerDegreeLon(meanLat)
		b.MagnitudeMeters = math.Hypot(b.NorthMeters, b.EastMeters)
		b.Direction = CompassLabel(b.NorthMeters, b.EastMeters, materiality)
	}
	if len(dAlt) > 0 {
		b.VerticalApplicable = true
		b.VerticalCount = len(dAlt)
		b.VerticalMeters = stat.Mean(dAlt, nil)
		b.VerticalDirection = VerticalLabel(b.VerticalMeters, materiality)
	}
	return b
}

// CompassLabel builds a quadrant label from north and east components,
// including each axis only when it exceeds materiality
func CompassLabel(north, east, materiality float64) string {
	label := ""
	switch {
	case north > materiality:
		label += "N"
	case north < -materiality:
		label += "S"
	}
	switch {
	case east > materiality:
		label += "E"
	case east < -materiality:
		label += "W"
	}
	if label == "" {
		return CenteredLabel
	}
	return label
}

// VerticalLabel names the sign of a vertical bias
func VerticalLabel(meters, materiality float64) string {
	switch {
	case meters > materiality:
		return "up"
	case meters < -materiality:
		return "down"
	default:
		return "level"
	}
}
