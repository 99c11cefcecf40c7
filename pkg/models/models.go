package models

import "strings"

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location
	TopRight   Location
}

// Contains reports whether loc lies inside the box, edges included
func (b BoundingBox) Contains(loc Location) bool {
	return loc.Lat >= b.BottomLeft.Lat && loc.Lat <= b.TopRight.Lat &&
		loc.Lon >= b.BottomLeft.Lon && loc.Lon <= b.TopRight.Lon
}

// TestPointRow is one surveyed test point as read from a ground-truth source,
// before identifier normalization
type TestPointRow struct {
	ID                string  `json:"id"`
	Lat               float64 `json:"lat"`
	Lon               float64 `json:"lon"`
	AltitudeEllipsoid float64 `json:"alt"`
	Building          string  `json:"building,omitempty"`
	Floor             string  `json:"floor,omitempty"`
}

// GroundTruthPoint is a surveyed reference coordinate keyed by point ID
type GroundTruthPoint struct {
	PointID           string  `json:"pointId"`
	Lat               float64 `json:"lat"`
	Lon               float64 `json:"lon"`
	AltitudeEllipsoid float64 `json:"alt"`
	Building          string  `json:"building,omitempty"`
	Floor             string  `json:"floor,omitempty"`
}

// Location returns the horizontal position of the point
func (p GroundTruthPoint) Location() Location {
	return Location{Lat: p.Lat, Lon: p.Lon}
}

// Datum identifies the vertical reference of a reported altitude
type Datum string

const (
	DatumUnknown   Datum = ""
	DatumEllipsoid Datum = "hae"
	DatumGeoid     Datum = "msl"
)

// ReportedFix is one device-reported location measurement.
//
// Numeric fields are default-filled with 0 at ingestion when the source cell is
// missing or malformed. The pointer fields keep presence because the vertical
// datum policy depends on whether the value was supplied at all.
type ReportedFix struct {
	PointID   string `json:"pointId"`
	Timestamp string `json:"timestamp,omitempty"`
	Device    string `json:"device,omitempty"`

	ReportedLat      float64 `json:"reportedLat"`
	ReportedLon      float64 `json:"reportedLon"`
	ReportedAltitude float64 `json:"reportedAltitude"`
	AltitudeDatum    Datum   `json:"altitudeDatum,omitempty"`
	HasPosition      bool    `json:"hasPosition"`
	HasAltitude      bool    `json:"hasAltitude"`

	AltitudeHAE              *float64 `json:"altitudeHae,omitempty"`
	AltitudeGeoid            *float64 `json:"altitudeGeoid,omitempty"`
	PrecomputedVerticalError *float64 `json:"precomputedVerticalError,omitempty"`

	HorizontalUncertainty float64 `json:"horizontalUncertainty"`
	VerticalUncertainty   float64 `json:"verticalUncertainty"`

	Tech            string `json:"tech,omitempty"`
	LocationSource  string `json:"locationSource,omitempty"`
	Floor           string `json:"floor,omitempty"`
	Building        string `json:"building,omitempty"`
	Stage           string `json:"stage,omitempty"`
	PathID          string `json:"pathId,omitempty"`
	Participant     string `json:"participant,omitempty"`
	Carrier         string `json:"carrier,omitempty"`
	SummaryPoolTech string `json:"summaryPoolTech,omitempty"`
	HandsetOS       string `json:"handsetOs,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`

	CompletedCall   string `json:"completedCall,omitempty"`
	CorrelatedCall  string `json:"correlatedCall,omitempty"`
	ValidHorizontal string `json:"validHorizontal,omitempty"`
	ValidVertical   string `json:"validVertical,omitempty"`
	ChosenLocation  string `json:"chosenLocation,omitempty"`
}

// ReportedLocation returns the reported horizontal position
func (f ReportedFix) ReportedLocation() Location {
	return Location{Lat: f.ReportedLat, Lon: f.ReportedLon}
}

// VerticalMethod records which rule produced a vertical error
type VerticalMethod string

const (
	VerticalNone        VerticalMethod = ""
	VerticalPrecomputed VerticalMethod = "precomputed"
	VerticalReconciled  VerticalMethod = "reconciled"
	VerticalNaive       VerticalMethod = "naive"
)

// ScoredRecord is a reported fix merged with its ground truth match.
// The error fields are non-nil exactly when Truth is non-nil.
type ScoredRecord struct {
	ReportedFix

	Truth *GroundTruthPoint `json:"truth,omitempty"`

	HorizontalErrorMeters         *float64       `json:"horizontalErrorMeters,omitempty"`
	VerticalErrorMeters           *float64       `json:"verticalErrorMeters,omitempty"`
	VerticalDeltaMeters           *float64       `json:"verticalDeltaMeters,omitempty"`
	VerticalMethod                VerticalMethod `json:"verticalMethod,omitempty"`
	IsWithinHorizontalUncertainty bool           `json:"isWithinHorizontalUncertainty"`
}

// Matched reports whether a ground truth point was found for the record
func (r ScoredRecord) Matched() bool {
	return r.Truth != nil
}

// Field returns the categorical value named by key; keys are the JSON names
// of the string fields of ReportedFix. Unknown keys return "".
func (r ScoredRecord) Field(key string) string {
	switch strings.ToLower(key) {
	case "pointid", "point":
		return r.PointID
	case "device":
		return r.Device
	case "tech", "technology":
		return r.Tech
	case "locationsource", "source":
		return r.LocationSource
	case "floor":
		return r.Floor
	case "building":
		return r.Building
	case "stage":
		return r.Stage
	case "pathid", "path":
		return r.PathID
	case "participant":
		return r.Participant
	case "carrier":
		return r.Carrier
	case "summarypooltech":
		return r.SummaryPoolTech
	case "handsetos", "os":
		return r.HandsetOS
	case "completedcall":
		return r.CompletedCall
	case "correlatedcall":
		return r.CorrelatedCall
	case "validhorizontal":
		return r.ValidHorizontal
	case "validvertical":
		return r.ValidVertical
	case "chosenlocation":
		return r.ChosenLocation
	}
	return ""
}
