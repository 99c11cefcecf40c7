package ingest

import (
	"context"
	"fmt"

	"github.com/kass/go-geo-audit/pkg/models"
)

// DefaultCorrelationSheet is the workbook sheet holding measurement rows
const DefaultCorrelationSheet = "Correlation"

// CorrelationHeaderRow is where measurement workbooks put their header
// (Excel row 3, below two title rows)
const CorrelationHeaderRow = 3

var colPointID = []string{"Point ID", "Test Point ID"}

// correlationColumns maps fix fields to their accepted headers. Only the
// point ID is required; every other column may be absent.
var correlationColumns = []struct {
	aliases []string
	set     func(f *models.ReportedFix, cell string)
}{
	{[]string{"Timestamp", "Location Timestamp", "Call Timestamp"}, func(f *models.ReportedFix, c string) { f.Timestamp = c }},
	{[]string{"Device", "Handset Model", "Handset"}, func(f *models.ReportedFix, c string) { f.Device = c }},
	{[]string{"Location Latitude"}, func(f *models.ReportedFix, c string) { f.ReportedLat = Number(c) }},
	{[]string{"Location Longitude"}, func(f *models.ReportedFix, c string) { f.ReportedLon = Number(c) }},
	{[]string{"Location Altitude"}, func(f *models.ReportedFix, c string) {
		f.ReportedAltitude = Number(c)
		f.HasAltitude = c != ""
		if f.HasAltitude {
			f.AltitudeDatum = models.DatumGeoid
		}
	}},
	{[]string{"Location Altitude (HAE)"}, func(f *models.ReportedFix, c string) { f.AltitudeHAE = OptionalNumber(c) }},
	{[]string{"Location Altitude (Geoid)"}, func(f *models.ReportedFix, c string) { f.AltitudeGeoid = OptionalNumber(c) }},
	{[]string{"Vertical Error", "Vertical Error (m)"}, func(f *models.ReportedFix, c string) { f.PrecomputedVerticalError = OptionalNumber(c) }},
	{[]string{"Horizontal Uncertainty", "Location Uncertainty", "Uncertainty"}, func(f *models.ReportedFix, c string) { f.HorizontalUncertainty = Number(c) }},
	{[]string{"Vertical Uncertainty"}, func(f *models.ReportedFix, c string) { f.VerticalUncertainty = Number(c) }},
	{[]string{"Technology", "Location Technology", "Tech"}, func(f *models.ReportedFix, c string) { f.Tech = c }},
	{[]string{"Location Source"}, func(f *models.ReportedFix, c string) { f.LocationSource = c }},
	{[]string{"Floor", "Floor ID"}, func(f *models.ReportedFix, c string) { f.Floor = c }},
	{[]string{"Building ID", "Building"}, func(f *models.ReportedFix, c string) { f.Building = c }},
	{[]string{"Stage"}, func(f *models.ReportedFix, c string) { f.Stage = c }},
	{[]string{"Path ID"}, func(f *models.ReportedFix, c string) { f.PathID = c }},
	{[]string{"Participant"}, func(f *models.ReportedFix, c string) { f.Participant = c }},
	{[]string{"Carrier"}, func(f *models.ReportedFix, c string) { f.Carrier = c }},
	{[]string{"Summary Pool Tech"}, func(f *models.ReportedFix, c string) { f.SummaryPoolTech = c }},
	{[]string{"Handset OS"}, func(f *models.ReportedFix, c string) { f.HandsetOS = c }},
	{[]string{"Location Phone Number"}, func(f *models.ReportedFix, c string) { f.PhoneNumber = c }},
	{[]string{"Completed Call"}, func(f *models.ReportedFix, c string) { f.CompletedCall = c }},
	{[]string{"Correlated Call"}, func(f *models.ReportedFix, c string) { f.CorrelatedCall = c }},
	{[]string{"Valid Horizontal Location"}, func(f *models.ReportedFix, c string) { f.ValidHorizontal = c }},
	{[]string{"Valid Vertical Location"}, func(f *models.ReportedFix, c string) { f.ValidVertical = c }},
	{[]string{"Chosen Location"}, func(f *models.ReportedFix, c string) { f.ChosenLocation = c }},
}

// ParseCorrelation maps a measurement table to reported fixes, one per row
func ParseCorrelation(t *Table) ([]models.ReportedFix, error) {
	idCol := t.Column(colPointID...)
	if idCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, colPointID[0])
	}
	latCol := t.Column("Location Latitude")
	lonCol := t.Column("Location Longitude")

	cols := make([]int, len(correlationColumns))
	for i, c := range correlationColumns {
		cols[i] = t.Column(c.aliases...)
	}

	fixes := make([]models.ReportedFix, 0, len(t.Rows))
	for _, row := range t.Rows {
		fix := models.ReportedFix{PointID: Cell(row, idCol)}
		for i, c := range correlationColumns {
			if cols[i] >= 0 {
				c.set(&fix, Cell(row, cols[i]))
			}
		}
		fix.HasPosition = Cell(row, latCol) != "" && Cell(row, lonCol) != ""
		markAltitude(&fix)
		fixes = append(fixes, fix)
	}
	return fixes, nil
}

// markAltitude flags fixes that carry only the HAE or geoid altitude columns
func markAltitude(f *models.ReportedFix) {
	if f.HasAltitude {
		return
	}
	switch {
	case f.AltitudeHAE != nil:
		f.HasAltitude = true
		f.AltitudeDatum = models.DatumEllipsoid
	case f.AltitudeGeoid != nil:
		f.HasAltitude = true
		f.AltitudeDatum = models.DatumGeoid
	}
}

// CorrelationFile is a measurement source backed by a workbook or CSV file
type CorrelationFile struct {
	Path      string
	Sheet     string // defaults to DefaultCorrelationSheet for workbooks
	HeaderRow int    // 1-based, 0 detects
}

// Fixes reads and parses the file
func (f CorrelationFile) Fixes(ctx context.Context) ([]models.ReportedFix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheet := f.Sheet
	if sheet == "" {
		sheet = DefaultCorrelationSheet
	}
	raw, err := ReadFileRows(f.Path, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read measurements %s: %w", f.Path, err)
	}
	t, err := NewTable(raw, f.HeaderRow, colPointID...)
	if err != nil {
		return nil, fmt.Errorf("failed to locate measurement header in %s: %w", f.Path, err)
	}
	return ParseCorrelation(t)
}
