package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/kass/go-geo-audit/pkg/models"
)

// Test point column headers and their accepted aliases
var (
	colTestPointID = []string{"Test Point ID", "Point ID", "ID"}
	colLatitude    = []string{"Latitude", "Lat"}
	colLongitude   = []string{"Longitude", "Lon", "Lng"}
	colAltitudeHAE = []string{"Altitude (Ellipsoid) Meters", "Altitude (Ellipsoid)", "Altitude HAE", "Altitude"}
	colBuildingID  = []string{"Building ID", "Building"}
	colFloor       = []string{"Floor"}
)

// ParseTestPoints maps a ground truth table to test point rows.
// Identifiers are passed through untrimmed; normalization belongs to the store.
func ParseTestPoints(t *Table) ([]models.TestPointRow, error) {
	idCol := t.Column(colTestPointID...)
	latCol := t.Column(colLatitude...)
	lonCol := t.Column(colLongitude...)

	var missing []string
	if idCol < 0 {
		missing = append(missing, colTestPointID[0])
	}
	if latCol < 0 {
		missing = append(missing, colLatitude[0])
	}
	if lonCol < 0 {
		missing = append(missing, colLongitude[0])
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	altCol := t.Column(colAltitudeHAE...)
	buildingCol := t.Column(colBuildingID...)
	floorCol := t.Column(colFloor...)

	rows := make([]models.TestPointRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := ""
		if idCol < len(row) {
			id = row[idCol]
		}
		rows = append(rows, models.TestPointRow{
			ID:                id,
			Lat:               Number(Cell(row, latCol)),
			Lon:               Number(Cell(row, lonCol)),
			AltitudeEllipsoid: Number(Cell(row, altCol)),
			Building:          Cell(row, buildingCol),
			Floor:             Cell(row, floorCol),
		})
	}
	return rows, nil
}

// TestPointFile is a ground truth source backed by a workbook or CSV file
type TestPointFile struct {
	Path      string
	Sheet     string // empty selects the first sheet
	HeaderRow int    // 1-based, 0 detects
}

// TestPoints reads and parses the file
func (f TestPointFile) TestPoints(ctx context.Context) ([]models.TestPointRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := ReadFileRows(f.Path, f.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read test points %s: %w", f.Path, err)
	}
	t, err := NewTable(raw, f.HeaderRow, colTestPointID...)
	if err != nil {
		return nil, fmt.Errorf("failed to locate test point header in %s: %w", f.Path, err)
	}
	return ParseTestPoints(t)
}
