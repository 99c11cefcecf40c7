package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kass/go-geo-audit/pkg/models"
)

func TestNumber(t *testing.T) {
	testCases := []struct {
		in       string
		expected float64
	}{
		{"12.5", 12.5},
		{" -3 ", -3},
		{"", 0},
		{"n/a", 0},
		{"NaN", 0},
		{"+Inf", 0},
		{"1e3", 1000},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Number(tc.in), "input %q", tc.in)
	}
}

func TestOptionalNumber(t *testing.T) {
	assert.Nil(t, OptionalNumber(""))
	assert.Nil(t, OptionalNumber("abc"))
	v := OptionalNumber("0")
	require.NotNil(t, v)
	assert.Equal(t, 0.0, *v)
}

func TestNewTableDetectsHeader(t *testing.T) {
	raw := [][]string{
		{"Accuracy Report"},
		{},
		{"Point ID", "Location Latitude"},
		{"P1", "40.1"},
		{"", ""},
		{"P2", "40.2"},
	}
	table, err := NewTable(raw, 0, "point id")
	require.NoError(t, err)
	assert.Equal(t, []string{"Point ID", "Location Latitude"}, table.Header)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, 1, table.Column("location latitude"))
	assert.Equal(t, -1, table.Column("missing"))
}

func TestNewTableExplicitHeader(t *testing.T) {
	raw := [][]string{{"junk"}, {"ID"}, {"A"}}
	table, err := NewTable(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID"}, table.Header)

	_, err = NewTable(raw, 9)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = NewTable(raw, 0, "Point ID")
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestParseTestPoints(t *testing.T) {
	csvData := "Test Point ID,Latitude,Longitude,Altitude (Ellipsoid) Meters,Building ID,Floor\n" +
		" TP-1 ,40.7128,-74.0060,12.5,B1,2\n" +
		"TP-2,bad,-74.1,,B1,\n"
	raw, err := ReadCSVRows(strings.NewReader(csvData))
	require.NoError(t, err)
	table, err := NewTable(raw, 1)
	require.NoError(t, err)

	rows, err := ParseTestPoints(table)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// the csv reader drops leading space; trailing space survives for the store to trim
	assert.Equal(t, "TP-1 ", rows[0].ID)
	assert.Equal(t, 40.7128, rows[0].Lat)
	assert.Equal(t, 12.5, rows[0].AltitudeEllipsoid)
	assert.Equal(t, "B1", rows[0].Building)
	assert.Equal(t, "2", rows[0].Floor)

	assert.Equal(t, 0.0, rows[1].Lat)
	assert.Equal(t, 0.0, rows[1].AltitudeEllipsoid)
}

func TestParseTestPointsMissingColumns(t *testing.T) {
	table := &Table{Header: []string{"Test Point ID", "Latitude"}}
	_, err := ParseTestPoints(table)
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "Longitude")
}

func TestParseCorrelation(t *testing.T) {
	table := &Table{
		Header: []string{
			"Point ID", "Timestamp", "Handset Model", "Location Latitude", "Location Longitude",
			"Location Altitude", "Location Altitude (HAE)", "Horizontal Uncertainty",
			"Location Technology", "Floor", "Vertical Error", "Completed Call",
		},
		Rows: [][]string{
			{"P1", "2024-01-01 10:00", "Pixel 8", "40.0", "-75.0", "10", "", "25", "wifi", "3", "", "Yes"},
			{"P2", "", "iPhone", "", "-75.0", "", "32.5", "x", "", "", "1.5"},
		},
	}
	fixes, err := ParseCorrelation(table)
	require.NoError(t, err)
	require.Len(t, fixes, 2)

	f := fixes[0]
	assert.Equal(t, "P1", f.PointID)
	assert.Equal(t, "Pixel 8", f.Device)
	assert.True(t, f.HasPosition)
	assert.True(t, f.HasAltitude)
	assert.Equal(t, 10.0, f.ReportedAltitude)
	assert.Nil(t, f.AltitudeHAE)
	assert.Nil(t, f.PrecomputedVerticalError)
	assert.Equal(t, 25.0, f.HorizontalUncertainty)
	assert.Equal(t, "wifi", f.Tech)
	assert.Equal(t, "3", f.Floor)
	assert.Equal(t, "Yes", f.CompletedCall)

	f = fixes[1]
	assert.False(t, f.HasPosition)
	assert.True(t, f.HasAltitude, "HAE column alone carries altitude")
	assert.Equal(t, models.DatumEllipsoid, f.AltitudeDatum)
	require.NotNil(t, f.AltitudeHAE)
	assert.Equal(t, 32.5, *f.AltitudeHAE)
	assert.Equal(t, 0.0, f.HorizontalUncertainty)
	require.NotNil(t, f.PrecomputedVerticalError)
	assert.Equal(t, 1.5, *f.PrecomputedVerticalError)
	assert.Equal(t, "", f.CompletedCall)
}

func TestParseCorrelationAltitudeColumns(t *testing.T) {
	table := &Table{
		Header: []string{"Point ID", "Location Altitude (Geoid)"},
		Rows:   [][]string{{"P1", "12.5"}, {"P2", ""}},
	}
	fixes, err := ParseCorrelation(table)
	require.NoError(t, err)
	require.Len(t, fixes, 2)
	assert.True(t, fixes[0].HasAltitude)
	assert.Equal(t, models.DatumGeoid, fixes[0].AltitudeDatum)
	assert.False(t, fixes[1].HasAltitude)
}

func TestParseCorrelationMissingPointID(t *testing.T) {
	_, err := ParseCorrelation(&Table{Header: []string{"Device"}})
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbookRows(t *testing.T) {
	data := writeWorkbook(t, "Correlation", [][]any{
		{"Summary"},
		{},
		{"Point ID", "Location Latitude", "Location Longitude"},
		{"P1", 40.5, -75.25},
	})

	raw, err := ReadWorkbookRows(bytes.NewReader(data), "correlation")
	require.NoError(t, err)
	table, err := NewTable(raw, CorrelationHeaderRow)
	require.NoError(t, err)
	fixes, err := ParseCorrelation(table)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, 40.5, fixes[0].ReportedLat)
	assert.Equal(t, -75.25, fixes[0].ReportedLon)

	_, err = ReadWorkbookRows(bytes.NewReader(data), "Nope")
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestReadWorkbookRowsIgnoresDisplayFormats(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Test Points"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Test Point ID", "Latitude", "Longitude", "Altitude (Ellipsoid) Meters"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"P1", 40.123456, -75.654321, 1234.5}))

	twoDecimals, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	require.NoError(t, err)
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B2", "C2", twoDecimals))
	require.NoError(t, f.SetCellStyle(sheet, "D2", "D2", thousands))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	raw, err := ReadWorkbookRows(bytes.NewReader(buf.Bytes()), sheet)
	require.NoError(t, err)
	table, err := NewTable(raw, 0, colTestPointID...)
	require.NoError(t, err)
	rows, err := ParseTestPoints(table)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 40.123456, rows[0].Lat)
	assert.Equal(t, -75.654321, rows[0].Lon)
	assert.Equal(t, 1234.5, rows[0].AltitudeEllipsoid)
}

func TestCorrelationFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "walk.xlsx")
	data := writeWorkbook(t, DefaultCorrelationSheet, [][]any{
		{"Point ID", "Location Latitude", "Location Longitude"},
		{"P1", 1, 2},
		{"P2", 3, 4},
	})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	fixes, err := CorrelationFile{Path: path}.Fixes(context.Background())
	require.NoError(t, err)
	assert.Len(t, fixes, 2)

	_, err = CorrelationFile{Path: filepath.Join(dir, "missing.xlsx")}.Fixes(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = CorrelationFile{Path: filepath.Join(dir, "walk.json")}.Fixes(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestTestPointFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(path, []byte("Test Point ID,Latitude,Longitude\nA,1,2\n"), 0o644))

	rows, err := TestPointFile{Path: path}.TestPoints(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = TestPointFile{Path: path}.TestPoints(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
