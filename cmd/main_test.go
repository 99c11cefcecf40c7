package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-geo-audit/internal/config"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/ingest"
	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/postgis"
	"github.com/kass/go-geo-audit/pkg/report"
)

func TestGroundTruthSourcePrecedence(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "truth.gob")

	c := config.DefaultConfig()
	c.GroundTruth.Snapshot = snapshot

	assert.Nil(t, groundTruthSource(c, "", false), "no path and no snapshot file")

	store, _ := groundtruth.Build([]models.TestPointRow{{ID: "P1", Lat: 40, Lon: -74}})
	require.NoError(t, store.SaveToFile(snapshot))
	assert.Equal(t, snapshotSource{path: snapshot}, groundTruthSource(c, "", false))

	c.GroundTruth.Path = "configured.xlsx"
	src := groundTruthSource(c, "", false)
	require.IsType(t, ingest.TestPointFile{}, src)
	assert.Equal(t, "configured.xlsx", src.(ingest.TestPointFile).Path)

	src = groundTruthSource(c, "explicit.csv", false)
	assert.Equal(t, "explicit.csv", src.(ingest.TestPointFile).Path)

	assert.IsType(t, postgis.Source{}, groundTruthSource(c, "explicit.csv", true))
}

func TestSnapshotSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truth.gob")
	store, _ := groundtruth.Build([]models.TestPointRow{
		{ID: "P1", Lat: 40, Lon: -74, AltitudeEllipsoid: 12, Floor: "2"},
		{ID: "P2", Lat: 40.001, Lon: -74},
	})
	require.NoError(t, store.SaveToFile(path))

	rows, err := snapshotSource{path: path}.TestPoints(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.TestPointRow{ID: "P1", Lat: 40, Lon: -74, AltitudeEllipsoid: 12, Floor: "2"}, rows[0])

	_, err = snapshotSource{path: filepath.Join(t.TempDir(), "missing.gob")}.TestPoints(context.Background())
	assert.ErrorIs(t, err, ingest.ErrDataUnavailable)
}

func TestExporterSelection(t *testing.T) {
	plotFormat = "svg"
	t.Cleanup(func() { plotFormat = "png" })

	exp, err := exporterFor("plot")
	require.NoError(t, err)
	assert.Equal(t, "data/run_plot.svg", defaultOutput("data/run.xlsx", exp))

	exp, err = exporterFor("kml")
	require.NoError(t, err)
	assert.Equal(t, "run_kml.kml", defaultOutput("run.csv", exp))

	_, err = exporterFor("pdf-report")
	assert.Error(t, err)
	assert.Contains(t, report.ExporterNames(), "dashboard")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, firstN([]string{"a", "b"}, 3))
	assert.Equal(t, []string{"a", "b", "(+2 more)"}, firstN([]string{"a", "b", "c", "d"}, 2))
	assert.Equal(t, "Device", heading("device"))
	assert.Equal(t, "Group", heading(""))
	assert.Equal(t, "12345678", shortID("12345678-aaaa"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestRecordFilter(t *testing.T) {
	floorFilter = "2"
	t.Cleanup(func() { floorFilter = "" })

	keep := recordFilter()
	assert.True(t, keep(models.ScoredRecord{ReportedFix: models.ReportedFix{Floor: " 2 "}}))
	assert.False(t, keep(models.ScoredRecord{ReportedFix: models.ReportedFix{Floor: "3"}}))
}
