package postgis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-geo-audit/pkg/models"
)

func TestConnString(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 5432, User: "geo", Password: "it's secret", DBName: "survey"}
	assert.Equal(t, `host=localhost port=5432 user=geo password='it\'s secret' dbname=survey sslmode=disable`, cfg.ConnString())

	cfg.SSLMode = "require"
	cfg.Password = ""
	assert.Contains(t, cfg.ConnString(), "password='' ")
	assert.Contains(t, cfg.ConnString(), "sslmode=require")

	assert.Equal(t, "postgres://geo@localhost:5432/survey", cfg.Redacted())
}

func TestBatches(t *testing.T) {
	rows := make([]models.TestPointRow, 25)
	batches := Batches(rows, 10)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 10)
	assert.Len(t, batches[2], 5)

	assert.Empty(t, Batches(nil, 10))
	assert.Len(t, Batches(rows, 0), 1)
}

// testConfig reads a live database from the environment; tests needing one are
// skipped without it
func testConfig(t *testing.T) Config {
	t.Helper()
	host := os.Getenv("POSTGIS_TEST_HOST")
	if host == "" {
		t.Skip("POSTGIS_TEST_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("POSTGIS_TEST_PORT"))
	if port == 0 {
		port = 5432
	}
	return Config{
		Host:     host,
		Port:     port,
		User:     os.Getenv("POSTGIS_TEST_USER"),
		Password: os.Getenv("POSTGIS_TEST_PASSWORD"),
		DBName:   os.Getenv("POSTGIS_TEST_DB"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	store, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.InitSchema(ctx, true))
	require.NoError(t, store.CreateSpatialIndex(ctx))

	var rows []models.TestPointRow
	for i := 0; i < 20; i++ {
		rows = append(rows, models.TestPointRow{
			ID:                fmt.Sprintf(" TP-%02d ", i),
			Lat:               37.0 + float64(i)*0.01,
			Lon:               -122.0,
			AltitudeEllipsoid: 10,
			Floor:             "1",
		})
	}
	rows = append(rows, models.TestPointRow{ID: "  "})

	inserted, skipped, err := store.BulkInsertTestPoints(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 20, inserted)
	assert.Equal(t, 1, skipped)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), count)

	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: 37.0, Lon: -122.1},
		TopRight:   models.Location{Lat: 37.045, Lon: -121.9},
	}
	found, err := store.QueryBox(ctx, box)
	require.NoError(t, err)
	require.Len(t, found, 5)
	assert.Equal(t, "TP-00", found[0].ID)
	assert.Equal(t, 10.0, found[0].AltitudeEllipsoid)

	all, err := Source{Config: cfg}.TestPoints(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
