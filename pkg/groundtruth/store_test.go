package groundtruth

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	rows := []models.TestPointRow{
		{ID: " P1 ", Lat: 40.0, Lon: -75.0, AltitudeEllipsoid: 10, Building: "B1", Floor: "2"},
		{ID: "p1", Lat: 41.0, Lon: -76.0},
		{ID: "   ", Lat: 1, Lon: 1},
		{ID: "", Lat: 2, Lon: 2},
		{ID: "101", Lat: 40.5, Lon: -75.5},
	}

	store, stats := Build(rows)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 3, stats.Loaded)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Duplicates)

	p, ok := store.Lookup("P1")
	require.True(t, ok)
	assert.Equal(t, "P1", p.PointID)
	assert.Equal(t, 10.0, p.AltitudeEllipsoid)
	assert.Equal(t, "B1", p.Building)

	// IDs are case preserving
	p, ok = store.Lookup("p1")
	require.True(t, ok)
	assert.Equal(t, 41.0, p.Lat)

	// Queries are trimmed too
	_, ok = store.Lookup(" 101\t")
	assert.True(t, ok)

	assert.Equal(t, []string{"101", "P1", "p1"}, store.IDs())
}

func TestBuildDuplicateLastWriteWins(t *testing.T) {
	rows := []models.TestPointRow{
		{ID: "P7", Lat: 10.0, Lon: 20.0, AltitudeEllipsoid: 1},
		{ID: "P8", Lat: 11.0, Lon: 21.0},
		{ID: "P7 ", Lat: 30.0, Lon: 40.0, AltitudeEllipsoid: 2},
		{ID: "P7", Lat: 50.0, Lon: 60.0, AltitudeEllipsoid: 3},
	}

	store, stats := Build(rows)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 2, stats.Duplicates)
	assert.Equal(t, []string{"P7"}, stats.DuplicateIDs)

	p, ok := store.Lookup("P7")
	require.True(t, ok)
	assert.Equal(t, 50.0, p.Lat)
	assert.Equal(t, 60.0, p.Lon)
	assert.Equal(t, 3.0, p.AltitudeEllipsoid)
}

func TestNilStoreIsEmpty(t *testing.T) {
	var store *Store
	_, ok := store.Lookup("P1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.IDs())
	assert.Empty(t, store.Nearest(models.Location{}, 3))

	assert.Equal(t, 0, Empty().Len())
	assert.Empty(t, Empty().Nearest(models.Location{Lat: 1, Lon: 1}, 1))
}

func californiaStore(t *testing.T) *Store {
	t.Helper()
	store, _ := Build([]models.TestPointRow{
		{ID: "SF", Lat: 37.7749, Lon: -122.4194},
		{ID: "Oakland", Lat: 37.8044, Lon: -122.2712},
		{ID: "San Jose", Lat: 37.3382, Lon: -121.8863},
		{ID: "Sacramento", Lat: 38.5816, Lon: -121.4944},
		{ID: "LA", Lat: 34.0522, Lon: -118.2437},
		{ID: "NYC", Lat: 40.7128, Lon: -74.0060},
	})
	return store
}

func TestInBox(t *testing.T) {
	store := californiaStore(t)

	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: 32.0, Lon: -125.0},
		TopRight:   models.Location{Lat: 42.0, Lon: -114.0},
	}
	results := store.InBox(box)
	require.Len(t, results, 5)
	for _, p := range results {
		assert.NotEqual(t, "NYC", p.PointID)
	}

	inverted := models.BoundingBox{BottomLeft: box.TopRight, TopRight: box.BottomLeft}
	assert.Empty(t, store.InBox(inverted))
}

func TestWithinRadius(t *testing.T) {
	store := californiaStore(t)
	center := models.Location{Lat: 37.7749, Lon: -122.4194}

	testCases := []struct {
		name     string
		radius   float64
		expected []string
	}{
		{"10km radius", 10000, []string{"SF"}},
		{"20km radius", 20000, []string{"SF", "Oakland"}},
		{"80km radius", 80000, []string{"SF", "Oakland", "San Jose"}},
		{"150km radius", 150000, []string{"SF", "Oakland", "San Jose", "Sacramento"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results := store.WithinRadius(center, tc.radius)
			ids := make([]string, len(results))
			for i, n := range results {
				ids[i] = n.Point.PointID
				assert.LessOrEqual(t, n.DistanceMeters, tc.radius)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestNearest(t *testing.T) {
	store := californiaStore(t)

	results := store.Nearest(models.Location{Lat: 37.78, Lon: -122.41}, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "SF", results[0].Point.PointID)
	assert.Equal(t, "Oakland", results[1].Point.PointID)
	assert.Equal(t, "San Jose", results[2].Point.PointID)

	all := store.Nearest(models.Location{Lat: 0, Lon: 0}, 100)
	assert.Len(t, all, store.Len())

	n, ok := store.NearestPoint(models.Location{Lat: 40.7, Lon: -74.0})
	require.True(t, ok)
	assert.Equal(t, "NYC", n.Point.PointID)
}

func TestPersistence(t *testing.T) {
	store := californiaStore(t)
	filename := filepath.Join(t.TempDir(), "truth.gob")

	require.NoError(t, store.SaveToFile(filename))

	loaded, err := LoadFromFile(filename)
	require.NoError(t, err)
	assert.Equal(t, store.Points(), loaded.Points())

	n, ok := loaded.NearestPoint(models.Location{Lat: 34.0, Lon: -118.2})
	require.True(t, ok)
	assert.Equal(t, "LA", n.Point.PointID)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}

// randomRows scatters n test points over a roughly 1 km square campus
func randomRows(n int) []models.TestPointRow {
	r := rand.New(rand.NewSource(7))
	rows := make([]models.TestPointRow, n)
	for i := range rows {
		rows[i] = models.TestPointRow{
			ID:  fmt.Sprintf("TP-%d", i),
			Lat: r.Float64()*0.01 + 40,
			Lon: r.Float64()*0.01 - 75,
		}
	}
	return rows
}

func BenchmarkBuild(b *testing.B) {
	for _, size := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("%d_points", size), func(b *testing.B) {
			rows := randomRows(size)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = Build(rows)
			}
		})
	}
}

func BenchmarkInBox(b *testing.B) {
	store, _ := Build(randomRows(100000))
	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: 40.004, Lon: -74.996},
		TopRight:   models.Location{Lat: 40.005, Lon: -74.995},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.InBox(box)
	}
}

func BenchmarkWithinRadius(b *testing.B) {
	store, _ := Build(randomRows(100000))
	center := models.Location{Lat: 40.005, Lon: -74.995}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.WithinRadius(center, 50)
	}
}

func BenchmarkNearest(b *testing.B) {
	store, _ := Build(randomRows(100000))
	center := models.Location{Lat: 40.005, Lon: -74.995}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Nearest(center, 10)
	}
}

func TestRowsRoundTrip(t *testing.T) {
	rows := []models.TestPointRow{
		{ID: "B", Lat: 40.001, Lon: -74, Floor: "3"},
		{ID: " A ", Lat: 40, Lon: -74, AltitudeEllipsoid: 8.5, Building: "HQ"},
	}
	store, _ := Build(rows)

	got := store.Rows()
	require.Len(t, got, 2)
	assert.Equal(t, models.TestPointRow{ID: "A", Lat: 40, Lon: -74, AltitudeEllipsoid: 8.5, Building: "HQ"}, got[0])
	assert.Equal(t, "B", got[1].ID)

	rebuilt, st := Build(got)
	assert.Equal(t, 0, st.Duplicates)
	assert.Equal(t, store.Points(), rebuilt.Points())

	var nilStore *Store
	assert.Empty(t, nilStore.Rows())
}

var _ rtreego.Spatial = (*spatialItem)(nil)

func TestSpatialItemBounds(t *testing.T) {
	ix := newSpatialIndex()
	ix.insert([]models.GroundTruthPoint{{PointID: "P1", Lat: 40, Lon: -75}})
	require.Equal(t, 1, ix.tree.Size())

	found := ix.search(40-tolerance, -75-tolerance, 40+tolerance, -75+tolerance)
	require.Len(t, found, 1)
	assert.Equal(t, "P1", found[0].PointID)

	item := &spatialItem{rect: rtreego.Point{40, -75}.ToRect(tolerance)}
	require.NotNil(t, item.Bounds())
	assert.InDelta(t, 40-tolerance, item.Bounds().PointCoord(0), 1e-12)
}
