package correlate

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func testStore(t *testing.T) *groundtruth.Store {
	t.Helper()
	store, _ := groundtruth.Build([]models.TestPointRow{
		{ID: "P1", Lat: 40.0, Lon: -75.0, AltitudeEllipsoid: 10, Floor: "1"},
		{ID: "P2", Lat: 40.001, Lon: -75.0, AltitudeEllipsoid: 14, Floor: "2"},
	})
	return store
}

func TestCorrelateExactMatch(t *testing.T) {
	fixes := []models.ReportedFix{
		{PointID: "P1", ReportedLat: 40.0, ReportedLon: -75.0, ReportedAltitude: 10, HasPosition: true, HasAltitude: true},
	}

	records, diag := Correlate(fixes, testStore(t))
	require.Len(t, records, 1)
	r := records[0]

	require.True(t, r.Matched())
	require.NotNil(t, r.HorizontalErrorMeters)
	require.NotNil(t, r.VerticalErrorMeters)
	assert.InDelta(t, 0.0, *r.HorizontalErrorMeters, 1e-9)
	assert.Equal(t, 0.0, *r.VerticalErrorMeters)
	assert.Equal(t, models.VerticalNaive, r.VerticalMethod)
	// Zero uncertainty with zero error is still within
	assert.True(t, r.IsWithinHorizontalUncertainty)
	assert.Equal(t, 1, diag.Matched)
	assert.Equal(t, 0, diag.Unmatched)
}

func TestCorrelateUnmatchedRetained(t *testing.T) {
	fixes := []models.ReportedFix{
		{PointID: "P1", ReportedLat: 40.0, ReportedLon: -75.0, HasPosition: true},
		{PointID: "NOPE", ReportedLat: 40.0011, ReportedLon: -75.0, HasPosition: true},
		{PointID: " P2 ", ReportedLat: 40.001, ReportedLon: -75.0, HasPosition: true},
		{PointID: "NOPE", ReportedLat: 0, ReportedLon: 0},
	}

	records, diag := Correlate(fixes, testStore(t))
	require.Len(t, records, 4)

	assert.Equal(t, "P1", records[0].PointID)
	assert.Equal(t, "NOPE", records[1].PointID)
	assert.Equal(t, "P2", records[2].PointID)

	assert.False(t, records[1].Matched())
	assert.Nil(t, records[1].HorizontalErrorMeters)
	assert.Nil(t, records[1].VerticalErrorMeters)
	assert.False(t, records[1].IsWithinHorizontalUncertainty)
	assert.Equal(t, 40.0011, records[1].ReportedLat)

	assert.Equal(t, 4, diag.Total)
	assert.Equal(t, 2, diag.Matched)
	assert.Equal(t, 2, diag.Unmatched)
	assert.Equal(t, []string{"NOPE"}, diag.MissingIDs)

	require.Len(t, diag.Unscored, 2)
	assert.Equal(t, 1, diag.Unscored[0].Index)
	assert.Equal(t, "P2", diag.Unscored[0].NearestPointID)
	assert.InDelta(t, 11.1, diag.Unscored[0].NearestMeters, 0.1)
	// Without a position there is no suggestion
	assert.Equal(t, "", diag.Unscored[1].NearestPointID)
}

func TestCorrelateWithoutGroundTruth(t *testing.T) {
	fixes := []models.ReportedFix{{PointID: "P1"}, {PointID: "P2"}}

	var store *groundtruth.Store
	records, diag := Correlate(fixes, store)
	require.Len(t, records, 2)
	assert.Equal(t, 2, diag.Unmatched)
	for _, r := range records {
		assert.Nil(t, r.HorizontalErrorMeters)
	}

	records, diag = Correlate(fixes, nil)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, diag.Unmatched)
}

func TestCorrelateIdempotent(t *testing.T) {
	fixes := make([]models.ReportedFix, 0, 20)
	for i := 0; i < 20; i++ {
		fixes = append(fixes, models.ReportedFix{
			PointID:               fmt.Sprintf("P%d", i%3),
			ReportedLat:           40.0 + float64(i)*0.00001,
			ReportedLon:           -75.0,
			ReportedAltitude:      float64(i),
			HorizontalUncertainty: 5,
			HasPosition:           true,
		})
	}
	store := testStore(t)

	first, d1 := Correlate(fixes, store)
	second, d2 := Correlate(fixes, store)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("correlation not idempotent (-first +second):\n%s", diff)
	}
	assert.Equal(t, d1, d2)
}

func TestScoreUncertaintyFlag(t *testing.T) {
	point := models.GroundTruthPoint{PointID: "P1", Lat: 40.0, Lon: -75.0}

	testCases := []struct {
		name        string
		uncertainty float64
		within      bool
	}{
		{"no uncertainty", 0, false},
		{"too tight", 100, false},
		{"covers error", 120, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fix := models.ReportedFix{PointID: "P1", ReportedLat: 40.001, ReportedLon: -75.0, HorizontalUncertainty: tc.uncertainty}
			r := Score(fix, point)
			assert.InDelta(t, 111.19, *r.HorizontalErrorMeters, 0.01)
			assert.Equal(t, tc.within, r.IsWithinHorizontalUncertainty)
		})
	}
}

func TestScoreVerticalMethods(t *testing.T) {
	point := models.GroundTruthPoint{PointID: "P1", Lat: 40.0, Lon: -75.0, AltitudeEllipsoid: 20}

	r := Score(models.ReportedFix{ReportedAltitude: 3, PrecomputedVerticalError: ptr(-2.5)}, point)
	assert.Equal(t, 2.5, *r.VerticalErrorMeters)
	assert.Equal(t, models.VerticalPrecomputed, r.VerticalMethod)
	// the signed delta still comes from the altitudes
	assert.Equal(t, -17.0, *r.VerticalDeltaMeters)

	r = Score(models.ReportedFix{ReportedAltitude: 55, AltitudeHAE: ptr(23), AltitudeGeoid: ptr(55)}, point)
	assert.InDelta(t, 3.0, *r.VerticalErrorMeters, 1e-9)
	assert.Equal(t, models.VerticalReconciled, r.VerticalMethod)
}

func TestPrecomputedErrorKeepsSignedBias(t *testing.T) {
	point := models.GroundTruthPoint{PointID: "P1", Lat: 40.0, Lon: -75.0, AltitudeEllipsoid: 20}
	fix := models.ReportedFix{
		PointID:                  "P1",
		ReportedLat:              40.0,
		ReportedLon:              -75.0,
		HasPosition:              true,
		ReportedAltitude:         10,
		HasAltitude:              true,
		PrecomputedVerticalError: ptr(10),
	}

	r := Score(fix, point)
	assert.Equal(t, 10.0, *r.VerticalErrorMeters)
	assert.Equal(t, -10.0, *r.VerticalDeltaMeters)

	b := stats.DirectionalBias([]models.ScoredRecord{r}, stats.BiasMaterialityMeters)
	require.True(t, b.VerticalApplicable)
	assert.Equal(t, -10.0, b.VerticalMeters)
	assert.Equal(t, "down", b.VerticalDirection)
}

func BenchmarkCorrelate(b *testing.B) {
	rows := make([]models.TestPointRow, 500)
	for i := range rows {
		rows[i] = models.TestPointRow{ID: fmt.Sprintf("P%d", i), Lat: 40 + float64(i)*1e-5, Lon: -75}
	}
	store, _ := groundtruth.Build(rows)

	fixes := make([]models.ReportedFix, 10000)
	for i := range fixes {
		fixes[i] = models.ReportedFix{PointID: fmt.Sprintf("P%d", i%600), ReportedLat: 40, ReportedLon: -75, HasPosition: true}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Correlate(fixes, store)
	}
}
