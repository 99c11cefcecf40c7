// Package groundtruth builds the immutable lookup of surveyed test points that
// reported fixes are scored against.
package groundtruth

import (
	"sort"
	"strings"

	"github.com/kass/go-geo-audit/pkg/models"
)

// BuildStats describes what Build did with its input rows
type BuildStats struct {
	Rows         int      `json:"rows"`
	Loaded       int      `json:"loaded"`
	Skipped      int      `json:"skipped"`    // rows without an identifier
	Duplicates   int      `json:"duplicates"` // rows that overwrote an earlier row
	DuplicateIDs []string `json:"duplicateIds,omitempty"`
}

// Store is an immutable point ID to ground truth mapping with a spatial index.
// A nil *Store behaves as an empty store.
type Store struct {
	points map[string]models.GroundTruthPoint
	index  *spatialIndex
}

// NormalizeID trims an identifier for use as a lookup key
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// Build creates a store from raw test point rows.
// Rows with an empty identifier are skipped. When an identifier repeats, the
// later row replaces the earlier one.
func Build(rows []models.TestPointRow) (*Store, BuildStats) {
	stats := BuildStats{Rows: len(rows)}
	points := make(map[string]models.GroundTruthPoint, len(rows))
	seenDup := make(map[string]bool)

	for _, r := range rows {
		id := NormalizeID(r.ID)
		if id == "" {
			stats.Skipped++
			continue
		}
		if _, exists := points[id]; exists {
			stats.Duplicates++
			if !seenDup[id] {
				seenDup[id] = true
				stats.DuplicateIDs = append(stats.DuplicateIDs, id)
			}
		}
		points[id] = models.GroundTruthPoint{
			PointID:           id,
			Lat:               r.Lat,
			Lon:               r.Lon,
			AltitudeEllipsoid: r.AltitudeEllipsoid,
			Building:          r.Building,
			Floor:             r.Floor,
		}
	}
	stats.Loaded = len(points)

	return newStore(points), stats
}

// Empty returns a store with no points
func Empty() *Store {
	return newStore(nil)
}

func newStore(points map[string]models.GroundTruthPoint) *Store {
	if points == nil {
		points = make(map[string]models.GroundTruthPoint)
	}
	s := &Store{points: points, index: newSpatialIndex()}
	s.index.insert(s.Points())
	return s
}

// Lookup returns the ground truth point for id
func (s *Store) Lookup(id string) (models.GroundTruthPoint, bool) {
	if s == nil {
		return models.GroundTruthPoint{}, false
	}
	p, ok := s.points[NormalizeID(id)]
	return p, ok
}

// Len returns the number of distinct points
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// IDs returns all point IDs in ascending order
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.points))
	for id := range s.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Points returns all points ordered by ID
func (s *Store) Points() []models.GroundTruthPoint {
	if s == nil {
		return nil
	}
	ids := s.IDs()
	points := make([]models.GroundTruthPoint, len(ids))
	for i, id := range ids {
		points[i] = s.points[id]
	}
	return points
}

// Rows returns the points as source rows, ordered by ID
func (s *Store) Rows() []models.TestPointRow {
	points := s.Points()
	rows := make([]models.TestPointRow, len(points))
	for i, p := range points {
		rows[i] = models.TestPointRow{
			ID:                p.PointID,
			Lat:               p.Lat,
			Lon:               p.Lon,
			AltitudeEllipsoid: p.AltitudeEllipsoid,
			Building:          p.Building,
			Floor:             p.Floor,
		}
	}
	return rows
}
