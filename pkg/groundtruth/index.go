package groundtruth

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/go-geo-audit/pkg/geodesy"
	"github.com/kass/go-geo-audit/pkg/models"
)

const (
	tolerance   = 1e-7 // degrees, point rectangle half-size
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialItem wraps a ground truth point for R-Tree indexing
type spatialItem struct {
	point models.GroundTruthPoint
	rect  *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// spatialIndex is built once per store and only read afterwards
type spatialIndex struct {
	tree *rtreego.Rtree
}

func newSpatialIndex() *spatialIndex {
	return &spatialIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

func (ix *spatialIndex) insert(points []models.GroundTruthPoint) {
	for _, p := range points {
		rect := rtreego.Point{p.Lat, p.Lon}.ToRect(tolerance)
		ix.tree.Insert(&spatialItem{point: p, rect: rect})
	}
}

func (ix *spatialIndex) search(latBL, lonBL, latTR, lonTR float64) []models.GroundTruthPoint {
	width := math.Max(latTR-latBL, tolerance)
	height := math.Max(lonTR-lonBL, tolerance)
	bounds, err := rtreego.NewRect(rtreego.Point{latBL, lonBL}, []float64{width, height})
	if err != nil {
		return nil
	}

	results := ix.tree.SearchIntersect(bounds)
	points := make([]models.GroundTruthPoint, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialItem)
		if !ok {
			continue
		}
		points = append(points, item.point)
	}
	return points
}

// Neighbor is a ground truth point with its distance from a query location
type Neighbor struct {
	Point          models.GroundTruthPoint `json:"point"`
	DistanceMeters float64                 `json:"distanceMeters"`
}

// InBox returns the points inside the bounding box, ordered by ID
func (s *Store) InBox(box models.BoundingBox) []models.GroundTruthPoint {
	if s == nil || box.TopRight.Lat < box.BottomLeft.Lat || box.TopRight.Lon < box.BottomLeft.Lon {
		return nil
	}
	candidates := s.index.search(box.BottomLeft.Lat, box.BottomLeft.Lon, box.TopRight.Lat, box.TopRight.Lon)

	points := make([]models.GroundTruthPoint, 0, len(candidates))
	for _, p := range candidates {
		if box.Contains(p.Location()) {
			points = append(points, p)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].PointID < points[j].PointID })
	return points
}

// WithinRadius returns the points within radiusMeters of center, nearest first
func (s *Store) WithinRadius(center models.Location, radiusMeters float64) []Neighbor {
	if s == nil || radiusMeters < 0 {
		return nil
	}

	// Degree extents of the search box around center
	latDeg := (radiusMeters / geodesy.EarthRadiusMeters) * (180 / math.Pi)
	lonDeg := latDeg / math.Max(math.Cos(center.Lat*math.Pi/180), 1e-6)

	candidates := s.index.search(center.Lat-latDeg, center.Lon-lonDeg, center.Lat+latDeg, center.Lon+lonDeg)
	neighbors := make([]Neighbor, 0, len(candidates))
	for _, p := range candidates {
		dist := geodesy.HorizontalDistanceMeters(center.Lat, center.Lon, p.Lat, p.Lon)
		if dist <= radiusMeters {
			neighbors = append(neighbors, Neighbor{Point: p, DistanceMeters: dist})
		}
	}
	sortNeighbors(neighbors)
	return neighbors
}

// Nearest returns up to n points closest to loc, nearest first
func (s *Store) Nearest(loc models.Location, n int) []Neighbor {
	if s == nil || n <= 0 || s.index.tree.Size() == 0 {
		return nil
	}

	// The tree ranks by planar degree distance, so oversample and re-rank
	// by great-circle distance.
	k := n*4 + 8
	results := s.index.tree.NearestNeighbors(k, rtreego.Point{loc.Lat, loc.Lon})

	neighbors := make([]Neighbor, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialItem)
		if !ok || item == nil {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Point:          item.point,
			DistanceMeters: geodesy.HorizontalDistanceMeters(loc.Lat, loc.Lon, item.point.Lat, item.point.Lon),
		})
	}
	sortNeighbors(neighbors)

	if len(neighbors) > n {
		neighbors = neighbors[:n]
	}
	return neighbors
}

// NearestPoint returns the closest point to loc
func (s *Store) NearestPoint(loc models.Location) (Neighbor, bool) {
	neighbors := s.Nearest(loc, 1)
	if len(neighbors) == 0 {
		return Neighbor{}, false
	}
	return neighbors[0], true
}

func sortNeighbors(neighbors []Neighbor) {
	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].DistanceMeters != neighbors[j].DistanceMeters {
			return neighbors[i].DistanceMeters < neighbors[j].DistanceMeters
		}
		return neighbors[i].Point.PointID < neighbors[j].Point.PointID
	})
}
