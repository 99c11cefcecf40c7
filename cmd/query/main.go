package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/internal/config"
	"github.com/kass/go-geo-audit/internal/logging"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/models"
)

func main() {
	var (
		snapshot  = flag.String("i", "ground_truth.gob", "Ground truth snapshot path")
		queryType = flag.String("t", "nearest", "Query type: box, radius, nearest, id")
		// Box query parameters
		minLat = flag.Float64("min-lat", 0, "Minimum latitude (box query)")
		maxLat = flag.Float64("max-lat", 0, "Maximum latitude (box query)")
		minLon = flag.Float64("min-lon", 0, "Minimum longitude (box query)")
		maxLon = flag.Float64("max-lon", 0, "Maximum longitude (box query)")
		// Radius and nearest query parameters
		centerLat = flag.Float64("lat", 0, "Center latitude (radius/nearest query)")
		centerLon = flag.Float64("lon", 0, "Center longitude (radius/nearest query)")
		radius    = flag.Float64("radius", 25, "Radius in meters (radius query)")
		k         = flag.Int("k", 5, "Number of nearest test points (nearest query)")
		pointID   = flag.String("id", "", "Test point ID (id query)")

		outputJSON = flag.Bool("json", false, "Output results as JSON")
		limit      = flag.Int("limit", 100, "Maximum number of results to display")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	logger, err := logging.New(config.LoggingConfig{Level: "info", Format: "console"}, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := groundtruth.LoadFromFile(*snapshot)
	if err != nil {
		logger.Fatal("Failed to load snapshot", zap.String("path", *snapshot), zap.Error(err))
	}
	logger.Info("Snapshot loaded", zap.Int("points", store.Len()))

	center := models.Location{Lat: *centerLat, Lon: *centerLon}
	var results []groundtruth.Neighbor

	switch *queryType {
	case "box":
		if *minLat == 0 && *maxLat == 0 && *minLon == 0 && *maxLon == 0 {
			logger.Fatal("Box query requires --min-lat, --max-lat, --min-lon, --max-lon")
		}
		box := models.BoundingBox{
			BottomLeft: models.Location{Lat: *minLat, Lon: *minLon},
			TopRight:   models.Location{Lat: *maxLat, Lon: *maxLon},
		}
		for _, p := range store.InBox(box) {
			results = append(results, groundtruth.Neighbor{Point: p})
		}

	case "radius":
		if *centerLat == 0 && *centerLon == 0 {
			logger.Fatal("Radius query requires --lat and --lon for the center point")
		}
		results = store.WithinRadius(center, *radius)

	case "nearest":
		if *centerLat == 0 && *centerLon == 0 {
			logger.Fatal("Nearest query requires --lat and --lon")
		}
		results = store.Nearest(center, *k)

	case "id":
		p, ok := store.Lookup(*pointID)
		if !ok {
			logger.Fatal("Test point not found", zap.String("id", *pointID))
		}
		results = []groundtruth.Neighbor{{Point: p}}

	default:
		logger.Fatal("Unknown query type", zap.String("type", *queryType))
	}
	logger.Info("Query complete", zap.String("type", *queryType), zap.Int("results", len(results)))

	if len(results) > *limit {
		logger.Info("Truncating results, use --limit to see more", zap.Int("limit", *limit))
		results = results[:*limit]
	}

	if *outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			logger.Fatal("Failed to encode results", zap.Error(err))
		}
		return
	}

	withDistance := *queryType == "radius" || *queryType == "nearest"
	for i, n := range results {
		p := n.Point
		line := fmt.Sprintf("%d. %s: (%.7f, %.7f, %.2fm)", i+1, p.PointID, p.Lat, p.Lon, p.AltitudeEllipsoid)
		if p.Floor != "" {
			line += " floor " + p.Floor
		}
		if withDistance {
			line += fmt.Sprintf(" - %.2f m", n.DistanceMeters)
		}
		fmt.Println(line)
	}
}
