package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// RecordColumns is the header of WriteRecordsCSV
var RecordColumns = []string{
	"Point ID", "Timestamp", "Device", "Handset OS", "Participant", "Carrier",
	"Building", "Floor", "Stage", "Path ID", "Technology", "Location Source", "Summary Pool Tech",
	"Reported Latitude", "Reported Longitude", "Reported Altitude",
	"Altitude (HAE)", "Altitude (Geoid)", "Horizontal Uncertainty", "Vertical Uncertainty",
	"Truth Latitude", "Truth Longitude", "Truth Altitude (HAE)",
	"Horizontal Error (m)", "Vertical Error (m)", "Vertical Delta (m)", "Vertical Method",
	"Within Uncertainty", "Completed Call", "Correlated Call", "Valid Horizontal", "Valid Vertical",
	"Status",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

// WriteRecordsCSV writes one row per record. Errors of unmatched records are
// left empty rather than written as 0.
func WriteRecordsCSV(w io.Writer, records []models.ScoredRecord, th stats.Thresholds) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range records {
		var truthLat, truthLon, truthAlt string
		if r.Truth != nil {
			truthLat = formatFloat(r.Truth.Lat)
			truthLon = formatFloat(r.Truth.Lon)
			truthAlt = formatFloat(r.Truth.AltitudeEllipsoid)
		}
		row := []string{
			r.PointID, r.Timestamp, r.Device, r.HandsetOS, r.Participant, r.Carrier,
			r.Building, r.Floor, r.Stage, r.PathID, r.Tech, r.LocationSource, r.SummaryPoolTech,
			formatFloat(r.ReportedLat), formatFloat(r.ReportedLon), formatFloat(r.ReportedAltitude),
			formatOptional(r.AltitudeHAE, -1), formatOptional(r.AltitudeGeoid, -1),
			formatFloat(r.HorizontalUncertainty), formatFloat(r.VerticalUncertainty),
			truthLat, truthLon, truthAlt,
			formatOptional(r.HorizontalErrorMeters, 2), formatOptional(r.VerticalErrorMeters, 2),
			formatOptional(r.VerticalDeltaMeters, 2), string(r.VerticalMethod),
			strconv.FormatBool(r.IsWithinHorizontalUncertainty),
			r.CompletedCall, r.CorrelatedCall, r.ValidHorizontal, r.ValidVertical,
			string(stats.Classify(r, th).Outcome()),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", r.PointID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAuditCSV writes the building audit layout: a summary block followed by
// the failure log of records failing either axis
func WriteAuditCSV(w io.Writer, summary stats.Summary, records []models.ScoredRecord) error {
	th := summary.Thresholds
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"BUILDING AUDIT SUMMARY"},
		{fmt.Sprintf("P%g Horizontal Error", th.Percentile), fmt.Sprintf("%.2fm (Threshold: %gm)", summary.HorizontalPercentile, th.HorizontalMeters)},
		{fmt.Sprintf("P%g Vertical Error", th.Percentile), fmt.Sprintf("%.2fm (Threshold: %gm)", summary.VerticalPercentile, th.VerticalMeters)},
		{"Total Test Points", strconv.Itoa(summary.Total)},
		{"Scored", strconv.Itoa(summary.Scored)},
		{"Failure Rate", fmt.Sprintf("%.1f%%", summary.FailRate*100)},
		{},
		{"POINT FAILURE LOG"},
		{"Point ID", "Floor", "Horizontal Error (m)", "Vertical Error (m)", "Technology", "Status"},
	}
	for _, r := range stats.Failures(records, th) {
		rows = append(rows, []string{
			r.PointID, r.Floor,
			formatOptional(r.HorizontalErrorMeters, 2), formatOptional(r.VerticalErrorMeters, 2),
			r.Tech, string(stats.OutcomeFail),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write audit csv: %w", err)
	}
	return nil
}
