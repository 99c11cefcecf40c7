package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// Input is everything an exporter may draw from
type Input struct {
	Title      string
	Records    []models.ScoredRecord
	Thresholds stats.Thresholds
	Summary    stats.Summary
	Groups     []stats.Group
	GroupBy    string
	Bias       stats.Bias
}

// Exporter writes one artifact format
type Exporter interface {
	Name() string
	Extension() string
	Export(w io.Writer, in Input) error
}

type kmlExporter struct{}

func (kmlExporter) Name() string      { return "kml" }
func (kmlExporter) Extension() string { return ".kml" }
func (kmlExporter) Export(w io.Writer, in Input) error {
	var key stats.KeyFunc
	if in.GroupBy != "" {
		key = stats.KeyFor(in.GroupBy)
	}
	return WriteKML(w, Vectors(in.Records, in.Thresholds, key), in.Title)
}

type auditCSVExporter struct{}

func (auditCSVExporter) Name() string      { return "csv" }
func (auditCSVExporter) Extension() string { return ".csv" }
func (auditCSVExporter) Export(w io.Writer, in Input) error {
	return WriteAuditCSV(w, in.Summary, in.Records)
}

type recordsCSVExporter struct{}

func (recordsCSVExporter) Name() string      { return "records" }
func (recordsCSVExporter) Extension() string { return ".csv" }
func (recordsCSVExporter) Export(w io.Writer, in Input) error {
	return WriteRecordsCSV(w, in.Records, in.Thresholds)
}

type dashboardExporter struct{}

func (dashboardExporter) Name() string      { return "dashboard" }
func (dashboardExporter) Extension() string { return ".html" }
func (dashboardExporter) Export(w io.Writer, in Input) error {
	return WriteDashboard(w, Dashboard{
		Title:   in.Title,
		Summary: in.Summary,
		Groups:  in.Groups,
		GroupBy: in.GroupBy,
		Bias:    in.Bias,
	})
}

// PlotExporter writes the error CDF in Format ("png" when empty)
type PlotExporter struct {
	Format string
}

func (PlotExporter) Name() string { return "plot" }

func (e PlotExporter) Extension() string { return "." + e.format() }

func (e PlotExporter) Export(w io.Writer, in Input) error {
	return WriteErrorCDF(w, in.Records, in.Thresholds, e.format())
}

func (e PlotExporter) format() string {
	if e.Format == "" {
		return "png"
	}
	return e.Format
}

var exporters = map[string]Exporter{
	"kml":       kmlExporter{},
	"csv":       auditCSVExporter{},
	"records":   recordsCSVExporter{},
	"dashboard": dashboardExporter{},
	"plot":      PlotExporter{},
}

// ExporterFor returns the exporter registered under name
func ExporterFor(name string) (Exporter, error) {
	e, ok := exporters[name]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (available: %v)", name, ExporterNames())
	}
	return e, nil
}

// ExporterNames lists the registered formats, sorted
func ExporterNames() []string {
	names := make([]string, 0, len(exporters))
	for n := range exporters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
