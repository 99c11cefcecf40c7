package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/pkg/report"
	"github.com/kass/go-geo-audit/pkg/stats"
)

var (
	outputPath string
	plotFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export [format]",
	Short: "Write an audit artifact (" + strings.Join(report.ExporterNames(), ", ") + ")",
	Example: `  geo-audit export kml -w correlation.xlsx --truth test_points.xlsx
  geo-audit export plot -w correlation.xlsx --plot-format svg -o cdf.svg`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: report.ExporterNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := exporterFor(args[0])
		if err != nil {
			return err
		}

		res, err := runAudit(cmd.Context())
		if err != nil {
			return err
		}

		keep := recordFilter()
		records := res.Records.Subset(keep).Records()
		field := groupField()
		in := report.Input{
			Title:      strings.TrimSuffix(filepath.Base(workbookPath), filepath.Ext(workbookPath)),
			Records:    records,
			Thresholds: res.Thresholds,
			Summary:    res.Summary(keep),
			Groups:     res.Groups(keep, stats.KeyFor(field), stats.ByTech),
			GroupBy:    field,
			Bias:       stats.DirectionalBias(records, cfg.Bias.MaterialityMeters),
		}

		out := outputPath
		if out == "" {
			out = defaultOutput(workbookPath, exp)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		if err := exp.Export(f, in); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", exp.Name(), err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		logger.Info("Export written", zap.String("format", exp.Name()), zap.String("path", out), zap.Int("records", len(records)))
		fmt.Println(passStyle.Render(fmt.Sprintf("Wrote %s (%d records)", out, len(records))))
		return nil
	},
}

func exporterFor(name string) (report.Exporter, error) {
	if strings.EqualFold(name, "plot") {
		return report.PlotExporter{Format: plotFormat}, nil
	}
	return report.ExporterFor(strings.ToLower(name))
}

// defaultOutput places the artifact next to the workbook
func defaultOutput(workbook string, exp report.Exporter) string {
	base := strings.TrimSuffix(workbook, filepath.Ext(workbook))
	return base + "_" + exp.Name() + exp.Extension()
}
