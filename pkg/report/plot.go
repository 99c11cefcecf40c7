package report

import (
	"fmt"
	"image/color"
	"io"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// ErrorCDF returns the empirical cumulative distribution of the horizontal
// errors of matched records, as (error, fraction) points
func ErrorCDF(records []models.ScoredRecord) plotter.XYs {
	var errs []float64
	for _, r := range records {
		if r.HorizontalErrorMeters != nil {
			errs = append(errs, *r.HorizontalErrorMeters)
		}
	}
	sort.Float64s(errs)

	pts := make(plotter.XYs, len(errs))
	for i, e := range errs {
		pts[i] = plotter.XY{X: e, Y: float64(i+1) / float64(len(errs))}
	}
	return pts
}

// WriteErrorCDF draws the horizontal error CDF with markers at the failure
// threshold and the KPI percentile. format is an image extension such as
// "png" or "svg".
func WriteErrorCDF(w io.Writer, records []models.ScoredRecord, th stats.Thresholds, format string) error {
	pts := ErrorCDF(records)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Horizontal error CDF (n=%d)", len(pts))
	p.X.Label.Text = "Horizontal error (m)"
	p.Y.Label.Text = "Fraction of fixes"
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(plotter.NewGrid())

	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build cdf line: %w", err)
		}
		line.Width = vg.Points(1.5)
		line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		p.Add(line)
		p.Legend.Add("CDF", line)
	}

	limit, err := plotter.NewLine(plotter.XYs{{X: th.HorizontalMeters, Y: 0}, {X: th.HorizontalMeters, Y: 1}})
	if err != nil {
		return fmt.Errorf("failed to build threshold line: %w", err)
	}
	limit.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	limit.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(limit)
	p.Legend.Add(fmt.Sprintf("threshold %gm", th.HorizontalMeters), limit)

	kpi, err := plotter.NewLine(plotter.XYs{{X: 0, Y: th.Percentile / 100}, {X: maxX(pts, th.HorizontalMeters), Y: th.Percentile / 100}})
	if err != nil {
		return fmt.Errorf("failed to build percentile line: %w", err)
	}
	kpi.Color = color.Gray{Y: 128}
	p.Add(kpi)
	p.Legend.Add(fmt.Sprintf("P%g", th.Percentile), kpi)
	p.Legend.Top = false
	p.Legend.Left = false

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("failed to create %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

func maxX(pts plotter.XYs, floor float64) float64 {
	m := floor
	if n := len(pts); n > 0 && pts[n-1].X > m {
		m = pts[n-1].X
	}
	return m
}
