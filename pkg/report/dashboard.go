package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kass/go-geo-audit/pkg/stats"
)

// Dashboard is the input of WriteDashboard
type Dashboard struct {
	Title   string
	Summary stats.Summary
	Groups  []stats.Group
	GroupBy string
	Bias    stats.Bias
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteDashboard renders an HTML page with per-group percentile and failure
// rate charts
func WriteDashboard(w io.Writer, d Dashboard) error {
	s := d.Summary
	th := s.Thresholds

	keys := make([]string, len(d.Groups))
	hp := make([]opts.BarData, len(d.Groups))
	vp := make([]opts.BarData, len(d.Groups))
	hf := make([]opts.BarData, len(d.Groups))
	vf := make([]opts.BarData, len(d.Groups))
	for i, g := range d.Groups {
		keys[i] = g.Key
		hp[i] = opts.BarData{Value: round2(g.HorizontalPercentile)}
		vp[i] = opts.BarData{Value: round2(g.VerticalPercentile)}
		hf[i] = opts.BarData{Value: round2(g.HorizontalFailRate * 100)}
		vf[i] = opts.BarData{Value: round2(g.VerticalFailRate * 100)}
	}

	subtitle := fmt.Sprintf("records=%d scored=%d P%g H=%.2fm V=%.2fm fail=%.1f%%",
		s.Total, s.Scored, th.Percentile, s.HorizontalPercentile, s.VerticalPercentile, s.FailRate*100)
	if d.Bias.Applicable {
		subtitle += fmt.Sprintf(" bias=%s %.1fm", d.Bias.Direction, d.Bias.MagnitudeMeters)
	}

	accuracy := charts.NewBar()
	accuracy.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: d.Title, Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("P%g error by %s", th.Percentile, d.GroupBy), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Error (m)"}),
	)
	accuracy.SetXAxis(keys).
		AddSeries("Horizontal", hp, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "H threshold", YAxis: th.HorizontalMeters})).
		AddSeries("Vertical", vp, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "V threshold", YAxis: th.VerticalMeters}))

	failures := charts.NewBar()
	failures.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Failure rate by %s", d.GroupBy)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Failed (%)", Max: 100}),
	)
	failures.SetXAxis(keys).
		AddSeries("Horizontal", hf, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("Vertical", vf, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.PageTitle = d.Title
	page.AddCharts(accuracy, failures)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}
