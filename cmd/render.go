package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kass/go-geo-audit/pkg/audit"
	"github.com/kass/go-geo-audit/pkg/correlate"
	"github.com/kass/go-geo-audit/pkg/groundtruth"
	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return subtitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func renderSummary(res *audit.Result, s stats.Summary) string {
	th := s.Thresholds
	lines := []string{
		titleStyle.Render("Accuracy Audit"),
		dimStyle.Render("run " + res.RunID),
		"",
		fmt.Sprintf("Records:            %s (%s scored, %s unmatched)",
			statStyle.Render(fmt.Sprint(s.Total)), statStyle.Render(fmt.Sprint(s.Scored)), statStyle.Render(fmt.Sprint(s.Unmatched))),
		fmt.Sprintf("P%g horizontal:      %s  (limit %gm)", th.Percentile,
			verdict(fmt.Sprintf("%.2fm", s.HorizontalPercentile), s.HorizontalPercentile <= th.HorizontalMeters), th.HorizontalMeters),
		fmt.Sprintf("P%g vertical:        %s  (limit %gm)", th.Percentile,
			verdict(fmt.Sprintf("%.2fm", s.VerticalPercentile), s.VerticalPercentile <= th.VerticalMeters), th.VerticalMeters),
		fmt.Sprintf("Mean H / V:         %.2fm / %.2fm", s.MeanHorizontal, s.MeanVertical),
		fmt.Sprintf("Failures:           %s H, %s V, %s any (%s)",
			statStyle.Render(fmt.Sprint(s.HorizontalFailures)), statStyle.Render(fmt.Sprint(s.VerticalFailures)),
			statStyle.Render(fmt.Sprint(s.AnyFailures)), verdict(pct(s.FailRate), s.AnyFailures == 0)),
		fmt.Sprintf("Within uncertainty: %d (%s)", s.WithinUncertainty, pct(s.WithinUncertaintyRate)),
		fmt.Sprintf("Qualifiers:         completed %d, correlated %d, valid H %d, valid V %d",
			s.Qualifiers.CompletedCalls, s.Qualifiers.CorrelatedCalls, s.Qualifiers.ValidHorizontal, s.Qualifiers.ValidVertical),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderBuildStats(st groundtruth.BuildStats) string {
	out := fmt.Sprintf("Ground truth: %s points from %d rows, %d skipped, %d duplicates",
		statStyle.Render(fmt.Sprint(st.Loaded)), st.Rows, st.Skipped, st.Duplicates)
	if len(st.DuplicateIDs) > 0 {
		out += "\n" + warnStyle.Render("Duplicate IDs (last row wins): "+strings.Join(firstN(st.DuplicateIDs, 10), ", "))
	}
	return out
}

func renderDiagnostics(d correlate.Diagnostics) string {
	if d.Unmatched == 0 {
		return passStyle.Render(fmt.Sprintf("All %d records matched ground truth", d.Total))
	}
	var b strings.Builder
	b.WriteString(warnStyle.Render(fmt.Sprintf("%d of %d records have no ground truth; missing IDs: %s",
		d.Unmatched, d.Total, strings.Join(firstN(d.MissingIDs, 10), ", "))))

	t := newTable("Row", "Point ID", "Nearest survey point", "Distance")
	rows := 0
	for _, u := range d.Unscored {
		if u.NearestPointID == "" {
			continue
		}
		t.Row(fmt.Sprint(u.Index+1), u.PointID, u.NearestPointID, fmt.Sprintf("%.1fm", u.NearestMeters))
		if rows++; rows == 10 {
			break
		}
	}
	if rows > 0 {
		b.WriteString("\n")
		b.WriteString(t.String())
	}
	return b.String()
}

func renderGroups(groups []stats.Group, field string, th stats.Thresholds) string {
	t := newTable(heading(field), "Records", "Scored",
		fmt.Sprintf("P%g H", th.Percentile), fmt.Sprintf("P%g V", th.Percentile), "H fail", "V fail", "Top tech")
	for _, g := range groups {
		top := g.TopBreakdown()
		mix := ""
		if len(top) > 0 {
			mix = fmt.Sprintf("%s %s", top[0], pct(g.Share(top[0])))
		}
		t.Row(
			g.Key,
			fmt.Sprint(g.Count),
			fmt.Sprint(g.Scored),
			verdict(fmt.Sprintf("%.2f", g.HorizontalPercentile), g.HorizontalPercentile <= th.HorizontalMeters),
			verdict(fmt.Sprintf("%.2f", g.VerticalPercentile), g.VerticalPercentile <= th.VerticalMeters),
			pct(g.HorizontalFailRate),
			pct(g.VerticalFailRate),
			mix,
		)
	}
	return t.String()
}

func renderBias(b stats.Bias) string {
	var parts []string
	if b.Applicable {
		parts = append(parts, fmt.Sprintf("Horizontal bias: %s %.2fm (N %+.2fm, E %+.2fm, n=%d)",
			statStyle.Render(b.Direction), b.MagnitudeMeters, b.NorthMeters, b.EastMeters, b.Count))
	} else {
		parts = append(parts, dimStyle.Render("Horizontal bias: not applicable"))
	}
	if b.VerticalApplicable {
		parts = append(parts, fmt.Sprintf("Vertical bias:   %s %+.2fm (n=%d)",
			statStyle.Render(b.VerticalDirection), b.VerticalMeters, b.VerticalCount))
	} else {
		parts = append(parts, dimStyle.Render("Vertical bias:   not applicable"))
	}
	return strings.Join(parts, "\n")
}

func renderFailures(failures []models.ScoredRecord, th stats.Thresholds, limit int) string {
	if len(failures) == 0 {
		return passStyle.Render("No failing points")
	}
	t := newTable("Point ID", "Floor", "Device", "Tech", "H error", "V error")
	for i, r := range failures {
		if limit > 0 && i == limit {
			break
		}
		c := stats.Classify(r, th)
		t.Row(r.PointID, r.Floor, r.Device, r.Tech,
			verdict(fmt.Sprintf("%.2fm", *r.HorizontalErrorMeters), !c.HorizontalFail),
			verdict(fmt.Sprintf("%.2fm", *r.VerticalErrorMeters), !c.VerticalFail))
	}
	out := subtitleStyle.Render(fmt.Sprintf("Failing points (%d)", len(failures))) + "\n" + t.String()
	if limit > 0 && len(failures) > limit {
		out += "\n" + dimStyle.Render(fmt.Sprintf("... %d more, use --failures to see more", len(failures)-limit))
	}
	return out
}

func heading(field string) string {
	if field == "" {
		return "Group"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return append(values[:n:n], fmt.Sprintf("(+%d more)", len(values)-n))
	}
	return values
}
