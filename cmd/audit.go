package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/pkg/archive"
	"github.com/kass/go-geo-audit/pkg/audit"
	"github.com/kass/go-geo-audit/pkg/stats"
)

var (
	archiveRun   bool
	failureLimit int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Score a measurement workbook against ground truth",
	Example: `  geo-audit audit -w correlation.xlsx --truth test_points.xlsx
  geo-audit audit -w correlation.xlsx --truth-db --floor 2 -g device`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		res, err := runAudit(ctx)
		if err != nil {
			return err
		}

		keep := recordFilter()
		filtered := res.Records.Subset(keep).Records()
		summary := res.Summary(keep)
		field := groupField()

		if res.TruthErr != nil {
			fmt.Println(warnStyle.Render("Ground truth unavailable: " + res.TruthErr.Error()))
		} else {
			fmt.Println(renderBuildStats(res.BuildStats))
		}
		fmt.Println(renderSummary(res, summary))

		fmt.Println(subtitleStyle.Render("By " + field))
		fmt.Println(renderGroups(res.Groups(keep, stats.KeyFor(field), stats.ByTech), field, res.Thresholds))

		fmt.Println(renderBias(stats.DirectionalBias(filtered, cfg.Bias.MaterialityMeters)))
		fmt.Println()
		fmt.Println(renderFailures(stats.Failures(filtered, res.Thresholds), res.Thresholds, failureLimit))
		fmt.Println()
		fmt.Println(renderDiagnostics(res.Diagnostics))

		if archiveRun || cfg.Archive.Enabled {
			return saveRun(cmd, res, summary)
		}
		return nil
	},
}

func openArchive(cmd *cobra.Command) (*archive.Archive, error) {
	arc, err := archive.Open(cmd.Context(), cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", cfg.Archive.Path, err)
	}
	return arc, nil
}

func saveRun(cmd *cobra.Command, res *audit.Result, summary stats.Summary) error {
	arc, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	err = arc.SaveRun(cmd.Context(), archive.Run{
		ID:        res.RunID,
		StartedAt: res.StartedAt,
		Source:    workbookPath,
		Summary:   summary,
		Records:   res.Records.Subset(recordFilter()).Records(),
	})
	if err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}
	logger.Info("Run archived", zap.String("run_id", res.RunID), zap.String("path", cfg.Archive.Path))
	fmt.Println(dimStyle.Render(fmt.Sprintf("Archived run %s to %s", res.RunID, cfg.Archive.Path)))
	return nil
}
