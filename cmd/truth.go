package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/pkg/groundtruth"
)

var snapshotPath string

var truthCmd = &cobra.Command{
	Use:   "truth",
	Short: "Load and validate ground truth, optionally writing a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := groundTruthSource(cfg, truthPath, truthDB)
		if src == nil {
			return errors.New("no ground truth source: pass --truth, --truth-db or set ground_truth.path")
		}

		start := time.Now()
		rows, err := src.TestPoints(cmd.Context())
		if err != nil {
			return err
		}
		store, st := groundtruth.Build(rows)
		logger.Info("Ground truth loaded",
			zap.Int("rows", st.Rows),
			zap.Int("loaded", st.Loaded),
			zap.Duration("elapsed", time.Since(start)))

		fmt.Println(titleStyle.Render("Ground Truth"))
		fmt.Println(renderBuildStats(st))

		out := snapshotPath
		if out == "" {
			return nil
		}
		if err := store.SaveToFile(out); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		size := ""
		if info, err := os.Stat(out); err == nil {
			size = fmt.Sprintf(" (%.1f KB)", float64(info.Size())/1024)
		}
		fmt.Println(passStyle.Render(fmt.Sprintf("Snapshot of %d points written to %s%s", store.Len(), out, size)))
		return nil
	},
}
