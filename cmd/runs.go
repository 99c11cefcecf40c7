package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived audit runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		arc, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer arc.Close()

		runs, err := arc.Runs(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println(dimStyle.Render("No archived runs in " + cfg.Archive.Path))
			return nil
		}

		t := newTable("Run", "Started", "Source", "Records", "Scored", "P H", "P V", "Fail rate")
		for _, r := range runs {
			t.Row(
				shortID(r.ID),
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.Source,
				fmt.Sprint(r.Total),
				fmt.Sprint(r.Scored),
				verdict(fmt.Sprintf("%.2fm", r.HorizontalPercentile), r.HorizontalPercentile <= cfg.Thresholds.HorizontalMeters),
				verdict(fmt.Sprintf("%.2fm", r.VerticalPercentile), r.VerticalPercentile <= cfg.Thresholds.VerticalMeters),
				pct(r.FailRate),
			)
		}
		fmt.Println(titleStyle.Render("Archived Runs"))
		fmt.Println(t.String())
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
