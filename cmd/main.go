package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/internal/config"
	"github.com/kass/go-geo-audit/internal/logging"
)

var (
	configFile string
	verbose    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "geo-audit",
	Short: "Indoor positioning accuracy audit",
	Long: `Correlates device-reported location fixes with surveyed test points,
scores horizontal and vertical error, and reports percentile, failure and
directional bias statistics as terminal tables, KML, CSV and charts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "geo-audit.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	addSourceFlags(auditCmd)
	addFilterFlags(auditCmd)
	auditCmd.Flags().BoolVar(&archiveRun, "archive", false, "Save the run to the SQLite archive")
	auditCmd.Flags().IntVar(&failureLimit, "failures", 20, "Maximum number of failing points to list")

	addSourceFlags(exportCmd)
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file (default derived from the workbook name)")
	exportCmd.Flags().StringVar(&plotFormat, "plot-format", "png", "Image format for the plot export (png, svg, pdf)")

	truthCmd.Flags().StringVar(&truthPath, "truth", "", "Test point workbook or CSV")
	truthCmd.Flags().BoolVar(&truthDB, "truth-db", false, "Read test points from PostGIS")
	truthCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write a ground truth snapshot for cmd/query")

	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "Number of runs to list")

	rootCmd.AddCommand(auditCmd, exportCmd, truthCmd, runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
