package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ai-assistant/internal/analytics"
	"ai-assistant/internal/storage"
)

var (
	statsDate string
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize one day of the interaction log",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC()
		if statsDate != "" {
			var err error
			day, err = time.Parse("2006-01-02", statsDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", statsDate, err)
			}
		}
		rec, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			return err
		}
		events, err := rec.LoadInteractions()
		if err != nil {
			return err
		}

		stats := analytics.AnalyzeDailyLogs(events, day)
		if statsJSON {
			js, err := stats.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), js)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), stats.GenerateReportSummary())
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDate, "date", "", "UTC day to summarize (YYYY-MM-DD, default today)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON instead of text")
}
