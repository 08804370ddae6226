package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/themepilot/themepilot/internal/metrics"
	"github.com/themepilot/themepilot/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent deployments from history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		showStats, _ := cmd.Flags().GetBool("stats")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, err := storage.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history db: %w", err)
		}
		defer db.Close()

		records, err := db.ListDeployments(limit)
		if err != nil {
			return fmt.Errorf("list deployments: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No deployments recorded yet.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-12s %-10s %-26s %-10s %-10s %s\n",
			"ENV", "RESULT", "THEME", "VERSION", "DURATION", "STARTED")
		fmt.Println("--------------------------------------------------------------------------------------")
		for _, rec := range records {
			outcome := "ok"
			if !rec.Succeeded {
				outcome = "FAIL:" + rec.FailedStage
			}
			fmt.Fprintf(os.Stdout, "%-12s %-10s %-26s %-10s %-10s %s\n",
				rec.Environment,
				truncate(outcome, 10),
				truncate(rec.ThemeName, 24),
				rec.Version,
				rec.Duration.Round(timeRound),
				rec.StartedAt.Format("2006-01-02 15:04"),
			)
		}

		if showStats {
			// Stats need the full window, not just the display page.
			all, err := db.ListDeployments(0)
			if err != nil {
				return fmt.Errorf("list deployments: %w", err)
			}
			summary := metrics.Calculate(all, time.Now())
			fmt.Println()
			fmt.Println("Last 30 days:")
			fmt.Printf("  deploy frequency: %.2f/day\n", summary.DeployFrequency)
			fmt.Printf("  failure rate:     %.1f%%\n", summary.FailureRate)
			fmt.Printf("  avg duration:     %s\n", summary.AvgDuration.Round(timeRound))
			fmt.Printf("  mttr:             %s\n", summary.MTTR.Round(timeRound))
		}

		return nil
	},
}
