package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/themepilot/themepilot/internal/core"
)

var stagingCmd = &cobra.Command{
	Use:   "staging",
	Short: "Deploy to the staging theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		skipBuild, _ := cmd.Flags().GetBool("skip-build")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		history := openHistory(cfg)
		if history != nil {
			defer history.Close()
		}

		engine, err := buildStagingEngine(cfg, history, skipBuild)
		if err != nil {
			return err
		}

		result, err := engine.DeployStaging(cmd.Context())
		if result != nil {
			printResult(result)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Staging deployment failed: %v\n", err)
			return err
		}
		return nil
	},
}

func printResult(r *core.Result) {
	if r.Succeeded {
		fmt.Printf("Deployed %s to theme %d (%s) in %s\n",
			r.Environment, r.TargetID, r.TargetName, r.Duration.Round(timeRound))
		if r.Version != "" {
			fmt.Printf("  version:  %s\n", r.Version)
		}
		if r.BackupName != "" {
			fmt.Printf("  backup:   %s (id %d)\n", r.BackupName, r.BackupID)
		}
		if r.PreviewURL != "" {
			fmt.Printf("  preview:  %s\n", r.PreviewURL)
		}
		if r.EditorURL != "" {
			fmt.Printf("  editor:   %s\n", r.EditorURL)
		}
		return
	}
	fmt.Printf("Deployment failed at stage %q after %s\n", r.FailedStage, r.Duration.Round(timeRound))
	if r.BackupName != "" {
		fmt.Printf("  backup %s (id %d) was created and is kept\n", r.BackupName, r.BackupID)
	}
}
