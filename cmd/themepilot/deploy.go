package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the production deployment pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		skipBuild, _ := cmd.Flags().GetBool("skip-build")
		skipBackup, _ := cmd.Flags().GetBool("skip-backup")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		history := openHistory(cfg)
		if history != nil {
			defer history.Close()
		}

		engine, err := buildEngine(cfg, history, skipBuild, skipBackup)
		if err != nil {
			return err
		}

		result, err := engine.DeployProduction(cmd.Context())
		if result != nil {
			printResult(result)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Deployment failed: %v\n", err)
			return err
		}
		return nil
	},
}
