package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/themepilot/themepilot/internal/gitsync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the live theme into a git branch and open a pull request",
	Long:  "sync downloads the live theme, commits any drift onto a dated branch, and opens (or reuses) a pull request against the base branch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		syncer, err := gitsync.New(themeClient(cfg), cfg.Sync, retryPolicy(cfg))
		if err != nil {
			return err
		}

		result, err := syncer.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}

		if result.UpToDate {
			fmt.Println("Live theme matches the repository; nothing to sync.")
			return nil
		}

		fmt.Printf("Synced %d changed files to branch %s\n", result.FilesChanged, result.Branch)
		if result.PRURL != "" {
			fmt.Printf("Pull request #%d: %s\n", result.PRNumber, result.PRURL)
		}
		return nil
	},
}
