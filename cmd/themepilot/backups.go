package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Manage backup themes",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup themes on the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		manager, err := backupManager(cfg, themeClient(cfg), retryPolicy(cfg))
		if err != nil {
			return err
		}

		backups, err := manager.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}

		if len(backups) == 0 {
			fmt.Println("No backup themes found.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-14s %-44s %-14s %s\n", "THEME ID", "NAME", "ROLE", "CREATED")
		fmt.Println("--------------------------------------------------------------------------------------")
		for _, b := range backups {
			fmt.Fprintf(os.Stdout, "%-14d %-44s %-14s %s\n",
				b.ID,
				truncate(b.Name, 42),
				b.Role,
				b.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var backupsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete backup themes beyond the retention count",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		manager, err := backupManager(cfg, themeClient(cfg), retryPolicy(cfg))
		if err != nil {
			return err
		}

		if dryRun {
			backups, err := manager.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list backups: %w", err)
			}
			if len(backups) <= cfg.Backup.Retention {
				fmt.Printf("%d backups within retention of %d; nothing to prune.\n", len(backups), cfg.Backup.Retention)
				return nil
			}
			for _, b := range backups[:len(backups)-cfg.Backup.Retention] {
				fmt.Printf("Would delete %d (%s)\n", b.ID, b.Name)
			}
			return nil
		}

		result, err := manager.Cleanup(cmd.Context())
		if err != nil {
			return fmt.Errorf("prune backups: %w", err)
		}

		for _, b := range result.Deleted {
			fmt.Printf("Deleted %d (%s)\n", b.ID, b.Name)
		}
		fmt.Printf("Pruned %d backups, %d remaining.\n", len(result.Deleted), len(result.Remaining))
		return nil
	},
}
