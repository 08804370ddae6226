package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/themepilot/themepilot/internal/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "themepilot",
	Short: "themepilot — Shopify theme deployment pipeline",
	Long:  "themepilot builds a theme, snapshots the live theme, and promotes the build through a selective, versioned push.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("themepilot version %s\n", version)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		_, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config validation failed: %v\n", err)
			return err
		}

		fmt.Printf("Config validation passed: %s\n", configPath)
		return nil
	},
}

func main() {
	// Register flags.
	for _, c := range []*cobra.Command{
		validateCmd, deployCmd, stagingCmd, syncCmd, backupsCmd, statusCmd, serveCmd, doctorCmd,
	} {
		c.PersistentFlags().StringP("config", "c", "themepilot.yaml", "Path to config file")
	}

	deployCmd.Flags().Bool("skip-build", false, "Skip the build step")
	deployCmd.Flags().Bool("skip-backup", false, "Skip the pre-deploy backup")
	stagingCmd.Flags().Bool("skip-build", false, "Skip the build step")

	backupsPruneCmd.Flags().Bool("dry-run", false, "Show what would be deleted without deleting")
	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsPruneCmd)

	statusCmd.Flags().IntP("limit", "n", 20, "Number of deployments to show")
	statusCmd.Flags().Bool("stats", false, "Show 30-day delivery metrics")

	serveCmd.Flags().IntP("port", "p", 0, "Override server port")

	// Register all commands.
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(stagingCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
