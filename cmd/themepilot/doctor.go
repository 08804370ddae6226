package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/themepilot/themepilot/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and configuration health",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		allOK := true

		fmt.Println("=== Themepilot Doctor ===")
		fmt.Println()

		// Check the theme CLI.
		cliBin := "shopify"
		var cfg *config.Config
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("[OK] config file found: %s\n", configPath)

			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("[WARN] config validation: %v\n", err)
			} else {
				fmt.Println("[OK] config is valid")
				if cfg.Store.CLI != "" {
					cliBin = cfg.Store.CLI
				}
			}
		} else {
			fmt.Printf("[WARN] config file not found: %s (run 'themepilot init' to create one)\n", configPath)
		}

		if checkCommand(cliBin, "version") {
			fmt.Printf("[OK] %s CLI is installed\n", cliBin)
		} else {
			fmt.Printf("[FAIL] %s CLI is not installed or not in PATH\n", cliBin)
			allOK = false
		}

		// Git is only needed for sync.
		if checkCommand("git", "--version") {
			fmt.Println("[OK] git is installed")
		} else {
			fmt.Println("[WARN] git is not installed; 'themepilot sync' will not work")
		}

		if cfg != nil {
			if cfg.Store.Token == "" {
				fmt.Println("[FAIL] store token is empty")
				allOK = false
			} else {
				fmt.Println("[OK] store token is set")
			}
			if cfg.Deploy.Path != "" {
				if _, err := os.Stat(cfg.Deploy.Path); err == nil {
					fmt.Printf("[OK] theme directory exists: %s\n", cfg.Deploy.Path)
				} else {
					fmt.Printf("[FAIL] theme directory not found: %s\n", cfg.Deploy.Path)
					allOK = false
				}
			}
		}

		fmt.Println()
		if allOK {
			fmt.Println("All checks passed!")
		} else {
			fmt.Println("Some checks failed. Please fix the issues above.")
		}

		return nil
	},
}

func checkCommand(name string, args ...string) bool {
	if _, err := exec.LookPath(name); err != nil {
		return false
	}
	return exec.Command(name, args...).Run() == nil
}
