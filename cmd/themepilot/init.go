package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a themepilot.yaml configuration template",
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := filepath.Join(".", "themepilot.yaml")

		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("themepilot.yaml already exists; remove it first or use a different directory")
		}

		if err := os.WriteFile(outPath, []byte(configTemplate()), 0644); err != nil {
			return fmt.Errorf("write themepilot.yaml: %w", err)
		}

		fmt.Println("Created themepilot.yaml")
		fmt.Println("Edit the file and set your environment variables before running 'themepilot validate'.")
		return nil
	},
}

func configTemplate() string {
	return `store:
  domain: my-shop.myshopify.com
  token: ${SHOPIFY_CLI_THEME_TOKEN}

build:
  command: "npm run build"
  dir: "."
  timeout: 10m

deploy:
  # theme_id: 123456789012
  path: "."
  allow_live: false
  no_delete: false
  selective:
    enabled: true
    push_locales: false
    # locale_files:
    #   - locales/en.default.json
  staging_theme: "Staging"

backup:
  enabled: true
  prefix: "BACKUP_"
  retention: 3
  timezone: "UTC"

version:
  enabled: true
  format: "X.X.X"
  # start: "1.0.0"
  # exact: ${THEME_VERSION}

retry:
  max_retries: 3
  initial_delay: 2s
  max_delay: 30s
  multiplier: 2

# sync:
#   repo: owner/theme-repo
#   base_branch: main
#   branch_prefix: theme-sync
#   token: ${GITHUB_TOKEN}

# notify:
#   - type: slack
#     webhook_url: ${SLACK_WEBHOOK_URL}

# policy:
#   - name: no-weekend-deploys
#     rule: blocked_days
#     value: "friday,saturday,sunday"
#     action: warn

server:
  port: 8080
  secret: ${THEMEPILOT_WEBHOOK_SECRET}

history:
  path: .themepilot/history.db
`
}
