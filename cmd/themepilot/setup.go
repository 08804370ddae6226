package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/themepilot/themepilot/internal/backup"
	"github.com/themepilot/themepilot/internal/build"
	"github.com/themepilot/themepilot/internal/config"
	"github.com/themepilot/themepilot/internal/core"
	"github.com/themepilot/themepilot/internal/notify"
	"github.com/themepilot/themepilot/internal/push"
	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/storage"
	"github.com/themepilot/themepilot/internal/theme"
)

// loadConfig reads the config file named by the command's --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// retryPolicy maps the retry config onto a policy.
func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
	}
}

// themeClient builds the CLI-backed registry client.
func themeClient(cfg *config.Config) theme.Client {
	return theme.NewCLIClient(cfg.Store.CLI, cfg.Store.Domain, cfg.Store.Token)
}

// notifiers builds every configured notification target.
func notifiers(cfg *config.Config) []notify.Notifier {
	targets := make([]notify.Notifier, 0, len(cfg.Notify))
	for _, n := range cfg.Notify {
		targets = append(targets, notify.NewWebhookNotifier(n.Type, n.WebhookURL))
	}
	return targets
}

// openHistory opens the deployment history database. A failure is
// logged, not fatal; deployments proceed without history.
func openHistory(cfg *config.Config) *storage.DB {
	db, err := storage.Open(cfg.History.Path)
	if err != nil {
		log.Printf("[cli] cannot open history db at %s, continuing without history: %v", cfg.History.Path, err)
		return nil
	}
	return db
}

// backupManager builds the backup manager from config.
func backupManager(cfg *config.Config, client theme.Client, policy retry.Policy) (*backup.Manager, error) {
	return backup.New(client, policy, backup.Config{
		Prefix:    cfg.Backup.Prefix,
		Retention: cfg.Backup.Retention,
		Timezone:  cfg.Backup.Timezone,
		Timeout:   cfg.Backup.Timeout,
	})
}

// buildEngine assembles the production deployment engine. skipBuild and
// skipBackup come from command flags.
func buildEngine(cfg *config.Config, history *storage.DB, skipBuild, skipBackup bool) (*core.Engine, error) {
	policy := retryPolicy(cfg)
	client := themeClient(cfg)

	var builder core.Builder
	if !skipBuild && cfg.Build.Command != "" {
		builder = &build.Runner{
			Command: cfg.Build.Command,
			Dir:     cfg.Build.Dir,
			Env:     cfg.Build.Env,
			Timeout: cfg.Build.Timeout,
		}
	}

	var backups core.BackupManager
	if cfg.Backup.Enabled && !skipBackup {
		manager, err := backupManager(cfg, client, policy)
		if err != nil {
			return nil, err
		}
		backups = manager
	}

	pusher := push.New(client, policy, push.Config{
		Path:             cfg.Deploy.Path,
		AllowLive:        cfg.Deploy.AllowLive,
		NoDelete:         cfg.Deploy.NoDelete,
		Selective:        cfg.Deploy.Selective.Enabled,
		VolatilePatterns: cfg.Deploy.Selective.VolatilePatterns,
		LocaleFiles:      cfg.Deploy.Selective.LocaleFiles,
	})

	var store core.HistoryStore
	if history != nil {
		store = history
	}

	engineCfg := *cfg
	if skipBackup {
		engineCfg.Backup.Enabled = false
	}

	return core.NewEngine(&engineCfg, client, builder, backups, pusher, notifiers(cfg), store, policy), nil
}

// buildStagingEngine assembles the staging engine: full push, no
// backups or version rename.
func buildStagingEngine(cfg *config.Config, history *storage.DB, skipBuild bool) (*core.Engine, error) {
	policy := retryPolicy(cfg)
	client := themeClient(cfg)

	var builder core.Builder
	if !skipBuild && cfg.Build.Command != "" {
		builder = &build.Runner{
			Command: cfg.Build.Command,
			Dir:     cfg.Build.Dir,
			Env:     cfg.Build.Env,
			Timeout: cfg.Build.Timeout,
		}
	}

	// Staging pushes everything to a development theme.
	pusher := push.New(client, policy, push.Config{
		Path:      cfg.Deploy.Path,
		Selective: false,
	})

	var store core.HistoryStore
	if history != nil {
		store = history
	}

	return core.NewEngine(cfg, client, builder, nil, pusher, notifiers(cfg), store, policy), nil
}
