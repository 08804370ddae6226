package config

import (
	"fmt"
	"strings"

	"github.com/themepilot/themepilot/internal/version"
)

// validVersionFormats is the set of supported version tag layouts.
var validVersionFormats = map[string]bool{
	string(version.LayoutPlain):       true,
	string(version.LayoutPaddedPatch): true,
	string(version.LayoutPaddedMinor): true,
}

// validNotifyTypes is the set of supported notification targets.
var validNotifyTypes = map[string]bool{
	"slack":   true,
	"discord": true,
}

// validPolicyRules is the set of supported pre-deploy policy rules.
var validPolicyRules = map[string]bool{
	"require_backup":    true,
	"require_selective": true,
	"blocked_days":      true,
}

// Validate checks the Config for completeness and correctness.
// It collects every problem found, prefixed with "config: ".
func Validate(cfg *Config) error {
	var errs []string

	// --- Required fields ---
	if cfg.Store.Domain == "" {
		errs = append(errs, "config: store.domain is required")
	}
	if cfg.Store.Token == "" {
		errs = append(errs, "config: store.token is required")
	}

	// --- Version tag settings ---
	if cfg.Version.Format != "" && !validVersionFormats[cfg.Version.Format] {
		errs = append(errs, fmt.Sprintf(
			"config: version.format '%s' is invalid; must be one of: X.X.X, X.X.XX, X.XX.XX",
			cfg.Version.Format))
	}
	if cfg.Version.Start != "" {
		if _, err := version.Parse(cfg.Version.Start); err != nil {
			errs = append(errs, fmt.Sprintf("config: version.start: %v", err))
		}
	}
	if cfg.Version.Exact != "" {
		if _, err := version.Parse(cfg.Version.Exact); err != nil {
			errs = append(errs, fmt.Sprintf("config: version.exact: %v", err))
		}
	}

	// --- Backup settings ---
	if cfg.Backup.Retention < 0 {
		errs = append(errs, fmt.Sprintf(
			"config: backup.retention must not be negative, got %d", cfg.Backup.Retention))
	}

	// --- Retry settings ---
	if cfg.Retry.Multiplier < 1 {
		errs = append(errs, fmt.Sprintf(
			"config: retry.multiplier must be at least 1, got %g", cfg.Retry.Multiplier))
	}
	if cfg.Retry.MaxRetries < 0 || cfg.Retry.MaxRetries > 10 {
		errs = append(errs, fmt.Sprintf(
			"config: retry.max_retries must be between 0 and 10, got %d", cfg.Retry.MaxRetries))
	}

	// --- Notification targets ---
	for i, n := range cfg.Notify {
		errs = append(errs, validateNotify(i, &n)...)
	}

	// --- Policy rules ---
	for i, p := range cfg.Policy {
		errs = append(errs, validatePolicy(i, &p)...)
	}

	// --- Sync settings ---
	if cfg.Sync.Repo != "" && len(strings.Split(cfg.Sync.Repo, "/")) != 2 {
		errs = append(errs, fmt.Sprintf(
			"config: sync.repo '%s' is invalid; must be 'owner/name'", cfg.Sync.Repo))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateNotify checks a single notification target.
func validateNotify(idx int, n *NotifyConfig) []string {
	var errs []string
	prefix := fmt.Sprintf("config: notify[%d]", idx)

	if !validNotifyTypes[n.Type] {
		errs = append(errs, fmt.Sprintf("%s.type '%s' is invalid; must be one of: slack, discord", prefix, n.Type))
	}
	if n.WebhookURL == "" {
		errs = append(errs, prefix+".webhook_url is required")
	}
	return errs
}

// validatePolicy checks a single policy rule.
func validatePolicy(idx int, p *PolicyConfig) []string {
	var errs []string
	prefix := fmt.Sprintf("config: policy[%d]", idx)

	if !validPolicyRules[p.Rule] {
		errs = append(errs, fmt.Sprintf(
			"%s.rule '%s' is invalid; must be one of: require_backup, require_selective, blocked_days", prefix, p.Rule))
	}
	if p.Action != "warn" && p.Action != "block" {
		errs = append(errs, fmt.Sprintf("%s.action '%s' is invalid; must be 'warn' or 'block'", prefix, p.Action))
	}
	if p.Rule == "blocked_days" && p.Value == "" {
		errs = append(errs, prefix+".value is required for rule 'blocked_days'")
	}
	return errs
}
