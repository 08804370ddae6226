package config

import "time"

// Config is the top-level configuration for themepilot.
type Config struct {
	Store   StoreConfig    `yaml:"store"`
	Build   BuildConfig    `yaml:"build"`
	Deploy  DeployConfig   `yaml:"deploy"`
	Backup  BackupConfig   `yaml:"backup"`
	Version VersionConfig  `yaml:"version"`
	Retry   RetryConfig    `yaml:"retry"`
	Sync    SyncConfig     `yaml:"sync"`
	Notify  []NotifyConfig `yaml:"notify"`
	Policy  []PolicyConfig `yaml:"policy"`
	Server  ServerConfig   `yaml:"server"`
	History HistoryConfig  `yaml:"history"`
}

// StoreConfig identifies the target store and how to reach it.
type StoreConfig struct {
	Domain string `yaml:"domain"` // my-shop.myshopify.com
	Token  string `yaml:"token"`
	CLI    string `yaml:"cli"` // theme CLI binary, defaults to "shopify"
}

// BuildConfig holds the pre-deploy build step.
type BuildConfig struct {
	Command string            `yaml:"command"`
	Dir     string            `yaml:"dir"`
	Timeout time.Duration     `yaml:"timeout"`
	Env     map[string]string `yaml:"env"`
}

// DeployConfig holds target resolution and push behavior.
type DeployConfig struct {
	// ThemeID pins the deployment target. Zero falls back to the live
	// theme, which additionally requires AllowLive.
	ThemeID   int64           `yaml:"theme_id"`
	Path      string          `yaml:"path"` // local theme directory
	AllowLive bool            `yaml:"allow_live"`
	NoDelete  bool            `yaml:"no_delete"`
	Selective SelectiveConfig `yaml:"selective"`
	// StagingTheme names the development theme used by staging deploys.
	StagingTheme string `yaml:"staging_theme"`
}

// SelectiveConfig controls the two-phase selective push.
type SelectiveConfig struct {
	Enabled          bool     `yaml:"enabled"`
	VolatilePatterns []string `yaml:"volatile_patterns"`
	LocaleFiles      []string `yaml:"locale_files"`
	PushLocales      bool     `yaml:"push_locales"`
}

// BackupConfig controls pre-deploy snapshots and retention.
type BackupConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Prefix    string        `yaml:"prefix"`
	Retention int           `yaml:"retention"`
	Timezone  string        `yaml:"timezone"`
	Timeout   time.Duration `yaml:"timeout"`
}

// VersionConfig controls the version tag embedded in the theme name.
type VersionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // X.X.X | X.X.XX | X.XX.XX
	// Start seeds the first tag of a previously untagged theme. Ignored
	// once the theme carries a tag.
	Start string `yaml:"start"`
	// Exact adopts this version verbatim instead of auto-incrementing,
	// typically wired to an env var set by a release process.
	Exact string `yaml:"exact"`
}

// RetryConfig tunes backoff for remote registry calls.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

// SyncConfig controls the live-theme to repository sync mode.
type SyncConfig struct {
	Repo         string `yaml:"repo"` // owner/name
	BaseBranch   string `yaml:"base_branch"`
	BranchPrefix string `yaml:"branch_prefix"`
	Token        string `yaml:"token"`
	Workdir      string `yaml:"workdir"`
}

// NotifyConfig holds a single notification target.
type NotifyConfig struct {
	Type       string `yaml:"type"` // slack|discord
	WebhookURL string `yaml:"webhook_url"`
}

// PolicyConfig is a single pre-deploy policy rule.
type PolicyConfig struct {
	Name   string `yaml:"name"`
	Rule   string `yaml:"rule"`   // require_backup|require_selective|blocked_days
	Value  string `yaml:"value"`  // rule-specific
	Action string `yaml:"action"` // block|warn
}

// ServerConfig holds the dashboard/webhook server settings.
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"`
}

// HistoryConfig holds the deployment history database location.
type HistoryConfig struct {
	Path string `yaml:"path"`
}
