// Package push performs the selective two-phase content push. Phase
// one uploads theme code while excluding merchant-editable content;
// phase two uploads only the developer-owned default locale files.
package push

import (
	"context"
	"fmt"
	"log"

	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/theme"
)

// DefaultVolatilePatterns are the merchant-editable paths excluded from
// the code push: structured content the merchant edits in the admin.
var DefaultVolatilePatterns = []string{
	"templates/*.json",
	"templates/customers/*.json",
	"templates/metaobject/*.json",
	"sections/*.json",
	"snippets/*.json",
	"locales/*.json",
	"config/settings_data.json",
}

// Config controls push behavior for one deployment.
type Config struct {
	// Path is the local theme directory.
	Path string
	// AllowLive permits pushing to the live theme.
	AllowLive bool
	// NoDelete suppresses remote deletion of files absent locally
	// during the code push.
	NoDelete bool
	// Selective enables the two-phase push; false means one unfiltered
	// push.
	Selective bool
	// VolatilePatterns overrides DefaultVolatilePatterns.
	VolatilePatterns []string
	// LocaleFiles is the explicit allow-list for the locale push.
	LocaleFiles []string
}

// SafetyViolationError is raised before any network call when a push
// would target the live theme without the allow-live flag.
type SafetyViolationError struct {
	ThemeID   int64
	ThemeName string
}

func (e *SafetyViolationError) Error() string {
	return fmt.Sprintf("refusing to push to live theme %d (%s); set deploy.allow_live or target an unpublished theme",
		e.ThemeID, e.ThemeName)
}

// Orchestrator executes pushes against a resolved target theme.
type Orchestrator struct {
	client theme.Client
	policy retry.Policy
	cfg    Config
}

// New builds an Orchestrator.
func New(client theme.Client, policy retry.Policy, cfg Config) *Orchestrator {
	if len(cfg.VolatilePatterns) == 0 {
		cfg.VolatilePatterns = DefaultVolatilePatterns
	}
	return &Orchestrator{client: client, policy: policy, cfg: cfg}
}

// guard rejects live targets before any network traffic when the
// allow-live flag is absent.
func (o *Orchestrator) guard(target *theme.Theme) error {
	if target.IsLive() && !o.cfg.AllowLive {
		return &SafetyViolationError{ThemeID: target.ID, ThemeName: target.Name}
	}
	return nil
}

// PushCode uploads the theme, excluding volatile content when
// selective mode is on. Non-selective mode pushes everything in one
// unfiltered call.
func (o *Orchestrator) PushCode(ctx context.Context, target *theme.Theme) (*theme.PushSummary, error) {
	if err := o.guard(target); err != nil {
		return nil, err
	}

	opts := theme.PushOptions{
		Path:      o.cfg.Path,
		AllowLive: o.cfg.AllowLive,
		NoDelete:  o.cfg.NoDelete,
	}
	if o.cfg.Selective {
		opts.Ignore = o.cfg.VolatilePatterns
		log.Printf("[push] pushing code to theme %d, ignoring %d volatile patterns", target.ID, len(opts.Ignore))
	} else {
		log.Printf("[push] pushing full theme to theme %d", target.ID)
	}

	return retry.Do(ctx, "push theme code", o.policy, func(ctx context.Context) (*theme.PushSummary, error) {
		return o.client.Push(ctx, target.ID, opts)
	})
}

// PushLocales uploads only the configured default-locale files,
// verbatim. Remote deletion is disabled here no matter what the global
// setting says; this call must only ever add or overwrite the listed
// files.
func (o *Orchestrator) PushLocales(ctx context.Context, target *theme.Theme) (*theme.PushSummary, error) {
	if err := o.guard(target); err != nil {
		return nil, err
	}
	if len(o.cfg.LocaleFiles) == 0 {
		return nil, nil
	}

	log.Printf("[push] pushing %d default locale files to theme %d", len(o.cfg.LocaleFiles), target.ID)

	opts := theme.PushOptions{
		Path:      o.cfg.Path,
		Only:      o.cfg.LocaleFiles,
		AllowLive: o.cfg.AllowLive,
		NoDelete:  true,
	}
	return retry.Do(ctx, "push locale files", o.policy, func(ctx context.Context) (*theme.PushSummary, error) {
		return o.client.Push(ctx, target.ID, opts)
	})
}
