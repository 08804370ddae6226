package core

import (
	"context"
	"log"
	"time"

	"github.com/themepilot/themepilot/internal/config"
	"github.com/themepilot/themepilot/internal/notify"
	"github.com/themepilot/themepilot/internal/policy"
	"github.com/themepilot/themepilot/internal/push"
	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/theme"
	"github.com/themepilot/themepilot/internal/version"
)

// Engine orchestrates a deployment: build → resolve target → backup →
// retention cleanup → push code → push locales → version rename.
// Stages run strictly in order; a failure aborts everything after it
// and already-applied side effects (a created backup, a completed code
// push) are left in place.
type Engine struct {
	cfg       *config.Config
	client    theme.Client
	builder   Builder
	backups   BackupManager
	pusher    Pusher
	notifiers []notify.Notifier
	history   HistoryStore
	policy    retry.Policy
	now       func() time.Time
}

// NewEngine creates an Engine with all collaborators injected. builder,
// backups, and history may be nil when the corresponding feature is
// disabled.
func NewEngine(
	cfg *config.Config,
	client theme.Client,
	builder Builder,
	backups BackupManager,
	pusher Pusher,
	notifiers []notify.Notifier,
	history HistoryStore,
	retryPolicy retry.Policy,
) *Engine {
	return &Engine{
		cfg:       cfg,
		client:    client,
		builder:   builder,
		backups:   backups,
		pusher:    pusher,
		notifiers: notifiers,
		history:   history,
		policy:    retryPolicy,
		now:       time.Now,
	}
}

// DeployProduction runs the full production pipeline and returns the
// result. The result is populated (and recorded) even when err is
// non-nil.
func (e *Engine) DeployProduction(ctx context.Context) (*Result, error) {
	result := &Result{Environment: "production", StartedAt: e.now()}
	log.Printf("[deploy] starting production deployment to %s", e.cfg.Store.Domain)

	// Pre-flight policy rules.
	violations := policy.Evaluate(e.cfg.Policy, e.cfg, e.now())
	for _, v := range violations {
		if v.Action == "block" {
			return e.fail(ctx, result, StagePolicy, &policy.BlockedError{Violation: v})
		}
		log.Printf("[deploy] policy warning %s: %s", v.Name, v.Message)
	}

	if err := e.runBuild(ctx); err != nil {
		return e.fail(ctx, result, StageBuild, err)
	}

	target, err := e.resolveTarget(ctx)
	if err != nil {
		return e.fail(ctx, result, StageResolveTarget, err)
	}
	result.TargetID = target.ID
	result.TargetName = target.Name
	log.Printf("[deploy] resolved target theme %d (%s, role %s)", target.ID, target.Name, target.Role)

	if e.cfg.Backup.Enabled && e.backups != nil {
		created, err := e.backups.Create(ctx)
		if err != nil {
			return e.fail(ctx, result, StageBackup, err)
		}
		result.BackupID = created.ID
		result.BackupName = created.Name

		cleanup, err := e.backups.Cleanup(ctx)
		if err != nil {
			return e.fail(ctx, result, StageRetentionCleanup, err)
		}
		log.Printf("[deploy] retention cleanup deleted %d backups, %d remaining",
			len(cleanup.Deleted), len(cleanup.Remaining))
	}

	if _, err := e.pusher.PushCode(ctx, target); err != nil {
		return e.fail(ctx, result, StagePushCode, err)
	}

	if e.cfg.Deploy.Selective.Enabled && e.cfg.Deploy.Selective.PushLocales {
		if _, err := e.pusher.PushLocales(ctx, target); err != nil {
			return e.fail(ctx, result, StagePushLocales, err)
		}
	}

	if e.cfg.Version.Enabled {
		renamed, err := version.Rename(ctx, e.client, target.ID, e.renameOptions())
		if err != nil {
			return e.fail(ctx, result, StageVersion, err)
		}
		result.TargetName = renamed.NewName
		result.Version = version.Format(renamed.NewVersion, version.Layout(e.cfg.Version.Format))
	}

	return e.succeed(ctx, result)
}

// DeployStaging pushes the full theme to the configured staging theme,
// creating it from the live theme when it does not exist yet. No
// backup, cleanup, or version rename.
func (e *Engine) DeployStaging(ctx context.Context) (*Result, error) {
	result := &Result{Environment: "staging", StartedAt: e.now()}
	log.Printf("[deploy] starting staging deployment to %s", e.cfg.Store.Domain)

	if err := e.runBuild(ctx); err != nil {
		return e.fail(ctx, result, StageBuild, err)
	}

	target, err := e.resolveStagingTarget(ctx)
	if err != nil {
		return e.fail(ctx, result, StageResolveTarget, err)
	}
	result.TargetID = target.ID
	result.TargetName = target.Name

	if _, err := e.pusher.PushCode(ctx, target); err != nil {
		return e.fail(ctx, result, StagePushCode, err)
	}

	return e.succeed(ctx, result)
}

func (e *Engine) runBuild(ctx context.Context) error {
	if e.builder == nil {
		return nil
	}
	buildResult, err := e.builder.Run(ctx)
	if err != nil {
		if buildResult != nil && buildResult.Output != "" {
			log.Printf("[deploy] build output:\n%s", buildResult.Output)
		}
		return err
	}
	return nil
}

// resolveTarget picks the theme to deploy to: the configured theme id
// when set, otherwise the live theme. The live fallback requires the
// allow-live flag since it makes the deployment immediately visible to
// shoppers.
func (e *Engine) resolveTarget(ctx context.Context) (*theme.Theme, error) {
	if id := e.cfg.Deploy.ThemeID; id != 0 {
		target, err := retry.Do(ctx, "resolve target theme", e.policy, func(ctx context.Context) (*theme.Theme, error) {
			return e.client.GetByID(ctx, id)
		})
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, &theme.NotFoundError{ThemeID: id}
		}
		return target, nil
	}

	live, err := retry.Do(ctx, "resolve live theme", e.policy, func(ctx context.Context) (*theme.Theme, error) {
		return e.client.GetLive(ctx)
	})
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, theme.ErrNoLiveTheme
	}
	if !e.cfg.Deploy.AllowLive {
		return nil, &push.SafetyViolationError{ThemeID: live.ID, ThemeName: live.Name}
	}
	return live, nil
}

// resolveStagingTarget finds the named staging theme, duplicating the
// live theme under that name when it does not exist yet.
func (e *Engine) resolveStagingTarget(ctx context.Context) (*theme.Theme, error) {
	name := e.cfg.Deploy.StagingTheme
	if name == "" {
		name = "Staging"
	}

	themes, err := retry.Do(ctx, "list themes", e.policy, func(ctx context.Context) ([]theme.Theme, error) {
		return e.client.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	for i := range themes {
		if themes[i].Name == name && !themes[i].IsLive() {
			return &themes[i], nil
		}
	}

	live, err := retry.Do(ctx, "resolve live theme", e.policy, func(ctx context.Context) (*theme.Theme, error) {
		return e.client.GetLive(ctx)
	})
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, theme.ErrNoLiveTheme
	}

	log.Printf("[deploy] staging theme %q not found, creating it from live theme %d", name, live.ID)
	return retry.Do(ctx, "create staging theme", e.policy, func(ctx context.Context) (*theme.Theme, error) {
		return e.client.Duplicate(ctx, live.ID, name)
	})
}

func (e *Engine) renameOptions() version.RenameOptions {
	opts := version.RenameOptions{
		Layout: version.Layout(e.cfg.Version.Format),
		Policy: e.policy,
	}
	// Both fields were validated at config load.
	if e.cfg.Version.Start != "" {
		opts.Start, _ = version.Parse(e.cfg.Version.Start)
	}
	if e.cfg.Version.Exact != "" {
		opts.Exact, _ = version.Parse(e.cfg.Version.Exact)
	}
	return opts
}

// succeed finalizes a successful result and fans it out.
func (e *Engine) succeed(ctx context.Context, result *Result) (*Result, error) {
	result.Succeeded = true
	result.Duration = e.now().Sub(result.StartedAt)
	result.PreviewURL = theme.PreviewURL(e.cfg.Store.Domain, result.TargetID)
	result.EditorURL = theme.EditorURL(e.cfg.Store.Domain, result.TargetID)

	log.Printf("[deploy] %s deployment succeeded: theme %d (%s) in %s",
		result.Environment, result.TargetID, result.TargetName, result.Duration.Round(time.Second))

	e.finish(ctx, result)
	return result, nil
}

// fail tags the error with its stage, finalizes the result, and fans it
// out. The wrapped error is returned to the caller untouched inside the
// StageError.
func (e *Engine) fail(ctx context.Context, result *Result, stage string, err error) (*Result, error) {
	stageErr := &StageError{Stage: stage, Err: err}
	result.Succeeded = false
	result.FailedStage = stage
	result.Err = stageErr
	result.Duration = e.now().Sub(result.StartedAt)

	log.Printf("[deploy] %s deployment failed at stage %s: %v", result.Environment, stage, err)

	e.finish(ctx, result)
	return result, stageErr
}

// finish records the result and notifies. Both are best-effort and
// never change the deployment outcome.
func (e *Engine) finish(ctx context.Context, result *Result) {
	if e.history != nil {
		if err := e.history.SaveDeployment(result); err != nil {
			log.Printf("[deploy] failed to record deployment history: %v", err)
		}
	}

	notify.Broadcast(ctx, e.notifiers, notify.Event{
		Environment: result.Environment,
		Success:     result.Succeeded,
		ThemeName:   result.TargetName,
		ThemeID:     result.TargetID,
		Version:     result.Version,
		Duration:    result.Duration,
		Err:         result.ErrorMessage(),
	})
}
