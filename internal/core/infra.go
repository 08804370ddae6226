package core

import (
	"context"

	"github.com/themepilot/themepilot/internal/backup"
	"github.com/themepilot/themepilot/internal/build"
	"github.com/themepilot/themepilot/internal/theme"
)

// Builder runs the pre-deploy build step.
type Builder interface {
	Run(ctx context.Context) (*build.Result, error)
}

// BackupManager snapshots the live theme and prunes old backups.
type BackupManager interface {
	Create(ctx context.Context) (*theme.Theme, error)
	Cleanup(ctx context.Context) (*backup.CleanupResult, error)
}

// Pusher executes the content pushes against a resolved target.
type Pusher interface {
	PushCode(ctx context.Context, target *theme.Theme) (*theme.PushSummary, error)
	PushLocales(ctx context.Context, target *theme.Theme) (*theme.PushSummary, error)
}

// HistoryStore persists deployment results.
type HistoryStore interface {
	SaveDeployment(result *Result) error
}
