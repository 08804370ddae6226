package core

import (
	"fmt"
	"time"
)

// Deployment stages, in execution order. A failed stage is recorded on
// the result so callers and notifications can report where the pipeline
// stopped.
const (
	StagePolicy           = "policy"
	StageBuild            = "build"
	StageResolveTarget    = "resolve_target"
	StageBackup           = "backup"
	StageRetentionCleanup = "retention_cleanup"
	StagePushCode         = "push_code"
	StagePushLocales      = "push_locales"
	StageVersion          = "version"
)

// StageError tags a failure with the pipeline stage it happened in. The
// underlying error is passed through untouched.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result is the sole object a deployment surfaces to callers, the
// history store, and notifications.
type Result struct {
	Environment string        `json:"environment"`
	TargetID    int64         `json:"target_id"`
	TargetName  string        `json:"target_name"`
	Version     string        `json:"version,omitempty"`
	BackupID    int64         `json:"backup_id,omitempty"`
	BackupName  string        `json:"backup_name,omitempty"`
	PreviewURL  string        `json:"preview_url,omitempty"`
	EditorURL   string        `json:"editor_url,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Succeeded   bool          `json:"succeeded"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Err         error         `json:"-"`
}

// ErrorMessage returns the failure text, or "" for a success.
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
