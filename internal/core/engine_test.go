package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/themepilot/themepilot/internal/backup"
	"github.com/themepilot/themepilot/internal/build"
	"github.com/themepilot/themepilot/internal/config"
	"github.com/themepilot/themepilot/internal/push"
	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/theme"
)

// --- collaborator fakes ---

type fakeRegistry struct {
	theme.Client

	themes  []theme.Theme
	renamed map[int64]string
}

func (f *fakeRegistry) List(ctx context.Context) ([]theme.Theme, error) {
	return append([]theme.Theme(nil), f.themes...), nil
}

func (f *fakeRegistry) GetByID(ctx context.Context, id int64) (*theme.Theme, error) {
	for i := range f.themes {
		if f.themes[i].ID == id {
			if name, ok := f.renamed[id]; ok {
				t := f.themes[i]
				t.Name = name
				return &t, nil
			}
			return &f.themes[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRegistry) GetLive(ctx context.Context) (*theme.Theme, error) {
	for i := range f.themes {
		if f.themes[i].IsLive() {
			return &f.themes[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRegistry) Duplicate(ctx context.Context, sourceID int64, name string) (*theme.Theme, error) {
	t := theme.Theme{ID: 9999, Name: name, Role: theme.RoleDevelopment}
	f.themes = append(f.themes, t)
	return &t, nil
}

func (f *fakeRegistry) Rename(ctx context.Context, id int64, newName string) error {
	if f.renamed == nil {
		f.renamed = make(map[int64]string)
	}
	f.renamed[id] = newName
	return nil
}

type fakeBuilder struct {
	runs int
	err  error
}

func (f *fakeBuilder) Run(ctx context.Context) (*build.Result, error) {
	f.runs++
	return &build.Result{Output: "built"}, f.err
}

type fakeBackups struct {
	creates   int
	cleanups  int
	createErr error
}

func (f *fakeBackups) Create(ctx context.Context) (*theme.Theme, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &theme.Theme{ID: 500, Name: "BACKUP_03-02-26-14:04", Role: theme.RoleUnpublished}, nil
}

func (f *fakeBackups) Cleanup(ctx context.Context) (*backup.CleanupResult, error) {
	f.cleanups++
	return &backup.CleanupResult{}, nil
}

type fakePusher struct {
	codePushes   []int64
	localePushes []int64
	codeErr      error
	localeErr    error
}

func (f *fakePusher) PushCode(ctx context.Context, target *theme.Theme) (*theme.PushSummary, error) {
	f.codePushes = append(f.codePushes, target.ID)
	if f.codeErr != nil {
		return nil, f.codeErr
	}
	return &theme.PushSummary{Theme: *target}, nil
}

func (f *fakePusher) PushLocales(ctx context.Context, target *theme.Theme) (*theme.PushSummary, error) {
	f.localePushes = append(f.localePushes, target.ID)
	if f.localeErr != nil {
		return nil, f.localeErr
	}
	return &theme.PushSummary{Theme: *target}, nil
}

type fakeHistory struct {
	saved []*Result
}

func (f *fakeHistory) SaveDeployment(result *Result) error {
	f.saved = append(f.saved, result)
	return nil
}

// --- harness ---

type harness struct {
	cfg      *config.Config
	registry *fakeRegistry
	builder  *fakeBuilder
	backups  *fakeBackups
	pusher   *fakePusher
	history  *fakeHistory
	engine   *Engine
}

func newHarness(t *testing.T, mutate func(cfg *config.Config)) *harness {
	t.Helper()

	cfg := &config.Config{}
	cfg.Store.Domain = "test-shop.myshopify.com"
	cfg.Deploy.ThemeID = 7
	cfg.Deploy.Selective.Enabled = true
	cfg.Deploy.Selective.PushLocales = true
	cfg.Backup.Enabled = true
	cfg.Version.Enabled = true
	cfg.Version.Format = "X.X.X"
	if mutate != nil {
		mutate(cfg)
	}

	h := &harness{
		cfg: cfg,
		registry: &fakeRegistry{themes: []theme.Theme{
			{ID: 1, Name: "Dawn", Role: theme.RoleLive},
			{ID: 7, Name: "Release [1.0.0]", Role: theme.RoleUnpublished},
		}},
		builder: &fakeBuilder{},
		backups: &fakeBackups{},
		pusher:  &fakePusher{},
		history: &fakeHistory{},
	}
	h.engine = NewEngine(cfg, h.registry, h.builder, h.backups, h.pusher, nil, h.history, retry.Policy{Multiplier: 1})
	return h
}

// --- production pipeline ---

func TestDeployProduction_FullPipeline(t *testing.T) {
	h := newHarness(t, nil)

	result, err := h.engine.DeployProduction(context.Background())
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}

	if !result.Succeeded {
		t.Fatal("result should be marked succeeded")
	}
	if h.builder.runs != 1 {
		t.Errorf("build runs = %d, want 1", h.builder.runs)
	}
	if h.backups.creates != 1 || h.backups.cleanups != 1 {
		t.Errorf("backup runs = %d/%d, want 1/1", h.backups.creates, h.backups.cleanups)
	}
	if len(h.pusher.codePushes) != 1 || h.pusher.codePushes[0] != 7 {
		t.Errorf("code pushes = %v, want [7]", h.pusher.codePushes)
	}
	if len(h.pusher.localePushes) != 1 {
		t.Errorf("locale pushes = %v, want one", h.pusher.localePushes)
	}
	if result.Version != "1.0.1" {
		t.Errorf("version = %q, want 1.0.1", result.Version)
	}
	if result.TargetName != "Release [1.0.1]" {
		t.Errorf("target name = %q, want renamed", result.TargetName)
	}
	if result.BackupName == "" {
		t.Error("backup name should be recorded")
	}
	if result.PreviewURL == "" || result.EditorURL == "" {
		t.Error("success should carry preview and editor URLs")
	}
	if len(h.history.saved) != 1 {
		t.Errorf("history saves = %d, want 1", len(h.history.saved))
	}
}

func TestDeployProduction_StageOrder(t *testing.T) {
	// A build failure must stop everything downstream.
	h := newHarness(t, nil)
	h.builder.err = errors.New("npm exited 1")

	result, err := h.engine.DeployProduction(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error = %v, want StageError", err)
	}
	if stageErr.Stage != StageBuild {
		t.Errorf("stage = %q, want build", stageErr.Stage)
	}
	if result.FailedStage != StageBuild {
		t.Errorf("result stage = %q, want build", result.FailedStage)
	}
	if h.backups.creates != 0 {
		t.Error("backup must not run after a failed build")
	}
	if len(h.pusher.codePushes) != 0 {
		t.Error("push must not run after a failed build")
	}
}

func TestDeployProduction_BackupFailureKeepsStage(t *testing.T) {
	h := newHarness(t, nil)
	h.backups.createErr = errors.New("store at capacity")

	result, err := h.engine.DeployProduction(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageBackup {
		t.Fatalf("error = %v, want backup StageError", err)
	}
	if len(h.pusher.codePushes) != 0 {
		t.Error("push must not run after a failed backup")
	}
	// Failures are still recorded in history.
	if len(h.history.saved) != 1 {
		t.Errorf("history saves = %d, want 1", len(h.history.saved))
	}
	if result.Succeeded {
		t.Error("result must not be marked succeeded")
	}
}

func TestDeployProduction_PushFailureKeepsBackup(t *testing.T) {
	h := newHarness(t, nil)
	h.pusher.codeErr = errors.New("upload rejected")

	result, err := h.engine.DeployProduction(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePushCode {
		t.Fatalf("error = %v, want push_code StageError", err)
	}
	// The backup made before the failing push is reported, not undone.
	if result.BackupID == 0 {
		t.Error("result should keep the created backup id")
	}
	if result.PreviewURL != "" {
		t.Error("failure must not carry a preview URL")
	}
}

func TestDeployProduction_SkipsDisabledStages(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Backup.Enabled = false
		cfg.Version.Enabled = false
		cfg.Deploy.Selective.PushLocales = false
	})

	result, err := h.engine.DeployProduction(context.Background())
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}

	if h.backups.creates != 0 {
		t.Error("backup should be skipped when disabled")
	}
	if len(h.pusher.localePushes) != 0 {
		t.Error("locale push should be skipped when disabled")
	}
	if result.Version != "" {
		t.Errorf("version = %q, want empty when disabled", result.Version)
	}
	if result.TargetName != "Release [1.0.0]" {
		t.Errorf("target name = %q, want unrenamed", result.TargetName)
	}
}

func TestDeployProduction_ConfiguredThemeMissing(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Deploy.ThemeID = 12345
	})

	_, err := h.engine.DeployProduction(context.Background())

	var notFound *theme.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageResolveTarget {
		t.Fatalf("error = %v, want resolve_target StageError", err)
	}
}

func TestDeployProduction_LiveFallbackNeedsAllowLive(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Deploy.ThemeID = 0
		cfg.Deploy.AllowLive = false
	})

	_, err := h.engine.DeployProduction(context.Background())

	var violation *push.SafetyViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want SafetyViolationError", err)
	}
	if len(h.pusher.codePushes) != 0 {
		t.Error("no push may happen when the live fallback is refused")
	}
}

func TestDeployProduction_LiveFallbackWithAllowLive(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Deploy.ThemeID = 0
		cfg.Deploy.AllowLive = true
		cfg.Version.Enabled = false
	})

	result, err := h.engine.DeployProduction(context.Background())
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if result.TargetID != 1 {
		t.Errorf("target = %d, want live theme 1", result.TargetID)
	}
}

func TestDeployProduction_BlockingPolicy(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Backup.Enabled = false
		cfg.Policy = []config.PolicyConfig{
			{Name: "backups-required", Rule: "require_backup", Action: "block"},
		}
	})

	_, err := h.engine.DeployProduction(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePolicy {
		t.Fatalf("error = %v, want policy StageError", err)
	}
	if h.builder.runs != 0 {
		t.Error("nothing may run after a blocking policy violation")
	}
}

func TestDeployProduction_WarningPolicyProceeds(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Backup.Enabled = false
		cfg.Policy = []config.PolicyConfig{
			{Name: "backups-advised", Rule: "require_backup", Action: "warn"},
		}
	})

	result, err := h.engine.DeployProduction(context.Background())
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if !result.Succeeded {
		t.Error("warn action must not block the deployment")
	}
}

func TestDeployProduction_ExactVersion(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Version.Exact = "2.0.0"
	})

	result, err := h.engine.DeployProduction(context.Background())
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if result.Version != "2.0.0" {
		t.Errorf("version = %q, want exact 2.0.0", result.Version)
	}
}

// --- staging pipeline ---

func TestDeployStaging_UsesExistingStagingTheme(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Deploy.StagingTheme = "Staging"
	})
	h.registry.themes = append(h.registry.themes, theme.Theme{ID: 33, Name: "Staging", Role: theme.RoleDevelopment})

	result, err := h.engine.DeployStaging(context.Background())
	if err != nil {
		t.Fatalf("staging: %v", err)
	}
	if result.TargetID != 33 {
		t.Errorf("target = %d, want existing staging theme", result.TargetID)
	}
	if h.backups.creates != 0 {
		t.Error("staging must not create backups")
	}
}

func TestDeployStaging_CreatesThemeWhenMissing(t *testing.T) {
	h := newHarness(t, nil)

	result, err := h.engine.DeployStaging(context.Background())
	if err != nil {
		t.Fatalf("staging: %v", err)
	}
	if result.TargetID != 9999 {
		t.Errorf("target = %d, want freshly duplicated theme", result.TargetID)
	}
	if result.TargetName != "Staging" {
		t.Errorf("target name = %q, want default staging name", result.TargetName)
	}
}

func TestFail_ResultDurationIsSet(t *testing.T) {
	h := newHarness(t, nil)
	h.builder.err = errors.New("broken")

	start := time.Now()
	result, _ := h.engine.DeployProduction(context.Background())

	if result.Duration < 0 || result.Duration > time.Since(start)+time.Second {
		t.Errorf("duration = %s, not plausible", result.Duration)
	}
	if result.StartedAt.IsZero() {
		t.Error("started at must be set")
	}
}
