// Package backup snapshots the live theme before a deploy and keeps
// the store under its theme capacity.
package backup

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/theme"
)

// timestampLayout renders backup timestamps as dd-MM-yy-HH:mm.
const timestampLayout = "02-01-06-15:04"

// Config holds backup behavior; defaults are applied by config loading.
type Config struct {
	Prefix       string
	Retention    int
	Timezone     string
	Timeout      time.Duration
	PollInterval time.Duration
}

// CapacityError is returned when the store is at its theme cap and no
// backup is eligible for eviction.
type CapacityError struct {
	Count int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("store holds %d of %d themes and none are prunable backups; delete a theme manually and redeploy",
		e.Count, theme.MaxThemesPerStore)
}

// CleanupResult reports what a retention pass did.
type CleanupResult struct {
	Deleted   []theme.Theme
	Remaining []theme.Theme
}

// Manager creates and prunes backup themes.
type Manager struct {
	client theme.Client
	policy retry.Policy
	cfg    Config
	loc    *time.Location
	now    func() time.Time
}

// New builds a Manager. The configured timezone must be a valid IANA
// zone name.
func New(client theme.Client, policy retry.Policy, cfg Config) (*Manager, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load backup timezone %q: %w", tz, err)
	}
	return &Manager{
		client: client,
		policy: policy,
		cfg:    cfg,
		loc:    loc,
		now:    time.Now,
	}, nil
}

// Create snapshots the live theme into a new timestamped backup theme
// and waits for the platform to finish processing it. Capacity is
// enforced first so the duplicate call cannot trip the platform cap.
func (m *Manager) Create(ctx context.Context) (*theme.Theme, error) {
	live, err := retry.Do(ctx, "get live theme", m.policy, func(ctx context.Context) (*theme.Theme, error) {
		return m.client.GetLive(ctx)
	})
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, theme.ErrNoLiveTheme
	}

	if err := m.EnsureCapacity(ctx); err != nil {
		return nil, err
	}

	name := m.cfg.Prefix + m.now().In(m.loc).Format(timestampLayout)
	log.Printf("[backup] duplicating live theme %d into %q", live.ID, name)

	created, err := retry.Do(ctx, "duplicate live theme", m.policy, func(ctx context.Context) (*theme.Theme, error) {
		return m.client.Duplicate(ctx, live.ID, name)
	})
	if err != nil {
		return nil, err
	}

	timeout := m.cfg.Timeout
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	interval := m.cfg.PollInterval
	if interval == 0 {
		interval = 5 * time.Second
	}

	ready, err := retry.PollUntil(ctx, retry.PollOptions{
		Interval:    interval,
		Timeout:     timeout,
		Description: fmt.Sprintf("theme %d to finish processing", created.ID),
	}, func(ctx context.Context) (*theme.Theme, bool, error) {
		t, err := m.client.GetByID(ctx, created.ID)
		if err != nil {
			return nil, false, err
		}
		if t == nil {
			return nil, false, fmt.Errorf("theme %d disappeared while processing", created.ID)
		}
		return t, !t.Processing, nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[backup] created backup theme %d (%s)", ready.ID, ready.Name)
	return ready, nil
}

// List returns the prunable backups on the store, oldest first.
func (m *Manager) List(ctx context.Context) ([]theme.Theme, error) {
	themes, err := retry.Do(ctx, "list themes", m.policy, func(ctx context.Context) ([]theme.Theme, error) {
		return m.client.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return m.eligible(themes), nil
}

// Cleanup deletes the oldest backups beyond the retention count.
// Individual deletion failures are logged and skipped so one stuck
// theme cannot block the rest of the pass.
func (m *Manager) Cleanup(ctx context.Context) (*CleanupResult, error) {
	themes, err := retry.Do(ctx, "list themes for cleanup", m.policy, func(ctx context.Context) ([]theme.Theme, error) {
		return m.client.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	backups := m.eligible(themes)
	if len(backups) <= m.cfg.Retention {
		return &CleanupResult{Remaining: backups}, nil
	}

	excess := backups[:len(backups)-m.cfg.Retention]
	result := &CleanupResult{Remaining: append([]theme.Theme(nil), backups[len(backups)-m.cfg.Retention:]...)}

	for _, b := range excess {
		err := m.delete(ctx, b.ID)
		if err != nil {
			log.Printf("[backup] failed to delete backup %d (%s), continuing: %v", b.ID, b.Name, err)
			result.Remaining = append(result.Remaining, b)
			continue
		}
		log.Printf("[backup] deleted backup %d (%s)", b.ID, b.Name)
		result.Deleted = append(result.Deleted, b)
	}

	return result, nil
}

// EnsureCapacity frees exactly one slot when the store is at the
// platform cap. Only backups are ever evicted; when none exist the
// caller gets a CapacityError and nothing is deleted.
func (m *Manager) EnsureCapacity(ctx context.Context) error {
	themes, err := retry.Do(ctx, "list themes for capacity check", m.policy, func(ctx context.Context) ([]theme.Theme, error) {
		return m.client.List(ctx)
	})
	if err != nil {
		return err
	}

	if len(themes) < theme.MaxThemesPerStore {
		return nil
	}

	backups := m.eligible(themes)
	if len(backups) == 0 {
		return &CapacityError{Count: len(themes)}
	}

	oldest := backups[0]
	log.Printf("[backup] store at %d-theme cap, evicting oldest backup %d (%s)",
		theme.MaxThemesPerStore, oldest.ID, oldest.Name)
	return m.delete(ctx, oldest.ID)
}

// eligible filters to prunable backups: prefix-named themes that are
// not live, sorted oldest first. A live theme is never eligible
// regardless of its name.
func (m *Manager) eligible(themes []theme.Theme) []theme.Theme {
	backups := make([]theme.Theme, 0, len(themes))
	for _, t := range themes {
		if t.IsLive() {
			continue
		}
		if !strings.HasPrefix(t.Name, m.cfg.Prefix) {
			continue
		}
		backups = append(backups, t)
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.Before(backups[j].CreatedAt)
	})
	return backups
}

func (m *Manager) delete(ctx context.Context, id int64) error {
	_, err := retry.Do(ctx, "delete backup theme", m.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.client.Delete(ctx, id)
	})
	return err
}
