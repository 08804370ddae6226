package version_test

import (
	"context"
	"errors"
	"testing"

	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/theme"
	"github.com/themepilot/themepilot/internal/version"
)

// fakeClient implements the registry calls Rename touches.
type fakeClient struct {
	theme.Client

	themes  map[int64]*theme.Theme
	renames map[int64]string
	getErr  error
}

func newFakeClient(themes ...*theme.Theme) *fakeClient {
	m := make(map[int64]*theme.Theme)
	for _, t := range themes {
		m[t.ID] = t
	}
	return &fakeClient{themes: m, renames: make(map[int64]string)}
}

func (f *fakeClient) GetByID(ctx context.Context, id int64) (*theme.Theme, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.themes[id], nil
}

func (f *fakeClient) Rename(ctx context.Context, id int64, newName string) error {
	f.renames[id] = newName
	return nil
}

// noRetry keeps rename tests instant.
var noRetry = retry.Policy{MaxRetries: 0, Multiplier: 1}

func TestRename_BumpsExistingTag(t *testing.T) {
	client := newFakeClient(&theme.Theme{ID: 7, Name: "Main Theme [1.2.3]"})

	result, err := version.Rename(context.Background(), client, 7, version.RenameOptions{
		Layout: version.LayoutPlain,
		Policy: noRetry,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}

	if result.NewName != "Main Theme [1.2.4]" {
		t.Errorf("new name = %q, want %q", result.NewName, "Main Theme [1.2.4]")
	}
	if result.BaseName != "Main Theme" {
		t.Errorf("base name = %q, want %q", result.BaseName, "Main Theme")
	}
	if got := client.renames[7]; got != "Main Theme [1.2.4]" {
		t.Errorf("remote rename = %q, want %q", got, "Main Theme [1.2.4]")
	}
}

func TestRename_UntaggedGetsInitial(t *testing.T) {
	client := newFakeClient(&theme.Theme{ID: 7, Name: "Main Theme"})

	result, err := version.Rename(context.Background(), client, 7, version.RenameOptions{
		Layout: version.LayoutPlain,
		Policy: noRetry,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}

	if result.NewName != "Main Theme [0.0.1]" {
		t.Errorf("new name = %q, want %q", result.NewName, "Main Theme [0.0.1]")
	}
	if result.OldVersion != nil {
		t.Errorf("old version = %v, want nil", result.OldVersion)
	}
}

func TestRename_StartSeedsTheBump(t *testing.T) {
	client := newFakeClient(&theme.Theme{ID: 7, Name: "Main Theme"})

	result, err := version.Rename(context.Background(), client, 7, version.RenameOptions{
		Layout: version.LayoutPlain,
		Start:  &version.Version{Major: 3, Minor: 0, Patch: 0},
		Policy: noRetry,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}

	// The start version is the bump's input, not its output.
	if result.NewName != "Main Theme [3.0.1]" {
		t.Errorf("new name = %q, want %q", result.NewName, "Main Theme [3.0.1]")
	}
}

func TestRename_ExistingTagBeatsStart(t *testing.T) {
	client := newFakeClient(&theme.Theme{ID: 7, Name: "Main Theme [5.0.0]"})

	result, err := version.Rename(context.Background(), client, 7, version.RenameOptions{
		Layout: version.LayoutPlain,
		Start:  &version.Version{Major: 3, Minor: 0, Patch: 0},
		Policy: noRetry,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}

	if result.NewName != "Main Theme [5.0.1]" {
		t.Errorf("new name = %q, want %q", result.NewName, "Main Theme [5.0.1]")
	}
}

func TestRename_ExactWinsOverEverything(t *testing.T) {
	client := newFakeClient(&theme.Theme{ID: 7, Name: "Main Theme [5.0.0]"})

	result, err := version.Rename(context.Background(), client, 7, version.RenameOptions{
		Layout: version.LayoutPaddedPatch,
		Start:  &version.Version{Major: 3},
		Exact:  &version.Version{Major: 9, Minor: 1, Patch: 4},
		Policy: noRetry,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}

	if result.NewName != "Main Theme [9.1.04]" {
		t.Errorf("new name = %q, want %q", result.NewName, "Main Theme [9.1.04]")
	}
}

func TestRename_MissingTheme(t *testing.T) {
	client := newFakeClient()

	_, err := version.Rename(context.Background(), client, 42, version.RenameOptions{Policy: noRetry})

	var notFound *theme.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if notFound.ThemeID != 42 {
		t.Errorf("theme id = %d, want 42", notFound.ThemeID)
	}
}
