package version

import (
	"context"
	"log"

	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/theme"
)

// RenameOptions controls how the next tag is chosen.
type RenameOptions struct {
	Layout Layout
	// Start seeds the bump when the theme carries no tag yet. An
	// existing tag always wins over Start.
	Start *Version
	// Exact adopts this version verbatim instead of bumping. Used when
	// an external release process owns the version number.
	Exact *Version
	// Policy wraps the registry calls.
	Policy retry.Policy
}

// RenameResult reports the before/after of a versioned rename.
type RenameResult struct {
	OldVersion *Version
	NewVersion Version
	OldName    string
	NewName    string
	BaseName   string
}

// Rename fetches the theme's current name, computes the next tag, and
// renames the theme to carry it.
func Rename(ctx context.Context, client theme.Client, id int64, opts RenameOptions) (*RenameResult, error) {
	current, err := retry.Do(ctx, "get theme for rename", opts.Policy, func(ctx context.Context) (*theme.Theme, error) {
		return client.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &theme.NotFoundError{ThemeID: id}
	}

	oldVersion, base := Extract(current.Name)

	var next Version
	switch {
	case opts.Exact != nil:
		next = *opts.Exact
	case oldVersion != nil:
		next = Bump(oldVersion)
	case opts.Start != nil:
		next = Bump(opts.Start)
	default:
		next = Initial()
	}

	newName := WithTag(base, next, opts.Layout)

	_, err = retry.Do(ctx, "rename theme", opts.Policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.Rename(ctx, id, newName)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[version] renamed theme %d: %q -> %q", id, current.Name, newName)

	return &RenameResult{
		OldVersion: oldVersion,
		NewVersion: next,
		OldName:    current.Name,
		NewName:    newName,
		BaseName:   base,
	}, nil
}
