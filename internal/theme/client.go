package theme

import "context"

// PushOptions controls a single push call against a remote theme.
type PushOptions struct {
	// Only restricts the push to files matching these patterns.
	Only []string
	// Ignore excludes files matching these patterns.
	Ignore []string
	// AllowLive permits the push to target the live theme.
	AllowLive bool
	// NoDelete suppresses remote deletion of files absent locally.
	NoDelete bool
	// Path is the local theme directory to push from.
	Path string
}

// PushSummary is what the platform reports back after a push.
type PushSummary struct {
	Theme    Theme
	Warnings []string
}

// Client is the remote theme registry. Implementations perform no
// retries of their own; callers wrap every call in a retry policy.
type Client interface {
	// List returns all themes on the store.
	List(ctx context.Context) ([]Theme, error)

	// GetByID returns the theme with the given id, or nil if it does not exist.
	GetByID(ctx context.Context, id int64) (*Theme, error)

	// GetLive returns the live theme, or nil if the store has none.
	GetLive(ctx context.Context) (*Theme, error)

	// Duplicate copies the source theme's content into a new unpublished
	// theme with the given name and returns it.
	Duplicate(ctx context.Context, sourceID int64, name string) (*Theme, error)

	// Delete removes a theme permanently.
	Delete(ctx context.Context, id int64) error

	// Rename changes a theme's display name.
	Rename(ctx context.Context, id int64, newName string) error

	// Push uploads local theme files to the remote theme.
	Push(ctx context.Context, id int64, opts PushOptions) (*PushSummary, error)

	// Pull downloads the remote theme's files into dest.
	Pull(ctx context.Context, id int64, dest string) error
}
