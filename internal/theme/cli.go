package theme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// CLIClient implements Client by shelling out to the Shopify CLI and
// parsing its --json output. All output scraping lives in this file so
// a CLI format change never touches orchestration code.
type CLIClient struct {
	bin    string
	store  string
	token  string
	bucket *TokenBucket
	run    runFunc
}

type runFunc func(ctx context.Context, args ...string) ([]byte, error)

// NewCLIClient builds a client for the given store domain. bin is the
// CLI binary to invoke ("shopify" when empty).
func NewCLIClient(bin, store, token string) *CLIClient {
	if bin == "" {
		bin = "shopify"
	}
	c := &CLIClient{
		bin:   bin,
		store: store,
		token: token,
		// The Admin API allows 2 requests/second per store with small
		// bursts; the CLI shares that budget.
		bucket: NewTokenBucket(4, 2),
	}
	c.run = c.execRun
	return c
}

func (c *CLIClient) execRun(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Env = append(os.Environ(),
		"SHOPIFY_FLAG_STORE="+c.store,
		"SHOPIFY_CLI_THEME_TOKEN="+c.token,
		"SHOPIFY_CLI_NO_ANALYTICS=1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, mapRemoteError(stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

var statusPattern = regexp.MustCompile(`\b(429|503)\b`)

// mapRemoteError lifts HTTP statuses the CLI echoes on stderr into
// RemoteStatusError so retry classification can see them.
func mapRemoteError(stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return err
	}
	if m := statusPattern.FindString(msg); m != "" {
		code := 429
		if m == "503" {
			code = 503
		}
		return &RemoteStatusError{StatusCode: code, Message: msg}
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "too many requests") || strings.Contains(lower, "rate limit") {
		return &RemoteStatusError{StatusCode: 429, Message: msg}
	}
	return fmt.Errorf("%w: %s", err, msg)
}

// cliTheme is the CLI's JSON shape for a theme.
type cliTheme struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Processing bool   `json:"processing"`
	CreatedAt  string `json:"created_at"`
}

func (t cliTheme) toTheme() Theme {
	createdAt, _ := time.Parse(time.RFC3339, t.CreatedAt)
	return Theme{
		ID:         t.ID,
		Name:       t.Name,
		Role:       Role(t.Role),
		Processing: t.Processing,
		CreatedAt:  createdAt,
	}
}

// parseThemeList accepts both the bare-array form and the
// {"themes": [...]} wrapper the CLI has used across versions.
func parseThemeList(out []byte) ([]Theme, error) {
	trimmed := bytes.TrimSpace(out)

	var raw []cliTheme
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Themes []cliTheme `json:"themes"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("parse theme list output: %w", err)
		}
		raw = wrapper.Themes
	} else {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("parse theme list output: %w", err)
		}
	}

	themes := make([]Theme, 0, len(raw))
	for _, t := range raw {
		themes = append(themes, t.toTheme())
	}
	return themes, nil
}

func parsePushSummary(out []byte) (*PushSummary, error) {
	var payload struct {
		Theme    cliTheme `json:"theme"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &payload); err != nil {
		return nil, fmt.Errorf("parse push output: %w", err)
	}
	return &PushSummary{Theme: payload.Theme.toTheme(), Warnings: payload.Warnings}, nil
}

// List returns all themes on the store.
func (c *CLIClient) List(ctx context.Context) ([]Theme, error) {
	if err := c.bucket.Take(ctx); err != nil {
		return nil, err
	}
	out, err := c.run(ctx, "theme", "list", "--json")
	if err != nil {
		return nil, fmt.Errorf("theme list: %w", err)
	}
	return parseThemeList(out)
}

// GetByID returns the theme with the given id, or nil when absent.
func (c *CLIClient) GetByID(ctx context.Context, id int64) (*Theme, error) {
	themes, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range themes {
		if themes[i].ID == id {
			return &themes[i], nil
		}
	}
	return nil, nil
}

// GetLive returns the live theme, or nil when the store has none.
func (c *CLIClient) GetLive(ctx context.Context) (*Theme, error) {
	themes, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range themes {
		if themes[i].IsLive() {
			return &themes[i], nil
		}
	}
	return nil, nil
}

// Duplicate copies a theme by pulling its files into a scratch dir and
// pushing them as a new unpublished theme. The CLI has no first-class
// duplicate call.
func (c *CLIClient) Duplicate(ctx context.Context, sourceID int64, name string) (*Theme, error) {
	dir, err := os.MkdirTemp("", "themepilot-duplicate-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := c.Pull(ctx, sourceID, dir); err != nil {
		return nil, err
	}

	if err := c.bucket.Take(ctx); err != nil {
		return nil, err
	}
	out, err := c.run(ctx,
		"theme", "push",
		"--unpublished",
		"--theme", name,
		"--path", dir,
		"--json",
	)
	if err != nil {
		return nil, fmt.Errorf("theme duplicate push: %w", err)
	}

	summary, err := parsePushSummary(out)
	if err != nil {
		return nil, err
	}
	created := summary.Theme
	return &created, nil
}

// Delete removes a theme permanently.
func (c *CLIClient) Delete(ctx context.Context, id int64) error {
	if err := c.bucket.Take(ctx); err != nil {
		return err
	}
	if _, err := c.run(ctx, "theme", "delete", "--theme", formatID(id), "--force"); err != nil {
		return fmt.Errorf("theme delete %d: %w", id, err)
	}
	return nil
}

// Rename changes a theme's display name.
func (c *CLIClient) Rename(ctx context.Context, id int64, newName string) error {
	if err := c.bucket.Take(ctx); err != nil {
		return err
	}
	if _, err := c.run(ctx, "theme", "rename", "--theme", formatID(id), "--name", newName); err != nil {
		return fmt.Errorf("theme rename %d: %w", id, err)
	}
	return nil
}

// Push uploads local theme files.
func (c *CLIClient) Push(ctx context.Context, id int64, opts PushOptions) (*PushSummary, error) {
	if err := c.bucket.Take(ctx); err != nil {
		return nil, err
	}
	out, err := c.run(ctx, pushArgs(id, opts)...)
	if err != nil {
		return nil, fmt.Errorf("theme push %d: %w", id, err)
	}
	return parsePushSummary(out)
}

// pushArgs builds the CLI argument list for a push. Split out so tests
// can assert the exact flags a push configuration produces.
func pushArgs(id int64, opts PushOptions) []string {
	args := []string{"theme", "push", "--theme", formatID(id), "--json"}
	if opts.Path != "" {
		args = append(args, "--path", opts.Path)
	}
	for _, pattern := range opts.Only {
		args = append(args, "--only", pattern)
	}
	for _, pattern := range opts.Ignore {
		args = append(args, "--ignore", pattern)
	}
	if opts.AllowLive {
		args = append(args, "--allow-live")
	}
	if opts.NoDelete {
		args = append(args, "--nodelete")
	}
	return args
}

// Pull downloads a theme's files into dest.
func (c *CLIClient) Pull(ctx context.Context, id int64, dest string) error {
	if err := c.bucket.Take(ctx); err != nil {
		return err
	}
	if _, err := c.run(ctx, "theme", "pull", "--theme", formatID(id), "--path", dest, "--force"); err != nil {
		return fmt.Errorf("theme pull %d: %w", id, err)
	}
	return nil
}

var _ Client = (*CLIClient)(nil)
