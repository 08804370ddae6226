// Package gitsync captures the live theme's current state into a
// version-control branch and opens a pull request for review. Merchants
// edit structured content directly in the admin, so the repository
// drifts from the store; sync brings the drift back under review.
package gitsync

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/themepilot/themepilot/internal/config"
	"github.com/themepilot/themepilot/internal/retry"
	"github.com/themepilot/themepilot/internal/theme"
)

// Result reports what a sync run produced.
type Result struct {
	Branch       string
	PRNumber     int
	PRURL        string
	FilesChanged int
	UpToDate     bool
}

// Syncer pulls the live theme into a git workspace and manages the
// branch and pull request.
type Syncer struct {
	themes  theme.Client
	gh      *github.Client
	cfg     config.SyncConfig
	policy  retry.Policy
	owner   string
	repo    string
	workdir string
	now     func() time.Time
}

// New builds a Syncer. The sync config must carry a repo and token.
func New(themes theme.Client, cfg config.SyncConfig, policy retry.Policy) (*Syncer, error) {
	parts := strings.SplitN(cfg.Repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("sync repo %q is not owner/name", cfg.Repo)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("sync requires a repository token")
	}

	workdir := cfg.Workdir
	if workdir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get user home dir: %w", err)
		}
		workdir = filepath.Join(home, ".themepilot", "sync", parts[0], parts[1])
	}

	return &Syncer{
		themes:  themes,
		gh:      github.NewClient(nil).WithAuthToken(cfg.Token),
		cfg:     cfg,
		policy:  policy,
		owner:   parts[0],
		repo:    parts[1],
		workdir: workdir,
		now:     time.Now,
	}, nil
}

// Run executes a full sync: clone/update the repo, pull the live theme
// over the working tree, and commit the drift onto a sync branch with a
// pull request. A second run for the same day reuses the branch and its
// open PR.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	live, err := retry.Do(ctx, "resolve live theme", s.policy, func(ctx context.Context) (*theme.Theme, error) {
		return s.themes.GetLive(ctx)
	})
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, theme.ErrNoLiveTheme
	}

	if err := s.cloneOrUpdate(ctx); err != nil {
		return nil, err
	}

	branch := s.branchName()
	if _, err := s.gitCmd(ctx, "checkout", "-B", branch, "origin/"+s.cfg.BaseBranch); err != nil {
		return nil, err
	}

	log.Printf("[sync] pulling live theme %d (%s) into %s", live.ID, live.Name, s.workdir)
	_, err = retry.Do(ctx, "pull live theme", s.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.themes.Pull(ctx, live.ID, s.workdir)
	})
	if err != nil {
		return nil, err
	}

	changed, err := s.stageChanges(ctx)
	if err != nil {
		return nil, err
	}
	if changed == 0 {
		log.Printf("[sync] repository already matches live theme %d", live.ID)
		return &Result{Branch: branch, UpToDate: true}, nil
	}

	message := fmt.Sprintf("Sync live theme %q (%s)", live.Name, s.now().UTC().Format("2006-01-02"))
	if _, err := s.gitCmd(ctx, "commit", "-m", message); err != nil {
		return nil, err
	}
	if _, err := s.gitCmd(ctx, "push", "--force-with-lease", "origin", branch); err != nil {
		return nil, err
	}

	pr, err := s.ensurePR(ctx, branch, live)
	if err != nil {
		return nil, err
	}

	log.Printf("[sync] %d files changed, PR #%d (%s)", changed, pr.GetNumber(), pr.GetHTMLURL())
	return &Result{
		Branch:       branch,
		PRNumber:     pr.GetNumber(),
		PRURL:        pr.GetHTMLURL(),
		FilesChanged: changed,
	}, nil
}

// branchName is stable within a day so repeated runs amend the same PR.
func (s *Syncer) branchName() string {
	return fmt.Sprintf("%s/%s", s.cfg.BranchPrefix, s.now().UTC().Format("2006-01-02"))
}

func (s *Syncer) cloneOrUpdate(ctx context.Context) error {
	cloneURL := fmt.Sprintf("https://x-access-token:%s@github.com/%s/%s.git", s.cfg.Token, s.owner, s.repo)

	gitDir := filepath.Join(s.workdir, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		if _, err := s.gitCmd(ctx, "fetch", "origin", s.cfg.BaseBranch); err != nil {
			return err
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.workdir), 0o755); err != nil {
		return fmt.Errorf("create sync workspace parent dir: %w", err)
	}

	c := exec.CommandContext(ctx, "git", "clone", "--branch", s.cfg.BaseBranch, cloneURL, s.workdir)
	c.WaitDelay = 500 * time.Millisecond
	c.Cancel = func() error {
		return c.Process.Kill()
	}
	output, err := c.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone: %w (output: %s)", err, string(output))
	}
	return nil
}

// stageChanges adds everything and reports how many paths differ from
// HEAD.
func (s *Syncer) stageChanges(ctx context.Context) (int, error) {
	if _, err := s.gitCmd(ctx, "add", "--all"); err != nil {
		return 0, err
	}
	out, err := s.gitCmd(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return 0, err
	}
	lines := strings.Fields(strings.TrimSpace(out))
	return len(lines), nil
}

// ensurePR reuses an existing open PR for the branch or creates one.
func (s *Syncer) ensurePR(ctx context.Context, branch string, live *theme.Theme) (*github.PullRequest, error) {
	existing, _, err := s.gh.PullRequests.List(ctx, s.owner, s.repo, &github.PullRequestListOptions{
		State: "open",
		Head:  s.owner + ":" + branch,
		Base:  s.cfg.BaseBranch,
	})
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	title := fmt.Sprintf("Sync live theme changes (%s)", s.now().UTC().Format("2006-01-02"))
	body := fmt.Sprintf(
		"Automated sync of the live theme %q (#%d).\n\n"+
			"These changes were made directly in the theme editor and are not yet in the repository.",
		live.Name, live.ID)

	pr, _, err := s.gh.PullRequests.Create(ctx, s.owner, s.repo, &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(branch),
		Base:  github.String(s.cfg.BaseBranch),
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}
	return pr, nil
}

// gitCmd runs a git command in the sync workspace.
func (s *Syncer) gitCmd(ctx context.Context, args ...string) (string, error) {
	c := exec.CommandContext(ctx, "git", args...)
	c.Dir = s.workdir
	c.WaitDelay = 500 * time.Millisecond
	c.Cancel = func() error {
		return c.Process.Kill()
	}

	output, err := c.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w (output: %s)", strings.Join(args, " "), err, string(output))
	}
	return string(output), nil
}
