// Package build runs the theme build step before deployment.
package build

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"
)

const defaultTimeout = 10 * time.Minute

// Runner executes the configured build command.
type Runner struct {
	Command string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// Result captures the build outcome.
type Result struct {
	Output   string
	Duration time.Duration
}

// Run executes the build command through the shell, capturing combined
// output. The deployment pipeline only cares about success or failure.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Command == "" {
		return &Result{}, nil
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Printf("[build] running %q", r.Command)
	start := time.Now()

	cmd := exec.CommandContext(ctx, "sh", "-c", r.Command)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	for k, v := range r.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	result := &Result{Output: out.String(), Duration: time.Since(start)}

	if ctx.Err() == context.DeadlineExceeded {
		return result, fmt.Errorf("build timed out after %s", timeout)
	}
	if err != nil {
		return result, fmt.Errorf("build command failed: %w", err)
	}

	log.Printf("[build] completed in %s", result.Duration.Round(time.Millisecond))
	return result, nil
}
