package build

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	r := &Runner{Command: "echo building"}

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(result.Output, "building") {
		t.Errorf("output = %q, want echoed text", result.Output)
	}
	if result.Duration <= 0 {
		t.Errorf("duration = %s, want positive", result.Duration)
	}
}

func TestRun_FailureCapturesOutput(t *testing.T) {
	r := &Runner{Command: "echo broken >&2; exit 3"}

	result, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(result.Output, "broken") {
		t.Errorf("output = %q, want stderr captured", result.Output)
	}
}

func TestRun_EmptyCommandIsNoop(t *testing.T) {
	r := &Runner{}

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Output != "" {
		t.Errorf("output = %q, want empty", result.Output)
	}
}

func TestRun_Timeout(t *testing.T) {
	r := &Runner{Command: "sleep 5", Timeout: 50 * time.Millisecond}

	_, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v, want timeout message", err)
	}
}

func TestRun_EnvAndDir(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{
		Command: "echo $THEME_ENV; pwd",
		Dir:     dir,
		Env:     map[string]string{"THEME_ENV": "production"},
	}

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(result.Output, "production") {
		t.Errorf("output = %q, want env var expanded", result.Output)
	}
	if !strings.Contains(result.Output, dir) {
		t.Errorf("output = %q, want working dir %q", result.Output, dir)
	}
}
