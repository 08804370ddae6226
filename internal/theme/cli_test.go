package theme

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// fakeRun records invocations and plays back canned output.
type fakeRun struct {
	calls [][]string
	out   []byte
	err   error
}

func (f *fakeRun) run(ctx context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	return f.out, f.err
}

// testClient builds a CLIClient whose exec layer is stubbed out and
// whose rate limiter never blocks.
func testClient(t *testing.T, fake *fakeRun) *CLIClient {
	t.Helper()
	c := NewCLIClient("shopify", "test-shop.myshopify.com", "shptka_test")
	c.bucket = NewTokenBucket(1000, 1000)
	c.run = fake.run
	return c
}

// Captured from `shopify theme list --json` output.
const themeListJSON = `[
  {"id": 111111111111, "name": "Dawn [1.4.2]", "role": "live", "created_at": "2026-01-10T09:30:00Z"},
  {"id": 222222222222, "name": "BACKUP_01-02-26-14:05", "role": "unpublished", "created_at": "2026-02-01T14:05:00Z"},
  {"id": 333333333333, "name": "Staging", "role": "development", "processing": true, "created_at": "2026-02-02T08:00:00Z"}
]`

func TestParseThemeList_BareArray(t *testing.T) {
	themes, err := parseThemeList([]byte(themeListJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(themes) != 3 {
		t.Fatalf("got %d themes, want 3", len(themes))
	}

	want := Theme{
		ID:        111111111111,
		Name:      "Dawn [1.4.2]",
		Role:      RoleLive,
		CreatedAt: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC),
	}
	if !reflect.DeepEqual(themes[0], want) {
		t.Errorf("themes[0] = %+v, want %+v", themes[0], want)
	}
	if !themes[2].Processing {
		t.Error("themes[2] should be processing")
	}
}

func TestParseThemeList_WrappedObject(t *testing.T) {
	out := []byte(`{"themes": ` + themeListJSON + `}`)
	themes, err := parseThemeList(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(themes) != 3 {
		t.Fatalf("got %d themes, want 3", len(themes))
	}
}

func TestParseThemeList_Garbage(t *testing.T) {
	if _, err := parseThemeList([]byte("error: not logged in")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParsePushSummary(t *testing.T) {
	out := []byte(`{
  "theme": {"id": 444444444444, "name": "Dawn", "role": "unpublished", "created_at": "2026-02-03T10:00:00Z"},
  "warnings": ["The following files were ignored: config/settings_data.json"]
}`)
	summary, err := parsePushSummary(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if summary.Theme.ID != 444444444444 {
		t.Errorf("theme id = %d", summary.Theme.ID)
	}
	if len(summary.Warnings) != 1 {
		t.Errorf("warnings = %v", summary.Warnings)
	}
}

func TestGetByID(t *testing.T) {
	fake := &fakeRun{out: []byte(themeListJSON)}
	c := testClient(t, fake)

	got, err := c.GetByID(context.Background(), 222222222222)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "BACKUP_01-02-26-14:05" {
		t.Errorf("got %+v", got)
	}

	missing, err := c.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing theme should be nil, got %+v", missing)
	}
}

func TestGetLive(t *testing.T) {
	fake := &fakeRun{out: []byte(themeListJSON)}
	c := testClient(t, fake)

	live, err := c.GetLive(context.Background())
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if live == nil || live.ID != 111111111111 {
		t.Errorf("live = %+v", live)
	}
}

func TestGetLive_NoneIsNil(t *testing.T) {
	fake := &fakeRun{out: []byte(`[{"id": 1, "name": "Draft", "role": "unpublished"}]`)}
	c := testClient(t, fake)

	live, err := c.GetLive(context.Background())
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if live != nil {
		t.Errorf("live = %+v, want nil", live)
	}
}

func TestPushArgs(t *testing.T) {
	tests := []struct {
		name string
		opts PushOptions
		want []string
	}{
		{
			"bare",
			PushOptions{},
			[]string{"theme", "push", "--theme", "7", "--json"},
		},
		{
			"selective code phase",
			PushOptions{Path: "dist", Ignore: []string{"templates/*.json", "config/settings_data.json"}, AllowLive: true},
			[]string{"theme", "push", "--theme", "7", "--json", "--path", "dist",
				"--ignore", "templates/*.json", "--ignore", "config/settings_data.json", "--allow-live"},
		},
		{
			"locale phase",
			PushOptions{Only: []string{"locales/en.default.json"}, AllowLive: true, NoDelete: true},
			[]string{"theme", "push", "--theme", "7", "--json",
				"--only", "locales/en.default.json", "--allow-live", "--nodelete"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pushArgs(7, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pushArgs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelete_Args(t *testing.T) {
	fake := &fakeRun{}
	c := testClient(t, fake)

	if err := c.Delete(context.Background(), 42); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"theme", "delete", "--theme", "42", "--force"}
	if len(fake.calls) != 1 || !reflect.DeepEqual(fake.calls[0], want) {
		t.Errorf("calls = %v, want %v", fake.calls, want)
	}
}

func TestRename_Args(t *testing.T) {
	fake := &fakeRun{}
	c := testClient(t, fake)

	if err := c.Rename(context.Background(), 42, "Dawn [1.4.3]"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	want := []string{"theme", "rename", "--theme", "42", "--name", "Dawn [1.4.3]"}
	if !reflect.DeepEqual(fake.calls[0], want) {
		t.Errorf("calls[0] = %v, want %v", fake.calls[0], want)
	}
}

func TestMapRemoteError(t *testing.T) {
	base := errors.New("exit status 1")

	tests := []struct {
		name       string
		stderr     string
		wantStatus int
	}{
		{"429 in stderr", "Error: the server responded with 429 Too Many Requests", 429},
		{"503 in stderr", "Error: 503 Service Unavailable", 503},
		{"rate limit text", "Error: Reduce request rates to resume uninterrupted service (rate limit)", 429},
		{"too many requests text", "too many requests, slow down", 429},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapRemoteError(tt.stderr, base)
			var remote *RemoteStatusError
			if !errors.As(err, &remote) {
				t.Fatalf("error = %v, want RemoteStatusError", err)
			}
			if remote.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", remote.StatusCode, tt.wantStatus)
			}
		})
	}

	t.Run("plain failure wraps original", func(t *testing.T) {
		err := mapRemoteError("Error: theme directory is missing required files", base)
		if !errors.Is(err, base) {
			t.Fatalf("error = %v, want wrap of base", err)
		}
		var remote *RemoteStatusError
		if errors.As(err, &remote) {
			t.Errorf("plain failure should not become RemoteStatusError")
		}
	})

	t.Run("empty stderr passes through", func(t *testing.T) {
		if err := mapRemoteError("", base); err != base {
			t.Errorf("error = %v, want base unchanged", err)
		}
	})
}
