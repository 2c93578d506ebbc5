package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("exists = true for a missing file")
	}
	if resolved == "" {
		t.Fatal("resolved path is empty")
	}
	if cfg.Processing.Provider != "openai" || cfg.Processing.Model != "gpt-4o-mini" {
		t.Fatalf("processing defaults = %+v", cfg.Processing)
	}
	if cfg.Store.LockTimeoutSeconds != 10 || cfg.Store.MonitorPollSeconds != 2 {
		t.Fatalf("store defaults = %+v", cfg.Store)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[processing]
model = "gpt-4o"

[store]
lock_timeout_seconds = 30

[logging]
format = "JSON"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Processing.Model != "gpt-4o" {
		t.Fatalf("model = %q, want gpt-4o", cfg.Processing.Model)
	}
	if cfg.Processing.Provider != "openai" {
		t.Fatalf("unset provider lost its default: %q", cfg.Processing.Provider)
	}
	if cfg.Store.LockTimeoutSeconds != 30 {
		t.Fatalf("lock timeout = %d, want 30", cfg.Store.LockTimeoutSeconds)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q, want normalized json", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero lock timeout": `
[store]
lock_timeout_seconds = 0
`,
		"bad log format": `
[logging]
format = "yaml"
`,
		"ntfy without timeout": `
[notifications]
ntfy_topic = "my-topic"
request_timeout = 0
`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, _, err := Load(writeConfig(t, contents)); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	if _, _, _, err := Load(writeConfig(t, "[[[")); err == nil {
		t.Fatal("malformed TOML accepted")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandPath("~/photos")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "photos") {
		t.Fatalf("ExpandPath(~/photos) = %q", got)
	}

	if got, err := ExpandPath(""); err != nil || got != "" {
		t.Fatalf("ExpandPath(\"\") = (%q, %v), want empty", got, err)
	}

	got, err = ExpandPath("relative/dir")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("ExpandPath(relative/dir) = %q, want absolute", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "ws")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q not created (err=%v)", dir, err)
		}
	}
}

func TestSampleConfigIsLoadable(t *testing.T) {
	sample := SampleConfig()
	if !strings.Contains(sample, "[processing]") {
		t.Fatal("sample config missing processing section")
	}

	if _, _, _, err := Load(writeConfig(t, sample)); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
