package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "init", "photos2024", "--source", "/photos", "--mode", "images")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "photos2024.idw")

	if _, err := os.Stat(filepath.Join(env.workspaceDir, "photos2024.idw")); err != nil {
		t.Fatalf("document not created in workspace dir: %v", err)
	}

	out, _, err = runCLI(t, env, "status", "photos2024")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Total")
	requireContains(t, out, "0")
}

func TestItemLifecycleThroughCLI(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "init", "batch"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, _, err := runCLI(t, env, "add", "batch", "/photos/Sunset Beach.JPG", "/photos/clip.mov"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, _, err := runCLI(t, env, "start", "batch", "sunset_beach.jpg"); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, _, err := runCLI(t, env, "complete", "batch", "sunset_beach.jpg",
		"--description", "A beach at golden hour", "--duration", "850ms")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	requireContains(t, out, "Completed sunset_beach.jpg")

	if _, _, err := runCLI(t, env, "fail", "batch", "clip.mov", "--error", "connection refused"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	out, _, err = runCLI(t, env, "status", "batch")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Completed")
	requireContains(t, out, "connection")

	out, _, err = runCLI(t, env, "items", "batch", "--status", "failed")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	requireContains(t, out, "clip.mov")
	if strings.Contains(out, "sunset_beach.jpg") {
		t.Fatalf("status filter leaked completed item: %q", out)
	}
}

func TestResumeReportsRemainingWork(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "init", "batch"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, _, err := runCLI(t, env, "add", "batch", "/p/a.jpg", "/p/b.jpg", "/p/c.jpg"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := runCLI(t, env, "complete", "batch", "a.jpg", "--description", "d"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	out, _, err := runCLI(t, env, "resume", "batch")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	requireContains(t, out, "Next item: b.jpg")
	requireContains(t, out, "Remaining: 2 item(s)")

	for _, id := range []string{"b.jpg", "c.jpg"} {
		if _, _, err := runCLI(t, env, "skip", "batch", id); err != nil {
			t.Fatalf("skip %s: %v", id, err)
		}
	}

	out, _, err = runCLI(t, env, "resume", "batch")
	if err != nil {
		t.Fatalf("resume after skip: %v", err)
	}
	requireContains(t, out, "nothing to resume")
}

func TestReadCommandsRequireExistingWorkspace(t *testing.T) {
	env := setupCLITestEnv(t)

	for _, args := range [][]string{
		{"status", "nope"},
		{"items", "nope"},
		{"resume", "nope"},
		{"report", "nope"},
	} {
		if _, _, err := runCLI(t, env, args...); err == nil {
			t.Fatalf("%v succeeded on a missing workspace", args)
		}
	}
}

func TestReportWritesHTML(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "init", "batch"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, _, err := runCLI(t, env, "add", "batch", "/p/a.jpg"); err != nil {
		t.Fatalf("add: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "report.html")
	if _, _, err := runCLI(t, env, "report", "batch", "--out", outPath); err != nil {
		t.Fatalf("report: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	requireContains(t, string(data), "<!DOCTYPE html>")
	requireContains(t, string(data), "a.jpg")
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "processing.model")
	requireContains(t, out, "gpt-4o-mini")
	requireContains(t, out, env.configPath)
}

func TestDoctorPassesOnHealthyWorkspace(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "init", "batch"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, _, err := runCLI(t, env, "doctor", "batch")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "Directory access")
	requireContains(t, out, "Document lock")
	if strings.Contains(out, "FAIL") {
		t.Fatalf("doctor reported failure on healthy workspace: %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	if got := truncate("a very long description indeed", 10); got != "a very ..." {
		t.Fatalf("truncate = %q", got)
	}
}
