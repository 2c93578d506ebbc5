// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"mediascribe/internal/workspace"
)

// WorkspacePath returns a document path inside a fresh temp directory.
func WorkspacePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "batch.idw")
}

// MustOpenStore opens a workspace store at path, failing the test on error
// and closing the store during cleanup.
func MustOpenStore(t *testing.T, path string, opts workspace.Options) *workspace.Store {
	t.Helper()
	store, err := workspace.Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewStore opens a store on a fresh temp workspace with default options.
func NewStore(t *testing.T) *workspace.Store {
	t.Helper()
	return MustOpenStore(t, WorkspacePath(t), workspace.Options{
		SourceDirectory: t.TempDir(),
		ProcessingMode:  "images",
	})
}
