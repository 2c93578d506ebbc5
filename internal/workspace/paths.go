package workspace

import (
	"path/filepath"
	"strings"
)

// DocumentExt is the extension of the primary workspace document.
const DocumentExt = ".idw"

// NormalizePath resolves a workspace path to an absolute path carrying the
// document extension, so "photos2024" and "photos2024.idw" name the same
// workspace.
func NormalizePath(path string) (string, error) {
	if filepath.Ext(path) == "" {
		path += DocumentExt
	}
	return filepath.Abs(filepath.Clean(path))
}

func siblingPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// BackupPath returns the one-generation-lagging backup sibling.
func BackupPath(path string) string { return siblingPath(path, ".bak") }

// LockPath returns the lock marker sibling; present only during a save.
func LockPath(path string) string { return siblingPath(path, ".lock") }

// tempPath returns the staging sibling used for atomic saves.
func tempPath(path string) string { return siblingPath(path, ".tmp") }
