package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"mediascribe/internal/fileutil"
	"mediascribe/internal/logging"
)

var requiredSections = []string{
	"workspace_info",
	"workflow_progress",
	"processing_config",
	"items",
}

// documentFile owns the on-disk representation of one workspace document:
// load with an mtime-gated cache, backup-aware corruption recovery, and
// atomic write-to-temp-then-rename saves under a FileLock.
type documentFile struct {
	path        string
	lock        *FileLock
	lockTimeout time.Duration
	logger      *slog.Logger

	cached      *Document
	cachedMtime time.Time
}

func newDocumentFile(path string, lock *FileLock, lockTimeout time.Duration, logger *slog.Logger) *documentFile {
	if logger == nil {
		logger = logging.NewNop()
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &documentFile{
		path:        path,
		lock:        lock,
		lockTimeout: lockTimeout,
		logger:      logging.NewComponentLogger(logger, "document"),
	}
}

func (f *documentFile) exists() bool {
	info, err := os.Stat(f.path)
	return err == nil && !info.IsDir()
}

// load returns the document, serving the cached copy while the file's
// modification time has not advanced. A failure to read, parse, or validate
// a present primary triggers backup recovery; only when the backup also
// fails does the error escalate to CorruptionError. A removed primary is a
// destroyed document, not a corrupt one, and is surfaced as-is rather than
// resurrected from the backup.
func (f *documentFile) load(useCache bool) (*Document, error) {
	info, statErr := os.Stat(f.path)
	if statErr == nil && useCache && f.cached != nil && !info.ModTime().After(f.cachedMtime) {
		return f.cached, nil
	}
	if errors.Is(statErr, fs.ErrNotExist) {
		f.invalidate()
		return nil, &FormatError{Op: "open document", Err: statErr}
	}

	var doc *Document
	var cause error
	if statErr != nil {
		cause = statErr
	} else {
		data, err := os.ReadFile(f.path)
		if err != nil {
			cause = err
		} else {
			doc, cause = f.parse(data)
		}
	}

	if cause != nil {
		recovered, err := f.recoverFromBackup(cause)
		if err != nil {
			return nil, err
		}
		doc = recovered
		if restored, err := os.Stat(f.path); err == nil {
			info = restored
		}
	}

	doc.ensureDefaults()
	f.cached = doc
	if info != nil {
		f.cachedMtime = info.ModTime()
	}
	return doc, nil
}

// parse unmarshals and structurally validates a document. The four required
// top-level sections must be present and items must be a JSON object. A
// mismatched major version only logs a warning.
func (f *documentFile) parse(data []byte) (*Document, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, &FormatError{Op: "parse document", Err: err}
	}
	for _, key := range requiredSections {
		if _, ok := sections[key]; !ok {
			return nil, &FormatError{Op: fmt.Sprintf("missing required section %q", key)}
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Op: "decode document", Err: err}
	}

	if major := versionMajor(doc.WorkspaceInfo.Version); major != versionMajor(DocumentVersion) {
		f.logger.Warn("document version differs from supported version",
			logging.String(logging.FieldEventType, "document_version_mismatch"),
			logging.String("document_version", doc.WorkspaceInfo.Version),
			logging.String("supported_version", DocumentVersion),
			logging.String(logging.FieldImpact, "unknown fields are preserved but ignored"))
	}

	return &doc, nil
}

// recoverFromBackup reads and validates the .bak generation and, on
// success, restores the primary file to match it.
func (f *documentFile) recoverFromBackup(cause error) (*Document, error) {
	backup := BackupPath(f.path)
	data, err := os.ReadFile(backup)
	if err != nil {
		return nil, &CorruptionError{Path: f.path, Err: errors.Join(cause, err)}
	}
	doc, err := f.parse(data)
	if err != nil {
		return nil, &CorruptionError{Path: f.path, Err: errors.Join(cause, err)}
	}

	if err := f.writeAtomic(data); err != nil {
		return nil, &CorruptionError{Path: f.path, Err: errors.Join(cause, err)}
	}

	f.logger.Warn("recovered document from backup",
		logging.String(logging.FieldEventType, "document_recovered"),
		logging.String("path", f.path),
		logging.Error(cause),
		logging.String(logging.FieldImpact, "changes made after the last save were lost"))

	return doc, nil
}

// save persists the document: lock, back up the previous generation, stamp
// last_modified, stage to .tmp, and rename over the primary. The in-memory
// cache advances only when every step succeeds.
func (f *documentFile) save(ctx context.Context, doc *Document) error {
	if err := f.lock.Acquire(ctx, f.lockTimeout); err != nil {
		return err
	}
	defer f.lock.Release()

	if f.exists() {
		if err := fileutil.CopyFile(f.path, BackupPath(f.path)); err != nil {
			return &FormatError{Op: "write backup", Err: err}
		}
	}

	doc.WorkspaceInfo.LastModified = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &FormatError{Op: "encode document", Err: err}
	}
	if err := f.writeAtomic(data); err != nil {
		return err
	}

	f.cached = doc
	if info, err := os.Stat(f.path); err == nil {
		f.cachedMtime = info.ModTime()
	}
	return nil
}

// writeAtomic stages data in the .tmp sibling and renames it over the
// primary. The temp file never survives a failure.
func (f *documentFile) writeAtomic(data []byte) error {
	tmp := tempPath(f.path)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return &FormatError{Op: "write temp file", Err: err}
	}
	if err := renameOverwrite(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return &FormatError{Op: "rename temp file", Err: err}
	}
	return nil
}

// renameOverwrite renames src over dst. On Windows rename cannot replace an
// existing file, so the destination is removed immediately before the
// rename; the window between the two calls is an accepted platform
// limitation, not something this package papers over.
func renameOverwrite(src, dst string) error {
	if runtime.GOOS == "windows" {
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return os.Rename(src, dst)
}

// invalidate drops the cached document so the next load reads from disk.
func (f *documentFile) invalidate() {
	f.cached = nil
	f.cachedMtime = time.Time{}
}

// modTime reports the primary file's modification time, if it exists.
func (f *documentFile) modTime() (time.Time, bool) {
	info, err := os.Stat(f.path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func versionMajor(version string) string {
	major, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	return major
}
