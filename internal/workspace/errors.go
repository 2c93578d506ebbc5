package workspace

import (
	"fmt"
	"time"
)

// FormatError indicates a structurally invalid document or a failed save.
// The operation is aborted, staging files are cleaned up, and the error is
// surfaced to the caller without internal retries.
type FormatError struct {
	Op  string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("document format: %s", e.Op)
	}
	return fmt.Sprintf("document format: %s: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// CorruptionError means the primary document and its backup are both
// unreadable. It is fatal for the batch; manual inspection of the .bak
// file is required.
type CorruptionError struct {
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("document corrupted: %s (backup unavailable)", e.Path)
	}
	return fmt.Sprintf("document corrupted: %s: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// LockTimeoutError means exclusive access to the document was not obtained
// within the timeout. Callers may retry with backoff.
type LockTimeoutError struct {
	Path    string
	Timeout time.Duration
	Err     error
}

func (e *LockTimeoutError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("lock timeout after %s: %s", e.Timeout, e.Path)
	}
	return fmt.Sprintf("lock timeout after %s: %s: %v", e.Timeout, e.Path, e.Err)
}

func (e *LockTimeoutError) Unwrap() error { return e.Err }
