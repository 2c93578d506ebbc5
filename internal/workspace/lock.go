package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"mediascribe/internal/logging"
)

const lockRetryInterval = 50 * time.Millisecond

// DefaultLockTimeout bounds how long a save waits for exclusive access.
const DefaultLockTimeout = 10 * time.Second

// lockStrategy is the platform-specific exclusive-access primitive,
// selected at construction time.
type lockStrategy interface {
	tryAcquire() (bool, error)
	release() error
}

// flockStrategy uses the OS advisory file lock.
type flockStrategy struct {
	fl *flock.Flock
}

func (s *flockStrategy) tryAcquire() (bool, error) { return s.fl.TryLock() }

func (s *flockStrategy) release() error { return s.fl.Unlock() }

// markerStrategy is the existence-based fallback for filesystems without a
// working advisory lock. It provides NO real mutual exclusion across
// processes; two writers racing on creation can both believe they hold the
// lock. This degraded mode is a documented limitation.
type markerStrategy struct {
	path string
}

func (s *markerStrategy) tryAcquire() (bool, error) {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	if err := f.Close(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *markerStrategy) release() error {
	return os.Remove(s.path)
}

// FileLock grants one writer exclusive, time-bounded access to a document
// via a sibling .lock file. Stale locks left by a crashed process are not
// detected or expired.
type FileLock struct {
	path     string
	strategy lockStrategy
	logger   *slog.Logger
	held     bool
}

// NewFileLock builds a lock backed by the native OS advisory primitive.
func NewFileLock(path string, logger *slog.Logger) *FileLock {
	return newFileLock(path, &flockStrategy{fl: flock.New(path)}, logger)
}

// NewFallbackFileLock builds the existence-based degraded lock for
// platforms or filesystems where the advisory primitive is unavailable.
func NewFallbackFileLock(path string, logger *slog.Logger) *FileLock {
	return newFileLock(path, &markerStrategy{path: path}, logger)
}

func newFileLock(path string, strategy lockStrategy, logger *slog.Logger) *FileLock {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileLock{
		path:     path,
		strategy: strategy,
		logger:   logging.NewComponentLogger(logger, "filelock"),
	}
}

// Acquire obtains the lock, retrying at short intervals until timeout.
// It fails with LockTimeoutError once the timeout elapses, and with the
// context error if ctx is cancelled first.
func (l *FileLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		ok, err := l.strategy.tryAcquire()
		if err == nil && ok {
			l.held = true
			return nil
		}
		if err != nil {
			// Contention and transient filesystem errors are
			// indistinguishable here; keep retrying until timeout.
			lastErr = err
			l.logger.Debug("lock attempt failed", logging.String("path", l.path), logging.Error(err))
		}
		if !time.Now().Before(deadline) {
			return &LockTimeoutError{Path: l.path, Timeout: timeout, Err: lastErr}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire lock %s: %w", l.path, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

// Release frees the lock and removes the marker file so the lock is absent
// at rest. Releasing an unheld lock is a no-op.
func (l *FileLock) Release() {
	if !l.held {
		return
	}
	l.held = false
	if err := l.strategy.release(); err != nil {
		l.logger.Warn("failed to release document lock",
			logging.String("path", l.path),
			logging.Error(err))
	}
	// flock keeps the marker file around after unlock; remove it so the
	// lock file is only ever present during an in-flight save.
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("failed to remove lock marker", logging.String("path", l.path), logging.Error(err))
	}
}

// WithLock runs fn inside a scoped acquisition, releasing on every exit
// path including panics.
func (l *FileLock) WithLock(ctx context.Context, timeout time.Duration, fn func() error) error {
	if err := l.Acquire(ctx, timeout); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
