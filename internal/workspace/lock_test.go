package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lockPathForTest(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "batch.lock")
}

func TestFileLockAcquireRelease(t *testing.T) {
	path := lockPathForTest(t)
	lock := NewFileLock(path, nil)

	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	lock.Release()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock marker still present after release (err=%v)", err)
	}
}

func TestFileLockContentionTimesOut(t *testing.T) {
	path := lockPathForTest(t)
	holder := NewFileLock(path, nil)
	if err := holder.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("holder Acquire failed: %v", err)
	}
	defer holder.Release()

	contender := NewFileLock(path, nil)
	err := contender.Acquire(context.Background(), 200*time.Millisecond)
	var timeout *LockTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("contender error = %v, want LockTimeoutError", err)
	}
	if timeout.Path != path {
		t.Fatalf("timeout path = %q, want %q", timeout.Path, path)
	}
}

func TestFileLockAcquireHonorsContext(t *testing.T) {
	path := lockPathForTest(t)
	holder := NewFileLock(path, nil)
	if err := holder.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("holder Acquire failed: %v", err)
	}
	defer holder.Release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewFileLock(path, nil).Acquire(ctx, 10*time.Second)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Acquire error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire did not return after context cancellation")
	}
}

func TestFallbackLockContention(t *testing.T) {
	path := lockPathForTest(t)
	holder := NewFallbackFileLock(path, nil)
	if err := holder.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("holder Acquire failed: %v", err)
	}

	contender := NewFallbackFileLock(path, nil)
	err := contender.Acquire(context.Background(), 150*time.Millisecond)
	var timeout *LockTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("contender error = %v, want LockTimeoutError", err)
	}

	holder.Release()
	if err := contender.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	contender.Release()
}

func TestReleaseWithoutAcquireIsNoop(t *testing.T) {
	lock := NewFileLock(lockPathForTest(t), nil)
	lock.Release()
	lock.Release()
}

func TestWithLockReleasesOnError(t *testing.T) {
	path := lockPathForTest(t)
	lock := NewFileLock(path, nil)

	wantErr := errors.New("work failed")
	if err := lock.WithLock(context.Background(), time.Second, func() error {
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("WithLock error = %v, want %v", err, wantErr)
	}

	// The lock must be free again.
	other := NewFileLock(path, nil)
	if err := other.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("lock not released after WithLock error: %v", err)
	}
	other.Release()
}
