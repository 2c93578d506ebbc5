package workspace_test

import (
	"context"
	"os"
	"testing"
	"time"

	"mediascribe/internal/testsupport"
	"mediascribe/internal/workspace"
)

// backdate pushes the document's timestamps into the past so a subsequent
// save is guaranteed to advance the mtime past the poller's baseline even
// when both land within the same coarse kernel clock tick.
func backdate(t *testing.T, path string) {
	t.Helper()
	past := time.Now().Add(-2 * time.Second)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
}

func TestMonitoringDetectsExternalWriter(t *testing.T) {
	path := testsupport.WorkspacePath(t)
	observer := testsupport.MustOpenStore(t, path, workspace.Options{})
	writer := testsupport.MustOpenStore(t, path, workspace.Options{})
	backdate(t, path)

	updates := make(chan []string, 16)
	observer.AddChangeCallback(func(ids []string) {
		updates <- ids
	})
	observer.StartMonitoring(20 * time.Millisecond)
	defer observer.StopMonitoring()

	addItem(t, writer, "external")

	select {
	case ids := <-updates:
		if len(ids) != 1 || ids[0] != "external" {
			t.Fatalf("notified ids = %v, want [external]", ids)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("external write never detected")
	}

	// The observer's reload must see the writer's item.
	doc, err := observer.Document(context.Background(), true)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if _, ok := doc.Items.Get("external"); !ok {
		t.Fatal("externally added item not visible after reload")
	}
}

func TestMonitoringIgnoresOwnSaves(t *testing.T) {
	store := testsupport.NewStore(t)

	addItem(t, store, "mine")

	updates := make(chan []string, 16)
	store.StartMonitoring(20 * time.Millisecond)
	defer store.StopMonitoring()
	store.AddChangeCallback(func(ids []string) {
		updates <- ids
	})

	if _, err := store.MarkCompleted(context.Background(), "mine", "desc", time.Second, nil); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	// One synchronous notification from the mutation itself; the poller must
	// stay quiet because the store made the write.
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("mutation did not notify")
	}
	select {
	case ids := <-updates:
		t.Fatalf("poller fired for the store's own save: %v", ids)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestStopMonitoringHaltsPolling(t *testing.T) {
	path := testsupport.WorkspacePath(t)
	observer := testsupport.MustOpenStore(t, path, workspace.Options{})
	writer := testsupport.MustOpenStore(t, path, workspace.Options{})
	backdate(t, path)

	updates := make(chan []string, 16)
	observer.AddChangeCallback(func(ids []string) {
		updates <- ids
	})
	observer.StartMonitoring(20 * time.Millisecond)
	observer.StopMonitoring()

	addItem(t, writer, "after-stop")

	select {
	case ids := <-updates:
		t.Fatalf("stopped poller delivered %v", ids)
	case <-time.After(150 * time.Millisecond):
	}
}
