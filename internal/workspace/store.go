package workspace

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"mediascribe/internal/logging"
)

// Options configures a Store.
type Options struct {
	// Logger receives structured store events; nil means silent.
	Logger *slog.Logger
	// LockTimeout bounds each save's wait for exclusive access.
	LockTimeout time.Duration
	// FallbackLocking selects the existence-based lock strategy instead
	// of the OS advisory primitive. The fallback provides no real
	// cross-process mutual exclusion.
	FallbackLocking bool
	// SourceDirectory, ProcessingMode, and Processing seed the document
	// created when the file does not exist yet.
	SourceDirectory string
	ProcessingMode  string
	Processing      ProcessingConfig
}

// Store is the facade the pipeline drives: item registration, lifecycle
// transitions, resume planning, and change notification over one durable
// workspace document. All mutating operations are serialized by a single
// in-process lock; cross-process ordering relies on the FileLock alone.
type Store struct {
	path     string
	logger   *slog.Logger
	file     *documentFile
	notifier *changeNotifier

	mu sync.Mutex
	// monitorMtime is the last modification time the poller has accounted
	// for; saves made through this store advance it so the poller only
	// fires for external writers.
	monitorMtime time.Time
}

// Open opens the workspace document at path, creating an empty document if
// the file does not exist.
func Open(path string, opts Options) (*Store, error) {
	resolved, err := NormalizePath(path)
	if err != nil {
		return nil, &FormatError{Op: "resolve workspace path", Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workspace")

	var lock *FileLock
	if opts.FallbackLocking {
		lock = NewFallbackFileLock(LockPath(resolved), logger)
	} else {
		lock = NewFileLock(LockPath(resolved), logger)
	}

	s := &Store{
		path:     resolved,
		logger:   logger,
		file:     newDocumentFile(resolved, lock, opts.LockTimeout, logger),
		notifier: newChangeNotifier(logger),
	}

	if !s.file.exists() {
		doc := NewDocument(opts.SourceDirectory, opts.ProcessingMode, opts.Processing)
		if err := s.file.save(context.Background(), doc); err != nil {
			return nil, err
		}
		logger.Info("created workspace document",
			logging.String("path", resolved),
			logging.String("batch_id", doc.WorkflowProgress.BatchID))
	}

	return s, nil
}

// Path returns the resolved absolute path of the primary document.
func (s *Store) Path() string { return s.path }

// Close stops background monitoring. The document itself needs no teardown.
func (s *Store) Close() error {
	s.StopMonitoring()
	return nil
}

// mutate loads the document, applies fn, recomputes derived state, saves
// once, and notifies observers. fn returns the changed item ids; a nil
// slice means nothing changed and nothing is written. Observers run after
// the facade lock is released so a callback may read back through the
// store without deadlocking.
func (s *Store) mutate(ctx context.Context, fn func(doc *Document) ([]string, error)) error {
	changed, err := s.applyLocked(ctx, fn)
	if err != nil {
		return err
	}
	if len(changed) > 0 {
		s.notifier.notify(changed)
	}
	return nil
}

func (s *Store) applyLocked(ctx context.Context, fn func(doc *Document) ([]string, error)) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.file.load(true)
	if err != nil {
		return nil, err
	}

	changed, err := fn(doc)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, nil
	}

	recomputeDerived(doc)
	if err := s.file.save(ctx, doc); err != nil {
		// The cached document was mutated in place; drop it so the next
		// load re-reads the last durable state.
		s.file.invalidate()
		return nil, err
	}
	s.monitorMtime = s.file.cachedMtime
	return changed, nil
}

// AddItem registers a unit of work. It is an idempotent upsert keyed by
// ItemID: re-adding an id resets the item to a fresh attempt, and progress
// counters are recomputed within the same save.
func (s *Store) AddItem(ctx context.Context, item Item) error {
	if item.ItemID == "" {
		return errors.New("item id is required")
	}
	return s.mutate(ctx, func(doc *Document) ([]string, error) {
		item.Description = ""
		item.ProcessingInfo = ProcessingInfo{
			Status:     StatusNotStarted,
			SourceType: item.ProcessingInfo.SourceType,
		}
		stored := item
		doc.Items.Set(&stored)
		return []string{item.ItemID}, nil
	})
}

// MarkProcessing flags an item as in flight. It returns false without error
// when the id is unknown or the item is already terminal.
func (s *Store) MarkProcessing(ctx context.Context, itemID string) (bool, error) {
	return s.transition(ctx, itemID, func(doc *Document, item *Item) bool {
		if item.ProcessingInfo.Status.IsTerminal() {
			return false
		}
		item.ProcessingInfo.Status = StatusProcessing
		return true
	})
}

// MarkCompleted records a successful description. Unknown ids and items
// already in a terminal state return false without error, tolerating a
// caller racing ahead of an unflushed AddItem. metadata, when non-nil,
// overlays its non-zero fields onto the stored item.
func (s *Store) MarkCompleted(ctx context.Context, itemID, description string, processingTime time.Duration, metadata *ItemMetadata) (bool, error) {
	return s.transition(ctx, itemID, func(doc *Document, item *Item) bool {
		if item.ProcessingInfo.Status.IsTerminal() {
			return false
		}
		now := time.Now().UTC()
		ms := processingTime.Milliseconds()

		item.Description = description
		item.ProcessingInfo.Status = StatusCompleted
		item.ProcessingInfo.ProcessedAt = &now
		item.ProcessingInfo.ProcessingTimeMs = ms
		item.ProcessingInfo.ErrorMessage = ""
		if metadata != nil {
			item.Metadata.merge(*metadata)
		}

		doc.WorkflowProgress.LastProcessed = itemID
		doc.BatchStatistics.recordTiming(countStatus(doc, StatusCompleted), ms)
		return true
	})
}

// MarkFailed records a failure, classifying the message into one coarse
// error bucket. Unknown ids and terminal items return false without error.
func (s *Store) MarkFailed(ctx context.Context, itemID, errorMessage string) (bool, error) {
	return s.transition(ctx, itemID, func(doc *Document, item *Item) bool {
		if item.ProcessingInfo.Status.IsTerminal() {
			return false
		}
		now := time.Now().UTC()

		item.ProcessingInfo.Status = StatusFailed
		item.ProcessingInfo.ProcessedAt = &now
		item.ProcessingInfo.ErrorMessage = errorMessage

		doc.WorkflowProgress.LastProcessed = itemID
		bucket := doc.BatchStatistics.recordError(errorMessage)
		s.logger.Debug("item failed",
			logging.String("item_id", itemID),
			logging.String("error_bucket", bucket))
		return true
	})
}

// MarkSkipped excludes an item from the batch. Skipping is only legal from
// the not-started state; anything else returns false without error.
func (s *Store) MarkSkipped(ctx context.Context, itemID string) (bool, error) {
	return s.transition(ctx, itemID, func(doc *Document, item *Item) bool {
		if item.ProcessingInfo.Status != StatusNotStarted {
			return false
		}
		item.ProcessingInfo.Status = StatusSkipped
		return true
	})
}

// transition applies fn to one item and saves when fn reports a change.
// Missing ids are recovered locally as false: a benign race with an
// unflushed AddItem, not a crash. Genuine caller bugs (typo'd ids) are
// swallowed by the same path, so the miss is logged at debug level.
func (s *Store) transition(ctx context.Context, itemID string, fn func(doc *Document, item *Item) bool) (bool, error) {
	applied := false
	err := s.mutate(ctx, func(doc *Document) ([]string, error) {
		item, ok := doc.Items.Get(itemID)
		if !ok {
			s.logger.Debug("transition on unknown item id", logging.String("item_id", itemID))
			return nil, nil
		}
		if !fn(doc, item) {
			s.logger.Debug("transition rejected",
				logging.String("item_id", itemID),
				logging.String("status", string(item.ProcessingInfo.Status)))
			return nil, nil
		}
		applied = true
		return []string{itemID}, nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ResumeCheckpoint returns the first item, in insertion order, that still
// needs work. A processing item here means the previous run died mid-item;
// it is reprocessed from scratch. ok is false when every item is terminal.
func (s *Store) ResumeCheckpoint(ctx context.Context) (itemID string, ok bool, err error) {
	doc, err := s.loadShared()
	if err != nil {
		return "", false, err
	}
	doc.Items.Walk(func(item *Item) bool {
		if !item.ProcessingInfo.Status.IsTerminal() {
			itemID = item.ItemID
			ok = true
			return false
		}
		return true
	})
	return itemID, ok, nil
}

// RemainingItems returns every non-terminal item id in insertion order,
// letting a resuming driver pre-size the run.
func (s *Store) RemainingItems(ctx context.Context) ([]string, error) {
	doc, err := s.loadShared()
	if err != nil {
		return nil, err
	}
	var remaining []string
	doc.Items.Walk(func(item *Item) bool {
		if !item.ProcessingInfo.Status.IsTerminal() {
			remaining = append(remaining, item.ItemID)
		}
		return true
	})
	return remaining, nil
}

// Document returns a deep copy of the current document. useCache=false
// forces a re-read from disk regardless of modification time.
func (s *Store) Document(ctx context.Context, useCache bool) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.file.load(useCache)
	if err != nil {
		return nil, err
	}
	return doc.Clone()
}

// Progress returns the current workflow counters.
func (s *Store) Progress(ctx context.Context) (WorkflowProgress, error) {
	doc, err := s.loadShared()
	if err != nil {
		return WorkflowProgress{}, err
	}
	return doc.WorkflowProgress, nil
}

func (s *Store) loadShared() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.load(true)
}

// AddChangeCallback registers an observer invoked with the item ids each
// successful mutation changed. Observers run outside the facade lock and may
// call back into the store.
func (s *Store) AddChangeCallback(fn ChangeCallback) {
	s.notifier.addCallback(fn)
}

// StartMonitoring begins polling the file's modification time every
// interval to detect writers in other processes. When the mtime advances,
// the document is force-reloaded and observers receive the entire item-id
// set: the store cannot know which subset the other process changed, so the
// notification is deliberately coarse.
func (s *Store) StartMonitoring(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	s.mu.Lock()
	if mtime, ok := s.file.modTime(); ok {
		s.monitorMtime = mtime
	}
	s.mu.Unlock()
	s.notifier.start(interval, s.pollExternalChange)
}

// StopMonitoring signals the polling task and waits for it to exit. A
// never-stopped task does not block process shutdown.
func (s *Store) StopMonitoring() {
	s.notifier.stopMonitoring()
}

func (s *Store) pollExternalChange() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return nil
	}
	if !info.ModTime().After(s.monitorMtime) {
		return nil
	}
	s.monitorMtime = info.ModTime()

	doc, err := s.file.load(false)
	if err != nil {
		s.logger.Warn("failed to reload externally modified document",
			logging.String(logging.FieldEventType, "monitor_reload_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "observers were not notified of the change"))
		return nil
	}
	return doc.Items.IDs()
}

// recomputeDerived rebuilds every derived field from the item map so the
// progress invariants hold after each mutation: total_files equals the item
// count and completed_files equals the completed-status count.
func recomputeDerived(doc *Document) {
	progress := &doc.WorkflowProgress

	progress.TotalFiles = doc.Items.Len()
	progress.CompletedFiles = countStatus(doc, StatusCompleted)
	progress.FailedFiles = countStatus(doc, StatusFailed)
	progress.SkippedFiles = countStatus(doc, StatusSkipped)

	progress.ResumeCheckpoint = ""
	doc.Items.Walk(func(item *Item) bool {
		if !item.ProcessingInfo.Status.IsTerminal() {
			progress.ResumeCheckpoint = item.ItemID
			return false
		}
		return true
	})
	progress.IsComplete = progress.TotalFiles > 0 && progress.ResumeCheckpoint == ""

	filesByType := make(map[string]int, len(doc.BatchStatistics.FilesByType))
	doc.Items.Walk(func(item *Item) bool {
		filesByType[fileTypeKey(item.OriginalFile)]++
		return true
	})
	doc.BatchStatistics.FilesByType = filesByType
}

func countStatus(doc *Document, status Status) int {
	count := 0
	doc.Items.Walk(func(item *Item) bool {
		if item.ProcessingInfo.Status == status {
			count++
		}
		return true
	})
	return count
}
