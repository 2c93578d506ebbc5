package workspace

import (
	"log/slog"
	"sync"
	"time"

	"mediascribe/internal/logging"
)

// ChangeCallback receives the ids of items affected by a mutation.
type ChangeCallback func(itemIDs []string)

// changeNotifier fans mutations out to registered observers and runs the
// background poller that detects edits made by other processes.
type changeNotifier struct {
	logger *slog.Logger

	mu         sync.Mutex
	callbacks  []ChangeCallback
	stop       chan struct{}
	monitoring bool
	wg         sync.WaitGroup
}

func newChangeNotifier(logger *slog.Logger) *changeNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &changeNotifier{logger: logging.NewComponentLogger(logger, "notifier")}
}

func (n *changeNotifier) addCallback(fn ChangeCallback) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.callbacks = append(n.callbacks, fn)
}

// notify invokes every observer with the changed item ids. An observer
// panic is recovered and logged so one broken observer cannot break the
// mutator that triggered it.
func (n *changeNotifier) notify(itemIDs []string) {
	if len(itemIDs) == 0 {
		return
	}
	n.mu.Lock()
	callbacks := make([]ChangeCallback, len(n.callbacks))
	copy(callbacks, n.callbacks)
	n.mu.Unlock()

	for _, cb := range callbacks {
		n.invoke(cb, itemIDs)
	}
}

func (n *changeNotifier) invoke(cb ChangeCallback, itemIDs []string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("change callback panicked",
				logging.String(logging.FieldEventType, "change_callback_panic"),
				logging.Any("panic", r),
				logging.String(logging.FieldImpact, "other observers were still notified"))
		}
	}()
	cb(itemIDs)
}

// start launches the polling task. check runs once per interval and returns
// the ids to broadcast, or nil when nothing changed. Starting an already
// running notifier is a no-op.
func (n *changeNotifier) start(interval time.Duration, check func() []string) {
	n.mu.Lock()
	if n.monitoring {
		n.mu.Unlock()
		return
	}
	n.monitoring = true
	n.stop = make(chan struct{})
	stop := n.stop
	n.mu.Unlock()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if ids := check(); len(ids) > 0 {
					n.notify(ids)
				}
			}
		}
	}()
}

// stopMonitoring signals the polling task and waits for it to exit.
func (n *changeNotifier) stopMonitoring() {
	n.mu.Lock()
	if !n.monitoring {
		n.mu.Unlock()
		return
	}
	n.monitoring = false
	close(n.stop)
	n.mu.Unlock()
	n.wg.Wait()
}
