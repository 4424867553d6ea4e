package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiryWatcher periodically re-checks the stored token, so a long-running
// portal ends a session whose token expired and picks up logins and logouts
// made by other clients sharing its storage.
type ExpiryWatcher struct {
	Session  *SessionStore
	Logger   *slog.Logger
	Interval time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewExpiryWatcher creates a watcher. If interval is 0 or negative, defaults
// to 30 seconds.
func NewExpiryWatcher(session *SessionStore, logger *slog.Logger, interval time.Duration) *ExpiryWatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &ExpiryWatcher{
		Session:  session,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Starting twice, or after Stop, is a
// no-op.
func (w *ExpiryWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true

	go w.run()
	w.Logger.Debug("expiry watcher started", "interval", w.Interval)
}

// Stop shuts down the worker and waits for it to exit. It is safe to call
// more than once and on a watcher that was never started.
func (w *ExpiryWatcher) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.stopCh)
	}
	started := w.started
	w.mu.Unlock()

	if started {
		<-w.doneCh
		w.Logger.Debug("expiry watcher stopped")
	}
}

func (w *ExpiryWatcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Session.RefreshFromStorage(context.Background())
		case <-w.stopCh:
			return
		}
	}
}
