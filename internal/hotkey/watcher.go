package hotkey

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned when starting a watcher that was already stopped.
var ErrStopped = errors.New("hotkey watcher stopped")

// Config controls worker supervision.
type Config struct {
	// Heartbeat is how often an idle worker reports that it is alive.
	Heartbeat time.Duration
	// StaleAfter is how old the last heartbeat may be before the worker is
	// considered unresponsive.
	StaleAfter time.Duration
}

// DefaultConfig returns the default supervision settings.
func DefaultConfig() Config {
	return Config{
		Heartbeat:  1 * time.Second,
		StaleAfter: 3 * time.Second,
	}
}

// Watcher owns the hotkey registration and its background worker.
type Watcher struct {
	binder Binder
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	combo     Combo
	onTrigger func()
	cur       *worker
	retired   []*worker // superseded workers that may still be inside onTrigger
	started   bool
	stopped   bool
}

// NewWatcher creates a watcher that registers through binder.
func NewWatcher(binder Binder, cfg Config, logger *zap.Logger) *Watcher {
	return &Watcher{
		binder: binder,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers combo and begins a worker that calls onTrigger, on the
// worker goroutine, every time the combination fires. A registration failure
// is returned but the watcher stays armed: the next CheckLiveness retries.
func (w *Watcher) Start(combo string, onTrigger func()) error {
	c, err := ParseCombo(combo)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	if w.started {
		return fmt.Errorf("hotkey watcher already started with %s", w.combo)
	}
	w.combo = c
	w.onTrigger = onTrigger
	w.started = true

	if err := w.bindLocked(); err != nil {
		w.logger.Error("Failed to register hotkey, retrying on next liveness check",
			zap.String("hotkey", c.String()),
			zap.Error(err))
		return fmt.Errorf("registering hotkey %s: %w", c, err)
	}
	w.logger.Info("Hotkey registered", zap.String("hotkey", c.String()))
	return nil
}

// CheckLiveness verifies the worker is responsive and re-registers the
// combination if it is not. Each detected failure produces one
// re-registration attempt and one log entry.
func (w *Watcher) CheckLiveness() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || !w.started {
		return
	}

	var reason string
	switch {
	case w.cur == nil:
		reason = "not registered"
	case w.cur.exited():
		reason = "worker exited"
	case w.cur.stale(time.Now(), w.cfg.StaleAfter):
		reason = "heartbeat stale"
	default:
		return
	}

	if w.cur != nil {
		w.cur.stop(w.logger)
		w.retireLocked(w.cur)
		w.cur = nil
	}

	if err := w.bindLocked(); err != nil {
		w.logger.Error("Failed to re-register hotkey",
			zap.String("hotkey", w.combo.String()),
			zap.String("reason", reason),
			zap.Error(err))
		return
	}
	w.logger.Info("Hotkeys re-registered successfully",
		zap.String("hotkey", w.combo.String()),
		zap.String("reason", reason))
}

// Stop unregisters the binding and tells the worker to exit. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	if w.cur != nil {
		w.cur.stop(w.logger)
	}
	w.logger.Info("Hotkey watcher stopped")
}

// Wait blocks until the current worker and every worker it superseded have
// exited, or timeout elapses. It reports whether all of them exited.
func (w *Watcher) Wait(timeout time.Duration) bool {
	w.mu.Lock()
	workers := append([]*worker(nil), w.retired...)
	if w.cur != nil {
		workers = append(workers, w.cur)
	}
	w.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for _, wk := range workers {
		select {
		case <-wk.done:
		case <-timer.C:
			return false
		}
	}
	return true
}

// Alive reports whether a worker is registered and responsive.
func (w *Watcher) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cur != nil && !w.cur.exited() && !w.cur.stale(time.Now(), w.cfg.StaleAfter)
}

// Combo returns the parsed combination, zero before Start.
func (w *Watcher) Combo() Combo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.combo
}

// retireLocked keeps wk for Wait until it exits. Must be called with w.mu held.
func (w *Watcher) retireLocked(wk *worker) {
	live := w.retired[:0]
	for _, r := range w.retired {
		if !r.exited() {
			live = append(live, r)
		}
	}
	if !wk.exited() {
		live = append(live, wk)
	}
	w.retired = live
}

// bindLocked must be called with w.mu held.
func (w *Watcher) bindLocked() error {
	b, err := w.binder.Bind(w.combo)
	if err != nil {
		return err
	}
	wk := &worker{
		binding: b,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	wk.touch()
	w.cur = wk
	go wk.run(w.onTrigger, w.cfg.Heartbeat, w.logger)
	return nil
}

type worker struct {
	binding  Binding
	quit     chan struct{}
	done     chan struct{}
	beat     atomic.Int64
	stopOnce sync.Once
}

func (wk *worker) touch() {
	wk.beat.Store(time.Now().UnixNano())
}

func (wk *worker) exited() bool {
	select {
	case <-wk.done:
		return true
	default:
		return false
	}
}

func (wk *worker) stale(now time.Time, after time.Duration) bool {
	return now.Sub(time.Unix(0, wk.beat.Load())) > after
}

func (wk *worker) stop(logger *zap.Logger) {
	wk.stopOnce.Do(func() {
		close(wk.quit)
		if err := wk.binding.Unregister(); err != nil {
			logger.Warn("Failed to unregister hotkey", zap.Error(err))
		}
	})
}

func (wk *worker) run(onTrigger func(), heartbeat time.Duration, logger *zap.Logger) {
	defer close(wk.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Hotkey worker panicked", zap.Any("panic", r))
		}
	}()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	keydown := wk.binding.Keydown()
	for {
		select {
		case <-wk.quit:
			return
		case <-ticker.C:
			wk.touch()
		case _, ok := <-keydown:
			if !ok {
				logger.Warn("Hotkey event stream closed")
				return
			}
			wk.touch()
			if onTrigger != nil {
				onTrigger()
			}
			wk.touch()
		}
	}
}
