// Package app coordinates the taskbar auto-hide flag between the tray menu,
// the global hotkey and the liveness watchdog. The Controller owns the only
// in-process copy of the flag and is the single place it is changed.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vakulenko-g-o/taskbar-control/internal/scheduler"
)

// ErrPresentationSetup wraps a tray construction failure. It is fatal.
var ErrPresentationSetup = errors.New("presentation setup failed")

// Shell reads and writes the OS auto-hide flag.
type Shell interface {
	Query() bool
	Set(enabled bool) bool
}

// Presenter displays the state and runs the event loop.
type Presenter interface {
	Build(autohide bool, onToggle func(want bool), onQuit func()) error
	Refresh(autohide bool)
	Run() error
	Stop()
}

// HotkeyWatcher owns the global hotkey worker.
type HotkeyWatcher interface {
	Start(combo string, onTrigger func()) error
	CheckLiveness()
	Stop()
	Wait(timeout time.Duration) bool
}

// Source names where a toggle request came from.
type Source string

const (
	SourceMenu   Source = "menu"
	SourceHotkey Source = "hotkey"
	SourceAPI    Source = "api"
)

// Options are the controller's tunables.
type Options struct {
	Hotkey           string
	LivenessInterval time.Duration
	JoinTimeout      time.Duration
	// ForceExitAfter bounds how long Run may stay in the event loop once
	// shutdown has begun. When it elapses Exit is called with code 1.
	// Zero or a nil Exit disables the timer.
	ForceExitAfter time.Duration
	Exit           func(code int)
}

// Controller drives startup, toggling and shutdown.
type Controller struct {
	opts      Options
	shell     Shell
	presenter Presenter
	watcher   HotkeyWatcher
	logger    *zap.Logger

	mu       sync.Mutex
	autohide bool
	// rendered mirrors autohide for lock-free readers. It is published after
	// every successful mutation.
	rendered atomic.Bool

	status   statusGate
	watchdog *scheduler.Scheduler
	stopped  chan struct{}

	exitMu    sync.Mutex
	exitTimer *time.Timer
	returned  bool
}

// New wires a controller. Nothing touches the OS until Run.
func New(opts Options, shell Shell, presenter Presenter, watcher HotkeyWatcher, logger *zap.Logger) *Controller {
	c := &Controller{
		opts:      opts,
		shell:     shell,
		presenter: presenter,
		watcher:   watcher,
		logger:    logger,
		stopped:   make(chan struct{}),
	}
	c.watchdog = scheduler.New("hotkey-liveness", opts.LivenessInterval, func(context.Context) {
		c.watcher.CheckLiveness()
	}, logger)
	return c
}

// Run performs startup and blocks in the presenter's event loop until the
// controller is shut down. It returns ErrPresentationSetup if the tray could
// not be built; every other failure is logged and recovered.
func (c *Controller) Run(ctx context.Context) error {
	defer c.disarmForceExit()

	if c.status.load() != Running {
		c.logger.Warn("Run called after shutdown began", zap.Stringer("status", c.status.load()))
		<-c.stopped
		return nil
	}

	initial := c.shell.Query()
	c.mu.Lock()
	c.autohide = initial
	c.rendered.Store(initial)
	c.mu.Unlock()

	if err := c.presenter.Build(initial, c.onMenuToggle, c.onMenuQuit); err != nil {
		c.logger.Error("Failed to setup tray", zap.Error(err))
		c.Shutdown("presentation setup failure")
		return fmt.Errorf("%w: %v", ErrPresentationSetup, err)
	}

	if err := c.watcher.Start(c.opts.Hotkey, c.onHotkey); err != nil {
		c.logger.Warn("Hotkey not active yet", zap.String("hotkey", c.opts.Hotkey), zap.Error(err))
	}

	c.watchdog.Start(ctx)

	go func() {
		select {
		case <-ctx.Done():
			c.Shutdown("context cancelled")
		case <-c.stopped:
		}
	}()

	c.logger.Info("TaskbarController initialized",
		zap.String("hotkey", c.opts.Hotkey),
		zap.Bool("autohide", initial),
		zap.Stringer("status", c.status.load()))

	if err := c.presenter.Run(); err != nil {
		c.logger.Error("Tray event loop failed", zap.Error(err))
		c.Shutdown("event loop failure")
		<-c.stopped
		return fmt.Errorf("%w: %v", ErrPresentationSetup, err)
	}

	// The loop can also end on its own (e.g. the shell restarted).
	c.Shutdown("event loop exited")
	<-c.stopped
	return nil
}

// Toggle flips the auto-hide flag. It reports whether the OS accepted the
// change; during shutdown it returns false without touching the OS.
func (c *Controller) Toggle(src Source) bool {
	return c.mutate(src, func(cur bool) (bool, bool) { return !cur, true })
}

// ToggleTo requests a specific flag value. If the cached flag already holds
// want, the request is satisfied without an OS call.
func (c *Controller) ToggleTo(src Source, want bool) bool {
	return c.mutate(src, func(cur bool) (bool, bool) { return want, cur != want })
}

// mutate is the single serialization point for the flag. The lock covers the
// OS call so two requests can never act on the same "before" value.
func (c *Controller) mutate(src Source, decide func(cur bool) (desired bool, needed bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.status.load(); st != Running {
		c.logger.Info("Toggle ignored during shutdown",
			zap.String("source", string(src)),
			zap.Stringer("status", st))
		return false
	}

	desired, needed := decide(c.autohide)
	if !needed {
		c.logger.Info("Toggle already satisfied",
			zap.String("source", string(src)),
			zap.Bool("autohide", c.autohide))
		return true
	}

	c.logger.Info("Toggling taskbar auto-hide",
		zap.String("source", string(src)),
		zap.Bool("desired", desired))

	if !c.shell.Set(desired) {
		c.logger.Error("Failed to toggle taskbar",
			zap.String("source", string(src)),
			zap.Bool("desired", desired),
			zap.Bool("autohide", c.autohide))
		return false
	}

	c.autohide = desired
	c.rendered.Store(desired)
	c.presenter.Refresh(desired)
	c.logger.Info("Taskbar state changed", zap.Bool("autohide", desired))
	return true
}

// Autohide returns the cached flag.
func (c *Controller) Autohide() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autohide
}

// Status returns the lifecycle status.
func (c *Controller) Status() Status {
	return c.status.load()
}

// Done is closed once shutdown has completed.
func (c *Controller) Done() <-chan struct{} {
	return c.stopped
}

// Shutdown runs the cleanup sequence exactly once. Later calls, including
// ones arriving while cleanup is still in progress, return immediately.
func (c *Controller) Shutdown(reason string) {
	if !c.status.advance(Running, Stopping) {
		c.logger.Info("Shutdown already in progress",
			zap.String("reason", reason),
			zap.Stringer("status", c.status.load()))
		return
	}
	c.logger.Info("Application shutdown initiated",
		zap.String("reason", reason),
		zap.Stringer("status", Stopping))
	c.armForceExit()

	failed := 0
	step := func(name string, fn func()) {
		defer func() {
			if r := recover(); r != nil {
				failed++
				c.logger.Error("Cleanup step failed", zap.String("step", name), zap.Any("panic", r))
			}
		}()
		fn()
	}

	step("watchdog", c.watchdog.Stop)
	step("hotkey", c.watcher.Stop)
	step("tray", c.presenter.Stop)
	step("join", func() {
		if !c.watcher.Wait(c.opts.JoinTimeout) {
			c.logger.Warn("Hotkey worker did not exit in time",
				zap.Duration("timeout", c.opts.JoinTimeout))
		}
	})

	c.status.advance(Stopping, Stopped)
	close(c.stopped)

	if failed > 0 {
		c.logger.Error("Cleanup completed with errors", zap.Int("failed_steps", failed))
		return
	}
	c.logger.Info("Cleanup completed successfully", zap.Stringer("status", Stopped))
}

// armForceExit starts the timer that ends the process if Run is still
// blocked in the event loop after ForceExitAfter.
func (c *Controller) armForceExit() {
	if c.opts.ForceExitAfter <= 0 || c.opts.Exit == nil {
		return
	}
	c.exitMu.Lock()
	defer c.exitMu.Unlock()
	if c.returned || c.exitTimer != nil {
		return
	}
	d := c.opts.ForceExitAfter
	c.exitTimer = time.AfterFunc(d, func() {
		c.exitMu.Lock()
		returned := c.returned
		c.exitMu.Unlock()
		if returned {
			return
		}
		c.logger.Error("Event loop did not exit in time, forcing exit", zap.Duration("after", d))
		c.opts.Exit(1)
	})
}

func (c *Controller) disarmForceExit() {
	c.exitMu.Lock()
	defer c.exitMu.Unlock()
	c.returned = true
	if c.exitTimer != nil {
		c.exitTimer.Stop()
	}
}

func (c *Controller) onMenuToggle(want bool) {
	c.ToggleTo(SourceMenu, want)
}

func (c *Controller) onMenuQuit() {
	c.Shutdown("quit menu")
}

// onHotkey captures its intent from the published state at fire time, so a
// press that lands while another toggle is in flight does not undo it.
func (c *Controller) onHotkey() {
	c.ToggleTo(SourceHotkey, !c.rendered.Load())
}
