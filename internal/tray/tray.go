// Package tray implements the system tray icon, its menu and the
// presentation event loop on top of getlantern/systray.
package tray

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vakulenko-g-o/taskbar-control/internal/tray/view"
)

// ErrNotBuilt is returned by Run when Build has not succeeded.
var ErrNotBuilt = errors.New("tray not built")

// ErrNotReady is returned by Run when the icon never appeared.
var ErrNotReady = errors.New("tray did not become ready")

// DefaultReadyTimeout bounds how long Run waits for the icon to appear.
const DefaultReadyTimeout = 10 * time.Second

// Presenter owns the tray icon. Menu callbacks are invoked one at a time on
// the presenter's click loop.
type Presenter struct {
	catalog      view.Catalog
	hotkey       string
	logger       *zap.Logger
	backend      backend
	readyTimeout time.Duration

	mu       sync.Mutex
	icon     []byte
	menu     view.Menu
	tooltip  string
	onToggle func(want bool)
	onQuit   func()
	built    bool
	ready    bool
	stopped  bool
	timedOut bool

	toggleItem menuItem
	quitItem   menuItem

	quitOnce sync.Once
	closing  chan struct{}
}

// New creates a presenter rendering with catalog and showing hotkey in the
// tooltip.
func New(catalog view.Catalog, hotkey string, logger *zap.Logger) *Presenter {
	return &Presenter{
		catalog:      catalog,
		hotkey:       hotkey,
		logger:       logger,
		backend:      systrayBackend{},
		readyTimeout: DefaultReadyTimeout,
		closing:      make(chan struct{}),
	}
}

// Build prepares the icon, menu and tooltip for the initial state and wires
// the menu entries to the given callbacks.
func (p *Presenter) Build(autohide bool, onToggle func(want bool), onQuit func()) error {
	icon, err := view.IconICO()
	if err != nil {
		return err
	}
	if len(icon) == 0 {
		return fmt.Errorf("tray icon is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.icon = icon
	p.menu = p.catalog.Render(autohide)
	p.tooltip = p.catalog.Tooltip(autohide, p.hotkey)
	p.onToggle = onToggle
	p.onQuit = onQuit
	p.built = true

	p.logger.Info("Tray icon setup completed", zap.String("label", p.menu.ToggleLabel))
	return nil
}

// Refresh re-renders the toggle label and tooltip in place.
func (p *Presenter) Refresh(autohide bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.menu = p.catalog.Render(autohide)
	p.tooltip = p.catalog.Tooltip(autohide, p.hotkey)
	if !p.ready {
		return
	}
	p.toggleItem.SetTitle(p.menu.ToggleLabel)
	p.backend.SetTooltip(p.tooltip)
}

// Run enters the tray event loop and blocks until Stop is called. It must be
// called from the main goroutine. It returns ErrNotReady if the loop ended,
// or was ended after the ready timeout, without the icon ever appearing.
func (p *Presenter) Run() error {
	p.mu.Lock()
	if !p.built {
		p.mu.Unlock()
		return ErrNotBuilt
	}
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	timeout := p.readyTimeout
	p.mu.Unlock()

	deadline := time.AfterFunc(timeout, p.readyExpired)
	p.backend.Run(p.onReady, p.onExit)
	deadline.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.timedOut:
		return fmt.Errorf("%w within %s", ErrNotReady, timeout)
	case !p.ready && !p.stopped:
		return fmt.Errorf("%w: event loop exited before the icon was shown", ErrNotReady)
	}
	return nil
}

// readyExpired ends a loop that has not shown the icon in time.
func (p *Presenter) readyExpired() {
	p.mu.Lock()
	if p.ready {
		p.mu.Unlock()
		return
	}
	stopped := p.stopped
	if !stopped {
		p.timedOut = true
	}
	p.mu.Unlock()

	if !stopped {
		p.logger.Error("Tray icon did not appear in time", zap.Duration("timeout", p.readyTimeout))
	}
	p.backend.Quit()
}

// Stop ends the event loop. Safe to call more than once and from any goroutine.
func (p *Presenter) Stop() {
	p.quitOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		ready := p.ready
		p.mu.Unlock()

		close(p.closing)
		if ready {
			p.backend.Quit()
		}
	})
}

// Menu returns the currently rendered menu.
func (p *Presenter) Menu() view.Menu {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.menu
}

// Tooltip returns the currently rendered tooltip.
func (p *Presenter) Tooltip() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tooltip
}

func (p *Presenter) onReady() {
	p.mu.Lock()
	if p.timedOut {
		p.mu.Unlock()
		return
	}
	p.backend.SetIcon(p.icon)
	p.backend.SetTitle(p.catalog.Title)
	p.backend.SetTooltip(p.tooltip)
	p.toggleItem = p.backend.AddMenuItem(p.menu.ToggleLabel)
	p.quitItem = p.backend.AddMenuItem(p.menu.QuitLabel)
	p.ready = true
	stopped := p.stopped
	p.mu.Unlock()

	// Stop raced ahead of the loop becoming ready.
	if stopped {
		p.backend.Quit()
		return
	}

	go p.handleClicks()
}

func (p *Presenter) onExit() {
	p.logger.Info("Tray event loop exited")
}

func (p *Presenter) handleClicks() {
	for {
		select {
		case <-p.closing:
			return
		case <-p.toggleItem.Clicked():
			p.mu.Lock()
			want := p.menu.ToggleWant
			fn := p.onToggle
			p.mu.Unlock()
			if fn != nil {
				fn(want)
			}
		case <-p.quitItem.Clicked():
			p.mu.Lock()
			fn := p.onQuit
			p.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}
}
