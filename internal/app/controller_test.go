package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vakulenko-g-o/taskbar-control/internal/platform"
	"github.com/vakulenko-g-o/taskbar-control/internal/tray/view"
)

const testHotkey = "ctrl+alt+t"

// fakePresenter renders like the tray but runs no OS event loop.
type fakePresenter struct {
	catalog view.Catalog

	mu         sync.Mutex
	menu       view.Menu
	tooltip    string
	onToggle   func(want bool)
	onQuit     func()
	refreshes  int
	stops      int
	buildErr   error
	runErr     error
	stopPanics bool

	built    chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{
		catalog: view.ResolveLocale("en"),
		built:   make(chan struct{}),
		stopCh:  make(chan struct{}),
	}
}

func (p *fakePresenter) Build(autohide bool, onToggle func(bool), onQuit func()) error {
	if p.buildErr != nil {
		return p.buildErr
	}
	p.mu.Lock()
	p.menu = p.catalog.Render(autohide)
	p.tooltip = p.catalog.Tooltip(autohide, testHotkey)
	p.onToggle, p.onQuit = onToggle, onQuit
	p.mu.Unlock()
	close(p.built)
	return nil
}

func (p *fakePresenter) Refresh(autohide bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes++
	p.menu = p.catalog.Render(autohide)
	p.tooltip = p.catalog.Tooltip(autohide, testHotkey)
}

func (p *fakePresenter) Run() error {
	if p.runErr != nil {
		return p.runErr
	}
	<-p.stopCh
	return nil
}

func (p *fakePresenter) Stop() {
	p.mu.Lock()
	p.stops++
	panics := p.stopPanics
	p.mu.Unlock()
	if panics {
		panic("tray already destroyed")
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *fakePresenter) clickToggle() {
	p.mu.Lock()
	want, fn := p.menu.ToggleWant, p.onToggle
	p.mu.Unlock()
	fn(want)
}

func (p *fakePresenter) clickQuit() {
	p.mu.Lock()
	fn := p.onQuit
	p.mu.Unlock()
	fn()
}

func (p *fakePresenter) snapshot() (view.Menu, string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.menu, p.tooltip, p.refreshes
}

type fakeWatcher struct {
	mu        sync.Mutex
	starts    int
	stops     int
	waits     int
	onTrigger func()
	startErr  error
	stuck     bool
	checks    atomic.Int32
}

func (w *fakeWatcher) Start(_ string, onTrigger func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.starts++
	w.onTrigger = onTrigger
	return w.startErr
}

func (w *fakeWatcher) CheckLiveness() { w.checks.Add(1) }

func (w *fakeWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stops++
}

func (w *fakeWatcher) Wait(time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits++
	return !w.stuck
}

func (w *fakeWatcher) fire() {
	w.mu.Lock()
	fn := w.onTrigger
	w.mu.Unlock()
	fn()
}

func (w *fakeWatcher) counts() (starts, stops, waits int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.starts, w.stops, w.waits
}

type harness struct {
	ctrl      *Controller
	taskbar   *platform.Fake
	presenter *fakePresenter
	watcher   *fakeWatcher
	logs      *observer.ObservedLogs
	runErr    chan error
}

func newHarness(t *testing.T, initial bool) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	h := &harness{
		taskbar:   platform.NewFake(initial),
		presenter: newFakePresenter(),
		watcher:   &fakeWatcher{},
		logs:      logs,
		runErr:    make(chan error, 1),
	}
	h.ctrl = New(Options{
		Hotkey:           testHotkey,
		LivenessInterval: time.Hour,
		JoinTimeout:      time.Second,
	}, platform.NewAdapter(h.taskbar, logger), h.presenter, h.watcher, logger)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	go func() { h.runErr <- h.ctrl.Run(context.Background()) }()
	select {
	case <-h.presenter.built:
	case <-time.After(time.Second):
		t.Fatal("presenter was not built")
	}
	t.Cleanup(func() { h.ctrl.Shutdown("test cleanup") })
}

func (h *harness) waitRun(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.runErr:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestToggle_Involution(t *testing.T) {
	for _, initial := range []bool{false, true} {
		h := newHarness(t, initial)
		h.start(t)

		require.True(t, h.ctrl.Toggle(SourceAPI))
		assert.Equal(t, !initial, h.ctrl.Autohide())
		require.True(t, h.ctrl.Toggle(SourceAPI))
		assert.Equal(t, initial, h.ctrl.Autohide())
		assert.Equal(t, initial, h.taskbar.Autohide())
	}
}

func TestToggle_NoLostUpdate(t *testing.T) {
	const n = 41
	h := newHarness(t, false)
	h.taskbar.Delay = time.Millisecond
	h.start(t)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		src := SourceMenu
		if i%2 == 0 {
			src = SourceHotkey
		}
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			assert.True(t, h.ctrl.Toggle(src))
		}(src)
	}
	wg.Wait()

	assert.Equal(t, n, h.taskbar.SetCalls())
	assert.False(t, h.taskbar.Overlapped(), "set calls must not interleave")
	assert.Equal(t, n%2 == 1, h.ctrl.Autohide())
	assert.Equal(t, h.ctrl.Autohide(), h.taskbar.Autohide())
}

func TestToggle_FailedWriteLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.taskbar.RejectSet = true

	before, tipBefore, _ := h.presenter.snapshot()
	assert.False(t, h.ctrl.Toggle(SourceMenu))

	after, tipAfter, refreshes := h.presenter.snapshot()
	assert.False(t, h.ctrl.Autohide())
	assert.Equal(t, before, after)
	assert.Equal(t, tipBefore, tipAfter)
	assert.Zero(t, refreshes)
	assert.Equal(t, 1, h.logs.FilterMessage("Failed to toggle taskbar").Len())
	assert.Equal(t, 1, h.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestEndToEnd_MenuToggleEnablesAutohide(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	menu, _, _ := h.presenter.snapshot()
	require.Equal(t, "Enable auto-hide", menu.ToggleLabel)

	h.presenter.clickToggle()

	reqs := h.taskbar.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, platform.SetStateRequest(true), reqs[1])
	assert.True(t, h.ctrl.Autohide())

	menu, tip, _ := h.presenter.snapshot()
	assert.Equal(t, "Disable auto-hide", menu.ToggleLabel)
	assert.Contains(t, tip, "enabled")
	assert.Contains(t, tip, testHotkey)
}

func TestEndToEnd_HotkeyDuringMenuToggleIsSingleFlip(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.taskbar.Delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.presenter.clickToggle()
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		h.watcher.fire()
	}()
	wg.Wait()

	assert.Equal(t, 1, h.taskbar.SetCalls())
	assert.True(t, h.ctrl.Autohide())
	assert.True(t, h.taskbar.Autohide())
	assert.Equal(t, 1, h.logs.FilterMessage("Toggle already satisfied").Len())
}

func TestHotkey_SequentialPressesFlipBack(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)

	h.watcher.fire()
	assert.False(t, h.ctrl.Autohide())
	h.watcher.fire()
	assert.True(t, h.ctrl.Autohide())
	assert.Equal(t, 2, h.taskbar.SetCalls())
}

func TestShutdown_Idempotent(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	h.ctrl.Shutdown("signal: interrupt")
	h.presenter.clickQuit()
	h.ctrl.Shutdown("signal: terminated")

	require.NoError(t, h.waitRun(t))
	starts, stops, waits := h.watcher.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, waits)
	assert.Equal(t, 1, h.presenter.stops)
	assert.Equal(t, Stopped, h.ctrl.Status())
	assert.Equal(t, 1, h.logs.FilterMessage("Application shutdown initiated").Len())
	assert.Equal(t, 1, h.logs.FilterMessage("Cleanup completed successfully").Len())
}

func TestShutdown_ConcurrentCallersRunCleanupOnce(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ctrl.Shutdown("signal")
		}()
	}
	wg.Wait()
	<-h.ctrl.Done()

	_, stops, waits := h.watcher.counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, waits)
	assert.Equal(t, 1, h.logs.FilterMessage("Application shutdown initiated").Len())
}

func TestShutdown_QuitMenuEndsRun(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	h.presenter.clickQuit()
	require.NoError(t, h.waitRun(t))
	assert.Equal(t, Stopped, h.ctrl.Status())
}

func TestToggle_RefusedAfterShutdown(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.ctrl.Shutdown("quit menu")

	assert.False(t, h.ctrl.Toggle(SourceHotkey))
	assert.False(t, h.ctrl.ToggleTo(SourceMenu, true))
	assert.Zero(t, h.taskbar.SetCalls())
}

func TestShutdown_JoinTimeoutIsNotFatal(t *testing.T) {
	h := newHarness(t, false)
	h.watcher.stuck = true
	h.start(t)

	h.ctrl.Shutdown("signal")
	require.NoError(t, h.waitRun(t))
	assert.Equal(t, 1, h.logs.FilterMessage("Hotkey worker did not exit in time").Len())
	assert.Equal(t, Stopped, h.ctrl.Status())
}

func TestShutdown_FailingStepDoesNotAbortCleanup(t *testing.T) {
	h := newHarness(t, false)
	h.presenter.stopPanics = true

	h.ctrl.Shutdown("signal")

	_, stops, waits := h.watcher.counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, waits)
	assert.Equal(t, Stopped, h.ctrl.Status())
	assert.Equal(t, 1, h.logs.FilterMessage("Cleanup step failed").Len())
	assert.Equal(t, 1, h.logs.FilterMessage("Cleanup completed with errors").Len())
}

// exitOnForce arms a short force-exit timer whose exit func records the code
// and ends the fake event loop the way process exit would.
func (h *harness) exitOnForce(after time.Duration) chan int {
	codes := make(chan int, 1)
	h.ctrl.opts.ForceExitAfter = after
	h.ctrl.opts.Exit = func(code int) {
		codes <- code
		h.presenter.stopOnce.Do(func() { close(h.presenter.stopCh) })
	}
	return codes
}

func TestShutdown_QuitWithFailingTrayStopForcesExit(t *testing.T) {
	h := newHarness(t, false)
	codes := h.exitOnForce(20 * time.Millisecond)
	h.presenter.stopPanics = true
	h.start(t)

	h.presenter.clickQuit()
	assert.Equal(t, Stopped, h.ctrl.Status())

	select {
	case code := <-codes:
		assert.Equal(t, 1, code)
	case <-time.After(2 * time.Second):
		t.Fatal("event loop still running and no forced exit")
	}
	require.NoError(t, h.waitRun(t))
	assert.Equal(t, 1, h.logs.FilterMessage("Event loop did not exit in time, forcing exit").Len())
}

func TestShutdown_CleanQuitDoesNotForceExit(t *testing.T) {
	h := newHarness(t, false)
	codes := h.exitOnForce(20 * time.Millisecond)
	h.start(t)

	h.presenter.clickQuit()
	require.NoError(t, h.waitRun(t))

	select {
	case code := <-codes:
		t.Fatalf("forced exit with code %d after a clean return", code)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRun_PresentationFailureIsFatal(t *testing.T) {
	h := newHarness(t, false)
	h.presenter.buildErr = errors.New("no notification area")

	err := h.ctrl.Run(context.Background())
	require.ErrorIs(t, err, ErrPresentationSetup)

	starts, stops, _ := h.watcher.counts()
	assert.Zero(t, starts)
	assert.Equal(t, 1, stops)
	assert.Equal(t, Stopped, h.ctrl.Status())
}

func TestRun_TrayNeverReadyIsFatal(t *testing.T) {
	h := newHarness(t, false)
	h.presenter.runErr = errors.New("tray did not become ready")

	err := h.ctrl.Run(context.Background())
	require.ErrorIs(t, err, ErrPresentationSetup)
	assert.Equal(t, Stopped, h.ctrl.Status())
	assert.Equal(t, 1, h.logs.FilterMessage("Tray event loop failed").Len())
}

func TestRun_HotkeyFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, false)
	h.watcher.startErr = errors.New("combination in use")
	h.start(t)

	assert.Equal(t, Running, h.ctrl.Status())
	assert.True(t, h.ctrl.Toggle(SourceMenu))
}

func TestRun_MissingTaskbarDefaultsToDisabled(t *testing.T) {
	h := newHarness(t, true)
	h.taskbar.Missing = true
	h.start(t)

	assert.False(t, h.ctrl.Autohide())
	menu, _, _ := h.presenter.snapshot()
	assert.Equal(t, "Enable auto-hide", menu.ToggleLabel)
}

func TestRun_ContextCancelShutsDown(t *testing.T) {
	h := newHarness(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { h.runErr <- h.ctrl.Run(ctx) }()
	<-h.presenter.built

	cancel()
	require.NoError(t, h.waitRun(t))
	assert.Equal(t, Stopped, h.ctrl.Status())
}

func TestRun_AfterShutdownReturnsImmediately(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl.Shutdown("signal")

	require.NoError(t, h.ctrl.Run(context.Background()))
	assert.Empty(t, h.taskbar.Requests())
}

func TestWatchdog_ChecksUntilShutdown(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl = New(Options{
		Hotkey:           testHotkey,
		LivenessInterval: 5 * time.Millisecond,
		JoinTimeout:      time.Second,
	}, platform.NewAdapter(h.taskbar, zap.NewNop()), h.presenter, h.watcher, zap.NewNop())
	h.start(t)

	require.Eventually(t, func() bool { return h.watcher.checks.Load() >= 2 }, time.Second, time.Millisecond)
	h.ctrl.Shutdown("signal")

	after := h.watcher.checks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, h.watcher.checks.Load())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopping", Stopping.String())
	assert.Equal(t, "stopped", Stopped.String())
}
