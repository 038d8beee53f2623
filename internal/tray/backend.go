package tray

import "github.com/getlantern/systray"

// backend is the slice of the notification-area API the presenter drives.
type backend interface {
	Run(onReady, onExit func())
	Quit()
	SetIcon(icon []byte)
	SetTitle(title string)
	SetTooltip(tooltip string)
	AddMenuItem(title string) menuItem
}

type menuItem interface {
	SetTitle(title string)
	Clicked() <-chan struct{}
}

type systrayBackend struct{}

func (systrayBackend) Run(onReady, onExit func()) { systray.Run(onReady, onExit) }
func (systrayBackend) Quit() { systray.Quit() }
func (systrayBackend) SetIcon(icon []byte) { systray.SetIcon(icon) }
func (systrayBackend) SetTitle(title string) { systray.SetTitle(title) }
func (systrayBackend) SetTooltip(tooltip string) { systray.SetTooltip(tooltip) }

func (systrayBackend) AddMenuItem(title string) menuItem {
	return systrayItem{systray.AddMenuItem(title, "")}
}

type systrayItem struct {
	*systray.MenuItem
}

func (i systrayItem) Clicked() <-chan struct{} { return i.ClickedCh }
