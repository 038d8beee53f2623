//go:build windows

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

type nativeBinder struct{}

// NewBinder returns a binder backed by RegisterHotKey.
func NewBinder() Binder {
	return nativeBinder{}
}

func (nativeBinder) Bind(c Combo) (Binding, error) {
	var mods []hotkey.Modifier
	for _, m := range c.Modifiers {
		switch m {
		case ModCtrl:
			mods = append(mods, hotkey.ModCtrl)
		case ModAlt:
			mods = append(mods, hotkey.ModAlt)
		case ModShift:
			mods = append(mods, hotkey.ModShift)
		case ModWin:
			mods = append(mods, hotkey.ModWin)
		}
	}

	hk := hotkey.New(mods, hotkey.Key(c.VirtualKey()))
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register %s: %w", c, err)
	}

	b := &nativeBinding{
		hk:     hk,
		events: make(chan struct{}),
		quit:   make(chan struct{}),
	}
	go b.relay()
	return b, nil
}

type nativeBinding struct {
	hk     *hotkey.Hotkey
	events chan struct{}
	quit   chan struct{}
	once   sync.Once
}

func (b *nativeBinding) Keydown() <-chan struct{} { return b.events }

// relay forwards key-down events until the binding is unregistered. The
// events channel is closed only when the library's channel closes.
func (b *nativeBinding) relay() {
	keydown := b.hk.Keydown()
	for {
		select {
		case <-b.quit:
			return
		case _, ok := <-keydown:
			if !ok {
				close(b.events)
				return
			}
			select {
			case b.events <- struct{}{}:
			case <-b.quit:
				return
			}
		}
	}
}

func (b *nativeBinding) Unregister() error {
	var err error
	b.once.Do(func() {
		close(b.quit)
		err = b.hk.Unregister()
	})
	return err
}
