// Package hotkey registers a global key combination and keeps it alive.
// A Watcher owns one background worker per registration, supervises it with
// a heartbeat and re-registers the combination when the worker stops
// responding.
package hotkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCombo is returned for key combinations that cannot be bound.
var ErrInvalidCombo = errors.New("invalid key combination")

// Modifier names in canonical order.
const (
	ModCtrl  = "ctrl"
	ModAlt   = "alt"
	ModShift = "shift"
	ModWin   = "win"
)

var modifierOrder = []string{ModCtrl, ModAlt, ModShift, ModWin}

var modifierAliases = map[string]string{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"win":     ModWin,
	"super":   ModWin,
	"meta":    ModWin,
	"cmd":     ModWin,
}

// Win32 MOD_* flags.
var modifierMask = map[string]uint8{
	ModAlt:   0x1,
	ModCtrl:  0x2,
	ModShift: 0x4,
	ModWin:   0x8,
}

var namedKeys = map[string]uint16{
	"space":     0x20,
	"enter":     0x0D,
	"return":    0x0D,
	"esc":       0x1B,
	"escape":    0x1B,
	"tab":       0x09,
	"delete":    0x2E,
	"del":       0x2E,
	"insert":    0x2D,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"backspace": 0x08,
}

// Combo is a parsed key combination such as "ctrl+alt+t".
type Combo struct {
	Modifiers []string // canonical names, canonical order
	Key       string
}

// ParseCombo parses a platform-neutral combination string. At least one
// modifier is required so a plain key is never captured system-wide.
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return Combo{}, fmt.Errorf("%w %q: need at least one modifier and a key", ErrInvalidCombo, s)
	}

	seen := make(map[string]bool)
	for _, p := range parts[:len(parts)-1] {
		name, ok := modifierAliases[strings.TrimSpace(p)]
		if !ok {
			return Combo{}, fmt.Errorf("%w %q: unknown modifier %q", ErrInvalidCombo, s, p)
		}
		if seen[name] {
			return Combo{}, fmt.Errorf("%w %q: duplicate modifier %q", ErrInvalidCombo, s, name)
		}
		seen[name] = true
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if _, ok := virtualKey(key); !ok {
		return Combo{}, fmt.Errorf("%w %q: unknown key %q", ErrInvalidCombo, s, key)
	}

	c := Combo{Key: key}
	for _, m := range modifierOrder {
		if seen[m] {
			c.Modifiers = append(c.Modifiers, m)
		}
	}
	return c, nil
}

// String returns the canonical form, e.g. "ctrl+alt+t".
func (c Combo) String() string {
	return strings.Join(append(append([]string{}, c.Modifiers...), c.Key), "+")
}

// ModifierMask returns the Win32 MOD_* flags of the combination.
func (c Combo) ModifierMask() uint8 {
	var m uint8
	for _, name := range c.Modifiers {
		m |= modifierMask[name]
	}
	return m
}

// VirtualKey returns the Win32 virtual-key code of the non-modifier key.
func (c Combo) VirtualKey() uint16 {
	vk, _ := virtualKey(c.Key)
	return vk
}

func virtualKey(key string) (uint16, bool) {
	if vk, ok := namedKeys[key]; ok {
		return vk, true
	}
	if len(key) == 1 {
		ch := key[0]
		switch {
		case ch >= 'a' && ch <= 'z':
			return uint16(ch - 'a' + 'A'), true
		case ch >= '0' && ch <= '9':
			return uint16(ch), true
		}
	}
	if strings.HasPrefix(key, "f") {
		n, err := strconv.Atoi(key[1:])
		if err == nil && n >= 1 && n <= 24 {
			return uint16(0x70 + n - 1), true
		}
	}
	return 0, false
}
