// Package view derives everything the tray displays from the auto-hide
// state: menu labels, tooltip text and the icon image.
package view

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Catalog holds the strings of one locale.
type Catalog struct {
	Tag          language.Tag
	Title        string
	Disable      string
	Enable       string
	Quit         string
	StatusFormat string // taskbar status line, %s is Enabled or Disabled
	Enabled      string
	Disabled     string
	HotkeyFormat string // %s is the key combination
}

var catalogs = []Catalog{
	{
		Tag:          language.English,
		Title:        "Taskbar Controller",
		Disable:      "Disable auto-hide",
		Enable:       "Enable auto-hide",
		Quit:         "Quit",
		StatusFormat: "Taskbar auto-hide: %s",
		Enabled:      "enabled",
		Disabled:     "disabled",
		HotkeyFormat: "Hotkey: %s",
	},
	{
		Tag:          language.Russian,
		Title:        "Taskbar Controller",
		Disable:      "Выключить автоскрытие",
		Enable:       "Включить автоскрытие",
		Quit:         "Выход",
		StatusFormat: "Автоскрытие панели задач: %s",
		Enabled:      "включено",
		Disabled:     "выключено",
		HotkeyFormat: "Горячие клавиши: %s",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Russian})

// Supported lists the locale names accepted by ResolveLocale besides "auto".
func Supported() []string {
	out := make([]string, 0, len(catalogs))
	for _, c := range catalogs {
		out = append(out, c.Tag.String())
	}
	return out
}

// ErrUnsupportedLocale is returned by CheckLocale.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// CheckLocale accepts "auto", an empty value, or a language tag that matches
// one of the catalogs (en, ru-RU, en-GB...).
func CheckLocale(locale string) error {
	if locale == "" || locale == "auto" {
		return nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnsupportedLocale, locale, err)
	}
	if _, _, conf := matcher.Match(tag); conf == language.No {
		return fmt.Errorf("%w %q (supported: auto, %s)", ErrUnsupportedLocale, locale, strings.Join(Supported(), ", "))
	}
	return nil
}

// ResolveLocale picks a catalog for the configured locale. "auto" or an empty
// value consults LC_ALL, LC_MESSAGES and LANG; anything unmatched falls back
// to English.
func ResolveLocale(locale string) Catalog {
	var prefs []string
	if locale != "" && locale != "auto" {
		prefs = append(prefs, locale)
	} else {
		for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
			if v := os.Getenv(env); v != "" {
				// POSIX values look like ru_RU.UTF-8.
				v = strings.SplitN(v, ".", 2)[0]
				prefs = append(prefs, strings.ReplaceAll(v, "_", "-"))
			}
		}
	}

	_, idx := language.MatchStrings(matcher, prefs...)
	if idx < 0 || idx >= len(catalogs) {
		idx = 0
	}
	return catalogs[idx]
}

// Menu is the rendered two-entry tray menu.
type Menu struct {
	ToggleLabel string
	// ToggleWant is the state a click on the toggle entry asks for.
	ToggleWant bool
	QuitLabel  string
}

// Render derives the menu for the given auto-hide state.
func (c Catalog) Render(autohide bool) Menu {
	m := Menu{QuitLabel: c.Quit, ToggleWant: !autohide}
	if autohide {
		m.ToggleLabel = c.Disable
	} else {
		m.ToggleLabel = c.Enable
	}
	return m
}

// Tooltip combines the localized status with the bound key combination.
func (c Catalog) Tooltip(autohide bool, hotkey string) string {
	status := c.Disabled
	if autohide {
		status = c.Enabled
	}
	return fmt.Sprintf(c.StatusFormat, status) + "\n" + fmt.Sprintf(c.HotkeyFormat, hotkey)
}
