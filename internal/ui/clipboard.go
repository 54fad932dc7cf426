package ui

import (
	"sync"

	"golang.design/x/clipboard"
)

var clipboardState struct {
	once sync.Once
	ok   bool
}

func writeClipboard(s string) bool {
	clipboardState.once.Do(func() {
		clipboardState.ok = clipboard.Init() == nil
	})
	if !clipboardState.ok {
		return false
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
	return true
}

// copyDisplay puts the display on the clipboard as text, one line per pixel row.
func (a *App) copyDisplay() {
	if writeClipboard(a.m.Display().String()) {
		a.toast("Display copied")
	} else {
		a.toast("Clipboard unavailable")
	}
}
