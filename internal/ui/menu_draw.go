package ui

import (
	"fmt"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	lineHeight = 14
	charWidth  = 6 // debug font glyph width
	romListY   = 40
)

func (a *App) drawMainMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Menu:", 10, 10)
	for i, s := range mainMenuItems {
		prefix := "  "
		if i == a.menuIdx {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, 10+(i+1)*lineHeight)
	}
	if p := a.m.ROMPath(); p != "" {
		line := a.truncateText("ROM: "+filepath.Base(p), a.maxCharsForText(10))
		ebitenutil.DebugPrintAt(screen, line, 10, 10+(len(mainMenuItems)+2)*lineHeight)
	}
}

func (a *App) drawRomMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, a.truncateText("Select ROM (Enter: load, Esc: back)", a.maxCharsForText(10)), 10, 10)
	ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ROMsDir, a.maxCharsForText(10)), 10, 24)
	if len(a.romList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No ROMs found", 10, romListY)
		return
	}
	maxRows := a.menuRows(romListY)
	end := a.romOff + maxRows
	if end > len(a.romList) {
		end = len(a.romList)
	}
	maxChars := a.maxCharsForText(10) - 2 // account for "> " prefix
	for i, p := range a.romList[a.romOff:end] {
		prefix := "  "
		if a.romOff+i == a.romSel {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+a.truncateText(filepath.Base(p), maxChars), 10, romListY+i*lineHeight)
	}
	// scroll indicators
	if a.romOff > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, romListY)
	}
	if end < len(a.romList) {
		ebitenutil.DebugPrintAt(screen, "v", 2, romListY+(maxRows-1)*lineHeight)
	}
}

func (a *App) keyRows() []string {
	rows := make([]string, 0, len(a.cfg.KeyMap)+8)
	for i, k := range a.cfg.KeyMap {
		rows = append(rows, fmt.Sprintf("%s: key %X", k.String(), i))
	}
	return append(rows,
		"P: Pause",
		"N: Step (when paused)",
		"Tab: Fast-forward",
		"R: Reset",
		"F10: Copy display as text",
		"F12: Screenshot",
		"Esc: Open/Close Menu",
	)
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, a.truncateText("Keybindings (Up/Down: scroll, Esc: back)", a.maxCharsForText(10)), 10, 10)
	rows := a.keyRows()
	baseY := 28
	maxRows := a.menuRows(baseY)
	end := a.keysOff + maxRows
	if end > len(rows) {
		end = len(rows)
	}
	for i := a.keysOff; i < end; i++ {
		ebitenutil.DebugPrintAt(screen, a.truncateText(rows[i], a.maxCharsForText(10)), 10, baseY+(i-a.keysOff)*lineHeight)
	}
	if a.keysOff > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, baseY)
	}
	if end < len(rows) {
		ebitenutil.DebugPrintAt(screen, "v", 2, baseY+(maxRows-1)*lineHeight)
	}
}

// menuRows is the number of list rows that fit below y.
func (a *App) menuRows(y int) int {
	n := (a.curH - y) / lineHeight
	if n < 1 {
		n = 1
	}
	return n
}

func (a *App) maxCharsForText(x int) int {
	n := (a.curW - x) / charWidth
	if n < 1 {
		n = 1
	}
	return n
}

func (a *App) truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
