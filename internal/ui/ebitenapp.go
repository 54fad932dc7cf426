package ui

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/snapshot"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

type App struct {
	cfg    Config
	m      *emu.Machine
	tex    *ebiten.Image
	shade  *ebiten.Image
	paused bool
	fast   bool

	// overlay/menu
	showMenu bool
	menuMode string // "main", "rom", "keys"
	menuIdx  int
	romList  []string
	romSel   int
	romOff   int
	keysOff  int

	toastMsg   string
	toastUntil time.Time

	curW, curH int
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(display.Width*cfg.Scale, display.Height*cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	a := &App{cfg: cfg, m: m, menuMode: "main"}
	a.updateTitle()
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	// Esc opens the menu, or closes it from the top level; submenus handle it themselves
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && (!a.showMenu || a.menuMode == "main") {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
		return nil
	}
	if a.showMenu {
		return a.updateMenu()
	}

	// Keyboard → hex keypad
	a.m.SetKeys(keysFrom(a.cfg.KeyMap, ebiten.IsKeyPressed, inpututil.IsKeyJustReleased))

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		a.screenshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		a.copyDisplay()
	}

	if a.paused {
		// Frame-step when paused (N)
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.stepFrame()
		}
		return nil
	}
	frames := 1
	if a.fast {
		frames = a.cfg.FastForward
	}
	for i := 0; i < frames; i++ {
		a.stepFrame()
	}
	return nil
}

func (a *App) stepFrame() {
	if err := a.m.StepFrame(); err != nil {
		a.toast("Error: " + err.Error())
	}
}

func (a *App) reset() {
	if err := a.m.Reset(); err != nil {
		a.toast("Reset failed: " + err.Error())
		return
	}
	a.toast("Reset")
}

func (a *App) screenshot() {
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	if err := snapshot.Save(name, a.m.Display(), a.cfg.Scale, a.cfg.Foreground, a.cfg.Background); err != nil {
		a.toast("Screenshot failed: " + err.Error())
		return
	}
	a.toast("Saved " + name)
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) updateTitle() {
	title := a.cfg.Title
	if p := a.m.ROMPath(); p != "" {
		title += " - [" + filepath.Base(p) + "]"
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(display.Width, display.Height)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.cfg.Scale), float64(a.cfg.Scale))
	screen.DrawImage(a.tex, op)

	if a.showMenu {
		if a.shade == nil {
			a.shade = ebiten.NewImage(1, 1)
			a.shade.Fill(color.RGBA{A: 0xC0})
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(a.curW), float64(a.curH))
		screen.DrawImage(a.shade, op)
		switch a.menuMode {
		case "rom":
			a.drawRomMenu(screen)
		case "keys":
			a.drawKeysMenu(screen)
		default:
			a.drawMainMenu(screen)
		}
		return
	}
	a.drawStatus(screen)
}

var statusFace = text.NewGoXFace(basicfont.Face7x13)

// drawStatus prints run-state flags and the latest message along the bottom edge.
func (a *App) drawStatus(screen *ebiten.Image) {
	line := a.statusLine(time.Now())
	if line == "" {
		return
	}
	y := float64(a.curH) - statusFace.Metrics().HAscent - 6
	op := &text.DrawOptions{}
	op.GeoM.Translate(5, y+1)
	op.ColorScale.ScaleWithColor(color.Black)
	text.Draw(screen, line, statusFace, op)

	op = &text.DrawOptions{}
	op.GeoM.Translate(4, y)
	op.ColorScale.ScaleWithColor(color.RGBA{R: 0xFF, G: 0xD0, B: 0x40, A: 0xFF})
	text.Draw(screen, line, statusFace, op)
}

func (a *App) statusLine(now time.Time) string {
	var parts []string
	switch {
	case a.paused:
		parts = append(parts, "PAUSED")
	case a.fast:
		parts = append(parts, fmt.Sprintf("FF x%d", a.cfg.FastForward))
	}
	if !a.m.Running() {
		parts = append(parts, "STOPPED")
	}
	if a.m.Beeping() {
		parts = append(parts, "BEEP")
	}
	if a.toastMsg != "" && now.Before(a.toastUntil) {
		parts = append(parts, a.toastMsg)
	}
	return strings.Join(parts, "  ")
}

func (a *App) Layout(outW, outH int) (int, int) {
	a.curW, a.curH = display.Width*a.cfg.Scale, display.Height*a.cfg.Scale
	return a.curW, a.curH
}
