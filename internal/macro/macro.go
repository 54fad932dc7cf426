// Package macro drives the keypad from a Lua script, one callback per frame.
//
// A script may define on_frame(n), called before frame n is stepped. Inside it the
// following globals are available:
//
//	press(k)    hold key k (0-15)
//	release(k)  let go of key k and report it as the released key of this frame
//	peek(addr)  read a memory byte
//	reg(x)      read register Vx
//	frame()     number of the current frame
//	quit()      stop the run after this frame
package macro

import (
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	lua "github.com/yuin/gopher-lua"
)

// Target is the part of the machine a script can observe.
type Target interface {
	Peek(addr uint16) byte
	Register(x int) byte
	Frame() uint64
}

// Macro is a loaded script. It is not safe for concurrent use.
type Macro struct {
	L      *lua.LState
	target Target

	keys emu.Keys
	quit bool
}

func newMacro(target Target) *Macro {
	mcr := &Macro{L: lua.NewState(), target: target}
	for name, fn := range map[string]lua.LGFunction{
		"press":   mcr.press,
		"release": mcr.release,
		"peek":    mcr.peek,
		"reg":     mcr.reg,
		"frame":   mcr.frame,
		"quit":    mcr.stop,
	} {
		mcr.L.SetGlobal(name, mcr.L.NewFunction(fn))
	}
	return mcr
}

// Load runs the script file at path and returns the macro ready for Frame calls.
func Load(path string, target Target) (*Macro, error) {
	mcr := newMacro(target)
	if err := mcr.L.DoFile(path); err != nil {
		mcr.Close()
		return nil, fmt.Errorf("macro %s: %w", path, err)
	}
	return mcr, nil
}

// LoadString is Load for a script held in memory.
func LoadString(src string, target Target) (*Macro, error) {
	mcr := newMacro(target)
	if err := mcr.L.DoString(src); err != nil {
		mcr.Close()
		return nil, fmt.Errorf("macro: %w", err)
	}
	return mcr, nil
}

func (mcr *Macro) Close() { mcr.L.Close() }

// Frame calls on_frame(n) and returns the resulting keypad state. Held keys persist
// between frames, a release edge lasts one frame. quit is true once the script asked
// to stop.
func (mcr *Macro) Frame(n uint64) (keys emu.Keys, quit bool, err error) {
	mcr.keys.HasRelease = false
	fn := mcr.L.GetGlobal("on_frame")
	if fn.Type() == lua.LTFunction {
		err := mcr.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(n))
		if err != nil {
			var apiErr *lua.ApiError
			if errors.As(err, &apiErr) {
				err = fmt.Errorf("%s", apiErr.Object.String())
			}
			return emu.Keys{}, true, fmt.Errorf("macro: frame %d: %w", n, err)
		}
	}
	return mcr.keys, mcr.quit, nil
}

func checkKey(L *lua.LState) (byte, bool) {
	k := L.CheckInt(1)
	if k < 0 || k >= keypad.NumKeys {
		L.ArgError(1, fmt.Sprintf("key %d out of range", k))
		return 0, false
	}
	return byte(k), true
}

func (mcr *Macro) press(L *lua.LState) int {
	if k, ok := checkKey(L); ok {
		mcr.keys.Down[k] = true
	}
	return 0
}

func (mcr *Macro) release(L *lua.LState) int {
	if k, ok := checkKey(L); ok {
		mcr.keys.Down[k] = false
		mcr.keys.Released = k
		mcr.keys.HasRelease = true
	}
	return 0
}

func (mcr *Macro) peek(L *lua.LState) int {
	addr := L.CheckInt(1)
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(1, "address out of range")
		return 0
	}
	L.Push(lua.LNumber(mcr.target.Peek(uint16(addr))))
	return 1
}

func (mcr *Macro) reg(L *lua.LState) int {
	x := L.CheckInt(1)
	if x < 0 || x > 0xF {
		L.ArgError(1, "register out of range")
		return 0
	}
	L.Push(lua.LNumber(mcr.target.Register(x)))
	return 1
}

func (mcr *Macro) frame(L *lua.LState) int {
	L.Push(lua.LNumber(mcr.target.Frame()))
	return 1
}

func (mcr *Macro) stop(*lua.LState) int {
	mcr.quit = true
	return 0
}
