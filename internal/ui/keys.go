package ui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/hajimehoshi/ebiten/v2"
)

// keysFrom builds the keypad state from host key queries. When several keys were
// released in the same update the lowest keypad key wins.
func keysFrom(km [keypad.NumKeys]ebiten.Key, pressed, released func(ebiten.Key) bool) emu.Keys {
	var k emu.Keys
	for i, key := range km {
		k.Down[i] = pressed(key)
		if !k.HasRelease && released(key) {
			k.Released = byte(i)
			k.HasRelease = true
		}
	}
	return k
}

// findROMs recursively collects .ch8 files under dir, sorted by path.
func findROMs(dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".ch8") {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out
}
