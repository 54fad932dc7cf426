package emu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// findROMs recursively collects .ch8 files under dir.
func findROMs(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".ch8") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// TestROMSuite runs every ROM under CHIP8_ROM_DIR for a few seconds of emulated time and
// fails on the first instruction error.
func TestROMSuite(t *testing.T) {
	dir := os.Getenv("CHIP8_ROM_DIR")
	if dir == "" {
		t.Skip("set CHIP8_ROM_DIR to a directory of .ch8 files to run")
	}
	roms, err := findROMs(dir)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(roms) == 0 {
		t.Skipf("no .ch8 files under %s", dir)
	}
	for _, path := range roms {
		t.Run(filepath.Base(path), func(t *testing.T) {
			m := New(DefaultConfig())
			if err := m.LoadROMFromFile(path); err != nil {
				t.Fatalf("load: %v", err)
			}
			for i := 0; i < 300 && m.Running(); i++ {
				if err := m.StepFrame(); err != nil {
					t.Fatalf("frame %d: %v", i, err)
				}
			}
		})
	}
}

func TestFindROMs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "games")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.ch8", "games/B.CH8", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{0x12, 0x00}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := findROMs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("found %v, want 2 ROMs", got)
	}
}
