package keypad

// NumKeys is the size of the hex keypad, keys 0x0 through 0xF.
const NumKeys = 16

// Latch holds the held state of every key plus at most one pending "released" edge.
// The driver writes it between batches of steps; the CPU reads it and consumes the edge.
type Latch struct {
	down     [NumKeys]bool
	released byte
	pending  bool
}

// IsDown reports whether key is held. Only the low nibble of key is used.
func (l *Latch) IsDown(key byte) bool { return l.down[key&0x0F] }

func (l *Latch) SetDown(key byte, down bool) { l.down[key&0x0F] = down }

// SetAll replaces the held state of every key.
func (l *Latch) SetAll(down [NumKeys]bool) { l.down = down }

// Down returns a copy of the held state.
func (l *Latch) Down() [NumKeys]bool { return l.down }

// Release records key as the most recently released key, replacing any unconsumed edge.
func (l *Latch) Release(key byte) {
	l.released = key & 0x0F
	l.pending = true
}

// ClearReleased drops any unconsumed edge.
func (l *Latch) ClearReleased() { l.pending = false }

// Pending returns the released key without consuming it.
func (l *Latch) Pending() (byte, bool) { return l.released, l.pending }

// Take consumes the released edge. A second call returns false until the next Release.
func (l *Latch) Take() (byte, bool) {
	if !l.pending {
		return 0, false
	}
	l.pending = false
	return l.released, true
}
