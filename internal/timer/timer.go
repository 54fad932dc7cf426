package timer

// Timers holds the delay and sound counters. Both count down once per frame and stop at zero.
type Timers struct {
	Delay byte
	Sound byte
}

// Tick decrements both counters, saturating at zero.
func (t *Timers) Tick() {
	if t.Delay > 0 {
		t.Delay--
	}
	if t.Sound > 0 {
		t.Sound--
	}
}

// Beeping reports whether the sound counter is still running.
func (t *Timers) Beeping() bool { return t.Sound > 0 }
