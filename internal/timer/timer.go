// Package timer implements the four GBA up-counters described in
// spec.md §4.3: selectable prescale, optional cascading into the next
// channel, overflow interrupts, and the sample-timer hookup that feeds
// the APU's two direct-sound FIFOs.
package timer

// prescaleExponents maps the two-bit TMxCNT_H prescale field to the
// shift amount spec.md §3 requires: {0, 6, 8, 10}.
var prescaleExponents = [4]uint8{0, 6, 8, 10}

// Timer is one of the four channels; spec.md §3's "reload value,
// current count, prescale exponent, enabled flag, cascade flag,
// interrupt-on-overflow flag" mapped directly to fields.
type Timer struct {
	Reload      uint16
	Count       uint16
	PrescaleExp uint8
	Enabled     bool
	Cascade     bool
	IRQEnable   bool

	accum int // sub-prescale cycle accumulator
}

// advance folds cycles master clocks into the timer, returning the
// number of overflow (wrap-through-zero) events it produced.
func (t *Timer) advance(cycles int) int {
	threshold := 1 << t.PrescaleExp
	t.accum += cycles
	overflows := 0
	for t.accum >= threshold {
		t.accum -= threshold
		if t.Count == 0xFFFF {
			t.Count = t.Reload
			overflows++
		} else {
			t.Count++
		}
	}
	return overflows
}

// Controller owns all four timers plus the cross-component hooks the
// Bus wires in at construction (interrupt raising and direct-sound FIFO
// pop), mirroring the teacher's callback-based decoupling
// (ppu.InterruptRequester in internal/ppu/ppu.go) rather than a direct
// pointer back to the APU.
type Controller struct {
	timers [4]Timer

	// SampleTimer{A,B} select which timer (0 or 1) drives each
	// direct-sound FIFO's readout; -1 means none selected.
	SampleTimerA int
	SampleTimerB int

	RaiseInterrupt func(bit int)
	PopFIFO        func(channel int)
}

// NewController wires the two cross-component callbacks; both may be
// nil in tests that only exercise counting.
func NewController(raiseInterrupt func(bit int), popFIFO func(channel int)) *Controller {
	return &Controller{
		SampleTimerA:   -1,
		SampleTimerB:   -1,
		RaiseInterrupt: raiseInterrupt,
		PopFIFO:        popFIFO,
	}
}

// Timer exposes one channel read-only state for the Bus's register reads.
func (c *Controller) Timer(i int) *Timer { return &c.timers[i] }

// SetSampleTimers rewires which timer drains each direct-sound FIFO,
// called by the Bus when SOUNDCNT_H's timer-select bits are written.
func (c *Controller) SetSampleTimers(a, b int) {
	c.SampleTimerA = a
	c.SampleTimerB = b
}

// WriteControl applies a write to TMxCNT_H (spec.md §4.1 "Timer control
// high byte ... rising edge of enable reloads").
func (c *Controller) WriteControl(i int, v byte) {
	t := &c.timers[i]
	rising := (v&0x80) != 0 && !t.Enabled

	t.PrescaleExp = prescaleExponents[v&0x03]
	t.Cascade = v&0x04 != 0
	t.IRQEnable = v&0x40 != 0
	t.Enabled = v&0x80 != 0

	if rising {
		t.Count = t.Reload
		t.accum = 0
	}
}

// WriteReloadLow/WriteReloadHigh implement spec.md §4.1's "Timer count
// low/high writes update the reload value only (not the live count)".
func (c *Controller) WriteReloadLow(i int, v byte) {
	c.timers[i].Reload = (c.timers[i].Reload & 0xFF00) | uint16(v)
}

func (c *Controller) WriteReloadHigh(i int, v byte) {
	c.timers[i].Reload = (c.timers[i].Reload & 0x00FF) | uint16(v)<<8
}

// Tick advances all non-cascading enabled timers by cycles master
// clocks (the scheduler's fixed timer granularity) and propagates
// overflow into cascaded neighbors and interrupt/FIFO side effects.
func (c *Controller) Tick(cycles int) {
	for i := 0; i < 4; i++ {
		t := &c.timers[i]
		if !t.Enabled || t.Cascade {
			continue
		}
		for n := t.advance(cycles); n > 0; n-- {
			c.onOverflow(i)
		}
	}
}

func (c *Controller) onOverflow(i int) {
	if c.SampleTimerA == i && c.PopFIFO != nil {
		c.PopFIFO(0)
	}
	if c.SampleTimerB == i && c.PopFIFO != nil {
		c.PopFIFO(1)
	}
	if c.timers[i].IRQEnable && c.RaiseInterrupt != nil {
		c.RaiseInterrupt(3 + i)
	}
	if i+1 < 4 {
		next := &c.timers[i+1]
		if next.Enabled && next.Cascade {
			for n := next.advance(1); n > 0; n-- {
				c.onOverflow(i + 1)
			}
		}
	}
}
