package timer

import (
	"bytes"
	"encoding/gob"
)

type timerState struct {
	Reload      uint16
	Count       uint16
	PrescaleExp uint8
	Enabled     bool
	Cascade     bool
	IRQEnable   bool
	Accum       int
}

type controllerState struct {
	Timers       [4]timerState
	SampleTimerA int
	SampleTimerB int
}

// SaveState gob-encodes all four timers and the sample-timer selection;
// the RaiseInterrupt/PopFIFO callbacks are Machine wiring, not state, and
// are left untouched by LoadState.
func (c *Controller) SaveState() []byte {
	var s controllerState
	for i, t := range c.timers {
		s.Timers[i] = timerState{
			Reload: t.Reload, Count: t.Count, PrescaleExp: t.PrescaleExp,
			Enabled: t.Enabled, Cascade: t.Cascade, IRQEnable: t.IRQEnable,
			Accum: t.accum,
		}
	}
	s.SampleTimerA, s.SampleTimerB = c.SampleTimerA, c.SampleTimerB

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil
	}
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState.
func (c *Controller) LoadState(data []byte) error {
	var s controllerState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	for i, ts := range s.Timers {
		c.timers[i] = Timer{
			Reload: ts.Reload, Count: ts.Count, PrescaleExp: ts.PrescaleExp,
			Enabled: ts.Enabled, Cascade: ts.Cascade, IRQEnable: ts.IRQEnable,
			accum: ts.Accum,
		}
	}
	c.SampleTimerA, c.SampleTimerB = s.SampleTimerA, s.SampleTimerB
	return nil
}
