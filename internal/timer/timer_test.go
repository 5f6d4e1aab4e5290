package timer

import "testing"

func TestTimer_OverflowReloadsAndRaisesInterrupt(t *testing.T) {
	var raised []int
	c := NewController(func(bit int) { raised = append(raised, bit) }, nil)

	c.WriteReloadLow(0, 0xFE)
	c.WriteReloadHigh(0, 0xFF) // reload = 0xFFFE
	c.WriteControl(0, 0x80|0x40)

	// 3 single master clocks at prescale 0 (threshold 1, one step each):
	// count goes FFFE -> FFFF -> overflow(reload FFFE) -> FFFF.
	c.Tick(1)
	c.Tick(1)
	c.Tick(1)

	if len(raised) != 1 {
		t.Fatalf("expected exactly one overflow interrupt, got %d (%v)", len(raised), raised)
	}
	if raised[0] != 3 {
		t.Fatalf("expected interrupt bit 3 (timer 0), got %d", raised[0])
	}
	if c.Timer(0).Count != 0xFFFF {
		t.Fatalf("count got %#04x want 0xFFFF", c.Timer(0).Count)
	}
}

func TestTimer_EnableRisingEdgeReloads(t *testing.T) {
	c := NewController(nil, nil)
	c.WriteReloadLow(0, 0x34)
	c.WriteReloadHigh(0, 0x12)
	c.Timer(0).Count = 0x0000
	c.WriteControl(0, 0x80)
	if c.Timer(0).Count != 0x1234 {
		t.Fatalf("enable rising edge did not reload: got %#04x", c.Timer(0).Count)
	}
}

func TestTimer_CascadeAdvancesOnOverflow(t *testing.T) {
	c := NewController(nil, nil)
	c.WriteReloadLow(0, 0xFF)
	c.WriteReloadHigh(0, 0xFF)
	c.WriteControl(0, 0x80) // enabled, prescale 1, not cascaded

	c.WriteReloadLow(1, 0x00)
	c.WriteReloadHigh(1, 0x00)
	c.WriteControl(1, 0x80|0x04) // enabled + cascade

	c.Tick(1) // timer0 overflows once, cascading timer1 forward by 1
	if c.Timer(1).Count != 1 {
		t.Fatalf("cascaded timer1 count got %d want 1", c.Timer(1).Count)
	}
}

func TestTimer_SampleTimerPopsFIFO(t *testing.T) {
	var popped []int
	c := NewController(nil, func(ch int) { popped = append(popped, ch) })
	c.SampleTimerA = 0
	c.WriteReloadLow(0, 0xFF)
	c.WriteReloadHigh(0, 0xFF)
	c.WriteControl(0, 0x80)
	c.Tick(1)
	if len(popped) != 1 || popped[0] != 0 {
		t.Fatalf("expected FIFO A pop, got %v", popped)
	}
}
