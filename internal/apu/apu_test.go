package apu

import "testing"

func TestAPU_SquareProducesSamplesAfterTrigger(t *testing.T) {
	a := New(48000)
	a.WriteDutyLength(0, 0x80) // duty 2 (50%), length irrelevant (lengthEn off)
	a.WriteEnvelope(0, 0xF0)   // initial volume 15, direction decrease, period 0 (volume held)
	a.WriteFreqLow(0, 0x00)
	a.WriteSoundCntL(0x11) // ch0 routed to both sides, volume 1
	a.WriteFreqHigh(0, 0x80)

	if !a.sq[0].enabled {
		t.Fatalf("trigger bit should enable channel 0")
	}
	for i := 0; i < chunkSize; i++ {
		a.Tick()
	}
	chunks := a.DrainAudio()
	if len(chunks) == 0 {
		t.Fatalf("expected at least one resampled chunk after a full input chunk")
	}
}

func TestAPU_FIFOOverflowDropsAndWarns(t *testing.T) {
	a := New(48000)
	var warned bool
	a.Warnf = func(format string, args ...any) { warned = true }
	for i := 0; i < dsoundFIFOCapacity; i++ {
		a.PushFIFO(0, byte(i))
	}
	a.PushFIFO(0, 0xFF)
	if !warned {
		t.Fatalf("expected overflow warning once FIFO is full")
	}
	if a.FIFOLen(0) != dsoundFIFOCapacity {
		t.Fatalf("FIFO length got %d want %d", a.FIFOLen(0), dsoundFIFOCapacity)
	}
}

func TestAPU_MasterDisableZeroesChannels(t *testing.T) {
	a := New(48000)
	a.WriteFreqHigh(0, 0x80)
	a.WriteMasterEnable(false)
	if a.sq[0].enabled {
		t.Fatalf("disabling master sound should clear channel state")
	}
}

func TestAPU_PopFIFOAdvancesCurrentSample(t *testing.T) {
	a := New(48000)
	a.PushFIFO(1, 0x7F)
	a.PopFIFO(1)
	if a.ds[1].current != 0x7F {
		t.Fatalf("current sample got %d want 127", a.ds[1].current)
	}
	if a.FIFOLen(1) != 0 {
		t.Fatalf("FIFO should be empty after pop")
	}
}
