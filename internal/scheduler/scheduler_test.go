package scheduler

import (
	"context"
	"testing"

	"github.com/wrenfield/agbcore/internal/bus"
	"github.com/wrenfield/agbcore/internal/cartridge"
	"github.com/wrenfield/agbcore/internal/cpu"
	"github.com/wrenfield/agbcore/internal/dma"
	"github.com/wrenfield/agbcore/internal/ppu"
	"github.com/wrenfield/agbcore/internal/timer"
)

func newMachineForTest(t *testing.T) (*Scheduler, *bus.Bus) {
	t.Helper()
	b, err := bus.New(make([]byte, 16*1024), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("bus.New: %v", err)
	}
	c := cpu.New()
	p := ppu.New(func(bit int) { b.RaiseInterrupt(bit) })
	tm := timer.NewController(func(bit int) { b.RaiseInterrupt(bit) }, func(ch int) { b.APU().PopFIFO(ch) })
	d := dma.NewController()

	b.AttachPPU(p)
	b.AttachDMA(d)
	b.AttachTimers(tm)
	b.AttachCPU(c)

	return New(c, p, tm, d, b), b
}

func TestScheduler_ZeroBIOSZeroROMCompletesFrame(t *testing.T) {
	s, b := newMachineForTest(t)

	budget, err := s.ProcessFrame(context.Background())
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if budget < 0 {
		t.Fatalf("sleep budget must be non-negative, got %d", budget)
	}
	if b.IRQLine() {
		t.Fatalf("no interrupts should be pending with everything masked")
	}
}

func TestScheduler_MultipleFramesAdvancePastRecenterWindow(t *testing.T) {
	s, _ := newMachineForTest(t)
	for i := 0; i < 8; i++ {
		if _, err := s.ProcessFrame(context.Background()); err != nil {
			t.Fatalf("ProcessFrame iteration %d: %v", i, err)
		}
	}
}

func TestScheduler_CancelledContextStopsLoop(t *testing.T) {
	s, _ := newMachineForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ProcessFrame(ctx); err == nil {
		t.Fatalf("expected an error from a pre-cancelled context")
	}
}
