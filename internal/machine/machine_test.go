package machine

import (
	"context"
	"testing"

	"github.com/wrenfield/agbcore/internal/cartridge"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := New(Config{
		BIOS:           make([]byte, 16*1024),
		ROM:            make([]byte, 0x1000),
		BackupOverride: cartridge.BackupAuto,
		SaveBankCount:  1,
		HostSampleRate: 32000,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestMachine_ZeroBIOSZeroROMFrameIsBlank(t *testing.T) {
	m := newTestMachine(t)
	budget, err := m.ProcessFrame(context.Background())
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if budget < 0 {
		t.Fatalf("sleep budget must be non-negative, got %d", budget)
	}
	fb := m.Framebuffer()
	if len(fb) != 240*160 {
		t.Fatalf("framebuffer length = %d, want %d", len(fb), 240*160)
	}
	for i, px := range fb {
		if px != 0 {
			t.Fatalf("pixel %d = %#x, want 0 (black)", i, px)
		}
	}
}

func TestMachine_ProcessKeyClearsAndSetsKeyinputBits(t *testing.T) {
	m := newTestMachine(t)
	if m.keys != allReleased {
		t.Fatalf("initial keys = %#x, want %#x", m.keys, allReleased)
	}
	m.ProcessKey(KeyA, true)
	if m.keys&1 != 0 {
		t.Fatalf("KeyA press should clear bit 0, got %#x", m.keys)
	}
	m.ProcessKey(KeyA, false)
	if m.keys&1 == 0 {
		t.Fatalf("KeyA release should set bit 0, got %#x", m.keys)
	}
}

func TestMachine_InputFramePreprocessTogglesSkipRenderAndLatchesSave(t *testing.T) {
	m := newTestMachine(t)
	m.InputFramePreprocess(true, 4, [5]bool{false, true, false, false, false})
	if m.skipRender != 4 {
		t.Fatalf("skipRender = %d, want 4", m.skipRender)
	}
	if !m.TakeSaveRequest(1) {
		t.Fatalf("expected bank 1 save request to be latched")
	}
	if m.TakeSaveRequest(1) {
		t.Fatalf("TakeSaveRequest should clear the latch")
	}

	m.InputFramePreprocess(false, 4, [5]bool{})
	if m.skipRender != 1 {
		t.Fatalf("skipRender should reset to 1 once speedup is released, got %d", m.skipRender)
	}
}

func TestMachine_SaveLoadStateRoundTrip(t *testing.T) {
	m := newTestMachine(t)
	m.ProcessKey(KeyStart, true)
	if _, err := m.ProcessFrame(context.Background()); err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	snap := m.SaveState()

	m2 := newTestMachine(t)
	if err := m2.LoadState(snap); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if m2.keys != m.keys {
		t.Fatalf("restored keys = %#x, want %#x", m2.keys, m.keys)
	}
}
