package bus

import (
	"testing"

	"github.com/wrenfield/agbcore/internal/cartridge"
	"github.com/wrenfield/agbcore/internal/cpu"
)

func makeBIOS() []byte { return make([]byte, biosSize) }

func TestNew_RejectsWrongSizedBIOS(t *testing.T) {
	_, err := New(make([]byte, 100), []byte{0, 0, 0, 0}, nil, cartridge.BackupAuto, 1, 32000)
	if err == nil {
		t.Fatalf("expected error for undersized BIOS")
	}
}

func TestBus_EWRAMReadWriteRoundTrip(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Write32(0x02001000, 0xCAFEBABE)
	if got := b.Read32(0x02001000); got != 0xCAFEBABE {
		t.Fatalf("EWRAM round trip got %#x", got)
	}
	// EWRAM mirrors every 256 KiB.
	if got := b.Read32(0x02001000 + ewramSize); got != 0xCAFEBABE {
		t.Fatalf("EWRAM mirror got %#x", got)
	}
}

func TestBus_ROMIsReadOnly(t *testing.T) {
	rom := make([]byte, 0x1000)
	rom[4] = 0x42
	b, err := New(makeBIOS(), rom, nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Write8(0x08000004, 0xFF)
	if got := b.Read8(0x08000004); got != 0x42 {
		t.Fatalf("ROM write should be dropped, got %#x", got)
	}
}

func TestBus_IllegalByteWriteToPaletteIsDropped(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Write16(0x05000000, 0x1234)
	b.Write8(0x05000000, 0xFF) // illegal: dropped
	if got := b.Read16(0x05000000); got != 0x1234 {
		t.Fatalf("illegal byte write should be dropped, got %#x", got)
	}
}

func TestBus_VRAMUpperHalfMirrors(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// The top 32 KiB of the 128 KiB mod window (0x18000-0x1FFFF) replays
	// the 32 KiB directly below it (0x10000-0x17FFF).
	b.Write16(0x06010000, 0xBEEF)
	if got := b.Read16(0x06018000); got != 0xBEEF {
		t.Fatalf("VRAM mirror got %#x want 0xBEEF", got)
	}
}

func TestBus_SRAMSignatureDetection(t *testing.T) {
	rom := make([]byte, 0x100)
	copy(rom[0x20:], []byte("SRAM_V110"))
	b, err := New(makeBIOS(), rom, nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Cartridge().Type() != cartridge.BackupSRAM {
		t.Fatalf("expected SRAM detection, got %v", b.Cartridge().Type())
	}
	b.Write8(0x0E000000, 0x55)
	if got := b.Read8(0x0E000000); got != 0x55 {
		t.Fatalf("SRAM round trip got %#x", got)
	}
}

func TestBus_Flash1MSignatureDetection(t *testing.T) {
	rom := make([]byte, 0x100)
	copy(rom[0x40:], []byte("FLASH1M_V110"))
	b, err := New(makeBIOS(), rom, nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Cartridge().Type() != cartridge.BackupFlash128K {
		t.Fatalf("expected FLASH1M detection, got %v", b.Cartridge().Type())
	}
}

func TestBus_IFAckByXORIsInvolution(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.ie = 0xFFFF
	b.RaiseInterrupt(3)
	b.RaiseInterrupt(5)
	before := b.ifReg

	b.Write16(0x04000202, 0x0028) // write the same bits twice: ack then re-raise
	b.Write16(0x04000202, 0x0028)
	if b.ifReg != before {
		t.Fatalf("writing x to IF twice should be an identity, got %#x want %#x", b.ifReg, before)
	}
}

func TestBus_IMEGatesIRQLine(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Write16(0x04000200, 0xFFFF) // IE: enable everything
	b.RaiseInterrupt(0)
	if b.IRQLine() {
		t.Fatalf("IRQLine should be false while IME is clear")
	}
	b.Write8(0x04000208, 1)
	if !b.IRQLine() {
		t.Fatalf("IRQLine should be true once IME is set with a pending, enabled interrupt")
	}
}

func TestBus_BIOSOpenBusReplaysLastFetchedWord(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.RecordBIOSFetch(0x11223344)
	if got := b.Read32(0x00004000); got != 0x11223344 {
		t.Fatalf("BIOS open-bus read got %#x want 0x11223344", got)
	}
}

func TestBus_HaltCNTRequestsHalt(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.AttachCPU(nil) // nil target: write must not panic
	b.Write8(0x04000301, 0x00)

	c := cpu.New()
	b.AttachCPU(c)
	b.Write8(0x04000301, 0x00)
	if !c.Halted() {
		t.Fatalf("HALTCNT write with bit 7 clear should halt the attached CPU")
	}
}

func TestBus_SaveLoadStateRoundTrip(t *testing.T) {
	b, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Write32(0x02000100, 0xABCD1234)
	b.Write16(0x04000200, 0x3FFF)
	snap := b.SaveState()

	b2, err := New(makeBIOS(), make([]byte, 0x1000), nil, cartridge.BackupAuto, 1, 32000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := b2.LoadState(snap); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := b2.Read32(0x02000100); got != 0xABCD1234 {
		t.Fatalf("restored EWRAM got %#x", got)
	}
	if b2.ie != 0x3FFF {
		t.Fatalf("restored IE got %#x", b2.ie)
	}
}
