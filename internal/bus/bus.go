// Package bus implements spec.md §4.1's memory bus: the 9-region
// address decode, the byte-addressable I/O mirror with its side-effect
// dispatch table, and the methods that satisfy the narrow interfaces
// (cpu.Bus, dma.Signals, ppu.Signals) through which the CPU, PPU, and
// DMA reach the bus without importing this package.
//
// The teacher's internal/bus/bus.go is the direct model: a flat
// switch-based Read/Write dispatch over address-range case blocks, an
// inline Tick driving the Game Boy's timer/PPU/OAM-DMA, debugTimer-gated
// trace printf's, and a gob busState snapshot with nested component
// blobs. This package keeps that shape and widens the decode table to
// the GBA's nine regions, the register set to the GBA's I/O map, and
// the nested blobs to this emulator's larger component set (APU,
// cartridge backup).
package bus

import (
	"fmt"

	"github.com/wrenfield/agbcore/internal/agblog"
	"github.com/wrenfield/agbcore/internal/apu"
	"github.com/wrenfield/agbcore/internal/cartridge"
	"github.com/wrenfield/agbcore/internal/cpu"
	"github.com/wrenfield/agbcore/internal/dma"
	"github.com/wrenfield/agbcore/internal/ppu"
	"github.com/wrenfield/agbcore/internal/timer"
)

const (
	biosSize  = 16 * 1024
	ewramSize = 256 * 1024
	iwramSize = 32 * 1024
	vramSize  = 96 * 1024
	vramMirrorSize = 128 * 1024
)

// Bus owns every memory region and the APU directly (spec.md §3's "the
// Bus exclusively owns all memory regions and the APU"); the CPU, PPU,
// timers, and DMA channels are Machine-owned and reach the Bus through
// the structural interfaces above and below.
type Bus struct {
	bios    []byte
	ewram   [ewramSize]byte
	iwram   [iwramSize]byte
	io      [1024]byte
	palette [1024]byte
	vram    [vramSize]byte
	oam     [1024]byte

	cart *cartridge.Cartridge
	apu  *apu.APU

	ie       uint16
	ifReg    uint16
	ime      bool
	keyinput uint16

	scanline    int
	inHBlank    bool
	hblankPulse bool
	vblankPulse bool

	biosLastWord uint32

	ppuRegs    *ppu.PPU
	dmaRegs    *dma.Controller
	timerRegs  *timer.Controller
	haltTarget *cpu.CPU
}

// New constructs a Bus from a BIOS image (spec.md §6's "exactly 16
// KiB"), a ROM image, and an optional backup save image.
func New(bios, rom, backupImage []byte, backupOverride cartridge.BackupType, bankCount, hostSampleRate int) (*Bus, error) {
	if len(bios) != biosSize {
		return nil, fmt.Errorf("bus: BIOS image must be exactly %d bytes, got %d", biosSize, len(bios))
	}
	cart, err := cartridge.New(rom, backupImage, backupOverride, bankCount)
	if err != nil {
		return nil, err
	}
	b := &Bus{
		bios:     append([]byte(nil), bios...),
		cart:     cart,
		apu:      apu.New(hostSampleRate),
		keyinput: 0x03FF,
	}
	return b, nil
}

// AttachPPU, AttachDMA, AttachTimers, and AttachCPU wire the
// Machine-owned components' narrow interfaces in after construction,
// once all of them exist (spec.md §9's recommended wiring order).
func (b *Bus) AttachPPU(p *ppu.PPU)          { b.ppuRegs = p }
func (b *Bus) AttachDMA(d *dma.Controller)   { b.dmaRegs = d }
func (b *Bus) AttachTimers(t *timer.Controller) { b.timerRegs = t }
func (b *Bus) AttachCPU(c *cpu.CPU)          { b.haltTarget = c }

// APU exposes the owned APU so Machine can Tick/DrainAudio it without
// the Bus needing tick-scheduling knowledge of its own.
func (b *Bus) APU() *apu.APU { return b.apu }

// Cartridge exposes the owned cartridge for Machine's save-image export.
func (b *Bus) Cartridge() *cartridge.Cartridge { return b.cart }

// region decode (spec.md §4.1's nine-region table). Bits 24-27 of the
// masked 28-bit address select the region; the low 24 bits are the
// in-region offset, not yet reduced modulo that region's physical size.
func decode(addr uint32) (region int, off uint32) {
	addr &= 0x0FFFFFFF
	return int(addr >> 24), addr & 0x00FFFFFF
}

// mirrorVRAM implements spec.md §4.1's "VRAM mirrors its upper 32 KiB
// within a 128 KiB mod window": addresses wrap every 128 KiB, and any
// offset landing in the top 32 KiB of that window replays the 32 KiB
// below it instead of the unbacked tail past the real 96 KiB of VRAM.
func mirrorVRAM(off uint32) uint32 {
	off %= vramMirrorSize
	if off >= vramSize {
		off -= 0x8000
	}
	return off
}

// Read8 is the single source of truth for byte reads; Read16/Read32
// compose it, since read legality (unlike write legality) never
// depends on access width.
func (b *Bus) Read8(addr uint32) byte {
	region, off := decode(addr)
	switch region {
	case 0x0, 0x1:
		if off < biosSize {
			return b.bios[off]
		}
		return byte(b.biosLastWord >> (8 * (off & 3)))
	case 0x2:
		return b.ewram[off%ewramSize]
	case 0x3:
		return b.iwram[off%iwramSize]
	case 0x4:
		return b.ioReadByte(int(off % 1024))
	case 0x5:
		return b.palette[off%1024]
	case 0x6:
		return b.vram[mirrorVRAM(off)]
	case 0x7:
		return b.oam[off%1024]
	case 0x8, 0x9, 0xA, 0xB, 0xC, 0xD:
		return b.cart.ReadROM8(off)
	case 0xE, 0xF:
		return b.cart.ReadBackup8(off)
	default:
		agblog.Warnf("bus: read from unmapped address %#x", addr)
		return 0
	}
}

func (b *Bus) Read16(addr uint32) uint16 {
	addr &^= 1
	return uint16(b.Read8(addr)) | uint16(b.Read8(addr+1))<<8
}

func (b *Bus) Read32(addr uint32) uint32 {
	addr &^= 3
	return uint32(b.Read8(addr)) | uint32(b.Read8(addr+1))<<8 |
		uint32(b.Read8(addr+2))<<16 | uint32(b.Read8(addr+3))<<24
}

// Write8 enforces spec.md §4.1's per-region write legality: BIOS and
// ROM are read-only, and byte writes to palette/VRAM/OAM are illegal
// (those regions only accept halfword/word stores) and are dropped
// with a warning rather than applied.
func (b *Bus) Write8(addr uint32, v byte) {
	region, off := decode(addr)
	switch region {
	case 0x0, 0x1:
		agblog.Warnf("bus: write to read-only BIOS at %#x", addr)
	case 0x2:
		b.ewram[off%ewramSize] = v
	case 0x3:
		b.iwram[off%iwramSize] = v
	case 0x4:
		b.ioWriteByte(int(off%1024), v)
	case 0x5:
		agblog.Warnf("bus: illegal byte write to palette at %#x", addr)
	case 0x6:
		agblog.Warnf("bus: illegal byte write to VRAM at %#x", addr)
	case 0x7:
		agblog.Warnf("bus: illegal byte write to OAM at %#x", addr)
	case 0x8, 0x9, 0xA, 0xB, 0xC, 0xD:
		// ROM is read-only; drop silently, matching real cartridge behavior.
	case 0xE, 0xF:
		b.cart.WriteBackup8(off, v)
	default:
		agblog.Warnf("bus: write to unmapped address %#x", addr)
	}
}

func (b *Bus) Write16(addr uint32, v uint16) {
	addr &^= 1
	region, off := decode(addr)
	switch region {
	case 0x0, 0x1:
	case 0x2:
		o := off % ewramSize
		b.ewram[o] = byte(v)
		b.ewram[wrapInc(o, ewramSize)] = byte(v >> 8)
	case 0x3:
		o := off % iwramSize
		b.iwram[o] = byte(v)
		b.iwram[wrapInc(o, iwramSize)] = byte(v >> 8)
	case 0x4:
		o := int(off % 1024)
		b.ioWriteByte(o, byte(v))
		b.ioWriteByte(o+1, byte(v>>8))
	case 0x5:
		o := off % 1024
		b.palette[o] = byte(v)
		b.palette[wrapInc(o, 1024)] = byte(v >> 8)
	case 0x6:
		o := mirrorVRAM(off)
		b.vram[o] = byte(v)
		b.vram[wrapInc(o, vramSize)] = byte(v >> 8)
	case 0x7:
		o := off % 1024
		b.oam[o] = byte(v)
		b.oam[wrapInc(o, 1024)] = byte(v >> 8)
	case 0x8, 0x9, 0xA, 0xB, 0xC, 0xD:
	case 0xE, 0xF:
		b.cart.WriteBackup8(off, byte(v))
		b.cart.WriteBackup8(off+1, byte(v>>8))
	default:
		agblog.Warnf("bus: write to unmapped address %#x", addr)
	}
}

func (b *Bus) Write32(addr uint32, v uint32) {
	addr &^= 3
	region, off := decode(addr)
	switch region {
	case 0x0, 0x1:
	case 0x2:
		storeWord(b.ewram[:], off%ewramSize, v, ewramSize)
	case 0x3:
		storeWord(b.iwram[:], off%iwramSize, v, iwramSize)
	case 0x4:
		o := int(off % 1024)
		b.ioWriteByte(o, byte(v))
		b.ioWriteByte(o+1, byte(v>>8))
		b.ioWriteByte(o+2, byte(v>>16))
		b.ioWriteByte(o+3, byte(v>>24))
	case 0x5:
		storeWord(b.palette[:], off%1024, v, 1024)
	case 0x6:
		storeWord(b.vram[:], mirrorVRAM(off), v, vramSize)
	case 0x7:
		storeWord(b.oam[:], off%1024, v, 1024)
	case 0x8, 0x9, 0xA, 0xB, 0xC, 0xD:
	case 0xE, 0xF:
		b.cart.WriteBackup8(off, byte(v))
		b.cart.WriteBackup8(off+1, byte(v>>8))
		b.cart.WriteBackup8(off+2, byte(v>>16))
		b.cart.WriteBackup8(off+3, byte(v>>24))
	default:
		agblog.Warnf("bus: write to unmapped address %#x", addr)
	}
}

func wrapInc(off uint32, size uint32) uint32 {
	if off+1 >= size {
		return 0
	}
	return off + 1
}

func storeWord(buf []byte, off uint32, v uint32, size uint32) {
	for i := uint32(0); i < 4; i++ {
		buf[(off+i)%size] = byte(v >> (8 * i))
	}
}

// --- ppu.Signals ---

func (b *Bus) VRAM8(addr uint32) byte      { return b.vram[addr%vramSize] }
func (b *Bus) OAM8(addr uint32) byte       { return b.oam[addr%1024] }
func (b *Bus) PaletteWord(addr uint32) uint16 {
	o := addr % 1024
	return uint16(b.palette[o]) | uint16(b.palette[wrapInc(o, 1024)])<<8
}
func (b *Bus) SetHBlankPulse() { b.hblankPulse = true }
func (b *Bus) SetVBlankPulse() { b.vblankPulse = true }

// --- dma.Signals (plus the pieces shared with ppu.Signals/cpu.Bus above) ---

func (b *Bus) HBlankPulse() bool        { return b.hblankPulse }
func (b *Bus) VBlankPulse() bool        { return b.vblankPulse }
func (b *Bus) ClearHBlankPulse()        { b.hblankPulse = false }
func (b *Bus) ClearVBlankPulse()        { b.vblankPulse = false }
func (b *Bus) Scanline() int            { return b.scanline }
func (b *Bus) FIFOLen(channel int) int  { return b.apu.FIFOLen(channel) }

// ClearChannelEnable clears the mirrored enable bit of a DMA channel's
// CNT_H register once the channel's dma.Controller disables it, so a
// subsequent register read reflects the disabled state (spec.md §4.4).
func (b *Bus) ClearChannelEnable(channel int) {
	b.io[dmaCntHHighByte[channel]] &^= 0x80
}

// --- cpu.Bus ---

// RaiseInterrupt sets bit in IF iff the corresponding IE bit is set
// (spec.md §4.1's interrupt-request semantics).
func (b *Bus) RaiseInterrupt(bit int) {
	if b.ie&(1<<uint(bit)) != 0 {
		b.ifReg |= 1 << uint(bit)
	}
}

func (b *Bus) IRQLine() bool { return b.ime && b.ie&b.ifReg != 0 }

// RecordBIOSFetch latches the last word fetched from the BIOS's
// execution window, replayed by out-of-window BIOS reads (spec.md §3's
// "reads from BIOS outside the execution window return the last word
// fetched from BIOS").
func (b *Bus) RecordBIOSFetch(word uint32) { b.biosLastWord = word }

// --- Machine-facing wiring ---

// SetScanline records the PPU's current line/h-blank phase for the
// Bus's own VCOUNT/DISPSTAT reads and DMA's scanline signal; Machine
// calls this immediately after each ppu.Tick.
func (b *Bus) SetScanline(line int, inHBlank bool) {
	b.scanline = line
	b.inHBlank = inHBlank
}

// SetKeys stores the live KEYINPUT register value (spec.md §6's
// external key-state collaborator; 0 bit means pressed).
func (b *Bus) SetKeys(mask uint16) { b.keyinput = mask }

// DrainAudio forwards to the owned APU's queued host-rate chunks.
func (b *Bus) DrainAudio() [][]float32 { return b.apu.DrainAudio() }

// TickAPU forwards one APU sample period and returns whether a host
// chunk became ready, so Machine's scheduler can drive the APU domain
// without reaching into the Bus's internals.
func (b *Bus) TickAPU() bool { return b.apu.Tick() }
