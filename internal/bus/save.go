package bus

import (
	"bytes"
	"encoding/gob"

	"github.com/wrenfield/agbcore/internal/agblog"
)

// busState is the gob-serializable snapshot of everything the Bus
// itself owns, mirroring the teacher's busState/SaveState/LoadState
// pair: component sub-blobs (APU, cartridge) ride along as nested byte
// slices in the same stream.
type busState struct {
	EWRAM   []byte
	IWRAM   []byte
	IO      []byte
	Palette []byte
	VRAM    []byte
	OAM     []byte

	IE       uint16
	IF       uint16
	IME      bool
	KeyInput uint16

	Scanline    int
	InHBlank    bool
	HBlankPulse bool
	VBlankPulse bool

	BIOSLastWord uint32

	APUState  []byte
	CartState []byte
}

// SaveState gob-encodes every region and register the Bus owns,
// plus the APU and cartridge's own nested snapshots (spec.md §6's
// save-state collaborator).
func (b *Bus) SaveState() []byte {
	s := busState{
		EWRAM:        append([]byte(nil), b.ewram[:]...),
		IWRAM:        append([]byte(nil), b.iwram[:]...),
		IO:           append([]byte(nil), b.io[:]...),
		Palette:      append([]byte(nil), b.palette[:]...),
		VRAM:         append([]byte(nil), b.vram[:]...),
		OAM:          append([]byte(nil), b.oam[:]...),
		IE:           b.ie,
		IF:           b.ifReg,
		IME:          b.ime,
		KeyInput:     b.keyinput,
		Scanline:     b.scanline,
		InHBlank:     b.inHBlank,
		HBlankPulse:  b.hblankPulse,
		VBlankPulse:  b.vblankPulse,
		BIOSLastWord: b.biosLastWord,
		APUState:     b.apu.SaveState(),
		CartState:    b.cart.SaveState(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		agblog.Warnf("bus: save state encode failed: %v", err)
		return nil
	}
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState. The BIOS and
// ROM images are never part of the snapshot; the caller must have
// constructed this Bus from the same images before loading.
func (b *Bus) LoadState(data []byte) error {
	var s busState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	copy(b.ewram[:], s.EWRAM)
	copy(b.iwram[:], s.IWRAM)
	copy(b.io[:], s.IO)
	copy(b.palette[:], s.Palette)
	copy(b.vram[:], s.VRAM)
	copy(b.oam[:], s.OAM)
	b.ie = s.IE
	b.ifReg = s.IF
	b.ime = s.IME
	b.keyinput = s.KeyInput
	b.scanline = s.Scanline
	b.inHBlank = s.InHBlank
	b.hblankPulse = s.HBlankPulse
	b.vblankPulse = s.VBlankPulse
	b.biosLastWord = s.BIOSLastWord
	if err := b.apu.LoadState(s.APUState); err != nil {
		return err
	}
	b.cart.LoadState(s.CartState)
	return nil
}
