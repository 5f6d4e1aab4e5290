package machine

import (
	"bytes"
	"encoding/gob"
)

// machineState rides each component's own opaque SaveState blob inside one
// gob stream, the same nested-blob shape the teacher's busState uses for
// its APU/cartridge sub-snapshots, one level up: here the Bus's own blob
// already carries the APU and cartridge along with it.
type machineState struct {
	CPU   []byte
	PPU   []byte
	Timer []byte
	DMA   []byte
	Bus   []byte

	Keys       uint16
	SkipRender int
}

// SaveState gob-encodes every component's own snapshot plus the small
// amount of Machine-level state (spec.md §9's Open Question scopes this
// to emulator-owned state only: the BIOS/ROM images and the resampler's
// internal phase are reconstructed by the caller, not serialized here).
func (m *Machine) SaveState() []byte {
	s := machineState{
		CPU:        m.cpu.SaveState(),
		PPU:        m.ppu.SaveState(),
		Timer:      m.timer.SaveState(),
		DMA:        m.dma.SaveState(),
		Bus:        m.bus.SaveState(),
		Keys:       m.keys,
		SkipRender: m.skipRender,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil
	}
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState. The Machine must
// already have been constructed from the same BIOS/ROM/backup images.
func (m *Machine) LoadState(data []byte) error {
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if err := m.cpu.LoadState(s.CPU); err != nil {
		return err
	}
	if err := m.ppu.LoadState(s.PPU); err != nil {
		return err
	}
	if err := m.timer.LoadState(s.Timer); err != nil {
		return err
	}
	if err := m.dma.LoadState(s.DMA); err != nil {
		return err
	}
	if err := m.bus.LoadState(s.Bus); err != nil {
		return err
	}
	m.keys = s.Keys
	m.skipRender = s.SkipRender
	m.bus.SetKeys(m.keys)
	m.ppu.SetSkipRender(m.skipRender)
	return nil
}
