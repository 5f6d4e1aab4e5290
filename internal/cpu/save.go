package cpu

import (
	"bytes"
	"encoding/gob"
)

type registersState struct {
	R       [16]uint32
	CPSR    uint32
	FIQBank [2][5]uint32
	SVBank  [numBanks][2]uint32
	SPSR    [numBanks]uint32
}

type cpuState struct {
	Regs   registersState
	Halted bool
}

// SaveState gob-encodes the full register file, including the banked
// registers a plain encode of *Registers would drop (its fiqBank/svBank/
// spsr fields are unexported), plus the halt flag.
func (c *CPU) SaveState() []byte {
	s := cpuState{
		Regs: registersState{
			R: c.Regs.R, CPSR: c.Regs.CPSR,
			FIQBank: c.Regs.fiqBank, SVBank: c.Regs.svBank, SPSR: c.Regs.spsr,
		},
		Halted: c.halted,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil
	}
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState. The pipeline is
// always flushed after loading, since a resumed register file's PC did
// not come from this CPU's own sequential fetch.
func (c *CPU) LoadState(data []byte) error {
	var s cpuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	c.Regs.R = s.Regs.R
	c.Regs.CPSR = s.Regs.CPSR
	c.Regs.fiqBank = s.Regs.FIQBank
	c.Regs.svBank = s.Regs.SVBank
	c.Regs.spsr = s.Regs.SPSR
	c.halted = s.Halted
	c.FlushPipeline()
	return nil
}
