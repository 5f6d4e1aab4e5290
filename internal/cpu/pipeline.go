package cpu

// Pipeline models the ARM7TDMI's 3-stage fetch/decode/execute pipeline
// (spec.md §4.2) well enough to reproduce its one externally visible
// effect: a read of R15 during instruction execution observes the
// address of the currently-fetching instruction, not the one
// executing (+8 in ARM state, +4 in Thumb state). It holds the two
// in-flight opcodes ahead of the one currently executing.
type Pipeline struct {
	opcode [2]uint32
	addr   [2]uint32
	filled int // 0, 1, or 2 valid look-ahead slots
}

// Flush discards both look-ahead slots; branches and mode switches
// must call this before resuming fetch at the new address.
func (p *Pipeline) Flush() {
	p.filled = 0
}

// Refilling reports whether a branch refill (2 extra fetch cycles) is
// still owed before the pipeline has two valid slots again.
func (p *Pipeline) Refilling() bool {
	return p.filled < 2
}

// Latch pushes a newly fetched opcode/address pair into the pipeline,
// evicting the oldest slot which becomes the instruction to execute.
// It returns that instruction's opcode and fetch address.
func (p *Pipeline) Latch(opcode, addr uint32) (execOpcode, execAddr uint32, ready bool) {
	out := p.opcode[0]
	outAddr := p.addr[0]
	wasFull := p.filled >= 2

	p.opcode[0], p.addr[0] = p.opcode[1], p.addr[1]
	p.opcode[1], p.addr[1] = opcode, addr
	if p.filled < 2 {
		p.filled++
	}
	return out, outAddr, wasFull
}

// PCOffset is the amount a running instruction must add to its fetch
// address to reproduce the "PC reads as address+8/+4" pipeline effect.
func PCOffset(thumb bool) uint32 {
	if thumb {
		return 4
	}
	return 8
}
