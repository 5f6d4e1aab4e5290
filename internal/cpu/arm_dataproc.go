package cpu

const (
	opAND = 0x0
	opEOR = 0x1
	opSUB = 0x2
	opRSB = 0x3
	opADD = 0x4
	opADC = 0x5
	opSBC = 0x6
	opRSC = 0x7
	opTST = 0x8
	opTEQ = 0x9
	opCMP = 0xA
	opCMN = 0xB
	opORR = 0xC
	opMOV = 0xD
	opBIC = 0xE
	opMVN = 0xF
)

// armDataProcessing implements the 16 ALU opcodes with the shifter
// from shifter.go and spec.md §4.2's flag/R15-SPSR-restore semantics.
func (c *CPU) armDataProcessing(op uint32, fetchAddr uint32) int {
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF
	sBit := op&(1<<20) != 0
	opcode := (op >> 21) & 0xF

	op2, shiftCarry := c.shiftedOperand(op)

	rnVal := c.Regs.R[rn]
	if rn == 15 && op&(1<<25) == 0 && op&(1<<4) != 0 {
		rnVal = c.pcRead(fetchAddr) + 4
	} else if rn == 15 {
		rnVal = c.pcRead(fetchAddr)
	}

	var result uint32
	var n, z, carry, overflow bool
	writesResult := true

	switch opcode {
	case opAND:
		result = rnVal & op2
		carry = shiftCarry
	case opEOR:
		result = rnVal ^ op2
		carry = shiftCarry
	case opSUB:
		result, carry, overflow = subWithFlags(rnVal, op2)
	case opRSB:
		result, carry, overflow = subWithFlags(op2, rnVal)
	case opADD:
		result, carry, overflow = addWithFlags(rnVal, op2)
	case opADC:
		ci := carryInBit(c.Regs.C())
		result, carry, overflow = addWithFlags(rnVal, op2+ci)
	case opSBC:
		ci := carryInBit(c.Regs.C())
		borrow := uint32(1) - ci
		result, carry, overflow = subWithFlags(rnVal, op2+borrow)
	case opRSC:
		ci := carryInBit(c.Regs.C())
		borrow := uint32(1) - ci
		result, carry, overflow = subWithFlags(op2, rnVal+borrow)
	case opTST:
		result = rnVal & op2
		carry = shiftCarry
		writesResult = false
	case opTEQ:
		result = rnVal ^ op2
		carry = shiftCarry
		writesResult = false
	case opCMP:
		result, carry, overflow = subWithFlags(rnVal, op2)
		writesResult = false
	case opCMN:
		result, carry, overflow = addWithFlags(rnVal, op2)
		writesResult = false
	case opORR:
		result = rnVal | op2
		carry = shiftCarry
	case opMOV:
		result = op2
		carry = shiftCarry
	case opBIC:
		result = rnVal &^ op2
		carry = shiftCarry
	case opMVN:
		result = ^op2
		carry = shiftCarry
	}
	n = result&(1<<31) != 0
	z = result == 0

	if writesResult {
		c.Regs.R[rd] = result
	}

	if sBit {
		if rd == 15 {
			if c.Regs.HasSPSR() {
				c.Regs.CPSR = *c.Regs.SPSR()
				c.FlushPipeline()
			}
		} else {
			c.Regs.SetNZCV(n, z, carry, overflow)
		}
	}

	if rd == 15 && writesResult {
		c.FlushPipeline()
		return 3
	}
	return 1
}

func carryInBit(c bool) uint32 {
	if c {
		return 1
	}
	return 0
}

func addWithFlags(a, b uint32) (result uint32, carry, overflow bool) {
	sum := uint64(a) + uint64(b)
	result = uint32(sum)
	carry = sum > 0xFFFFFFFF
	overflow = (a^result)&(b^result)&(1<<31) != 0
	return
}

func subWithFlags(a, b uint32) (result uint32, carry, overflow bool) {
	result = a - b
	carry = a >= b // ARM carry on subtraction means "no borrow"
	overflow = (a^b)&(a^result)&(1<<31) != 0
	return
}

// armMultiply implements MUL/MLA (spec.md §4.2's "normal multiply,
// multiply-accumulate"), with the documented byte-span cycle cost.
func (c *CPU) armMultiply(op uint32) int {
	rd := (op >> 16) & 0xF
	rn := (op >> 12) & 0xF
	rs := (op >> 8) & 0xF
	rm := op & 0xF
	accumulate := op&(1<<21) != 0
	sBit := op&(1<<20) != 0

	result := c.Regs.R[rm] * c.Regs.R[rs]
	if accumulate {
		result += c.Regs.R[rn]
	}
	c.Regs.R[rd] = result
	if sBit {
		c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, c.Regs.C(), c.Regs.V())
	}
	cycles := 1 + multiplierCycles(c.Regs.R[rs])
	if accumulate {
		cycles++
	}
	return cycles
}

// armMultiplyLong implements UMULL/UMLAL/SMULL/SMLAL.
func (c *CPU) armMultiplyLong(op uint32) int {
	rdHi := (op >> 16) & 0xF
	rdLo := (op >> 12) & 0xF
	rs := (op >> 8) & 0xF
	rm := op & 0xF
	signed := op&(1<<22) != 0
	accumulate := op&(1<<21) != 0
	sBit := op&(1<<20) != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.Regs.R[rm])) * int64(int32(c.Regs.R[rs])))
	} else {
		result = uint64(c.Regs.R[rm]) * uint64(c.Regs.R[rs])
	}
	if accumulate {
		result += uint64(c.Regs.R[rdHi])<<32 | uint64(c.Regs.R[rdLo])
	}
	c.Regs.R[rdHi] = uint32(result >> 32)
	c.Regs.R[rdLo] = uint32(result)
	if sBit {
		c.Regs.SetNZCV(result&(1<<63) != 0, result == 0, c.Regs.C(), c.Regs.V())
	}
	cycles := 2 + multiplierCycles(c.Regs.R[rs])
	if accumulate {
		cycles++
	}
	return cycles
}

// multiplierCycles approximates spec.md §4.2's "1 cycle per byte of
// non-zero/sign-extended content" by finding the highest byte whose
// bits differ from the sign-extension of the bytes below it.
func multiplierCycles(rs uint32) int {
	if rs == 0 || rs == 0xFFFFFFFF {
		return 1
	}
	for n := 3; n >= 1; n-- {
		shift := uint(n * 8)
		top := rs >> shift
		if top != 0 && top != (0xFFFFFFFF>>shift) {
			return n + 1
		}
	}
	return 1
}

// armSingleDataSwap implements SWP/SWPB.
func (c *CPU) armSingleDataSwap(bus Bus, op uint32) int {
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF
	rm := op & 0xF
	byteSwap := op&(1<<22) != 0
	addr := c.Regs.R[rn]

	if byteSwap {
		old := bus.Read8(addr)
		bus.Write8(addr, byte(c.Regs.R[rm]))
		c.Regs.R[rd] = uint32(old)
	} else {
		old := readRotatedWord(bus, addr)
		bus.Write32(addr&^3, c.Regs.R[rm])
		c.Regs.R[rd] = old
	}
	return 4
}

func readRotatedWord(bus Bus, addr uint32) uint32 {
	word := bus.Read32(addr &^ 3)
	rot := (addr & 3) * 8
	return ror32(word, rot)
}
