package cpu

// Each thumb* function implements one of the 19 Thumb instruction
// formats from the ARM7TDMI reference, matching spec.md §4.2's
// "refinements for the shifted-register, ALU, hi-register/BX,
// load-store, PUSH/POP, and long-branch-link forms".

func (c *CPU) thumbMoveShifted(op uint32) int {
	kind := (op >> 11) & 0x3
	amount := (op >> 6) & 0x1F
	rs := (op >> 3) & 0x7
	rd := op & 0x7

	rmVal := c.Regs.R[rs]
	var result uint32
	var carry bool
	switch kind {
	case 0: // LSL
		if amount == 0 {
			result, carry = rmVal, c.Regs.C()
		} else {
			result = rmVal << amount
			carry = rmVal&(1<<(32-amount)) != 0
		}
	case 1: // LSR
		if amount == 0 {
			result, carry = 0, rmVal&(1<<31) != 0
		} else {
			result = rmVal >> amount
			carry = rmVal&(1<<(amount-1)) != 0
		}
	default: // ASR
		if amount == 0 {
			if rmVal&(1<<31) != 0 {
				result, carry = 0xFFFFFFFF, true
			} else {
				result, carry = 0, false
			}
		} else {
			result = uint32(int32(rmVal) >> amount)
			carry = rmVal&(1<<(amount-1)) != 0
		}
	}
	c.Regs.R[rd] = result
	c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, carry, c.Regs.V())
	return 1
}

func (c *CPU) thumbAddSub(op uint32) int {
	immediate := op&0x0400 != 0
	sub := op&0x0200 != 0
	rnOrImm := (op >> 6) & 0x7
	rs := (op >> 3) & 0x7
	rd := op & 0x7

	var operand uint32
	if immediate {
		operand = rnOrImm
	} else {
		operand = c.Regs.R[rnOrImm]
	}
	a := c.Regs.R[rs]
	var result uint32
	var carry, overflow bool
	if sub {
		result, carry, overflow = subWithFlags(a, operand)
	} else {
		result, carry, overflow = addWithFlags(a, operand)
	}
	c.Regs.R[rd] = result
	c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, carry, overflow)
	return 1
}

func (c *CPU) thumbImmediateALU(op uint32) int {
	kind := (op >> 11) & 0x3
	rd := (op >> 8) & 0x7
	imm := op & 0xFF

	a := c.Regs.R[rd]
	switch kind {
	case 0: // MOV
		c.Regs.R[rd] = imm
		c.Regs.SetNZCV(false, imm == 0, c.Regs.C(), c.Regs.V())
	case 1: // CMP
		result, carry, overflow := subWithFlags(a, imm)
		c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, carry, overflow)
	case 2: // ADD
		result, carry, overflow := addWithFlags(a, imm)
		c.Regs.R[rd] = result
		c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, carry, overflow)
	case 3: // SUB
		result, carry, overflow := subWithFlags(a, imm)
		c.Regs.R[rd] = result
		c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, carry, overflow)
	}
	return 1
}

func (c *CPU) thumbALUOp(op uint32) int {
	kind := (op >> 6) & 0xF
	rs := (op >> 3) & 0x7
	rd := op & 0x7
	a := c.Regs.R[rd]
	b := c.Regs.R[rs]

	var result uint32
	var carry, overflow bool
	writes := true
	switch kind {
	case 0x0: // AND
		result = a & b
		carry = c.Regs.C()
	case 0x1: // EOR
		result = a ^ b
		carry = c.Regs.C()
	case 0x2: // LSL (register-specified)
		result, carry = shiftByRegAmount(a, b, 0, c.Regs.C())
	case 0x3: // LSR
		result, carry = shiftByRegAmount(a, b, 1, c.Regs.C())
	case 0x4: // ASR
		result, carry = shiftByRegAmount(a, b, 2, c.Regs.C())
	case 0x5: // ADC
		result, carry, overflow = addWithFlags(a, b+carryInBit(c.Regs.C()))
	case 0x6: // SBC
		result, carry, overflow = subWithFlags(a, b+(1-carryInBit(c.Regs.C())))
	case 0x7: // ROR
		result, carry = shiftByRegAmount(a, b, 3, c.Regs.C())
	case 0x8: // TST
		result = a & b
		carry = c.Regs.C()
		writes = false
	case 0x9: // NEG
		result, carry, overflow = subWithFlags(0, b)
	case 0xA: // CMP
		result, carry, overflow = subWithFlags(a, b)
		writes = false
	case 0xB: // CMN
		result, carry, overflow = addWithFlags(a, b)
		writes = false
	case 0xC: // ORR
		result = a | b
		carry = c.Regs.C()
	case 0xD: // MUL
		result = a * b
		carry = c.Regs.C()
	case 0xE: // BIC
		result = a &^ b
		carry = c.Regs.C()
	case 0xF: // MVN
		result = ^b
		carry = c.Regs.C()
	}
	if writes {
		c.Regs.R[rd] = result
	}
	c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, carry, overflow)
	return 1
}

// shiftByRegAmount implements the register-specified-shift edge cases
// (amount 0 is a no-op; 32 and above saturate), shared by Thumb's ALU
// shift ops.
func shiftByRegAmount(value, amountReg uint32, kind int, carryIn bool) (uint32, bool) {
	amount := amountReg & 0xFF
	if amount == 0 {
		return value, carryIn
	}
	switch kind {
	case 0: // LSL
		if amount < 32 {
			return value << amount, value&(1<<(32-amount)) != 0
		}
		if amount == 32 {
			return 0, value&1 != 0
		}
		return 0, false
	case 1: // LSR
		if amount < 32 {
			return value >> amount, value&(1<<(amount-1)) != 0
		}
		if amount == 32 {
			return 0, value&(1<<31) != 0
		}
		return 0, false
	case 2: // ASR
		if amount >= 32 {
			if value&(1<<31) != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(value) >> amount), value&(1<<(amount-1)) != 0
	default: // ROR
		amount &= 31
		if amount == 0 {
			return value, value&(1<<31) != 0
		}
		return ror32(value, amount), value&(1<<(amount-1)) != 0
	}
}

func (c *CPU) thumbHiRegBX(op uint32) int {
	kind := (op >> 8) & 0x3
	h1 := (op >> 7) & 1
	h2 := (op >> 6) & 1
	rs := ((op>>3)&0x7) | (h2 << 3)
	rd := (op & 0x7) | (h1 << 3)

	switch kind {
	case 0: // ADD
		c.Regs.R[rd] += c.Regs.R[rs]
		if rd == 15 {
			c.Regs.R[15] &^= 1
			c.FlushPipeline()
		}
	case 1: // CMP
		result, carry, overflow := subWithFlags(c.Regs.R[rd], c.Regs.R[rs])
		c.Regs.SetNZCV(result&(1<<31) != 0, result == 0, carry, overflow)
	case 2: // MOV
		c.Regs.R[rd] = c.Regs.R[rs]
		if rd == 15 {
			c.Regs.R[15] &^= 1
			c.FlushPipeline()
		}
	case 3: // BX
		target := c.Regs.R[rs]
		c.Regs.SetThumb(target&1 != 0)
		if target&1 != 0 {
			c.Regs.R[15] = target &^ 1
		} else {
			c.Regs.R[15] = target &^ 3
		}
		c.FlushPipeline()
	}
	return 2
}

func (c *CPU) thumbPCRelativeLoad(bus Bus, op uint32, fetchAddr uint32) int {
	rd := (op >> 8) & 0x7
	word8 := op & 0xFF
	base := (c.pcRead(fetchAddr)) &^ 3
	c.Regs.R[rd] = readRotatedWord(bus, base+word8*4)
	return 3
}

func (c *CPU) thumbLoadStoreRegOffset(bus Bus, op uint32) int {
	load := op&0x0800 != 0
	byteSize := op&0x0400 != 0
	ro := (op >> 6) & 0x7
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.Regs.R[rb] + c.Regs.R[ro]
	if load {
		if byteSize {
			c.Regs.R[rd] = uint32(bus.Read8(addr))
		} else {
			c.Regs.R[rd] = readRotatedWord(bus, addr)
		}
	} else {
		if byteSize {
			bus.Write8(addr, byte(c.Regs.R[rd]))
		} else {
			bus.Write32(addr&^3, c.Regs.R[rd])
		}
	}
	return 2
}

func (c *CPU) thumbLoadStoreSignExt(bus Bus, op uint32) int {
	h := op&0x0800 != 0
	s := op&0x0400 != 0
	ro := (op >> 6) & 0x7
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.Regs.R[rb] + c.Regs.R[ro]

	switch {
	case !s && !h: // STRH
		bus.Write16(addr&^1, uint16(c.Regs.R[rd]))
	case !s && h: // LDRH
		word := bus.Read16(addr &^ 1)
		if addr&1 != 0 {
			word = uint16(ror32(uint32(word), 8))
		}
		c.Regs.R[rd] = uint32(word)
	case s && !h: // LDSB
		c.Regs.R[rd] = uint32(int32(int8(bus.Read8(addr))))
	default: // LDSH
		if addr&1 != 0 {
			c.Regs.R[rd] = uint32(int32(int8(bus.Read8(addr))))
		} else {
			c.Regs.R[rd] = uint32(int32(int16(bus.Read16(addr))))
		}
	}
	return 2
}

func (c *CPU) thumbLoadStoreImmOffset(bus Bus, op uint32) int {
	byteSize := op&0x1000 != 0
	load := op&0x0800 != 0
	offset5 := (op >> 6) & 0x1F
	rb := (op >> 3) & 0x7
	rd := op & 0x7

	var addr uint32
	if byteSize {
		addr = c.Regs.R[rb] + offset5
	} else {
		addr = c.Regs.R[rb] + offset5*4
	}
	if load {
		if byteSize {
			c.Regs.R[rd] = uint32(bus.Read8(addr))
		} else {
			c.Regs.R[rd] = readRotatedWord(bus, addr)
		}
	} else {
		if byteSize {
			bus.Write8(addr, byte(c.Regs.R[rd]))
		} else {
			bus.Write32(addr&^3, c.Regs.R[rd])
		}
	}
	return 2
}

func (c *CPU) thumbLoadStoreHalfword(bus Bus, op uint32) int {
	load := op&0x0800 != 0
	offset5 := (op >> 6) & 0x1F
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.Regs.R[rb] + offset5*2
	if load {
		word := bus.Read16(addr &^ 1)
		if addr&1 != 0 {
			word = uint16(ror32(uint32(word), 8))
		}
		c.Regs.R[rd] = uint32(word)
	} else {
		bus.Write16(addr&^1, uint16(c.Regs.R[rd]))
	}
	return 2
}

func (c *CPU) thumbSPRelativeLoadStore(bus Bus, op uint32) int {
	load := op&0x0800 != 0
	rd := (op >> 8) & 0x7
	word8 := op & 0xFF
	addr := c.Regs.R[13] + word8*4
	if load {
		c.Regs.R[rd] = readRotatedWord(bus, addr)
	} else {
		bus.Write32(addr&^3, c.Regs.R[rd])
	}
	return 2
}

func (c *CPU) thumbLoadAddress(op uint32, fetchAddr uint32) int {
	useSP := op&0x0800 != 0
	rd := (op >> 8) & 0x7
	word8 := op & 0xFF
	var base uint32
	if useSP {
		base = c.Regs.R[13]
	} else {
		base = c.pcRead(fetchAddr) &^ 3
	}
	c.Regs.R[rd] = base + word8*4
	return 1
}

func (c *CPU) thumbAddOffsetToSP(op uint32) int {
	negative := op&0x80 != 0
	word7 := (op & 0x7F) * 4
	if negative {
		c.Regs.R[13] -= word7
	} else {
		c.Regs.R[13] += word7
	}
	return 1
}

func (c *CPU) thumbPushPop(bus Bus, op uint32) int {
	pop := op&0x0800 != 0
	includeExtra := op&0x0100 != 0
	list := op & 0xFF

	if pop {
		sp := c.Regs.R[13]
		for i := 0; i < 8; i++ {
			if list&(1<<i) != 0 {
				c.Regs.R[i] = bus.Read32(sp &^ 3)
				sp += 4
			}
		}
		if includeExtra {
			c.Regs.R[15] = bus.Read32(sp&^3) &^ 1
			sp += 4
			c.FlushPipeline()
		}
		c.Regs.R[13] = sp
		return 3
	}

	sp := c.Regs.R[13]
	count := 0
	for i := 0; i < 8; i++ {
		if list&(1<<i) != 0 {
			count++
		}
	}
	if includeExtra {
		count++
	}
	sp -= uint32(count) * 4
	c.Regs.R[13] = sp
	addr := sp
	for i := 0; i < 8; i++ {
		if list&(1<<i) != 0 {
			bus.Write32(addr&^3, c.Regs.R[i])
			addr += 4
		}
	}
	if includeExtra {
		bus.Write32(addr&^3, c.Regs.R[14])
	}
	return 2
}

func (c *CPU) thumbMultipleLoadStore(bus Bus, op uint32) int {
	load := op&0x0800 != 0
	rb := (op >> 8) & 0x7
	list := op & 0xFF

	addr := c.Regs.R[rb]
	written := false
	for i := 0; i < 8; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			c.Regs.R[i] = bus.Read32(addr &^ 3)
		} else {
			bus.Write32(addr&^3, c.Regs.R[i])
		}
		addr += 4
		written = true
	}
	if written {
		c.Regs.R[rb] = addr
	}
	return 2
}

func (c *CPU) thumbConditionalBranch(op uint32, fetchAddr uint32) int {
	cond := (op >> 8) & 0xF
	if !c.Regs.ConditionHolds(cond) {
		return 1
	}
	offset := op & 0xFF
	if offset&0x80 != 0 {
		offset |= 0xFFFFFF00
	}
	delta := int32(offset) << 1
	c.Regs.R[15] = uint32(int64(c.pcRead(fetchAddr)) + int64(delta))
	c.FlushPipeline()
	return 3
}

func (c *CPU) thumbSWI() int {
	c.swi()
	return 3
}

func (c *CPU) thumbUnconditionalBranch(op uint32, fetchAddr uint32) int {
	offset := op & 0x7FF
	if offset&0x400 != 0 {
		offset |= 0xFFFFF800
	}
	delta := int32(offset) << 1
	c.Regs.R[15] = uint32(int64(c.pcRead(fetchAddr)) + int64(delta))
	c.FlushPipeline()
	return 3
}

func (c *CPU) thumbLongBranchLink(op uint32, fetchAddr uint32, firstHalf bool) int {
	offset11 := op & 0x7FF
	if firstHalf {
		signed := offset11
		if signed&0x400 != 0 {
			signed |= 0xFFFFF800
		}
		c.Regs.R[14] = uint32(int64(c.pcRead(fetchAddr)) + int64(int32(signed)<<12))
		return 1
	}
	next := c.Regs.R[15]
	target := c.Regs.R[14] + offset11<<1
	c.Regs.R[15] = target
	c.Regs.R[14] = (next - 2) | 1
	c.FlushPipeline()
	return 3
}
