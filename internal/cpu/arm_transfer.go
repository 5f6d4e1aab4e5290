package cpu

// armSingleTransfer implements LDR/STR with byte or word size, immediate
// or shifted-register offsets, and ARM's rotate-on-unaligned-word-load
// semantics (spec.md §4.2).
func (c *CPU) armSingleTransfer(bus Bus, op uint32, fetchAddr uint32) int {
	immediateOffset := op&(1<<25) == 0
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	byteSize := op&(1<<22) != 0
	writeback := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF

	var offset uint32
	if immediateOffset {
		offset = op & 0xFFF
	} else {
		offset, _ = c.shiftedOperand(op &^ (1 << 25) &^ (1 << 4))
	}

	base := c.Regs.R[rn]
	if rn == 15 {
		base = c.pcRead(fetchAddr)
	}
	addr := base
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if load {
		var value uint32
		if byteSize {
			value = uint32(bus.Read8(addr))
		} else {
			value = readRotatedWord(bus, addr)
		}
		c.writeBackAddr(rn, base, offset, up, pre, writeback)
		c.Regs.R[rd] = value
		if rd == 15 {
			c.Regs.R[15] &^= 3
			c.FlushPipeline()
			return 5
		}
		return 3
	}

	storeVal := c.Regs.R[rd]
	if rd == 15 {
		storeVal = c.pcRead(fetchAddr) + 4
	}
	if byteSize {
		bus.Write8(addr, byte(storeVal))
	} else {
		bus.Write32(addr&^3, storeVal)
	}
	c.writeBackAddr(rn, base, offset, up, pre, writeback)
	return 2
}

func (c *CPU) writeBackAddr(rn, base, offset uint32, up, pre, writeback bool) {
	if pre && !writeback {
		return
	}
	if up {
		c.Regs.R[rn] = base + offset
	} else {
		c.Regs.R[rn] = base - offset
	}
}

// armHalfwordTransfer implements LDRH/STRH/LDRSB/LDRSH with immediate
// or register offsets (spec.md §4.2's odd-address rotate/sign-extend
// rules).
func (c *CPU) armHalfwordTransfer(bus Bus, op uint32, fetchAddr uint32) int {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	immForm := op&(1<<22) != 0
	writeback := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF
	sh := (op >> 5) & 0x3

	var offset uint32
	if immForm {
		offset = ((op >> 4) & 0xF0) | (op & 0xF)
	} else {
		offset = c.Regs.R[op&0xF]
	}

	base := c.Regs.R[rn]
	addr := base
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if load {
		var value uint32
		switch sh {
		case 1: // unsigned halfword
			value = uint32(bus.Read16(addr &^ 1))
			if addr&1 != 0 {
				value = ror32(value, 8)
			}
		case 2: // signed byte
			value = uint32(int32(int8(bus.Read8(addr))))
		case 3: // signed halfword
			if addr&1 != 0 {
				value = uint32(int32(int8(bus.Read8(addr))))
			} else {
				value = uint32(int32(int16(bus.Read16(addr))))
			}
		}
		c.writeBackAddr(rn, base, offset, up, pre, writeback)
		c.Regs.R[rd] = value
		return 3
	}

	bus.Write16(addr&^1, uint16(c.Regs.R[rd]))
	c.writeBackAddr(rn, base, offset, up, pre, writeback)
	return 2
}

// armBlockTransfer implements LDM/STM including the S-bit's user-bank
// and SPSR-restore forms (spec.md §4.2).
func (c *CPU) armBlockTransfer(bus Bus, op uint32) int {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	sBit := op&(1<<22) != 0
	writeback := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := (op >> 16) & 0xF
	list := op & 0xFFFF

	count := 0
	for i := 0; i < 16; i++ {
		if list&(1<<i) != 0 {
			count++
		}
	}
	if count == 0 {
		return 1 // spec.md §7: empty register list is a decoder invariant; proceed conservatively
	}

	base := c.Regs.R[rn]
	var start uint32
	if up {
		start = base
	} else {
		start = base - uint32(count)*4
	}
	addr := start
	if (up && pre) || (!up && !pre) {
		addr += 4
	}

	userBank := sBit && !(load && list&(1<<15) != 0)
	r15InList := list&(1<<15) != 0

	first := true
	for i := 0; i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			v := bus.Read32(addr &^ 3)
			if userBank {
				c.writeUserReg(i, v)
			} else {
				c.Regs.R[i] = v
			}
		} else {
			v := c.regForStore(i, userBank)
			bus.Write32(addr&^3, v)
		}
		if first && writeback {
			if up {
				c.Regs.R[rn] = base + uint32(count)*4
			} else {
				c.Regs.R[rn] = base - uint32(count)*4
			}
			first = false
		}
		addr += 4
	}

	if load && r15InList {
		if sBit && c.Regs.HasSPSR() {
			c.Regs.CPSR = *c.Regs.SPSR()
		}
		c.Regs.R[15] &^= 3
		c.FlushPipeline()
		return count + 3
	}
	return count + 1
}

func (c *CPU) regForStore(i int, userBank bool) uint32 {
	if !userBank {
		return c.Regs.R[i]
	}
	return c.readUserReg(i)
}

// readUserReg/writeUserReg access the USR-bank copy of r8-r14 even
// when the CPU is currently in a different mode, per spec.md §4.2's
// "user-mode banking is used for the register read/write" rule for
// S-bit block transfers without R15 in the list.
func (c *CPU) readUserReg(i int) uint32 {
	if i < 8 || i == 15 {
		return c.Regs.R[i]
	}
	cur := c.Regs.Mode()
	if cur == ModeUSR || cur == ModeSYS {
		return c.Regs.R[i]
	}
	saved := c.Regs.CPSR
	c.Regs.SetMode(ModeSYS)
	v := c.Regs.R[i]
	c.Regs.SetMode(Mode(saved & 0x1F))
	return v
}

func (c *CPU) writeUserReg(i int, v uint32) {
	if i < 8 || i == 15 {
		c.Regs.R[i] = v
		return
	}
	cur := c.Regs.Mode()
	if cur == ModeUSR || cur == ModeSYS {
		c.Regs.R[i] = v
		return
	}
	saved := c.Regs.CPSR
	c.Regs.SetMode(ModeSYS)
	c.Regs.R[i] = v
	c.Regs.SetMode(Mode(saved & 0x1F))
}
