package cpu

// ror32 rotates v right by n bits (n taken mod 32); n==0 is a no-op,
// matching Go's shift-by-zero semantics.
func ror32(v, n uint32) uint32 {
	n &= 31
	if n == 0 {
		return v
	}
	return (v >> n) | (v << (32 - n))
}

// shiftedOperand computes the data-processing operand2 and its
// shifter carry-out, implementing spec.md §4.2's edge cases for shift
// amount 0/32/>32 under each of the four shift types, for both an
// immediate 5-bit amount and a register-specified amount (low byte of
// another register).
func (c *CPU) shiftedOperand(op uint32) (value uint32, carryOut bool) {
	if op&(1<<25) != 0 {
		imm := op & 0xFF
		rotate := (op >> 8) & 0xF
		if rotate == 0 {
			return imm, c.Regs.C()
		}
		rotated := ror32(imm, rotate*2)
		return rotated, rotated&(1<<31) != 0
	}

	rm := op & 0xF
	shiftType := (op >> 5) & 0x3
	var amount uint32
	byRegister := op&(1<<4) != 0
	if byRegister {
		rs := (op >> 8) & 0xF
		amount = c.Regs.R[rs] & 0xFF
	} else {
		amount = (op >> 7) & 0x1F
	}

	rmVal := c.Regs.R[rm]
	if byRegister && rm == 15 {
		rmVal += 4 // register-specified shift reads PC with the extra pipeline cycle folded in
	}
	carryIn := c.Regs.C()

	switch shiftType {
	case 0: // LSL
		if amount == 0 {
			return rmVal, carryIn
		}
		if amount < 32 {
			return rmVal << amount, rmVal&(1<<(32-amount)) != 0
		}
		if amount == 32 {
			return 0, rmVal&1 != 0
		}
		return 0, false
	case 1: // LSR
		if amount == 0 {
			if byRegister {
				return rmVal, carryIn
			}
			amount = 32
		}
		if amount < 32 {
			return rmVal >> amount, rmVal&(1<<(amount-1)) != 0
		}
		if amount == 32 {
			return 0, rmVal&(1<<31) != 0
		}
		return 0, false
	case 2: // ASR
		if amount == 0 {
			if byRegister {
				return rmVal, carryIn
			}
			amount = 32
		}
		if amount >= 32 {
			if rmVal&(1<<31) != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(rmVal) >> amount), rmVal&(1<<(amount-1)) != 0
	default: // ROR / RRX
		if amount == 0 {
			if byRegister {
				return rmVal, carryIn
			}
			// RRX: rotate right by 1 through the carry flag.
			var ci uint32
			if carryIn {
				ci = 1
			}
			result := (rmVal >> 1) | (ci << 31)
			return result, rmVal&1 != 0
		}
		amount &= 31
		if amount == 0 {
			return rmVal, rmVal&(1<<31) != 0
		}
		return ror32(rmVal, amount), rmVal&(1<<(amount-1)) != 0
	}
}
