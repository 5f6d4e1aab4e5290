package cpu

// executeThumb decodes and executes a 16-bit Thumb instruction using
// spec.md §4.2's "16-way switch on bits 12-15 with refinements" order.
func (c *CPU) executeThumb(bus Bus, op uint32, fetchAddr uint32) int {
	switch (op >> 12) & 0xF {
	case 0x0, 0x1:
		if op&0x1800 == 0x1800 {
			return c.thumbAddSub(op)
		}
		return c.thumbMoveShifted(op)
	case 0x2, 0x3:
		return c.thumbImmediateALU(op)
	case 0x4:
		switch {
		case op&0x1C00 == 0x0000:
			return c.thumbALUOp(op)
		case op&0x1C00 == 0x0400:
			return c.thumbHiRegBX(op)
		default:
			return c.thumbPCRelativeLoad(bus, op, fetchAddr)
		}
	case 0x5:
		if op&0x0200 != 0 {
			return c.thumbLoadStoreSignExt(bus, op)
		}
		return c.thumbLoadStoreRegOffset(bus, op)
	case 0x6, 0x7:
		return c.thumbLoadStoreImmOffset(bus, op)
	case 0x8:
		return c.thumbLoadStoreHalfword(bus, op)
	case 0x9:
		return c.thumbSPRelativeLoadStore(bus, op)
	case 0xA:
		return c.thumbLoadAddress(op, fetchAddr)
	case 0xB:
		switch {
		case op&0x0F00 == 0x0000:
			return c.thumbAddOffsetToSP(op)
		case op&0x0600 == 0x0400:
			return c.thumbPushPop(bus, op)
		default:
			return 1
		}
	case 0xC:
		return c.thumbMultipleLoadStore(bus, op)
	case 0xD:
		if op&0x0F00 == 0x0F00 {
			return c.thumbSWI()
		}
		return c.thumbConditionalBranch(op, fetchAddr)
	case 0xE:
		return c.thumbUnconditionalBranch(op, fetchAddr)
	case 0xF:
		firstHalf := op&0x0800 == 0
		return c.thumbLongBranchLink(op, fetchAddr, firstHalf)
	}
	return 1
}
