package ppu

// The Bus forwards writes to the display-control I/O addresses here
// directly, the same pattern internal/timer and internal/dma use: a
// narrow set of WriteX methods instead of the PPU reading the Bus's
// raw register bytes itself.

func (p *PPU) WriteDISPCNT(v uint16) {
	p.bgMode = int(v & 0x7)
	p.frameSelect = int((v >> 4) & 1)
	p.objMapping1D = v&(1<<6) != 0
	p.forceBlank = v&(1<<7) != 0
	for i := 0; i < 4; i++ {
		p.bgEnabled[i] = v&(1<<(8+i)) != 0
	}
	p.objEnabled = v&(1<<12) != 0
	p.win0Enabled = v&(1<<13) != 0
	p.win1Enabled = v&(1<<14) != 0
	p.winObjEnabled = v&(1<<15) != 0
}

func (p *PPU) WriteDISPSTAT(v uint16) {
	p.vblankIRQEnable = v&(1<<3) != 0
	p.hblankIRQEnable = v&(1<<4) != 0
	p.vcountIRQEnable = v&(1<<5) != 0
	p.vcountSetting = byte(v >> 8)
}

func (p *PPU) WriteBGCNT(bg int, v uint16) {
	l := &p.bg[bg]
	l.priority = byte(v & 0x3)
	l.charBase = uint32((v>>2)&0x3) * 0x4000
	l.wrap = v&(1<<13) != 0
	l.mapBase = uint32((v>>8)&0x1F) * 0x800
	l.bpp8 = v&(1<<7) != 0
	l.size = byte((v >> 14) & 0x3)
}

func (p *PPU) WriteBGHOFS(bg int, v uint16) { p.bg[bg].hofs = v & 0x1FF }
func (p *PPU) WriteBGVOFS(bg int, v uint16) { p.bg[bg].vofs = v & 0x1FF }

func (p *PPU) WriteBGAffineParam(bg int, which int, v uint16) {
	l := &p.bg[bg]
	switch which {
	case 0:
		l.pa = int16(v)
	case 1:
		l.pb = int16(v)
	case 2:
		l.pc = int16(v)
	case 3:
		l.pd = int16(v)
	}
}

func (p *PPU) WriteBGAffineRef(bg int, which int, v uint32, high bool) {
	l := &p.bg[bg]
	var ref *int32
	if which == 0 {
		ref = &l.refX
	} else {
		ref = &l.refY
	}
	if high {
		*ref = (*ref & 0xFFFF) | (int32(v) << 16)
		// sign-extend the 28-bit fixed-point reference value
		*ref = (*ref << 4) >> 4
	} else {
		*ref = (*ref &^ 0xFFFF) | int32(v&0xFFFF)
	}
}

func (p *PPU) WriteWin0H(v uint16)  { p.win0.x1, p.win0.x2 = byte(v>>8), byte(v) }
func (p *PPU) WriteWin1H(v uint16)  { p.win1.x1, p.win1.x2 = byte(v>>8), byte(v) }
func (p *PPU) WriteWin0V(v uint16)  { p.win0.y1, p.win0.y2 = byte(v>>8), byte(v) }
func (p *PPU) WriteWin1V(v uint16)  { p.win1.y1, p.win1.y2 = byte(v>>8), byte(v) }

func (p *PPU) WriteWinIn(v uint16) {
	p.winIn = decodeWinMask(byte(v))
	p.win1Mask = decodeWinMask(byte(v >> 8))
}

func (p *PPU) WriteWinOut(v uint16) {
	p.winOut = decodeWinMask(byte(v))
	p.winObjMask = decodeWinMask(byte(v >> 8))
}

func decodeWinMask(v byte) windowLayerMask {
	var m windowLayerMask
	for i := 0; i < 4; i++ {
		m.bg[i] = v&(1<<i) != 0
	}
	m.obj = v&(1<<4) != 0
	m.blend = v&(1<<5) != 0
	return m
}

func (p *PPU) WriteBLDCNT(v uint16) {
	for i := 0; i < 6; i++ {
		p.bldTargetA[i] = v&(1<<i) != 0
	}
	p.blendMode = int((v >> 6) & 0x3)
	for i := 0; i < 6; i++ {
		p.bldTargetB[i] = v&(1<<(8+i)) != 0
	}
}

func (p *PPU) WriteBLDAlpha(v uint16) {
	p.eva = byte(v & 0x1F)
	p.evb = byte((v >> 8) & 0x1F)
}

func (p *PPU) WriteBLDY(v uint16) { p.bwFade = byte(v & 0x1F) }
