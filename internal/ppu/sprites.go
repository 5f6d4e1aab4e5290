package ppu

const objCharBase = 0x10000 // OBJ tile data always starts at VRAM+0x10000

var spriteDims = [3][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},
}

type spritePixel struct {
	opaque          bool
	color           uint16
	priority        byte
	semiTransparent bool
}

func oamRead16(sig Signals, addr uint32) uint16 {
	return uint16(sig.OAM8(addr)) | uint16(sig.OAM8(addr+1))<<8
}

// renderSpriteLine evaluates all 128 OAM entries against the current
// scanline (spec.md §4.6), returning the visible sprite pixel per
// column plus the OBJ-window hit mask sprites in graphics mode 2 mark.
func (p *PPU) renderSpriteLine(sig Signals) ([ScreenWidth]spritePixel, [ScreenWidth]bool) {
	var line [ScreenWidth]spritePixel
	var winHit [ScreenWidth]bool
	if !p.objEnabled {
		return line, winHit
	}

	for e := 0; e < 128; e++ {
		base := uint32(e * 8)
		attr0 := oamRead16(sig, base)
		attr1 := oamRead16(sig, base+2)
		attr2 := oamRead16(sig, base+4)

		affine := attr0&(1<<8) != 0
		if !affine && attr0&(1<<9) != 0 {
			continue // disabled
		}
		mode := byte((attr0 >> 10) & 0x3)
		if mode == 3 {
			continue // prohibited: emits no pixel
		}
		shape := (attr0 >> 14) & 0x3
		if shape == 3 {
			continue
		}
		size := byte((attr1 >> 14) & 0x3)
		dims := spriteDims[shape][size]
		w, h := dims[0], dims[1]

		doubleSize := affine && attr0&(1<<9) != 0
		boundsW, boundsH := w, h
		if doubleSize {
			boundsW, boundsH = w*2, h*2
		}

		y := int(attr0 & 0xFF)
		if y >= ScreenHeight {
			y -= 256
		}
		localY := p.Line - y
		if localY < 0 || localY >= boundsH {
			continue
		}

		x0 := int(attr1 & 0x1FF)
		if x0 >= 256 {
			x0 -= 512
		}

		bpp8 := attr0&(1<<13) != 0
		hflip := !affine && attr1&(1<<12) != 0
		vflip := !affine && attr1&(1<<13) != 0
		baseTile := attr2 & 0x3FF
		priority := byte((attr2 >> 10) & 0x3)
		palette := byte((attr2 >> 12) & 0xF)

		var pa, pb, pc, pd int32 = 256, 0, 0, 256
		if affine {
			group := int(attr1>>9) & 0x1F
			pa = int32(int16(oamRead16(sig, uint32(group*4+0)*8+6)))
			pb = int32(int16(oamRead16(sig, uint32(group*4+1)*8+6)))
			pc = int32(int16(oamRead16(sig, uint32(group*4+2)*8+6)))
			pd = int32(int16(oamRead16(sig, uint32(group*4+3)*8+6)))
		}

		tilesWide := w / 8

		for dx := 0; dx < boundsW; dx++ {
			screenX := x0 + dx
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}

			var texX, texY int
			if affine {
				cx, cy := boundsW/2, boundsH/2
				difX, difY := int32(dx-cx), int32(localY-cy)
				tx := (pa*difX+pb*difY)>>8 + int32(w/2)
				ty := (pc*difX+pd*difY)>>8 + int32(h/2)
				if tx < 0 || ty < 0 || int(tx) >= w || int(ty) >= h {
					continue
				}
				texX, texY = int(tx), int(ty)
			} else {
				texX, texY = dx, localY
				if hflip {
					texX = w - 1 - texX
				}
				if vflip {
					texY = h - 1 - texY
				}
			}

			rowTile, colTile := texY/8, texX/8
			var tileNumber int
			if p.objMapping1D {
				units := rowTile*tilesWide + colTile
				if bpp8 {
					units *= 2
				}
				tileNumber = int(baseTile) + units
			} else {
				stride := colTile
				if bpp8 {
					stride *= 2
				}
				tileNumber = int(baseTile) + rowTile*32 + stride
			}

			px, py := texX%8, texY%8
			var colorIndex byte
			if bpp8 {
				addr := uint32(objCharBase) + uint32(tileNumber)*32 + uint32(py*8+px)
				colorIndex = sig.VRAM8(addr)
			} else {
				addr := uint32(objCharBase) + uint32(tileNumber)*32 + uint32(py*4+px/2)
				b := sig.VRAM8(addr)
				if px%2 == 0 {
					colorIndex = b & 0xF
				} else {
					colorIndex = b >> 4
				}
			}
			if colorIndex == 0 {
				continue
			}

			if mode == 2 {
				winHit[screenX] = true
				continue
			}
			if line[screenX].opaque && line[screenX].priority <= priority {
				continue
			}
			var palAddr uint32
			if bpp8 {
				palAddr = 0x200 + uint32(colorIndex)*2
			} else {
				palAddr = 0x200 + (uint32(palette)*16+uint32(colorIndex))*2
			}
			line[screenX] = spritePixel{
				opaque:          true,
				color:           sig.PaletteWord(palAddr),
				priority:        priority,
				semiTransparent: mode == 1,
			}
		}
	}
	return line, winHit
}
