package ppu

// bgPixel is one background layer's contribution to a scanline pixel.
type bgPixel struct {
	color  uint16
	opaque bool
}

// renderBGLine dispatches to the regular-tile, affine-tile, or bitmap
// renderer appropriate for the current BG mode and layer index
// (spec.md §4.6's five background modes).
func (p *PPU) renderBGLine(i int, sig Signals) [ScreenWidth]bgPixel {
	switch p.bgMode {
	case 0:
		return p.renderRegularLine(i, sig)
	case 1:
		if i == 2 {
			return p.renderAffineLine(i, sig)
		}
		return p.renderRegularLine(i, sig)
	case 2:
		return p.renderAffineLine(i, sig)
	case 3:
		return p.renderBitmap16Line(sig, 0, ScreenWidth, ScreenHeight)
	case 4:
		return p.renderBitmap8Line(sig, uint32(p.frameSelect)*0xA000)
	case 5:
		return p.renderBitmap16Line(sig, uint32(p.frameSelect)*0xA000, 160, 128)
	}
	var out [ScreenWidth]bgPixel
	return out
}

// bgModeActive reports whether layer i participates in the current
// BG mode at all (mode 2 only exposes BG2/BG3, bitmap modes only BG2).
func (p *PPU) bgModeActive(i int) bool {
	switch p.bgMode {
	case 0:
		return true
	case 1:
		return i <= 2
	case 2:
		return i == 2 || i == 3
	case 3, 4, 5:
		return i == 2
	}
	return false
}

func tiledSizeInTiles(size byte, affine bool) (w, h int) {
	if affine {
		n := 16 << uint(size)
		return n, n
	}
	switch size {
	case 0:
		return 32, 32
	case 1:
		return 64, 32
	case 2:
		return 32, 64
	default:
		return 64, 64
	}
}

func (p *PPU) renderRegularLine(i int, sig Signals) [ScreenWidth]bgPixel {
	var out [ScreenWidth]bgPixel
	l := &p.bg[i]
	wTiles, hTiles := tiledSizeInTiles(l.size, false)
	widthPx, heightPx := wTiles*8, hTiles*8

	bgY := (p.Line + int(l.vofs)) % heightPx
	if bgY < 0 {
		bgY += heightPx
	}
	tileY := bgY / 8

	for x := 0; x < ScreenWidth; x++ {
		bgX := (x + int(l.hofs)) % widthPx
		if bgX < 0 {
			bgX += widthPx
		}
		tileX := bgX / 8

		blockOffset := uint32(0)
		localTileX, localTileY := tileX, tileY
		switch l.size {
		case 1:
			if tileX >= 32 {
				blockOffset = 0x800
				localTileX -= 32
			}
		case 2:
			if tileY >= 32 {
				blockOffset = 0x800
				localTileY -= 32
			}
		case 3:
			sb := (tileY/32)*2 + tileX/32
			blockOffset = uint32(sb) * 0x800
			localTileX %= 32
			localTileY %= 32
		}

		entryAddr := l.mapBase + blockOffset + uint32(localTileY*32+localTileX)*2
		entry := uint16(sig.VRAM8(entryAddr)) | uint16(sig.VRAM8(entryAddr+1))<<8
		tileNum := entry & 0x3FF
		hflip := entry&(1<<10) != 0
		vflip := entry&(1<<11) != 0
		palette := byte((entry >> 12) & 0xF)

		px, py := bgX%8, bgY%8
		if hflip {
			px = 7 - px
		}
		if vflip {
			py = 7 - py
		}

		var colorIndex byte
		if l.bpp8 {
			addr := l.charBase + uint32(tileNum)*64 + uint32(py*8+px)
			colorIndex = sig.VRAM8(addr)
		} else {
			addr := l.charBase + uint32(tileNum)*32 + uint32(py*4+px/2)
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
		var palIndex uint32
		if l.bpp8 {
			palIndex = uint32(colorIndex)
		} else {
			palIndex = uint32(palette)*16 + uint32(colorIndex)
		}
		out[x] = bgPixel{color: sig.PaletteWord(palIndex * 2), opaque: true}
	}
	return out
}

func (p *PPU) renderAffineLine(i int, sig Signals) [ScreenWidth]bgPixel {
	var out [ScreenWidth]bgPixel
	l := &p.bg[i]
	sizeTiles, _ := tiledSizeInTiles(l.size, true)
	sizePx := sizeTiles * 8

	for x := 0; x < ScreenWidth; x++ {
		tx := (l.refX + int32(l.pa)*int32(x) + int32(l.pb)*int32(p.Line)) >> 8
		ty := (l.refY + int32(l.pc)*int32(x) + int32(l.pd)*int32(p.Line)) >> 8

		if l.wrap {
			tx = wrapCoord(tx, sizePx)
			ty = wrapCoord(ty, sizePx)
		} else if tx < 0 || ty < 0 || int(tx) >= sizePx || int(ty) >= sizePx {
			continue
		}

		tileX, tileY := int(tx)/8, int(ty)/8
		entryAddr := l.mapBase + uint32(tileY*sizeTiles+tileX)
		tileNum := sig.VRAM8(entryAddr)
		px, py := int(tx)%8, int(ty)%8
		addr := l.charBase + uint32(tileNum)*64 + uint32(py*8+px)
		colorIndex := sig.VRAM8(addr)
		if colorIndex == 0 {
			continue
		}
		out[x] = bgPixel{color: sig.PaletteWord(uint32(colorIndex) * 2), opaque: true}
	}
	return out
}

func wrapCoord(v int32, size int) int32 {
	m := v % int32(size)
	if m < 0 {
		m += int32(size)
	}
	return m
}

func (p *PPU) renderBitmap16Line(sig Signals, base uint32, w, h int) [ScreenWidth]bgPixel {
	var out [ScreenWidth]bgPixel
	if p.Line >= h {
		return out
	}
	for x := 0; x < w && x < ScreenWidth; x++ {
		addr := base + uint32(p.Line*w+x)*2
		color := uint16(sig.VRAM8(addr)) | uint16(sig.VRAM8(addr+1))<<8
		out[x] = bgPixel{color: color, opaque: true}
	}
	return out
}

func (p *PPU) renderBitmap8Line(sig Signals, base uint32) [ScreenWidth]bgPixel {
	var out [ScreenWidth]bgPixel
	for x := 0; x < ScreenWidth; x++ {
		addr := base + uint32(p.Line*ScreenWidth+x)
		colorIndex := sig.VRAM8(addr)
		if colorIndex == 0 {
			continue
		}
		out[x] = bgPixel{color: sig.PaletteWord(uint32(colorIndex) * 2), opaque: true}
	}
	return out
}
