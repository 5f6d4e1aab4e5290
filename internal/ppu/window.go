package ppu

// windowRect holds one window's horizontal/vertical bounds; ranges
// wrap modulo 256 when left > right (spec.md §4.6).
type windowRect struct {
	x1, x2 byte
	y1, y2 byte
}

func (w windowRect) containsX(x int) bool {
	return inRangeWrap(byte(x), w.x1, w.x2)
}

func (w windowRect) containsY(y int) bool {
	return inRangeWrap(byte(y), w.y1, w.y2)
}

func inRangeWrap(v, lo, hi byte) bool {
	if lo <= hi {
		return v >= lo && v < hi
	}
	return v >= lo || v < hi
}

// windowLayerMask is WININ/WINOUT's per-window enable set: BG0-3, OBJ,
// and whether blending is permitted inside this window.
type windowLayerMask struct {
	bg    [4]bool
	obj   bool
	blend bool
}

func allEnabledMask() windowLayerMask {
	return windowLayerMask{bg: [4]bool{true, true, true, true}, obj: true, blend: true}
}

// maskFor resolves which WININ/WINOUT/WINOBJ mask governs pixel x on
// the current line, honoring priority win0 > win1 > winobj > winout,
// and whether any windowing is active at all.
func (p *PPU) maskFor(x int, objWindowHit bool) windowLayerMask {
	anyWindow := p.win0Enabled || p.win1Enabled || p.winObjEnabled
	if !anyWindow {
		return allEnabledMask()
	}
	if p.win0Enabled && p.win0.containsY(p.Line) && p.win0.containsX(x) {
		return p.winIn
	}
	if p.win1Enabled && p.win1.containsY(p.Line) && p.win1.containsX(x) {
		return p.win1Mask
	}
	if p.winObjEnabled && objWindowHit {
		return p.winObjMask
	}
	return p.winOut
}
