package ppu

// layerKind indexes BLDCNT's six blend targets: BG0-3, OBJ, backdrop.
const (
	layerBG0 = iota
	layerBG1
	layerBG2
	layerBG3
	layerOBJ
	layerBackdrop
)

type candidate struct {
	kind            int
	priority        byte
	color           uint16
	semiTransparent bool
}

// renderScanline composites one line of the framebuffer from the
// background, sprite, window, and blend stages (spec.md §4.6).
func (p *PPU) renderScanline(sig Signals) {
	lineBase := p.Line * ScreenWidth
	backdrop := sig.PaletteWord(0)

	if p.forceBlank {
		for x := 0; x < ScreenWidth; x++ {
			p.fb[lineBase+x] = 0x7FFF
		}
		return
	}

	var bgLines [4][ScreenWidth]bgPixel
	for i := 0; i < 4; i++ {
		if p.bgEnabled[i] && p.bgModeActive(i) {
			bgLines[i] = p.renderBGLine(i, sig)
		}
	}
	spriteLine, objWinHit := p.renderSpriteLine(sig)

	var candBuf [5]candidate // OBJ plus BG0-3, the most one pixel can have
	for x := 0; x < ScreenWidth; x++ {
		mask := p.maskFor(x, objWinHit[x])

		cands := candBuf[:0]
		if p.objEnabled && mask.obj && spriteLine[x].opaque {
			cands = append(cands, candidate{
				kind: layerOBJ, priority: spriteLine[x].priority,
				color: spriteLine[x].color, semiTransparent: spriteLine[x].semiTransparent,
			})
		}
		for i := 0; i < 4; i++ {
			if p.bgEnabled[i] && p.bgModeActive(i) && mask.bg[i] && bgLines[i][x].opaque {
				cands = append(cands, candidate{kind: i, priority: p.bg[i].priority, color: bgLines[i][x].color})
			}
		}
		sortCandidates(cands)

		top := candidate{kind: layerBackdrop, color: backdrop}
		second := top
		if len(cands) > 0 {
			top = cands[0]
		}
		if len(cands) > 1 {
			second = cands[1]
		}

		final := top.color
		switch {
		case top.semiTransparent && p.bldTargetB[second.kind]:
			final = blendAlpha(top.color, second.color, p.eva, p.evb)
		case p.blendMode == 1 && p.bldTargetA[top.kind] && p.bldTargetB[second.kind] && mask.blend:
			final = blendAlpha(top.color, second.color, p.eva, p.evb)
		case p.blendMode == 2 && p.bldTargetA[top.kind] && mask.blend:
			final = blendBrighten(top.color, p.bwFade)
		case p.blendMode == 3 && p.bldTargetA[top.kind] && mask.blend:
			final = blendDarken(top.color, p.bwFade)
		}

		p.fb[lineBase+x] = final
	}
}

// sortCandidates orders layers front-to-back: lower priority value
// wins, and at equal priority OBJ is drawn above BG (spec.md §4.6).
func sortCandidates(c []candidate) {
	for i := 1; i < len(c); i++ {
		j := i
		for j > 0 && less(c[j], c[j-1]) {
			c[j], c[j-1] = c[j-1], c[j]
			j--
		}
	}
}

func less(a, b candidate) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.kind == layerOBJ && b.kind != layerOBJ
}
