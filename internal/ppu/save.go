package ppu

import (
	"bytes"
	"encoding/gob"
)

// bgLayerState, windowRectState, and windowLayerMaskState mirror their
// unexported package-level counterparts field-for-field: gob only
// transmits a struct's exported fields, so every nested private type
// needs its own exported shadow the same way bus's busState shadows
// the Bus's own private region/register fields.
type bgLayerState struct {
	Priority   byte
	CharBase   uint32
	MapBase    uint32
	Bpp8       bool
	Size       byte
	Wrap       bool
	Hofs, Vofs uint16
	Pa, Pb, Pc, Pd int16
	RefX, RefY     int32
}

type windowRectState struct {
	X1, X2 byte
	Y1, Y2 byte
}

type windowLayerMaskState struct {
	BG    [4]bool
	Obj   bool
	Blend bool
}

type ppuState struct {
	Line, Dot int
	Phase     phase
	FrameCount int
	SkipCount  int

	BGMode        int
	FrameSelect   int
	ObjMapping1D  bool
	ForceBlank    bool
	BGEnabled     [4]bool
	ObjEnabled    bool
	Win0Enabled   bool
	Win1Enabled   bool
	WinObjEnabled bool

	VBlankIRQEnable bool
	HBlankIRQEnable bool
	VCountIRQEnable bool
	VCountSetting   byte

	BG [4]bgLayerState

	Win0, Win1         windowRectState
	WinIn, Win1Mask    windowLayerMaskState
	WinOut, WinObjMask windowLayerMaskState

	BlendMode  int
	BldTargetA [6]bool
	BldTargetB [6]bool
	Eva, Evb   byte
	BwFade     byte

	Framebuffer []uint16
}

// SaveState gob-encodes every register and the live framebuffer; the
// InterruptRequester callback and precomputed compositor scratch
// buffers (front/back) are Machine wiring and per-scanline scratch
// space respectively, neither of which is state to restore.
func (p *PPU) SaveState() []byte {
	s := ppuState{
		Line: p.Line, Dot: p.dot, Phase: p.ph,
		FrameCount: p.frameCount, SkipCount: p.skipCount,
		BGMode: p.bgMode, FrameSelect: p.frameSelect, ObjMapping1D: p.objMapping1D,
		ForceBlank: p.forceBlank, BGEnabled: p.bgEnabled, ObjEnabled: p.objEnabled,
		Win0Enabled: p.win0Enabled, Win1Enabled: p.win1Enabled, WinObjEnabled: p.winObjEnabled,
		VBlankIRQEnable: p.vblankIRQEnable, HBlankIRQEnable: p.hblankIRQEnable,
		VCountIRQEnable: p.vcountIRQEnable, VCountSetting: p.vcountSetting,
		Win0: windowRectState{p.win0.x1, p.win0.x2, p.win0.y1, p.win0.y2},
		Win1: windowRectState{p.win1.x1, p.win1.x2, p.win1.y1, p.win1.y2},
		WinIn: windowLayerMaskState{p.winIn.bg, p.winIn.obj, p.winIn.blend},
		Win1Mask: windowLayerMaskState{p.win1Mask.bg, p.win1Mask.obj, p.win1Mask.blend},
		WinOut: windowLayerMaskState{p.winOut.bg, p.winOut.obj, p.winOut.blend},
		WinObjMask: windowLayerMaskState{p.winObjMask.bg, p.winObjMask.obj, p.winObjMask.blend},
		BlendMode: p.blendMode, BldTargetA: p.bldTargetA, BldTargetB: p.bldTargetB,
		Eva: p.eva, Evb: p.evb, BwFade: p.bwFade,
		Framebuffer: append([]uint16(nil), p.fb[:]...),
	}
	for i, bg := range p.bg {
		s.BG[i] = bgLayerState{
			Priority: bg.priority, CharBase: bg.charBase, MapBase: bg.mapBase,
			Bpp8: bg.bpp8, Size: bg.size, Wrap: bg.wrap,
			Hofs: bg.hofs, Vofs: bg.vofs,
			Pa: bg.pa, Pb: bg.pb, Pc: bg.pc, Pd: bg.pd,
			RefX: bg.refX, RefY: bg.refY,
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil
	}
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState.
func (p *PPU) LoadState(data []byte) error {
	var s ppuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	p.Line, p.dot, p.ph = s.Line, s.Dot, s.Phase
	p.frameCount, p.skipCount = s.FrameCount, s.SkipCount
	p.bgMode, p.frameSelect, p.objMapping1D = s.BGMode, s.FrameSelect, s.ObjMapping1D
	p.forceBlank, p.bgEnabled, p.objEnabled = s.ForceBlank, s.BGEnabled, s.ObjEnabled
	p.win0Enabled, p.win1Enabled, p.winObjEnabled = s.Win0Enabled, s.Win1Enabled, s.WinObjEnabled
	p.vblankIRQEnable, p.hblankIRQEnable = s.VBlankIRQEnable, s.HBlankIRQEnable
	p.vcountIRQEnable, p.vcountSetting = s.VCountIRQEnable, s.VCountSetting
	p.win0 = windowRect{s.Win0.X1, s.Win0.X2, s.Win0.Y1, s.Win0.Y2}
	p.win1 = windowRect{s.Win1.X1, s.Win1.X2, s.Win1.Y1, s.Win1.Y2}
	p.winIn = windowLayerMask{s.WinIn.BG, s.WinIn.Obj, s.WinIn.Blend}
	p.win1Mask = windowLayerMask{s.Win1Mask.BG, s.Win1Mask.Obj, s.Win1Mask.Blend}
	p.winOut = windowLayerMask{s.WinOut.BG, s.WinOut.Obj, s.WinOut.Blend}
	p.winObjMask = windowLayerMask{s.WinObjMask.BG, s.WinObjMask.Obj, s.WinObjMask.Blend}
	p.blendMode, p.bldTargetA, p.bldTargetB = s.BlendMode, s.BldTargetA, s.BldTargetB
	p.eva, p.evb, p.bwFade = s.Eva, s.Evb, s.BwFade
	copy(p.fb[:], s.Framebuffer)
	for i, bg := range s.BG {
		p.bg[i] = bgLayer{
			priority: bg.Priority, charBase: bg.CharBase, mapBase: bg.MapBase,
			bpp8: bg.Bpp8, size: bg.Size, wrap: bg.Wrap,
			hofs: bg.Hofs, vofs: bg.Vofs,
			pa: bg.Pa, pb: bg.Pb, pc: bg.Pc, pd: bg.Pd,
			refX: bg.RefX, refY: bg.RefY,
		}
	}
	return nil
}
