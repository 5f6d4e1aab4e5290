// Package ppu implements spec.md §4.6's scanline-based pixel processor:
// tiled/affine backgrounds, sprites, windows, and blending, driven by a
// scanline/phase state machine.
//
// The teacher's internal/ppu/ppu.go is a DMG LCD controller: a dot
// counter driving a 4-phase (OAM/draw/hblank/vblank) STAT state
// machine, an InterruptRequester callback, and plain register fields
// read/written by address switch. The phase-driven Tick loop and
// callback-based interrupt hookup carry over directly; the register
// set, the 160x4-priority compositor, and the blend stage are new,
// grounded on spec.md §4.6 and the window/sprite tests in the
// teacher's ppu_window_test.go / sprite_compose_test.go for the shape
// of "renderer functions return a scanline's worth of data, composed
// by a higher-level driver".
package ppu

const (
	ScreenWidth  = 240
	ScreenHeight = 160
	totalLines   = 228
	cyclesPerLine = 1232
	visibleCycles = 960
)

// InterruptRequester mirrors the teacher's ppu.InterruptRequester
// callback signature, decoupling the PPU from the Bus's interrupt
// register (spec.md §9's "cyclic references ... are incidental").
type InterruptRequester func(bit int)

// Signals is the slice of Bus behavior the PPU needs to read pixel
// source memory without importing the bus package.
type Signals interface {
	VRAM8(addr uint32) byte
	OAM8(addr uint32) byte
	PaletteWord(addr uint32) uint16
	SetHBlankPulse()
	SetVBlankPulse()
}

type phase int

const (
	phaseVisible phase = iota
	phaseHBlank
)

// pixelType classifies which compositor layer produced a pixel
// (spec.md §3).
type pixelType int

const (
	pixelBackdrop pixelType = iota
	pixelBG0
	pixelBG1
	pixelBG2
	pixelBG3
	pixelSprite
)

type compositedPixel struct {
	color   uint16
	kind    pixelType
	inWin   int // which window this pixel belongs to, for blend eligibility
	isFirst bool
	isSecond bool
	semiTransparent bool
}

// PPU holds display-control registers, background/sprite/window
// configuration, and the per-frame framebuffer.
type PPU struct {
	Line  int
	ph    phase
	dot   int

	frameReady bool
	skipCount  int
	frameCount int

	fb [ScreenWidth * ScreenHeight]uint16

	// DISPCNT
	bgMode       int
	frameSelect  int
	objMapping1D bool
	forceBlank   bool
	bgEnabled    [4]bool
	objEnabled   bool
	win0Enabled  bool
	win1Enabled  bool
	winObjEnabled bool

	// DISPSTAT
	vblankIRQEnable bool
	hblankIRQEnable bool
	vcountIRQEnable bool
	vcountSetting   byte

	bg [4]bgLayer

	win0, win1         windowRect
	winIn, win1Mask    windowLayerMask
	winOut, winObjMask windowLayerMask

	blendMode  int // 0 none,1 alpha,2 brighten,3 darken
	bldTargetA [6]bool // BG0-3, OBJ, backdrop as first-target
	bldTargetB [6]bool
	eva, evb   byte
	bwFade     byte

	req InterruptRequester

	front, back [ScreenWidth]compositedPixel
}

type bgLayer struct {
	priority   byte
	charBase   uint32
	mapBase    uint32
	bpp8       bool
	size       byte
	wrap       bool
	hofs, vofs uint16
	// affine parameters (BG2/BG3 only)
	pa, pb, pc, pd int16
	refX, refY     int32
}

func New(req InterruptRequester) *PPU {
	return &PPU{req: req, skipCount: 1}
}

func (p *PPU) Framebuffer() []uint16 { return p.fb[:] }

// InHBlank reports whether the current scanline is in its horizontal
// blank portion, for the Bus's live DISPSTAT/VCOUNT register reads.
func (p *PPU) InHBlank() bool { return p.ph == phaseHBlank }

func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

// Tick advances the PPU by exactly one phase boundary's worth of
// cycles (spec.md §4.6) and returns the number of master cycles it
// consumed, for the scheduler's next-deadline bookkeeping.
func (p *PPU) Tick(sig Signals) int {
	switch {
	case p.Line < 160 && p.ph == phaseVisible:
		if p.frameCount%p.skipCount == 0 {
			p.renderScanline(sig)
		}
		p.ph = phaseHBlank
		if p.hblankIRQEnable && p.req != nil {
			p.req(1)
		}
		sig.SetHBlankPulse()
		return visibleCycles

	case p.Line < 160 && p.ph == phaseHBlank:
		p.Line++
		p.ph = phaseVisible
		p.checkVCount()
		if p.Line == 160 {
			p.frameReady = true
			p.frameCount++
			if p.vblankIRQEnable && p.req != nil {
				p.req(0)
			}
			sig.SetVBlankPulse()
		}
		return cyclesPerLine - visibleCycles

	case p.ph == phaseVisible: // vertical blank lines 160..227, visible portion
		p.ph = phaseHBlank
		if p.hblankIRQEnable && p.req != nil {
			p.req(1)
		}
		sig.SetHBlankPulse()
		return visibleCycles

	default: // vertical blank lines 160..227, h-blank portion
		p.Line++
		p.ph = phaseVisible
		if p.Line >= totalLines {
			p.Line = 0
		}
		p.checkVCount()
		return cyclesPerLine - visibleCycles
	}
}

func (p *PPU) checkVCount() {
	if p.vcountIRQEnable && p.Line == int(p.vcountSetting) && p.req != nil {
		p.req(2)
	}
}

// SetSkipRender implements the host-level speedup toggle from spec.md
// §6: 1 renders every frame, N renders one in every N.
func (p *PPU) SetSkipRender(n int) {
	if n < 1 {
		n = 1
	}
	p.skipCount = n
}
