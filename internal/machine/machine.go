// Package machine implements spec.md §9's recommended top-level shape:
// "put CPU, PPU, APU, Timers, DMA inside a top-level Machine struct" and
// exposes the public surface spec.md §6 names (construction from BIOS/ROM/
// backup bytes, ProcessFrame, InputFramePreprocess/ProcessKey, Framebuffer,
// DrainAudio, SaveState/LoadState).
//
// There is no single teacher file this mirrors one-to-one; it plays the
// role the teacher splits across internal/bus.Bus (owns everything, exposes
// Tick) and cmd/gbemu/main.go (wires a GameBoy instance and drives it once
// per host frame). Machine folds both: it owns construction/wiring the way
// Bus does, and exposes one call per host frame the way gbemu's main loop
// expects.
package machine

import (
	"context"

	"github.com/wrenfield/agbcore/internal/bus"
	"github.com/wrenfield/agbcore/internal/cartridge"
	"github.com/wrenfield/agbcore/internal/cpu"
	"github.com/wrenfield/agbcore/internal/dma"
	"github.com/wrenfield/agbcore/internal/ppu"
	"github.com/wrenfield/agbcore/internal/scheduler"
	"github.com/wrenfield/agbcore/internal/timer"
)

// Key is one of spec.md §6's ten key-register bits.
type Key int

const (
	KeyA Key = iota
	KeyB
	KeySelect
	KeyStart
	KeyRight
	KeyLeft
	KeyUp
	KeyDown
	KeyR
	KeyL
	keyCount
)

// allReleased is KEYINPUT's reset value: all ten bits set (0 = pressed).
const allReleased = 0x03FF

// Machine is the emulator core's public entry point.
type Machine struct {
	cpu   *cpu.CPU
	ppu   *ppu.PPU
	timer *timer.Controller
	dma   *dma.Controller
	bus   *bus.Bus
	sched *scheduler.Scheduler

	keys          uint16
	skipRender    int
	saveRequested [5]bool
}

// Config bundles Machine's construction-time inputs (spec.md §6's
// "Inputs": BIOS, ROM, optional backup image/override, host sample rate).
type Config struct {
	BIOS           []byte
	ROM            []byte
	BackupImage    []byte
	BackupOverride cartridge.BackupType
	SaveBankCount  int
	HostSampleRate int
}

// New constructs a Machine from a Config, wiring the Bus's Attach* setters
// once every Machine-owned component exists (spec.md §9's recommended
// wiring order).
func New(cfg Config) (*Machine, error) {
	b, err := bus.New(cfg.BIOS, cfg.ROM, cfg.BackupImage, cfg.BackupOverride, cfg.SaveBankCount, cfg.HostSampleRate)
	if err != nil {
		return nil, err
	}

	c := cpu.New()
	p := ppu.New(func(bit int) { b.RaiseInterrupt(bit) })
	t := timer.NewController(
		func(bit int) { b.RaiseInterrupt(bit) },
		func(channel int) { b.APU().PopFIFO(channel) },
	)
	d := dma.NewController()

	b.AttachPPU(p)
	b.AttachDMA(d)
	b.AttachTimers(t)
	b.AttachCPU(c)

	m := &Machine{
		cpu: c, ppu: p, timer: t, dma: d, bus: b,
		sched:      scheduler.New(c, p, t, d, b),
		keys:       allReleased,
		skipRender: 1,
	}
	b.SetKeys(m.keys)
	return m, nil
}

// ProcessFrame runs the scheduler until the PPU signals frame-ready and
// returns the resulting wall-clock sleep budget in microseconds (spec.md
// §4.7). No error propagates out under normal operation (spec.md §7's "no
// error propagates out of process_frame"); ctx cancellation is the only
// source of a non-nil error, surfaced so a host's shutdown path can observe
// it rather than block forever.
func (m *Machine) ProcessFrame(ctx context.Context) (int64, error) {
	return m.sched.ProcessFrame(ctx)
}

// InputFramePreprocess latches the per-frame emulator-level host controls
// (spec.md §6's Speedup/Save0..Save4: "toggle the skip-render counter ...
// and latch a save-state-requested flag per bank"). Call once per frame,
// before ProcessKey.
func (m *Machine) InputFramePreprocess(speedup bool, speedupFactor int, save [5]bool) {
	if speedup {
		if speedupFactor < 1 {
			speedupFactor = 1
		}
		m.skipRender = speedupFactor
	} else {
		m.skipRender = 1
	}
	m.ppu.SetSkipRender(m.skipRender)
	for i, requested := range save {
		if requested {
			m.saveRequested[i] = true
		}
	}
}

// ProcessKey applies a single key's pressed/released state to the live
// KEYINPUT register (spec.md §6: "0 = pressed, 1 = released").
func (m *Machine) ProcessKey(k Key, pressed bool) {
	bit := uint16(1) << uint(k)
	if pressed {
		m.keys &^= bit
	} else {
		m.keys |= bit
	}
	m.bus.SetKeys(m.keys)
}

// TakeSaveRequest reports and clears whether bank i's save-state was
// requested since the last call, for a host to drive SaveState export.
func (m *Machine) TakeSaveRequest(bank int) bool {
	r := m.saveRequested[bank]
	m.saveRequested[bank] = false
	return r
}

// Framebuffer returns the PPU's 240x160 array of 15-bit RGB pixels
// (spec.md §6's frame output). The returned slice aliases the PPU's
// internal buffer and is only valid until the next ProcessFrame call.
func (m *Machine) Framebuffer() []uint16 { return m.ppu.Framebuffer() }

// DrainAudio returns any host-rate stereo chunks the APU has queued since
// the last call (spec.md §6's "lazy stream of stereo float pairs ...
// consumer responsible for draining").
func (m *Machine) DrainAudio() [][]float32 { return m.bus.DrainAudio() }

// BackupImage returns the cartridge's current backup storage contents,
// for a host to persist to disk between runs.
func (m *Machine) BackupImage() []byte { return m.bus.Cartridge().BackupImage() }
