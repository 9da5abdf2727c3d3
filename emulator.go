package dmgcore

import (
	"github.com/coderidge/dmgcore/addr"
	"github.com/coderidge/dmgcore/cartridge"
	"github.com/coderidge/dmgcore/cpu"
	"github.com/coderidge/dmgcore/interrupt"
	"github.com/coderidge/dmgcore/joypad"
	"github.com/coderidge/dmgcore/ppu"
	"github.com/coderidge/dmgcore/timer"
)

// JoypadState is the external, caller-facing snapshot of the eight button
// lines.
type JoypadState = joypad.State

// Emulator wires one CPU, bus, and set of peripherals to a single loaded
// cartridge, and is the top-level entry point a host front-end drives.
type Emulator struct {
	cpu    *cpu.CPU
	bus    *Bus
	irq    *interrupt.Controller
	ppu    *ppu.PPU
	timer  *timer.Timer
	joypad *joypad.Joypad
	cart   *cartridge.Cartridge
}

// New constructs an Emulator for the given cartridge: every peripheral is
// zero-initialised at its documented DMG power-on state and the CPU starts
// at the 0x0100 cartridge entrypoint.
func New(cart *cartridge.Cartridge) *Emulator {
	irq := interrupt.New()
	p := ppu.New()
	t := timer.New()
	j := joypad.New()

	bus := newBus(cart, p, t, irq, j)

	p.RequestInterrupt = irq.Request
	t.RequestInterrupt = func() { irq.Request(addr.TimerInterrupt) }
	j.RequestInterrupt = func() { irq.Request(addr.JoypadInterrupt) }

	c := cpu.New(bus, irq)

	return &Emulator{cpu: c, bus: bus, irq: irq, ppu: p, timer: t, joypad: j, cart: cart}
}

// Step executes exactly one CPU instruction (or interrupt-dispatch/HALT/
// STOP quantum) and advances the PPU, timer, and OAM DMA engine by the
// resulting clock-cycle count. It returns the elapsed cycles, and a non-nil
// *cpu.IllegalOpcodeError if the CPU fetched one of the 11 undefined DMG
// opcode bytes; that is fatal for the session, so callers should stop
// stepping once it's returned.
func (e *Emulator) Step() (cycles int, err error) {
	defer func() {
		if r := recover(); r != nil {
			if illegal, ok := r.(*cpu.IllegalOpcodeError); ok {
				err = illegal
				return
			}
			panic(r)
		}
	}()

	cycles = e.cpu.Step()
	e.bus.tick(cycles)
	return cycles, nil
}

// StepFrame applies the given joypad state, then steps the emulator until
// the PPU enters VBlank (one full ~70224-clock frame), returning the
// rendered framebuffer. If an illegal opcode is fetched mid-frame, it
// returns the error from Step immediately with a nil framebuffer.
func (e *Emulator) StepFrame(state JoypadState) (*ppu.FrameBuffer, error) {
	e.SetJoypad(state)
	for {
		if _, err := e.Step(); err != nil {
			return nil, err
		}
		if e.ppu.ConsumeVBlankEntry() {
			break
		}
	}
	return e.ppu.FrameBuffer(), nil
}

// SetJoypad applies a full joypad snapshot, raising the Joypad interrupt on
// any released-to-pressed transition.
func (e *Emulator) SetJoypad(state JoypadState) {
	e.joypad.SetState(state)
}

// BatteryRAM returns a copy of the cartridge's external RAM and true, or
// (nil, false) if the cartridge has no battery-backed RAM to persist.
func (e *Emulator) BatteryRAM() ([]byte, bool) {
	return e.cart.BatteryRAM()
}

// RestoreBatteryRAM loads a previously saved battery-RAM image. Returns an
// error if the cartridge has no battery RAM or the image length doesn't
// match the RAM size derived from the cartridge header.
func (e *Emulator) RestoreBatteryRAM(data []byte) error {
	return e.cart.RestoreBatteryRAM(data)
}

// CPU returns the emulator's CPU, for test harnesses and debug tooling.
func (e *Emulator) CPU() *cpu.CPU { return e.cpu }

// PPU returns the emulator's PPU, for test harnesses and debug tooling.
func (e *Emulator) PPU() *ppu.PPU { return e.ppu }
