// Package dmgcore ties the SM83 CPU, cartridge mapper, PPU, timer, joypad
// and interrupt controller together behind a single 16-bit address space,
// and exposes the Emulator façade host front-ends drive.
package dmgcore

import (
	"github.com/coderidge/dmgcore/addr"
	"github.com/coderidge/dmgcore/cartridge"
	"github.com/coderidge/dmgcore/interrupt"
	"github.com/coderidge/dmgcore/joypad"
	"github.com/coderidge/dmgcore/ppu"
	"github.com/coderidge/dmgcore/timer"
)

// Bus routes every CPU-visible 16-bit address to its owning component. It
// borrows each peripheral for the duration of a single Read/Write call and
// never retains a reference across calls; the CPU in turn only ever sees
// Bus through the narrow cpu.Bus interface.
type Bus struct {
	cart   *cartridge.Cartridge
	ppu    *ppu.PPU
	timer  *timer.Timer
	irq    *interrupt.Controller
	joypad *joypad.Joypad

	wram [0x2000]byte
	hram [0x7F]byte

	dma dmaEngine
}

func newBus(cart *cartridge.Cartridge, p *ppu.PPU, t *timer.Timer, irq *interrupt.Controller, j *joypad.Joypad) *Bus {
	return &Bus{cart: cart, ppu: p, timer: t, irq: irq, joypad: j}
}

// Read implements cpu.Bus.
func (b *Bus) Read(address uint16) uint8 {
	switch {
	case address <= addr.ROMBankNEnd:
		return b.cart.Read(address)
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		return b.ppu.Read(address)
	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		return b.cart.Read(address)
	case address >= addr.WRAMStart && address <= addr.WRAMEnd:
		return b.wram[address-addr.WRAMStart]
	case address >= addr.EchoStart && address <= addr.EchoEnd:
		return b.wram[address-addr.EchoStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return b.ppu.Read(address)
	case address >= addr.UnusedStart && address <= addr.UnusedEnd:
		return 0xFF
	case address == addr.P1:
		return b.joypad.Read()
	case address == addr.DIV, address == addr.TIMA, address == addr.TMA, address == addr.TAC:
		return b.timer.Read(address)
	case address == addr.IF:
		return b.irq.ReadIF() | 0xE0
	case address == addr.DMA:
		return b.dma.reg
	case address >= addr.LCDC && address <= addr.WX:
		return b.ppu.Read(address)
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		return b.hram[address-addr.HRAMStart]
	case address == addr.IE:
		return b.irq.ReadIE()
	default:
		// Unmapped I/O (0xFF01-0xFF03, 0xFF08-0xFF0E, 0xFF10-0xFF3F, 0xFF4C-0xFF7F):
		// tolerated as open-bus 0xFF, matching hardware.
		return 0xFF
	}
}

// Write implements cpu.Bus.
func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address <= addr.ROMBankNEnd:
		b.cart.Write(address, value)
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		b.ppu.Write(address, value)
	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		b.cart.Write(address, value)
	case address >= addr.WRAMStart && address <= addr.WRAMEnd:
		b.wram[address-addr.WRAMStart] = value
	case address >= addr.EchoStart && address <= addr.EchoEnd:
		b.wram[address-addr.EchoStart] = value
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		b.ppu.Write(address, value)
	case address >= addr.UnusedStart && address <= addr.UnusedEnd:
		// Silently ignored.
	case address == addr.P1:
		b.joypad.Write(value)
	case address == addr.DIV, address == addr.TIMA, address == addr.TMA, address == addr.TAC:
		b.timer.Write(address, value)
	case address == addr.IF:
		b.irq.WriteIF(value)
	case address == addr.DMA:
		b.dma.trigger(value)
	case address >= addr.LCDC && address <= addr.WX:
		b.ppu.Write(address, value)
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		b.hram[address-addr.HRAMStart] = value
	case address == addr.IE:
		b.irq.WriteIE(value)
	default:
		// Silently ignored.
	}
}

// tick advances the PPU, timer, and OAM DMA engine by the given number of
// clock cycles. Called once per CPU step with exactly the cycle count that
// step reported, so the three peripherals always observe the same timeline
// the CPU did.
func (b *Bus) tick(cycles int) {
	b.ppu.Step(cycles)
	b.timer.Tick(cycles)
	b.dma.tick(cycles, b)
}

// dmaEngine models the OAM DMA transfer triggered by a write to 0xFF46: a
// 160-byte copy from base<<8 into OAM, consumed at 4 clock cycles per byte
// rather than instantaneously, so CPU/DMA interleaving matches hardware.
type dmaEngine struct {
	active bool
	base   uint16
	index  int
	reg    byte // last value written to 0xFF46, for read-back
}

// trigger starts (or restarts) a transfer from base<<8.
func (d *dmaEngine) trigger(base byte) {
	d.reg = base
	d.base = uint16(base) << 8
	d.index = 0
	d.active = true
}

// tick copies cycles/4 bytes (DMA only progresses on whole 4-clock units;
// every CPU instruction's cycle count is itself a multiple of 4) from the
// bus into OAM, stopping once 160 bytes have been copied.
func (d *dmaEngine) tick(cycles int, b *Bus) {
	if !d.active {
		return
	}
	for n := cycles / 4; n > 0 && d.active; n-- {
		value := b.Read(d.base + uint16(d.index))
		b.ppu.WriteOAMByte(d.index, value)
		d.index++
		if d.index == 160 {
			d.active = false
		}
	}
}
