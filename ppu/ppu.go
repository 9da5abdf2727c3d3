// Package ppu implements the DMG picture processing unit: VRAM/OAM storage,
// the register bank, the four-mode per-line state machine, the background/
// window/sprite pixel pipeline, and STAT/LYC interrupt generation. The OAM
// DMA engine itself lives in the root dmgcore package (it needs to read
// from the full bus, which would otherwise create an import cycle); PPU
// only exposes a direct OAM-byte write for it to drive.
package ppu

import (
	"github.com/coderidge/dmgcore/addr"
	"github.com/coderidge/dmgcore/bit"
)

// Mode is the PPU's current rendering stage, matching STAT bits 1-0.
type Mode uint8

const (
	ModeHBlank Mode = 0
	ModeVBlank Mode = 1
	ModeOAM    Mode = 2
	ModeDraw   Mode = 3
)

// Per-line cycle budget: 80 (OAM scan) + 172 (drawing) + 204 (HBlank).
const (
	oamScanCycles = 80
	drawCycles    = 172
	lineCycles    = oamScanCycles + drawCycles + 204 // 456
	visibleLines  = 144
	totalLines    = 154 // 144 visible + 10 VBlank
)

// PPU holds VRAM, OAM, the register bank, the mode state machine, and the
// rendered framebuffer.
type PPU struct {
	vram [0x2000]byte
	oam  [160]byte
	regs registers

	fb *FrameBuffer

	mode      Mode
	lineCycle int // cycles elapsed since the start of the current line

	windowLine int // internal window-line counter; freezes on lines the window doesn't draw

	statLine        bool // combined STAT interrupt signal, for rising-edge detection
	justVBlankEntry bool // set when LY transitions to 144; consumed by StepFrame

	lineSprites []spriteEntry // sprites selected for the current scanline, ascending OAM index

	lcdWasEnabled bool

	// RequestInterrupt is called synchronously whenever the PPU raises an
	// interrupt (VBlank or LCD STAT). Wired by the emulator to the
	// interrupt controller's Request method.
	RequestInterrupt func(addr.Interrupt)
}

// New returns a PPU with VRAM/OAM zeroed and the mode machine at the start
// of line 0's OAM scan.
func New() *PPU {
	p := &PPU{fb: NewFrameBuffer(), mode: ModeOAM}
	p.regs.lcdc = 0x91
	p.regs.bgp = 0xFC
	p.regs.setMode(ModeOAM)
	p.lcdWasEnabled = true
	return p
}

// FrameBuffer returns the PPU's rendered framebuffer.
func (p *PPU) FrameBuffer() *FrameBuffer { return p.fb }

// LY returns the current scanline.
func (p *PPU) LY() uint8 { return p.regs.ly }

// CurrentMode returns the PPU's current mode.
func (p *PPU) CurrentMode() Mode { return p.mode }

// ConsumeVBlankEntry reports whether LY transitioned to 144 (the start of
// VBlank) since the last call, clearing the flag. The emulator's StepFrame
// loop uses this to know when one frame has been produced.
func (p *PPU) ConsumeVBlankEntry() bool {
	v := p.justVBlankEntry
	p.justVBlankEntry = false
	return v
}

// Step advances the PPU's mode state machine and, where LCD is off, does
// nothing: LY is held at 0 and mode forced to 0 for the duration.
func (p *PPU) Step(cycles int) {
	if !p.regs.lcdEnabled() {
		return
	}

	for cycles > 0 {
		next := p.cyclesToNextEvent()
		step := cycles
		if step > next {
			step = next
		}
		p.lineCycle += step
		cycles -= step
		if step == next {
			p.onLineBoundary()
		}
	}
}

func (p *PPU) cyclesToNextEvent() int {
	switch p.mode {
	case ModeOAM:
		return oamScanCycles - p.lineCycle
	case ModeDraw:
		return oamScanCycles + drawCycles - p.lineCycle
	default: // HBlank, VBlank
		return lineCycles - p.lineCycle
	}
}

// onLineBoundary fires whenever lineCycle reaches the next mode-transition
// point for the current mode.
func (p *PPU) onLineBoundary() {
	switch p.mode {
	case ModeOAM:
		p.scanSprites()
		p.setMode(ModeDraw)
	case ModeDraw:
		p.renderLine()
		p.setMode(ModeHBlank)
	case ModeHBlank, ModeVBlank:
		p.lineCycle = 0
		p.advanceLine()
	}
}

func (p *PPU) advanceLine() {
	p.regs.ly++
	switch {
	case p.regs.ly == visibleLines:
		p.setMode(ModeVBlank)
		p.windowLine = 0
		p.justVBlankEntry = true
		p.requestInterrupt(addr.VBlankInterrupt)
	case int(p.regs.ly) >= totalLines:
		p.regs.ly = 0
		p.setMode(ModeOAM)
	case p.mode == ModeHBlank:
		p.setMode(ModeOAM)
	}
	p.updateLYC()
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	p.regs.setMode(m)
	p.updateStatIRQ()
}

func (p *PPU) updateLYC() {
	p.regs.stat = bit.SetTo(statLYCEqualsLY, p.regs.stat, p.regs.ly == p.regs.lyc)
	p.updateStatIRQ()
}

// updateStatIRQ recomputes the combined STAT interrupt signal (the OR of
// every currently-active, currently-enabled source) and raises the LCD
// interrupt only on its 0->1 transition, never on a sustained condition.
func (p *PPU) updateStatIRQ() {
	signal := false
	if p.regs.statIRQEnabled(statLYCIRQ) && bit.IsSet(statLYCEqualsLY, p.regs.stat) {
		signal = true
	}
	switch p.mode {
	case ModeHBlank:
		signal = signal || p.regs.statIRQEnabled(statHBlankIRQ)
	case ModeVBlank:
		signal = signal || p.regs.statIRQEnabled(statVBlankIRQ)
	case ModeOAM:
		signal = signal || p.regs.statIRQEnabled(statOAMIRQ)
	}

	if signal && !p.statLine {
		p.requestInterrupt(addr.LCDSTATInterrupt)
	}
	p.statLine = signal
}

func (p *PPU) requestInterrupt(i addr.Interrupt) {
	if p.RequestInterrupt != nil {
		p.RequestInterrupt(i)
	}
}

// Read implements the CPU/bus-facing VRAM/OAM/register read surface.
func (p *PPU) Read(address uint16) uint8 {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		return p.vram[address-addr.VRAMStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return p.oam[address-addr.OAMStart]
	case address == addr.LCDC:
		return p.regs.lcdc
	case address == addr.STAT:
		return p.regs.stat | 0x80
	case address == addr.SCY:
		return p.regs.scy
	case address == addr.SCX:
		return p.regs.scx
	case address == addr.LY:
		return p.regs.ly
	case address == addr.LYC:
		return p.regs.lyc
	case address == addr.BGP:
		return p.regs.bgp
	case address == addr.OBP0:
		return p.regs.obp0
	case address == addr.OBP1:
		return p.regs.obp1
	case address == addr.WY:
		return p.regs.wy
	case address == addr.WX:
		return p.regs.wx
	default:
		return 0xFF
	}
}

// Write implements the CPU/bus-facing VRAM/OAM/register write surface.
// The root Bus intercepts writes to addr.DMA before they reach here.
func (p *PPU) Write(address uint16, value uint8) {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		p.vram[address-addr.VRAMStart] = value
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		p.oam[address-addr.OAMStart] = value
	case address == addr.LCDC:
		p.writeLCDC(value)
	case address == addr.STAT:
		// Bits 0-2 (mode, LYC flag) are read-only; only the interrupt-source
		// enable bits 3-6 are writable.
		p.regs.stat = (p.regs.stat & 0x07) | (value & 0x78)
		p.updateStatIRQ()
	case address == addr.SCY:
		p.regs.scy = value
	case address == addr.SCX:
		p.regs.scx = value
	case address == addr.LY:
		// Read-only on real hardware; writes are ignored.
	case address == addr.LYC:
		p.regs.lyc = value
		p.updateLYC()
	case address == addr.BGP:
		p.regs.bgp = value
	case address == addr.OBP0:
		p.regs.obp0 = value
	case address == addr.OBP1:
		p.regs.obp1 = value
	case address == addr.WY:
		p.regs.wy = value
	case address == addr.WX:
		p.regs.wx = value
	}
}

// writeLCDC handles the LCD-enable side effects: disabling holds LY at 0
// and forces mode 0; re-enabling resumes at the start of line 0's OAM
// scan.
func (p *PPU) writeLCDC(value uint8) {
	p.regs.lcdc = value
	enabled := p.regs.lcdEnabled()
	if enabled == p.lcdWasEnabled {
		return
	}
	p.lcdWasEnabled = enabled
	if !enabled {
		p.regs.ly = 0
		p.lineCycle = 0
		p.setMode(ModeHBlank)
	} else {
		p.regs.ly = 0
		p.lineCycle = 0
		p.windowLine = 0
		p.setMode(ModeOAM)
	}
}

// WriteOAMByte writes a single OAM byte directly, bypassing address
// translation. Used by the root package's OAM DMA engine.
func (p *PPU) WriteOAMByte(index int, value byte) {
	p.oam[index] = value
}
