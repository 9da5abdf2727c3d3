package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderidge/dmgcore/addr"
)

// flatBus is a minimal 64KiB byte array satisfying the Bus interface, used
// to exercise the CPU in isolation from the real bus/PPU/cartridge stack.
type flatBus struct {
	mem [0x10000]uint8
}

func (b *flatBus) Read(a uint16) uint8       { return b.mem[a] }
func (b *flatBus) Write(a uint16, v uint8)   { b.mem[a] = v }
func (b *flatBus) loadAt(a uint16, prog ...uint8) {
	copy(b.mem[a:], prog)
}

// fakeInterrupts is a minimal InterruptSource stub for CPU tests that don't
// exercise the real interrupt controller package.
type fakeInterrupts struct {
	source addr.Interrupt
	ok     bool
}

func (f *fakeInterrupts) HighestPriority() (addr.Interrupt, bool) { return f.source, f.ok }
func (f *fakeInterrupts) Acknowledge(addr.Interrupt)              { f.ok = false }

func newTestCPU() (*CPU, *flatBus) {
	bus := &flatBus{}
	c := New(bus, &fakeInterrupts{})
	c.pc = 0x0100
	return c, bus
}

func TestLdAImm(t *testing.T) {
	c, bus := newTestCPU()
	bus.loadAt(c.pc, 0x3E, 0x42) // LD A,0x42

	cyc := c.Step()
	assert.Equal(t, uint8(0x42), c.a)
	assert.Equal(t, 8, cyc)
}

func TestAddHalfCarry(t *testing.T) {
	c, bus := newTestCPU()
	c.a = 0x0F
	c.b = 0x01
	bus.loadAt(c.pc, 0x80) // ADD A,B

	c.Step()
	assert.Equal(t, uint8(0x10), c.a)
	assert.True(t, c.f&flagH != 0)
	assert.False(t, c.f&flagZ != 0)
	assert.False(t, c.f&flagC != 0)
}

func TestDAAAfterAdd(t *testing.T) {
	c, bus := newTestCPU()
	c.a = 0x45
	c.b = 0x38
	bus.loadAt(c.pc, 0x80, 0x27) // ADD A,B ; DAA

	c.Step()
	c.Step()
	assert.Equal(t, uint8(0x83), c.a) // 45 + 38 = 83 in BCD
}

func TestJrNZTaken(t *testing.T) {
	c, bus := newTestCPU()
	c.f = 0 // Z clear
	bus.loadAt(c.pc, 0x20, 0x05) // JR NZ,+5

	start := c.pc
	cyc := c.Step()
	assert.Equal(t, start+2+5, c.pc)
	assert.Equal(t, 12, cyc)
}

func TestJrNZNotTaken(t *testing.T) {
	c, bus := newTestCPU()
	c.f = flagZ
	bus.loadAt(c.pc, 0x20, 0x05)

	start := c.pc
	cyc := c.Step()
	assert.Equal(t, start+2, c.pc)
	assert.Equal(t, 8, cyc)
}

func TestPushPopAFMasksLowNibble(t *testing.T) {
	c, bus := newTestCPU()
	c.sp = 0xFFFE
	c.a = 0x12
	c.f = 0xFF // garbage in low nibble
	bus.loadAt(c.pc, 0xF5, 0xF1) // PUSH AF ; POP AF

	c.Step()
	c.Step()
	assert.Equal(t, uint8(0x12), c.a)
	assert.Equal(t, uint8(0xF0), c.f, "low nibble of F must always read as 0")
}

func TestCallAndRet(t *testing.T) {
	c, bus := newTestCPU()
	c.sp = 0xFFFE
	bus.loadAt(c.pc, 0xCD, 0x00, 0x02) // CALL 0x0200
	bus.loadAt(0x0200, 0xC9)           // RET

	cyc := c.Step()
	assert.Equal(t, uint16(0x0200), c.pc)
	assert.Equal(t, 24, cyc)

	cyc = c.Step()
	assert.Equal(t, uint16(0x0103), c.pc)
	assert.Equal(t, 16, cyc)
}

func TestEIDelaysOneInstruction(t *testing.T) {
	c, bus := newTestCPU()
	bus.loadAt(c.pc, 0xFB, 0x00) // EI ; NOP

	c.Step()
	assert.False(t, c.interruptsEnabled)

	c.Step()
	assert.True(t, c.interruptsEnabled)
}

func TestDIIsImmediate(t *testing.T) {
	c, bus := newTestCPU()
	c.interruptsEnabled = true
	bus.loadAt(c.pc, 0xF3)

	c.Step()
	assert.False(t, c.interruptsEnabled)
}

func TestIllegalOpcodePanics(t *testing.T) {
	c, bus := newTestCPU()
	bus.loadAt(c.pc, 0xD3)

	assert.Panics(t, func() { c.Step() })
}

func TestHaltWithIMEDispatchesInterrupt(t *testing.T) {
	c, bus := newTestCPU()
	c.interruptsEnabled = true
	irq := &fakeInterrupts{}
	c.irq = irq
	bus.loadAt(c.pc, 0x76) // HALT

	c.Step()
	require.True(t, c.halted)

	irq.source = addr.VBlankInterrupt
	irq.ok = true

	cyc := c.Step()
	assert.False(t, c.halted)
	assert.Equal(t, uint16(0x0040), c.pc)
	assert.Equal(t, 20, cyc)
}

func TestHaltWithoutIMESetsHaltBug(t *testing.T) {
	c, bus := newTestCPU()
	c.interruptsEnabled = false
	irq := &fakeInterrupts{}
	c.irq = irq
	bus.loadAt(c.pc, 0x76)

	c.Step()
	require.True(t, c.halted)
	afterHalt := c.pc

	irq.source = addr.VBlankInterrupt
	irq.ok = true
	// LD A,0x99 immediately follows HALT; the halt bug causes its opcode
	// byte (0x3E) to be fetched twice — once as the opcode, once again (PC
	// having failed to advance) as its own immediate operand.
	bus.loadAt(afterHalt, 0x3E, 0x99)

	c.Step()
	assert.False(t, c.halted)
	assert.False(t, c.haltBug, "haltBug is consumed by the very next fetch")
	assert.Equal(t, uint8(0x3E), c.a, "immediate operand is the duplicated opcode byte, not 0x99")
	assert.Equal(t, afterHalt+1, c.pc)
}

func TestAddToHLPreservesZ(t *testing.T) {
	c, _ := newTestCPU()
	c.f = flagZ
	c.setHL(0x0FFF)
	c.setBC(0x0001)

	c.addHL(pairBC)
	assert.True(t, c.f&flagZ != 0, "ADD HL,rr must not touch Z")
	assert.True(t, c.f&flagH != 0)
	assert.Equal(t, uint16(0x1000), c.hl())
}
