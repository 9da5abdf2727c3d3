// Package interrupt implements the DMG interrupt controller: the IE
// (enable) and IF (flag/request) registers and the fixed LSB-priority
// dispatch order (VBlank, LCD STAT, Timer, Serial, Joypad).
package interrupt

import "github.com/coderidge/dmgcore/addr"

// Vector is the fixed dispatch address for an interrupt source.
var Vector = map[addr.Interrupt]uint16{
	addr.VBlankInterrupt:   0x0040,
	addr.LCDSTATInterrupt:  0x0048,
	addr.TimerInterrupt:    0x0050,
	addr.SerialInterrupt:   0x0058,
	addr.JoypadInterrupt:   0x0060,
}

// orderedSources lists the 5 interrupt sources from highest to lowest
// priority (ascending bit position, per the DMG's fixed LSB-wins rule).
var orderedSources = []addr.Interrupt{
	addr.VBlankInterrupt,
	addr.LCDSTATInterrupt,
	addr.TimerInterrupt,
	addr.SerialInterrupt,
	addr.JoypadInterrupt,
}

// Controller holds the IE and IF registers and exposes the request/
// acknowledge protocol used by peripherals and the CPU.
type Controller struct {
	ie uint8
	iF uint8
}

// New returns a controller with both registers cleared.
func New() *Controller {
	return &Controller{}
}

// Request sets the IF bit for the given source. Peripherals call this when
// they want to signal an interrupt; it does not check IE.
func (c *Controller) Request(i addr.Interrupt) {
	c.iF |= uint8(i)
}

// Pending returns the bitset of currently pending-and-enabled interrupts
// (IE & IF).
func (c *Controller) Pending() uint8 {
	return c.ie & c.iF
}

// HighestPriority returns the single highest-priority pending interrupt (by
// ascending bit position) and true, or (0, false) if none is pending.
func (c *Controller) HighestPriority() (addr.Interrupt, bool) {
	pending := c.Pending()
	if pending == 0 {
		return 0, false
	}
	for _, src := range orderedSources {
		if pending&uint8(src) != 0 {
			return src, true
		}
	}
	return 0, false
}

// Acknowledge clears the IF bit for the given source. Called once the CPU
// has begun dispatching to its vector.
func (c *Controller) Acknowledge(i addr.Interrupt) {
	c.iF &^= uint8(i)
}

// ReadIE returns the raw IE register.
func (c *Controller) ReadIE() uint8 { return c.ie }

// WriteIE writes the IE register (only the low 5 bits are meaningful).
func (c *Controller) WriteIE(v uint8) { c.ie = v & 0x1F }

// ReadIF returns the raw IF register. The top 3 bits always read as 1 on
// real hardware; callers that expose this to the bus are responsible for
// OR-ing those bits in (see Bus.Read).
func (c *Controller) ReadIF() uint8 { return c.iF }

// WriteIF writes the raw IF register (only the low 5 bits are meaningful).
func (c *Controller) WriteIF(v uint8) { c.iF = v & 0x1F }
