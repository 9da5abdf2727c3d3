// Package joypad implements the DMG P1 (0xFF00) register: the two-line
// button/direction multiplexer and edge-triggered Joypad interrupt.
package joypad

import "github.com/coderidge/dmgcore/bit"

// Button identifies one of the eight physical inputs.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// State is the external, caller-facing snapshot of all eight button states
// (true = pressed), matching the Emulator.SetJoypad API.
type State struct {
	Up, Down, Left, Right bool
	A, B, Start, Select   bool
}

// Joypad holds the d-pad/button bitfields (bit set = released, per DMG
// polarity) and the P1 line-select latch.
type Joypad struct {
	dpad    uint8
	buttons uint8

	selectDpad    bool // true when P1 bit 4 is 0 (direction keys selected)
	selectButtons bool // true when P1 bit 5 is 0 (button keys selected)

	// RequestInterrupt is called on a 1->0 (released->pressed) transition
	// of any button or direction key. Wired by the emulator to the
	// interrupt controller's Request method.
	RequestInterrupt func()
}

// New returns a Joypad with nothing pressed and neither line selected.
func New() *Joypad {
	return &Joypad{dpad: 0x0F, buttons: 0x0F}
}

// Read returns the P1 register: bits 6-7 always 1, bits 4-5 echo the
// current line selection, bits 0-3 report the selected line(s) inverted.
// When both lines are selected, hardware ANDs both nibbles together.
func (j *Joypad) Read() uint8 {
	result := uint8(0x0F)
	if j.selectDpad {
		result &= j.dpad
	}
	if j.selectButtons {
		result &= j.buttons
	}

	p1 := uint8(0xC0) | result
	if !j.selectDpad {
		p1 |= 0x10
	}
	if !j.selectButtons {
		p1 |= 0x20
	}
	return p1
}

// Write updates the line-select latch (bits 4-5); the low nibble is
// read-only from the CPU's perspective.
func (j *Joypad) Write(value uint8) {
	j.selectDpad = value&0x10 == 0
	j.selectButtons = value&0x20 == 0
}

// Press marks a button as held down, raising the Joypad interrupt if it
// was previously released.
func (j *Joypad) Press(b Button) {
	bits, pos := j.fieldFor(b)
	if bit.IsSet(pos, *bits) {
		*bits = bit.Clear(pos, *bits)
		if j.RequestInterrupt != nil {
			j.RequestInterrupt()
		}
	}
}

// Release marks a button as no longer held.
func (j *Joypad) Release(b Button) {
	bits, pos := j.fieldFor(b)
	*bits = bit.Set(pos, *bits)
}

func (j *Joypad) fieldFor(b Button) (*uint8, uint8) {
	switch b {
	case ButtonRight:
		return &j.dpad, 0
	case ButtonLeft:
		return &j.dpad, 1
	case ButtonUp:
		return &j.dpad, 2
	case ButtonDown:
		return &j.dpad, 3
	case ButtonA:
		return &j.buttons, 0
	case ButtonB:
		return &j.buttons, 1
	case ButtonSelect:
		return &j.buttons, 2
	default: // ButtonStart
		return &j.buttons, 3
	}
}

// SetState applies a full button snapshot in one call, as used by
// Emulator.SetJoypad.
func (j *Joypad) SetState(s State) {
	j.apply(ButtonRight, s.Right)
	j.apply(ButtonLeft, s.Left)
	j.apply(ButtonUp, s.Up)
	j.apply(ButtonDown, s.Down)
	j.apply(ButtonA, s.A)
	j.apply(ButtonB, s.B)
	j.apply(ButtonSelect, s.Select)
	j.apply(ButtonStart, s.Start)
}

func (j *Joypad) apply(b Button, pressed bool) {
	if pressed {
		j.Press(b)
	} else {
		j.Release(b)
	}
}
