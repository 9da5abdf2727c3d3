package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeIsTotal(t *testing.T) {
	for op := 0; op <= 0xFF; op++ {
		assert.NotPanics(t, func() {
			Decode(uint8(op))
		}, "Decode(0x%02X) panicked", op)
	}
}

func TestDecodeCBIsTotal(t *testing.T) {
	for op := 0; op <= 0xFF; op++ {
		assert.NotPanics(t, func() {
			DecodeCB(uint8(op))
		}, "DecodeCB(0x%02X) panicked", op)
	}
}

func TestIllegalOpcodesDecodeAsIllegal(t *testing.T) {
	for op := range illegalOpcodes {
		assert.Equal(t, kIllegal, Decode(op).Kind, "0x%02X", op)
	}
}

func TestKnownOpcodeShapes(t *testing.T) {
	assert.Equal(t, kNop, Decode(0x00).Kind)
	assert.Equal(t, kHalt, Decode(0x76).Kind)

	ldBC := Decode(0x41) // LD B,C
	assert.Equal(t, kLd8RegReg, ldBC.Kind)
	assert.Equal(t, regB, ldBC.Dst)
	assert.Equal(t, regC, ldBC.Src)

	addHL := Decode(0x86) // ADD A,(HL)
	assert.Equal(t, kAddRegReg, addHL.Kind)
	assert.Equal(t, regHLInd, addHL.Src)

	bit7h := DecodeCB(0x7C) // BIT 7,H
	assert.Equal(t, kBit, bit7h.Kind)
	assert.Equal(t, uint8(7), bit7h.BitIndex)
	assert.Equal(t, regH, bit7h.Src)

	rst38 := Decode(0xFF)
	assert.Equal(t, kReset, rst38.Kind)
	assert.Equal(t, uint8(0x38), rst38.Reset)
}
