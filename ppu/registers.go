package ppu

import "github.com/coderidge/dmgcore/bit"

// LCDC bit positions.
const (
	lcdcBGWindowEnable    uint8 = 0
	lcdcOBJEnable         uint8 = 1
	lcdcOBJSize           uint8 = 2
	lcdcBGTileMap         uint8 = 3
	lcdcBGWindowTileData  uint8 = 4
	lcdcWindowEnable      uint8 = 5
	lcdcWindowTileMap     uint8 = 6
	lcdcDisplayEnable     uint8 = 7
)

// STAT bit positions.
const (
	statModeLow      uint8 = 0
	statModeHigh     uint8 = 1
	statLYCEqualsLY  uint8 = 2
	statHBlankIRQ    uint8 = 3
	statVBlankIRQ    uint8 = 4
	statOAMIRQ       uint8 = 5
	statLYCIRQ       uint8 = 6
)

type registers struct {
	lcdc, stat       uint8
	scy, scx         uint8
	ly, lyc          uint8
	bgp, obp0, obp1  uint8
	wy, wx           uint8
}

func (r *registers) lcdEnabled() bool        { return bit.IsSet(lcdcDisplayEnable, r.lcdc) }
func (r *registers) windowEnabled() bool     { return bit.IsSet(lcdcWindowEnable, r.lcdc) }
func (r *registers) bgWindowEnabled() bool   { return bit.IsSet(lcdcBGWindowEnable, r.lcdc) }
func (r *registers) objEnabled() bool        { return bit.IsSet(lcdcOBJEnable, r.lcdc) }
func (r *registers) tallSprites() bool       { return bit.IsSet(lcdcOBJSize, r.lcdc) }

func (r *registers) bgTileMapBase() uint16 {
	if bit.IsSet(lcdcBGTileMap, r.lcdc) {
		return 0x9C00
	}
	return 0x9800
}

func (r *registers) windowTileMapBase() uint16 {
	if bit.IsSet(lcdcWindowTileMap, r.lcdc) {
		return 0x9C00
	}
	return 0x9800
}

// signedTileAddressing reports whether BG/window tile indices are signed
// (relative to 0x9000) rather than unsigned (relative to 0x8000).
func (r *registers) signedTileAddressing() bool {
	return !bit.IsSet(lcdcBGWindowTileData, r.lcdc)
}

func (r *registers) setMode(m Mode) {
	r.stat = (r.stat &^ 0x03) | uint8(m)
}

func (r *registers) statIRQEnabled(bitIdx uint8) bool {
	return bit.IsSet(bitIdx, r.stat)
}
