package ppu

import "github.com/coderidge/dmgcore/addr"

// renderLine emits the 160 pixels of the current scanline (LY) into the
// framebuffer: background/window first, then sprites on top.
func (p *PPU) renderLine() {
	line := int(p.regs.ly)

	var bgColorIndex [ScreenWidth]uint8

	windowX := int(p.regs.wx) - 7
	windowActive := p.regs.windowEnabled() && line >= int(p.regs.wy)
	usedWindow := false

	for x := 0; x < ScreenWidth; x++ {
		var colorIdx uint8
		switch {
		case !p.regs.bgWindowEnabled():
			colorIdx = 0
		case windowActive && x >= windowX:
			colorIdx = p.tilePixel(p.regs.windowTileMapBase(), x-windowX, p.windowLine)
			usedWindow = true
		default:
			bx := (x + int(p.regs.scx)) & 0xFF
			by := (line + int(p.regs.scy)) & 0xFF
			colorIdx = p.tilePixel(p.regs.bgTileMapBase(), bx, by)
		}
		bgColorIndex[x] = colorIdx
		p.fb.set(x, line, applyPalette(p.regs.bgp, colorIdx))
	}

	if usedWindow {
		p.windowLine++
	}

	if p.regs.objEnabled() {
		p.drawSprites(line, bgColorIndex[:])
	}
}

// tilePixel resolves the 2-bit color index for pixel (px, py) of a
// tilemap-addressed 256x256 plane (background or window), honoring LCDC's
// unsigned/signed tile-data addressing mode.
func (p *PPU) tilePixel(tileMapBase uint16, px, py int) uint8 {
	col, row := px/8, py/8
	tileIdx := p.Read(tileMapBase + uint16(row*32+col))
	tileAddr := p.bgTileAddr(tileIdx)
	line := fetchTileRow(p, tileAddr, py%8, 8, false)
	return line.colorIndex(px%8, false)
}

// bgTileAddr resolves a background/window tile index to its base VRAM
// address, per LCDC.BG_AND_WINDOW_TILE_DATA: unsigned (0x8000-relative) or
// signed (0x9000-relative, tile numbers -128..127).
func (p *PPU) bgTileAddr(tileIdx uint8) uint16 {
	if p.regs.signedTileAddressing() {
		return uint16(int32(addr.TileData2) + int32(int8(tileIdx))*16)
	}
	return addr.TileData0 + uint16(tileIdx)*16
}

// applyPalette maps a 2-bit color index through one of BGP/OBP0/OBP1 to a
// 2-bit shade.
func applyPalette(palette uint8, colorIdx uint8) uint8 {
	return (palette >> (colorIdx * 2)) & 0x03
}
