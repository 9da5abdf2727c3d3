package ppu

import (
	"github.com/coderidge/dmgcore/addr"
	"github.com/coderidge/dmgcore/bit"
)

const maxSpritesPerLine = 10

// spriteEntry is one OAM record selected for the current scanline, already
// adjusted from hardware's +16/+8 screen-position offsets.
type spriteEntry struct {
	y, x      int
	tileIndex uint8
	flags     uint8
	oamIndex  int
}

func (s spriteEntry) flipX() bool    { return bit.IsSet(5, s.flags) }
func (s spriteEntry) flipY() bool    { return bit.IsSet(6, s.flags) }
func (s spriteEntry) behindBG() bool { return bit.IsSet(7, s.flags) }
func (s spriteEntry) useOBP1() bool  { return bit.IsSet(4, s.flags) }

// spritePriorityBuffer resolves per-pixel sprite ownership for one scanline
// using DMG (non-CGB) priority rules: the sprite with the lowest X wins;
// ties are broken by ascending OAM index. Ownership is resolved
// incrementally as each sprite is considered in OAM order, avoiding a sort.
type spritePriorityBuffer struct {
	owner  [ScreenWidth]int
	ownerX [ScreenWidth]int
}

func (b *spritePriorityBuffer) clear() {
	for i := range b.owner {
		b.owner[i] = -1
		b.ownerX[i] = 0xFF
	}
}

func (b *spritePriorityBuffer) tryClaim(pixelX, spriteIndex, spriteX int) {
	if pixelX < 0 || pixelX >= ScreenWidth {
		return
	}
	current := b.owner[pixelX]
	if current == -1 || spriteX < b.ownerX[pixelX] || (spriteX == b.ownerX[pixelX] && spriteIndex < current) {
		b.owner[pixelX] = spriteIndex
		b.ownerX[pixelX] = spriteX
	}
}

func (b *spritePriorityBuffer) ownerOf(pixelX int) int {
	if pixelX < 0 || pixelX >= ScreenWidth {
		return -1
	}
	return b.owner[pixelX]
}

// scanSprites performs the mode-2 OAM scan for the current scanline: select
// up to 10 sprites (ascending OAM index) whose vertical extent covers LY,
// and resolve their per-pixel draw priority.
func (p *PPU) scanSprites() {
	line := int(p.regs.ly)
	height := 8
	if p.regs.tallSprites() {
		height = 16
	}

	sprites := p.lineSprites[:0]
	for i := 0; i < 40; i++ {
		base := i * 4
		y := int(p.oam[base]) - 16
		if line < y || line >= y+height {
			continue
		}
		sprites = append(sprites, spriteEntry{
			y:         y,
			x:         int(p.oam[base+1]) - 8,
			tileIndex: p.oam[base+2],
			flags:     p.oam[base+3],
			oamIndex:  i,
		})
		if len(sprites) >= maxSpritesPerLine {
			break
		}
	}
	p.lineSprites = sprites
}

// drawSprites overlays the selected scanline sprites onto the already-drawn
// background/window line, honoring X-flip/Y-flip, OBP0/OBP1 palette
// selection, transparency (color index 0), and BG-over-OBJ priority.
func (p *PPU) drawSprites(line int, bgColorIndex []uint8) {
	height := 8
	if p.regs.tallSprites() {
		height = 16
	}

	var priority spritePriorityBuffer
	priority.clear()
	for _, s := range p.lineSprites {
		for px := 0; px < 8; px++ {
			priority.tryClaim(s.x+px, s.oamIndex, s.x)
		}
	}

	for _, s := range p.lineSprites {
		tileIndex := s.tileIndex
		if height == 16 {
			tileIndex &^= 0x01
		}
		tileAddr := addr.TileData0 + uint16(tileIndex)*16
		y := line - s.y
		row := fetchTileRow(p, tileAddr, y, height, s.flipY())

		for px := 0; px < 8; px++ {
			bufferX := s.x + px
			if bufferX < 0 || bufferX >= ScreenWidth {
				continue
			}
			if priority.ownerOf(bufferX) != s.oamIndex {
				continue
			}

			colorIdx := row.colorIndex(px, s.flipX())
			if colorIdx == 0 {
				continue
			}
			if s.behindBG() && bgColorIndex[bufferX] != 0 {
				continue
			}

			palette := p.regs.obp0
			if s.useOBP1() {
				palette = p.regs.obp1
			}
			p.fb.set(bufferX, line, applyPalette(palette, colorIdx))
		}
	}
}
