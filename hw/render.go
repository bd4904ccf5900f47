package hw

import (
	"image/color"
	"sort"
)

// The four DMG shades, lightest first.
var shades = [4]color.RGBA{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xC0, 0xC0, 0xC0, 0xFF},
	{0x60, 0x60, 0x60, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

// shade maps a 2-bit palette index through a palette register.
func shade(pal, idx uint8) color.RGBA {
	return shades[pal>>(2*idx)&0x03]
}

func putPixel(line []uint8, x int, c color.RGBA) {
	line[x*4+0] = c.R
	line[x*4+1] = c.G
	line[x*4+2] = c.B
	line[x*4+3] = c.A
}

// tilePixel decodes the palette index of pixel (x, y) of the 2 bpp tile at
// the given VRAM offset. Each tile row is two bytes, low bitplane first.
func (p *PPU) tilePixel(addr uint16, x, y int) uint8 {
	lo := p.vramSnap[addr+uint16(y)*2]
	hi := p.vramSnap[addr+uint16(y)*2+1]
	bit := uint(7 - x)
	return (lo>>bit)&1 | ((hi>>bit)&1)<<1
}

// tileAddr returns the VRAM offset of a background or window tile's data,
// honoring the LCDC addressing mode.
func (p *PPU) tileAddr(tile uint8) uint16 {
	if p.LCDC.GetBit(lcdTileData) {
		return uint16(tile) * 16
	}
	return uint16(0x1000 + int(int8(tile))*16)
}

// renderScanline composites the current line into the framebuffer from the
// VRAM/OAM copies taken at the last phase boundary.
func (p *PPU) renderScanline() {
	line := p.screen.Pix[p.scanline*p.screen.Stride : (p.scanline+1)*p.screen.Stride]
	for i := range line {
		line[i] = 0xFF
	}
	clear(p.bgidx[:])

	if !p.LCDC.GetBit(lcdDisplayEnable) {
		return
	}
	if p.LCDC.GetBit(lcdBGEnable) {
		p.renderBackground(line)
	}
	if p.LCDC.GetBit(lcdWindowEnable) {
		p.renderWindow(line)
	}
	if p.LCDC.GetBit(lcdSpriteEnable) {
		p.renderSprites(line)
	}
}

func (p *PPU) renderBackground(line []uint8) {
	mapBase := uint16(0x1800)
	if p.LCDC.GetBit(lcdBGMap) {
		mapBase = 0x1C00
	}
	pal := p.BGP.Value

	y := (int(p.SCY.Value) + p.scanline) & 0xFF
	row := mapBase + uint16(y>>3)<<5
	for x := 0; x < ScreenWidth; x++ {
		sx := (int(p.SCX.Value) + x) & 0xFF
		tile := p.vramSnap[row+uint16(sx>>3)]
		idx := p.tilePixel(p.tileAddr(tile), sx&7, y&7)
		p.bgidx[x] = idx
		putPixel(line, x, shade(pal, idx))
	}
}

// renderWindow draws the window layer: an unscrolled tile map overlaid from
// (WX-7, WY) to the bottom-right corner of the screen.
func (p *PPU) renderWindow(line []uint8) {
	wy := int(p.WY.Value)
	wx := int(p.WX.Value) - 7
	if p.scanline < wy || wx >= ScreenWidth {
		return
	}

	mapBase := uint16(0x1800)
	if p.LCDC.GetBit(lcdWindowMap) {
		mapBase = 0x1C00
	}
	pal := p.BGP.Value

	y := p.scanline - wy
	row := mapBase + uint16(y>>3)<<5
	for x := max(wx, 0); x < ScreenWidth; x++ {
		sx := x - wx
		tile := p.vramSnap[row+uint16(sx>>3)]
		idx := p.tilePixel(p.tileAddr(tile), sx&7, y&7)
		p.bgidx[x] = idx
		putPixel(line, x, shade(pal, idx))
	}
}

// OAM attribute bits.
const (
	attrPalette  = 4 // OBP0 or OBP1
	attrXFlip    = 5
	attrYFlip    = 6
	attrPriority = 7 // behind non-zero background pixels
)

type sprite struct {
	y, x, tile, attr uint8
}

func (p *PPU) renderSprites(line []uint8) {
	height := 8
	if p.LCDC.GetBit(lcdSpriteSize) {
		height = 16
	}

	// Collect the sprites crossing this line. OAM coordinates are offset
	// by (8, 16): a sprite whose top-left is at screen (0, 0) has x=8, y=16.
	var buf [40]sprite
	active := buf[:0]
	for i := 0; i < 40; i++ {
		s := sprite{
			y:    p.oamSnap[i*4],
			x:    p.oamSnap[i*4+1],
			tile: p.oamSnap[i*4+2],
			attr: p.oamSnap[i*4+3],
		}
		sy := int(s.y) - 16
		if p.scanline < sy || p.scanline >= sy+height {
			continue
		}
		active = append(active, s)
	}

	// Lower X wins, OAM order breaks ties. Only the first 10 are drawn.
	sort.SliceStable(active, func(i, j int) bool { return active[i].x < active[j].x })
	if len(active) > 10 {
		active = active[:10]
	}

	for x := 0; x < ScreenWidth; x++ {
		for _, s := range active {
			sx := int(s.x) - 8
			if x < sx || x >= sx+8 {
				continue
			}

			// The winning sprite can still lose to the background.
			if s.attr&(1<<attrPriority) != 0 && p.bgidx[x] != 0 {
				break
			}

			tx := x - sx
			ty := p.scanline - (int(s.y) - 16)
			if s.attr&(1<<attrXFlip) != 0 {
				tx = 7 - tx
			}
			if s.attr&(1<<attrYFlip) != 0 {
				ty = height - 1 - ty
			}

			// In 8x16 mode the tile index low bit selects the half.
			tile := s.tile
			if height == 16 {
				if ty < 8 {
					tile &= 0xFE
				} else {
					tile |= 0x01
				}
			}

			// Sprite tiles always use unsigned 0x8000-based addressing.
			idx := p.tilePixel(uint16(tile)*16, tx, ty&7)
			if idx == 0 {
				continue
			}

			pal := p.OBP0.Value
			if s.attr&(1<<attrPalette) != 0 {
				pal = p.OBP1.Value
			}
			putPixel(line, x, shade(pal, idx))
			break
		}
	}
}
