package hw

import (
	"bytes"
	"testing"

	"dmge/hw/hwio"
)

// solidTile fills a tile in VRAM so every pixel decodes to the given
// palette index.
func solidTile(p *PPU, tile uint8, idx uint8) {
	var lo, hi uint8
	if idx&1 != 0 {
		lo = 0xFF
	}
	if idx&2 != 0 {
		hi = 0xFF
	}
	base := uint16(tile) * 16
	for row := uint16(0); row < 8; row++ {
		p.VRAM.Data[base+row*2] = lo
		p.VRAM.Data[base+row*2+1] = hi
	}
}

func wantShade(t *testing.T, p *PPU, x, y int, idx uint8) {
	t.Helper()
	if got := p.Screen().RGBAAt(x, y); got != shades[idx] {
		t.Errorf("pixel (%d,%d) = %v, want shade %d (%v)", x, y, got, idx, shades[idx])
	}
}

// renderLine renders one scanline directly from live VRAM/OAM.
func renderLine(p *PPU, line int) {
	copy(p.vramSnap[:], p.VRAM.Data)
	copy(p.oamSnap[:], p.OAM.Data)
	p.scanline = line
	p.LY.Value = uint8(line)
	p.renderScanline()
}

func TestFrameTiming(t *testing.T) {
	irq := &IRQ{}
	p := NewPPU(irq)

	frames, vblankAt := 0, 0
	for i := 1; i <= FrameClocks; i++ {
		p.Tick()
		if vblankAt == 0 && irq.IF.Value&(1<<IntVBlank) != 0 {
			vblankAt = i
		}
		if p.FrameComplete() {
			frames++
		}
	}

	if frames != 1 {
		t.Errorf("frame edges over one frame = %d, want 1", frames)
	}
	if vblankAt != 144*ScanlineClocks {
		t.Errorf("VBlank interrupt at T-cycle %d, want %d", vblankAt, 144*ScanlineClocks)
	}
	if p.scanline != 0 || p.mode != ModeOAMScan {
		t.Errorf("after full frame: line %d mode %s, want line 0 mode OAMScan", p.scanline, p.mode)
	}
}

func TestModeSequence(t *testing.T) {
	p := NewPPU(&IRQ{})

	tick := func(n int) {
		for i := 0; i < n; i++ {
			p.Tick()
		}
	}

	if p.mode != ModeOAMScan {
		t.Fatalf("reset mode = %s, want OAMScan", p.mode)
	}
	tick(oamScanClocks)
	if p.mode != ModeVRAMScan {
		t.Errorf("after %d clocks: mode = %s, want VRAMScan", oamScanClocks, p.mode)
	}
	tick(vramScanClocks)
	if p.mode != ModeHBlank {
		t.Errorf("mode = %s, want HBlank", p.mode)
	}
	tick(hblankClocks)
	if p.mode != ModeOAMScan || p.scanline != 1 {
		t.Errorf("after one scanline: mode %s line %d, want OAMScan line 1", p.mode, p.scanline)
	}

	// STAT low bits track the mode at all times.
	if p.STAT.Value&0x03 != uint8(ModeOAMScan) {
		t.Errorf("STAT mode bits = %d, want %d", p.STAT.Value&0x03, ModeOAMScan)
	}

	tick((ScreenHeight - 1) * ScanlineClocks)
	if p.mode != ModeVBlank || p.scanline != 144 {
		t.Errorf("mode %s line %d, want VBlank line 144", p.mode, p.scanline)
	}
}

func TestLYCCoincidence(t *testing.T) {
	irq := &IRQ{}
	p := NewPPU(irq)
	p.LYC.Value = 5
	p.STAT.SetBit(statCoincidenceIRQ)

	for i := 0; i < 5*ScanlineClocks; i++ {
		p.Tick()
	}
	if p.scanline != 5 {
		t.Fatalf("scanline = %d, want 5", p.scanline)
	}
	if !p.STAT.GetBit(statCoincidence) {
		t.Error("STAT coincidence bit clear at LY == LYC")
	}
	if irq.IF.Value&(1<<IntLCDStat) == 0 {
		t.Error("no LCDSTAT interrupt on LY == LYC")
	}

	for i := 0; i < ScanlineClocks; i++ {
		p.Tick()
	}
	if p.STAT.GetBit(statCoincidence) {
		t.Error("STAT coincidence bit still set at LY != LYC")
	}
}

func TestStatHBlankIRQ(t *testing.T) {
	irq := &IRQ{}
	p := NewPPU(irq)
	p.STAT.SetBit(statHBlankIRQ)

	for i := 0; i < oamScanClocks+vramScanClocks-1; i++ {
		p.Tick()
	}
	if irq.IF.Value&(1<<IntLCDStat) != 0 {
		t.Fatal("LCDSTAT raised before HBlank entry")
	}
	p.Tick()
	if irq.IF.Value&(1<<IntLCDStat) == 0 {
		t.Error("no LCDSTAT interrupt on HBlank entry")
	}
}

func TestRegisterBank(t *testing.T) {
	p := NewPPU(&IRQ{})
	tbl := hwio.NewTable("bus")
	p.MapInto(tbl)

	tbl.Write8(0xFF40, 0x91)
	if p.LCDC.Value != 0x91 {
		t.Errorf("LCDC = %#02x, want 0x91", p.LCDC.Value)
	}

	// STAT mode bits survive writes; bit 7 reads set.
	p.STAT.Value = uint8(ModeOAMScan)
	tbl.Write8(0xFF41, 0xFF)
	if p.STAT.Value&0x07 != uint8(ModeOAMScan) {
		t.Errorf("STAT low bits clobbered: %#02x", p.STAT.Value)
	}
	if got := tbl.Read8(0xFF41); got&0x80 == 0 {
		t.Errorf("STAT read = %#02x, want bit 7 set", got)
	}

	// LY is read-only.
	p.LY.Value = 42
	tbl.Write8(0xFF44, 0)
	if got := tbl.Read8(0xFF44); got != 42 {
		t.Errorf("LY = %d, want 42", got)
	}

	tbl.Write8(0x8123, 0xAB)
	if got := tbl.Read8(0x8123); got != 0xAB {
		t.Errorf("VRAM readback = %#02x, want 0xAB", got)
	}
	tbl.Write8(0xFE9F, 0xCD)
	if got := tbl.Read8(0xFE9F); got != 0xCD {
		t.Errorf("OAM readback = %#02x, want 0xCD", got)
	}
}

func TestRenderBackground(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdBGEnable | 1<<lcdTileData
	p.BGP.Value = 0xE4

	solidTile(p, 1, 2)
	p.VRAM.Data[0x1800] = 1 // tile (0,0)

	// Render through the state machine so the VRAM snapshot is exercised.
	for i := 0; i < oamScanClocks+vramScanClocks; i++ {
		p.Tick()
	}

	for x := 0; x < 8; x++ {
		wantShade(t, p, x, 0, 2)
	}
	wantShade(t, p, 8, 0, 0)
}

func TestRenderBackgroundScrolled(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdBGEnable | 1<<lcdTileData
	p.BGP.Value = 0xE4
	p.SCX.Value = 4
	p.SCY.Value = 8

	solidTile(p, 1, 3)
	p.VRAM.Data[0x1800+32] = 1 // tile (0,1), reached via SCY

	renderLine(p, 0)

	// SCX=4 shifts the tile's remaining half into pixels 0-3.
	for x := 0; x < 4; x++ {
		wantShade(t, p, x, 0, 3)
	}
	wantShade(t, p, 4, 0, 0)
}

func TestRenderSignedTileAddressing(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdBGEnable // signed tile data
	p.BGP.Value = 0xE4

	// Tile 0x80 sits at 0x1000 + (-128)*16 = 0x0800.
	var lo, hi uint8 = 0xFF, 0x00
	for row := uint16(0); row < 8; row++ {
		p.VRAM.Data[0x0800+row*2] = lo
		p.VRAM.Data[0x0800+row*2+1] = hi
	}
	p.VRAM.Data[0x1800] = 0x80

	renderLine(p, 0)
	wantShade(t, p, 0, 0, 1)
}

func TestRenderDisplayDisabled(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdBGEnable | 1<<lcdTileData
	p.BGP.Value = 0xFF
	solidTile(p, 0, 3)

	renderLine(p, 0)
	for x := 0; x < ScreenWidth; x += 20 {
		wantShade(t, p, x, 0, 0)
	}
}

func TestRenderWindow(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdWindowEnable | 1<<lcdTileData
	p.BGP.Value = 0xE4
	p.WY.Value = 0
	p.WX.Value = 7 + 100 // window starts at screen x=100

	solidTile(p, 1, 3)
	p.VRAM.Data[0x1800] = 1

	renderLine(p, 0)

	wantShade(t, p, 99, 0, 0)
	for x := 100; x < 108; x++ {
		wantShade(t, p, x, 0, 3)
	}
}

func TestRenderWindowBelowWY(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdWindowEnable | 1<<lcdTileData
	p.BGP.Value = 0xE4
	p.WY.Value = 50
	p.WX.Value = 7

	solidTile(p, 1, 3)
	p.VRAM.Data[0x1800] = 1

	renderLine(p, 49)
	wantShade(t, p, 0, 49, 0)

	renderLine(p, 50)
	wantShade(t, p, 0, 50, 3)
}

// putSprite stores a 4-byte OAM entry in the given slot.
func putSprite(p *PPU, slot int, y, x, tile, attr uint8) {
	p.OAM.Data[slot*4+0] = y
	p.OAM.Data[slot*4+1] = x
	p.OAM.Data[slot*4+2] = tile
	p.OAM.Data[slot*4+3] = attr
}

func TestSpritePriority(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdSpriteEnable
	p.OBP0.Value = 0xE4

	solidTile(p, 2, 1)
	solidTile(p, 3, 2)
	putSprite(p, 0, 26, 28, 2, 0) // A: screen x 20-27
	putSprite(p, 1, 26, 23, 3, 0) // B: screen x 15-22

	renderLine(p, 10)

	// Where both overlap, the lower X wins.
	wantShade(t, p, 21, 10, 2)
	wantShade(t, p, 25, 10, 1)
	wantShade(t, p, 16, 10, 2)
}

func TestSpriteBehindBackground(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdBGEnable | 1<<lcdSpriteEnable | 1<<lcdTileData
	p.BGP.Value = 0xE4
	p.OBP0.Value = 0xE4

	solidTile(p, 1, 1)
	solidTile(p, 2, 3)
	p.VRAM.Data[0x1800] = 1 // background covers pixels 0-7
	putSprite(p, 0, 16, 8, 2, 1<<attrPriority)

	renderLine(p, 0)

	// The sprite loses to non-zero background pixels but shows over the
	// zero-index tile that follows.
	wantShade(t, p, 0, 0, 1)
	wantShade(t, p, 8, 0, 0)

	putSprite(p, 0, 16, 16, 2, 1<<attrPriority)
	renderLine(p, 0)
	wantShade(t, p, 8, 0, 3)
}

func TestSpriteTransparency(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdSpriteEnable
	p.OBP0.Value = 0xE4

	// The front sprite is fully transparent, the one behind shows through.
	solidTile(p, 2, 0)
	solidTile(p, 3, 2)
	putSprite(p, 0, 16, 8, 2, 0)
	putSprite(p, 1, 16, 8, 3, 0)

	renderLine(p, 0)
	wantShade(t, p, 0, 0, 2)
}

func TestSpriteFlip(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdSpriteEnable
	p.OBP0.Value = 0xE4

	// Tile 2: only the top-left pixel is set.
	p.VRAM.Data[2*16] = 0x80
	putSprite(p, 0, 16, 8, 2, 1<<attrXFlip|1<<attrYFlip)

	renderLine(p, 7)
	wantShade(t, p, 7, 7, 1)
	wantShade(t, p, 0, 7, 0)
}

func TestSpriteLineLimit(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdSpriteEnable
	p.OBP0.Value = 0xE4

	solidTile(p, 2, 2)
	for i := 0; i < 12; i++ {
		putSprite(p, i, 16, uint8(8+i*8), 2, 0)
	}

	renderLine(p, 0)

	// Only the first ten by X order make it onto the line.
	wantShade(t, p, 9*8, 0, 2)
	wantShade(t, p, 10*8, 0, 0)
	wantShade(t, p, 11*8, 0, 0)
}

func TestSpriteTallMode(t *testing.T) {
	p := NewPPU(&IRQ{})
	p.LCDC.Value = 1<<lcdDisplayEnable | 1<<lcdSpriteEnable | 1<<lcdSpriteSize
	p.OBP0.Value = 0xE4

	// Upper half tile 4, lower half tile 5; index low bit is ignored.
	solidTile(p, 4, 1)
	solidTile(p, 5, 2)
	putSprite(p, 0, 16, 8, 5, 0)

	renderLine(p, 3)
	wantShade(t, p, 0, 3, 1)
	renderLine(p, 12)
	wantShade(t, p, 0, 12, 2)
}

func TestPPUStateRoundTrip(t *testing.T) {
	irq := &IRQ{}
	p := NewPPU(irq)
	p.LCDC.Value = 0x91
	p.LYC.Value = 7
	p.BGP.Value = 0xE4
	p.VRAM.Data[0x123] = 0xAB
	p.OAM.Data[0x42] = 0xCD
	for i := 0; i < 3*ScanlineClocks+100; i++ {
		p.Tick()
	}

	var buf bytes.Buffer
	if err := p.saveState(&buf); err != nil {
		t.Fatal(err)
	}

	q := NewPPU(irq)
	if err := q.loadState(&buf); err != nil {
		t.Fatal(err)
	}

	if q.mode != p.mode || q.scanline != p.scanline || q.modeClocks != p.modeClocks {
		t.Errorf("restored machine state %s/%d/%d, want %s/%d/%d",
			q.mode, q.scanline, q.modeClocks, p.mode, p.scanline, p.modeClocks)
	}
	if q.LCDC.Value != 0x91 || q.LYC.Value != 7 || q.BGP.Value != 0xE4 {
		t.Error("restored registers differ")
	}
	if q.VRAM.Data[0x123] != 0xAB || q.OAM.Data[0x42] != 0xCD {
		t.Error("restored memories differ")
	}
}
