package hw

import (
	"encoding/binary"
	"image"
	"io"

	"dmge/emu/log"
	"dmge/hw/hwio"
	"dmge/hw/snapshot"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	NumScanlines   = 154 // 144 visible plus 10 lines of vertical blank
	ScanlineClocks = 456
	FrameClocks    = NumScanlines * ScanlineClocks
)

// Mode is the PPU phase within a scanline. The numeric values appear in the
// low two bits of STAT.
type Mode uint8

//go:generate go tool stringer -type=Mode -trimprefix=Mode

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeVRAMScan
)

const (
	oamScanClocks  = 80
	vramScanClocks = 172
	hblankClocks   = 204
)

const (
	// LCDC bits
	// 0xFF40

	// Background layer on/off.
	lcdBGEnable = 0

	// Sprite layer on/off.
	lcdSpriteEnable = 1

	// Sprite height (0: 8x8; 1: 8x16).
	lcdSpriteSize = 2

	// Background tile map base (0: 0x9800; 1: 0x9C00).
	lcdBGMap = 3

	// Tile data addressing (0: signed indices around 0x9000;
	// 1: unsigned indices from 0x8000).
	lcdTileData = 4

	// Window layer on/off.
	lcdWindowEnable = 5

	// Window tile map base (0: 0x9800; 1: 0x9C00).
	lcdWindowMap = 6

	// Master display enable. When clear the screen stays white.
	lcdDisplayEnable = 7
)

const (
	// STAT bits
	// 0xFF41

	// LY == LYC comparison result, read-only.
	statCoincidence = 2

	// Interrupt source enables. Any of them raises the LCDSTAT line.
	statHBlankIRQ      = 3
	statVBlankIRQ      = 4
	statOAMIRQ         = 5
	statCoincidenceIRQ = 6
)

// PPU runs the four-phase scanline state machine and renders into an RGBA
// framebuffer. Rendering works from copies of VRAM and OAM taken at phase
// boundaries, so writes landing mid-scanline only show on the next line.
type PPU struct {
	irq *IRQ

	// Tile data at 0x8000-0x97FF, the two 32x32 tile maps above it.
	VRAM hwio.Mem `hwio:"bank=1,offset=0x8000"`

	// 40 sprite slots of 4 bytes each.
	OAM hwio.Mem `hwio:"bank=1,offset=0xFE00"`

	LCDC hwio.Reg8 `hwio:"offset=0x0,wcb"`
	STAT hwio.Reg8 `hwio:"offset=0x1,rcb"`
	SCY  hwio.Reg8 `hwio:"offset=0x2"`
	SCX  hwio.Reg8 `hwio:"offset=0x3"`
	LY   hwio.Reg8 `hwio:"offset=0x4,readonly"`
	LYC  hwio.Reg8 `hwio:"offset=0x5"`
	BGP  hwio.Reg8 `hwio:"offset=0x7"`
	OBP0 hwio.Reg8 `hwio:"offset=0x8"`
	OBP1 hwio.Reg8 `hwio:"offset=0x9"`
	WY   hwio.Reg8 `hwio:"offset=0xA"`
	WX   hwio.Reg8 `hwio:"offset=0xB"`

	mode       Mode
	scanline   int
	modeClocks int
	frameDone  bool

	vramSnap [0x2000]uint8
	oamSnap  [0xA0]uint8

	screen image.RGBA

	// Background palette index per pixel of the line being rendered, used
	// for the sprite behind-background priority test.
	bgidx [ScreenWidth]uint8
}

func NewPPU(irq *IRQ) *PPU {
	p := &PPU{irq: irq}
	p.VRAM = hwio.Mem{Data: make([]uint8, 0x2000), VSize: 0x2000}
	p.OAM = hwio.Mem{Data: make([]uint8, 0x100), VSize: 0xA0}
	p.screen = image.RGBA{
		Pix:    make([]uint8, ScreenWidth*ScreenHeight*4),
		Stride: ScreenWidth * 4,
		Rect:   image.Rect(0, 0, ScreenWidth, ScreenHeight),
	}

	// Mode and coincidence bits are not software-writable.
	p.STAT.RoMask = 0x07
	p.Reset()
	return p
}

func (p *PPU) MapInto(tbl *hwio.Table) {
	tbl.MapBank(0xFF40, p, 0)
	tbl.MapBank(0x0000, p, 1)
}

func (p *PPU) Screen() *image.RGBA { return &p.screen }

func (p *PPU) Reset() {
	for i := range p.screen.Pix {
		p.screen.Pix[i] = 0xFF
	}
	clear(p.VRAM.Data)
	clear(p.OAM.Data)
	clear(p.vramSnap[:])
	clear(p.oamSnap[:])

	p.LCDC.Value = 0
	p.STAT.Value = 0
	p.SCY.Value = 0
	p.SCX.Value = 0
	p.LYC.Value = 0
	p.BGP.Value = 0
	p.OBP0.Value = 0
	p.OBP1.Value = 0
	p.WY.Value = 0
	p.WX.Value = 0

	p.frameDone = false
	p.setScanline(0)
	p.setMode(ModeOAMScan, oamScanClocks)
}

// FrameComplete reports whether a full frame was finished since the last
// call, consuming the edge.
func (p *PPU) FrameComplete() bool {
	done := p.frameDone
	p.frameDone = false
	return done
}

// Tick advances the PPU by one T-cycle.
func (p *PPU) Tick() {
	p.modeClocks--
	if p.modeClocks > 0 {
		return
	}

	switch p.mode {
	case ModeOAMScan:
		copy(p.oamSnap[:], p.OAM.Data)
		p.setMode(ModeVRAMScan, vramScanClocks)

	case ModeVRAMScan:
		copy(p.vramSnap[:], p.VRAM.Data)
		p.setMode(ModeHBlank, hblankClocks)
		p.renderScanline()

	case ModeHBlank:
		p.setScanline(p.scanline + 1)
		if p.scanline == ScreenHeight {
			p.setMode(ModeVBlank, ScanlineClocks)
			p.frameDone = true
		} else {
			p.setMode(ModeOAMScan, oamScanClocks)
		}

	case ModeVBlank:
		if p.scanline < NumScanlines-1 {
			p.setScanline(p.scanline + 1)
			p.modeClocks = ScanlineClocks
		} else {
			p.setScanline(0)
			p.setMode(ModeOAMScan, oamScanClocks)
		}
	}
}

func (p *PPU) setMode(mode Mode, clocks int) {
	p.mode = mode
	p.modeClocks = clocks
	p.STAT.Value = p.STAT.Value&^0x03 | uint8(mode)

	switch mode {
	case ModeHBlank:
		if p.STAT.GetBit(statHBlankIRQ) {
			p.irq.Raise(IntLCDStat)
		}
	case ModeVBlank:
		if p.STAT.GetBit(statVBlankIRQ) {
			p.irq.Raise(IntLCDStat)
		}
		p.irq.Raise(IntVBlank)
	case ModeOAMScan:
		if p.STAT.GetBit(statOAMIRQ) {
			p.irq.Raise(IntLCDStat)
		}
	}
}

func (p *PPU) setScanline(line int) {
	p.scanline = line
	p.LY.Value = uint8(line)

	if p.LY.Value == p.LYC.Value {
		p.STAT.SetBit(statCoincidence)
		if p.STAT.GetBit(statCoincidenceIRQ) {
			p.irq.Raise(IntLCDStat)
		}
	} else {
		p.STAT.ClearBit(statCoincidence)
	}
}

// LCDC: 0xFF40
func (p *PPU) WriteLCDC(old, val uint8) {
	if old>>lcdDisplayEnable != val>>lcdDisplayEnable {
		log.ModPPU.DebugZ("display toggled").
			Bool("on", val&(1<<lcdDisplayEnable) != 0).
			End()
	}
}

// STAT: 0xFF41
func (p *PPU) ReadSTAT(val uint8) uint8 {
	// Bit 7 is not wired.
	return val | 0x80
}

func (p *PPU) saveState(w io.Writer) error {
	st := snapshot.PPU{
		Mode:          uint8(p.mode),
		Scanline:      uint8(p.scanline),
		ModeClocks:    int32(p.modeClocks),
		FrameComplete: btou8(p.frameDone),

		LCDC: p.LCDC.Value,
		STAT: p.STAT.Value,
		SCY:  p.SCY.Value,
		SCX:  p.SCX.Value,
		LY:   p.LY.Value,
		LYC:  p.LYC.Value,
		BGP:  p.BGP.Value,
		OBP0: p.OBP0.Value,
		OBP1: p.OBP1.Value,
		WY:   p.WY.Value,
		WX:   p.WX.Value,
	}
	if err := binary.Write(w, binary.LittleEndian, &st); err != nil {
		return err
	}
	if _, err := w.Write(p.VRAM.Data); err != nil {
		return err
	}
	_, err := w.Write(p.OAM.Data[:len(p.oamSnap)])
	return err
}

func (p *PPU) loadState(r io.Reader) error {
	var st snapshot.PPU
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, p.VRAM.Data); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, p.OAM.Data[:len(p.oamSnap)]); err != nil {
		return err
	}

	p.mode = Mode(st.Mode)
	p.scanline = int(st.Scanline)
	p.modeClocks = int(st.ModeClocks)
	p.frameDone = st.FrameComplete != 0

	p.LCDC.Value = st.LCDC
	p.STAT.Value = st.STAT
	p.SCY.Value = st.SCY
	p.SCX.Value = st.SCX
	p.LY.Value = st.LY
	p.LYC.Value = st.LYC
	p.BGP.Value = st.BGP
	p.OBP0.Value = st.OBP0
	p.OBP1.Value = st.OBP1
	p.WY.Value = st.WY
	p.WX.Value = st.WX

	// The phase copies are not part of the state, restart from live memory.
	copy(p.vramSnap[:], p.VRAM.Data)
	copy(p.oamSnap[:], p.OAM.Data)
	return nil
}
