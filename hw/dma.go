package hw

import (
	"dmge/hw/hwio"
)

// oamDMA is the OAM transfer trigger at 0xFF46. Writing a page number copies
// the 160 bytes at page<<8 into OAM. The copy completes instantly; games
// busy-wait in HRAM for the 160 machine cycles the real transfer takes, so
// an instant copy is observationally equivalent.
type oamDMA struct {
	bus *Bus

	DMA hwio.Reg8 `hwio:"offset=0x0,wcb,writeonly"`
}

func (d *oamDMA) MapInto(tbl *hwio.Table) {
	tbl.MapBank(0xFF46, d, 0)
}

// DMA: 0xFF46
func (d *oamDMA) WriteDMA(old, val uint8) {
	src := uint16(val) << 8
	oam := d.bus.PPU.OAM.Data
	for i := uint16(0); i < 0xA0; i++ {
		oam[i] = d.bus.Read8(src + i)
	}
}
