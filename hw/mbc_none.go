package hw

import "io"

// romOnly covers plain 32 KiB cartridges (type codes 0x00, 0x08, 0x09):
// both ROM banks are fixed and the optional RAM is always accessible.
type romOnly struct {
	*base
}

func newROMOnly(b *base) mbc {
	return &romOnly{base: b}
}

func (m *romOnly) Read(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.readROM(0, addr)
	}
	return m.readROM(1, addr)
}

func (m *romOnly) Write(addr uint16, val uint8) {
	modCart.DebugZ("write to ROM-only cartridge dropped").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
}

func (m *romOnly) ReadRAM(addr uint16) uint8 {
	if len(m.cart.RAM) == 0 {
		return 0xFF
	}
	return m.readRAM(0, addr)
}

func (m *romOnly) WriteRAM(addr uint16, val uint8) {
	if len(m.cart.RAM) == 0 {
		return
	}
	m.writeRAM(0, addr, val)
}

func (m *romOnly) saveState(w io.Writer) error { return nil }
func (m *romOnly) loadState(r io.Reader) error { return nil }
