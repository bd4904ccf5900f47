package hw

import (
	"encoding/binary"
	"io"

	"dmge/hw/snapshot"
)

// mbc3 implements the MBC3 bank controller with its optional real-time
// clock. The 0x4000 selector doubles as RAM bank (0x00-0x07) or clock
// register (0x08-0x0C); the 0x6000 window drives the clock latch protocol.
type mbc3 struct {
	*base

	ramRTCEnable bool
	romBank      uint8 // 7-bit, never zero
	sel          uint8 // RAM bank or clock register
	latchPrev    uint8
	latched      [5]uint8
}

func newMBC3(b *base) mbc {
	return &mbc3{base: b, romBank: 1}
}

func (m *mbc3) Read(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.readROM(0, addr)
	}
	return m.readROM(m.clampROMBank(int(m.romBank)), addr)
}

func (m *mbc3) Write(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		enable := val == 0x0A
		if m.ramRTCEnable && !enable {
			m.flushRAM()
		}
		m.ramRTCEnable = enable
	case addr < 0x4000:
		m.romBank = val & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case addr < 0x6000:
		m.sel = val
	default:
		// Writing 0 then 1 latches the current time into the clock
		// registers; they stay stable across reads until the next edge.
		if m.latchPrev == 0x00 && val == 0x01 && m.cart.rtc != nil {
			m.latched = m.cart.rtc.latch()
		}
		m.latchPrev = val
	}
}

func (m *mbc3) ReadRAM(addr uint16) uint8 {
	if !m.ramRTCEnable {
		return 0xFF
	}
	switch {
	case m.sel <= 0x07:
		return m.readRAM(int(m.sel), addr)
	case m.sel <= 0x0C:
		return m.latched[m.sel-0x08]
	}
	return 0xFF
}

func (m *mbc3) WriteRAM(addr uint16, val uint8) {
	if !m.ramRTCEnable {
		modCart.DebugZ("write to disabled RAM dropped").
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	switch {
	case m.sel <= 0x07:
		m.writeRAM(int(m.sel), addr, val)
	case m.sel <= 0x0C:
		if m.cart.rtc != nil && m.cart.rtc.writeReg(m.sel, val) {
			m.cart.rtc.persist()
		}
	}
}

func (m *mbc3) saveState(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, &snapshot.MBC3{
		RAMRTCEnable: btou8(m.ramRTCEnable),
		ROMBank:      m.romBank,
		Select:       m.sel,
		LatchPrev:    m.latchPrev,
		Latch:        m.latched,
	})
}

func (m *mbc3) loadState(r io.Reader) error {
	var st snapshot.MBC3
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return err
	}
	m.ramRTCEnable = st.RAMRTCEnable != 0
	m.romBank = st.ROMBank
	m.sel = st.Select
	m.latchPrev = st.LatchPrev
	m.latched = st.Latch
	return nil
}
