package hw

import (
	"encoding/binary"
	"io"

	"dmge/hw/snapshot"
)

// mbc5 implements the MBC5 bank controller: a 9-bit ROM bank selector split
// over two write windows. Unlike its predecessors, bank 0 really is bank 0.
type mbc5 struct {
	*base

	ramEnable bool
	romBankLo uint8
	romBankHi uint8 // 1-bit
	ramBank   uint8 // 4-bit

	activeROM uint16
}

func newMBC5(b *base) mbc {
	return &mbc5{base: b}
}

func (m *mbc5) Read(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.readROM(0, addr)
	}
	return m.readROM(int(m.activeROM), addr)
}

func (m *mbc5) Write(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		enable := val&0x0F == 0x0A
		if m.ramEnable && !enable {
			m.flushRAM()
		}
		m.ramEnable = enable
	case addr < 0x3000:
		m.romBankLo = val
		m.updateBank()
	case addr < 0x4000:
		m.romBankHi = val & 0x01
		m.updateBank()
	case addr < 0x6000:
		m.ramBank = val & 0x0F
	}
}

func (m *mbc5) updateBank() {
	bank := int(m.romBankHi)<<8 | int(m.romBankLo)
	m.activeROM = uint16(m.clampROMBank(bank))
}

func (m *mbc5) ReadRAM(addr uint16) uint8 {
	if !m.ramEnable {
		return 0xFF
	}
	return m.readRAM(int(m.ramBank), addr)
}

func (m *mbc5) WriteRAM(addr uint16, val uint8) {
	if !m.ramEnable {
		modCart.DebugZ("write to disabled RAM dropped").
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	m.writeRAM(int(m.ramBank), addr, val)
}

func (m *mbc5) saveState(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, &snapshot.MBC5{
		RAMEnable: btou8(m.ramEnable),
		ROMBankLo: m.romBankLo,
		ROMBankHi: m.romBankHi,
		RAMBank:   m.ramBank,
		ActiveROM: m.activeROM,
	})
}

func (m *mbc5) loadState(r io.Reader) error {
	var st snapshot.MBC5
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return err
	}
	m.ramEnable = st.RAMEnable != 0
	m.romBankLo = st.ROMBankLo
	m.romBankHi = st.ROMBankHi
	m.ramBank = st.RAMBank
	m.activeROM = st.ActiveROM
	return nil
}
