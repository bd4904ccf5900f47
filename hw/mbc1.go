package hw

import (
	"encoding/binary"
	"io"

	"dmge/hw/snapshot"
)

// mbc1 implements the MBC1 bank controller: 5+2 bit ROM bank selection with
// the mode register deciding whether the 2-bit register extends the ROM bank
// or selects the RAM bank.
type mbc1 struct {
	*base

	ramEnable  bool
	bankMode   uint8
	romBankLo  uint8 // full write captured, low 5 bits used
	ramOrUpper uint8 // 2-bit

	activeROM uint8
	activeRAM uint8
}

func newMBC1(b *base) mbc {
	m := &mbc1{base: b}
	m.updateBanks()
	return m
}

func (m *mbc1) Read(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.readROM(0, addr)
	}
	return m.readROM(int(m.activeROM), addr)
}

func (m *mbc1) Write(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		enable := val&0x0F == 0x0A
		if m.ramEnable && !enable {
			m.flushRAM()
		}
		m.ramEnable = enable
	case addr < 0x4000:
		m.romBankLo = val
	case addr < 0x6000:
		m.ramOrUpper = val & 0x03
	default:
		m.bankMode = val & 0x01
	}
	m.updateBanks()
}

func (m *mbc1) updateBanks() {
	var rom int
	if m.bankMode == 0 {
		m.activeRAM = 0
		rom = int(m.ramOrUpper)<<5 | int(m.romBankLo&0x1F)
	} else {
		m.activeRAM = m.ramOrUpper & 0x03
		rom = int(m.romBankLo & 0x1F)
	}

	// Banks 0x00/0x20/0x40/0x60 cannot be selected, the hardware bumps
	// them to the next bank.
	switch rom {
	case 0x00, 0x20, 0x40, 0x60:
		rom++
	}
	m.activeROM = uint8(m.clampROMBank(rom))
}

func (m *mbc1) ReadRAM(addr uint16) uint8 {
	if !m.ramEnable {
		return 0xFF
	}
	return m.readRAM(int(m.activeRAM), addr)
}

func (m *mbc1) WriteRAM(addr uint16, val uint8) {
	if !m.ramEnable {
		modCart.DebugZ("write to disabled RAM dropped").
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	m.writeRAM(int(m.activeRAM), addr, val)
}

func (m *mbc1) saveState(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, &snapshot.MBC1{
		RAMEnable:  btou8(m.ramEnable),
		BankMode:   m.bankMode,
		ROMBankLo:  m.romBankLo,
		RAMOrUpper: m.ramOrUpper,
		ActiveROM:  m.activeROM,
		ActiveRAM:  m.activeRAM,
	})
}

func (m *mbc1) loadState(r io.Reader) error {
	var st snapshot.MBC1
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return err
	}
	m.ramEnable = st.RAMEnable != 0
	m.bankMode = st.BankMode
	m.romBankLo = st.ROMBankLo
	m.ramOrUpper = st.RAMOrUpper
	m.activeROM = st.ActiveROM
	m.activeRAM = st.ActiveRAM
	return nil
}

func btou8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
