// Package snapshot declares the fixed-layout structures that make up a save
// state. Every field is fixed-size so the structs can go straight through
// encoding/binary in little-endian order.
package snapshot

type MBC1 struct {
	RAMEnable  uint8
	BankMode   uint8
	ROMBankLo  uint8
	RAMOrUpper uint8
	ActiveROM  uint8
	ActiveRAM  uint8
}

type MBC3 struct {
	RAMRTCEnable uint8
	ROMBank      uint8
	Select       uint8
	LatchPrev    uint8
	Latch        [5]uint8
}

type MBC5 struct {
	RAMEnable uint8
	ROMBankLo uint8
	ROMBankHi uint8
	RAMBank   uint8
	ActiveROM uint16
}

// RTC mirrors the on-disk clock record: Days holds the 9-bit day counter
// with the sticky carry at bit 9.
type RTC struct {
	Base    uint64
	Seconds uint8
	Minutes uint8
	Hours   uint8
	Days    uint16
	Halted  uint8
	_       [2]uint8
}

type PPU struct {
	Mode          uint8
	Scanline      uint8
	ModeClocks    int32
	FrameComplete uint8

	LCDC uint8
	STAT uint8
	SCY  uint8
	SCX  uint8
	LY   uint8
	LYC  uint8
	BGP  uint8
	OBP0 uint8
	OBP1 uint8
	WY   uint8
	WX   uint8
}

type Bus struct {
	BootOn uint8
}

type Timer struct {
	DivClock  uint16
	TIMAClock uint32
	DIV       uint8
	TIMA      uint8
	TMA       uint8
	TAC       uint8
}

type IRQ struct {
	IF uint8
	IE uint8
}
