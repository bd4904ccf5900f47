package hw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"dmge/emu/log"
	"dmge/gbrom"
	"dmge/hw/snapshot"
)

var modCart = log.NewModule("cart")

// Save state failures.
var (
	ErrCrcMismatch = errors.New("save state was taken from a different ROM")
	ErrBadState    = errors.New("corrupted save state")
)

// CartHost is the host side of cartridge persistence: battery-backed RAM,
// the real-time clock file, and the wall clock.
type CartHost interface {
	// LoadRAM fills buf with the saved RAM image. Returns false if there is
	// no saved image (or it does not fit), in which case RAM starts zeroed.
	LoadRAM(buf []byte) bool
	SaveRAM(buf []byte)

	// LoadRTC fills buf with the saved clock record. Returns false if there
	// is no saved record.
	LoadRTC(buf []byte) bool
	SaveRTC(buf []byte)

	NowUnix() uint64
}

// mbc is the bank-switching state machine of a cartridge. Addresses passed
// to Read/Write are CPU addresses in 0x0000-0x7FFF; ReadRAM/WriteRAM get
// 0xA000-0xBFFF.
type mbc interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
	ReadRAM(addr uint16) uint8
	WriteRAM(addr uint16, val uint8)

	saveState(w io.Writer) error
	loadState(r io.Reader) error
}

type mbcDesc struct {
	Name string
	New  func(*base) mbc
}

var mbcs = map[gbrom.MBCKind]mbcDesc{
	gbrom.MBCNone: {Name: "ROM", New: newROMOnly},
	gbrom.MBC1:    {Name: "MBC1", New: newMBC1},
	gbrom.MBC3:    {Name: "MBC3", New: newMBC3},
	gbrom.MBC5:    {Name: "MBC5", New: newMBC5},
}

// Cartridge models the game pak: the ROM image, the bank controller, the
// external RAM buffer and the optional real-time clock. ROM is never
// mutated after load; external RAM is the only mutable buffer and belongs
// exclusively to the cartridge.
type Cartridge struct {
	rom  *gbrom.Rom
	host CartHost

	RAM         []byte
	ramModified bool

	mbc  mbc
	desc mbcDesc
	rtc  *rtc
}

// NewCartridge attaches a parsed ROM to a host. Battery-backed RAM and the
// clock record are restored through the host callbacks when present.
func NewCartridge(rom *gbrom.Rom, host CartHost) (*Cartridge, error) {
	desc, ok := mbcs[rom.Type.Kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", rom.Type.Desc, gbrom.ErrUnsupportedMBC)
	}

	cart := &Cartridge{
		rom:  rom,
		host: host,
		desc: desc,
	}

	if rom.Type.HasRAM {
		cart.RAM = make([]byte, rom.RAMSize)
		if rom.Type.HasBattery && rom.RAMSize > 0 {
			if !host.LoadRAM(cart.RAM) {
				modCart.InfoZ("no saved RAM, starting blank").End()
			}
		}
	}

	if rom.Type.HasTimer {
		cart.rtc = newRTC(host)
	}

	base := &base{cart: cart}
	cart.mbc = desc.New(base)

	if chk := rom.ComputeHeaderChecksum(); chk != rom.HeaderChecksum() {
		modCart.WarnZ("header checksum mismatch").
			Hex8("got", chk).
			Hex8("want", rom.HeaderChecksum()).
			End()
	}

	modCart.InfoZ("cartridge attached").
		String("title", rom.Title()).
		String("type", desc.Name).
		Int("banks", rom.NumBanks).
		Int("ram", rom.RAMSize).
		Bool("cgb", rom.CGB()).
		End()
	return cart, nil
}

func (c *Cartridge) ROM() *gbrom.Rom { return c.rom }

// Read services CPU reads in the two ROM windows (0x0000-0x7FFF).
func (c *Cartridge) Read(addr uint16) uint8 {
	return c.mbc.Read(addr)
}

// Write services CPU writes to the ROM address space. These are bank
// controller register writes and never modify ROM contents.
func (c *Cartridge) Write(addr uint16, val uint8) {
	c.mbc.Write(addr, val)
}

// ReadRAM services CPU reads in the external RAM window (0xA000-0xBFFF).
func (c *Cartridge) ReadRAM(addr uint16) uint8 {
	return c.mbc.ReadRAM(addr)
}

func (c *Cartridge) WriteRAM(addr uint16, val uint8) {
	c.mbc.WriteRAM(addr, val)
}

// Flush writes battery-backed RAM out through the host if it was modified.
// Called by the bank controllers on RAM-enable 1->0 transitions, and by the
// emulator on shutdown.
func (c *Cartridge) Flush() {
	if c.ramModified && c.rom.Type.HasBattery && len(c.RAM) > 0 {
		c.host.SaveRAM(c.RAM)
		c.ramModified = false
	}
}

// saveState emits the cartridge section of a save state: the ROM identity,
// the RAM image, the clock record and the bank controller registers, closed
// by a complemented kind sentinel.
func (c *Cartridge) saveState(w io.Writer) error {
	le := binary.LittleEndian
	if err := binary.Write(w, le, c.rom.CRC); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint32(len(c.RAM))); err != nil {
		return err
	}
	if _, err := w.Write(c.RAM); err != nil {
		return err
	}
	if err := binary.Write(w, le, btou8(c.rtc != nil)); err != nil {
		return err
	}
	if c.rtc != nil {
		if err := c.rtc.saveState(w); err != nil {
			return err
		}
	}
	kind := uint32(c.rom.Type.Kind)
	if err := binary.Write(w, le, kind); err != nil {
		return err
	}
	if err := c.mbc.saveState(w); err != nil {
		return err
	}
	return binary.Write(w, le, ^kind)
}

// loadState restores the cartridge section. Everything is decoded and
// verified before any of it is applied, so a refused state leaves the
// running cartridge untouched.
func (c *Cartridge) loadState(r io.Reader) error {
	le := binary.LittleEndian

	var crc uint32
	if err := binary.Read(r, le, &crc); err != nil {
		return err
	}
	if crc != c.rom.CRC {
		return fmt.Errorf("%w: state crc %08x, rom crc %08x",
			ErrCrcMismatch, crc, c.rom.CRC)
	}

	var ramSize uint32
	if err := binary.Read(r, le, &ramSize); err != nil {
		return err
	}
	if int(ramSize) != len(c.RAM) {
		return fmt.Errorf("%w: RAM size %d, want %d", ErrBadState, ramSize, len(c.RAM))
	}
	ram := make([]byte, ramSize)
	if _, err := io.ReadFull(r, ram); err != nil {
		return err
	}

	var hasTimer uint8
	if err := binary.Read(r, le, &hasTimer); err != nil {
		return err
	}
	if (hasTimer != 0) != (c.rtc != nil) {
		return fmt.Errorf("%w: clock presence mismatch", ErrBadState)
	}
	var rtcState snapshot.RTC
	if hasTimer != 0 {
		if err := binary.Read(r, le, &rtcState); err != nil {
			return err
		}
	}

	var kind uint32
	if err := binary.Read(r, le, &kind); err != nil {
		return err
	}
	if kind != uint32(c.rom.Type.Kind) {
		return fmt.Errorf("%w: controller kind %d, want %d",
			ErrBadState, kind, c.rom.Type.Kind)
	}

	// Decode the controller registers into a scratch instance so the live
	// one survives a truncated or corrupted stream.
	scratch := c.desc.New(&base{cart: c})
	if err := scratch.loadState(r); err != nil {
		return err
	}

	var comp uint32
	if err := binary.Read(r, le, &comp); err != nil {
		return err
	}
	if comp != ^kind {
		return fmt.Errorf("%w: bad sentinel %08x", ErrBadState, comp)
	}

	copy(c.RAM, ram)
	c.ramModified = false
	if c.rtc != nil {
		c.rtc.restore(rtcState)
	}
	c.mbc = scratch
	return nil
}

// base carries what every bank controller needs: the cartridge and a few
// shared bank helpers.
type base struct {
	cart *Cartridge
}

func (b *base) bank0() []byte { return b.cart.rom.Bank(0) }

// readROM reads from the given 16 KiB ROM bank.
func (b *base) readROM(bank int, addr uint16) uint8 {
	return b.cart.rom.Bank(bank)[addr&0x3FFF]
}

// clampROMBank keeps an overflowing selector inside the ROM. Games may
// program partial values transiently so execution continues.
func (b *base) clampROMBank(bank int) int {
	if bank >= b.cart.rom.NumBanks {
		modCart.WarnZ("ROM bank out of range").
			Int("bank", bank).
			Int("banks", b.cart.rom.NumBanks).
			End()
		bank = b.cart.rom.NumBanks - 1
	}
	return bank
}

func (b *base) numRAMBanks() int {
	return len(b.cart.RAM) / gbrom.RAMBankSize
}

func (b *base) readRAM(bank int, addr uint16) uint8 {
	off := bank*gbrom.RAMBankSize + int(addr&0x1FFF)
	if off >= len(b.cart.RAM) {
		return 0xFF
	}
	return b.cart.RAM[off]
}

func (b *base) writeRAM(bank int, addr uint16, val uint8) {
	off := bank*gbrom.RAMBankSize + int(addr&0x1FFF)
	if off >= len(b.cart.RAM) {
		return
	}
	b.cart.RAM[off] = val
	b.cart.ramModified = true
}

// flushRAM is called by controllers when RAM access gets disabled, the
// point at which games expect their save to hit storage.
func (b *base) flushRAM() {
	b.cart.Flush()
}
