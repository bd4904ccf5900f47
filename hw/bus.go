package hw

import (
	"encoding/binary"
	"fmt"
	"io"

	"dmge/emu/log"
	"dmge/hw/hwio"
	"dmge/hw/snapshot"
)

const (
	wramSize = 0x2000
	echoSize = 0x1E00
	hramSize = 0x7F

	bootROMSize = 0x100
)

// Bus is the CPU-visible 64 KiB address space: the two cartridge windows,
// video memory, work RAM with its echo, OAM, the I/O register block, high
// RAM and the interrupt enable register.
type Bus struct {
	Table *hwio.Table

	Cart   *Cartridge
	PPU    *PPU
	IRQ    *IRQ
	Timer  *Timer
	Joypad *Joypad

	WRAM hwio.Mem
	HRAM hwio.Mem

	// Boot ROM overlay over 0x0000-0x00FF, unmapped by the first non-zero
	// write to the BOOT register.
	BOOT    hwio.Reg8 `hwio:"offset=0x0,wcb,writeonly"`
	bootROM []byte
	bootOn  bool

	dma oamDMA
}

func NewBus(cart *Cartridge, ppu *PPU, irq *IRQ, timer *Timer, joypad *Joypad) *Bus {
	b := &Bus{
		Table:  hwio.NewTable("cpu"),
		Cart:   cart,
		PPU:    ppu,
		IRQ:    irq,
		Timer:  timer,
		Joypad: joypad,
	}
	b.WRAM = hwio.Mem{Name: "wram", Data: make([]uint8, wramSize), VSize: wramSize}
	b.HRAM = hwio.Mem{Name: "hram", Data: make([]uint8, 0x80), VSize: hramSize}
	b.dma.bus = b
	b.mapAll()
	return b
}

func (b *Bus) mapAll() {
	tbl := b.Table

	tbl.MapDevice(0x0000, &hwio.Device{
		Name:    "cart",
		Size:    0x8000,
		ReadCb:  b.readCart,
		WriteCb: b.Cart.Write,
	})
	tbl.MapDevice(0xA000, &hwio.Device{
		Name:    "extram",
		Size:    0x2000,
		ReadCb:  b.Cart.ReadRAM,
		WriteCb: b.Cart.WriteRAM,
	})

	// VRAM, OAM and the LCD register block.
	b.PPU.MapInto(tbl)

	tbl.MapMem(0xC000, &b.WRAM)

	// 0xE000-0xFDFF mirrors work RAM.
	tbl.MapMem(0xE000, &hwio.Mem{Name: "echo", Data: b.WRAM.Data, VSize: echoSize})

	b.Joypad.MapInto(tbl)
	b.Timer.MapInto(tbl)
	b.IRQ.MapInto(tbl)
	b.dma.MapInto(tbl)
	tbl.MapBank(0xFF50, b, 0)

	tbl.MapMem(0xFF80, &b.HRAM)
}

// LoadBootROM installs a 256-byte boot program over the bottom of the
// cartridge window. It stays visible until the program writes a non-zero
// value to 0xFF50.
func (b *Bus) LoadBootROM(data []byte) error {
	if len(data) != bootROMSize {
		return fmt.Errorf("boot ROM must be %d bytes, got %d", bootROMSize, len(data))
	}
	b.bootROM = append([]byte(nil), data...)
	b.bootOn = true
	return nil
}

func (b *Bus) readCart(addr uint16) uint8 {
	if b.bootOn && addr < bootROMSize {
		return b.bootROM[addr]
	}
	return b.Cart.Read(addr)
}

// BOOT: 0xFF50
func (b *Bus) WriteBOOT(old, val uint8) {
	if b.bootOn && val != 0 {
		log.ModMem.InfoZ("boot ROM unmapped").End()
		b.bootOn = false
	}
}

func (b *Bus) Read8(addr uint16) uint8        { return b.Table.Read8(addr) }
func (b *Bus) Write8(addr uint16, val uint8)  { b.Table.Write8(addr, val) }
func (b *Bus) Read16(addr uint16) uint16      { return hwio.Read16(b.Table, addr) }
func (b *Bus) Write16(addr uint16, val uint16) { hwio.Write16(b.Table, addr, val) }

func (b *Bus) Reset() {
	clear(b.WRAM.Data)
	clear(b.HRAM.Data)
	b.bootOn = len(b.bootROM) > 0
}

func (b *Bus) saveState(w io.Writer) error {
	st := snapshot.Bus{BootOn: btou8(b.bootOn)}
	if err := binary.Write(w, binary.LittleEndian, &st); err != nil {
		return err
	}
	if _, err := w.Write(b.WRAM.Data); err != nil {
		return err
	}
	_, err := w.Write(b.HRAM.Data[:hramSize])
	return err
}

func (b *Bus) loadState(r io.Reader) error {
	var st snapshot.Bus
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.WRAM.Data); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.HRAM.Data[:hramSize]); err != nil {
		return err
	}
	b.bootOn = st.BootOn != 0 && len(b.bootROM) > 0
	return nil
}
