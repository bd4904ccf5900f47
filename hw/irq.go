package hw

import (
	"encoding/binary"
	"io"

	"dmge/hw/hwio"
	"dmge/hw/snapshot"
)

// IntLine is an interrupt source, numbered in IF/IE bit order.
type IntLine uint8

const (
	IntVBlank IntLine = iota
	IntLCDStat
	IntTimer
	IntSerial
	IntJoypad
)

// IRQ is the interrupt controller: the IF request register at 0xFF0F and
// the IE enable mask at 0xFFFF. The CPU services the lowest pending bit.
type IRQ struct {
	IF hwio.Reg8 `hwio:"offset=0x0,rcb"`
	IE hwio.Reg8 `hwio:"bank=1,offset=0x0"`
}

func (i *IRQ) MapInto(tbl *hwio.Table) {
	tbl.MapBank(0xFF0F, i, 0)
	tbl.MapBank(0xFFFF, i, 1)
}

// The upper 3 bits of IF are not wired.
func (i *IRQ) ReadIF(val uint8) uint8 { return val | 0xE0 }

// Raise requests an interrupt. Raising an already-pending line is a no-op.
func (i *IRQ) Raise(line IntLine) {
	i.IF.Value |= 1 << line
}

// Pending returns the set of requested and enabled interrupt lines.
func (i *IRQ) Pending() uint8 {
	return i.IF.Value & i.IE.Value & 0x1F
}

// Acknowledge clears the request bit of a line being serviced.
func (i *IRQ) Acknowledge(line IntLine) {
	i.IF.Value &^= 1 << line
}

func (i *IRQ) Reset() {
	i.IF.Value = 0
	i.IE.Value = 0
}

func (i *IRQ) saveState(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, &snapshot.IRQ{
		IF: i.IF.Value,
		IE: i.IE.Value,
	})
}

func (i *IRQ) loadState(r io.Reader) error {
	var st snapshot.IRQ
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return err
	}
	i.IF.Value = st.IF
	i.IE.Value = st.IE
	return nil
}
