package hwio_test

import (
	"testing"

	"dmge/hw/hwio"
)

type testTable struct {
	t testing.TB
	*hwio.Table
	RAM  hwio.Mem  `hwio:"bank=0,offset=0x0"`
	Reg1 hwio.Reg8 `hwio:"bank=1,offset=0x1,rcb"`
	Reg2 hwio.Reg8 `hwio:"bank=1,offset=0x2,wcb"`
}

// $2001
func (tbl *testTable) ReadReg1(val uint8) uint8 {
	tbl.Reg1.Value++
	return tbl.Reg1.Value
}

// $2002
func (tbl *testTable) WriteReg2(old, val uint8) {
	tbl.Reg2.Value = val &^ 0x0F
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb, Table: hwio.NewTable("bus")}
	tbl.RAM = hwio.Mem{Data: make([]byte, 0x800), VSize: 0x2000}
	tbl.Reg1.Value = 0x99
	tbl.Table.MapBank(0x0000, tbl, 0)
	tbl.Table.MapBank(0x2000, tbl, 1)
	return tbl
}

func (tbl *testTable) wantRead8(addr uint16, want uint8) {
	tbl.t.Helper()
	if got := tbl.Read8(addr); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMapBank(t *testing.T) {
	tbl := newTestTable(t)

	// Mem, mirrored over its virtual size.
	tbl.wantRead8(0x00, 0)
	tbl.Write8(0x00, 0x12)
	tbl.wantRead8(0x00, 0x12)
	tbl.wantRead8(0x800, 0x12)
	tbl.wantRead8(0x1800, 0x12)

	// Reg1
	tbl.wantRead8(0x2001, 0x9A)
	tbl.wantRead8(0x2001, 0x9B)

	// Reg2
	tbl.Write8(0x2002, 0xFF)
	tbl.wantRead8(0x2002, 0xF0)
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x4000, 0xFF)
	tbl.Write8(0x4000, 0x12) // dropped
	tbl.wantRead8(0x4000, 0xFF)
}

func TestTableUnmap(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x10, 0x55)
	tbl.wantRead8(0x10, 0x55)
	tbl.Unmap(0x0000, 0x1FFF)
	tbl.wantRead8(0x10, 0xFF)
}

func TestTableMemorySlice(t *testing.T) {
	tbl := newTestTable(t)

	rom := make([]byte, 0x1000)
	rom[0x123] = 0xAB
	tbl.MapMemorySlice(0x4000, 0x4FFF, rom, true)
	tbl.wantRead8(0x4123, 0xAB)
	tbl.Write8(0x4123, 0x00) // read-only, dropped
	tbl.wantRead8(0x4123, 0xAB)
}

func TestTableDevice(t *testing.T) {
	tbl := newTestTable(t)

	var last uint16
	dev := &hwio.Device{
		Name:    "dev",
		Size:    0x100,
		ReadCb:  func(addr uint16) uint8 { return uint8(addr) },
		WriteCb: func(addr uint16, val uint8) { last = addr },
	}
	tbl.MapDevice(0x6000, dev)
	tbl.wantRead8(0x6042, 0x42)
	tbl.Write8(0x6099, 1)
	if last != 0x6099 {
		t.Errorf("device write addr = %04X, want 6099", last)
	}
}

func TestReadWrite16(t *testing.T) {
	tbl := newTestTable(t)

	hwio.Write16(tbl, 0x0100, 0xBEEF)
	if got := hwio.Read16(tbl, 0x0100); got != 0xBEEF {
		t.Errorf("Read16 = %04X, want BEEF", got)
	}
	tbl.wantRead8(0x0100, 0xEF)
	tbl.wantRead8(0x0101, 0xBE)
}
