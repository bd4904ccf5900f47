package hwio

import (
	"fmt"

	"dmge/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg Reg8) String() string {
	s := fmt.Sprintf("%s{%02x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg8) write(val uint8) {
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

// Bit helpers operate on the raw value and bypass the callbacks.

func (reg *Reg8) GetBit(n uint) bool   { return GetBit8(reg.Value, n) }
func (reg *Reg8) GetBiti(n uint) uint8 { return GetBiti8(reg.Value, n) }
func (reg *Reg8) SetBit(n uint)        { SetBit8(&reg.Value, n) }
func (reg *Reg8) ClearBit(n uint)      { ClearBit8(&reg.Value, n) }
func (reg *Reg8) ClearBits(mask uint8) { ClearBits8(&reg.Value, mask) }

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Write8 to readonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			End()
		return
	}
	reg.write(val)
}

func (reg *Reg8) Read8(addr uint16) uint8 {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Read8 from writeonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			End()
		return openBus
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}
