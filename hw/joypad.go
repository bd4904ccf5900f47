package hw

import (
	"dmge/emu/log"
	"dmge/hw/hwio"
)

// Button identifies one of the eight pad inputs. The low two bits are the
// position within a matrix row, bit 2 selects the button row.
type Button uint8

const (
	BtnRight Button = iota
	BtnLeft
	BtnUp
	BtnDown
	BtnA
	BtnB
	BtnSelect
	BtnStart
)

const (
	joypSelDPad    = 4 // P14, direction row
	joypSelButtons = 5 // P15, button row
)

// Joypad is the 2x4 input matrix behind the JOYP register at 0xFF00. Rows
// are selected by driving P14 or P15 low; pressed keys read back as zeroes.
type Joypad struct {
	irq *IRQ

	JOYP hwio.Reg8 `hwio:"offset=0x0,rcb,wcb"`

	dpad    uint8 // pressed mask, bit order Right/Left/Up/Down
	buttons uint8 // pressed mask, bit order A/B/Select/Start
}

func NewJoypad(irq *IRQ) *Joypad {
	j := &Joypad{irq: irq}
	j.Reset()
	return j
}

func (j *Joypad) MapInto(tbl *hwio.Table) {
	tbl.MapBank(0xFF00, j, 0)
}

func (j *Joypad) Reset() {
	j.JOYP.Value = 0x30
	j.dpad = 0
	j.buttons = 0
}

// Set presses or releases a button. A fresh press raises the joypad
// interrupt whichever row is currently selected.
func (j *Joypad) Set(b Button, pressed bool) {
	mask := uint8(1) << (b & 0x03)
	row := &j.dpad
	if b >= BtnA {
		row = &j.buttons
	}

	was := *row&mask != 0
	if pressed {
		*row |= mask
	} else {
		*row &^= mask
	}

	if pressed && !was {
		log.ModInput.DebugZ("button pressed").Uint8("btn", uint8(b)).End()
		j.irq.Raise(IntJoypad)
	}
}

// JOYP: 0xFF00
func (j *Joypad) ReadJOYP(val uint8) uint8 {
	out := val | 0xC0 | 0x0F
	if val&(1<<joypSelDPad) == 0 {
		out &^= j.dpad
	}
	if val&(1<<joypSelButtons) == 0 {
		out &^= j.buttons
	}
	return out
}

func (j *Joypad) WriteJOYP(old, val uint8) {
	// Only the row select lines are writable.
	j.JOYP.Value = val & 0x30
}
