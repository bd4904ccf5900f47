package hw

import (
	"encoding/binary"
	"io"

	"dmge/emu/log"
	"dmge/hw/hwio"
	"dmge/hw/snapshot"
)

// TIMA increment periods in T-cycles, indexed by TAC bits 0-1.
// The four selectable rates are 4096, 262144, 65536 and 16384 Hz.
var timerRates = [4]uint32{1024, 16, 64, 256}

const divPeriod = 256 // DIV increments at 16384 Hz

// Timer is the divider and programmable timer block at 0xFF04-0xFF07.
type Timer struct {
	irq *IRQ

	DIV  hwio.Reg8 `hwio:"offset=0x0,wcb"`
	TIMA hwio.Reg8 `hwio:"offset=0x1"`
	TMA  hwio.Reg8 `hwio:"offset=0x2"`
	TAC  hwio.Reg8 `hwio:"offset=0x3,wcb"`

	divClock  uint16
	timaClock uint32
}

func NewTimer(irq *IRQ) *Timer {
	t := &Timer{irq: irq}
	t.Reset()
	return t
}

func (t *Timer) MapInto(tbl *hwio.Table) {
	tbl.MapBank(0xFF04, t, 0)
}

func (t *Timer) Reset() {
	t.DIV.Value = 0
	t.TIMA.Value = 0
	t.TMA.Value = 0
	t.TAC.Value = 0
	t.divClock = 0
	t.timaClock = 0
}

// Tick advances the timer block by one T-cycle.
func (t *Timer) Tick() {
	t.divClock++
	if t.divClock == divPeriod {
		t.divClock = 0
		t.DIV.Value++
	}

	if t.TAC.Value&0x04 == 0 {
		return
	}

	t.timaClock++
	if t.timaClock < timerRates[t.TAC.Value&0x03] {
		return
	}
	t.timaClock = 0

	t.TIMA.Value++
	if t.TIMA.Value == 0 {
		t.TIMA.Value = t.TMA.Value
		t.irq.Raise(IntTimer)
	}
}

// DIV: 0xFF04
// Any write clears the divider.
func (t *Timer) WriteDIV(old, val uint8) {
	t.DIV.Value = 0
	t.divClock = 0
}

// TAC: 0xFF07
func (t *Timer) WriteTAC(old, val uint8) {
	t.TAC.Value = val & 0x07
	if old&0x03 != val&0x03 {
		log.ModTimer.DebugZ("timer rate changed").
			Uint32("period", timerRates[val&0x03]).
			End()
		t.timaClock = 0
	}
}

func (t *Timer) saveState(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, &snapshot.Timer{
		DivClock:  t.divClock,
		TIMAClock: t.timaClock,
		DIV:       t.DIV.Value,
		TIMA:      t.TIMA.Value,
		TMA:       t.TMA.Value,
		TAC:       t.TAC.Value,
	})
}

func (t *Timer) loadState(r io.Reader) error {
	var st snapshot.Timer
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return err
	}
	t.divClock = st.DivClock
	t.timaClock = st.TIMAClock
	t.DIV.Value = st.DIV
	t.TIMA.Value = st.TIMA
	t.TMA.Value = st.TMA
	t.TAC.Value = st.TAC
	return nil
}
