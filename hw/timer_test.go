package hw

import (
	"bytes"
	"testing"
)

func tickN(t *Timer, n int) {
	for i := 0; i < n; i++ {
		t.Tick()
	}
}

func TestTimerDIV(t *testing.T) {
	irq := &IRQ{}
	tm := NewTimer(irq)

	tickN(tm, 255)
	if tm.DIV.Value != 0 {
		t.Fatalf("DIV = %d after 255 ticks, want 0", tm.DIV.Value)
	}
	tm.Tick()
	if tm.DIV.Value != 1 {
		t.Fatalf("DIV = %d after 256 ticks, want 1", tm.DIV.Value)
	}

	tickN(tm, 10*256)
	if tm.DIV.Value != 11 {
		t.Fatalf("DIV = %d, want 11", tm.DIV.Value)
	}

	// Any write clears the divider.
	tm.WriteDIV(tm.DIV.Value, 0x77)
	if tm.DIV.Value != 0 {
		t.Fatalf("DIV = %d after write, want 0", tm.DIV.Value)
	}
}

func TestTimerRate(t *testing.T) {
	irq := &IRQ{}
	tm := NewTimer(irq)

	// Rate 01 increments TIMA every 16 T-cycles.
	tm.WriteTAC(0, 0x05)

	tickN(tm, 15)
	if tm.TIMA.Value != 0 {
		t.Fatalf("TIMA = %d after 15 ticks, want 0", tm.TIMA.Value)
	}
	tm.Tick()
	if tm.TIMA.Value != 1 {
		t.Fatalf("TIMA = %d after 16 ticks, want 1", tm.TIMA.Value)
	}

	tickN(tm, 16*10)
	if tm.TIMA.Value != 11 {
		t.Fatalf("TIMA = %d, want 11", tm.TIMA.Value)
	}
}

func TestTimerDisabled(t *testing.T) {
	irq := &IRQ{}
	tm := NewTimer(irq)

	tm.WriteTAC(0, 0x01) // rate set but not enabled
	tickN(tm, 1024)
	if tm.TIMA.Value != 0 {
		t.Fatalf("TIMA = %d with timer disabled, want 0", tm.TIMA.Value)
	}
}

func TestTimerOverflow(t *testing.T) {
	irq := &IRQ{}
	tm := NewTimer(irq)

	tm.WriteTAC(0, 0x05)
	tm.TMA.Value = 0x42
	tm.TIMA.Value = 0xFF

	tickN(tm, 16)
	if tm.TIMA.Value != 0x42 {
		t.Fatalf("TIMA = %#02x after overflow, want TMA reload 0x42", tm.TIMA.Value)
	}
	if irq.IF.Value&(1<<IntTimer) == 0 {
		t.Fatal("timer interrupt not raised on overflow")
	}
}

func TestTimerStateRoundTrip(t *testing.T) {
	irq := &IRQ{}
	tm := NewTimer(irq)

	tm.WriteTAC(0, 0x06)
	tm.TMA.Value = 0x10
	tickN(tm, 1000)

	var buf bytes.Buffer
	if err := tm.saveState(&buf); err != nil {
		t.Fatal(err)
	}

	tm2 := NewTimer(irq)
	if err := tm2.loadState(&buf); err != nil {
		t.Fatal(err)
	}
	if tm2.TIMA.Value != tm.TIMA.Value || tm2.TMA.Value != tm.TMA.Value ||
		tm2.TAC.Value != tm.TAC.Value || tm2.DIV.Value != tm.DIV.Value {
		t.Error("restored registers differ")
	}
	if tm2.divClock != tm.divClock || tm2.timaClock != tm.timaClock {
		t.Error("restored prescalers differ")
	}
}
