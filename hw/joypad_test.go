package hw

import "testing"

func TestJoypadMatrix(t *testing.T) {
	irq := &IRQ{}
	j := NewJoypad(irq)

	// Nothing selected: all lines read high.
	j.WriteJOYP(j.JOYP.Value, 0x30)
	if got := j.ReadJOYP(j.JOYP.Value); got&0x0F != 0x0F {
		t.Errorf("JOYP = %#02x with no row selected, want low nibble high", got)
	}

	j.Set(BtnA, true)

	// Button row selected (P15 low): A reads back as bit 0 low.
	j.WriteJOYP(j.JOYP.Value, 0x10)
	if got := j.ReadJOYP(j.JOYP.Value); got&0x01 != 0 {
		t.Errorf("JOYP = %#02x with A pressed, want bit 0 low", got)
	}

	// Direction row selected (P14 low): A is invisible.
	j.WriteJOYP(j.JOYP.Value, 0x20)
	if got := j.ReadJOYP(j.JOYP.Value); got&0x0F != 0x0F {
		t.Errorf("JOYP = %#02x on direction row, want low nibble high", got)
	}

	j.Set(BtnA, false)
	j.Set(BtnLeft, true)
	if got := j.ReadJOYP(j.JOYP.Value); got&0x02 != 0 {
		t.Errorf("JOYP = %#02x with Left pressed, want bit 1 low", got)
	}
}

func TestJoypadInterrupt(t *testing.T) {
	irq := &IRQ{}
	j := NewJoypad(irq)

	j.Set(BtnStart, true)
	if irq.IF.Value&(1<<IntJoypad) == 0 {
		t.Fatal("joypad interrupt not raised on press")
	}

	// Releasing and holding do not raise.
	irq.Acknowledge(IntJoypad)
	j.Set(BtnStart, true)
	j.Set(BtnStart, false)
	if irq.IF.Value&(1<<IntJoypad) != 0 {
		t.Error("joypad interrupt raised without a fresh press")
	}
}

func TestJoypadSelectBitsWritable(t *testing.T) {
	irq := &IRQ{}
	j := NewJoypad(irq)

	j.WriteJOYP(j.JOYP.Value, 0xFF)
	if j.JOYP.Value != 0x30 {
		t.Errorf("JOYP = %#02x after write 0xFF, want only row selects kept", j.JOYP.Value)
	}

	// Upper two bits always read high.
	if got := j.ReadJOYP(j.JOYP.Value); got&0xC0 != 0xC0 {
		t.Errorf("JOYP = %#02x, want bits 6-7 high", got)
	}
}
