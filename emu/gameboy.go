package emu

import (
	"fmt"
	"io"

	"dmge/gbrom"
	"dmge/hw"
)

// GameBoy assembles the hardware blocks around a shared bus and clocks
// them from a common T-cycle counter.
type GameBoy struct {
	CPU    CPU
	Bus    *hw.Bus
	Cart   *hw.Cartridge
	PPU    *hw.PPU
	IRQ    *hw.IRQ
	Timer  *hw.Timer
	Joypad *hw.Joypad
	Rom    *gbrom.Rom
}

func powerUp(rom *gbrom.Rom, host hw.CartHost, cpu CPU) (*GameBoy, error) {
	cart, err := hw.NewCartridge(rom, host)
	if err != nil {
		return nil, err
	}

	irq := &hw.IRQ{}
	ppu := hw.NewPPU(irq)
	timer := hw.NewTimer(irq)
	joypad := hw.NewJoypad(irq)
	bus := hw.NewBus(cart, ppu, irq, timer, joypad)

	gb := &GameBoy{
		CPU:    cpu,
		Bus:    bus,
		Cart:   cart,
		PPU:    ppu,
		IRQ:    irq,
		Timer:  timer,
		Joypad: joypad,
		Rom:    rom,
	}
	gb.Reset()
	return gb, nil
}

func (gb *GameBoy) Reset() {
	gb.PPU.Reset()
	gb.Timer.Reset()
	gb.IRQ.Reset()
	gb.Joypad.Reset()
	gb.Bus.Reset()
	gb.CPU.Reset()
}

// RunOneFrame steps the CPU, fanning each instruction's T-cycles out to the
// PPU and timer, until the PPU signals a completed frame. Pending enabled
// interrupts are handed to the CPU at instruction boundaries. The finished
// frame is blitted into video, which must hold 160*144*4 bytes.
func (gb *GameBoy) RunOneFrame(video []byte) {
	for {
		ticks := gb.CPU.Step()
		for i := 0; i < ticks; i++ {
			gb.PPU.Tick()
			gb.Timer.Tick()
		}
		if mask := gb.IRQ.Pending(); mask != 0 {
			gb.CPU.Interrupt(mask)
		}
		if gb.PPU.FrameComplete() {
			break
		}
	}
	copy(video, gb.PPU.Screen().Pix)
}

// SaveState serializes the whole machine.
func (gb *GameBoy) SaveState(w io.Writer) error {
	return hw.SaveState(w, gb.Cart, gb.Bus, gb.IRQ, gb.Timer, gb.PPU)
}

// LoadState restores a machine state. A state saved from a different ROM
// or a corrupted stream is refused without touching the running machine.
func (gb *GameBoy) LoadState(r io.Reader) error {
	if err := hw.LoadState(r, gb.Cart, gb.Bus, gb.IRQ, gb.Timer, gb.PPU); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	gb.CPU.Reset()
	return nil
}
