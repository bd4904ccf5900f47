package hw

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Save state stream framing. Sections follow in a fixed order: cartridge,
// bus, interrupt controller, timer, PPU. Everything is little-endian.
var stateMagic = [4]byte{'D', 'M', 'G', 'E'}

const stateVersion uint16 = 1

// SaveState serializes the full machine state.
func SaveState(w io.Writer, cart *Cartridge, bus *Bus, irq *IRQ, timer *Timer, ppu *PPU) error {
	if _, err := w.Write(stateMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, stateVersion); err != nil {
		return err
	}
	for _, f := range []func(io.Writer) error{
		cart.saveState,
		bus.saveState,
		irq.saveState,
		timer.saveState,
		ppu.saveState,
	} {
		if err := f(w); err != nil {
			return err
		}
	}
	return nil
}

// LoadState restores a machine state saved by SaveState. The cartridge
// section is fully verified before anything is applied, so a state taken
// from a different ROM (ErrCrcMismatch) or a corrupted stream caught by the
// sentinel (ErrBadState) leaves the running machine untouched.
func LoadState(r io.Reader, cart *Cartridge, bus *Bus, irq *IRQ, timer *Timer, ppu *PPU) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return err
	}
	if magic != stateMagic {
		return fmt.Errorf("%w: bad magic %q", ErrBadState, magic[:])
	}
	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != stateVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrBadState, version, stateVersion)
	}
	for _, f := range []func(io.Reader) error{
		cart.loadState,
		bus.loadState,
		irq.loadState,
		timer.loadState,
		ppu.loadState,
	} {
		if err := f(r); err != nil {
			return err
		}
	}
	return nil
}
