package hw

import (
	"bytes"
	"encoding/binary"
	"io"

	"dmge/emu/log"
	"dmge/hw/snapshot"
)

var modRTC = log.NewModule("rtc")

const (
	rtcDayMask  = 0x1FF // 9-bit day counter in the days field
	rtcDayCarry = 1 << 9
)

// rtc models the battery-backed clock of MBC3+TIMER cartridges. The stored
// state is a base wall-clock time plus per-field offsets; the displayed time
// is recomputed from the wall clock on every latch, so the clock keeps
// running while the emulator is off.
type rtc struct {
	host CartHost

	base    uint64
	seconds uint8
	minutes uint8
	hours   uint8
	days    uint16 // bits 0-8 day counter, bit 9 sticky day carry
	halted  bool

	haltAt uint64
}

func newRTC(host CartHost) *rtc {
	r := &rtc{host: host}

	var buf [16]byte
	if host.LoadRTC(buf[:]) {
		var st snapshot.RTC
		if err := binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, &st); err == nil {
			r.restore(st)
			return r
		}
	}

	modRTC.InfoZ("no saved clock, starting from now").End()
	r.base = host.NowUnix()
	return r
}

// now returns the wall clock the RTC sees. A halted clock is pinned at the
// moment the halt bit was set.
func (r *rtc) now() uint64 {
	if r.halted {
		return r.haltAt
	}
	return r.host.NowUnix()
}

func (r *rtc) setHalted(h bool) {
	if h == r.halted {
		return
	}
	if h {
		r.haltAt = r.host.NowUnix()
	} else {
		// The clock did not advance while halted.
		r.base += r.host.NowUnix() - r.haltAt
	}
	r.halted = h
}

func (r *rtc) elapsed() uint64 {
	return (r.now() - r.base) +
		uint64(r.seconds) +
		60*uint64(r.minutes) +
		3600*uint64(r.hours) +
		86400*uint64(r.days&rtcDayMask)
}

// latch snapshots the current time into the 5-register layout games read:
// seconds, minutes, hours, day-low, day-high. Day-high holds day bit 8 at
// bit 0, the halt flag at bit 6 and the day carry at bit 7.
func (r *rtc) latch() [5]uint8 {
	t := r.elapsed()
	days := t / 86400
	if days > rtcDayMask {
		r.days |= rtcDayCarry
	}

	dh := uint8(days>>8) & 0x01
	if r.halted {
		dh |= 1 << 6
	}
	if r.days&rtcDayCarry != 0 {
		dh |= 1 << 7
	}

	return [5]uint8{
		uint8(t % 60),
		uint8((t / 60) % 60),
		uint8((t / 3600) % 24),
		uint8(days),
		dh,
	}
}

// writeReg writes one of the clock registers (selector 0x08-0x0C). Reports
// whether the stored state changed and needs persisting.
func (r *rtc) writeReg(sel, val uint8) bool {
	switch sel {
	case 0x08:
		r.seconds = val
	case 0x09:
		r.minutes = val
	case 0x0A:
		r.hours = val
	case 0x0B:
		r.days = r.days&^0xFF | uint16(val)
	case 0x0C:
		r.days = r.days&0xFF |
			uint16(val&0x01)<<8 |
			uint16(val&0x80)<<2
		r.setHalted(val&(1<<6) != 0)
	default:
		modRTC.WarnZ("write to unknown clock register").
			Hex8("sel", sel).
			Hex8("val", val).
			End()
		return false
	}
	return true
}

func (r *rtc) state() snapshot.RTC {
	st := snapshot.RTC{
		Base:    r.base,
		Seconds: r.seconds,
		Minutes: r.minutes,
		Hours:   r.hours,
		Days:    r.days,
		Halted:  btou8(r.halted),
	}
	if r.halted {
		// A base-relative record cannot stay frozen across a wall clock
		// gap. Fold the frozen time into the field offsets instead.
		t := r.elapsed()
		st.Base = 0
		st.Seconds = uint8(t % 60)
		st.Minutes = uint8((t / 60) % 60)
		st.Hours = uint8((t / 3600) % 24)
		st.Days = r.days&rtcDayCarry | uint16(t/86400)&rtcDayMask
	}
	return st
}

func (r *rtc) restore(st snapshot.RTC) {
	r.base = st.Base
	r.seconds = st.Seconds
	r.minutes = st.Minutes
	r.hours = st.Hours
	r.days = st.Days
	r.halted = st.Halted != 0
	if r.halted {
		// The record carries its frozen time in the field offsets; pin the
		// clock at the moment of the reload.
		r.base = r.host.NowUnix()
		r.haltAt = r.base
	}
}

// persist writes the 16-byte clock record out through the host.
func (r *rtc) persist() {
	var buf bytes.Buffer
	st := r.state()
	if err := binary.Write(&buf, binary.LittleEndian, &st); err != nil {
		modRTC.ErrorZ("failed to encode clock record").Error("err", err).End()
		return
	}
	r.host.SaveRTC(buf.Bytes())
}

func (r *rtc) saveState(w io.Writer) error {
	st := r.state()
	return binary.Write(w, binary.LittleEndian, &st)
}

func (r *rtc) loadState(rd io.Reader) error {
	var st snapshot.RTC
	if err := binary.Read(rd, binary.LittleEndian, &st); err != nil {
		return err
	}
	r.restore(st)
	return nil
}
