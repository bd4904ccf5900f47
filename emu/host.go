package emu

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"dmge/emu/log"
)

// fileHost persists battery-backed RAM and the clock record next to the
// ROM file: game.gb gets game.sav and game.rtc.
type fileHost struct {
	savPath string
	rtcPath string
}

// NewFileHost returns the cartridge host backed by files alongside the ROM.
func NewFileHost(romPath string) *fileHost {
	noext := strings.TrimSuffix(romPath, filepath.Ext(romPath))
	return &fileHost{
		savPath: noext + ".sav",
		rtcPath: noext + ".rtc",
	}
}

func (h *fileHost) LoadRAM(buf []byte) bool { return h.load(h.savPath, buf) }
func (h *fileHost) SaveRAM(buf []byte)      { h.save(h.savPath, buf) }
func (h *fileHost) LoadRTC(buf []byte) bool { return h.load(h.rtcPath, buf) }
func (h *fileHost) SaveRTC(buf []byte)      { h.save(h.rtcPath, buf) }

func (h *fileHost) NowUnix() uint64 { return uint64(time.Now().Unix()) }

// load fills buf from path. A missing file or a size mismatch is not an
// error, the cartridge starts from a blank slate.
func (h *fileHost) load(path string, buf []byte) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if len(data) != len(buf) {
		log.ModEmu.WarnZ("ignoring save file with wrong size").
			String("path", path).
			Int("size", len(data)).
			Int("want", len(buf)).
			End()
		return false
	}
	copy(buf, data)
	return true
}

// save failures are logged and do not abort the session.
func (h *fileHost) save(path string, buf []byte) {
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		log.ModEmu.WarnZ("save failed").
			String("path", path).
			Error("err", err).
			End()
		return
	}
	log.ModEmu.DebugZ("saved").String("path", path).Int("bytes", len(buf)).End()
}
