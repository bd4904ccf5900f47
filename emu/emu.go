package emu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"dmge/emu/log"
	"dmge/gbrom"
	"dmge/hw/shell"
)

// Output is where finished frames go. Implemented by shell.Output.
type Output interface {
	BeginFrame() []byte
	EndFrame(video []byte)
	Poll() bool
	SetTitle(title string)
	Screenshot(path string) error
	Close() error
}

const refreshRate = 59.7 // LCD frames per second at 1.0x

// Speed bounds and increment, in quarters of hardware rate.
const (
	speedStep = 1
	speedMin  = 1  // 0.25x
	speedMax  = 16 // 4.0x
)

type Emulator struct {
	GB  *GameBoy
	out Output

	statePath string
	title     string

	// These are accessed concurrently by the emulator loop, the input
	// callbacks and the RPC server.
	quit    atomic.Bool
	paused  atomic.Bool
	reset   atomic.Bool
	saveReq atomic.Bool
	loadReq atomic.Bool
	shotReq atomic.Bool
	speedq  atomic.Int32 // quarters of hardware rate

	frames    int
	statStart time.Time
}

// Launch assembles the machine around the given CPU, restores battery saves
// through the file host, opens the video output and plugs the keyboard.
// It doesn't start the emulation loop, call Run for that.
func Launch(rom *gbrom.Rom, cpu CPU, cfg Config) (*Emulator, error) {
	gb, err := powerUp(rom, NewFileHost(cfg.RomPath), cpu)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}

	if len(cfg.BootROM) > 0 {
		if err := gb.Bus.LoadBootROM(cfg.BootROM); err != nil {
			return nil, err
		}
		gb.Bus.Reset()
	}

	keymap, err := shell.ParseBindings(cfg.Input.Bindings)
	if err != nil {
		return nil, fmt.Errorf("input bindings: %w", err)
	}

	e := &Emulator{
		GB:        gb,
		title:     strings.TrimSpace(rom.Title()),
		statePath: cfg.statePath(),
		statStart: time.Now(),
	}
	e.speedq.Store(speedQuarters(cfg.Emulation.Speed))

	out, err := shell.NewOutput(shell.Config{
		Title:    "dmge - " + e.title,
		Scale:    cfg.Video.Scale,
		Headless: cfg.Headless,
		Keymap:   keymap,
		Buttons:  gb.Joypad.Set,
		Hotkeys:  e.handleHotkey,
	})
	if err != nil {
		return nil, err
	}
	e.out = out
	return e, nil
}

func speedQuarters(speed float64) int32 {
	q := int32(speed*4 + 0.5)
	return min(max(q, speedMin), speedMax)
}

// Speed returns the current emulation speed, 1.0 being hardware rate.
func (e *Emulator) Speed() float64 { return float64(e.speedq.Load()) / 4 }

func (e *Emulator) framePeriod() time.Duration {
	return time.Duration(float64(time.Second) / (refreshRate * e.Speed()))
}

// RunOneFrame emulates a single frame and sleeps whatever remains of the
// frame period, keeping emulation at the target speed.
func (e *Emulator) RunOneFrame() {
	start := time.Now()

	video := e.out.BeginFrame()
	e.GB.RunOneFrame(video)
	e.out.EndFrame(video)

	if d := e.framePeriod() - time.Since(start); d > 0 {
		time.Sleep(d)
	}
}

func (e *Emulator) Run() {
	e.loop()
	log.ModEmu.InfoZ("emulation loop exited").End()

	// Games that never disable RAM access rely on the shutdown flush.
	e.GB.Cart.Flush()
}

func (e *Emulator) loop() {
	for e.out.Poll() {
		if e.paused.Load() {
			// Don't burn cpu while paused.
			time.Sleep(100 * time.Millisecond)
		} else {
			e.RunOneFrame()
			e.frames++
		}
		if e.quit.Load() {
			break
		}
		e.handleRequests()
		e.updateStats()
	}
	e.out.Close()
}

// SetPause, Stop, Reset, SpeedUp and SpeedDown control the emulator loop in
// a concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.Store(pause) }
func (e *Emulator) TogglePause()        { e.paused.Store(!e.paused.Load()) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) SpeedUp()   { e.adjustSpeed(+speedStep) }
func (e *Emulator) SpeedDown() { e.adjustSpeed(-speedStep) }

func (e *Emulator) adjustSpeed(delta int32) {
	for {
		cur := e.speedq.Load()
		next := min(max(cur+delta, speedMin), speedMax)
		if e.speedq.CompareAndSwap(cur, next) {
			log.ModEmu.InfoZ("speed changed").
				String("speed", fmt.Sprintf("%.2fx", float64(next)/4)).
				End()
			return
		}
	}
}

func (e *Emulator) RequestSaveState() { e.saveReq.Store(true) }
func (e *Emulator) RequestLoadState() { e.loadReq.Store(true) }

func (e *Emulator) handleHotkey(hk shell.Hotkey) {
	switch hk {
	case shell.HkPause:
		e.TogglePause()
	case shell.HkReset:
		e.Reset()
	case shell.HkSpeedUp:
		e.SpeedUp()
	case shell.HkSpeedDown:
		e.SpeedDown()
	case shell.HkSaveState:
		e.saveReq.Store(true)
	case shell.HkLoadState:
		e.loadReq.Store(true)
	case shell.HkScreenshot:
		e.shotReq.Store(true)
	}
}

// handleRequests services the control flags between frames, the only point
// at which machine state may be swapped out.
func (e *Emulator) handleRequests() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("performing reset").End()
		e.GB.Cart.Flush()
		e.GB.Reset()
	}
	if e.saveReq.CompareAndSwap(true, false) {
		if err := e.SaveStateFile(e.statePath); err != nil {
			log.ModEmu.WarnZ("save state failed").Error("err", err).End()
		} else {
			log.ModEmu.InfoZ("state saved").String("path", e.statePath).End()
		}
	}
	if e.loadReq.CompareAndSwap(true, false) {
		if err := e.LoadStateFile(e.statePath); err != nil {
			log.ModEmu.WarnZ("load state failed").Error("err", err).End()
		} else {
			log.ModEmu.InfoZ("state loaded").String("path", e.statePath).End()
		}
	}
	if e.shotReq.CompareAndSwap(true, false) {
		path := screenshotPath(e.statePath)
		if err := e.out.Screenshot(path); err != nil {
			log.ModEmu.WarnZ("screenshot failed").Error("err", err).End()
		} else {
			log.ModEmu.InfoZ("screenshot saved").String("path", path).End()
		}
	}
}

// updateStats refreshes the window title with the measured speed about once
// per second.
func (e *Emulator) updateStats() {
	elapsed := time.Since(e.statStart)
	if elapsed < time.Second {
		return
	}
	fps := float64(e.frames) / elapsed.Seconds()
	status := ""
	if e.paused.Load() {
		status = " | paused"
	}
	e.out.SetTitle(fmt.Sprintf("dmge - %s | %.1f fps (%.2fx)%s",
		e.title, fps, e.Speed(), status))
	e.frames = 0
	e.statStart = time.Now()
}

// SaveStateFile dumps the machine state to path.
func (e *Emulator) SaveStateFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.GB.SaveState(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadStateFile restores the machine state from path.
func (e *Emulator) LoadStateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return e.GB.LoadState(f)
}

func (cfg *Config) statePath() string {
	noext := strings.TrimSuffix(cfg.RomPath, filepath.Ext(cfg.RomPath))
	return noext + ".state"
}

func screenshotPath(statePath string) string {
	noext := strings.TrimSuffix(statePath, filepath.Ext(statePath))
	return fmt.Sprintf("%s-%s.png", noext, time.Now().Format("20060102-150405"))
}

var _ Output = (*shell.Output)(nil)
