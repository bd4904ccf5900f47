// Package shell is the SDL2 front end: an OpenGL window showing the LCD
// texture, keyboard input translated to pad buttons and emulator hotkeys.
// Everything touching SDL runs on the main thread through sdl.Do.
package shell

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/veandco/go-sdl2/sdl"

	"dmge/emu/log"
	"dmge/hw"
)

const numVideoBuffers = 2

type Config struct {
	Title string
	Scale int

	// Headless skips window creation and event polling. Frames are still
	// double-buffered and then dropped.
	Headless bool

	Keymap Keymap

	// Buttons receives pad press and release events.
	Buttons func(btn hw.Button, pressed bool)
	// Hotkeys receives emulator control events.
	Hotkeys func(hk Hotkey)
}

// Output owns the window and the video buffers the PPU frame gets blitted
// from. The emulator writes into the buffer returned by BeginFrame and hands
// it back with EndFrame, which uploads it to the screen texture.
type Output struct {
	cfg Config
	win *window

	framebufidx int
	framebuf    [][]byte
	lastframe   []byte

	closed bool
}

func NewOutput(cfg Config) (*Output, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.Keymap == nil {
		cfg.Keymap = DefaultKeymap()
	}

	vb := make([][]byte, numVideoBuffers)
	for i := range vb {
		vb[i] = make([]byte, hw.ScreenWidth*hw.ScreenHeight*4)
	}
	o := &Output{
		cfg:      cfg,
		framebuf: vb,
	}

	if cfg.Headless {
		return o, nil
	}

	var err error
	sdl.Do(func() {
		o.win, err = newWindow(cfg.Title, hw.ScreenWidth, hw.ScreenHeight, cfg.Scale)
	})
	if err != nil {
		return nil, fmt.Errorf("video output: %w", err)
	}
	return o, nil
}

// BeginFrame returns the buffer to render the next frame into.
func (o *Output) BeginFrame() []byte {
	o.framebufidx++
	if o.framebufidx == numVideoBuffers {
		o.framebufidx = 0
	}
	return o.framebuf[o.framebufidx]
}

// EndFrame presents a buffer previously obtained from BeginFrame.
func (o *Output) EndFrame(video []byte) {
	o.lastframe = video
	if o.win == nil {
		return
	}
	sdl.Do(func() {
		o.win.render(video)
	})
}

// Poll drains pending window and keyboard events, dispatching them to the
// configured callbacks. It reports false once the user asked to quit.
func (o *Output) Poll() bool {
	if o.win == nil {
		return !o.closed
	}

	quit := false
	sdl.Do(func() {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch ev := ev.(type) {
			case *sdl.QuitEvent:
				quit = true
			case *sdl.WindowEvent:
				if ev.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
					o.win.resize(ev.Data1, ev.Data2)
				}
			case *sdl.KeyboardEvent:
				if ev.Repeat != 0 {
					continue
				}
				o.handleKey(ev)
			}
		}
	})
	if quit {
		o.closed = true
	}
	return !o.closed
}

func (o *Output) handleKey(ev *sdl.KeyboardEvent) {
	key := ev.Keysym.Sym
	if btn, ok := o.cfg.Keymap[key]; ok && o.cfg.Buttons != nil {
		o.cfg.Buttons(btn, ev.State == sdl.PRESSED)
		return
	}
	if ev.State != sdl.PRESSED {
		return
	}
	if hk, ok := hotkeys[key]; ok && o.cfg.Hotkeys != nil {
		log.ModInput.DebugZ("hotkey").Uint8("hk", uint8(hk)).End()
		o.cfg.Hotkeys(hk)
	}
}

// SetTitle updates the window title bar, used to show pause and speed.
func (o *Output) SetTitle(title string) {
	if o.win == nil {
		return
	}
	sdl.Do(func() {
		o.win.SetTitle(title)
	})
}

// Screenshot writes the last presented frame as PNG.
func (o *Output) Screenshot(path string) error {
	if o.lastframe == nil {
		return fmt.Errorf("no frame rendered yet")
	}
	img := &image.RGBA{
		Pix:    o.lastframe,
		Stride: hw.ScreenWidth * 4,
		Rect:   image.Rect(0, 0, hw.ScreenWidth, hw.ScreenHeight),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (o *Output) Close() error {
	o.closed = true
	if o.win == nil {
		return nil
	}
	var err error
	sdl.Do(func() {
		err = o.win.close()
	})
	o.win = nil
	return err
}
