package shell

import (
	"fmt"
	"strings"

	"github.com/veandco/go-sdl2/sdl"

	"dmge/hw"
)

// Keymap associates host keyboard keys to pad buttons.
type Keymap map[sdl.Keycode]hw.Button

// DefaultKeymap is the layout used when the config file has no [input]
// section: arrows for the pad, Z/X for B/A, enter and right shift for
// start and select.
func DefaultKeymap() Keymap {
	return Keymap{
		sdl.K_RIGHT:  hw.BtnRight,
		sdl.K_LEFT:   hw.BtnLeft,
		sdl.K_UP:     hw.BtnUp,
		sdl.K_DOWN:   hw.BtnDown,
		sdl.K_x:      hw.BtnA,
		sdl.K_z:      hw.BtnB,
		sdl.K_RSHIFT: hw.BtnSelect,
		sdl.K_RETURN: hw.BtnStart,
	}
}

var buttonNames = map[string]hw.Button{
	"right":  hw.BtnRight,
	"left":   hw.BtnLeft,
	"up":     hw.BtnUp,
	"down":   hw.BtnDown,
	"a":      hw.BtnA,
	"b":      hw.BtnB,
	"select": hw.BtnSelect,
	"start":  hw.BtnStart,
}

// ParseBindings converts a button->key table from the config file into a
// Keymap. Key names are whatever sdl.GetKeyFromName accepts ("Z", "Return",
// "Right Shift", ...). Buttons absent from the table keep their default
// binding.
func ParseBindings(bindings map[string]string) (Keymap, error) {
	km := DefaultKeymap()
	for name, keyname := range bindings {
		btn, ok := buttonNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown button %q", name)
		}
		key := sdl.GetKeyFromName(keyname)
		if key == sdl.K_UNKNOWN {
			return nil, fmt.Errorf("unknown key %q for button %q", keyname, name)
		}
		for k, b := range km {
			if b == btn {
				delete(km, k)
			}
		}
		km[key] = btn
	}
	return km, nil
}

// Hotkey identifies an emulator control action, as opposed to pad input
// forwarded to the running game.
type Hotkey uint8

const (
	HkPause Hotkey = iota
	HkReset
	HkSpeedUp
	HkSpeedDown
	HkSaveState
	HkLoadState
	HkScreenshot
)

var hotkeys = map[sdl.Keycode]Hotkey{
	sdl.K_p:         HkPause,
	sdl.K_BACKSPACE: HkReset,
	sdl.K_KP_PLUS:   HkSpeedUp,
	sdl.K_KP_MINUS:  HkSpeedDown,
	sdl.K_F5:        HkSaveState,
	sdl.K_F7:        HkLoadState,
	sdl.K_F12:       HkScreenshot,
}
