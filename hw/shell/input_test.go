package shell

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"dmge/hw"
)

func TestParseBindings(t *testing.T) {
	km, err := ParseBindings(map[string]string{
		"a":     "Q",
		"start": "Space",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := km[sdl.K_q]; got != hw.BtnA {
		t.Errorf("K_q = %v, want BtnA", got)
	}
	if got := km[sdl.K_SPACE]; got != hw.BtnStart {
		t.Errorf("K_SPACE = %v, want BtnStart", got)
	}
	// Rebound buttons lose their default key.
	if _, ok := km[sdl.K_x]; ok {
		t.Error("BtnA default binding should have been removed")
	}
	if _, ok := km[sdl.K_RETURN]; ok {
		t.Error("BtnStart default binding should have been removed")
	}
	// Untouched buttons keep theirs.
	if got := km[sdl.K_z]; got != hw.BtnB {
		t.Errorf("K_z = %v, want BtnB", got)
	}
}

func TestParseBindingsErrors(t *testing.T) {
	if _, err := ParseBindings(map[string]string{"turbo": "T"}); err == nil {
		t.Error("unknown button should fail")
	}
	if _, err := ParseBindings(map[string]string{"b": "NotAKey"}); err == nil {
		t.Error("unknown key should fail")
	}
}
