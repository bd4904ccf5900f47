package emu

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"dmge/gbrom"
	"dmge/hw"
	"dmge/tests"
)

// TestSuiteROMsPowerUp loads every image of the downloaded test ROM suites
// and simulates one frame. The pluggable CPU core does not execute the
// program, so what gets exercised is header decoding, MBC selection and the
// power up sequence across hundreds of real dumps.
func TestSuiteROMsPowerUp(t *testing.T) {
	if testing.Short() {
		t.Skip("downloads the test ROM suites")
	}

	root := tests.RomsPath(t)
	video := make([]byte, hw.ScreenWidth*hw.ScreenHeight*4)

	werr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".gb" {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		t.Run(rel, func(t *testing.T) {
			rom, err := gbrom.Open(path)
			if err != nil {
				if errors.Is(err, gbrom.ErrInvalidHeader) || errors.Is(err, gbrom.ErrUnsupportedMBC) {
					t.Skip(err)
				}
				t.Fatal(err)
			}

			host := NewFileHost(filepath.Join(t.TempDir(), filepath.Base(path)))
			gb, err := powerUp(rom, host, NewIdleCPU())
			if err != nil {
				if errors.Is(err, gbrom.ErrUnsupportedMBC) {
					t.Skip(err)
				}
				t.Fatal(err)
			}
			gb.RunOneFrame(video)
		})
		return nil
	})
	if werr != nil {
		t.Fatal(werr)
	}
}
