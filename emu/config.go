package emu

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"dmge/emu/log"
)

type Config struct {
	Input     InputConfig     `toml:"input"`
	Video     VideoConfig     `toml:"video"`
	Emulation EmulationConfig `toml:"emulation"`

	// Per-invocation settings, never persisted.
	RomPath  string `toml:"-"`
	BootROM  []byte `toml:"-"`
	Headless bool   `toml:"-"`
}

// InputConfig maps pad button names (a, b, start, select, up, down, left,
// right) to host key names.
type InputConfig struct {
	Bindings map[string]string `toml:"bindings"`
}

type VideoConfig struct {
	// Scale is the integer window scale factor applied to the 160x144 LCD.
	Scale int `toml:"scale"`
}

type EmulationConfig struct {
	// Speed is the startup emulation speed, 1.0 being hardware rate.
	Speed float64 `toml:"speed"`
}

var ConfigDir = sync.OnceValue(func() string {
	base, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to locate user config directory: %v", err)
	}
	dir := filepath.Join(base, "dmge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

func defaultConfig() Config {
	return Config{
		Video:     VideoConfig{Scale: 2},
		Emulation: EmulationConfig{Speed: 1.0},
	}
}

// LoadConfigOrDefault loads the configuration from the dmge config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	cfg := defaultConfig()
	path := filepath.Join(ConfigDir(), cfgFilename)
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			log.ModEmu.WarnZ("unreadable config, using defaults").
				String("path", path).
				Error("err", err).
				End()
		}
		return cfg
	}
	if cfg.Video.Scale <= 0 {
		cfg.Video.Scale = 2
	}
	if cfg.Emulation.Speed <= 0 {
		cfg.Emulation.Speed = 1.0
	}
	return cfg
}

// SaveConfig into the dmge config directory.
func SaveConfig(cfg Config) error {
	f, err := os.Create(filepath.Join(ConfigDir(), cfgFilename))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
