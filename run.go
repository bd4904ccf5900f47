package main

import (
	"fmt"
	"os"

	"github.com/veandco/go-sdl2/sdl"

	"dmge/emu"
	"dmge/emu/log"
	"dmge/emu/rpc"
	"dmge/gbrom"
)

// runMain runs the emulator with the given rom.
func runMain(args Run) {
	var exitcode int
	sdl.Main(func() {
		rom, err := gbrom.Open(args.RomPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading ROM: %s\n", err)
			exitcode = 1
			return
		}

		cfg := emu.LoadConfigOrDefault()
		cfg.RomPath = args.RomPath
		if args.Scale > 0 {
			cfg.Video.Scale = args.Scale
		}
		if args.Speed > 0 {
			cfg.Emulation.Speed = args.Speed
		}
		if args.BootROM != "" {
			boot, err := os.ReadFile(args.BootROM)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error reading boot ROM: %s\n", err)
				exitcode = 1
				return
			}
			cfg.BootROM = boot
		}

		if args.Trace != nil {
			defer args.Trace.Close()
			log.SetOutput(args.Trace)
			log.EnableDebugModules(log.ModuleMaskAll)
		}

		emulator, err := emu.Launch(rom, emu.NewIdleCPU(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
			exitcode = 1
			return
		}

		if args.State != "" {
			if err := emulator.LoadStateFile(args.State); err != nil {
				fmt.Fprintf(os.Stderr, "failed to load state: %v\n", err)
				exitcode = 1
				return
			}
		}

		if args.Port != 0 {
			server, err := rpc.NewServer(args.Port, emulator)
			if err != nil {
				fmt.Fprintf(os.Stderr, "RPC error: %v\n", err)
				exitcode = 1
				return
			}
			defer server.Close()
		}

		emulator.Run()
	})
	os.Exit(exitcode)
}
