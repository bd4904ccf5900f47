package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/go-faster/jx"

	"dmge/gbrom"
)

func romInfosMain(args RomInfos) {
	roms := make([]*gbrom.Rom, len(args.RomPaths))
	for i, path := range args.RomPaths {
		rom, err := gbrom.Open(path)
		checkf(err, "failed to open %s", path)
		roms[i] = rom
	}

	if args.JSON {
		printInfosJSON(os.Stdout, args.RomPaths, roms)
		return
	}
	for i, rom := range roms {
		if i > 0 {
			fmt.Println()
		}
		printInfos(os.Stdout, args.RomPaths[i], rom)
	}
}

func printInfos(w io.Writer, path string, rom *gbrom.Rom) {
	hdrsum := "ok"
	if rom.ComputeHeaderChecksum() != rom.HeaderChecksum() {
		hdrsum = fmt.Sprintf("bad (header says %#02x, computed %#02x)",
			rom.HeaderChecksum(), rom.ComputeHeaderChecksum())
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "file:\t%s\n", path)
	fmt.Fprintf(tw, "title:\t%s\n", rom.Title())
	fmt.Fprintf(tw, "type:\t%s\n", rom.Type.Desc)
	fmt.Fprintf(tw, "rom:\t%d banks (%d KiB)\n", rom.NumBanks, rom.NumBanks*gbrom.BankSize/1024)
	fmt.Fprintf(tw, "ram:\t%d KiB\n", rom.RAMSize/1024)
	fmt.Fprintf(tw, "cgb:\t%t\n", rom.CGB())
	fmt.Fprintf(tw, "header checksum:\t%s\n", hdrsum)
	fmt.Fprintf(tw, "crc32:\t%08X\n", rom.CRC)
	tw.Flush()
}

func printInfosJSON(w io.Writer, paths []string, roms []*gbrom.Rom) {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for i, rom := range roms {
			e.Obj(func(e *jx.Encoder) {
				e.Field("file", func(e *jx.Encoder) { e.Str(paths[i]) })
				e.Field("title", func(e *jx.Encoder) { e.Str(rom.Title()) })
				e.Field("type", func(e *jx.Encoder) { e.Str(rom.Type.Desc) })
				e.Field("rom_banks", func(e *jx.Encoder) { e.Int(rom.NumBanks) })
				e.Field("rom_bytes", func(e *jx.Encoder) { e.Int(rom.NumBanks * gbrom.BankSize) })
				e.Field("ram_bytes", func(e *jx.Encoder) { e.Int(rom.RAMSize) })
				e.Field("cgb", func(e *jx.Encoder) { e.Bool(rom.CGB()) })
				e.Field("battery", func(e *jx.Encoder) { e.Bool(rom.Type.HasBattery) })
				e.Field("timer", func(e *jx.Encoder) { e.Bool(rom.Type.HasTimer) })
				e.Field("header_checksum_ok", func(e *jx.Encoder) {
					e.Bool(rom.ComputeHeaderChecksum() == rom.HeaderChecksum())
				})
				e.Field("crc32", func(e *jx.Encoder) { e.UInt32(rom.CRC) })
			})
		}
	})
	fmt.Fprintf(w, "%s\n", e.Bytes())
}
