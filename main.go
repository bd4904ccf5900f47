package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		fmt.Println("dmge", version())
	case romInfosMode:
		romInfosMain(cli.RomInfos)
	default:
		runMain(cli.Run)
	}
}

func version() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}
