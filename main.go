package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"cbmdrive/emu"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case runMode:
		path := cfg.Config
		if path == "" {
			path = emu.DefaultConfigPath()
		}
		runMain(cfg.Run, emu.LoadConfigOrDefault(path))
	case diskInfoMode:
		checkf(diskInfoMain(os.Stdout, cfg.DiskInfo), "disk-info")
	case snapshotInfoMode:
		checkf(snapshotInfoMain(os.Stdout, cfg.SnapshotInfo), "snapshot-info")
	case versionMode:
		fmt.Println("cbmdrive", version())
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}
