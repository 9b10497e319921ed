package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"cbmdrive/emu"
	"cbmdrive/hw/clock"
)

// cycles run between two drive catch-ups.
const runSlice = 20000

// runMain runs the configured drives for the requested number of master
// clock cycles.
func runMain(args Run, cfg emu.Config) {
	if args.Trace != nil {
		cfg.TraceOut = args.Trace
		defer args.Trace.Close()
	}

	m, err := emu.NewMachineBus(cfg)
	checkf(err, "failed to start drives")
	defer func() {
		checkf(m.Close(), "failed to write disks back")
	}()

	if args.LoadSnapshot != "" {
		checkf(m.LoadSnapshot(args.LoadSnapshot), "failed to load snapshot %s", args.LoadSnapshot)
	}

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Println("CPU profile written to", args.CPUProfile)
		}()
	}

	run(m, args.Cycles)

	if args.SaveSnapshot != "" {
		checkf(m.SaveSnapshot(args.SaveSnapshot), "failed to save snapshot %s", args.SaveSnapshot)
	}
}

// run advances the master clock by n cycles, in slices.
func run(m *emu.MachineBus, n uint64) {
	for n > 0 {
		step := min(n, runSlice)
		m.Advance(clock.Clock(step))
		n -= step
	}
}
