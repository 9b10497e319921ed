package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"cbmdrive/emu/log"
)

type mode byte

const (
	runMode          mode = iota // Run the drives
	diskInfoMode                 // Show disk image infos
	snapshotInfoMode             // Show snapshot contents
	versionMode                  // Show cbmdrive version
)

type (
	CLI struct {
		Run          Run          `cmd:"" help:"Run the disk drives." default:"withargs"`
		DiskInfo     DiskInfo     `cmd:"" help:"Show disk image infos." name:"disk-info"`
		SnapshotInfo SnapshotInfo `cmd:"" help:"List the modules of a snapshot." name:"snapshot-info"`
		Version      Version      `cmd:"" help:"Show cbmdrive version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `help:"${config_help}" type:"path" placeholder:"FILE"`

		mode mode
	}

	Run struct {
		Cycles       uint64   `name:"cycles" help:"${cycles_help}" default:"1000000"`
		Trace        *outfile `name:"trace" help:"Write drive CPU trace log." placeholder:"FILE|stdout|stderr"`
		SaveSnapshot string   `name:"save-snapshot" help:"Write a snapshot when done." type:"path" placeholder:"FILE"`
		LoadSnapshot string   `name:"load-snapshot" help:"Start from a snapshot." type:"existingfile" placeholder:"FILE"`
		CPUProfile   string   `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
	}

	DiskInfo struct {
		ImagePath string `arg:"" name:"/path/to/image" help:"Disk image (d64, d71, d81, d1m, d2m, d4m)." type:"existingfile"`
		Track     int    `name:"track" help:"${track_help}" default:"0"`
		Side      int    `name:"side" help:"Disk side, for double-sided formats." default:"0"`
		JSON      bool   `name:"json" help:"Output JSON."`
	}

	SnapshotInfo struct {
		Path string `arg:"" name:"/path/to/snapshot" type:"existingfile"`
		JSON bool   `name:"json" help:"Output JSON."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":        "Enable logging for specified modules.",
	"config_help":     "Configuration file. (default: user config directory)",
	"cycles_help":     "Number of master clock cycles to run.",
	"cpuprofile_help": "Write CPU profile to file.",
	"track_help":      "Dump the raw cells of a track. (1-based)",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("cbmdrive"),
		kong.Description("Commodore disk drive emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "disk-info </path/to/image>":
		cfg.mode = diskInfoMode
	case "snapshot-info </path/to/snapshot>":
		cfg.mode = snapshotInfoMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
