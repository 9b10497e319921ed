package emu

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"cbmdrive/emu/log"
	"cbmdrive/hw/cpu"
	"cbmdrive/hw/drive"
)

type Config struct {
	Machine  MachineConfig  `toml:"machine"`
	Drive8   DriveConfig    `toml:"drive8"`
	Drive9   DriveConfig    `toml:"drive9"`
	Snapshot SnapshotConfig `toml:"snapshot"`

	TraceOut io.WriteCloser `toml:"-"`
}

type MachineConfig struct {
	// VideoStandard selects the master clock frequency: pal or ntsc.
	VideoStandard string `toml:"video_standard"`
	// ROMDir holds the ROMs of drives without an explicit rom path.
	ROMDir string `toml:"rom_dir"`
}

type DriveConfig struct {
	Type       drive.Type `toml:"type"`
	IdleMethod string     `toml:"idle_method"`
	JamPolicy  string     `toml:"jam_policy"`
	ROM        string     `toml:"rom"`
	Image      string     `toml:"image"`
	ReadOnly   bool       `toml:"read_only"`
}

type SnapshotConfig struct {
	SaveDisks bool `toml:"save_disks"`
	SaveROMs  bool `toml:"save_roms"`
}

// Master clock frequencies.
const (
	PALClockHz  = 985248
	NTSCClockHz = 1022730
)

var videoStandards = map[string]uint32{
	"pal":  PALClockHz,
	"ntsc": NTSCClockHz,
}

var jamPolicies = map[string]cpu.JamAction{
	"soft-reset": cpu.JamReset,
	"hard-reset": cpu.JamHardReset,
	"monitor":    cpu.JamMonitor,
	"continue":   cpu.JamNone,
}

// ParseJamPolicy returns the action for a jam policy name.
func ParseJamPolicy(s string) (cpu.JamAction, error) {
	a, ok := jamPolicies[s]
	if !ok {
		return cpu.JamNone, fmt.Errorf("unknown jam policy %q", s)
	}
	return a, nil
}

// MainClockHz returns the master clock frequency.
func (mcfg *MachineConfig) MainClockHz() uint32 {
	if hz, ok := videoStandards[mcfg.VideoStandard]; ok {
		return hz
	}
	return PALClockHz
}

func (mcfg *MachineConfig) Check() {
	if _, ok := videoStandards[mcfg.VideoStandard]; !ok {
		log.ModEmu.Warnf("Invalid video standard %q, fallback to %q", mcfg.VideoStandard, "pal")
		mcfg.VideoStandard = "pal"
	}
}

func (dcfg *DriveConfig) Check(name string) {
	if _, err := drive.ParseIdleMethod(dcfg.IdleMethod); err != nil {
		log.ModEmu.Warnf("%s: invalid idle method %q, fallback to %q", name, dcfg.IdleMethod, drive.IdleTrap)
		dcfg.IdleMethod = drive.IdleTrap.String()
	}
	if _, err := ParseJamPolicy(dcfg.JamPolicy); err != nil {
		log.ModEmu.Warnf("%s: invalid jam policy %q, fallback to %q", name, dcfg.JamPolicy, "soft-reset")
		dcfg.JamPolicy = "soft-reset"
	}
}

// Check replaces invalid values by their default.
func (cfg *Config) Check() {
	cfg.Machine.Check()
	cfg.Drive8.Check("drive8")
	cfg.Drive9.Check("drive9")
}

// Drives returns the configuration of the drive units, device 8 first.
func (cfg *Config) Drives() [2]*DriveConfig {
	return [2]*DriveConfig{&cfg.Drive8, &cfg.Drive9}
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "cbmdrive")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// DefaultConfigPath is the configuration file in the config directory.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

func DefaultConfig() Config {
	return Config{
		Machine: MachineConfig{
			VideoStandard: "pal",
		},
		Drive8: DriveConfig{
			Type:       drive.Type1541,
			IdleMethod: drive.IdleTrap.String(),
			JamPolicy:  "soft-reset",
		},
		Drive9: DriveConfig{
			Type:       drive.TypeNone,
			IdleMethod: drive.IdleTrap.String(),
			JamPolicy:  "soft-reset",
		},
		Snapshot: SnapshotConfig{
			SaveDisks: true,
		},
	}
}

// LoadConfig loads the configuration file at path. Missing settings keep
// their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	cfg.Check()
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration at path, or provide a default
// one if it doesn't exist or can't be decoded.
func LoadConfigOrDefault(path string) Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.WarnZ("Invalid configuration, using defaults").
				String("path", path).
				Error("err", err).
				End()
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig writes the configuration at path.
func SaveConfig(cfg Config, path string) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
