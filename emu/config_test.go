package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cbmdrive/hw/cpu"
	"cbmdrive/hw/drive"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[machine]
video_standard = "ntsc"

[drive8]
type = "1581"
idle_method = "trap-idle"
jam_policy = "bogus"
image = "/disks/work.d81"

[snapshot]
save_roms = true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Machine.VideoStandard = "ntsc"
	want.Drive8 = DriveConfig{
		Type:       drive.Type1581,
		IdleMethod: "trap-idle",
		JamPolicy:  "soft-reset",
		Image:      "/disks/work.d81",
	}
	want.Snapshot.SaveROMs = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if hz := cfg.Machine.MainClockHz(); hz != NTSCClockHz {
		t.Errorf("main clock = %d", hz)
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(t.TempDir(), "none.toml")},
		{"bad type", writeConfig(t, "[drive8]\ntype = \"1551\"\n")},
		{"not toml", writeConfig(t, "[drive8\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfigOrDefault(tt.path)
			if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Drive9.Type = drive.Type1541II
	cfg.Drive9.ROM = "/roms/d1541II"
	cfg.Drive9.ReadOnly = true
	cfg.Machine.ROMDir = "/roms"

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Machine.VideoStandard = "secam"
	cfg.Drive8.IdleMethod = ""
	cfg.Drive9.JamPolicy = "explode"
	cfg.Check()

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJamPolicy(t *testing.T) {
	tests := []struct {
		name string
		want cpu.JamAction
	}{
		{"soft-reset", cpu.JamReset},
		{"hard-reset", cpu.JamHardReset},
		{"monitor", cpu.JamMonitor},
		{"continue", cpu.JamNone},
	}
	for _, tt := range tests {
		got, err := ParseJamPolicy(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("ParseJamPolicy(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := ParseJamPolicy("reset"); err == nil {
		t.Error("ParseJamPolicy accepted an unknown policy")
	}
}
