package emu

import (
	"errors"
	"fmt"
	"io"

	"cbmdrive/emu/log"
	"cbmdrive/hw/clock"
	"cbmdrive/hw/diskimage"
	"cbmdrive/hw/drive"
	"cbmdrive/hw/media"
	"cbmdrive/hw/snapshot"
)

const (
	machineName = "C64"

	machineSnapMajor = 1
	machineSnapMinor = 0
)

// MachineBus owns the drive units and the master clock they follow. It is
// the only caller of drive catch-up, and rebases every clock domain when
// the master clock is about to overflow.
type MachineBus struct {
	Clock  clock.Clock
	Drives [2]*drive.Context
	ROMs   *drive.ROMSet

	hz    uint32
	guard *clock.Guard
	snap  drive.SnapshotOptions
}

// NewMachineBus creates the drive units described by cfg, loads their ROMs
// and attaches the configured disk images. A drive whose ROM can't be
// loaded is left disabled.
func NewMachineBus(cfg Config) (*MachineBus, error) {
	m := &MachineBus{
		ROMs: drive.NewROMSet(),
		hz:   cfg.Machine.MainClockHz(),
		snap: drive.SnapshotOptions{
			SaveDisks: cfg.Snapshot.SaveDisks,
			SaveROMs:  cfg.Snapshot.SaveROMs,
		},
	}
	m.guard = clock.NewGuard(&m.Clock, clock.GuardLimit)
	m.guard.Register(m.rebase)

	defaults := drive.DefaultPaths(cfg.Machine.ROMDir)
	paths := make(map[drive.Type]string)
	for _, dcfg := range cfg.Drives() {
		if dcfg.Type == drive.TypeNone {
			continue
		}
		path := dcfg.ROM
		if path == "" {
			path = defaults[dcfg.Type]
		}
		paths[dcfg.Type] = path
	}
	m.ROMs.LoadAll(paths)

	for unit, dcfg := range cfg.Drives() {
		d := drive.NewContext(unit, m.ROMs, m.hz)
		m.Drives[unit] = d

		idle, _ := drive.ParseIdleMethod(dcfg.IdleMethod)
		d.SetIdleMethod(idle)
		jam, _ := ParseJamPolicy(dcfg.JamPolicy)
		d.SetJamPolicy(jam)

		if dcfg.Image != "" {
			if err := m.Attach(unit, dcfg.Image, dcfg.ReadOnly); err != nil {
				return nil, err
			}
		}
		if err := d.Enable(dcfg.Type, m.Clock); err != nil && !errors.Is(err, drive.ErrROMUnavailable) {
			return nil, fmt.Errorf("%s: %w", d.Name, err)
		}
	}

	if cfg.TraceOut != nil {
		m.SetTraceOutput(cfg.TraceOut)
	}
	return m, nil
}

// MainClockHz returns the master clock frequency.
func (m *MachineBus) MainClockHz() uint32 { return m.hz }

// SetTraceOutput enables execution tracing of the enabled drive CPUs.
func (m *MachineBus) SetTraceOutput(w io.Writer) {
	for _, d := range m.Drives {
		if d.State() == drive.Enabled {
			d.CPU.SetTraceOutput(w)
		}
	}
}

// Advance moves the master clock forward by n cycles and catches the
// drives up.
func (m *MachineBus) Advance(n clock.Clock) {
	m.Clock += n
	m.CatchUpAll()
	m.guard.PreventOverflow()
}

// CatchUpAll runs every enabled drive up to the master clock.
func (m *MachineBus) CatchUpAll() {
	for _, d := range m.Drives {
		d.CatchUp(m.Clock)
	}
}

// rebase is called once the master clock has been rebased by sub cycles.
func (m *MachineBus) rebase(sub clock.Clock) {
	log.ModEmu.DebugZ("Master clock rebase").
		Hex32("sub", uint32(sub)).
		End()
	for _, d := range m.Drives {
		d.RebaseMaster(m.Clock+sub, sub)
	}
}

// Attach inserts the disk image at path into a drive unit.
func (m *MachineBus) Attach(unit int, path string, readOnly bool) error {
	img, err := diskimage.Open(path, readOnly)
	if err != nil {
		return err
	}
	if err := m.Drives[unit].Attach(img); err != nil {
		img.Close()
		return err
	}
	log.ModEmu.InfoZ("Disk image attached").
		String("unit", m.Drives[unit].Name).
		String("path", path).
		End()
	return nil
}

// Detach removes the disk of a drive unit, writing pending changes back to
// its image.
func (m *MachineBus) Detach(unit int) error {
	d := m.Drives[unit]
	st := d.Head.Store()
	if err := d.Detach(); err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Close detaches all disks.
func (m *MachineBus) Close() error {
	var errs []error
	for unit := range m.Drives {
		errs = append(errs, m.Detach(unit))
	}
	return errors.Join(errs...)
}

// WriteSnapshot saves the master clock and the drives into s.
func (m *MachineBus) WriteSnapshot(s *snapshot.Snapshot) {
	mod := s.Create("MACHINE", machineSnapMajor, machineSnapMinor)
	mod.DW(uint32(m.Clock))
	mod.DW(m.hz)
	drive.WriteSnapshot(s, m.Drives[:], m.snap)
}

// ReadSnapshot restores the master clock and the drives from s.
func (m *MachineBus) ReadSnapshot(s *snapshot.Snapshot) error {
	cur, major, minor, err := s.Open("MACHINE")
	if err != nil {
		return err
	}
	if err := snapshot.CheckVersion("MACHINE", major, minor, machineSnapMajor, machineSnapMinor); err != nil {
		return err
	}
	clk, hz := clock.Clock(cur.DW()), cur.DW()
	if err := cur.Err(); err != nil {
		return err
	}

	m.Clock = clk
	if hz != m.hz {
		log.ModEmu.WarnZ("Snapshot taken with another master clock").
			Uint("hz", uint64(hz)).
			Uint("current", uint64(m.hz)).
			End()
		m.hz = hz
		for _, d := range m.Drives {
			d.SetMainClock(hz)
		}
	}

	var stores [len(m.Drives)]media.Store
	for i, d := range m.Drives {
		stores[i] = d.Head.Store()
	}
	_, err = drive.ReadSnapshot(s, m.Drives[:])

	// Disks replaced by the ones from the snapshot are released.
	for i, d := range m.Drives {
		if c, ok := stores[i].(io.Closer); ok && d.Head.Store() != stores[i] {
			c.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("drives: %w", err)
	}
	return nil
}

// SaveSnapshot writes a snapshot file.
func (m *MachineBus) SaveSnapshot(path string) error {
	s := snapshot.New(machineName)
	m.WriteSnapshot(s)
	if err := s.Save(path); err != nil {
		return err
	}
	log.ModEmu.InfoZ("Snapshot saved").
		String("path", path).
		Int("modules", len(s.Modules)).
		End()
	return nil
}

// LoadSnapshot restores a snapshot file.
func (m *MachineBus) LoadSnapshot(path string) error {
	s, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	return m.ReadSnapshot(s)
}
