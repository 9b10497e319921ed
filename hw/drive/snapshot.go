package drive

import (
	"errors"
	"fmt"

	"cbmdrive/emu/log"
	"cbmdrive/hw/clock"
	"cbmdrive/hw/diskimage"
	"cbmdrive/hw/media"
	"cbmdrive/hw/snapshot"
)

/*
DRIVE module, shared by all units.

	Name           Type   Description

	MainHz         DWORD  master clock frequency, from which the sync
	                      factors derive

then for every unit:

	Type           DWORD  drive type, 0 if disabled
	IdleMethod     BYTE
	HalfTrack      WORD   half-track under the head
	Cell           DWORD  cell under the head
	ReadLatch      BYTE
	WriteLatch     BYTE
	ByteReady      BYTE
	ReadOnly       BYTE   disk is write protected
	RotationClk    DWORD  drive clock of the last rotation update
	RotationAccum  DWORD  fraction of cell
	Control        BYTE   controller CONTROL register

then, from version 1.1, for every unit:

	WriteSync      BYTE   write latch holds a sync mark
	IRQ            BYTE   controller IRQ flags
	TimerLo        BYTE
	TimerHi        BYTE
	TimerPending   BYTE
	TimerDeadline  DWORD
	DiskChange     BYTE
	ByteReadyEdge  BYTE
*/

const (
	driveSnapMajor = 1
	driveSnapMinor = 1

	imageSnapMajor = 1
	imageSnapMinor = 0

	rawSnapMajor = 1
	rawSnapMinor = 0

	romSnapMajor = 1
	romSnapMinor = 0
)

// SnapshotOptions select the optional modules.
type SnapshotOptions struct {
	// SaveDisks stores the disk contents and the raw track under the head.
	SaveDisks bool
	// SaveROMs stores the ROM of every enabled unit.
	SaveROMs bool
}

// unitState is the per-unit part of the DRIVE module.
type unitState struct {
	Type       Type
	Idle       IdleMethod
	HalfTrack  uint16
	Cell       uint32
	ReadLatch  uint8
	WriteLatch uint8
	ByteReady  bool
	ReadOnly   bool
	LastClk    clock.Clock
	Accum      uint32
	Control    uint8

	// 1.1
	WriteSync     bool
	IRQ           uint8
	TimerLo       uint8
	TimerHi       uint8
	TimerPending  bool
	TimerDeadline clock.Clock
	DiskChange    bool
	Edge          bool
}

func (u *unitState) writeBase(m *snapshot.ModuleWriter) {
	m.DW(uint32(u.Type))
	m.B(uint8(u.Idle))
	m.W(u.HalfTrack)
	m.DW(u.Cell)
	m.B(u.ReadLatch)
	m.B(u.WriteLatch)
	m.Bool(u.ByteReady)
	m.Bool(u.ReadOnly)
	m.DW(uint32(u.LastClk))
	m.DW(u.Accum)
	m.B(u.Control)
}

func (u *unitState) writeExt(m *snapshot.ModuleWriter) {
	m.Bool(u.WriteSync)
	m.B(u.IRQ)
	m.B(u.TimerLo)
	m.B(u.TimerHi)
	m.Bool(u.TimerPending)
	m.DW(uint32(u.TimerDeadline))
	m.Bool(u.DiskChange)
	m.Bool(u.Edge)
}

func (u *unitState) readBase(cur *snapshot.Cursor) {
	u.Type = Type(cur.DW())
	u.Idle = IdleMethod(cur.B())
	u.HalfTrack = cur.W()
	u.Cell = cur.DW()
	u.ReadLatch = cur.B()
	u.WriteLatch = cur.B()
	u.ByteReady = cur.Bool()
	u.ReadOnly = cur.Bool()
	u.LastClk = clock.Clock(cur.DW())
	u.Accum = cur.DW()
	u.Control = cur.B()
}

func (u *unitState) readExt(cur *snapshot.Cursor) {
	u.WriteSync = cur.Bool()
	u.IRQ = cur.B()
	u.TimerLo = cur.B()
	u.TimerHi = cur.B()
	u.TimerPending = cur.Bool()
	u.TimerDeadline = clock.Clock(cur.DW())
	u.DiskChange = cur.Bool()
	u.Edge = cur.Bool()
}

func (d *Context) captureState() unitState {
	if d.state != Enabled {
		return unitState{}
	}
	d.rotate()
	h, r, ctrl := d.Head, &d.rot, &d.ctrl
	return unitState{
		Type:          d.model.Type,
		Idle:          d.idle,
		HalfTrack:     uint16(h.HalfTrack()),
		Cell:          uint32(h.Cell()),
		ReadLatch:     r.readLatch,
		WriteLatch:    r.writeLatch,
		ByteReady:     r.byteReady,
		ReadOnly:      h.WriteProtect(),
		LastClk:       r.lastClk,
		Accum:         uint32(r.accum),
		Control:       ctrl.CONTROL.Value,
		WriteSync:     r.writeSync,
		IRQ:           ctrl.IRQ.Value,
		TimerLo:       ctrl.TIMERLO.Value,
		TimerHi:       ctrl.TIMERHI.Value,
		TimerPending:  d.timer.Pending(),
		TimerDeadline: d.timer.Deadline(),
		DiskChange:    h.DiskChange(),
		Edge:          r.edge,
	}
}

func (d *Context) restoreState(u *unitState) {
	h, r, ctrl := d.Head, &d.rot, &d.ctrl

	ctrl.CONTROL.Set(u.Control)
	ctrl.applyControl()
	h.SetHalfTrack(int(u.HalfTrack))
	h.SetCell(int(u.Cell))
	h.SetDiskChange(u.DiskChange)

	r.readLatch = u.ReadLatch
	r.writeLatch = u.WriteLatch
	r.writeSync = u.WriteSync
	r.byteReady = u.ByteReady
	r.edge = u.Edge
	r.lastClk = u.LastClk
	r.accum = uint64(u.Accum) % r.hz

	// The IRQ line itself is part of the CPU module.
	ctrl.IRQ.Set(u.IRQ)
	ctrl.TIMERLO.Set(u.TimerLo)
	ctrl.TIMERHI.Set(u.TimerHi)
	if u.TimerPending {
		d.timer.Set(u.TimerDeadline)
	} else {
		d.timer.Unset()
	}
}

func (d *Context) module(kind string) string {
	return fmt.Sprintf("%s%d", kind, d.Unit)
}

// WriteSnapshot appends the state of the drive units to s. Nothing is
// written if no unit is enabled, which is how a snapshot records that drive
// emulation was off.
func WriteSnapshot(s *snapshot.Snapshot, drives []*Context, opts SnapshotOptions) {
	writeSnapshot(s, drives, opts, driveSnapMinor)
}

func writeSnapshot(s *snapshot.Snapshot, drives []*Context, opts SnapshotOptions, minor uint8) {
	enabled := false
	for _, d := range drives {
		if err := d.Head.Flush(); err != nil {
			log.ModSnap.WarnZ("Disk flush failed").
				String("unit", d.Name).
				Error("err", err).
				End()
		}
		enabled = enabled || d.state == Enabled
	}
	if !enabled || len(drives) == 0 {
		return
	}

	units := make([]unitState, len(drives))
	for i, d := range drives {
		units[i] = d.captureState()
	}

	m := s.Create("DRIVE", driveSnapMajor, minor)
	m.DW(drives[0].mainHz)
	for i := range units {
		units[i].writeBase(m)
	}
	if minor >= 1 {
		for i := range units {
			units[i].writeExt(m)
		}
	}

	for _, d := range drives {
		if d.state == Enabled {
			d.CPU.WriteModule(s, d.module("DRIVECPU"), d.ram)
		}
	}
	if opts.SaveDisks {
		for _, d := range drives {
			d.writeImageModule(s)
			d.writeRawTrackModule(s)
		}
	}
	if opts.SaveROMs {
		for _, d := range drives {
			if d.state == Enabled {
				s.Create(d.module("DRIVEROM"), romSnapMajor, romSnapMinor).BA(d.rom.Data)
			}
		}
	}
}

// writeImageModule stores the disk, sector after sector, track after track.
// The walk stops at the first track the store has no sector 0 for, so no
// geometry needs to be stored.
func (d *Context) writeImageModule(s *snapshot.Snapshot) {
	st := d.Head.Store()
	if st == nil {
		s.Create(d.module("NOIMAGE"), imageSnapMajor, imageSnapMinor)
		return
	}

	m := s.Create(d.module("IMAGE"), imageSnapMajor, imageSnapMinor)
	m.W(uint16(st.Geometry().Format))
	buf := make([]byte, diskimage.SectorSize)
	for track := 1; ; track++ {
		sector := 0
		for ; st.ReadSector(buf, track, sector) == nil; sector++ {
			m.BA(buf)
		}
		if sector == 0 {
			break
		}
	}
}

func (d *Context) writeRawTrackModule(s *snapshot.Snapshot) {
	t := d.Head.RawTrack()
	if t == nil {
		return
	}
	m := s.Create(d.module("RAWTRACK"), rawSnapMajor, rawSnapMinor)
	m.DW(uint32(int32(t.ID)))
	m.Bool(t.Dirty)
	m.DW(uint32(len(t.Data)))
	m.BA(t.Data)
	m.BA(t.Sync)
}

// ReadSnapshot restores the drive units from s, and returns the master
// clock frequency they were saved with.
//
// A snapshot without DRIVE module was taken with drive emulation off: all
// units are disabled and no error is returned. On any other failure, all
// units are disabled as well, since their state can't be trusted anymore.
func ReadSnapshot(s *snapshot.Snapshot, drives []*Context) (uint32, error) {
	cur, major, minor, err := s.Open("DRIVE")
	if errors.Is(err, snapshot.ErrModuleNotFound) {
		log.ModSnap.InfoZ("No drive module, drive emulation is off").End()
		disableAll(drives)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	hz, err := readSnapshot(s, drives, cur, major, minor)
	if err != nil {
		disableAll(drives)
		return 0, err
	}
	return hz, nil
}

func readSnapshot(s *snapshot.Snapshot, drives []*Context, cur *snapshot.Cursor, major, minor uint8) (uint32, error) {
	for _, d := range drives {
		if err := d.Head.Flush(); err != nil {
			log.ModSnap.WarnZ("Disk flush failed").
				String("unit", d.Name).
				Error("err", err).
				End()
		}
	}
	if err := snapshot.CheckVersion("DRIVE", major, minor, driveSnapMajor, driveSnapMinor); err != nil {
		return 0, err
	}

	hz := cur.DW()
	units := make([]unitState, len(drives))
	for i := range units {
		units[i].readBase(cur)
	}
	// Older snapshots lack the extension block: it keeps its zero value,
	// a stopped timer and no pending IRQ.
	if minor >= 1 {
		for i := range units {
			units[i].readExt(cur)
		}
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}

	for i, d := range drives {
		if err := d.restore(s, hz, &units[i]); err != nil {
			return 0, fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	return hz, nil
}

func disableAll(drives []*Context) {
	for _, d := range drives {
		d.Disable()
	}
}

func (d *Context) restore(s *snapshot.Snapshot, hz uint32, u *unitState) error {
	d.mainHz = hz
	if u.Type == TypeNone {
		d.Disable()
		return d.readImageModules(s, u.ReadOnly)
	}

	m, err := ModelOf(u.Type)
	if err != nil {
		return err
	}
	rom, err := d.readROMModule(s, m)
	if err != nil {
		return err
	}
	if rom == nil {
		if rom, err = d.roms.Get(u.Type); err != nil {
			logUnavailable(u.Type, err)
			return err
		}
	}

	d.enable(m, rom, 0)
	d.idle = u.Idle
	d.applyIdleMethod()
	if err := d.CPU.ReadModule(s, d.module("DRIVECPU"), d.ram); err != nil {
		return err
	}
	if err := d.readImageModules(s, u.ReadOnly); err != nil {
		return err
	}
	d.restoreState(u)
	return d.readRawTrackModule(s)
}

// open opens an optional module, returning a nil cursor if it's absent.
func open(s *snapshot.Snapshot, name string, wantMajor, wantMinor uint8) (*snapshot.Cursor, error) {
	cur, major, minor, err := s.Open(name)
	if errors.Is(err, snapshot.ErrModuleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := snapshot.CheckVersion(name, major, minor, wantMajor, wantMinor); err != nil {
		return nil, err
	}
	return cur, nil
}

func (d *Context) readImageModules(s *snapshot.Snapshot, readOnly bool) error {
	cur, err := open(s, d.module("NOIMAGE"), imageSnapMajor, imageSnapMinor)
	if err != nil {
		return err
	}
	if cur != nil {
		return d.Head.Detach()
	}

	cur, err = open(s, d.module("IMAGE"), imageSnapMajor, imageSnapMinor)
	if cur == nil || err != nil {
		return err
	}

	format := diskimage.Format(cur.W())
	data := make([]byte, cur.Remaining())
	cur.BA(data)
	if err := cur.Err(); err != nil {
		return err
	}
	g, err := diskimage.DetectGeometry(len(data))
	if err != nil {
		return err
	}
	if g.Format != format {
		return fmt.Errorf("%w: %s image holds %d bytes", diskimage.ErrUnknownFormat, format, len(data))
	}
	img, err := diskimage.FromBytes(data, readOnly)
	if err != nil {
		return err
	}

	log.ModSnap.InfoZ("Disk image imported from snapshot").
		String("unit", d.Name).
		Stringer("format", format).
		End()
	return d.Head.Attach(img)
}

func (d *Context) readRawTrackModule(s *snapshot.Snapshot) error {
	cur, err := open(s, d.module("RAWTRACK"), rawSnapMajor, rawSnapMinor)
	if cur == nil || err != nil {
		return err
	}

	var t media.Track
	t.ID = int(int32(cur.DW()))
	t.Dirty = cur.Bool()
	size := int(cur.DW())
	if size > cur.Remaining() {
		return fmt.Errorf("%w: raw track of %d cells", snapshot.ErrShortRead, size)
	}
	t.Data = make([]byte, size)
	t.Sync = make([]byte, (size+7)>>3)
	cur.BA(t.Data)
	cur.BA(t.Sync)
	if err := cur.Err(); err != nil {
		return err
	}
	return d.Head.RestoreTrack(t)
}

// readROMModule returns the ROM stored in the snapshot, nil if there's
// none.
func (d *Context) readROMModule(s *snapshot.Snapshot, m *Model) (*ROM, error) {
	cur, err := open(s, d.module("DRIVEROM"), romSnapMajor, romSnapMinor)
	if cur == nil || err != nil {
		return nil, err
	}
	data := make([]byte, m.ROMSize)
	cur.BA(data)
	if err := cur.Err(); err != nil {
		return nil, err
	}

	rom := &ROM{Data: data, Path: "snapshot"}
	rom.Rechecksum()
	log.ModROM.InfoZ("Drive ROM restored from snapshot").
		String("unit", d.Name).
		String("type", m.Name).
		Hex32("crc32", rom.Sum).
		End()
	return rom, nil
}
