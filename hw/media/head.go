// Package media emulates the read/write electronics of a floppy drive: a
// disk spinning under a head that reads and writes raw cells, backed by a
// sector store. The track under the head is synthesized from the store when
// first accessed, and written back to the store when it is flushed, when the
// head moves to another track or when the disk is detached.
package media

import (
	"errors"
	"fmt"

	"cbmdrive/emu/log"
)

// Cells within that distance from the start of the track assert the index
// signal.
const indexLen = 16

// RevolutionsPerSecond is the rotation speed of the disk (300 rpm).
const RevolutionsPerSecond = 5

// Head is the drive mechanism: head position and side, motor, data rate
// selection, and the raw cache of the track under the head.
type Head struct {
	Name string

	// Seed of the noise pattern of unformatted tracks.
	Seed uint32

	store Store
	codec Codec
	track Track

	pos  int // head position, in codec units
	side int
	cell int // cell under the head

	motor        bool
	rate         int
	indexCount   int
	diskChange   bool
	writeProtect bool
}

func NewHead(name string) *Head {
	return &Head{
		Name:         name,
		track:        Track{ID: -1},
		rate:         2,
		diskChange:   true,
		writeProtect: true,
	}
}

// Attach inserts a disk. A previously attached disk is detached first.
func (h *Head) Attach(s Store) error {
	codec, err := NewCodec(s.Geometry())
	if err != nil {
		return err
	}
	if h.store != nil {
		if err := h.Detach(); err != nil {
			return err
		}
	}

	h.store = s
	h.codec = codec
	h.track = Track{ID: -1}
	h.cell = 0
	h.pos = min(h.pos, codec.MaxPos())
	h.diskChange = true
	h.writeProtect = s.ReadOnly()

	log.ModFDD.InfoZ("Disk attached").
		String("unit", h.Name).
		String("codec", codec.Name()).
		Bool("readonly", h.writeProtect).
		End()
	return nil
}

// Detach flushes pending writes and removes the disk. The disk is removed
// even if the flush fails.
func (h *Head) Detach() error {
	if h.store == nil {
		return nil
	}
	err := h.Flush()
	h.store = nil
	h.track = Track{ID: -1}
	h.diskChange = true
	if err != nil {
		return fmt.Errorf("%s: flush on detach: %w", h.Name, err)
	}
	return nil
}

// Store returns the attached store, nil if there's no disk.
func (h *Head) Store() Store { return h.store }
func (h *Head) Codec() Codec { return h.codec }

// Materialize makes sure the raw cache holds the track under the head.
func (h *Head) Materialize() {
	h.MaterializeTrack(h.pos, h.side)
}

// MaterializeTrack fills the raw cache with the given track, flushing the
// previously cached track first if it was modified.
func (h *Head) MaterializeTrack(pos, side int) {
	if h.store == nil {
		return
	}
	id := pos*2 + side
	if h.track.ID == id {
		return
	}
	if h.track.Dirty {
		// Sectors that can't be written back are lost, as they would be
		// on a real drive.
		if err := h.flush(); err != nil {
			log.ModFDD.WarnZ("Track write back failed").
				String("unit", h.Name).
				Error("err", err).
				End()
		}
	}

	h.track.reset(id, h.codec.TrackSize(pos))
	if !h.codec.Encode(&h.track, h.store, pos, side) {
		h.track.noise(h.Seed)
	}
	if h.cell >= h.track.Size() {
		h.cell %= h.track.Size()
	}
}

// Flush writes the raw cache back to the store if it was modified.
func (h *Head) Flush() error {
	if h.store == nil || !h.track.Dirty {
		return nil
	}
	return h.flush()
}

func (h *Head) flush() error {
	h.track.Dirty = false
	pos, side := h.track.ID/2, h.track.ID&1
	return h.codec.Decode(&h.track, h.store, pos, side)
}

func (h *Head) advance() {
	h.cell++
	if h.cell >= h.codec.TrackSize(h.pos) {
		h.cell = 0
		h.indexCount++
	}
}

// ReadCell returns the cell under the head and moves to the next one. Bit
// 8 is set for sync cells. With the motor off or without disk, nothing
// moves and 0 is returned. If the selected data rate isn't the one of the
// track, the head moves but reads nothing.
func (h *Head) ReadCell() uint16 {
	if !h.motor || h.store == nil {
		return 0
	}

	var v uint16
	if h.rate == h.codec.Rate(h.pos) {
		h.Materialize()
		v = h.track.Cell(h.cell)
	}
	h.advance()
	return v
}

// WriteCell records a cell under the head and moves to the next one. With
// a mismatching data rate, the head moves but nothing is recorded.
func (h *Head) WriteCell(v byte, sync bool) error {
	switch {
	case !h.motor:
		return ErrMotorOff
	case h.store == nil:
		return ErrNoDisk
	}
	h.Materialize()

	if h.rate == h.codec.Rate(h.pos) {
		c := uint16(v)
		if sync {
			c |= 0x100
		}
		h.track.SetCell(h.cell, c)
		h.track.Dirty = true
	}
	h.advance()
	return nil
}

// Rotate moves the disk by n cells under the head.
func (h *Head) Rotate(n int) {
	if !h.motor || h.store == nil || n <= 0 {
		return
	}
	size := h.codec.TrackSize(h.pos)
	h.indexCount += (h.cell + n) / size
	h.cell = (h.cell + n) % size
}

// CellsPerSecond returns the rate at which cells pass under the head.
func (h *Head) CellsPerSecond() int {
	if h.codec == nil {
		return 0
	}
	return h.codec.TrackSize(h.pos) * RevolutionsPerSecond
}

// Index reports the state of the index hole sensor.
func (h *Head) Index() bool {
	return h.store != nil && h.cell < indexLen
}

func (h *Head) IndexCount() int    { return h.indexCount }
func (h *Head) ResetIndexCount()   { h.indexCount = 0 }
func (h *Head) Track0() bool       { return h.pos == 0 }
func (h *Head) WriteProtect() bool { return h.writeProtect }
func (h *Head) DiskChange() bool   { return h.diskChange }
func (h *Head) Motor() bool        { return h.motor }
func (h *Head) Rate() int          { return h.rate }
func (h *Head) Side() int          { return h.side }
func (h *Head) Position() int      { return h.pos }
func (h *Head) Cell() int          { return h.cell }

// Step moves the head one step inwards (dir > 0) or outwards. The head
// only moves while the motor spins, and stops at both ends of its travel.
// Stepping with a disk inserted clears the disk change signal.
func (h *Head) Step(dir int) {
	if h.motor {
		if dir > 0 {
			h.pos++
		} else {
			h.pos--
		}
	}
	if h.store != nil {
		h.diskChange = false
	}
	h.pos = max(0, min(h.pos, h.maxPos()))
}

func (h *Head) maxPos() int {
	if h.codec == nil {
		return mfmMaxTrack
	}
	return h.codec.MaxPos()
}

// HalfTrack returns the head position as a half-track number.
func (h *Head) HalfTrack() int {
	if h.codec == nil {
		return (h.pos + 1) * 2
	}
	return h.codec.HalfTrack(h.pos)
}

// SetHalfTrack moves the head to a half-track, clamped to the head travel.
func (h *Head) SetHalfTrack(ht int) {
	pos := (ht / 2) - 1
	if h.codec != nil {
		pos = h.codec.Pos(ht)
	}
	h.pos = max(0, min(pos, h.maxPos()))
}

func (h *Head) SelectHead(side int) { h.side = side & 1 }
func (h *Head) SetMotor(on bool)    { h.motor = on }
func (h *Head) SetRate(rate int)    { h.rate = rate & 3 }

// SetCell positions the disk, for snapshot restore.
func (h *Head) SetCell(cell int) {
	h.cell = max(cell, 0)
	if h.codec != nil {
		h.cell %= h.codec.TrackSize(h.pos)
	}
}

// SetDiskChange forces the disk change signal, for snapshot restore.
func (h *Head) SetDiskChange(v bool) {
	h.diskChange = v
}

// RawTrack returns the raw cache, nil if nothing is cached.
func (h *Head) RawTrack() *Track {
	if h.track.ID < 0 {
		return nil
	}
	return &h.track
}

// RestoreTrack replaces the raw cache, for snapshot restore.
func (h *Head) RestoreTrack(t Track) error {
	if h.store == nil {
		return ErrNoDisk
	}
	pos := t.ID / 2
	if t.ID < 0 || pos > h.codec.MaxPos() {
		return fmt.Errorf("%s: bad raw track id %d", h.Name, t.ID)
	}
	size := h.codec.TrackSize(pos)
	if len(t.Data) != size || len(t.Sync) != (size+7)>>3 {
		return errors.New(h.Name + ": raw track size mismatch")
	}
	h.track = t
	return nil
}
