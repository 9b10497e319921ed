package media

import (
	"errors"

	"cbmdrive/emu/log"
	"cbmdrive/hw/diskimage"
)

// MFM data rates in kbit/s, indexed by rate code.
var mfmDataRates = [4]int{500, 300, 250, 1000}

const (
	mfmHeadInvert = 1
	mfmMaxTrack   = 82
)

type mfmFormat struct {
	tracks       int
	sectors      int // physical sectors per track side
	sizeCode     int // sector size is 128 << sizeCode
	rate         int
	iso          bool
	gap2, gap3   int
	imageSectors int // sectors per track of the image
}

var mfmFormats = map[diskimage.Format]mfmFormat{
	diskimage.FormatD81: {tracks: 80, sectors: 10, sizeCode: 2, rate: 2, iso: true, gap2: 22, gap3: 35, imageSectors: 40},
	diskimage.FormatD1M: {tracks: 81, sectors: 10, sizeCode: 2, rate: 2, gap2: 22, gap3: 35, imageSectors: 256},
	diskimage.FormatD2M: {tracks: 81, sectors: 10, sizeCode: 3, rate: 0, gap2: 22, gap3: 100, imageSectors: 256},
	diskimage.FormatD4M: {tracks: 81, sectors: 20, sizeCode: 3, rate: 3, gap2: 41, gap3: 100, imageSectors: 256},
}

type mfm struct {
	mfmFormat
	format diskimage.Format
}

func (m *mfm) Name() string          { return "MFM/" + m.format.String() }
func (m *mfm) MaxPos() int           { return mfmMaxTrack }
func (m *mfm) HalfTrack(pos int) int { return (pos + 1) * 2 }
func (m *mfm) Pos(halfTrack int) int { return halfTrack/2 - 1 }
func (m *mfm) TrackSize(pos int) int { return 25 * mfmDataRates[m.rate] }
func (m *mfm) Rate(pos int) int      { return m.rate }
func (m *mfm) sectorSize() int       { return 128 << m.sizeCode }
func (m *mfm) sectorSpan() int       { return 1 << (m.sizeCode - 1) }

// imageLocation returns the image sector holding the first half of
// physical sector s of a track side.
func (m *mfm) imageLocation(pos, side, s int) (track, sector int) {
	i := (pos*2+(side^mfmHeadInvert))*m.sectors + s
	i <<= m.sizeCode - 1
	return i/m.imageSectors + 1, i % m.imageSectors
}

func (m *mfm) nextImageSector(track, sector int) (int, int) {
	sector = (sector + 1) % m.imageSectors
	if sector == 0 {
		track++
	}
	return track, sector
}

func (m *mfm) Encode(t *Track, s Store, pos, side int) bool {
	for i := range t.Data {
		t.Data[i] = 0x4e
	}
	if pos >= m.tracks {
		return false
	}

	w := trackWriter{t: t}
	if m.iso {
		w.p = 32 // gap 4a
	} else {
		w.p = 80
		w.fill(0x00, 12)
		w.fillSync(0xa1, 3)
		w.byte(0xfc) // index address mark
		w.fill(0x4e, 50)
	}

	it, is := m.imageLocation(pos, side, 0)
	buf := make([]byte, diskimage.SectorSize)
	for sec := range m.sectors {
		w.fill(0x00, 12)
		w.fillSync(0xa1, 3)
		id := [4]byte{byte(pos), byte(side ^ mfmHeadInvert), byte(sec + 1), byte(m.sizeCode)}
		w.byte(0xfe)
		w.bytes(id[:])
		crc := CRC16(crcSeedID, id[:])
		w.byte(byte(crc >> 8))
		w.byte(byte(crc))
		w.fill(0x4e, m.gap2)

		crc = crcSeedData
		for j := range m.sectorSpan() {
			if err := s.ReadSector(buf, it, is); err != nil {
				log.ModFDD.DebugZ("Sector read failed").
					Int("track", it).
					Int("sector", is).
					Error("err", err).
					End()
				return true
			}
			if j == 0 {
				w.fill(0x00, 12)
				w.fillSync(0xa1, 3)
				w.byte(0xfb) // data address mark
			}
			w.bytes(buf)
			crc = CRC16(crc, buf)
			it, is = m.nextImageSector(it, is)
		}
		w.byte(byte(crc >> 8))
		w.byte(byte(crc))
		w.fill(0x4e, m.gap3)
	}
	return true
}

// mfm separator states
const (
	sepIDGap = iota
	sepIDSync
	sepIDAM
	sepTrack
	sepSide
	sepSector
	sepSize
	sepIDCRC1
	sepIDCRC2
	sepDataGap
	sepDataSync
	sepDAM
	sepData
	sepDataCRC1
	sepDataCRC2
)

func (m *mfm) Decode(t *Track, s Store, pos, side int) error {
	if pos >= m.tracks {
		return nil
	}

	var errs []error
	data := make([]byte, m.sectorSize())
	r := trackReader{t: t}
	for sec := range m.sectors {
		if !m.findSector(&r, data, pos, side, sec) {
			log.ModFDD.DebugZ("Sector framing not found").
				Int("track", pos).
				Int("side", side).
				Int("sector", sec+1).
				End()
			continue
		}

		it, is := m.imageLocation(pos, side, sec)
		for j := 0; j < m.sectorSpan(); j++ {
			if err := s.WriteSector(data[j*diskimage.SectorSize:], it, is); err != nil {
				errs = append(errs, err)
			}
			it, is = m.nextImageSector(it, is)
		}
	}
	return errors.Join(errs...)
}

// findSector scans at most two revolutions from the reader position for the
// ID field of physical sector sec followed by its data field, and copies the
// data field into data.
func (m *mfm) findSector(r *trackReader, data []byte, pos, side, sec int) bool {
	step, d := sepIDGap, 0
	for range 2 * r.t.Size() {
		w := r.next()
		switch step {
		case sepIDGap, sepDataGap:
			if w == 0x00 {
				step++
			}
			continue
		case sepIDSync:
			if w == 0x00 {
				continue
			}
			if w == 0x1a1 {
				step++
				continue
			}
		case sepDataSync:
			if w == 0x00 {
				continue
			}
			if w == 0x1a1 {
				step++
				continue
			}
			step = sepDataGap
			continue
		case sepIDAM:
			if w == 0x1a1 {
				continue
			}
			if w == 0xfe {
				step++
				continue
			}
		case sepDAM:
			if w == 0x1a1 {
				continue
			}
			if w == 0xfb {
				step++
				continue
			}
		case sepTrack:
			if int(w) == pos {
				step++
				continue
			}
		case sepSide:
			if int(w) == side^mfmHeadInvert {
				step++
				continue
			}
		case sepSector:
			if int(w) == sec+1 {
				step++
				continue
			}
		case sepSize:
			if int(w) == m.sizeCode {
				step++
				continue
			}
		case sepIDCRC1, sepIDCRC2, sepDataCRC1:
			step++
			continue
		case sepData:
			data[d] = byte(w)
			d++
			if d >= len(data) {
				step++
			}
			continue
		case sepDataCRC2:
			return true
		}
		step = sepIDGap
	}
	return false
}
