package media

import (
	"errors"

	"cbmdrive/emu/log"
	"cbmdrive/hw/diskimage"
)

// Raw track sizes in bytes of the 4 speed zones, zone 0 being the innermost.
var gcrTrackSizes = [4]int{6250, 6666, 7142, 7692}

const (
	gcrMaxHalfTrack = 84

	gcrSyncLen      = 5
	gcrHeaderGap    = 9
	gcrSectorGap    = 8
	gcrHeaderLen    = 10  // 8 bytes encoded
	gcrDataLen      = 325 // 260 bytes encoded
	gcrHeaderMark   = 0x08
	gcrDataMark     = 0x07
	gcrGapByte      = 0x55
	gcrSyncByte     = 0xff
	gcrBAMTrack     = 18
	gcrBAMIDOffset  = 0xa2
	gcrSecondSideAt = 35
)

var gcrNibbles = [16]byte{
	0x0a, 0x0b, 0x12, 0x13, 0x0e, 0x0f, 0x16, 0x17,
	0x09, 0x19, 0x1a, 0x1b, 0x0d, 0x1d, 0x1e, 0x15,
}

var gcrQuintets = func() (t [32]int8) {
	for i := range t {
		t[i] = -1
	}
	for n, q := range gcrNibbles {
		t[q] = int8(n)
	}
	return t
}()

// gcrEncode converts bytes, whose length must be a multiple of 4, to GCR.
// Every 4 bytes become 5.
func gcrEncode(dst, src []byte) []byte {
	for i := 0; i+4 <= len(src); i += 4 {
		var bits uint64
		for _, b := range src[i : i+4] {
			bits = bits<<10 | uint64(gcrNibbles[b>>4])<<5 | uint64(gcrNibbles[b&0xf])
		}
		for j := 4; j >= 0; j-- {
			dst = append(dst, byte(bits>>(8*j)))
		}
	}
	return dst
}

// gcrDecode converts GCR bytes, whose length must be a multiple of 5, back
// to plain bytes. It fails on invalid quintets.
func gcrDecode(dst, src []byte) ([]byte, bool) {
	for i := 0; i+5 <= len(src); i += 5 {
		var bits uint64
		for _, b := range src[i : i+5] {
			bits = bits<<8 | uint64(b)
		}
		for j := 3; j >= 0; j-- {
			hi := gcrQuintets[(bits>>(10*j+5))&0x1f]
			lo := gcrQuintets[(bits>>(10*j))&0x1f]
			if hi < 0 || lo < 0 {
				return dst, false
			}
			dst = append(dst, byte(hi)<<4|byte(lo))
		}
	}
	return dst, true
}

type gcr struct {
	geom diskimage.Geometry
}

func (g *gcr) Name() string { return "GCR/" + g.geom.Format.String() }

// Positions are half-tracks from 0 (track 1).
func (g *gcr) MaxPos() int           { return gcrMaxHalfTrack - 2 }
func (g *gcr) HalfTrack(pos int) int { return pos + 2 }
func (g *gcr) Pos(halfTrack int) int { return halfTrack - 2 }
func (g *gcr) TrackSize(pos int) int { return gcrTrackSizes[g.Rate(pos)] }
func (g *gcr) Rate(pos int) int      { return diskimage.GCRZone(pos/2 + 1) }

// imageTrack returns the image track stored at pos and side, 0 if none.
func (g *gcr) imageTrack(pos, side int) int {
	if pos&1 != 0 {
		return 0
	}
	track := pos/2 + 1
	if side == 1 {
		if g.geom.Sides < 2 || track > gcrSecondSideAt {
			return 0
		}
		track += gcrSecondSideAt
	}
	if g.geom.Sectors(track) == 0 {
		return 0
	}
	return track
}

// diskID returns the two ID bytes stored in the BAM.
func (g *gcr) diskID(s Store) (id1, id2 byte) {
	buf := make([]byte, diskimage.SectorSize)
	if err := s.ReadSector(buf, gcrBAMTrack, 0); err != nil {
		return 0, 0
	}
	return buf[gcrBAMIDOffset], buf[gcrBAMIDOffset+1]
}

func (g *gcr) header(track, sector int, id1, id2 byte) []byte {
	t, s := byte(track), byte(sector)
	hdr := []byte{gcrHeaderMark, s ^ t ^ id2 ^ id1, s, t, id2, id1, 0x0f, 0x0f}
	return gcrEncode(make([]byte, 0, gcrHeaderLen), hdr)
}

func (g *gcr) Encode(t *Track, s Store, pos, side int) bool {
	for i := range t.Data {
		t.Data[i] = gcrGapByte
	}
	track := g.imageTrack(pos, side)
	if track == 0 {
		return false
	}

	id1, id2 := g.diskID(s)
	w := trackWriter{t: t}
	block := make([]byte, 260)
	enc := make([]byte, 0, gcrDataLen)

	for sector := range g.geom.Sectors(track) {
		w.fillSync(gcrSyncByte, gcrSyncLen)
		w.bytes(g.header(track, sector, id1, id2))
		w.fill(gcrGapByte, gcrHeaderGap)

		block[0] = gcrDataMark
		if err := s.ReadSector(block[1:257], track, sector); err != nil {
			log.ModGCR.DebugZ("Sector read failed").
				Int("track", track).
				Int("sector", sector).
				Error("err", err).
				End()
			return true
		}
		var sum byte
		for _, b := range block[1:257] {
			sum ^= b
		}
		block[257], block[258], block[259] = sum, 0, 0

		w.fillSync(gcrSyncByte, gcrSyncLen)
		w.bytes(gcrEncode(enc[:0], block))
		w.fill(gcrGapByte, gcrSectorGap)
	}
	return true
}

// collect reads the n cells following a sync mark. It returns false if no
// sync is found within the scan budget.
func (g *gcr) collect(r *trackReader, budget *int, dst []byte) bool {
	insync := false
	for *budget > 0 {
		*budget--
		v := r.next()
		if v&0x100 != 0 {
			insync = true
			continue
		}
		if !insync {
			continue
		}
		dst[0] = byte(v)
		for i := 1; i < len(dst); i++ {
			if *budget == 0 {
				return false
			}
			*budget--
			dst[i] = byte(r.next())
		}
		return true
	}
	return false
}

func (g *gcr) Decode(t *Track, s Store, pos, side int) error {
	track := g.imageTrack(pos, side)
	if track == 0 {
		return nil
	}

	var (
		errs    []error
		nsect   = g.geom.Sectors(track)
		written = make([]bool, nsect)
		left    = nsect
		budget  = 2 * t.Size()
		r       = trackReader{t: t}
		raw     = make([]byte, gcrDataLen)
		dec     = make([]byte, 0, 260)
	)

	for left > 0 && g.collect(&r, &budget, raw[:gcrHeaderLen]) {
		hdr, ok := gcrDecode(dec[:0], raw[:gcrHeaderLen])
		if !ok || hdr[0] != gcrHeaderMark || int(hdr[3]) != track {
			continue
		}
		sector := int(hdr[2])
		if sector >= nsect || hdr[1] != hdr[2]^hdr[3]^hdr[4]^hdr[5] {
			log.ModGCR.DebugZ("Bad sector header").
				Int("track", track).
				Int("sector", sector).
				End()
			continue
		}

		if !g.collect(&r, &budget, raw) {
			break
		}
		data, ok := gcrDecode(dec[:0], raw)
		if !ok || data[0] != gcrDataMark {
			log.ModGCR.DebugZ("Data block not found").
				Int("track", track).
				Int("sector", sector).
				End()
			continue
		}
		var sum byte
		for _, b := range data[1:257] {
			sum ^= b
		}
		if sum != data[257] {
			log.ModGCR.DebugZ("Data block checksum error").
				Int("track", track).
				Int("sector", sector).
				End()
			continue
		}
		if written[sector] {
			continue
		}
		written[sector] = true
		left--
		if err := s.WriteSector(data[1:257], track, sector); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
