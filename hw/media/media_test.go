package media

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cbmdrive/emu/log"
	"cbmdrive/hw/diskimage"
)

func init() {
	log.Disable()
}

// newImage returns an image whose sectors are filled with a pattern unique
// to each sector.
func newImage(t *testing.T, f diskimage.Format, tracks int) *diskimage.Image {
	t.Helper()
	g, err := diskimage.NewGeometry(f, tracks)
	if err != nil {
		t.Fatal(err)
	}
	img := diskimage.New(g)
	buf := make([]byte, diskimage.SectorSize)
	for track := 1; track <= g.Tracks; track++ {
		for sector := range g.Sectors(track) {
			fillSector(buf, track, sector, 0)
			if err := img.WriteSector(buf, track, sector); err != nil {
				t.Fatal(err)
			}
		}
	}
	return img
}

func fillSector(buf []byte, track, sector int, salt byte) {
	for i := range buf {
		buf[i] = byte(track*7+sector*13+i) ^ salt
	}
}

func attach(t *testing.T, store Store) *Head {
	t.Helper()
	h := NewHead("test")
	if err := h.Attach(store); err != nil {
		t.Fatal(err)
	}
	h.SetMotor(true)
	h.SetRate(h.Codec().Rate(0))
	return h
}

func seek(h *Head, pos int) {
	for h.Position() > pos {
		h.Step(-1)
	}
	for h.Position() < pos {
		h.Step(1)
	}
}

// find returns the position following the first occurrence of pattern in
// the track, starting at cell from, or -1.
func find(tr *Track, from int, pattern ...uint16) int {
	n := tr.Size()
	for p := from; p < from+n; p++ {
		match := true
		for i, v := range pattern {
			if tr.Cell((p+i)%n) != v {
				match = false
				break
			}
		}
		if match {
			return (p + len(pattern)) % n
		}
	}
	return -1
}

// referenceCRC is a bitwise CRC-CCITT.
func referenceCRC(buf []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range buf {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func TestCRCSeeds(t *testing.T) {
	if got := referenceCRC([]byte{0xa1, 0xa1, 0xa1, 0xfe}); got != crcSeedID {
		t.Errorf("ID seed = %04x, want %04x", got, crcSeedID)
	}
	if got := referenceCRC([]byte{0xa1, 0xa1, 0xa1, 0xfb}); got != crcSeedData {
		t.Errorf("data seed = %04x, want %04x", got, crcSeedData)
	}
	buf := []byte("123456789")
	if got, want := CRC16(0xffff, buf), referenceCRC(buf); got != want || got != 0x29b1 {
		t.Errorf("CRC16 = %04x, reference = %04x, want 29b1", got, want)
	}
}

func TestMFMFieldCRCs(t *testing.T) {
	for _, f := range []diskimage.Format{diskimage.FormatD81, diskimage.FormatD1M, diskimage.FormatD2M, diskimage.FormatD4M} {
		t.Run(f.String(), func(t *testing.T) {
			h := attach(t, newImage(t, f, 0))
			m := h.Codec().(*mfm)
			seek(h, 5)
			h.SelectHead(1)
			h.Materialize()
			tr := h.RawTrack()

			p := 0
			for sec := range m.sectors {
				id := []byte{5, 1 ^ mfmHeadInvert, byte(sec + 1), byte(m.sizeCode)}
				p = find(tr, p, 0x1a1, 0x1a1, 0x1a1, 0xfe, uint16(id[0]), uint16(id[1]), uint16(id[2]), uint16(id[3]))
				if p < 0 {
					t.Fatalf("ID field of sector %d not found", sec+1)
				}
				want := referenceCRC(append([]byte{0xa1, 0xa1, 0xa1, 0xfe}, id...))
				if got := uint16(tr.Data[p])<<8 | uint16(tr.Data[p+1]); got != want {
					t.Errorf("sector %d: ID CRC = %04x, want %04x", sec+1, got, want)
				}

				p = find(tr, p, 0x1a1, 0x1a1, 0x1a1, 0xfb)
				field := append([]byte{0xa1, 0xa1, 0xa1, 0xfb}, tr.Data[p:p+m.sectorSize()]...)
				want = referenceCRC(field)
				q := p + m.sectorSize()
				if got := uint16(tr.Data[q])<<8 | uint16(tr.Data[q+1]); got != want {
					t.Errorf("sector %d: data CRC = %04x, want %04x", sec+1, got, want)
				}
			}
		})
	}
}

func TestMFMLayout(t *testing.T) {
	h := attach(t, newImage(t, diskimage.FormatD1M, 0))
	h.Materialize()
	tr := h.RawTrack()

	// Non ISO tracks start with an index address mark at cell 80.
	want := []uint16{0x00, 0x1a1, 0x1a1, 0x1a1, 0xfc, 0x4e}
	if got := []uint16{tr.Cell(91), tr.Cell(92), tr.Cell(93), tr.Cell(94), tr.Cell(95), tr.Cell(96)}; !cmp.Equal(want, got) {
		t.Errorf("index mark area = %x, want %x", got, want)
	}
	if tr.Size() != 6250 {
		t.Errorf("raw size = %d, want 6250", tr.Size())
	}
	if tr.Cell(0) != 0x4e || tr.Cell(tr.Size()-1) != 0x4e {
		t.Errorf("track not gap filled")
	}
}

func TestMFMRoundTrip(t *testing.T) {
	tests := []struct {
		format         diskimage.Format
		pos, side, sec int
	}{
		{diskimage.FormatD81, 0, 0, 0},
		{diskimage.FormatD81, 39, 1, 9},
		{diskimage.FormatD81, 79, 0, 5},
		{diskimage.FormatD1M, 80, 1, 9},
		{diskimage.FormatD2M, 12, 0, 3},
		{diskimage.FormatD4M, 80, 1, 19},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			img := newImage(t, tt.format, 0)
			h := attach(t, img)
			m := h.Codec().(*mfm)
			seek(h, tt.pos)
			h.SelectHead(tt.side)
			h.Materialize()
			tr := h.RawTrack()

			p := find(tr, 0, 0x1a1, 0x1a1, 0x1a1, 0xfe, uint16(tt.pos), uint16(tt.side^1), uint16(tt.sec+1))
			p = find(tr, p, 0x1a1, 0x1a1, 0x1a1, 0xfb)
			if p < 0 {
				t.Fatal("data field not found")
			}

			payload := make([]byte, m.sectorSize())
			for i := range payload {
				payload[i] = byte(0xff - i)
			}
			h.SetCell(p)
			for _, b := range payload {
				if err := h.WriteCell(b, false); err != nil {
					t.Fatal(err)
				}
			}
			crc := CRC16(crcSeedData, payload)
			h.WriteCell(byte(crc>>8), false)
			h.WriteCell(byte(crc), false)

			if err := h.Flush(); err != nil {
				t.Fatal(err)
			}

			it, is := m.imageLocation(tt.pos, tt.side, tt.sec)
			buf := make([]byte, diskimage.SectorSize)
			for j := range m.sectorSpan() {
				if err := img.ReadSector(buf, it, is); err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal(buf, payload[j*256:(j+1)*256]) {
					t.Errorf("image sector T%dS%d does not hold the written payload", it, is)
				}
				it, is = m.nextImageSector(it, is)
			}

			// Other sectors of the track are untouched.
			ot, os := m.imageLocation(tt.pos, tt.side, (tt.sec+1)%m.sectors)
			want := make([]byte, diskimage.SectorSize)
			fillSector(want, ot, os, 0)
			img.ReadSector(buf, ot, os)
			if !bytes.Equal(buf, want) {
				t.Errorf("sector T%dS%d was modified", ot, os)
			}
		})
	}
}

func TestMFMFlushSkipsBrokenSector(t *testing.T) {
	img := newImage(t, diskimage.FormatD81, 0)
	h := attach(t, img)
	m := h.Codec().(*mfm)
	h.Materialize()
	tr := h.RawTrack()

	// Overwrite the data of sectors 1 and 2, then break the data address
	// mark of sector 1.
	p1 := find(tr, 0, 0xfe, 0, 1, 1)
	p1 = find(tr, p1, 0x1a1, 0x1a1, 0x1a1, 0xfb)
	p2 := find(tr, p1, 0xfe, 0, 1, 2)
	p2 = find(tr, p2, 0x1a1, 0x1a1, 0x1a1, 0xfb)
	for _, p := range []int{p1, p2} {
		h.SetCell(p)
		for range m.sectorSize() {
			h.WriteCell(0xee, false)
		}
	}
	h.SetCell(p1 - 1)
	h.WriteCell(0xf8, false)

	if err := h.Flush(); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, diskimage.SectorSize)
	it, is := m.imageLocation(0, 0, 0)
	img.ReadSector(buf, it, is)
	want := make([]byte, diskimage.SectorSize)
	fillSector(want, it, is, 0)
	if !bytes.Equal(buf, want) {
		t.Errorf("broken sector was overwritten")
	}

	it, is = m.imageLocation(0, 0, 1)
	img.ReadSector(buf, it, is)
	if !bytes.Equal(buf, bytes.Repeat([]byte{0xee}, diskimage.SectorSize)) {
		t.Errorf("sector 2 not written back")
	}
}

func TestFlushOnTrackChange(t *testing.T) {
	img := newImage(t, diskimage.FormatD81, 0)
	h := attach(t, img)
	m := h.Codec().(*mfm)
	h.Materialize()

	p := find(h.RawTrack(), 0, 0xfe, 0, 1, 1)
	p = find(h.RawTrack(), p, 0x1a1, 0x1a1, 0x1a1, 0xfb)
	h.SetCell(p)
	h.WriteCell(0x42, false)

	h.Step(1)
	h.Materialize()

	buf := make([]byte, diskimage.SectorSize)
	it, is := m.imageLocation(0, 0, 0)
	img.ReadSector(buf, it, is)
	if buf[0] != 0x42 {
		t.Errorf("write lost on track change, got %02x", buf[0])
	}
}

func TestDetachFlushes(t *testing.T) {
	img := newImage(t, diskimage.FormatD81, 0)
	h := attach(t, img)
	h.Materialize()
	p := find(h.RawTrack(), 0, 0xfe, 0, 1, 3)
	p = find(h.RawTrack(), p, 0x1a1, 0x1a1, 0x1a1, 0xfb)
	h.SetCell(p)
	h.WriteCell(0x99, false)

	if err := h.Detach(); err != nil {
		t.Fatal(err)
	}
	if h.Store() != nil || !h.DiskChange() {
		t.Errorf("disk still attached")
	}

	m := &mfm{mfmFormat: mfmFormats[diskimage.FormatD81]}
	it, is := m.imageLocation(0, 0, 2)
	buf := make([]byte, diskimage.SectorSize)
	img.ReadSector(buf, it, is)
	if buf[0] != 0x99 {
		t.Errorf("write lost on detach, got %02x", buf[0])
	}
}

func TestReadOnlyStore(t *testing.T) {
	g, _ := diskimage.NewGeometry(diskimage.FormatD81, 0)
	img, _ := diskimage.FromBytes(make([]byte, g.Size()), true)
	h := attach(t, img)
	if !h.WriteProtect() {
		t.Errorf("write protect not reported")
	}
	h.Materialize()
	p := find(h.RawTrack(), 0, 0x1a1, 0x1a1, 0x1a1, 0xfb)
	h.SetCell(p)
	h.WriteCell(0x01, false)

	if err := h.Flush(); !errors.Is(err, diskimage.ErrReadOnly) {
		t.Errorf("Flush error = %v, want ErrReadOnly", err)
	}
}

func TestGCRLayout(t *testing.T) {
	img := newImage(t, diskimage.FormatD64, 35)
	bam := make([]byte, diskimage.SectorSize)
	bam[0xa2], bam[0xa3] = 'A', 'B'
	img.WriteSector(bam, 18, 0)

	h := attach(t, img)
	seek(h, 2*(18-1))
	h.SetRate(h.Codec().Rate(h.Position()))
	if h.HalfTrack() != 36 {
		t.Fatalf("HalfTrack = %d, want 36", h.HalfTrack())
	}
	h.Materialize()
	tr := h.RawTrack()

	if tr.Size() != 7142 {
		t.Errorf("raw size = %d, want 7142", tr.Size())
	}
	for i := range 5 {
		if tr.Cell(i) != 0x1ff {
			t.Fatalf("cell %d = %03x, want sync", i, tr.Cell(i))
		}
	}
	hdr, ok := gcrDecode(nil, tr.Data[5:15])
	if !ok {
		t.Fatal("invalid GCR header")
	}
	want := []byte{0x08, 0 ^ 18 ^ 'B' ^ 'A', 0, 18, 'B', 'A', 0x0f, 0x0f}
	if diff := cmp.Diff(want, hdr); diff != "" {
		t.Errorf("header (-want +got):\n%s", diff)
	}
}

func TestGCRCodec(t *testing.T) {
	src := []byte{0x00, 0x12, 0xab, 0xff, 0x08, 0x80, 0x7f, 0x55}
	enc := gcrEncode(nil, src)
	if len(enc) != 10 {
		t.Fatalf("encoded length = %d, want 10", len(enc))
	}
	// $00 is 01010 01010.
	if enc[0] != 0x52 {
		t.Errorf("enc[0] = %02x, want 52", enc[0])
	}
	dec, ok := gcrDecode(nil, enc)
	if !ok || !bytes.Equal(dec, src) {
		t.Errorf("decoded %x, %t, want %x", dec, ok, src)
	}
	if _, ok := gcrDecode(nil, []byte{0, 0, 0, 0, 0}); ok {
		t.Errorf("invalid quintets decoded")
	}
}

func TestGCRRoundTrip(t *testing.T) {
	tests := []struct {
		format diskimage.Format
		tracks int
		track  int
		side   int
	}{
		{diskimage.FormatD64, 35, 1, 0},
		{diskimage.FormatD64, 35, 18, 0},
		{diskimage.FormatD64, 40, 40, 0},
		{diskimage.FormatD71, 0, 53, 1},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			img := newImage(t, tt.format, tt.tracks)
			h := attach(t, img)
			g := h.Codec().(*gcr)
			pos := 2 * (tt.track - 1)
			if tt.side == 1 {
				pos = 2 * (tt.track - 36)
			}
			seek(h, pos)
			h.SelectHead(tt.side)
			h.SetRate(g.Rate(pos))
			h.Materialize()

			// Reformat the whole track with new contents, the way a
			// formatting routine would.
			nsect := img.Geometry().Sectors(tt.track)
			h.SetCell(0)
			write := func(buf []byte, sync bool) {
				for _, b := range buf {
					if err := h.WriteCell(b, sync); err != nil {
						t.Fatal(err)
					}
				}
			}
			block := make([]byte, 260)
			for sector := range nsect {
				write(bytes.Repeat([]byte{0xff}, 5), true)
				write(g.header(tt.track, sector, 0, 0), false)
				write(bytes.Repeat([]byte{0x55}, 9), false)
				write(bytes.Repeat([]byte{0xff}, 5), true)
				block[0] = 0x07
				fillSector(block[1:257], tt.track, sector, 0x5a)
				var sum byte
				for _, b := range block[1:257] {
					sum ^= b
				}
				block[257] = sum
				write(gcrEncode(nil, block), false)
				write(bytes.Repeat([]byte{0x55}, 8), false)
			}
			for h.Cell() != 0 {
				write([]byte{0x55}, false)
			}

			if err := h.Flush(); err != nil {
				t.Fatal(err)
			}

			buf := make([]byte, diskimage.SectorSize)
			want := make([]byte, diskimage.SectorSize)
			for sector := range nsect {
				img.ReadSector(buf, tt.track, sector)
				fillSector(want, tt.track, sector, 0x5a)
				if !bytes.Equal(buf, want) {
					t.Errorf("sector %d not written back", sector)
				}
			}
		})
	}
}

func TestUnformattedTrack(t *testing.T) {
	tests := []struct {
		name      string
		format    diskimage.Format
		halfTrack int
	}{
		{"odd half track", diskimage.FormatD64, 37},
		{"beyond image", diskimage.FormatD64, 2 * 40},
		{"beyond mfm tracks", diskimage.FormatD81, 2 * 82},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := newImage(t, tt.format, 35)
			h := attach(t, img)
			h.Seed = 0x1234
			h.SetHalfTrack(tt.halfTrack)
			h.SetRate(h.Codec().Rate(h.Position()))

			size := h.Codec().TrackSize(h.Position())
			rev := func() []uint16 {
				cells := make([]uint16, size)
				for i := range cells {
					cells[i] = h.ReadCell()
				}
				return cells
			}
			first := rev()
			second := rev()
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("unformatted track changed between revolutions")
			}

			distinct := make(map[uint16]bool)
			for _, c := range first {
				distinct[c] = true
			}
			if len(distinct) < 64 {
				t.Errorf("only %d distinct values, want noise", len(distinct))
			}

			// Same seed, same pattern.
			h2 := attach(t, newImage(t, tt.format, 35))
			h2.Seed = 0x1234
			h2.SetHalfTrack(tt.halfTrack)
			h2.SetRate(h2.Codec().Rate(h2.Position()))
			h2.Materialize()
			if !bytes.Equal(h.RawTrack().Data, h2.RawTrack().Data) {
				t.Errorf("noise is not deterministic")
			}
		})
	}
}

func TestRateMismatch(t *testing.T) {
	h := attach(t, newImage(t, diskimage.FormatD81, 0))
	h.SetRate(0)

	for i := range 100 {
		if v := h.ReadCell(); v != 0 {
			t.Fatalf("read %03x at cell %d, want idle", v, i)
		}
	}
	if h.Cell() != 100 {
		t.Errorf("head at cell %d, want 100", h.Cell())
	}
	if h.RawTrack() != nil {
		t.Errorf("mismatching rate materialized the track")
	}
}

func TestMotorOff(t *testing.T) {
	h := attach(t, newImage(t, diskimage.FormatD81, 0))
	h.SetMotor(false)

	if v := h.ReadCell(); v != 0 || h.Cell() != 0 {
		t.Errorf("ReadCell with motor off = %03x, cell %d", v, h.Cell())
	}
	if err := h.WriteCell(0, false); !errors.Is(err, ErrMotorOff) {
		t.Errorf("WriteCell error = %v, want ErrMotorOff", err)
	}
	h.Rotate(1000)
	if h.Cell() != 0 {
		t.Errorf("disk rotated with the motor off")
	}
	h.Step(1)
	if h.Position() != 0 {
		t.Errorf("head stepped with the motor off")
	}

	h2 := NewHead("empty")
	h2.SetMotor(true)
	if err := h2.WriteCell(0, false); !errors.Is(err, ErrNoDisk) {
		t.Errorf("WriteCell without disk error = %v, want ErrNoDisk", err)
	}
}

func TestHeadStop(t *testing.T) {
	tests := []struct {
		format  diskimage.Format
		tracks  int
		maxPos  int
		maxHalf int
	}{
		{diskimage.FormatD81, 0, 82, 166},
		{diskimage.FormatD64, 35, 82, 84},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			h := attach(t, newImage(t, tt.format, tt.tracks))
			if !h.DiskChange() {
				t.Errorf("disk change not signaled after attach")
			}
			for range 200 {
				h.Step(1)
			}
			if h.Position() != tt.maxPos || h.HalfTrack() != tt.maxHalf {
				t.Errorf("after stepping in: pos %d half-track %d, want %d %d",
					h.Position(), h.HalfTrack(), tt.maxPos, tt.maxHalf)
			}
			if h.DiskChange() {
				t.Errorf("disk change not cleared by stepping")
			}
			for range 200 {
				h.Step(-1)
			}
			if h.Position() != 0 || !h.Track0() {
				t.Errorf("after stepping out: pos %d", h.Position())
			}
		})
	}
}

func TestIndex(t *testing.T) {
	h := attach(t, newImage(t, diskimage.FormatD81, 0))
	size := h.Codec().TrackSize(0)

	if !h.Index() {
		t.Errorf("no index pulse at cell 0")
	}
	h.Rotate(indexLen)
	if h.Index() {
		t.Errorf("index pulse at cell %d", h.Cell())
	}
	h.Rotate(size - indexLen + 3)
	if h.IndexCount() != 1 || h.Cell() != 3 {
		t.Errorf("after a revolution: index count %d, cell %d", h.IndexCount(), h.Cell())
	}
	h.Rotate(3 * size)
	if h.IndexCount() != 4 {
		t.Errorf("index count = %d, want 4", h.IndexCount())
	}

	h.SetCell(size - 1)
	h.ReadCell()
	if h.IndexCount() != 5 || h.Cell() != 0 {
		t.Errorf("read wrap: index count %d, cell %d", h.IndexCount(), h.Cell())
	}
	h.ResetIndexCount()
	if h.IndexCount() != 0 {
		t.Errorf("index count not reset")
	}
}
