package media

// A Track is the raw cell cache of one side of one track. Each cell holds a
// byte, and a separate bitmap flags the cells recorded as sync marks.
type Track struct {
	// ID is the cached position, as pos*2+side, -1 when nothing is cached.
	ID    int
	Data  []byte
	Sync  []byte
	Dirty bool
}

// reset discards the cache contents and sizes it for a new track.
func (t *Track) reset(id, size int) {
	t.ID = id
	t.Dirty = false
	if len(t.Data) != size {
		t.Data = make([]byte, size)
		t.Sync = make([]byte, (size+7)>>3)
	} else {
		clear(t.Sync)
	}
}

// Size returns the number of cells of the track.
func (t *Track) Size() int {
	return len(t.Data)
}

func (t *Track) IsSync(p int) bool {
	return t.Sync[p>>3]&(0x80>>(p&7)) != 0
}

// Cell returns the value of cell p, with bit 8 set for sync cells.
func (t *Track) Cell(p int) uint16 {
	v := uint16(t.Data[p])
	if t.IsSync(p) {
		v |= 0x100
	}
	return v
}

// SetCell stores v in cell p, a sync mark if bit 8 is set.
func (t *Track) SetCell(p int, v uint16) {
	t.Data[p] = uint8(v)
	if v&0x100 != 0 {
		t.Sync[p>>3] |= 0x80 >> (p & 7)
	} else {
		t.Sync[p>>3] &^= 0x80 >> (p & 7)
	}
}

// trackWriter lays out cells sequentially, wrapping at the end of the track.
type trackWriter struct {
	t *Track
	p int
}

func (w *trackWriter) put(v uint16) {
	w.t.SetCell(w.p, v)
	w.p++
	if w.p >= w.t.Size() {
		w.p = 0
	}
}

func (w *trackWriter) byte(b byte) { w.put(uint16(b)) }
func (w *trackWriter) sync(b byte) { w.put(uint16(b) | 0x100) }

func (w *trackWriter) bytes(buf []byte) {
	for _, b := range buf {
		w.byte(b)
	}
}

func (w *trackWriter) fill(b byte, n int) {
	for range n {
		w.byte(b)
	}
}

func (w *trackWriter) fillSync(b byte, n int) {
	for range n {
		w.sync(b)
	}
}

// trackReader scans cells sequentially, wrapping at the end of the track.
type trackReader struct {
	t *Track
	p int
}

func (r *trackReader) next() uint16 {
	v := r.t.Cell(r.p)
	r.p++
	if r.p >= r.t.Size() {
		r.p = 0
	}
	return v
}

// noise fills the track with the pseudo-random pattern an unformatted or
// degaussed area of the disk produces. The pattern only depends on seed and
// on the track ID.
func (t *Track) noise(seed uint32) {
	x := seed ^ uint32(t.ID+1)*0x9e3779b9
	if x == 0 {
		x = 0x2545f491
	}
	for i := range t.Data {
		// xorshift32
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		t.Data[i] = byte(x >> 24)
	}
	clear(t.Sync)
}
