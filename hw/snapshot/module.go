package snapshot

import (
	"encoding/binary"
	"fmt"

	"cbmdrive/emu/log"
)

// ModuleWriter appends positional fields to a module.
type ModuleWriter struct {
	m *Module
}

func (w *ModuleWriter) B(v uint8) {
	w.m.Data = append(w.m.Data, v)
}

func (w *ModuleWriter) Bool(v bool) {
	if v {
		w.B(1)
	} else {
		w.B(0)
	}
}

func (w *ModuleWriter) W(v uint16) {
	w.m.Data = binary.LittleEndian.AppendUint16(w.m.Data, v)
}

func (w *ModuleWriter) DW(v uint32) {
	w.m.Data = binary.LittleEndian.AppendUint32(w.m.Data, v)
}

func (w *ModuleWriter) BA(buf []byte) {
	w.m.Data = append(w.m.Data, buf...)
}

// Len returns the payload size written so far.
func (w *ModuleWriter) Len() int {
	return len(w.m.Data)
}

// Cursor reads positional fields from a module payload. It keeps track of the
// number of fields consumed; the first read past the end of the payload makes
// the cursor fail, and every subsequent read returns zero values.
type Cursor struct {
	name   string
	data   []byte
	off    int
	fields int
	err    error
}

// NewCursor returns a cursor over a raw payload.
func NewCursor(name string, data []byte) *Cursor {
	return &Cursor{name: name, data: data}
}

func (c *Cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if len(c.data)-c.off < n {
		c.err = fmt.Errorf("%w: %s: field #%d at offset %d needs %d bytes, %d left",
			ErrShortRead, c.name, c.fields, c.off, n, len(c.data)-c.off)
		return nil
	}
	p := c.data[c.off : c.off+n]
	c.off += n
	c.fields++
	return p
}

func (c *Cursor) B() uint8 {
	if p := c.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (c *Cursor) Bool() bool {
	return c.B() != 0
}

func (c *Cursor) W() uint16 {
	if p := c.take(2); p != nil {
		return binary.LittleEndian.Uint16(p)
	}
	return 0
}

func (c *Cursor) DW() uint32 {
	if p := c.take(4); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

// BA fills buf entirely from the payload.
func (c *Cursor) BA(buf []byte) {
	if p := c.take(len(buf)); p != nil {
		copy(buf, p)
	}
}

// Has reports whether n more bytes can be read. It is used for trailing
// fields that older writers did not produce: those are read only when
// present and keep their defaults otherwise.
func (c *Cursor) Has(n int) bool {
	return c.err == nil && len(c.data)-c.off >= n
}

func (c *Cursor) Remaining() int { return len(c.data) - c.off }
func (c *Cursor) Fields() int    { return c.fields }
func (c *Cursor) Err() error     { return c.err }

// CheckVersion compares a module version against the version a reader
// implements. A newer major version is an error; a newer minor version is
// accepted, the reader consuming only the fields it knows about.
func CheckVersion(name string, major, minor, wantMajor, wantMinor uint8) error {
	if major > wantMajor {
		log.ModSnap.ErrorZ("Snapshot module version newer than supported").
			String("module", name).
			String("version", fmt.Sprintf("%d.%d", major, minor)).
			String("supported", fmt.Sprintf("%d.%d", wantMajor, wantMinor)).
			End()
		return fmt.Errorf("%w: %s %d.%d > %d.%d", ErrVersionTooNew, name, major, minor, wantMajor, wantMinor)
	}
	if major == wantMajor && minor > wantMinor {
		log.ModSnap.WarnZ("Snapshot module version newer than supported").
			String("module", name).
			String("version", fmt.Sprintf("%d.%d", major, minor)).
			String("supported", fmt.Sprintf("%d.%d", wantMajor, wantMinor)).
			End()
	}
	return nil
}
