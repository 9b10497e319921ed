// Package snapshot implements the save-state container: a file header
// followed by an ordered sequence of named, versioned modules. Module payloads
// are positional little-endian fields, written through a ModuleWriter and read
// back through a Cursor.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	Magic = "VICE Snapshot File\032"

	Major = 1
	Minor = 1

	machineNameLen = 16
	moduleNameLen  = 16

	// name + major + minor + size
	moduleHeaderLen = moduleNameLen + 1 + 1 + 4
)

var (
	ErrBadMagic       = errors.New("snapshot: invalid magic")
	ErrModuleNotFound = errors.New("snapshot: module not found")
	ErrVersionTooNew  = errors.New("snapshot: module version too new")
	ErrShortRead      = errors.New("snapshot: short module read")
	ErrTruncated      = errors.New("snapshot: truncated container")
)

// Module is one named, versioned record.
type Module struct {
	Name         string
	Major, Minor uint8
	Data         []byte
}

// Snapshot is an in-memory container.
type Snapshot struct {
	Machine string
	Major   uint8
	Minor   uint8
	Modules []*Module
}

func New(machine string) *Snapshot {
	return &Snapshot{Machine: machine, Major: Major, Minor: Minor}
}

// Open loads a snapshot from file.
func Open(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := new(Snapshot)
	if _, err := s.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes the snapshot to path.
func (s *Snapshot) Save(path string) error {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func putName(dst []byte, name string) {
	n := copy(dst, name)
	clear(dst[n:])
}

func getName(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}

// WriteTo implements io.WriterTo.
func (s *Snapshot) WriteTo(w io.Writer) (int64, error) {
	var hdr [len(Magic) + 2 + machineNameLen]byte
	copy(hdr[:], Magic)
	hdr[len(Magic)] = s.Major
	hdr[len(Magic)+1] = s.Minor
	putName(hdr[len(Magic)+2:], s.Machine)

	n, err := w.Write(hdr[:])
	total := int64(n)
	if err != nil {
		return total, err
	}

	for _, m := range s.Modules {
		var mh [moduleHeaderLen]byte
		putName(mh[:moduleNameLen], m.Name)
		mh[moduleNameLen] = m.Major
		mh[moduleNameLen+1] = m.Minor
		binary.LittleEndian.PutUint32(mh[moduleNameLen+2:], uint32(len(m.Data)+moduleHeaderLen))

		n, err = w.Write(mh[:])
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = w.Write(m.Data)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadFrom implements io.ReaderFrom.
func (s *Snapshot) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	hdrlen := len(Magic) + 2 + machineNameLen
	if len(buf) < hdrlen || string(buf[:len(Magic)]) != Magic {
		return 0, ErrBadMagic
	}
	s.Major = buf[len(Magic)]
	s.Minor = buf[len(Magic)+1]
	s.Machine = getName(buf[len(Magic)+2 : hdrlen])
	s.Modules = nil

	off := hdrlen
	for off < len(buf) {
		if len(buf)-off < moduleHeaderLen {
			return int64(off), fmt.Errorf("%w: module header at offset %d", ErrTruncated, off)
		}
		mh := buf[off : off+moduleHeaderLen]
		size := int(binary.LittleEndian.Uint32(mh[moduleNameLen+2:]))
		if size < moduleHeaderLen || off+size > len(buf) {
			return int64(off), fmt.Errorf("%w: module %q size %d", ErrTruncated, getName(mh[:moduleNameLen]), size)
		}
		s.Modules = append(s.Modules, &Module{
			Name:  getName(mh[:moduleNameLen]),
			Major: mh[moduleNameLen],
			Minor: mh[moduleNameLen+1],
			Data:  buf[off+moduleHeaderLen : off+size],
		})
		off += size
	}
	return int64(off), nil
}

// Find returns the module with the given name, or nil.
func (s *Snapshot) Find(name string) *Module {
	for _, m := range s.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Create starts a new module. The module becomes part of the snapshot as soon
// as Create returns; fields are appended through the returned writer. An
// existing module with the same name is replaced.
func (s *Snapshot) Create(name string, major, minor uint8) *ModuleWriter {
	if len(name) > moduleNameLen {
		panic(fmt.Sprintf("snapshot: module name %q too long", name))
	}
	m := &Module{Name: name, Major: major, Minor: minor}
	replaced := false
	for i, old := range s.Modules {
		if old.Name == name {
			s.Modules[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		s.Modules = append(s.Modules, m)
	}
	return &ModuleWriter{m: m}
}

// Open looks up a module and returns a cursor positioned on its first field,
// along with its version. ErrModuleNotFound is returned if the container has
// no such module.
func (s *Snapshot) Open(name string) (*Cursor, uint8, uint8, error) {
	m := s.Find(name)
	if m == nil {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return &Cursor{name: m.Name, data: m.Data}, m.Major, m.Minor, nil
}

// Size returns the on-disk size of the module, header included.
func (m *Module) Size() int {
	return len(m.Data) + moduleHeaderLen
}
