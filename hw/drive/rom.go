package drive

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"cbmdrive/emu/log"
)

// ROM is a drive firmware image.
type ROM struct {
	Data []byte
	Path string
	// CRC-32 of Data.
	Sum uint32
}

func newROM(data []byte, path string) *ROM {
	return &ROM{Data: data, Path: path, Sum: crc32.ChecksumIEEE(data)}
}

// Rechecksum recomputes the checksum after Data has been modified.
func (r *ROM) Rechecksum() {
	r.Sum = crc32.ChecksumIEEE(r.Data)
}

// ROMSet holds the firmware images of every drive type. It is filled before
// emulation starts, and shared by all drive units.
type ROMSet struct {
	mu   sync.Mutex
	roms map[Type]*ROM
}

func NewROMSet() *ROMSet {
	return &ROMSet{roms: make(map[Type]*ROM)}
}

// Load reads the ROM of a drive type from path. Files larger than the ROM
// keep their last bytes, the way the ROM chip is wired at the top of the
// address space.
func (rs *ROMSet) Load(t Type, path string) error {
	m, err := ModelOf(t)
	if err != nil {
		return err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrROMUnavailable, m.Name, err)
	}
	return rs.Set(t, buf, path)
}

// Set installs a ROM image from memory.
func (rs *ROMSet) Set(t Type, buf []byte, path string) error {
	m, err := ModelOf(t)
	if err != nil {
		return err
	}
	if len(buf) < m.ROMSize {
		return fmt.Errorf("%w: %s: image is %d bytes, want %d", ErrROMUnavailable, m.Name, len(buf), m.ROMSize)
	}
	data := make([]byte, m.ROMSize)
	copy(data, buf[len(buf)-m.ROMSize:])

	rom := newROM(data, path)
	rs.mu.Lock()
	rs.roms[t] = rom
	rs.mu.Unlock()

	log.ModROM.InfoZ("Loaded drive ROM").
		String("type", m.Name).
		String("path", path).
		Hex32("crc32", rom.Sum).
		End()
	return nil
}

// LoadAll loads the ROMs of all the given types concurrently. A ROM that
// can't be loaded only makes its drive type unavailable: it is logged, and
// LoadAll returns the types that failed.
func (rs *ROMSet) LoadAll(paths map[Type]string) []Type {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []Type
	)
	g.SetLimit(runtime.NumCPU())

	for t, path := range paths {
		g.Go(func() error {
			if err := rs.Load(t, path); err != nil {
				logUnavailable(t, err)
				mu.Lock()
				failed = append(failed, t)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return failed
}

// DefaultPaths returns the default location of the ROM of every drive type
// within dir.
func DefaultPaths(dir string) map[Type]string {
	paths := make(map[Type]string, len(models))
	for _, m := range models {
		paths[m.Type] = filepath.Join(dir, m.ROMFile)
	}
	return paths
}

// Get returns the ROM of a drive type.
func (rs *ROMSet) Get(t Type) (*ROM, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rom, ok := rs.roms[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrROMUnavailable, t)
	}
	return rom, nil
}

func logUnavailable(t Type, err error) {
	log.ModROM.WithField("err", err).
		Errorf("%s ROM image not found. Hardware-level %s emulation is not available.", t, t)
}
