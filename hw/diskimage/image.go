package diskimage

import (
	"fmt"
	"io"
	"os"
)

// Image is a sector store held in memory. Images opened from a file write
// modified sectors through to that file.
type Image struct {
	Path string

	geom     Geometry
	data     []byte
	f        *os.File
	readOnly bool
}

// Open loads an image from file, its format being detected from its size.
// With readOnly set, or if the file can't be opened for writing, the image
// refuses writes.
func Open(path string, readOnly bool) (*Image, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil && !readOnly {
		readOnly = true
		f, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}

	img := &Image{Path: path, readOnly: readOnly}
	if _, err := img.ReadFrom(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if readOnly {
		f.Close()
	} else {
		img.f = f
	}
	return img, nil
}

// Create writes a blank image of the given geometry to path and opens it.
func Create(path string, g Geometry) (*Image, error) {
	if err := os.WriteFile(path, make([]byte, g.Size()), 0o644); err != nil {
		return nil, err
	}
	return Open(path, false)
}

// New returns a blank memory image.
func New(g Geometry) *Image {
	return &Image{geom: g, data: make([]byte, g.Size())}
}

// FromBytes returns a memory image over buf, detecting its format from its
// size. buf is not copied.
func FromBytes(buf []byte, readOnly bool) (*Image, error) {
	g, err := DetectGeometry(len(buf))
	if err != nil {
		return nil, err
	}
	return &Image{geom: g, data: buf, readOnly: readOnly}, nil
}

// ReadFrom implements io.ReaderFrom interface.
func (img *Image) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	g, err := DetectGeometry(len(buf))
	if err != nil {
		return 0, err
	}
	img.geom = g
	img.data = buf
	return int64(len(buf)), nil
}

// Close releases the backing file, if any.
func (img *Image) Close() error {
	if img.f == nil {
		return nil
	}
	err := img.f.Close()
	img.f = nil
	return err
}

func (img *Image) Geometry() Geometry { return img.geom }
func (img *Image) ReadOnly() bool     { return img.readOnly }

// Bytes returns the image contents.
func (img *Image) Bytes() []byte { return img.data }

// ReadSector copies a sector into buf, which must hold SectorSize bytes.
func (img *Image) ReadSector(buf []byte, track, sector int) error {
	off, err := img.geom.offset(track, sector)
	if err != nil {
		return err
	}
	copy(buf[:SectorSize], img.data[off:])
	return nil
}

// WriteSector replaces a sector with the first SectorSize bytes of buf.
func (img *Image) WriteSector(buf []byte, track, sector int) error {
	if img.readOnly {
		return ErrReadOnly
	}
	off, err := img.geom.offset(track, sector)
	if err != nil {
		return err
	}
	copy(img.data[off:off+SectorSize], buf)
	if img.f != nil {
		if _, err := img.f.WriteAt(img.data[off:off+SectorSize], int64(off)); err != nil {
			return fmt.Errorf("%s: track %d sector %d: %w", img.Path, track, sector, err)
		}
	}
	return nil
}
