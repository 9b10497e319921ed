// Package diskimage implements sector stores for the disk image file formats
// of the emulated drives. An image is a flat array of 256-byte sectors,
// addressed by 1-based track and 0-based sector numbers.
package diskimage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const SectorSize = 256

var (
	ErrBadTrackSector = errors.New("diskimage: track/sector out of range")
	ErrReadOnly       = errors.New("diskimage: image is read-only")
	ErrUnknownFormat  = errors.New("diskimage: unknown image format")
)

// Format identifies a disk image type. Values match the image type codes
// found in snapshots.
type Format uint16

const (
	FormatD64 Format = 1541
	FormatD71 Format = 1571
	FormatD81 Format = 1581
	FormatD1M Format = 1000
	FormatD2M Format = 2000
	FormatD4M Format = 4000
)

var formatNames = map[Format]string{
	FormatD64: "D64",
	FormatD71: "D71",
	FormatD81: "D81",
	FormatD1M: "D1M",
	FormatD2M: "D2M",
	FormatD4M: "D4M",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", uint16(f))
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// IsGCR reports whether disks of this format are recorded with the GCR
// scheme of the 1541 family. Other formats are MFM.
func (f Format) IsGCR() bool {
	return f == FormatD64 || f == FormatD71
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
	for f, name := range formatNames {
		if name == ext {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Geometry describes the logical layout of an image.
type Geometry struct {
	Format Format

	// Tracks is the number of logical tracks, numbered from 1.
	Tracks int

	// Sides is 2 for double sided GCR media (D71), where tracks of the
	// second side follow the ones of the first side.
	Sides int

	// sectors per track, indexed by track-1
	sectors []int
}

// Sectors returns the number of sectors of a track, 0 if the track doesn't
// exist.
func (g Geometry) Sectors(track int) int {
	if track < 1 || track > len(g.sectors) {
		return 0
	}
	return g.sectors[track-1]
}

// TotalSectors returns the number of sectors of the whole image.
func (g Geometry) TotalSectors() int {
	n := 0
	for _, s := range g.sectors {
		n += s
	}
	return n
}

// Size returns the image file size in bytes.
func (g Geometry) Size() int {
	return g.TotalSectors() * SectorSize
}

// offset returns the byte offset of a sector.
func (g Geometry) offset(track, sector int) (int, error) {
	if sector < 0 || sector >= g.Sectors(track) {
		return 0, fmt.Errorf("%w: %s track %d sector %d", ErrBadTrackSector, g.Format, track, sector)
	}
	n := sector
	for _, s := range g.sectors[:track-1] {
		n += s
	}
	return n * SectorSize, nil
}

// GCRZone returns the speed zone of a 1541 track: 3 for the outer tracks
// holding 21 sectors, down to 0 for the inner tracks holding 17.
func GCRZone(track int) int {
	switch {
	case track <= 17:
		return 3
	case track <= 24:
		return 2
	case track <= 30:
		return 1
	}
	return 0
}

var gcrZoneSectors = [4]int{17, 18, 19, 21}

func gcrSectors(tracks int) []int {
	s := make([]int, tracks)
	for i := range s {
		track := i + 1
		if tracks == 70 {
			// second side
			track = i%35 + 1
		}
		s[i] = gcrZoneSectors[GCRZone(track)]
	}
	return s
}

func linearSectors(total, perTrack int) []int {
	var s []int
	for total > 0 {
		n := min(total, perTrack)
		s = append(s, n)
		total -= n
	}
	return s
}

// NewGeometry returns the geometry of a format. tracks selects the 35 or 40
// tracks variant of D64 images and is ignored otherwise.
func NewGeometry(f Format, tracks int) (Geometry, error) {
	g := Geometry{Format: f, Sides: 1}
	switch f {
	case FormatD64:
		if tracks != 35 && tracks != 40 {
			return g, fmt.Errorf("%w: D64 with %d tracks", ErrUnknownFormat, tracks)
		}
		g.sectors = gcrSectors(tracks)
	case FormatD71:
		g.sectors = gcrSectors(70)
		g.Sides = 2
	case FormatD81:
		g.sectors = linearSectors(80*40, 40)
	case FormatD1M:
		g.sectors = linearSectors(81*2*10*2, 256)
	case FormatD2M:
		g.sectors = linearSectors(81*2*10*4, 256)
	case FormatD4M:
		g.sectors = linearSectors(81*2*20*4, 256)
	default:
		return g, fmt.Errorf("%w: %d", ErrUnknownFormat, uint16(f))
	}
	g.Tracks = len(g.sectors)
	return g, nil
}

// DetectGeometry identifies an image from its size in bytes.
func DetectGeometry(size int) (Geometry, error) {
	candidates := []struct {
		f      Format
		tracks int
	}{
		{FormatD64, 35},
		{FormatD64, 40},
		{FormatD71, 0},
		{FormatD81, 0},
		{FormatD1M, 0},
		{FormatD2M, 0},
		{FormatD4M, 0},
	}
	for _, c := range candidates {
		g, err := NewGeometry(c.f, c.tracks)
		if err != nil {
			return g, err
		}
		if g.Size() == size {
			return g, nil
		}
	}
	return Geometry{}, fmt.Errorf("%w: no format is %d bytes long", ErrUnknownFormat, size)
}
