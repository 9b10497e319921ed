package media

import (
	"errors"
	"fmt"

	"cbmdrive/hw/diskimage"
)

var (
	ErrNoDisk   = errors.New("media: no disk")
	ErrMotorOff = errors.New("media: motor is off")
)

// Store is the sector level backing of a disk. *diskimage.Image implements
// it.
type Store interface {
	ReadSector(buf []byte, track, sector int) error
	WriteSector(buf []byte, track, sector int) error
	Geometry() diskimage.Geometry
	ReadOnly() bool
}

// A Codec translates between the sectors of a Store and the raw cells of a
// track. Positions are in head stepping units: whole tracks for MFM drives,
// half-tracks for GCR drives.
type Codec interface {
	Name() string

	// MaxPos is the position of the head stop.
	MaxPos() int

	// HalfTrack converts a position to the half-track number reported by
	// the drive (2 for the first track).
	HalfTrack(pos int) int
	Pos(halfTrack int) int

	// TrackSize returns the number of cells of the track at pos. Cells
	// fly under the head at 5 times TrackSize per second.
	TrackSize(pos int) int

	// Rate returns the native data rate of the track at pos.
	Rate(pos int) int

	// Encode fills t with the track at pos and side. It returns false if
	// the track has no formatted data.
	Encode(t *Track, s Store, pos, side int) bool

	// Decode writes back the sectors found in t. A sector whose framing
	// can't be found keeps its stored contents. The first store error is
	// returned after every sector has been tried.
	Decode(t *Track, s Store, pos, side int) error
}

// NewCodec returns the codec for the disks of a format.
func NewCodec(g diskimage.Geometry) (Codec, error) {
	if g.Format.IsGCR() {
		return &gcr{geom: g}, nil
	}
	if f, ok := mfmFormats[g.Format]; ok {
		return &mfm{mfmFormat: f, format: g.Format}, nil
	}
	return nil, fmt.Errorf("%w: %s", diskimage.ErrUnknownFormat, g.Format)
}
