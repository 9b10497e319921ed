package main

import (
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"cbmdrive/hw/diskimage"
	"cbmdrive/hw/media"
	"cbmdrive/hw/snapshot"
)

type trackInfo struct {
	track   int
	sectors int
	crc     uint16
}

// trackInfos returns, for each track, its sector count and the CRC16 of
// its contents.
func trackInfos(img *diskimage.Image) ([]trackInfo, error) {
	g := img.Geometry()
	buf := make([]byte, diskimage.SectorSize)

	infos := make([]trackInfo, 0, g.Tracks)
	for track := 1; track <= g.Tracks; track++ {
		ti := trackInfo{track: track, sectors: g.Sectors(track), crc: 0xffff}
		for sector := range ti.sectors {
			if err := img.ReadSector(buf, track, sector); err != nil {
				return nil, err
			}
			ti.crc = media.CRC16(ti.crc, buf)
		}
		infos = append(infos, ti)
	}
	return infos, nil
}

// rawTrack returns the cells of a track as the drive head would see them.
func rawTrack(img *diskimage.Image, track, side int) (*media.Track, string, error) {
	h := media.NewHead("info")
	if err := h.Attach(img); err != nil {
		return nil, "", err
	}
	codec := h.Codec()
	pos := codec.Pos(track * 2)
	if pos < 0 || pos > codec.MaxPos() {
		return nil, "", fmt.Errorf("track %d out of range", track)
	}
	h.MaterializeTrack(pos, side)
	return h.RawTrack(), codec.Name(), nil
}

func diskInfoMain(w io.Writer, args DiskInfo) error {
	img, err := diskimage.Open(args.ImagePath, true)
	if err != nil {
		return err
	}
	defer img.Close()

	if args.Track != 0 {
		tr, codec, err := rawTrack(img, args.Track, args.Side)
		if err != nil {
			return err
		}
		if args.JSON {
			return writeRawTrackJSON(w, args.Track, args.Side, codec, tr)
		}
		return printRawTrack(w, args.Track, args.Side, codec, tr)
	}

	infos, err := trackInfos(img)
	if err != nil {
		return err
	}
	if args.JSON {
		return writeDiskJSON(w, img.Geometry(), infos)
	}

	g := img.Geometry()
	fmt.Fprintf(w, "Format:  %s\n", g.Format)
	fmt.Fprintf(w, "Tracks:  %d\n", g.Tracks)
	fmt.Fprintf(w, "Sides:   %d\n", g.Sides)
	fmt.Fprintf(w, "Sectors: %d\n", g.TotalSectors())
	fmt.Fprintf(w, "Size:    %d\n", g.Size())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Track  Sectors  CRC16")
	for _, ti := range infos {
		fmt.Fprintf(w, "%5d  %7d  %04x\n", ti.track, ti.sectors, ti.crc)
	}
	return nil
}

// printRawTrack dumps the cells of a track, 16 per line. Sync cells are
// marked with a star.
func printRawTrack(w io.Writer, track, side int, codec string, tr *media.Track) error {
	fmt.Fprintf(w, "Track %d side %d (%s), %d cells\n", track, side, codec, tr.Size())
	for i := range tr.Size() {
		if i%16 == 0 {
			fmt.Fprintf(w, "\n%05x:", i)
		}
		c := tr.Cell(i)
		mark := ' '
		if tr.IsSync(i) {
			mark = '*'
		}
		fmt.Fprintf(w, " %c%02x", mark, byte(c))
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeRawTrackJSON(w io.Writer, track, side int, codec string, tr *media.Track) error {
	e := jx.Encoder{}
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.Field("track", func(e *jx.Encoder) { e.Int(track) })
		e.Field("side", func(e *jx.Encoder) { e.Int(side) })
		e.Field("codec", func(e *jx.Encoder) { e.Str(codec) })
		e.Field("cells", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range tr.Size() {
					e.UInt16(tr.Cell(i))
				}
			})
		})
	})
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}

func writeDiskJSON(w io.Writer, g diskimage.Geometry, infos []trackInfo) error {
	e := jx.Encoder{}
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.Field("format", func(e *jx.Encoder) { e.Str(g.Format.String()) })
		e.Field("tracks", func(e *jx.Encoder) { e.Int(g.Tracks) })
		e.Field("sides", func(e *jx.Encoder) { e.Int(g.Sides) })
		e.Field("sectors", func(e *jx.Encoder) { e.Int(g.TotalSectors()) })
		e.Field("size", func(e *jx.Encoder) { e.Int(g.Size()) })
		e.Field("track_infos", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ti := range infos {
					e.Obj(func(e *jx.Encoder) {
						e.Field("track", func(e *jx.Encoder) { e.Int(ti.track) })
						e.Field("sectors", func(e *jx.Encoder) { e.Int(ti.sectors) })
						e.Field("crc16", func(e *jx.Encoder) { e.UInt16(ti.crc) })
					})
				}
			})
		})
	})
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}

func snapshotInfoMain(w io.Writer, args SnapshotInfo) error {
	s, err := snapshot.Open(args.Path)
	if err != nil {
		return err
	}

	if args.JSON {
		e := jx.Encoder{}
		e.SetIdent(2)
		e.Obj(func(e *jx.Encoder) {
			e.Field("machine", func(e *jx.Encoder) { e.Str(s.Machine) })
			e.Field("version", func(e *jx.Encoder) { e.Str(fmt.Sprintf("%d.%d", s.Major, s.Minor)) })
			e.Field("modules", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, m := range s.Modules {
						e.Obj(func(e *jx.Encoder) {
							e.Field("name", func(e *jx.Encoder) { e.Str(m.Name) })
							e.Field("major", func(e *jx.Encoder) { e.UInt8(m.Major) })
							e.Field("minor", func(e *jx.Encoder) { e.UInt8(m.Minor) })
							e.Field("size", func(e *jx.Encoder) { e.Int(m.Size()) })
						})
					}
				})
			})
		})
		_, err := w.Write(append(e.Bytes(), '\n'))
		return err
	}

	fmt.Fprintf(w, "Machine: %s\n", s.Machine)
	fmt.Fprintf(w, "Version: %d.%d\n", s.Major, s.Minor)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Module            Version      Size")
	for _, m := range s.Modules {
		fmt.Fprintf(w, "%-16s  %3d.%-3d  %8d\n", m.Name, m.Major, m.Minor, m.Size())
	}
	return nil
}
