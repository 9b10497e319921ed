package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"cbmdrive/hw/diskimage"
	"cbmdrive/hw/snapshot"
	"cbmdrive/tests"
)

func TestDiskInfo(t *testing.T) {
	paths := tests.WriteImages(t, t.TempDir(),
		tests.ImageSpec{Name: "a.d64", Format: diskimage.FormatD64, Tracks: 35},
		tests.ImageSpec{Name: "b.d81", Format: diskimage.FormatD81},
	)

	cases := []struct {
		path    string
		format  string
		tracks  int
		sectors int
	}{
		{paths[0], "D64", 35, 683},
		{paths[1], "D81", 80, 3200},
	}
	for _, tt := range cases {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := diskInfoMain(&buf, DiskInfo{ImagePath: tt.path, JSON: true}); err != nil {
				t.Fatal(err)
			}

			var (
				format          string
				tracks, sectors int
				infos           int
			)
			err := jx.DecodeBytes(buf.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "format":
					format, err = d.Str()
				case "tracks":
					tracks, err = d.Int()
				case "sectors":
					sectors, err = d.Int()
				case "track_infos":
					err = d.Arr(func(d *jx.Decoder) error {
						infos++
						return d.Skip()
					})
				default:
					err = d.Skip()
				}
				return err
			})
			if err != nil {
				t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
			}

			if format != tt.format || tracks != tt.tracks || sectors != tt.sectors || infos != tt.tracks {
				t.Errorf("got format=%s tracks=%d sectors=%d infos=%d", format, tracks, sectors, infos)
			}
		})
	}
}

func TestDiskInfoText(t *testing.T) {
	paths := tests.WriteImages(t, t.TempDir(),
		tests.ImageSpec{Name: "a.d64", Format: diskimage.FormatD64, Tracks: 40},
	)

	var buf bytes.Buffer
	if err := diskInfoMain(&buf, DiskInfo{ImagePath: paths[0]}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Format:  D64\n", "Tracks:  40\n", "   40       17  "} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestDiskInfoTrack(t *testing.T) {
	paths := tests.WriteImages(t, t.TempDir(),
		tests.ImageSpec{Name: "a.d64", Format: diskimage.FormatD64, Tracks: 35},
	)

	var buf bytes.Buffer
	if err := diskInfoMain(&buf, DiskInfo{ImagePath: paths[0], Track: 1}); err != nil {
		t.Fatal(err)
	}
	first, _, _ := strings.Cut(buf.String(), "\n")
	if want := "Track 1 side 0 (GCR/D64), 7692 cells"; first != want {
		t.Errorf("header = %q, want %q", first, want)
	}
	if !strings.Contains(buf.String(), "*ff") {
		t.Error("no sync cell in dump")
	}

	err := diskInfoMain(&buf, DiskInfo{ImagePath: paths[0], Track: 99})
	if err == nil {
		t.Error("track 99 accepted")
	}
}

func TestSnapshotInfo(t *testing.T) {
	s := snapshot.New("C64")
	s.Create("MACHINE", 1, 0).DW(12)
	s.Create("DRIVE", 4, 1).BA(make([]byte, 10))

	path := filepath.Join(t.TempDir(), "snap.vsf")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := snapshotInfoMain(&buf, SnapshotInfo{Path: path, JSON: true}); err != nil {
		t.Fatal(err)
	}

	type module struct {
		Name  string
		Major int
		Minor int
	}
	var (
		machine string
		mods    []module
	)
	err := jx.DecodeBytes(buf.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "machine":
			var err error
			machine, err = d.Str()
			return err
		case "modules":
			return d.Arr(func(d *jx.Decoder) error {
				var m module
				err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					var err error
					switch string(key) {
					case "name":
						m.Name, err = d.Str()
					case "major":
						m.Major, err = d.Int()
					case "minor":
						m.Minor, err = d.Int()
					default:
						err = d.Skip()
					}
					return err
				})
				mods = append(mods, m)
				return err
			})
		}
		return d.Skip()
	})
	if err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if machine != "C64" {
		t.Errorf("machine = %q", machine)
	}
	want := []module{{"MACHINE", 1, 0}, {"DRIVE", 4, 1}}
	if diff := cmp.Diff(want, mods); diff != "" {
		t.Errorf("modules (-want +got):\n%s", diff)
	}
}
