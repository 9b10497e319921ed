// Package tests provides fixtures shared by the tests of several packages:
// disk images with recognizable contents, and tiny firmware images.
package tests

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/sync/errgroup"

	"cbmdrive/hw/diskimage"
)

// ImageSpec describes a disk image fixture.
type ImageSpec struct {
	Name   string
	Format diskimage.Format
	Tracks int // D64 only
}

// SectorPattern fills buf with contents identifying a sector.
func SectorPattern(buf []byte, track, sector int) {
	for i := range buf {
		buf[i] = byte(track*7 + sector*13 + i)
	}
}

// NewImage returns an in-memory image whose sectors hold SectorPattern.
func NewImage(tb testing.TB, f diskimage.Format, tracks int) *diskimage.Image {
	tb.Helper()
	img, err := newImage(f, tracks)
	if err != nil {
		tb.Fatal(err)
	}
	return img
}

func newImage(f diskimage.Format, tracks int) (*diskimage.Image, error) {
	g, err := diskimage.NewGeometry(f, tracks)
	if err != nil {
		return nil, err
	}
	img := diskimage.New(g)
	buf := make([]byte, diskimage.SectorSize)
	for track := 1; track <= g.Tracks; track++ {
		for sector := range g.Sectors(track) {
			SectorPattern(buf, track, sector)
			if err := img.WriteSector(buf, track, sector); err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

// WriteImages creates image files in dir, concurrently, and returns their
// paths in the order of specs.
func WriteImages(tb testing.TB, dir string, specs ...ImageSpec) []string {
	tb.Helper()

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	paths := make([]string, len(specs))
	for i, spec := range specs {
		paths[i] = filepath.Join(dir, spec.Name)
		g.Go(func() error {
			img, err := newImage(spec.Format, spec.Tracks)
			if err != nil {
				return err
			}
			return os.WriteFile(paths[i], img.Bytes(), 0o644)
		})
	}

	if err := g.Wait(); err != nil {
		tb.Fatalf("failed to write images: %s", err)
	}
	return paths
}

// WriteFile writes buf to a file in dir and returns its path.
func WriteFile(tb testing.TB, dir, name string, buf []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		tb.Fatal(err)
	}
	return path
}
