package snapshot

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContainerRoundTrip(t *testing.T) {
	s := New("CBMDRIVE")
	w := s.Create("DRIVE", 1, 1)
	w.DW(0x10000)
	w.B(0x12)
	w.W(0x3456)
	w.BA([]byte("abc"))
	s.Create("NOIMAGE0", 1, 0)

	path := filepath.Join(t.TempDir(), "state.vsf")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(s, got, cmp.Comparer(func(a, b []byte) bool { return bytes.Equal(a, b) })); diff != "" {
		t.Errorf("container mismatch (-want +got):\n%s", diff)
	}
	if sz := got.Find("DRIVE").Size(); sz != 22+4+1+2+3 {
		t.Errorf("DRIVE module size = %d", sz)
	}
}

func TestOpenMissingModule(t *testing.T) {
	s := New("CBMDRIVE")
	_, _, _, err := s.Open("DRIVECPU0")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("Open = %v, want ErrModuleNotFound", err)
	}
}

func TestBadMagic(t *testing.T) {
	var s Snapshot
	if _, err := s.ReadFrom(bytes.NewReader([]byte("C64-S\x1a000000000000000000000000000000000000"))); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("ReadFrom = %v, want ErrBadMagic", err)
	}
}

func TestTruncatedModule(t *testing.T) {
	s := New("CBMDRIVE")
	s.Create("DRIVE", 1, 1).DW(1)

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()[:buf.Len()-2]

	var got Snapshot
	if _, err := got.ReadFrom(bytes.NewReader(raw)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("ReadFrom = %v, want ErrTruncated", err)
	}
}

func TestCursor(t *testing.T) {
	c := NewCursor("TEST", []byte{0x01, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12})

	if got := c.B(); got != 0x01 {
		t.Errorf("B = %x", got)
	}
	if got := c.W(); got != 0x1234 {
		t.Errorf("W = %x", got)
	}
	if !c.Has(4) || c.Has(5) {
		t.Errorf("Has mismatch with %d bytes remaining", c.Remaining())
	}
	if got := c.DW(); got != 0x12345678 {
		t.Errorf("DW = %x", got)
	}
	if c.Fields() != 3 || c.Err() != nil {
		t.Fatalf("Fields=%d Err=%v", c.Fields(), c.Err())
	}

	// Reading past the end fails, and the failure is sticky.
	if got := c.B(); got != 0 {
		t.Errorf("B past end = %x", got)
	}
	if !errors.Is(c.Err(), ErrShortRead) {
		t.Fatalf("Err = %v, want ErrShortRead", c.Err())
	}
	if c.Fields() != 3 {
		t.Errorf("Fields after failure = %d, want 3", c.Fields())
	}
	if c.Has(0) {
		t.Error("Has must report false once the cursor failed")
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		major, minor uint8
		wantErr      bool
	}{
		{1, 0, false},
		{1, 1, false},
		{1, 7, false},
		{2, 0, true},
		{0, 9, false},
	}
	for _, tt := range tests {
		err := CheckVersion("DRIVE", tt.major, tt.minor, 1, 1)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckVersion(%d.%d) = %v, wantErr %t", tt.major, tt.minor, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrVersionTooNew) {
			t.Errorf("CheckVersion(%d.%d) = %v, want ErrVersionTooNew", tt.major, tt.minor, err)
		}
	}
}
