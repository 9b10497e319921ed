package drive

import (
	"testing"

	"cbmdrive/emu/log"
	"cbmdrive/hw/cpu"
	"cbmdrive/hw/diskimage"
	"cbmdrive/hw/media"
	"cbmdrive/tests"
)

func init() {
	log.Disable()
}

const testMainHz = 1000000

// firmware returns a ROM for m running code from $C000, with the IRQ
// handler at $C100.
func firmware(m *Model, code ...byte) *tests.Firmware {
	return tests.NewFirmware(m.ROMSize).
		At(0xc000, code...).
		Vectors(0xc000, 0xc000, 0xc100)
}

func mustModel(t *testing.T, typ Type) *Model {
	t.Helper()
	m, err := ModelOf(typ)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// newDrive returns unit 0 enabled as typ, running rom, with disk attached
// if not nil.
func newDrive(t *testing.T, typ Type, rom []byte, disk media.Store) *Context {
	t.Helper()
	return newUnit(t, 0, typ, rom, disk)
}

func newUnit(t *testing.T, unit int, typ Type, rom []byte, disk media.Store) *Context {
	t.Helper()
	roms := NewROMSet()
	if err := roms.Set(typ, rom, "test"); err != nil {
		t.Fatal(err)
	}
	d := NewContext(unit, roms, testMainHz)
	if disk != nil {
		if err := d.Attach(disk); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Enable(typ, 0); err != nil {
		t.Fatal(err)
	}
	return d
}

// rateOf returns the data rate of the first track of a disk.
func rateOf(t *testing.T, img *diskimage.Image) int {
	t.Helper()
	codec, err := media.NewCodec(img.Geometry())
	if err != nil {
		t.Fatal(err)
	}
	return codec.Rate(0)
}

// readerCode turns the motor on, then stores the next 256 bytes coming
// from the disk at $0300.
func readerCode(base uint16, rate int) []byte {
	ctrl := byte(ctrlMotor | ctrlSOEnable | rate<<ctrlRateShift)
	return []byte{
		0xa9, ctrl, // LDA #ctrl
		0x8d, tests.Lo(base + 3), tests.Hi(base + 3), // STA CONTROL
		0xa2, 0x00, // LDX #0
		0x50, 0xfe, // BVC *
		0xb8,                                 // CLV
		0xad, tests.Lo(base), tests.Hi(base), // LDA DATA
		0x9d, 0x00, 0x03, // STA $0300,X
		0xe8,       // INX
		0xd0, 0xf4, // BNE $C007
		0x4c, 0x13, 0xc0, // JMP *
	}
}

// dataCells returns the first n non-sync cells of a track.
func dataCells(tr *media.Track, n int) []byte {
	var out []byte
	for i := 0; len(out) < n && i < tr.Size(); i++ {
		if v := tr.Cell(i); v&0x100 == 0 {
			out = append(out, byte(v))
		}
	}
	return out
}

type cpuState struct {
	A, X, Y, SP uint8
	PC          uint16
	P           cpu.P
	Clk         uint32
	LastClk     uint32
	StopClk     uint32
	CycleAccum  uint32
}

func cpuStateOf(c *cpu.CPU) cpuState {
	return cpuState{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP,
		PC:         c.PC,
		P:          c.P,
		Clk:        uint32(c.Clk),
		LastClk:    uint32(c.LastClk),
		StopClk:    uint32(c.StopClk),
		CycleAccum: c.CycleAccum,
	}
}
