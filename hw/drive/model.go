// Package drive emulates complete disk drive units: the drive CPU and its
// memory map, the disk controller registers, the rotation of the disk under
// the head, and the enabled/disabled life cycle of each unit. Drives are
// caught up to the master clock by their owner, never on their own.
package drive

import (
	"errors"
	"fmt"
	"strings"

	"cbmdrive/hw/diskimage"
)

var (
	ErrUnknownType    = errors.New("drive: unknown drive type")
	ErrROMUnavailable = errors.New("drive: ROM unavailable")
)

// Type identifies a drive model. Values are the model numbers, 1541-II
// excepted.
type Type uint32

const (
	TypeNone   Type = 0
	Type1541   Type = 1541
	Type1541II Type = 1542
	Type1570   Type = 1570
	Type1571   Type = 1571
	Type1581   Type = 1581
	Type2000   Type = 2000
	Type4000   Type = 4000
)

// Model describes the hardware of a drive type.
type Model struct {
	Type    Type
	Name    string
	ROMSize int
	RAMSize int
	ClockHz uint32
	Sides   int

	// ROMFile is the default ROM file name.
	ROMFile string

	// Format of the disks the drive natively reads.
	Format diskimage.Format

	// Base address of the disk controller registers.
	CtrlBase uint16

	// Idle loop of the DOS main loop, if the ROM has a known one: the trap
	// replaces the instruction at TrapAddr by a jump to TrapCont.
	TrapAddr uint16
	TrapCont uint16
}

// ROMBase returns the address at which the ROM is mapped. ROMs always end
// at $FFFF.
func (m *Model) ROMBase() uint16 {
	return uint16(0x10000 - m.ROMSize)
}

func (m *Model) HasTrap() bool {
	return m.TrapAddr != 0
}

var models = []Model{
	{
		Type: Type1541, Name: "1541", ROMSize: 0x4000, RAMSize: 0x800, ClockHz: 1000000, Sides: 1,
		ROMFile: "dos1541", Format: diskimage.FormatD64, CtrlBase: 0x1c00,
		TrapAddr: 0xec9b, TrapCont: 0xebff,
	},
	{
		Type: Type1541II, Name: "1541-II", ROMSize: 0x4000, RAMSize: 0x800, ClockHz: 1000000, Sides: 1,
		ROMFile: "d1541II", Format: diskimage.FormatD64, CtrlBase: 0x1c00,
		TrapAddr: 0xec9b, TrapCont: 0xebff,
	},
	{
		Type: Type1570, Name: "1570", ROMSize: 0x8000, RAMSize: 0x800, ClockHz: 1000000, Sides: 1,
		ROMFile: "dos1570", Format: diskimage.FormatD64, CtrlBase: 0x1c00,
	},
	{
		Type: Type1571, Name: "1571", ROMSize: 0x8000, RAMSize: 0x800, ClockHz: 1000000, Sides: 2,
		ROMFile: "dos1571", Format: diskimage.FormatD71, CtrlBase: 0x1c00,
	},
	{
		Type: Type1581, Name: "1581", ROMSize: 0x8000, RAMSize: 0x2000, ClockHz: 2000000, Sides: 2,
		ROMFile: "dos1581", Format: diskimage.FormatD81, CtrlBase: 0x6000,
		TrapAddr: 0xb158, TrapCont: 0xb105,
	},
	{
		Type: Type2000, Name: "2000", ROMSize: 0x8000, RAMSize: 0x2000, ClockHz: 2000000, Sides: 2,
		ROMFile: "dos2000", Format: diskimage.FormatD2M, CtrlBase: 0x4e00,
		TrapAddr: 0xf3c0, TrapCont: 0xf36b,
	},
	{
		Type: Type4000, Name: "4000", ROMSize: 0x8000, RAMSize: 0x2000, ClockHz: 2000000, Sides: 2,
		ROMFile: "dos4000", Format: diskimage.FormatD4M, CtrlBase: 0x4e00,
		TrapAddr: 0xf3ec, TrapCont: 0xf397,
	},
}

// ModelOf returns the hardware description of a drive type.
func ModelOf(t Type) (*Model, error) {
	for i := range models {
		if models[i].Type == t {
			return &models[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint32(t))
}

// Models returns all supported drive models.
func Models() []Model {
	return append([]Model(nil), models...)
}

func (t Type) String() string {
	if t == TypeNone {
		return "none"
	}
	if m, err := ModelOf(t); err == nil {
		return m.Name
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// ParseType parses a drive type name, as returned by Type.String.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" || s == "" {
		return TypeNone, nil
	}
	for _, m := range models {
		if strings.ToLower(m.Name) == s {
			return m.Type, nil
		}
	}
	return TypeNone, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// UnmarshalText implements encoding.TextUnmarshaler, for configuration
// files.
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
