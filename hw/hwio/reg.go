package hwio

import (
	"strings"

	"cbmdrive/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// denied reports, and logs, an access the flags forbid.
func (f RWFlags) denied(write bool, kind, name string, addr uint16) bool {
	var msg string
	switch {
	case write && f&ReadOnlyFlag != 0:
		msg = "invalid Write8 to readonly " + kind
	case !write && f&WriteOnlyFlag != 0:
		msg = "invalid Read8 from writeonly " + kind
	default:
		return false
	}
	log.ModHwIo.ErrorZ(msg).
		String("name", name).
		Hex16("addr", addr).
		End()
	return true
}

// Reg8 is an 8-bit register. Bits set in RoMask can't be changed by the
// CPU. The callbacks, when set, see and alter the register value on CPU
// accesses.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg Reg8) String() string {
	var sb strings.Builder
	sb.WriteString(reg.Name)
	sb.WriteByte('{')
	sb.Write(appendHex8(nil, reg.Value))
	for _, cb := range []struct {
		set bool
		tag string
	}{
		{reg.ReadCb != nil, ",r!"},
		{reg.PeekCb != nil, ",p!"},
		{reg.WriteCb != nil, ",w!"},
	} {
		if cb.set {
			sb.WriteString(cb.tag)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func appendHex8(dst []byte, v uint8) []byte {
	const digits = "0123456789abcdef"
	return append(dst, digits[v>>4], digits[v&0xf])
}

// Set loads the register value, bypassing RoMask and the write callback.
// It's meant for resets and state restoration.
func (reg *Reg8) Set(val uint8) { reg.Value = val }

// Bits returns the register bits selected by mask.
func (reg *Reg8) Bits(mask uint8) uint8 { return reg.Value & mask }

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Flags.denied(true, "reg", reg.Name, addr) {
		return
	}
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg8) Read8(addr uint16) uint8 {
	if reg.Flags.denied(false, "reg", reg.Name, addr) {
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg8) Peek8(addr uint16) uint8 {
	if reg.PeekCb != nil {
		return reg.PeekCb(reg.Value)
	}
	return reg.Value
}
