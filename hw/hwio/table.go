package hwio

import (
	"fmt"

	"cbmdrive/emu/log"
)

// BankIO8 is implemented by everything that can be mapped on a Table.
type BankIO8 interface {
	Read8(addr uint16) uint8
	// Peek8 reads a byte without side effects (debugging/tracing).
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

func Write16(b BankIO8, addr uint16, val uint16) {
	b.Write8(addr, uint8(val))
	b.Write8(addr+1, uint8(val>>8))
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func Peek16(b BankIO8, addr uint16) uint16 {
	lo := b.Peek8(addr)
	hi := b.Peek8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

type page [256]BankIO8

// Table is a 64KiB address space made of 256 pages, each page dispatching
// byte accesses to the device mapped at that address.
type Table struct {
	Name string

	// Unmapped, if not nil, serves accesses to addresses with no mapped
	// device. Reads return 0 otherwise.
	Unmapped BankIO8

	pages [256]*page
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Reset() {
	t.pages = [256]*page{}
}

func (t *Table) lookup(addr uint16) BankIO8 {
	pg := t.pages[addr>>8]
	if pg == nil {
		return nil
	}
	return pg[addr&0xff]
}

func (t *Table) mapBus8(addr uint16, size int, io BankIO8) {
	if size <= 0 || int(addr)+size > 0x10000 {
		panic(fmt.Errorf("hwio: invalid mapping on %s: addr=%04x size=%x", t.Name, addr, size))
	}
	for i := 0; i < size; i++ {
		a := addr + uint16(i)
		pg := t.pages[a>>8]
		if pg == nil {
			pg = new(page)
			t.pages[a>>8] = pg
		}
		pg[a&0xff] = io
	}
}

// MapBank maps a register bank, that is a structure containing multiple
// Reg8/Mem/Device fields. Fields must carry a "hwio" struct tag with:
//
//	offset=0x12     Byte-offset within the bank at which the register is
//	                mapped. Fields without offset are not part of any bank.
//
//	bank=NN         Ordinal bank number (defaults to zero). Allows a single
//	                structure to expose several banks mapped at different
//	                addresses.
//
// The structure must have been initialized with InitRegs beforehand.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.VSize-1))
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.Size-1))
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint16, io *Device) {
	t.mapBus8(addr, io.Size, io)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", mem.VSize).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	vsize := mem.VSize
	if vsize == 0 {
		vsize = len(mem.Data)
	}
	t.mapBus8(addr, vsize, mem.BankIO8())
}

// MapMemorySlice maps buf at [addr, end], mirroring it if the range is larger
// than the slice.
func (t *Table) MapMemorySlice(addr, end uint16, buf []uint8, readonly bool) {
	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  buf,
		Flags: flags,
		VSize: int(end) - int(addr) + 1,
	})
}

func (t *Table) Unmap(begin, end uint16) {
	for a := int(begin); a <= int(end); a++ {
		if pg := t.pages[a>>8]; pg != nil {
			pg[a&0xff] = nil
		}
	}
}

// Read8 forwards the read to the device mapped at addr.
func (t *Table) Read8(addr uint16) uint8 {
	io := t.lookup(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr)
		}
		return 0
	}
	return io.Read8(addr)
}

func (t *Table) Peek8(addr uint16) uint8 {
	io := t.lookup(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Peek8(addr)
		}
		return 0
	}
	return io.Peek8(addr)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.lookup(addr)
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
		}
		return
	}
	if mem, ok := io.(*mem); ok {
		// The read-write path stays inlined, only failures call out.
		if !mem.Write8CheckRO(addr, val) {
			log.ModHwIo.ErrorZ("Write8 to read-only address").
				String("name", t.Name).
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.Write8(addr, val)
}
