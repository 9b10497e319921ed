package tests

// Firmware builds drive ROM images. Drive ROMs are mirrored over the upper
// 32K of the address space, so code is placed by CPU address.
type Firmware struct {
	rom []byte
}

// NewFirmware returns a ROM image of size bytes, filled with NOPs.
func NewFirmware(size int) *Firmware {
	f := &Firmware{rom: make([]byte, size)}
	for i := range f.rom {
		f.rom[i] = 0xea
	}
	return f
}

// At places code at addr.
func (f *Firmware) At(addr uint16, code ...byte) *Firmware {
	for i, b := range code {
		f.rom[(int(addr)+i)&(len(f.rom)-1)] = b
	}
	return f
}

// Vectors sets the NMI, reset and IRQ vectors.
func (f *Firmware) Vectors(nmi, reset, irq uint16) *Firmware {
	return f.At(0xfffa,
		byte(nmi), byte(nmi>>8),
		byte(reset), byte(reset>>8),
		byte(irq), byte(irq>>8))
}

func (f *Firmware) Bytes() []byte {
	return f.rom
}

// Lo and Hi return the bytes of an address operand.
func Lo(addr uint16) byte { return byte(addr) }
func Hi(addr uint16) byte { return byte(addr >> 8) }
