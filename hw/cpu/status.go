package cpu

// P is the processor status register.
type P uint8

const (
	Carry P = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Reserved
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := 0; i < 8; i++ {
		ibit := (uint8(p) & (1 << (7 - i))) >> (7 - i)
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p *P) setFlags(flags P) {
	*p |= flags
}

func (p *P) clearFlags(flags P) {
	*p &^= flags
}

func (p *P) setFlag(flag P, on bool) {
	if on {
		*p |= flag
	} else {
		*p &^= flag
	}
}

func (p P) hasFlag(flag P) bool {
	return p&flag == flag
}

func (p P) carry() uint8 {
	return uint8(p & Carry)
}

func (p P) intDisable() bool {
	return p&Interrupt != 0
}

func (p *P) setNZ(val uint8) {
	*p &^= Zero | Negative
	if val == 0 {
		*p |= Zero
	}
	*p |= P(val) & Negative
}
