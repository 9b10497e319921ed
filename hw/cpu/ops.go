package cpu

/* loads and stores */

func LDA(c *CPU, val uint8) { c.A = val; c.P.setNZ(val) }
func LDX(c *CPU, val uint8) { c.X = val; c.P.setNZ(val) }
func LDY(c *CPU, val uint8) { c.Y = val; c.P.setNZ(val) }

func STA(c *CPU) uint8 { return c.A }
func STX(c *CPU) uint8 { return c.X }
func STY(c *CPU) uint8 { return c.Y }

/* transfers */

func TAX(c *CPU) { c.X = c.A; c.P.setNZ(c.X) }
func TXA(c *CPU) { c.A = c.X; c.P.setNZ(c.A) }
func TAY(c *CPU) { c.Y = c.A; c.P.setNZ(c.Y) }
func TYA(c *CPU) { c.A = c.Y; c.P.setNZ(c.A) }
func TSX(c *CPU) { c.X = c.SP; c.P.setNZ(c.X) }
func TXS(c *CPU) { c.SP = c.X }

func INX(c *CPU) { c.X++; c.P.setNZ(c.X) }
func INY(c *CPU) { c.Y++; c.P.setNZ(c.Y) }
func DEX(c *CPU) { c.X--; c.P.setNZ(c.X) }
func DEY(c *CPU) { c.Y--; c.P.setNZ(c.Y) }

func nopImplied(c *CPU) {}

/* flags */

func CLC(c *CPU) { c.P.clearFlags(Carry) }
func SEC(c *CPU) { c.P.setFlags(Carry) }
func CLD(c *CPU) { c.P.clearFlags(Decimal) }
func SED(c *CPU) { c.P.setFlags(Decimal) }
func CLV(c *CPU) { c.P.clearFlags(Overflow) }

func CLI(c *CPU) {
	if c.P.intDisable() {
		c.opFlags |= opinfoEnablesIRQ
	}
	c.P.clearFlags(Interrupt)
}

func SEI(c *CPU) {
	if !c.P.intDisable() {
		c.opFlags |= opinfoDisablesIRQ
	}
	c.P.setFlags(Interrupt)
}

/* logic and arithmetic */

func ORA(c *CPU, val uint8) { c.A |= val; c.P.setNZ(c.A) }
func AND(c *CPU, val uint8) { c.A &= val; c.P.setNZ(c.A) }
func EOR(c *CPU, val uint8) { c.A ^= val; c.P.setNZ(c.A) }

func BIT(c *CPU, val uint8) {
	c.P.clearFlags(Zero | Overflow | Negative)
	c.P |= P(val) & (Overflow | Negative)
	if c.A&val == 0 {
		c.P.setFlags(Zero)
	}
}

func compare(c *CPU, reg, val uint8) {
	c.P.setNZ(reg - val)
	c.P.setFlag(Carry, reg >= val)
}

func CMP(c *CPU, val uint8) { compare(c, c.A, val) }
func CPX(c *CPU, val uint8) { compare(c, c.X, val) }
func CPY(c *CPU, val uint8) { compare(c, c.Y, val) }

func ADC(c *CPU, val uint8) {
	a := uint16(c.A)
	v := uint16(val)
	carry := uint16(c.P.carry())

	if !c.P.hasFlag(Decimal) {
		sum := a + v + carry
		c.P.setNZ(uint8(sum))
		c.P.setFlag(Overflow, (a^v)&0x80 == 0 && (a^sum)&0x80 != 0)
		c.P.setFlag(Carry, sum > 0xff)
		c.A = uint8(sum)
		return
	}

	// NMOS decimal mode: Z is computed on the binary sum, N and V on the
	// intermediate result after the low nibble adjustment.
	tmp := a&0xf + v&0xf + carry
	if tmp > 0x9 {
		tmp += 6
	}
	if tmp <= 0x0f {
		tmp = tmp&0xf + a&0xf0 + v&0xf0
	} else {
		tmp = tmp&0xf + a&0xf0 + v&0xf0 + 0x10
	}
	c.P.clearFlags(Zero | Negative | Overflow | Carry)
	if uint8(a+v+carry) == 0 {
		c.P.setFlags(Zero)
	}
	c.P |= P(tmp) & Negative
	c.P.setFlag(Overflow, (a^tmp)&0x80 != 0 && (a^v)&0x80 == 0)
	if tmp&0x1f0 > 0x90 {
		tmp += 0x60
	}
	c.P.setFlag(Carry, tmp&0xff0 > 0xf0)
	c.A = uint8(tmp)
}

func SBC(c *CPU, val uint8) {
	a := uint16(c.A)
	v := uint16(val)
	borrow := uint16(1 - c.P.carry())
	diff := a - v - borrow

	c.P.setNZ(uint8(diff))
	c.P.setFlag(Overflow, (a^diff)&0x80 != 0 && (a^v)&0x80 != 0)
	c.P.setFlag(Carry, diff < 0x100)

	if !c.P.hasFlag(Decimal) {
		c.A = uint8(diff)
		return
	}

	// Flags are those of the binary subtraction.
	tmp := a&0xf - v&0xf - borrow
	if tmp&0x10 != 0 {
		tmp = (tmp-6)&0xf | (a&0xf0 - v&0xf0 - 0x10)
	} else {
		tmp = tmp&0xf | (a&0xf0 - v&0xf0)
	}
	if tmp&0x100 != 0 {
		tmp -= 0x60
	}
	c.A = uint8(tmp)
}

/* shifts and increments */

func ASL(c *CPU, val uint8) uint8 {
	c.P.setFlag(Carry, val&0x80 != 0)
	val <<= 1
	c.P.setNZ(val)
	return val
}

func LSR(c *CPU, val uint8) uint8 {
	c.P.setFlag(Carry, val&0x01 != 0)
	val >>= 1
	c.P.setNZ(val)
	return val
}

func ROL(c *CPU, val uint8) uint8 {
	carry := c.P.carry()
	c.P.setFlag(Carry, val&0x80 != 0)
	val = val<<1 | carry
	c.P.setNZ(val)
	return val
}

func ROR(c *CPU, val uint8) uint8 {
	carry := c.P.carry()
	c.P.setFlag(Carry, val&0x01 != 0)
	val = val>>1 | carry<<7
	c.P.setNZ(val)
	return val
}

func INC(c *CPU, val uint8) uint8 { val++; c.P.setNZ(val); return val }
func DEC(c *CPU, val uint8) uint8 { val--; c.P.setNZ(val); return val }

/* stack */

func PHA(c *CPU) {
	c.dummyRead()
	c.push8(c.A)
}

func PHP(c *CPU) {
	c.dummyRead()
	c.syncSO()
	c.push8(uint8(c.P | Break | Reserved))
}

func PLA(c *CPU) {
	c.dummyRead()
	c.Read8(0x0100 | uint16(c.SP))
	c.A = c.pull8()
	c.P.setNZ(c.A)
}

func PLP(c *CPU) {
	c.dummyRead()
	c.Read8(0x0100 | uint16(c.SP))
	prev := c.P.intDisable()
	c.P = P(c.pull8())&^Break | Reserved
	switch now := c.P.intDisable(); {
	case !prev && now:
		c.opFlags |= opinfoDisablesIRQ
	case prev && !now:
		c.opFlags |= opinfoEnablesIRQ
	}
}

/* jumps and subroutines */

func JMP(c *CPU) {
	c.PC = c.fetch16()
}

// JMPind reproduces the NMOS page-wrap bug: the pointer high byte is read
// from the start of the same page.
func JMPind(c *CPU) {
	ptr := c.fetch16()
	lo := c.Read8(ptr)
	hi := c.Read8(ptr&0xff00 | (ptr+1)&0x00ff)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

func JSR(c *CPU) {
	lo := c.fetch8()
	c.Read8(0x0100 | uint16(c.SP))
	c.push16(c.PC)
	hi := c.Read8(c.PC)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

func RTS(c *CPU) {
	c.dummyRead()
	c.Read8(0x0100 | uint16(c.SP))
	c.PC = c.pull16()
	c.fetch8()
}

func RTI(c *CPU) {
	c.dummyRead()
	c.Read8(0x0100 | uint16(c.SP))
	c.P = P(c.pull8())&^Break | Reserved
	c.PC = c.pull16()
}

func BRK(c *CPU) {
	c.fetch8() // signature byte
	c.push16(c.PC)
	c.push8(uint8(c.P | Break | Reserved))
	c.P.setFlags(Interrupt)

	// An NMI occurring during the BRK sequence hijacks its vector.
	vector := IRQVector
	if c.ints.pending&ikNMI != 0 && c.ints.nmiDue(c.Clk, 0) {
		c.ints.pending &^= ikNMI
		vector = NMIVector
	}
	lo := c.Read8(vector)
	hi := c.Read8(vector + 1)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

/* branches */

func branch(c *CPU, cond bool) {
	off := c.fetch8()
	if !cond {
		return
	}
	c.dummyRead()
	dst := c.PC + uint16(int8(off))
	if dst&0xff00 != c.PC&0xff00 {
		c.Read8(c.PC&0xff00 | dst&0x00ff)
	} else {
		// Interrupts are polled before the extra cycle.
		c.opFlags |= opinfoDelaysInterrupt
	}
	c.PC = dst
}

func BPL(c *CPU) { branch(c, !c.P.hasFlag(Negative)) }
func BMI(c *CPU) { branch(c, c.P.hasFlag(Negative)) }
func BCC(c *CPU) { branch(c, !c.P.hasFlag(Carry)) }
func BCS(c *CPU) { branch(c, c.P.hasFlag(Carry)) }
func BNE(c *CPU) { branch(c, !c.P.hasFlag(Zero)) }
func BEQ(c *CPU) { branch(c, c.P.hasFlag(Zero)) }

func BVC(c *CPU) {
	c.syncSO()
	branch(c, !c.P.hasFlag(Overflow))
}

func BVS(c *CPU) {
	c.syncSO()
	branch(c, c.P.hasFlag(Overflow))
}

/* undocumented opcodes */

func NOP(c *CPU, val uint8) {}

func LAX(c *CPU, val uint8) {
	c.A, c.X = val, val
	c.P.setNZ(val)
}

func SAX(c *CPU) uint8 { return c.A & c.X }

func SLO(c *CPU, val uint8) uint8 { val = ASL(c, val); ORA(c, val); return val }
func RLA(c *CPU, val uint8) uint8 { val = ROL(c, val); AND(c, val); return val }
func SRE(c *CPU, val uint8) uint8 { val = LSR(c, val); EOR(c, val); return val }
func RRA(c *CPU, val uint8) uint8 { val = ROR(c, val); ADC(c, val); return val }
func DCP(c *CPU, val uint8) uint8 { val--; CMP(c, val); return val }
func ISC(c *CPU, val uint8) uint8 { val++; SBC(c, val); return val }

func ANC(c *CPU, val uint8) {
	AND(c, val)
	c.P.setFlag(Carry, c.A&0x80 != 0)
}

func ALR(c *CPU, val uint8) {
	c.A = LSR(c, c.A&val)
}

func ARR(c *CPU, val uint8) {
	tmp := c.A & val
	carry := c.P.carry()

	if !c.P.hasFlag(Decimal) {
		tmp = tmp>>1 | carry<<7
		c.P.setNZ(tmp)
		c.P.setFlag(Carry, tmp&0x40 != 0)
		c.P.setFlag(Overflow, (tmp&0x40)^((tmp&0x20)<<1) != 0)
		c.A = tmp
		return
	}

	res := tmp>>1 | carry<<7
	c.P.setFlag(Negative, carry != 0)
	c.P.setFlag(Zero, res == 0)
	c.P.setFlag(Overflow, (res^tmp)&0x40 != 0)
	if tmp&0xf+tmp&0x1 > 0x5 {
		res = res&0xf0 | (res+0x6)&0xf
	}
	if uint16(tmp&0xf0)+uint16(tmp&0x10) > 0x50 {
		res = res&0x0f | (res+0x60)&0xf0
		c.P.setFlags(Carry)
	} else {
		c.P.clearFlags(Carry)
	}
	c.A = res
}

// ANE and LXA depend on analog effects, the constant is the value most
// parts exhibit.
const aneMagic = 0xee

func ANE(c *CPU, val uint8) {
	c.A = (c.A | aneMagic) & c.X & val
	c.P.setNZ(c.A)
}

func LXA(c *CPU, val uint8) {
	c.A = (c.A | aneMagic) & val
	c.X = c.A
	c.P.setNZ(c.A)
}

func SBX(c *CPU, val uint8) {
	ax := c.A & c.X
	c.P.setFlag(Carry, ax >= val)
	c.X = ax - val
	c.P.setNZ(c.X)
}

func LAS(c *CPU, val uint8) {
	v := val & c.SP
	c.A, c.X, c.SP = v, v, v
	c.P.setNZ(v)
}

// unstableStore implements SHA/SHX/SHY/TAS: the stored value is ANDed with
// the high byte of the base address plus one, and replaces the high byte
// of the effective address when indexing crossed a page.
func unstableStore(c *CPU, val uint8) uint8 {
	hi := uint8(c.ea >> 8)
	if c.crossed {
		hi--
	}
	val &= hi + 1
	if c.crossed {
		c.ea = uint16(val)<<8 | c.ea&0x00ff
	}
	return val
}

func SHA(c *CPU) uint8 { return unstableStore(c, c.A&c.X) }
func SHX(c *CPU) uint8 { return unstableStore(c, c.X) }
func SHY(c *CPU) uint8 { return unstableStore(c, c.Y) }

func TAS(c *CPU) uint8 {
	c.SP = c.A & c.X
	return unstableStore(c, c.SP)
}
