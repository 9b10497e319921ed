package cpu

type addrMode uint8

const (
	modeImp addrMode = iota
	modeAcc
	modeImm
	modeZpg
	modeZpx
	modeZpy
	modeAbs
	modeAbx
	modeAby
	modeInd
	modeIzx
	modeIzy
	modeRel
)

// operand sizes, in bytes
var modeSize = [...]uint8{
	modeImp: 0, modeAcc: 0, modeImm: 1, modeZpg: 1, modeZpx: 1, modeZpy: 1,
	modeAbs: 2, modeAbx: 2, modeAby: 2, modeInd: 2, modeIzx: 1, modeIzy: 1,
	modeRel: 1,
}

type opKind uint8

const (
	kindJam  opKind = iota
	kindImpl        // implied, one dummy read
	kindAcc         // read-modify-write on the accumulator
	kindRead
	kindWrite
	kindRMW
	kindCtl // performs its own bus cycles
)

type opcode struct {
	name string
	mode addrMode
	kind opKind

	impl  func(*CPU)
	ctl   func(*CPU)
	read  func(*CPU, uint8)
	write func(*CPU) uint8
	rmw   func(*CPU, uint8) uint8
}

// exec runs the instruction, the opcode byte having already been fetched.
func (op *opcode) exec(c *CPU) {
	switch op.kind {
	case kindImpl:
		c.dummyRead()
		op.impl(c)
	case kindAcc:
		c.dummyRead()
		c.A = op.rmw(c, c.A)
	case kindCtl:
		op.ctl(c)
	case kindRead:
		if op.mode == modeImm {
			op.read(c, c.fetch8())
			return
		}
		c.address(op.mode, false)
		op.read(c, c.Read8(c.ea))
	case kindWrite:
		c.address(op.mode, true)
		val := op.write(c)
		c.Write8(c.ea, val)
	case kindRMW:
		c.address(op.mode, true)
		val := c.Read8(c.ea)
		c.Write8(c.ea, val) // NMOS parts write the unmodified value back first
		c.Write8(c.ea, op.rmw(c, val))
	}
}

// address computes the effective address of the current instruction into
// c.ea, performing the bus cycles of the addressing mode. Indexed modes do a
// dummy read at the unfixed address when the index crosses a page, and
// always do it for write accesses.
func (c *CPU) address(mode addrMode, write bool) {
	c.crossed = false
	switch mode {
	case modeZpg:
		c.ea = uint16(c.fetch8())
	case modeZpx, modeZpy:
		zp := c.fetch8()
		c.Read8(uint16(zp))
		idx := c.X
		if mode == modeZpy {
			idx = c.Y
		}
		c.ea = uint16(zp + idx)
	case modeAbs:
		c.ea = c.fetch16()
	case modeAbx:
		c.indexed(c.fetch16(), c.X, write)
	case modeAby:
		c.indexed(c.fetch16(), c.Y, write)
	case modeIzx:
		zp := c.fetch8()
		c.Read8(uint16(zp))
		zp += c.X
		lo := c.Read8(uint16(zp))
		hi := c.Read8(uint16(zp + 1))
		c.ea = uint16(hi)<<8 | uint16(lo)
	case modeIzy:
		zp := c.fetch8()
		lo := c.Read8(uint16(zp))
		hi := c.Read8(uint16(zp + 1))
		c.indexed(uint16(hi)<<8|uint16(lo), c.Y, write)
	}
}

func (c *CPU) indexed(base uint16, idx uint8, write bool) {
	c.ea = base + uint16(idx)
	c.crossed = c.ea&0xff00 != base&0xff00
	if c.crossed || write {
		c.Read8(base&0xff00 | c.ea&0x00ff)
	}
}

var opcodes = [256]opcode{
	0x00: {name: "BRK", mode: modeImp, kind: kindCtl, ctl: BRK},
	0x01: {name: "ORA", mode: modeIzx, kind: kindRead, read: ORA},
	0x02: {name: "JAM", mode: modeImp, kind: kindJam},
	0x03: {name: "SLO", mode: modeIzx, kind: kindRMW, rmw: SLO},
	0x04: {name: "NOP", mode: modeZpg, kind: kindRead, read: NOP},
	0x05: {name: "ORA", mode: modeZpg, kind: kindRead, read: ORA},
	0x06: {name: "ASL", mode: modeZpg, kind: kindRMW, rmw: ASL},
	0x07: {name: "SLO", mode: modeZpg, kind: kindRMW, rmw: SLO},
	0x08: {name: "PHP", mode: modeImp, kind: kindCtl, ctl: PHP},
	0x09: {name: "ORA", mode: modeImm, kind: kindRead, read: ORA},
	0x0A: {name: "ASL", mode: modeAcc, kind: kindAcc, rmw: ASL},
	0x0B: {name: "ANC", mode: modeImm, kind: kindRead, read: ANC},
	0x0C: {name: "NOP", mode: modeAbs, kind: kindRead, read: NOP},
	0x0D: {name: "ORA", mode: modeAbs, kind: kindRead, read: ORA},
	0x0E: {name: "ASL", mode: modeAbs, kind: kindRMW, rmw: ASL},
	0x0F: {name: "SLO", mode: modeAbs, kind: kindRMW, rmw: SLO},
	0x10: {name: "BPL", mode: modeRel, kind: kindCtl, ctl: BPL},
	0x11: {name: "ORA", mode: modeIzy, kind: kindRead, read: ORA},
	0x12: {name: "JAM", mode: modeImp, kind: kindJam},
	0x13: {name: "SLO", mode: modeIzy, kind: kindRMW, rmw: SLO},
	0x14: {name: "NOP", mode: modeZpx, kind: kindRead, read: NOP},
	0x15: {name: "ORA", mode: modeZpx, kind: kindRead, read: ORA},
	0x16: {name: "ASL", mode: modeZpx, kind: kindRMW, rmw: ASL},
	0x17: {name: "SLO", mode: modeZpx, kind: kindRMW, rmw: SLO},
	0x18: {name: "CLC", mode: modeImp, kind: kindImpl, impl: CLC},
	0x19: {name: "ORA", mode: modeAby, kind: kindRead, read: ORA},
	0x1A: {name: "NOP", mode: modeImp, kind: kindImpl, impl: nopImplied},
	0x1B: {name: "SLO", mode: modeAby, kind: kindRMW, rmw: SLO},
	0x1C: {name: "NOP", mode: modeAbx, kind: kindRead, read: NOP},
	0x1D: {name: "ORA", mode: modeAbx, kind: kindRead, read: ORA},
	0x1E: {name: "ASL", mode: modeAbx, kind: kindRMW, rmw: ASL},
	0x1F: {name: "SLO", mode: modeAbx, kind: kindRMW, rmw: SLO},
	0x20: {name: "JSR", mode: modeAbs, kind: kindCtl, ctl: JSR},
	0x21: {name: "AND", mode: modeIzx, kind: kindRead, read: AND},
	0x22: {name: "JAM", mode: modeImp, kind: kindJam},
	0x23: {name: "RLA", mode: modeIzx, kind: kindRMW, rmw: RLA},
	0x24: {name: "BIT", mode: modeZpg, kind: kindRead, read: BIT},
	0x25: {name: "AND", mode: modeZpg, kind: kindRead, read: AND},
	0x26: {name: "ROL", mode: modeZpg, kind: kindRMW, rmw: ROL},
	0x27: {name: "RLA", mode: modeZpg, kind: kindRMW, rmw: RLA},
	0x28: {name: "PLP", mode: modeImp, kind: kindCtl, ctl: PLP},
	0x29: {name: "AND", mode: modeImm, kind: kindRead, read: AND},
	0x2A: {name: "ROL", mode: modeAcc, kind: kindAcc, rmw: ROL},
	0x2B: {name: "ANC", mode: modeImm, kind: kindRead, read: ANC},
	0x2C: {name: "BIT", mode: modeAbs, kind: kindRead, read: BIT},
	0x2D: {name: "AND", mode: modeAbs, kind: kindRead, read: AND},
	0x2E: {name: "ROL", mode: modeAbs, kind: kindRMW, rmw: ROL},
	0x2F: {name: "RLA", mode: modeAbs, kind: kindRMW, rmw: RLA},
	0x30: {name: "BMI", mode: modeRel, kind: kindCtl, ctl: BMI},
	0x31: {name: "AND", mode: modeIzy, kind: kindRead, read: AND},
	0x32: {name: "JAM", mode: modeImp, kind: kindJam},
	0x33: {name: "RLA", mode: modeIzy, kind: kindRMW, rmw: RLA},
	0x34: {name: "NOP", mode: modeZpx, kind: kindRead, read: NOP},
	0x35: {name: "AND", mode: modeZpx, kind: kindRead, read: AND},
	0x36: {name: "ROL", mode: modeZpx, kind: kindRMW, rmw: ROL},
	0x37: {name: "RLA", mode: modeZpx, kind: kindRMW, rmw: RLA},
	0x38: {name: "SEC", mode: modeImp, kind: kindImpl, impl: SEC},
	0x39: {name: "AND", mode: modeAby, kind: kindRead, read: AND},
	0x3A: {name: "NOP", mode: modeImp, kind: kindImpl, impl: nopImplied},
	0x3B: {name: "RLA", mode: modeAby, kind: kindRMW, rmw: RLA},
	0x3C: {name: "NOP", mode: modeAbx, kind: kindRead, read: NOP},
	0x3D: {name: "AND", mode: modeAbx, kind: kindRead, read: AND},
	0x3E: {name: "ROL", mode: modeAbx, kind: kindRMW, rmw: ROL},
	0x3F: {name: "RLA", mode: modeAbx, kind: kindRMW, rmw: RLA},
	0x40: {name: "RTI", mode: modeImp, kind: kindCtl, ctl: RTI},
	0x41: {name: "EOR", mode: modeIzx, kind: kindRead, read: EOR},
	0x42: {name: "JAM", mode: modeImp, kind: kindJam},
	0x43: {name: "SRE", mode: modeIzx, kind: kindRMW, rmw: SRE},
	0x44: {name: "NOP", mode: modeZpg, kind: kindRead, read: NOP},
	0x45: {name: "EOR", mode: modeZpg, kind: kindRead, read: EOR},
	0x46: {name: "LSR", mode: modeZpg, kind: kindRMW, rmw: LSR},
	0x47: {name: "SRE", mode: modeZpg, kind: kindRMW, rmw: SRE},
	0x48: {name: "PHA", mode: modeImp, kind: kindCtl, ctl: PHA},
	0x49: {name: "EOR", mode: modeImm, kind: kindRead, read: EOR},
	0x4A: {name: "LSR", mode: modeAcc, kind: kindAcc, rmw: LSR},
	0x4B: {name: "ALR", mode: modeImm, kind: kindRead, read: ALR},
	0x4C: {name: "JMP", mode: modeAbs, kind: kindCtl, ctl: JMP},
	0x4D: {name: "EOR", mode: modeAbs, kind: kindRead, read: EOR},
	0x4E: {name: "LSR", mode: modeAbs, kind: kindRMW, rmw: LSR},
	0x4F: {name: "SRE", mode: modeAbs, kind: kindRMW, rmw: SRE},
	0x50: {name: "BVC", mode: modeRel, kind: kindCtl, ctl: BVC},
	0x51: {name: "EOR", mode: modeIzy, kind: kindRead, read: EOR},
	0x52: {name: "JAM", mode: modeImp, kind: kindJam},
	0x53: {name: "SRE", mode: modeIzy, kind: kindRMW, rmw: SRE},
	0x54: {name: "NOP", mode: modeZpx, kind: kindRead, read: NOP},
	0x55: {name: "EOR", mode: modeZpx, kind: kindRead, read: EOR},
	0x56: {name: "LSR", mode: modeZpx, kind: kindRMW, rmw: LSR},
	0x57: {name: "SRE", mode: modeZpx, kind: kindRMW, rmw: SRE},
	0x58: {name: "CLI", mode: modeImp, kind: kindImpl, impl: CLI},
	0x59: {name: "EOR", mode: modeAby, kind: kindRead, read: EOR},
	0x5A: {name: "NOP", mode: modeImp, kind: kindImpl, impl: nopImplied},
	0x5B: {name: "SRE", mode: modeAby, kind: kindRMW, rmw: SRE},
	0x5C: {name: "NOP", mode: modeAbx, kind: kindRead, read: NOP},
	0x5D: {name: "EOR", mode: modeAbx, kind: kindRead, read: EOR},
	0x5E: {name: "LSR", mode: modeAbx, kind: kindRMW, rmw: LSR},
	0x5F: {name: "SRE", mode: modeAbx, kind: kindRMW, rmw: SRE},
	0x60: {name: "RTS", mode: modeImp, kind: kindCtl, ctl: RTS},
	0x61: {name: "ADC", mode: modeIzx, kind: kindRead, read: ADC},
	0x62: {name: "JAM", mode: modeImp, kind: kindJam},
	0x63: {name: "RRA", mode: modeIzx, kind: kindRMW, rmw: RRA},
	0x64: {name: "NOP", mode: modeZpg, kind: kindRead, read: NOP},
	0x65: {name: "ADC", mode: modeZpg, kind: kindRead, read: ADC},
	0x66: {name: "ROR", mode: modeZpg, kind: kindRMW, rmw: ROR},
	0x67: {name: "RRA", mode: modeZpg, kind: kindRMW, rmw: RRA},
	0x68: {name: "PLA", mode: modeImp, kind: kindCtl, ctl: PLA},
	0x69: {name: "ADC", mode: modeImm, kind: kindRead, read: ADC},
	0x6A: {name: "ROR", mode: modeAcc, kind: kindAcc, rmw: ROR},
	0x6B: {name: "ARR", mode: modeImm, kind: kindRead, read: ARR},
	0x6C: {name: "JMP", mode: modeInd, kind: kindCtl, ctl: JMPind},
	0x6D: {name: "ADC", mode: modeAbs, kind: kindRead, read: ADC},
	0x6E: {name: "ROR", mode: modeAbs, kind: kindRMW, rmw: ROR},
	0x6F: {name: "RRA", mode: modeAbs, kind: kindRMW, rmw: RRA},
	0x70: {name: "BVS", mode: modeRel, kind: kindCtl, ctl: BVS},
	0x71: {name: "ADC", mode: modeIzy, kind: kindRead, read: ADC},
	0x72: {name: "JAM", mode: modeImp, kind: kindJam},
	0x73: {name: "RRA", mode: modeIzy, kind: kindRMW, rmw: RRA},
	0x74: {name: "NOP", mode: modeZpx, kind: kindRead, read: NOP},
	0x75: {name: "ADC", mode: modeZpx, kind: kindRead, read: ADC},
	0x76: {name: "ROR", mode: modeZpx, kind: kindRMW, rmw: ROR},
	0x77: {name: "RRA", mode: modeZpx, kind: kindRMW, rmw: RRA},
	0x78: {name: "SEI", mode: modeImp, kind: kindImpl, impl: SEI},
	0x79: {name: "ADC", mode: modeAby, kind: kindRead, read: ADC},
	0x7A: {name: "NOP", mode: modeImp, kind: kindImpl, impl: nopImplied},
	0x7B: {name: "RRA", mode: modeAby, kind: kindRMW, rmw: RRA},
	0x7C: {name: "NOP", mode: modeAbx, kind: kindRead, read: NOP},
	0x7D: {name: "ADC", mode: modeAbx, kind: kindRead, read: ADC},
	0x7E: {name: "ROR", mode: modeAbx, kind: kindRMW, rmw: ROR},
	0x7F: {name: "RRA", mode: modeAbx, kind: kindRMW, rmw: RRA},
	0x80: {name: "NOP", mode: modeImm, kind: kindRead, read: NOP},
	0x81: {name: "STA", mode: modeIzx, kind: kindWrite, write: STA},
	0x82: {name: "NOP", mode: modeImm, kind: kindRead, read: NOP},
	0x83: {name: "SAX", mode: modeIzx, kind: kindWrite, write: SAX},
	0x84: {name: "STY", mode: modeZpg, kind: kindWrite, write: STY},
	0x85: {name: "STA", mode: modeZpg, kind: kindWrite, write: STA},
	0x86: {name: "STX", mode: modeZpg, kind: kindWrite, write: STX},
	0x87: {name: "SAX", mode: modeZpg, kind: kindWrite, write: SAX},
	0x88: {name: "DEY", mode: modeImp, kind: kindImpl, impl: DEY},
	0x89: {name: "NOP", mode: modeImm, kind: kindRead, read: NOP},
	0x8A: {name: "TXA", mode: modeImp, kind: kindImpl, impl: TXA},
	0x8B: {name: "ANE", mode: modeImm, kind: kindRead, read: ANE},
	0x8C: {name: "STY", mode: modeAbs, kind: kindWrite, write: STY},
	0x8D: {name: "STA", mode: modeAbs, kind: kindWrite, write: STA},
	0x8E: {name: "STX", mode: modeAbs, kind: kindWrite, write: STX},
	0x8F: {name: "SAX", mode: modeAbs, kind: kindWrite, write: SAX},
	0x90: {name: "BCC", mode: modeRel, kind: kindCtl, ctl: BCC},
	0x91: {name: "STA", mode: modeIzy, kind: kindWrite, write: STA},
	0x92: {name: "JAM", mode: modeImp, kind: kindJam},
	0x93: {name: "SHA", mode: modeIzy, kind: kindWrite, write: SHA},
	0x94: {name: "STY", mode: modeZpx, kind: kindWrite, write: STY},
	0x95: {name: "STA", mode: modeZpx, kind: kindWrite, write: STA},
	0x96: {name: "STX", mode: modeZpy, kind: kindWrite, write: STX},
	0x97: {name: "SAX", mode: modeZpy, kind: kindWrite, write: SAX},
	0x98: {name: "TYA", mode: modeImp, kind: kindImpl, impl: TYA},
	0x99: {name: "STA", mode: modeAby, kind: kindWrite, write: STA},
	0x9A: {name: "TXS", mode: modeImp, kind: kindImpl, impl: TXS},
	0x9B: {name: "TAS", mode: modeAby, kind: kindWrite, write: TAS},
	0x9C: {name: "SHY", mode: modeAbx, kind: kindWrite, write: SHY},
	0x9D: {name: "STA", mode: modeAbx, kind: kindWrite, write: STA},
	0x9E: {name: "SHX", mode: modeAby, kind: kindWrite, write: SHX},
	0x9F: {name: "SHA", mode: modeAby, kind: kindWrite, write: SHA},
	0xA0: {name: "LDY", mode: modeImm, kind: kindRead, read: LDY},
	0xA1: {name: "LDA", mode: modeIzx, kind: kindRead, read: LDA},
	0xA2: {name: "LDX", mode: modeImm, kind: kindRead, read: LDX},
	0xA3: {name: "LAX", mode: modeIzx, kind: kindRead, read: LAX},
	0xA4: {name: "LDY", mode: modeZpg, kind: kindRead, read: LDY},
	0xA5: {name: "LDA", mode: modeZpg, kind: kindRead, read: LDA},
	0xA6: {name: "LDX", mode: modeZpg, kind: kindRead, read: LDX},
	0xA7: {name: "LAX", mode: modeZpg, kind: kindRead, read: LAX},
	0xA8: {name: "TAY", mode: modeImp, kind: kindImpl, impl: TAY},
	0xA9: {name: "LDA", mode: modeImm, kind: kindRead, read: LDA},
	0xAA: {name: "TAX", mode: modeImp, kind: kindImpl, impl: TAX},
	0xAB: {name: "LXA", mode: modeImm, kind: kindRead, read: LXA},
	0xAC: {name: "LDY", mode: modeAbs, kind: kindRead, read: LDY},
	0xAD: {name: "LDA", mode: modeAbs, kind: kindRead, read: LDA},
	0xAE: {name: "LDX", mode: modeAbs, kind: kindRead, read: LDX},
	0xAF: {name: "LAX", mode: modeAbs, kind: kindRead, read: LAX},
	0xB0: {name: "BCS", mode: modeRel, kind: kindCtl, ctl: BCS},
	0xB1: {name: "LDA", mode: modeIzy, kind: kindRead, read: LDA},
	0xB2: {name: "JAM", mode: modeImp, kind: kindJam},
	0xB3: {name: "LAX", mode: modeIzy, kind: kindRead, read: LAX},
	0xB4: {name: "LDY", mode: modeZpx, kind: kindRead, read: LDY},
	0xB5: {name: "LDA", mode: modeZpx, kind: kindRead, read: LDA},
	0xB6: {name: "LDX", mode: modeZpy, kind: kindRead, read: LDX},
	0xB7: {name: "LAX", mode: modeZpy, kind: kindRead, read: LAX},
	0xB8: {name: "CLV", mode: modeImp, kind: kindImpl, impl: CLV},
	0xB9: {name: "LDA", mode: modeAby, kind: kindRead, read: LDA},
	0xBA: {name: "TSX", mode: modeImp, kind: kindImpl, impl: TSX},
	0xBB: {name: "LAS", mode: modeAby, kind: kindRead, read: LAS},
	0xBC: {name: "LDY", mode: modeAbx, kind: kindRead, read: LDY},
	0xBD: {name: "LDA", mode: modeAbx, kind: kindRead, read: LDA},
	0xBE: {name: "LDX", mode: modeAby, kind: kindRead, read: LDX},
	0xBF: {name: "LAX", mode: modeAby, kind: kindRead, read: LAX},
	0xC0: {name: "CPY", mode: modeImm, kind: kindRead, read: CPY},
	0xC1: {name: "CMP", mode: modeIzx, kind: kindRead, read: CMP},
	0xC2: {name: "NOP", mode: modeImm, kind: kindRead, read: NOP},
	0xC3: {name: "DCP", mode: modeIzx, kind: kindRMW, rmw: DCP},
	0xC4: {name: "CPY", mode: modeZpg, kind: kindRead, read: CPY},
	0xC5: {name: "CMP", mode: modeZpg, kind: kindRead, read: CMP},
	0xC6: {name: "DEC", mode: modeZpg, kind: kindRMW, rmw: DEC},
	0xC7: {name: "DCP", mode: modeZpg, kind: kindRMW, rmw: DCP},
	0xC8: {name: "INY", mode: modeImp, kind: kindImpl, impl: INY},
	0xC9: {name: "CMP", mode: modeImm, kind: kindRead, read: CMP},
	0xCA: {name: "DEX", mode: modeImp, kind: kindImpl, impl: DEX},
	0xCB: {name: "SBX", mode: modeImm, kind: kindRead, read: SBX},
	0xCC: {name: "CPY", mode: modeAbs, kind: kindRead, read: CPY},
	0xCD: {name: "CMP", mode: modeAbs, kind: kindRead, read: CMP},
	0xCE: {name: "DEC", mode: modeAbs, kind: kindRMW, rmw: DEC},
	0xCF: {name: "DCP", mode: modeAbs, kind: kindRMW, rmw: DCP},
	0xD0: {name: "BNE", mode: modeRel, kind: kindCtl, ctl: BNE},
	0xD1: {name: "CMP", mode: modeIzy, kind: kindRead, read: CMP},
	0xD2: {name: "JAM", mode: modeImp, kind: kindJam},
	0xD3: {name: "DCP", mode: modeIzy, kind: kindRMW, rmw: DCP},
	0xD4: {name: "NOP", mode: modeZpx, kind: kindRead, read: NOP},
	0xD5: {name: "CMP", mode: modeZpx, kind: kindRead, read: CMP},
	0xD6: {name: "DEC", mode: modeZpx, kind: kindRMW, rmw: DEC},
	0xD7: {name: "DCP", mode: modeZpx, kind: kindRMW, rmw: DCP},
	0xD8: {name: "CLD", mode: modeImp, kind: kindImpl, impl: CLD},
	0xD9: {name: "CMP", mode: modeAby, kind: kindRead, read: CMP},
	0xDA: {name: "NOP", mode: modeImp, kind: kindImpl, impl: nopImplied},
	0xDB: {name: "DCP", mode: modeAby, kind: kindRMW, rmw: DCP},
	0xDC: {name: "NOP", mode: modeAbx, kind: kindRead, read: NOP},
	0xDD: {name: "CMP", mode: modeAbx, kind: kindRead, read: CMP},
	0xDE: {name: "DEC", mode: modeAbx, kind: kindRMW, rmw: DEC},
	0xDF: {name: "DCP", mode: modeAbx, kind: kindRMW, rmw: DCP},
	0xE0: {name: "CPX", mode: modeImm, kind: kindRead, read: CPX},
	0xE1: {name: "SBC", mode: modeIzx, kind: kindRead, read: SBC},
	0xE2: {name: "NOP", mode: modeImm, kind: kindRead, read: NOP},
	0xE3: {name: "ISC", mode: modeIzx, kind: kindRMW, rmw: ISC},
	0xE4: {name: "CPX", mode: modeZpg, kind: kindRead, read: CPX},
	0xE5: {name: "SBC", mode: modeZpg, kind: kindRead, read: SBC},
	0xE6: {name: "INC", mode: modeZpg, kind: kindRMW, rmw: INC},
	0xE7: {name: "ISC", mode: modeZpg, kind: kindRMW, rmw: ISC},
	0xE8: {name: "INX", mode: modeImp, kind: kindImpl, impl: INX},
	0xE9: {name: "SBC", mode: modeImm, kind: kindRead, read: SBC},
	0xEA: {name: "NOP", mode: modeImp, kind: kindImpl, impl: nopImplied},
	0xEB: {name: "SBC", mode: modeImm, kind: kindRead, read: SBC},
	0xEC: {name: "CPX", mode: modeAbs, kind: kindRead, read: CPX},
	0xED: {name: "SBC", mode: modeAbs, kind: kindRead, read: SBC},
	0xEE: {name: "INC", mode: modeAbs, kind: kindRMW, rmw: INC},
	0xEF: {name: "ISC", mode: modeAbs, kind: kindRMW, rmw: ISC},
	0xF0: {name: "BEQ", mode: modeRel, kind: kindCtl, ctl: BEQ},
	0xF1: {name: "SBC", mode: modeIzy, kind: kindRead, read: SBC},
	0xF2: {name: "JAM", mode: modeImp, kind: kindJam},
	0xF3: {name: "ISC", mode: modeIzy, kind: kindRMW, rmw: ISC},
	0xF4: {name: "NOP", mode: modeZpx, kind: kindRead, read: NOP},
	0xF5: {name: "SBC", mode: modeZpx, kind: kindRead, read: SBC},
	0xF6: {name: "INC", mode: modeZpx, kind: kindRMW, rmw: INC},
	0xF7: {name: "ISC", mode: modeZpx, kind: kindRMW, rmw: ISC},
	0xF8: {name: "SED", mode: modeImp, kind: kindImpl, impl: SED},
	0xF9: {name: "SBC", mode: modeAby, kind: kindRead, read: SBC},
	0xFA: {name: "NOP", mode: modeImp, kind: kindImpl, impl: nopImplied},
	0xFB: {name: "ISC", mode: modeAby, kind: kindRMW, rmw: ISC},
	0xFC: {name: "NOP", mode: modeAbx, kind: kindRead, read: NOP},
	0xFD: {name: "SBC", mode: modeAbx, kind: kindRead, read: SBC},
	0xFE: {name: "INC", mode: modeAbx, kind: kindRMW, rmw: INC},
	0xFF: {name: "ISC", mode: modeAbx, kind: kindRMW, rmw: ISC},
}
