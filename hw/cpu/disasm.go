package cpu

import "fmt"

type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint16
}

func (d DisasmOp) String() string {
	return string(d.Bytes())
}

// Bytes returns the string representation of a DisasmOp, this is optimized
// version, suitable for the execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	for ; off < 16; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) > totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}

	return buf
}

// Labels names addresses in disassembled operands, typically the I/O
// registers of the machine the CPU runs in.
type Labels map[uint16]string

func (l Labels) format(addr uint16) string {
	if label, ok := l[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%04X", addr)
}

// SetLabels sets the address labels used by Disasm.
func (c *CPU) SetLabels(l Labels) {
	c.labels = l
}

// Disasm disassembles the instruction at pc, without side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	opcode := c.Bus.Peek8(pc)
	op := &opcodes[opcode]

	d := DisasmOp{
		Opcode: op.name,
		PC:     pc,
		Buf:    []byte{opcode},
	}

	n := modeSize[op.mode]
	var oper uint16
	for i := uint16(1); i <= uint16(n); i++ {
		b := c.Bus.Peek8(pc + i)
		d.Buf = append(d.Buf, b)
		oper |= uint16(b) << (8 * (i - 1))
	}

	l := c.labels
	switch op.mode {
	case modeAcc:
		d.Oper = "A"
	case modeImm:
		d.Oper = fmt.Sprintf("#$%02X", oper)
	case modeZpg:
		d.Oper = fmt.Sprintf("$%02X", oper)
	case modeZpx:
		d.Oper = fmt.Sprintf("$%02X,X", oper)
	case modeZpy:
		d.Oper = fmt.Sprintf("$%02X,Y", oper)
	case modeAbs:
		d.Oper = l.format(oper)
	case modeAbx:
		d.Oper = l.format(oper) + ",X"
	case modeAby:
		d.Oper = l.format(oper) + ",Y"
	case modeInd:
		d.Oper = "(" + l.format(oper) + ")"
	case modeIzx:
		d.Oper = fmt.Sprintf("($%02X,X)", oper)
	case modeIzy:
		d.Oper = fmt.Sprintf("($%02X),Y", oper)
	case modeRel:
		d.Oper = fmt.Sprintf("$%04X", pc+2+uint16(int8(oper)))
	}
	return d
}
