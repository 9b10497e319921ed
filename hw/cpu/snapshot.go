package cpu

import (
	"fmt"

	"cbmdrive/hw/clock"
	"cbmdrive/hw/snapshot"
)

const (
	snapMajor = 1
	snapMinor = 1
)

// WriteModule appends the CPU state, followed by the contents of ram, to s
// as module name.
func (c *CPU) WriteModule(s *snapshot.Snapshot, name string, ram []byte) {
	m := s.Create(name, snapMajor, snapMinor)

	m.DW(uint32(c.Clk))
	m.B(c.A)
	m.B(c.X)
	m.B(c.Y)
	m.B(c.SP)
	m.W(c.PC)
	m.B(uint8(c.P))
	m.DW(uint32(c.LastOpcodeInfo))
	m.DW(uint32(c.LastClk))
	m.DW(c.CycleAccum)
	m.DW(c.LastExcCycles)
	m.DW(uint32(c.StopClk))

	m.DW(uint32(c.ints.irqClk))
	m.DW(uint32(c.ints.nmiClk))
	m.DW(c.ints.numLastStolenCycles)
	m.DW(uint32(c.ints.lastStolenCyclesClk))

	m.BA(ram)

	m.DW(c.ints.irqLines)
	m.DW(c.ints.nmiLines)
	m.DW(c.ints.pending)
}

// ReadModule restores the CPU state and ram from module name. ram must have
// the size it had when the module was written. On error the CPU state is
// left untouched.
func (c *CPU) ReadModule(s *snapshot.Snapshot, name string, ram []byte) error {
	cur, major, minor, err := s.Open(name)
	if err != nil {
		return err
	}
	if err := snapshot.CheckVersion(name, major, minor, snapMajor, snapMinor); err != nil {
		return err
	}

	var (
		regs CPU
		ints intStatus
		mem  = make([]byte, len(ram))
	)

	regs.Clk = clock.Clock(cur.DW())
	regs.A = cur.B()
	regs.X = cur.B()
	regs.Y = cur.B()
	regs.SP = cur.B()
	regs.PC = cur.W()
	regs.P = P(cur.B())
	regs.LastOpcodeInfo = OpInfo(cur.DW())
	regs.LastClk = clock.Clock(cur.DW())
	regs.CycleAccum = cur.DW()
	regs.LastExcCycles = cur.DW()
	regs.StopClk = clock.Clock(cur.DW())

	ints.irqClk = clock.Clock(cur.DW())
	ints.nmiClk = clock.Clock(cur.DW())
	ints.numLastStolenCycles = cur.DW()
	ints.lastStolenCyclesClk = clock.Clock(cur.DW())

	cur.BA(mem)

	// Interrupt lines are only present from version 1.1.
	if minor >= 1 {
		ints.irqLines = cur.DW()
		ints.nmiLines = cur.DW()
		ints.pending = cur.DW()
	}

	if err := cur.Err(); err != nil {
		return fmt.Errorf("cpu %s: %w", c.Name, err)
	}

	c.Clk = regs.Clk
	c.A, c.X, c.Y, c.SP = regs.A, regs.X, regs.Y, regs.SP
	c.PC = regs.PC
	c.P = regs.P
	c.LastOpcodeInfo = regs.LastOpcodeInfo
	c.LastClk = regs.LastClk
	c.CycleAccum = regs.CycleAccum
	c.LastExcCycles = regs.LastExcCycles
	c.StopClk = regs.StopClk
	c.ints = ints
	c.jammed = false
	copy(ram, mem)
	return nil
}
