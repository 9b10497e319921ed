package cpu

import (
	"math/bits"

	"cbmdrive/hw/clock"
)

// Number of cycles between an interrupt line assertion and the earliest
// instruction boundary at which it can be serviced.
const interruptDelay = 2

// Pending interrupt kinds.
const (
	ikNMI uint32 = 1 << iota
	ikIRQ
	ikReset
	ikTrap
	ikMonitor
	ikDMA
	ikIRQPend
)

// OpInfo tags the last executed opcode. The low byte is the opcode itself,
// higher bits describe its effect on interrupt timing.
type OpInfo uint32

const (
	opinfoDelaysInterrupt OpInfo = 1 << (8 + iota)
	opinfoDisablesIRQ
	opinfoEnablesIRQ
)

func (i OpInfo) Opcode() uint8         { return uint8(i) }
func (i OpInfo) delaysInterrupt() bool { return i&opinfoDelaysInterrupt != 0 }
func (i OpInfo) disablesIRQ() bool     { return i&opinfoDisablesIRQ != 0 }
func (i OpInfo) enablesIRQ() bool      { return i&opinfoEnablesIRQ != 0 }

type intStatus struct {
	irqLines uint32 // one bit per asserted IRQ source
	nmiLines uint32 // one bit per asserted NMI source
	irqClk   clock.Clock
	nmiClk   clock.Clock
	pending  uint32

	// Kept for the snapshot layout; drives never have cycles stolen.
	numLastStolenCycles uint32
	lastStolenCyclesClk clock.Clock

	resetMode ResetMode
}

func (s *intStatus) reset() {
	*s = intStatus{}
}

func (s *intStatus) rebase(sub clock.Clock) {
	sat := func(c *clock.Clock) {
		if *c < sub {
			*c = 0
		} else {
			*c -= sub
		}
	}
	sat(&s.irqClk)
	sat(&s.nmiClk)
	sat(&s.lastStolenCyclesClk)
}

// SetIRQ changes the state of the IRQ line driven by source src (0-31).
func (c *CPU) SetIRQ(src uint, asserted bool) {
	mask := uint32(1) << src
	if asserted {
		if c.ints.irqLines == 0 {
			c.ints.irqClk = c.Clk
			c.ints.pending |= ikIRQ
		}
		c.ints.irqLines |= mask
		return
	}
	c.ints.irqLines &^= mask
	if c.ints.irqLines == 0 {
		c.ints.pending &^= ikIRQ
	}
}

// SetNMI changes the state of the NMI line driven by source src (0-31). The
// NMI is edge triggered: only the first assertion is latched.
func (c *CPU) SetNMI(src uint, asserted bool) {
	mask := uint32(1) << src
	if asserted {
		if c.ints.nmiLines == 0 {
			c.ints.nmiClk = c.Clk
			c.ints.pending |= ikNMI
		}
		c.ints.nmiLines |= mask
		return
	}
	c.ints.nmiLines &^= mask
}

// IRQLines returns the number of asserted IRQ sources.
func (c *CPU) IRQLines() int {
	return bits.OnesCount32(c.ints.irqLines)
}

// TriggerReset requests a reset, processed at the next instruction boundary.
func (c *CPU) TriggerReset(mode ResetMode) {
	c.ints.pending |= ikReset
	c.ints.resetMode = mode
}

// ResetPending reports whether a triggered reset hasn't been processed yet.
func (c *CPU) ResetPending() bool {
	return c.ints.pending&ikReset != 0
}

// TriggerMonitor requests entering the monitor. Catch-up is suspended until
// Resume is called.
func (c *CPU) TriggerMonitor() {
	c.ints.pending |= ikMonitor
}

// Resume clears a pending monitor request.
func (c *CPU) Resume() {
	c.ints.pending &^= ikMonitor
}

// Paused reports whether execution is suspended by a monitor request.
func (c *CPU) Paused() bool {
	return c.ints.pending&ikMonitor != 0
}

func (s *intStatus) nmiDue(clk clock.Clock, info OpInfo) bool {
	due := s.nmiClk + interruptDelay
	// Taken branches without page crossing delay interrupts by one cycle.
	if info.delaysInterrupt() {
		due++
	}
	return !clock.Before(clk, due)
}

func (s *intStatus) irqDue(clk clock.Clock, info OpInfo) bool {
	due := s.irqClk + interruptDelay
	if info.delaysInterrupt() {
		due++
	}
	if clock.Before(clk, due) {
		return false
	}
	// An opcode clearing I needs one more opcode before the IRQ is taken.
	if info.enablesIRQ() {
		s.pending |= ikIRQPend
		return false
	}
	return true
}

// processInterrupts services pending events at an instruction boundary.
func (c *CPU) processInterrupts() {
	ik := c.ints.pending

	if ik&ikReset != 0 {
		c.ints.pending &^= ikReset
		c.Reset(c.ints.resetMode)
		return
	}

	switch {
	case ik&ikNMI != 0 && c.ints.nmiDue(c.Clk, c.LastOpcodeInfo):
		c.ints.pending &^= ikNMI
		c.interrupt(NMIVector, true)

	case ik&(ikIRQ|ikIRQPend) != 0 &&
		(!c.P.intDisable() || c.LastOpcodeInfo.disablesIRQ()) &&
		(ik&ikIRQPend != 0 || c.ints.irqDue(c.Clk, c.LastOpcodeInfo)):
		c.ints.pending &^= ikIRQPend
		c.interrupt(IRQVector, false)
	}
}

func (c *CPU) interrupt(vector uint16, isNMI bool) {
	c.Read8(c.PC) // dummy reads
	c.Read8(c.PC)

	prevpc := c.PC
	c.push16(c.PC)

	p := c.P
	p.clearFlags(Break)
	p.setFlags(Reserved)
	c.push8(uint8(p))

	c.P.setFlags(Interrupt)
	lo := c.Read8(vector)
	hi := c.Read8(vector + 1)
	c.PC = uint16(hi)<<8 | uint16(lo)
	c.LastOpcodeInfo = 0

	c.dbg.Interrupt(prevpc, c.PC, isNMI)
}
