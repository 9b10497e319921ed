package cpu

import (
	"cbmdrive/emu/log"
	"cbmdrive/hw/clock"
)

const (
	// Maximum amount of master cycles converted at once, keeping the
	// fixed-point product within 32 bits.
	maxTickChunk = 10000

	// A CPU that hasn't been caught up for that long is considered asleep:
	// the elapsed time is skipped instead of being emulated.
	wakeUpThreshold = 0xffffff
	wakeUpMinClk    = 934639
)

// CatchUp runs the CPU until its local clock matches the master clock
// timestamp target. A target at or behind the last one executes nothing.
func (c *CPU) CatchUp(target clock.Clock) {
	if c.Paused() {
		return
	}

	// Both clocks are kept far from wrapping by the overflow guards, so a
	// plain comparison is enough.
	if target > c.LastClk {
		c.wakeUp(target)
		if target != c.LastClk {
			c.addTicks(target - c.LastClk)
			c.run()
		}
	}
	c.LastClk = target
}

func (c *CPU) wakeUp(target clock.Clock) {
	if target-c.LastClk > wakeUpThreshold && c.Clk > wakeUpMinClk {
		log.ModCPU.InfoZ("Skipping cycles").
			String("cpu", c.Name).
			Hex32("last", uint32(c.LastClk)).
			Hex32("target", uint32(target)).
			End()
		c.LastClk = target
	}
}

// addTicks converts master cycles into local ones, advancing StopClk.
func (c *CPU) addTicks(ticks clock.Clock) {
	for ticks > 0 {
		t := min(ticks, maxTickChunk)
		ticks -= t
		c.CycleAccum += c.SyncFactor * uint32(t)
		c.StopClk += clock.Clock(c.CycleAccum >> 16)
		c.CycleAccum &= 0xffff
	}
}

func (c *CPU) run() {
	for clock.Before(c.Clk, c.StopClk) {
		c.Alarms.Dispatch(c.Clk)

		if c.ints.pending != 0 {
			c.processInterrupts()
			if c.Paused() {
				return
			}
		}

		c.step()
		c.guard.PreventOverflow()
	}
}

// step executes a single instruction, or the trap at PC.
func (c *CPU) step() {
	if c.Trap.Enabled && c.PC == c.Trap.Addr {
		c.trap()
		return
	}

	c.traceOp()
	pc, start := c.PC, c.Clk
	opcode := c.fetch8()
	op := &opcodes[opcode]

	if op.kind == kindJam {
		c.PC = pc
		c.jam(pc, opcode)
		return
	}

	c.opFlags = 0
	op.exec(c)
	c.LastOpcodeInfo = OpInfo(opcode) | c.opFlags
	c.LastExcCycles = uint32(c.Clk - start)
}

// trap replaces the instruction at the trap address. With Idle set, the
// local clock jumps straight to the next event that could break the idle
// loop.
func (c *CPU) trap() {
	c.PC = c.Trap.Cont
	c.Clk++
	if !c.Trap.Idle {
		return
	}

	next := min(c.Alarms.NextPending(), c.StopClk)
	if clock.Before(c.Clk, next) {
		c.Clk = next
	}
}

// RebaseMaster is called when the master clock is rebased by sub cycles,
// with main the master clock value before the rebase. An enabled CPU is
// first caught up if it lags behind the rebase window.
func (c *CPU) RebaseMaster(main, sub clock.Clock, enabled bool) {
	if !enabled {
		c.LastClk = main - sub
		return
	}
	if c.LastClk < sub {
		c.CatchUp(main)
	}
	c.LastClk -= sub
}

// PreventOverflow rebases the local clock domain if needed.
func (c *CPU) PreventOverflow() clock.Clock {
	return c.guard.PreventOverflow()
}

func (c *CPU) rebaseLocal(sub clock.Clock) {
	if c.StopClk < sub {
		c.StopClk = 0
	} else {
		c.StopClk -= sub
	}
	c.ints.rebase(sub)
	c.Alarms.Rebase(sub)
}
