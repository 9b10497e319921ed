// Package cpu implements the 6502 interpreter running drive firmware. A CPU
// owns no memory: every access goes through a Bus, and the owner of the CPU
// is notified of resets, jams and SO-line polls through Callbacks.
package cpu

import (
	"io"

	"cbmdrive/emu/log"
	"cbmdrive/hw/clock"
	"cbmdrive/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// Bus is the memory map a CPU executes from.
type Bus interface {
	Read8(addr uint16) uint8
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// Callbacks connect a CPU to the chips of the machine it runs in.
type Callbacks interface {
	// Jam is called when the CPU fetches an opcode it cannot execute, and
	// returns the action to take.
	Jam(pc uint16, opcode uint8) JamAction

	// Reset is called when the CPU resets, so that the owner can reset the
	// chips attached to the same reset line.
	Reset(mode ResetMode)

	// ByteReady reports (and acknowledges) an edge on the SO input, which
	// sets the overflow flag.
	ByteReady() bool
}

type ResetMode int

const (
	// ResetSoft keeps RAM contents and media position.
	ResetSoft ResetMode = iota
	// ResetHard also reinitializes RAM.
	ResetHard
)

func (m ResetMode) String() string {
	if m == ResetHard {
		return "hard"
	}
	return "soft"
}

// Trap redirects execution from Addr to Cont. With Idle set, the clock is also
// fast-forwarded to the next pending alarm (or the end of the current
// catch-up slice), skipping the idle loop found at Addr.
type Trap struct {
	Enabled bool
	Addr    uint16
	Cont    uint16
	Idle    bool
}

type CPU struct {
	Name string
	Bus  Bus

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// Clk is the local cycle counter.
	Clk clock.Clock

	// Catch-up bookkeeping. LastClk is the master clock timestamp the CPU is
	// synchronized to; master cycles are converted to local ones through the
	// 16.16 fixed-point SyncFactor, CycleAccum holding the fractional part.
	LastClk       clock.Clock
	CycleAccum    uint32
	StopClk       clock.Clock
	LastExcCycles uint32
	SyncFactor    uint32

	LastOpcodeInfo OpInfo
	opFlags        OpInfo // set by the executing instruction

	Trap   Trap
	Alarms *clock.AlarmContext

	ints  intStatus
	guard *clock.Guard
	cb    Callbacks

	// effective address of the current instruction
	ea      uint16
	crossed bool // indexing crossed a page

	jammed bool
	jamPC  uint16

	// Non-nil when execution tracing is enabled.
	tracer *tracer
	dbg    Debugger
	labels Labels
}

// New creates a CPU at power-up state. syncFactor is the local to master
// clock frequency ratio, as a 16.16 fixed-point number.
func New(name string, bus Bus, cb Callbacks, syncFactor uint32) *CPU {
	c := &CPU{
		Name:       name,
		Bus:        bus,
		SyncFactor: syncFactor,
		SP:         0xFD,
		P:          Interrupt | Reserved,
		Alarms:     clock.NewAlarmContext(name),
		cb:         cb,
		dbg:        nopDebugger{},
	}
	c.guard = clock.NewGuard(&c.Clk, clock.GuardLimit)
	c.guard.Register(c.rebaseLocal)
	return c
}

// SyncFactorFor computes the 16.16 fixed-point ratio between the local and
// master clock frequencies.
func SyncFactorFor(localHz, masterHz uint32) uint32 {
	return uint32((uint64(localHz) << 16) / uint64(masterHz))
}

// Guard returns the guard of the local clock, so that owners of alarms in
// this clock domain can subscribe to rebases.
func (c *CPU) Guard() *clock.Guard {
	return c.guard
}

// Reset reinitializes registers and interrupt status, then loads PC from the
// reset vector. A pending monitor request survives the reset.
func (c *CPU) Reset(mode ResetMode) {
	log.ModCPU.InfoZ("RESET").
		String("cpu", c.Name).
		Stringer("mode", mode).
		End()

	monitor := c.ints.pending & ikMonitor
	c.ints.reset()
	c.ints.pending |= monitor

	c.A = 0x00
	c.X = 0x00
	c.Y = 0x00
	c.SP = 0xFD
	c.P = Interrupt | Reserved
	c.LastOpcodeInfo = 0
	c.jammed = false

	if c.cb != nil {
		c.cb.Reset(mode)
	}

	// Directly peek the bus to avoid side effects.
	c.PC = hwio.Peek16(c.Bus, ResetVector)
	c.dbg.Reset()
}

// ResetClocks puts the CPU clocks in their power-on state, synchronized to
// the master clock value main.
func (c *CPU) ResetClocks(main clock.Clock) {
	c.Clk = 0
	c.LastClk = main
	c.LastExcCycles = 0
	c.StopClk = 0
	c.CycleAccum = 0
}

func (c *CPU) Read8(addr uint16) uint8 {
	c.dbg.WatchRead(addr)
	val := c.Bus.Read8(addr)
	c.Clk++
	return val
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.dbg.WatchWrite(addr, val)
	c.Bus.Write8(addr, val)
	c.Clk++
}

func (c *CPU) fetch8() uint8 {
	val := c.Read8(c.PC)
	c.PC++
	return val
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

// dummyRead performs the bus cycle of implied instructions.
func (c *CPU) dummyRead() {
	c.Read8(c.PC)
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	c.Write8(0x0100|uint16(c.SP), val)
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.Read8(0x0100 | uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

// syncSO samples the SO input before an instruction observes the V flag.
func (c *CPU) syncSO() {
	if c.cb != nil && c.cb.ByteReady() {
		c.P.setFlags(Overflow)
	}
}

/* tracing / debugging */

func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, d: c}
}

func (c *CPU) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = nopDebugger{}
	}
	c.dbg = dbg
}

func (c *CPU) traceOp() {
	if c.tracer != nil {
		c.tracer.write(cpuState{
			A:     c.A,
			X:     c.X,
			Y:     c.Y,
			P:     c.P,
			SP:    c.SP,
			PC:    c.PC,
			Clock: c.Clk,
		})
	}
	c.dbg.Trace(c.PC)
}
