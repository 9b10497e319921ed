package drive

import (
	"cbmdrive/emu/log"
	"cbmdrive/hw/clock"
	"cbmdrive/hw/hwio"
)

// CONTROL bits
const (
	ctrlMotor     = 1 << 0
	ctrlSide      = 1 << 1
	ctrlWrite     = 1 << 2
	ctrlRateShift = 3
	ctrlRateMask  = 3 << ctrlRateShift
	ctrlSOEnable  = 1 << 5 // byte ready drives the CPU SO input
	ctrlTimerIRQ  = 1 << 6
	ctrlIndexIRQ  = 1 << 7
)

// STATUS bits
const (
	statByteReady  = 1 << 0
	statSync       = 1 << 1
	statIndex      = 1 << 2
	statTrack0     = 1 << 3
	statWP         = 1 << 4
	statDiskChange = 1 << 5
	statMotor      = 1 << 6
	statIRQ        = 1 << 7
)

// IRQ flags
const (
	irqTimer = 1 << 0
	irqIndex = 1 << 1
)

// Controller is the register bank of the disk controller, the interface
// between the drive CPU and the head electronics.
//
//	DATA     last byte read from disk. Writing latches the next byte to
//	         record in write mode.
//	MARK     same as writing DATA, the byte being recorded as a sync mark.
//	STATUS   byte ready, sync, index, track 0, write protect, disk change,
//	         motor and IRQ status.
//	CONTROL  motor, side, write mode, data rate, SO and IRQ enables.
//	STEP     bit 0 steps the head inwards, bit 1 outwards.
//	TRACK    half-track under the head.
//	TIMERLO  one-shot timer, started by writing TIMERHI. Reads return the
//	TIMERHI  remaining cycles.
//	IRQ      pending IRQ flags. Writing acknowledges the set bits.
type Controller struct {
	DATA    hwio.Reg8 `hwio:"offset=0x0,rcb,wcb,pcb"`
	MARK    hwio.Reg8 `hwio:"offset=0x1,writeonly,wcb"`
	STATUS  hwio.Reg8 `hwio:"offset=0x2,readonly,rcb,pcb"`
	CONTROL hwio.Reg8 `hwio:"offset=0x3,wcb"`
	STEP    hwio.Reg8 `hwio:"offset=0x4,writeonly,wcb"`
	TRACK   hwio.Reg8 `hwio:"offset=0x5,readonly,rcb"`
	TIMERLO hwio.Reg8 `hwio:"offset=0x6,rcb,pcb"`
	TIMERHI hwio.Reg8 `hwio:"offset=0x7,rcb,wcb,pcb"`
	IRQ     hwio.Reg8 `hwio:"offset=0x8,wcb"`

	d *Context
}

func (c *Controller) reset() {
	d := c.d
	d.rotate()

	c.CONTROL.Set(0)
	c.IRQ.Set(0)
	c.TIMERLO.Set(0)
	c.TIMERHI.Set(0)
	d.timer.Unset()
	d.rot.resetLatches()
	c.applyControl()
	c.updateIRQ()
}

// applyControl forwards the CONTROL register to the head.
func (c *Controller) applyControl() {
	h, ctrl := c.d.Head, c.CONTROL.Value
	h.SetMotor(ctrl&ctrlMotor != 0)
	h.SelectHead(int(ctrl&ctrlSide) >> 1)
	h.SetRate(int(ctrl&ctrlRateMask) >> ctrlRateShift)
}

func (c *Controller) writing() bool {
	return c.CONTROL.Bits(ctrlWrite) != 0
}

func (c *Controller) updateIRQ() {
	enabled := uint8(0)
	if c.CONTROL.Bits(ctrlTimerIRQ) != 0 {
		enabled |= irqTimer
	}
	if c.CONTROL.Bits(ctrlIndexIRQ) != 0 {
		enabled |= irqIndex
	}
	c.d.CPU.SetIRQ(0, c.IRQ.Bits(enabled) != 0)
}

func (c *Controller) raise(flag uint8) {
	c.IRQ.Value |= flag
	c.updateIRQ()
}

func (c *Controller) ReadDATA(_ uint8) uint8 {
	r := &c.d.rot
	c.d.rotate()
	r.byteReady = false
	return r.readLatch
}

func (c *Controller) PeekDATA(_ uint8) uint8 {
	return c.d.rot.readLatch
}

func (c *Controller) WriteDATA(_, val uint8) {
	c.d.rotate()
	c.d.rot.latch(val, false)
}

func (c *Controller) WriteMARK(_, val uint8) {
	c.d.rotate()
	c.d.rot.latch(val, true)
}

func (c *Controller) ReadSTATUS(_ uint8) uint8 {
	c.d.rotate()
	return c.PeekSTATUS(0)
}

func (c *Controller) PeekSTATUS(_ uint8) uint8 {
	d, h := c.d, c.d.Head
	var st uint8
	if d.rot.byteReady {
		st |= statByteReady
	}
	if d.rot.sync {
		st |= statSync
	}
	if h.Index() {
		st |= statIndex
	}
	if h.Track0() {
		st |= statTrack0
	}
	if h.WriteProtect() {
		st |= statWP
	}
	if h.DiskChange() {
		st |= statDiskChange
	}
	if h.Motor() {
		st |= statMotor
	}
	if d.CPU.IRQLines() != 0 {
		st |= statIRQ
	}
	return st
}

func (c *Controller) WriteCONTROL(old, val uint8) {
	// Cells up to now were read or written in the previous mode.
	c.CONTROL.Value = old
	c.d.rotate()
	c.CONTROL.Value = val

	if (old^val)&ctrlWrite != 0 {
		c.d.rot.resetLatches()
		log.ModFDD.DebugZ("Head mode").
			String("unit", c.d.Name).
			Bool("write", val&ctrlWrite != 0).
			Int("halftrack", c.d.Head.HalfTrack()).
			End()
	}
	c.applyControl()
	c.updateIRQ()
}

func (c *Controller) WriteSTEP(_, val uint8) {
	c.d.rotate()
	switch {
	case val&1 != 0:
		c.d.Head.Step(1)
	case val&2 != 0:
		c.d.Head.Step(-1)
	}
}

func (c *Controller) ReadTRACK(_ uint8) uint8 {
	return uint8(c.d.Head.HalfTrack())
}

// remaining returns the cycles left before the timer expires.
func (c *Controller) remaining() uint16 {
	t := c.d.timer
	if !t.Pending() || !clock.Before(c.d.CPU.Clk, t.Deadline()) {
		return 0
	}
	return uint16(t.Deadline() - c.d.CPU.Clk)
}

func (c *Controller) ReadTIMERLO(_ uint8) uint8 { return uint8(c.remaining()) }
func (c *Controller) PeekTIMERLO(_ uint8) uint8 { return uint8(c.remaining()) }
func (c *Controller) ReadTIMERHI(_ uint8) uint8 { return uint8(c.remaining() >> 8) }
func (c *Controller) PeekTIMERHI(_ uint8) uint8 { return uint8(c.remaining() >> 8) }

func (c *Controller) WriteTIMERHI(_, val uint8) {
	n := clock.Clock(val)<<8 | clock.Clock(c.TIMERLO.Value)
	if n == 0 {
		n = 0x10000
	}
	c.d.timer.Set(c.d.CPU.Clk + n)
}

func (c *Controller) WriteIRQ(old, val uint8) {
	c.IRQ.Value = old &^ val
	c.updateIRQ()
}

func (d *Context) timerExpired(clock.Clock) {
	d.ctrl.raise(irqTimer)
}
