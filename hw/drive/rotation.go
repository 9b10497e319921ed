package drive

import (
	"cbmdrive/emu/log"
	"cbmdrive/hw/clock"
)

// rotation converts elapsed drive cycles into cells moving under the head,
// and latches the bytes flowing between the head and the controller.
type rotation struct {
	hz      uint64 // drive clock frequency
	lastClk clock.Clock
	// Fraction of a cell, in 1/hz units.
	accum uint64

	readLatch  uint8
	writeLatch uint8
	writeSync  bool
	sync       bool // last cell read was a sync mark
	byteReady  bool
	edge       bool // byte ready edge, not yet seen on SO
}

func (r *rotation) resetLatches() {
	r.readLatch = 0
	r.writeLatch = 0
	r.writeSync = false
	r.sync = false
	r.byteReady = false
	r.edge = false
}

func (r *rotation) latch(val uint8, sync bool) {
	r.writeLatch = val
	r.writeSync = sync
	r.byteReady = false
}

// rotate moves the disk up to the current drive clock.
func (d *Context) rotate() {
	d.rotateTo(d.CPU.Clk)
}

func (d *Context) rotateTo(now clock.Clock) {
	r, h := &d.rot, d.Head
	elapsed := now - r.lastClk
	r.lastClk = now
	if !h.Motor() || h.Store() == nil {
		r.accum = 0
		return
	}

	r.accum += uint64(elapsed) * uint64(h.CellsPerSecond())
	n := r.accum / r.hz
	r.accum %= r.hz
	if n == 0 {
		return
	}

	// Whole revolutions only matter for the index count.
	size := uint64(h.Codec().TrackSize(h.Position()))
	if n > size {
		h.Rotate(int(n - size))
		n = size
	}

	writing := d.ctrl.writing()
	if writing && h.WriteProtect() {
		log.ModRotation.DebugZ("Write on protected disk").
			String("unit", d.Name).
			End()
		writing = false
	}

	for range n {
		if writing {
			h.WriteCell(r.writeLatch, r.writeSync)
			r.byteReady, r.edge = true, true
			continue
		}
		v := h.ReadCell()
		r.readLatch = uint8(v)
		r.sync = v&0x100 != 0
		// Sync cells don't clock the byte ready line.
		if !r.sync {
			r.byteReady, r.edge = true, true
		}
	}

	if h.IndexCount() != 0 {
		h.ResetIndexCount()
		d.ctrl.raise(irqIndex)
	}
}

// byteReady reports a byte ready edge to the SO input of the CPU, if the
// controller routes it there.
func (d *Context) byteReady() bool {
	d.rotate()
	r := &d.rot
	if !r.edge {
		return false
	}
	r.edge = false
	return d.ctrl.CONTROL.Bits(ctrlSOEnable) != 0
}
