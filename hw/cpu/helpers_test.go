package cpu

import (
	"testing"

	"cbmdrive/emu/log"
)

func init() {
	log.Disable()
}

type testBus [0x10000]uint8

func (b *testBus) Read8(addr uint16) uint8       { return b[addr] }
func (b *testBus) Peek8(addr uint16) uint8       { return b[addr] }
func (b *testBus) Write8(addr uint16, val uint8) { b[addr] = val }

func (b *testBus) load(addr uint16, prog ...uint8) {
	copy(b[addr:], prog)
}

func (b *testBus) setVector(vec, addr uint16) {
	b[vec] = uint8(addr)
	b[vec+1] = uint8(addr >> 8)
}

type testCallbacks struct {
	action JamAction
	jams   int
	resets []ResetMode
	so     bool
}

func (cb *testCallbacks) Jam(pc uint16, opcode uint8) JamAction {
	cb.jams++
	return cb.action
}

func (cb *testCallbacks) Reset(mode ResetMode) {
	cb.resets = append(cb.resets, mode)
}

func (cb *testCallbacks) ByteReady() bool {
	so := cb.so
	cb.so = false
	return so
}

// newTestCPU returns a reset CPU, running at the master clock frequency,
// with PC at $0200.
func newTestCPU(t *testing.T) (*CPU, *testBus, *testCallbacks) {
	t.Helper()

	bus := &testBus{}
	bus.setVector(ResetVector, 0x0200)
	cb := &testCallbacks{}
	c := New("drive8", bus, cb, 1<<16)
	c.Reset(ResetHard)
	return c, bus, cb
}
