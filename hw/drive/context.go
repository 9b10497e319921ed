package drive

import (
	"fmt"

	"cbmdrive/emu/log"
	"cbmdrive/hw/clock"
	"cbmdrive/hw/cpu"
	"cbmdrive/hw/hwio"
	"cbmdrive/hw/media"
)

//go:generate stringer -type=State

// State is the life cycle state of a drive unit.
type State int

const (
	// Disabled units have no CPU and are skipped by catch-up. The disk
	// stays inserted.
	Disabled State = iota
	Enabled
)

// IdleMethod selects how the DOS idle loop is emulated.
type IdleMethod int

const (
	IdleNone IdleMethod = iota
	// IdleTrap jumps over the idle loop entry.
	IdleTrap
	// IdleTrapIdle also fast-forwards the clock to the next timer event.
	IdleTrapIdle
)

var idleNames = []string{"none", "trap", "trap-idle"}

func (m IdleMethod) String() string {
	if int(m) < len(idleNames) {
		return idleNames[m]
	}
	return fmt.Sprintf("IdleMethod(%d)", int(m))
}

func ParseIdleMethod(s string) (IdleMethod, error) {
	for i, name := range idleNames {
		if name == s {
			return IdleMethod(i), nil
		}
	}
	return IdleNone, fmt.Errorf("drive: unknown idle method %q", s)
}

// Context is one drive unit.
type Context struct {
	Unit int // 0 for device 8, 1 for device 9
	Name string

	// CPU is nil while the unit is disabled.
	CPU  *cpu.CPU
	Head *media.Head

	state State
	model *Model
	rom   *ROM
	ram   []byte
	bus   *hwio.Table
	ctrl  Controller
	rot   rotation
	timer *clock.Alarm

	roms      *ROMSet
	mainHz    uint32
	idle      IdleMethod
	jamPolicy cpu.JamAction
}

// NewContext creates a disabled drive unit. mainHz is the master clock
// frequency.
func NewContext(unit int, roms *ROMSet, mainHz uint32) *Context {
	name := fmt.Sprintf("drive%d", unit+8)
	head := media.NewHead(name)
	head.Seed = uint32(unit + 1)
	return &Context{
		Unit:      unit,
		Name:      name,
		Head:      head,
		roms:      roms,
		mainHz:    mainHz,
		idle:      IdleTrap,
		jamPolicy: cpu.JamReset,
	}
}

func (d *Context) State() State { return d.state }

// Type returns the type of an enabled unit, TypeNone if disabled.
func (d *Context) Type() Type {
	if d.state != Enabled {
		return TypeNone
	}
	return d.model.Type
}

func (d *Context) Model() *Model    { return d.model }
func (d *Context) ROM() *ROM        { return d.rom }
func (d *Context) RAM() []byte      { return d.ram }
func (d *Context) Bus() *hwio.Table { return d.bus }

// Enable turns the unit into a drive of type t, synchronized to the master
// clock value now. The ROM for t must be available in the ROM set:
// otherwise the unit is left disabled and ErrROMUnavailable is returned.
// Enabling with TypeNone disables the unit.
func (d *Context) Enable(t Type, now clock.Clock) error {
	if t == TypeNone {
		d.Disable()
		return nil
	}
	m, err := ModelOf(t)
	if err != nil {
		return err
	}
	rom, err := d.roms.Get(t)
	if err != nil {
		logUnavailable(t, err)
		d.Disable()
		return err
	}
	d.enable(m, rom, now)
	return nil
}

func (d *Context) enable(m *Model, rom *ROM, now clock.Clock) {
	if d.state == Enabled {
		d.Disable()
	}

	d.model = m
	d.rom = rom
	d.ram = make([]byte, m.RAMSize)
	d.rot = rotation{hz: uint64(m.ClockHz)}

	d.bus = hwio.NewTable(d.Name)
	// RAM is mirrored over the first 4K (8K for the 2MHz drives), and ROM
	// over the upper 32K.
	ramEnd := uint16(0x0fff)
	if m.RAMSize > 0x1000 {
		ramEnd = uint16(m.RAMSize - 1)
	}
	d.bus.MapMemorySlice(0x0000, ramEnd, d.ram, false)
	d.bus.MapMemorySlice(0x8000, 0xffff, rom.Data, true)
	hwio.MustInitRegs(&d.ctrl)
	d.ctrl.d = d
	d.bus.MapBank(m.CtrlBase, &d.ctrl, 0)

	d.CPU = cpu.New(d.Name, d.bus, hooks{d}, cpu.SyncFactorFor(m.ClockHz, d.mainHz))
	d.CPU.Guard().Register(d.rebaseLocal)
	d.timer = d.CPU.Alarms.New("timer", d.timerExpired)
	d.applyIdleMethod()

	d.state = Enabled
	d.CPU.ResetClocks(now)
	d.CPU.Reset(cpu.ResetHard)

	log.ModDrive.InfoZ("Drive enabled").
		String("unit", d.Name).
		String("type", m.Name).
		Hex32("rom", d.rom.Sum).
		End()
}

// Disable flushes the disk and releases the drive hardware. The disk stays
// attached.
func (d *Context) Disable() {
	if d.state != Enabled {
		return
	}
	if err := d.Head.Flush(); err != nil {
		log.ModDrive.ErrorZ("Flush failed").
			String("unit", d.Name).
			Error("err", err).
			End()
	}
	d.Head.SetMotor(false)

	d.state = Disabled
	d.model = nil
	d.rom = nil
	d.ram = nil
	d.bus = nil
	d.CPU = nil
	d.timer = nil

	log.ModDrive.InfoZ("Drive disabled").
		String("unit", d.Name).
		End()
}

// SetIdleMethod selects the idle loop emulation. Drive types without a
// known idle loop ignore it.
func (d *Context) SetIdleMethod(m IdleMethod) {
	d.idle = m
	if d.state == Enabled {
		d.applyIdleMethod()
	}
}

func (d *Context) IdleMethod() IdleMethod { return d.idle }

func (d *Context) applyIdleMethod() {
	if d.idle == IdleNone || !d.model.HasTrap() {
		d.CPU.Trap = cpu.Trap{}
		return
	}
	d.CPU.Trap = cpu.Trap{
		Enabled: true,
		Addr:    d.model.TrapAddr,
		Cont:    d.model.TrapCont,
		Idle:    d.idle == IdleTrapIdle,
	}
}

// SetJamPolicy selects what happens when the drive CPU jams.
func (d *Context) SetJamPolicy(a cpu.JamAction) { d.jamPolicy = a }
func (d *Context) JamPolicy() cpu.JamAction     { return d.jamPolicy }

// SetMainClock updates the master clock frequency.
func (d *Context) SetMainClock(hz uint32) {
	d.mainHz = hz
	if d.state == Enabled {
		d.CPU.SyncFactor = cpu.SyncFactorFor(d.model.ClockHz, hz)
	}
}

// CatchUp runs an enabled drive up to the master clock value main.
func (d *Context) CatchUp(main clock.Clock) {
	if d.state != Enabled {
		return
	}
	d.CPU.CatchUp(main)
	d.rotate()
}

// Reset requests a reset of the drive CPU. The reset is processed at the
// next catch-up.
func (d *Context) Reset(mode cpu.ResetMode) {
	if d.state != Enabled {
		return
	}
	d.CPU.TriggerReset(mode)
}

// ResetPending reports whether a requested reset hasn't been processed yet.
func (d *Context) ResetPending() bool {
	return d.state == Enabled && d.CPU.ResetPending()
}

// RebaseMaster shifts the master clock references of the unit after the
// master clock, whose value was main, has been rebased by sub cycles.
func (d *Context) RebaseMaster(main, sub clock.Clock) {
	if d.state != Enabled {
		return
	}
	d.CPU.RebaseMaster(main, sub, !d.CPU.Paused())
}

func (d *Context) rebaseLocal(sub clock.Clock) {
	// The CPU clock has already been rebased.
	d.rotateTo(d.CPU.Clk + sub)
	d.rot.lastClk -= sub
}

// Attach inserts a disk.
func (d *Context) Attach(s media.Store) error {
	if d.state == Enabled {
		d.rotate()
	}
	return d.Head.Attach(s)
}

// Detach flushes and removes the disk.
func (d *Context) Detach() error {
	if d.state == Enabled {
		d.rotate()
	}
	return d.Head.Detach()
}

// hooks connects the drive CPU to the rest of the unit.
type hooks struct{ d *Context }

func (h hooks) Jam(pc uint16, opcode uint8) cpu.JamAction {
	return h.d.jamPolicy
}

func (h hooks) Reset(mode cpu.ResetMode) {
	d := h.d
	if mode == cpu.ResetHard {
		clear(d.ram)
	}
	d.ctrl.reset()
}

func (h hooks) ByteReady() bool {
	return h.d.byteReady()
}
