package drive

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cbmdrive/hw/clock"
	"cbmdrive/hw/cpu"
	"cbmdrive/hw/diskimage"
	"cbmdrive/tests"
)

// JMP *
var idleLoop = []byte{0x4c, 0x00, 0xc0}

func TestEnable(t *testing.T) {
	d := NewContext(1, NewROMSet(), testMainHz)
	if d.Name != "drive9" {
		t.Errorf("name = %q", d.Name)
	}

	err := d.Enable(Type1541, 0)
	if !errors.Is(err, ErrROMUnavailable) {
		t.Fatalf("Enable without ROM: %v", err)
	}
	if d.State() != Disabled || d.CPU != nil || d.Type() != TypeNone {
		t.Errorf("unit left in state %v", d.State())
	}
	if err := d.Enable(Type(1234), 0); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Enable(1234) = %v", err)
	}

	// Disabled units ignore the clock.
	d.CatchUp(1000)
	d.RebaseMaster(1000, 500)
	d.Reset(cpu.ResetSoft)
	if d.ResetPending() {
		t.Error("reset pending on a disabled unit")
	}

	m := mustModel(t, Type1581)
	if err := d.roms.Set(Type1581, firmware(m, idleLoop...).Bytes(), "test"); err != nil {
		t.Fatal(err)
	}
	if err := d.Enable(Type1581, 1234); err != nil {
		t.Fatal(err)
	}
	if d.State() != Enabled || d.Type() != Type1581 {
		t.Fatalf("state %v, type %v", d.State(), d.Type())
	}
	if d.CPU.PC != 0xc000 || d.CPU.LastClk != 1234 || d.CPU.Clk != 0 {
		t.Errorf("PC = $%04x, LastClk = %d, Clk = %d", d.CPU.PC, d.CPU.LastClk, d.CPU.Clk)
	}
	if len(d.RAM()) != m.RAMSize {
		t.Errorf("RAM is %d bytes", len(d.RAM()))
	}

	if err := d.Enable(TypeNone, 0); err != nil {
		t.Fatal(err)
	}
	if d.State() != Disabled || d.RAM() != nil {
		t.Error("unit still enabled")
	}
}

func TestDisableKeepsDisk(t *testing.T) {
	m := mustModel(t, Type1541)
	img := tests.NewImage(t, diskimage.FormatD64, 35)
	d := newDrive(t, Type1541, firmware(m, idleLoop...).Bytes(), img)

	d.Disable()
	if d.Head.Store() == nil {
		t.Error("disk removed on disable")
	}
	if d.Head.Motor() {
		t.Error("motor still on")
	}
}

func TestMemoryMap(t *testing.T) {
	cases := []struct {
		typ    Type
		mirror uint16 // RAM mirror offset, 0 if none
		track  uint8  // half-track after one step
	}{
		{Type1541, 0x800, 3},
		{Type1571, 0x800, 3},
		{Type1581, 0, 4},
		{Type4000, 0, 4},
	}
	for _, tt := range cases {
		t.Run(tt.typ.String(), func(t *testing.T) {
			m := mustModel(t, tt.typ)
			img := tests.NewImage(t, m.Format, 35)
			d := newDrive(t, tt.typ, firmware(m, idleLoop...).Bytes(), img)
			bus, base := d.Bus(), m.CtrlBase

			bus.Write8(0x0010, 0x5a)
			if got := d.RAM()[0x10]; got != 0x5a {
				t.Errorf("RAM[$10] = $%02x", got)
			}
			if tt.mirror != 0 {
				if got := bus.Read8(0x0010 + tt.mirror); got != 0x5a {
					t.Errorf("RAM mirror = $%02x", got)
				}
			}

			// ROM is mirrored from $8000, and read-only.
			bus.Write8(0xc000, 0)
			if got := bus.Read8(0xc000); got != 0x4c {
				t.Errorf("ROM[$c000] = $%02x", got)
			}
			if got := bus.Read8(0x8000); got != d.ROM().Data[0] {
				t.Errorf("ROM[$8000] = $%02x", got)
			}

			st := bus.Read8(base + 2)
			if want := uint8(statTrack0 | statIndex | statDiskChange); st != want {
				t.Errorf("STATUS = %08b, want %08b", st, want)
			}
			if got := bus.Read8(base + 5); got != 2 {
				t.Errorf("TRACK = %d", got)
			}

			// The head only steps with the motor on.
			bus.Write8(base+4, 1)
			bus.Write8(base+3, ctrlMotor)
			bus.Write8(base+4, 1)
			if got := bus.Read8(base + 5); got != tt.track {
				t.Errorf("TRACK after step = %d, want %d", got, tt.track)
			}
			if st := bus.Read8(base + 2); st&(statMotor|statTrack0|statDiskChange) != statMotor {
				t.Errorf("STATUS after step = %08b", st)
			}
		})
	}
}

func TestReadDisk(t *testing.T) {
	cases := []struct {
		typ    Type
		format diskimage.Format
	}{
		{Type1541, diskimage.FormatD64},
		{Type1571, diskimage.FormatD71},
		{Type1581, diskimage.FormatD81},
		{Type2000, diskimage.FormatD2M},
	}
	for _, tt := range cases {
		t.Run(tt.typ.String(), func(t *testing.T) {
			m := mustModel(t, tt.typ)
			img := tests.NewImage(t, tt.format, 35)
			rom := firmware(m, readerCode(m.CtrlBase, rateOf(t, img))...)
			d := newDrive(t, tt.typ, rom.Bytes(), img)

			d.CatchUp(50000)

			if d.CPU.PC != 0xc013 {
				t.Fatalf("PC = $%04x, reader didn't complete", d.CPU.PC)
			}
			want := dataCells(d.Head.RawTrack(), 256)
			if diff := cmp.Diff(want, d.RAM()[0x300:0x400]); diff != "" {
				t.Errorf("bytes read (-track +ram):\n%s", diff)
			}
			if d.Head.RawTrack().Dirty {
				t.Error("reading dirtied the track")
			}
		})
	}
}

func TestRateMismatchReadsZeros(t *testing.T) {
	m := mustModel(t, Type1581)
	img := tests.NewImage(t, diskimage.FormatD81, 0)
	rom := firmware(m, readerCode(m.CtrlBase, 1)...)
	d := newDrive(t, Type1581, rom.Bytes(), img)

	d.CatchUp(50000)

	if d.CPU.PC != 0xc013 {
		t.Fatalf("PC = $%04x", d.CPU.PC)
	}
	if diff := cmp.Diff(make([]byte, 256), d.RAM()[0x300:0x400]); diff != "" {
		t.Errorf("bytes read (-want +got):\n%s", diff)
	}
}

// writerCode records 32 sync marks then $55 bytes.
func writerCode(base uint16, rate int) []byte {
	ctrl := byte(ctrlMotor | ctrlWrite | ctrlSOEnable | rate<<ctrlRateShift)
	return []byte{
		0xa9, ctrl, // LDA #ctrl
		0x8d, tests.Lo(base + 3), tests.Hi(base + 3), // STA CONTROL
		0xa9, 0xff, // LDA #$ff
		0x8d, tests.Lo(base + 1), tests.Hi(base + 1), // STA MARK
		0xa2, 0x00, // LDX #0
		0x50, 0xfe, // BVC *
		0xb8,       // CLV
		0xe8,       // INX
		0xe0, 0x20, // CPX #$20
		0xd0, 0xf8, // BNE $C00C
		0xa9, 0x55, // LDA #$55
		0x8d, tests.Lo(base), tests.Hi(base), // STA DATA
		0x4c, 0x19, 0xc0, // JMP *
	}
}

func TestWriteDisk(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
	}{
		{"writable", false},
		{"protected", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustModel(t, Type1541)
			img, err := diskimage.FromBytes(newD64(t).Bytes(), tt.readOnly)
			if err != nil {
				t.Fatal(err)
			}
			rom := firmware(m, writerCode(m.CtrlBase, rateOf(t, img))...)
			d := newDrive(t, Type1541, rom.Bytes(), img)

			d.CatchUp(20000)
			if d.CPU.PC != 0xc019 {
				t.Fatalf("PC = $%04x", d.CPU.PC)
			}
			d.Head.Materialize()
			tr := d.Head.RawTrack()

			if tr.Dirty == tt.readOnly {
				t.Errorf("dirty = %v", tr.Dirty)
			}
			if tt.readOnly {
				return
			}

			syncs := 0
			for i := range d.Head.Cell() {
				if tr.Cell(i) == 0x1ff {
					syncs++
				}
			}
			if syncs < 30 || syncs > 34 {
				t.Errorf("%d sync marks written", syncs)
			}
			if got := tr.Cell(d.Head.Cell() - 1); got != 0x55 {
				t.Errorf("last cell written = $%03x", got)
			}
		})
	}
}

func newD64(t *testing.T) *diskimage.Image {
	return tests.NewImage(t, diskimage.FormatD64, 35)
}

// timerCode runs the controller timer every 256 cycles, counting the
// interrupts at $0400.
func timerCode(base uint16, ctrl uint8) *tests.Firmware {
	m, _ := ModelOf(Type1541)
	return firmware(m,
		0xa9, 0x00, // LDA #0
		0x8d, tests.Lo(base + 6), tests.Hi(base + 6), // STA TIMERLO
		0xa9, 0x01, // LDA #1
		0x8d, tests.Lo(base + 7), tests.Hi(base + 7), // STA TIMERHI
		0xa9, ctrl, // LDA #ctrl
		0x8d, tests.Lo(base + 3), tests.Hi(base + 3), // STA CONTROL
		0x58,             // CLI
		0x4c, 0x10, 0xc0, // JMP *
	).At(0xc100,
		0xee, 0x00, 0x04, // INC $0400
		0xa9, 0x01, // LDA #1
		0x8d, tests.Lo(base + 8), tests.Hi(base + 8), // STA IRQ
		0x8d, tests.Lo(base + 7), tests.Hi(base + 7), // STA TIMERHI
		0x40, // RTI
	)
}

func TestTimerIRQ(t *testing.T) {
	d := newDrive(t, Type1541, timerCode(0x1c00, ctrlTimerIRQ).Bytes(), nil)
	d.CatchUp(3000)
	if n := d.RAM()[0x400]; n < 8 || n > 11 {
		t.Errorf("%d timer interrupts", n)
	}
	if !d.timer.Pending() {
		t.Error("timer not rearmed")
	}

	// Masked, the flag is set without interrupting the CPU.
	d = newDrive(t, Type1541, timerCode(0x1c00, 0).Bytes(), nil)
	d.CatchUp(3000)
	if n := d.RAM()[0x400]; n != 0 {
		t.Errorf("%d interrupts while masked", n)
	}
	if d.ctrl.IRQ.Value&irqTimer == 0 {
		t.Error("timer flag not raised")
	}
	if d.CPU.IRQLines() != 0 {
		t.Error("IRQ line asserted")
	}
	if got := d.Bus().Read8(0x1c00 + 6); got != 0 {
		t.Errorf("expired timer reads %d", got)
	}
}

func TestJamPolicy(t *testing.T) {
	// INC $0200; JAM
	code := []byte{0xee, 0x00, 0x02, 0x02}

	tests := []struct {
		policy     cpu.JamAction
		minCount   uint8
		maxCount   uint8
		wantPaused bool
	}{
		{cpu.JamNone, 1, 1, false},
		{cpu.JamReset, 10, 255, false},
		{cpu.JamHardReset, 0, 1, false},
		{cpu.JamMonitor, 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			m := mustModel(t, Type1541)
			d := newDrive(t, Type1541, firmware(m, code...).Bytes(), nil)
			d.SetJamPolicy(tt.policy)

			d.CatchUp(500)

			n := d.RAM()[0x200]
			if n < tt.minCount || n > tt.maxCount {
				t.Errorf("counter = %d, want %d..%d", n, tt.minCount, tt.maxCount)
			}
			if d.CPU.Paused() != tt.wantPaused {
				t.Errorf("paused = %v", d.CPU.Paused())
			}
			if tt.policy == cpu.JamNone && d.CPU.PC != 0xc003 {
				t.Errorf("PC = $%04x, want the jamming opcode", d.CPU.PC)
			}
		})
	}
}

func TestIdleTrap(t *testing.T) {
	m := mustModel(t, Type1541)
	rom := firmware(m, 0x4c, tests.Lo(m.TrapAddr), tests.Hi(m.TrapAddr)).
		At(m.TrapAddr, 0x4c, tests.Lo(m.TrapAddr), tests.Hi(m.TrapAddr)).
		At(m.TrapCont,
			0xee, 0x00, 0x05, // INC $0500
			0x4c, tests.Lo(m.TrapAddr), tests.Hi(m.TrapAddr),
		).
		Bytes()

	tests := []struct {
		idle     IdleMethod
		min, max uint8
	}{
		{IdleNone, 0, 0},
		{IdleTrap, 100, 255},
		// One loop per catch-up, the first one ending on the trap.
		{IdleTrapIdle, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.idle.String(), func(t *testing.T) {
			d := newDrive(t, Type1541, rom, nil)
			d.SetIdleMethod(tt.idle)

			for main := clock.Clock(500); main <= 2000; main += 500 {
				d.CatchUp(main)
			}

			if n := d.RAM()[0x500]; n < tt.min || n > tt.max {
				t.Errorf("%d trap hits, want %d..%d", n, tt.min, tt.max)
			}
			if d.CPU.Clk < 2000 {
				t.Errorf("Clk = %d", d.CPU.Clk)
			}
		})
	}
}

func TestIdleMethodWithoutTrap(t *testing.T) {
	m := mustModel(t, Type1571)
	d := newDrive(t, Type1571, firmware(m, idleLoop...).Bytes(), nil)
	d.SetIdleMethod(IdleTrapIdle)
	if d.CPU.Trap.Enabled {
		t.Error("trap enabled on a drive without idle loop")
	}
	if _, err := ParseIdleMethod("trap-idle"); err != nil {
		t.Error(err)
	}
	if _, err := ParseIdleMethod("sleep"); err == nil {
		t.Error("ParseIdleMethod accepted an unknown method")
	}
}

func TestReset(t *testing.T) {
	m := mustModel(t, Type1541)
	// INC $0200; JMP *
	rom := firmware(m, 0xee, 0x00, 0x02, 0x4c, 0x03, 0xc0).Bytes()
	d := newDrive(t, Type1541, rom, nil)
	d.CatchUp(100)

	d.Reset(cpu.ResetSoft)
	if !d.ResetPending() {
		t.Fatal("reset not pending")
	}
	d.CatchUp(200)
	if d.ResetPending() {
		t.Error("reset still pending after catch-up")
	}
	if n := d.RAM()[0x200]; n != 2 {
		t.Errorf("counter = %d after soft reset", n)
	}

	d.Reset(cpu.ResetHard)
	d.CatchUp(300)
	if n := d.RAM()[0x200]; n != 1 {
		t.Errorf("counter = %d after hard reset", n)
	}
}

func TestRebaseMaster(t *testing.T) {
	m := mustModel(t, Type1581)
	// INX; BNE -3; INY; JMP $C000
	rom := firmware(m, 0xe8, 0xd0, 0xfd, 0xc8, 0x4c, 0x00, 0xc0).Bytes()
	a := newDrive(t, Type1581, rom, nil)
	b := newDrive(t, Type1581, rom, nil)

	a.CatchUp(5000)
	a.RebaseMaster(5000, 4096)
	a.CatchUp(5000 - 4096 + 3000)
	b.CatchUp(8000)

	if a.CPU.LastClk != 3904 {
		t.Errorf("LastClk = %d", a.CPU.LastClk)
	}
	sa, sb := cpuStateOf(a.CPU), cpuStateOf(b.CPU)
	sa.LastClk, sb.LastClk = 0, 0
	if diff := cmp.Diff(sb, sa); diff != "" {
		t.Errorf("rebased drive diverged (-plain +rebased):\n%s", diff)
	}

	// A paused drive is only resynchronized.
	a.CPU.TriggerMonitor()
	a.RebaseMaster(10000, 8192)
	if a.CPU.LastClk != 10000-8192 {
		t.Errorf("paused LastClk = %d", a.CPU.LastClk)
	}
}

func TestMainClockChange(t *testing.T) {
	m := mustModel(t, Type1541)
	d := newDrive(t, Type1541, firmware(m, idleLoop...).Bytes(), nil)
	d.SetMainClock(2000000)
	d.CatchUp(1000)
	if d.CPU.Clk < 499 || d.CPU.Clk > 503 {
		t.Errorf("Clk = %d after 1000 cycles at twice the drive clock", d.CPU.Clk)
	}
}
