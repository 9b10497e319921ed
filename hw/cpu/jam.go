package cpu

import "cbmdrive/emu/log"

//go:generate stringer -type=JamAction -trimprefix=Jam

// JamAction is the decision taken when the CPU fetches a jamming opcode.
type JamAction int

const (
	// JamNone leaves the CPU stuck on the jamming opcode, each attempt
	// costing the single opcode fetch cycle.
	JamNone JamAction = iota
	JamReset
	JamHardReset
	// JamMonitor breaks into the monitor. Catch-up is suspended until
	// the CPU is resumed.
	JamMonitor
)

// jam handles an undecodable opcode at pc. The program counter stays on the
// opcode whatever the action is, so that a resumed CPU jams again.
func (c *CPU) jam(pc uint16, opcode uint8) {
	if c.jammed && c.jamPC == pc {
		return
	}

	action := JamNone
	if c.cb != nil {
		action = c.cb.Jam(pc, opcode)
	}

	log.ModCPU.WarnZ("JAM").
		String("cpu", c.Name).
		Hex16("pc", pc).
		Hex8("opcode", opcode).
		Stringer("action", action).
		End()

	switch action {
	case JamReset:
		c.Reset(ResetSoft)
	case JamHardReset:
		c.Reset(ResetHard)
	case JamMonitor:
		c.jammed, c.jamPC = true, pc
		c.TriggerMonitor()
		c.dbg.Break("JAM")
	default:
		c.jammed, c.jamPC = true, pc
	}
}
