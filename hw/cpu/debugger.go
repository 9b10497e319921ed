package cpu

// A Debugger controls and monitors a CPU.
type Debugger interface {
	// Reset is called each time the CPU resets.
	Reset()

	// Trace is called before each opcode is executed. The debugger may stop
	// the CPU by blocking until user interaction finishes.
	Trace(pc uint16)

	// Interrupt is called when an interrupt is about to be executed. prevpc is
	// the address of the instruction that was about to be executed, curpc is
	// the address of the interrupt handler.
	Interrupt(prevpc, curpc uint16, isNMI bool)

	// WatchRead/WatchWrite are called before each memory access, allowing
	// the debugger to implement watchpoints.
	WatchRead(addr uint16)
	WatchWrite(addr uint16, val uint8)

	// Break forces breaking into the debugger (monitor).
	Break(msg string)
}

type nopDebugger struct{}

func (nopDebugger) Reset()                                     {}
func (nopDebugger) Trace(pc uint16)                            {}
func (nopDebugger) Interrupt(prevpc, curpc uint16, isNMI bool) {}
func (nopDebugger) WatchRead(addr uint16)                      {}
func (nopDebugger) WatchWrite(addr uint16, val uint8)          {}
func (nopDebugger) Break(msg string)                           {}
