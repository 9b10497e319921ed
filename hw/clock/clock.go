// Package clock provides the cycle counter type shared by the master clock and
// the drive CPUs, the overflow guard that periodically rebases those counters,
// and the alarm context used to schedule chip events.
package clock

// Clock is a cycle counter. It is 32-bit wide, both to match the snapshot
// wire format and because counters are rebased well before they can wrap.
type Clock uint32

const (
	Max Clock = 0xFFFFFFFF

	// GuardSubMin is the amount of cycles left in a counter after a rebase.
	GuardSubMin Clock = 0x100000
	// GuardLimit is the counter value that triggers a rebase.
	GuardLimit Clock = Max - GuardSubMin
)

// Before reports whether a happens before b, tolerating wraparound.
func Before(a, b Clock) bool {
	return int32(a-b) < 0
}

// A Guard watches a counter and rebases it once it crosses its limit.
// Subscribers are notified with the subtracted amount so they can shift
// every absolute timestamp they keep.
type Guard struct {
	clk   *Clock
	limit Clock
	subs  []func(sub Clock)
}

func NewGuard(clk *Clock, limit Clock) *Guard {
	return &Guard{clk: clk, limit: limit}
}

// Register adds a rebase callback. Callbacks run in registration order,
// after the guarded counter has been decremented.
func (g *Guard) Register(fn func(sub Clock)) {
	g.subs = append(g.subs, fn)
}

// PreventOverflow rebases the counter if it crossed the limit, and returns
// the amount subtracted (0 if nothing happened).
func (g *Guard) PreventOverflow() Clock {
	if *g.clk < g.limit {
		return 0
	}
	sub := *g.clk - GuardSubMin
	sub &^= 0xFFFF
	g.Rebase(sub)
	return sub
}

// Rebase unconditionally subtracts sub from the counter and notifies the
// subscribers.
func (g *Guard) Rebase(sub Clock) {
	if sub == 0 {
		return
	}
	*g.clk -= sub
	for _, fn := range g.subs {
		fn(sub)
	}
}
