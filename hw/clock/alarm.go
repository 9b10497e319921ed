package clock

import "slices"

// An Alarm invokes its callback once the owning context clock reaches its
// deadline. offset is the amount of cycles the dispatch is late by.
type Alarm struct {
	Name string

	ctx      *AlarmContext
	cb       func(offset Clock)
	deadline Clock
	pending  bool
}

// Set schedules the alarm at clk, replacing any previous deadline.
func (a *Alarm) Set(clk Clock) {
	a.deadline = clk
	a.pending = true
	a.ctx.update()
}

func (a *Alarm) Unset() {
	if a.pending {
		a.pending = false
		a.ctx.update()
	}
}

func (a *Alarm) Pending() bool   { return a.pending }
func (a *Alarm) Deadline() Clock { return a.deadline }

// AlarmContext is the set of alarms of one clock domain.
type AlarmContext struct {
	Name string

	alarms []*Alarm
	next   Clock
	nextAl *Alarm
}

func NewAlarmContext(name string) *AlarmContext {
	return &AlarmContext{Name: name, next: Max}
}

func (ac *AlarmContext) New(name string, cb func(offset Clock)) *Alarm {
	a := &Alarm{Name: name, ctx: ac, cb: cb}
	ac.alarms = append(ac.alarms, a)
	return a
}

func (ac *AlarmContext) update() {
	ac.next = Max
	ac.nextAl = nil
	for _, a := range ac.alarms {
		if a.pending && (ac.nextAl == nil || a.deadline < ac.next) {
			ac.next = a.deadline
			ac.nextAl = a
		}
	}
}

// NextPending returns the deadline of the earliest pending alarm, or Max if
// there is none.
func (ac *AlarmContext) NextPending() Clock {
	return ac.next
}

// Dispatch fires, in deadline order, every alarm due at or before now.
// Callbacks may re-arm their alarm.
func (ac *AlarmContext) Dispatch(now Clock) {
	for ac.nextAl != nil && ac.next <= now {
		a := ac.nextAl
		a.pending = false
		ac.update()
		a.cb(now - a.deadline)
	}
}

// Rebase shifts every pending deadline by -sub.
func (ac *AlarmContext) Rebase(sub Clock) {
	for _, a := range ac.alarms {
		if !a.pending {
			continue
		}
		if a.deadline < sub {
			a.deadline = 0
		} else {
			a.deadline -= sub
		}
	}
	ac.update()
}

// Pending returns the names of pending alarms, ordered by deadline.
func (ac *AlarmContext) Pending() []string {
	var pending []*Alarm
	for _, a := range ac.alarms {
		if a.pending {
			pending = append(pending, a)
		}
	}
	slices.SortStableFunc(pending, func(a, b *Alarm) int {
		switch {
		case a.deadline < b.deadline:
			return -1
		case a.deadline > b.deadline:
			return 1
		}
		return 0
	})
	names := make([]string, len(pending))
	for i, a := range pending {
		names[i] = a.Name
	}
	return names
}
