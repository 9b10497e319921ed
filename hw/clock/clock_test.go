package clock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGuardRebase(t *testing.T) {
	clk := GuardLimit + 0x1234
	g := NewGuard(&clk, GuardLimit)

	var last Clock = 0xFFFFF000
	g.Register(func(sub Clock) { last -= sub })

	sub := g.PreventOverflow()
	if sub == 0 {
		t.Fatal("PreventOverflow did not rebase")
	}
	if clk != GuardLimit+0x1234-sub {
		t.Errorf("clk = %x, want %x", clk, GuardLimit+0x1234-sub)
	}
	if clk < GuardSubMin {
		t.Errorf("clk = %x, want at least %x", clk, GuardSubMin)
	}
	if last != 0xFFFFF000-sub {
		t.Errorf("subscriber saw %x, want %x", last, 0xFFFFF000-sub)
	}

	if sub := g.PreventOverflow(); sub != 0 {
		t.Errorf("second PreventOverflow = %x, want 0", sub)
	}
}

func TestBefore(t *testing.T) {
	tests := []struct {
		a, b Clock
		want bool
	}{
		{1, 2, true},
		{2, 1, false},
		{2, 2, false},
		{0xFFFFFFF0, 0x10, true},
	}
	for _, tt := range tests {
		if got := Before(tt.a, tt.b); got != tt.want {
			t.Errorf("Before(%x, %x) = %t, want %t", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAlarmDispatch(t *testing.T) {
	ac := NewAlarmContext("drive8")

	var fired []string
	var timer *Alarm
	timer = ac.New("timer", func(offset Clock) {
		fired = append(fired, "timer")
		timer.Set(timer.Deadline() + 100)
	})
	byteReady := ac.New("byte-ready", func(offset Clock) {
		fired = append(fired, "byte-ready")
	})

	if got := ac.NextPending(); got != Max {
		t.Fatalf("NextPending = %x, want Max", got)
	}

	timer.Set(100)
	byteReady.Set(150)
	if diff := cmp.Diff([]string{"timer", "byte-ready"}, ac.Pending()); diff != "" {
		t.Errorf("Pending() mismatch (-want +got):\n%s", diff)
	}

	ac.Dispatch(99)
	if len(fired) != 0 {
		t.Fatalf("alarms fired too early: %v", fired)
	}

	ac.Dispatch(250)
	want := []string{"timer", "byte-ready", "timer"}
	if diff := cmp.Diff(want, fired); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
	if ac.NextPending() != 300 {
		t.Errorf("NextPending = %d, want 300", ac.NextPending())
	}

	ac.Rebase(200)
	if ac.NextPending() != 100 {
		t.Errorf("NextPending after rebase = %d, want 100", ac.NextPending())
	}

	timer.Unset()
	if ac.NextPending() != Max {
		t.Errorf("NextPending after unset = %x, want Max", ac.NextPending())
	}
}
