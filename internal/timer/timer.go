// Package timer wraps the Broadcom system timer: a free-running
// microsecond counter plus four compare registers. It supplies both the
// preemption tick (Component F's bootstrap arms Timer1) and the wall
// clock kapi.Dispatcher reads for sys_time/sys_sleep. Grounded on the
// teacher's timer_qemu.go for the "Regs interface behind a small Go type"
// split, and lib/pi/src/timer.rs (original_source) for the register
// semantics.
package timer

import "time"

// Regs abstracts the system timer's counter and Timer1 compare register
// so Timer's arithmetic is host-testable without real MMIO.
type Regs interface {
	Counter() uint64      // free-running microsecond counter (CLO/CHI)
	SetCompare1(v uint64) // C1: the next match value for Timer1
	AckMatch1()           // clears the Timer1 match bit in CS
}

// Timer drives the system timer for both the tick and the wall clock.
type Timer struct {
	regs Regs
}

// New returns a Timer driving regs.
func New(regs Regs) *Timer { return &Timer{regs: regs} }

// Now returns the free-running counter as a (sec, nsec) wall-clock pair.
// There is no real epoch; callers only ever compare two Now() results
// against each other (sleep's elapsed/deadline math), which a
// monotonically increasing counter satisfies regardless of epoch.
func (t *Timer) Now() (sec uint64, nsec uint64) {
	us := t.regs.Counter()
	return us / 1_000_000, (us % 1_000_000) * 1000
}

// ArmTick schedules the next Timer1 match d after now and acknowledges
// the current match, the re-arm-then-switch sequence the Timer1 IRQ
// handler runs on every tick.
func (t *Timer) ArmTick(d time.Duration) {
	t.regs.AckMatch1()
	next := t.regs.Counter() + uint64(d.Microseconds())
	t.regs.SetCompare1(next)
}
