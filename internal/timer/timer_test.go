package timer

import (
	"testing"
	"time"
)

type fakeRegs struct {
	counter uint64
	compare uint64
	acked   int
}

func (f *fakeRegs) Counter() uint64      { return f.counter }
func (f *fakeRegs) SetCompare1(v uint64) { f.compare = v }
func (f *fakeRegs) AckMatch1()           { f.acked++ }

func TestNowDerivesSecNsecFromMicros(t *testing.T) {
	regs := &fakeRegs{counter: 5_123_456}
	tm := New(regs)

	sec, nsec := tm.Now()
	if sec != 5 {
		t.Errorf("sec = %d, want 5", sec)
	}
	if nsec != 123_456_000 {
		t.Errorf("nsec = %d, want 123456000", nsec)
	}
}

func TestArmTickSetsCompareAndAcks(t *testing.T) {
	regs := &fakeRegs{counter: 1000}
	tm := New(regs)

	tm.ArmTick(10 * time.Millisecond)
	if regs.acked != 1 {
		t.Errorf("acked = %d, want 1", regs.acked)
	}
	want := uint64(1000 + 10_000) // 10ms = 10000us
	if regs.compare != want {
		t.Errorf("compare = %d, want %d", regs.compare, want)
	}
}
