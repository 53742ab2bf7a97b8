package sched

import (
	"testing"
	"unsafe"

	"pikernel/internal/proc"
	"pikernel/internal/trap"
)

type fakeAllocator struct {
	arena []byte
	next  uintptr
}

func newFakeAllocator(size int) *fakeAllocator {
	return &fakeAllocator{arena: make([]byte, size)}
}

func (f *fakeAllocator) base() uintptr { return uintptr(unsafe.Pointer(&f.arena[0])) }

func (f *fakeAllocator) Alloc(size, align uintptr) uintptr {
	cur := f.base() + f.next
	aligned := (cur + align - 1) &^ (align - 1)
	off := aligned - f.base()
	if off+size > uintptr(len(f.arena)) {
		return 0
	}
	f.next = off + size
	return aligned
}

func (f *fakeAllocator) Dealloc(ptr, size, align uintptr) {}

func newProcess(t *testing.T) *proc.Process {
	t.Helper()
	a := newFakeAllocator(4 << 20)
	p, err := proc.New(a, 0)
	if err != nil {
		t.Fatalf("proc.New: %v", err)
	}
	return p
}

func TestAddAssignsMonotoneIDs(t *testing.T) {
	s := New()
	p1, p2 := newProcess(t), newProcess(t)

	id1, ok := s.Add(p1)
	if !ok || id1 != 1 {
		t.Fatalf("Add(p1) = %d, %v, want 1, true", id1, ok)
	}
	id2, ok := s.Add(p2)
	if !ok || id2 != 2 {
		t.Fatalf("Add(p2) = %d, %v, want 2, true", id2, ok)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestAddOverflowRejected(t *testing.T) {
	s := New()
	s.lastID = ^uint64(0)
	p := newProcess(t)
	if _, ok := s.Add(p); ok {
		t.Error("Add succeeded at lastID overflow, want false")
	}
}

func TestScheduleOutAndSwitchToSingleProcess(t *testing.T) {
	s := New()
	p := newProcess(t)
	s.Add(p)

	tf := *p.TrapFrame // the "live" frame on the kernel stack
	if !s.ScheduleOut(proc.Ready, &tf) {
		t.Fatal("ScheduleOut reported no match")
	}
	pid, ok := s.SwitchTo(&tf)
	if !ok {
		t.Fatal("SwitchTo found nothing ready")
	}
	if pid != p.TrapFrame.Pid() {
		t.Errorf("SwitchTo pid = %d, want %d", pid, p.TrapFrame.Pid())
	}
}

func TestSwitchToPrefersFirstReady(t *testing.T) {
	s := New()
	p1, p2 := newProcess(t), newProcess(t)
	s.Add(p1)
	s.Add(p2)

	var tf trap.TrapFrame
	p1.SetWaiting(func(*proc.Process) bool { return false })
	pid, ok := s.SwitchTo(&tf)
	if !ok {
		t.Fatal("SwitchTo found nothing ready")
	}
	if pid != p2.TrapFrame.Pid() {
		t.Errorf("SwitchTo chose pid %d, want p2's", pid)
	}
}

func TestUnblockMovesToFront(t *testing.T) {
	s := New()
	p1, p2, p3 := newProcess(t), newProcess(t), newProcess(t)
	s.Add(p1)
	s.Add(p2)
	s.Add(p3)

	ready := false
	p2.SetWaiting(func(*proc.Process) bool { return ready })

	var tf trap.TrapFrame
	pid, _ := s.SwitchTo(&tf) // picks p1 (Ready, first in queue)
	if pid != p1.TrapFrame.Pid() {
		t.Fatalf("expected p1 first, got pid %d", pid)
	}
	s.ScheduleOut(proc.Ready, &tf) // p1 goes to the tail

	ready = true
	pid, _ = s.SwitchTo(&tf)
	if pid != p2.TrapFrame.Pid() {
		t.Errorf("unblocked p2 was not scheduled first, got pid %d", pid)
	}
}

func TestKillTearsDownAndRemoves(t *testing.T) {
	s := New()
	p := newProcess(t)
	s.Add(p)

	tf := *p.TrapFrame
	pid, ok := s.Kill(&tf)
	if !ok {
		t.Fatal("Kill reported no match")
	}
	if pid != p.TrapFrame.Pid() {
		t.Errorf("Kill pid = %d, want %d", pid, p.TrapFrame.Pid())
	}
	if s.Len() != 0 {
		t.Errorf("Len() after Kill = %d, want 0", s.Len())
	}
}

func TestKillNoMatchReturnsFalse(t *testing.T) {
	s := New()
	p := newProcess(t)
	s.Add(p)

	var stray trap.TrapFrame
	stray.SetPid(999)
	if _, ok := s.Kill(&stray); ok {
		t.Error("Kill matched a stray tpidr, want false")
	}
}

func TestSwitchRetriesUntilReady(t *testing.T) {
	s := New()
	p := newProcess(t)
	s.Add(p)
	p.SetWaiting(func(*proc.Process) bool { return false })

	calls := 0
	s.Idle = func() {
		calls++
		if calls == 2 {
			p.SetReady()
		}
	}

	tf := *p.TrapFrame
	pid, ok := s.Switch(proc.Waiting, &tf)
	if !ok {
		t.Fatal("Switch never found a ready process")
	}
	if pid != p.TrapFrame.Pid() {
		t.Errorf("Switch pid = %d, want %d", pid, p.TrapFrame.Pid())
	}
	if calls < 2 {
		t.Errorf("Idle called %d times, want >=2", calls)
	}
}
