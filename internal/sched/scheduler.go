// Package sched is Component F: the round-robin scheduler. A FIFO queue
// of processes, a monotonically increasing id counter, and a single
// mutex around the whole structure. Grounded on
// kern/src/process/scheduler.rs (original_source); the teacher's
// kernel.go Mutex-guarded-singleton idiom (mazboot/golang/main) supplies
// the Go shape for Scheduler's single lock.
package sched

import (
	"sync"

	"pikernel/internal/proc"
	"pikernel/internal/trap"
)

// Scheduler is a FIFO ready queue plus the id counter and lock described
// in spec.md §3. All operations assume the kernel is non-preemptive: the
// mutex is an aliasing barrier, not a contended lock.
type Scheduler struct {
	mu     sync.Mutex
	queue  []*proc.Process
	lastID uint64

	// Idle is invoked between failed SwitchTo attempts inside Switch, the
	// low-power wfi of spec.md §4.F. Left nil on the host (Switch then
	// busy-loops, acceptable for tests that always have a process become
	// ready quickly); the arm64 boot path wires it to hal.WaitForInterrupt.
	Idle func()
}

// New returns an empty scheduler.
func New() *Scheduler { return &Scheduler{} }

// Add assigns the next id (starting at 1), stamps it into p's trap frame,
// and appends p to the queue. It returns false without enqueuing on
// uint64 overflow of the id counter.
func (s *Scheduler) Add(p *proc.Process) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastID == ^uint64(0) {
		return 0, false
	}
	s.lastID++
	p.TrapFrame.SetPid(s.lastID)
	s.queue = append(s.queue, p)
	return s.lastID, true
}

// indexOfRunning locates the queue slot whose trap frame pid matches
// tf.Pid(); callers must hold s.mu.
func (s *Scheduler) indexOfRunning(tf *trap.TrapFrame) int {
	for i, p := range s.queue {
		if p.TrapFrame.Pid() == tf.Pid() {
			return i
		}
	}
	return -1
}

// ScheduleOut finds the running process (matched by tf's pid), snapshots
// tf into its stored trap frame, applies newState, and re-enqueues it at
// the tail. Only Dead and Ready are applied here; for any other newState
// (Waiting in particular) the state and predicate the process already
// has, e.g. from MarkWaiting, are kept. It reports false if no queue slot
// matches.
func (s *Scheduler) ScheduleOut(newState proc.Kind, tf *trap.TrapFrame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfRunning(tf)
	if i < 0 {
		return false
	}
	p := s.queue[i]
	*p.TrapFrame = *tf
	switch newState {
	case proc.Dead:
		p.SetDead()
	default:
		// Ready/Waiting are driven by the caller via p directly before
		// ScheduleOut for anything beyond a bare state flip (e.g. sleep
		// installs a predicate first); a bare Ready flip is the common
		// timer-preemption case.
		if newState == proc.Ready {
			p.SetReady()
		}
	}
	s.queue = append(s.queue[:i], s.queue[i+1:]...)
	s.queue = append(s.queue, p)
	return true
}

// SwitchTo scans the queue for the first ready process, moves it to the
// front, marks it Running, and copies its stored trap frame into tf. It
// returns the selected pid, or false if nothing is ready.
func (s *Scheduler) SwitchTo(tf *trap.TrapFrame) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.queue {
		if p.IsReady() {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.queue = append([]*proc.Process{p}, s.queue...)
			p.SetRunning()
			*tf = *p.TrapFrame
			return tf.Pid(), true
		}
	}
	return 0, false
}

// MarkWaiting transitions the running process (matched by tf's pid) to
// Waiting with pred, without dequeuing it. Callers use this to install a
// wait predicate before calling Switch, so Switch's ScheduleOut(Waiting)
// leaves the predicate it just installed alone.
func (s *Scheduler) MarkWaiting(tf *trap.TrapFrame, pred proc.Predicate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfRunning(tf)
	if i < 0 {
		return false
	}
	s.queue[i].SetWaiting(pred)
	return true
}

// Switch is the preemption primitive: schedule the running process out as
// newState, then retry SwitchTo, calling Idle between attempts, until some
// process becomes ready.
func (s *Scheduler) Switch(newState proc.Kind, tf *trap.TrapFrame) (uint64, bool) {
	if !s.ScheduleOut(newState, tf) {
		return 0, false
	}
	for {
		if pid, ok := s.SwitchTo(tf); ok {
			return pid, true
		}
		if s.Idle != nil {
			s.Idle()
		}
	}
}

// Kill schedules the running process out as Dead, pops it from the tail,
// and tears down its page table. It returns the dead pid, or false if the
// caller's tf did not match a running process.
func (s *Scheduler) Kill(tf *trap.TrapFrame) (uint64, bool) {
	if !s.ScheduleOut(proc.Dead, tf) {
		return 0, false
	}

	s.mu.Lock()
	n := len(s.queue)
	if n == 0 || s.queue[n-1].State() != proc.Dead {
		s.mu.Unlock()
		return 0, false
	}
	dead := s.queue[n-1]
	s.queue = s.queue[:n-1]
	s.mu.Unlock()

	pid := dead.TrapFrame.Pid()
	dead.Teardown()
	return pid, true
}

// Len reports the number of processes currently queued (for tests and a
// future debug-shell "ps" command).
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
