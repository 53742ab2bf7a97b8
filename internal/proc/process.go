// Package proc is Component E: Process, the bundle of a trap frame, an
// exclusively owned user page table, and scheduling state. Grounded on
// kern/src/process/process.rs and kern/src/process/state.rs
// (original_source).
package proc

import (
	"errors"
	"fmt"
	"io"

	"pikernel/internal/fsapi"
	"pikernel/internal/hal"
	"pikernel/internal/trap"
	"pikernel/internal/vmm"
)

// StackPages is the fixed number of RW pages reserved for a process's user
// stack, immediately below USER_IMG_BASE's opposite end of the window.
const StackPages = 1

// stateKind is a process's scheduling state. Waiting carries the predicate
// that, once true, moves the process back to Ready — re-architected from
// the source's closure-inside-enum-variant as an explicit field, since Go
// has no tagged union, mirroring the "boxed callable" note in the design
// notes.
type stateKind int

const (
	Ready stateKind = iota
	Running
	Waiting
	Dead
)

func (s stateKind) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Waiting:
		return "Waiting"
	case Dead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// Predicate is a wait condition attached to a Waiting process. It is
// passed the process itself and may mutate p.TrapFrame to deliver a
// syscall result once it becomes true.
type Predicate func(p *Process) bool

// Process is the kernel's unit of scheduling.
type Process struct {
	TrapFrame *trap.TrapFrame
	PageTable *vmm.PageTable

	kind Kind
	pred Predicate
}

// Kind is exported so Scheduler (a different package) can read/set a
// process's coarse state without exposing the wait predicate itself.
type Kind = stateKind

// New creates a fresh process: a user page table holding only its stack
// page, and a trap frame
// initialized per spec.md §4.E (sp at the top of the stack window, elr at
// the image entry, ttbr[1] at the user table, spsr EL0t with IRQs
// unmasked). kernPT is the physical address of the shared kernel table.
func New(allocator vmm.PhysAllocator, kernPT uint64) (*Process, error) {
	pt := vmm.NewUser(allocator)

	stackTop := hal.PageAlign(uint64(hal.UserImgBase) + hal.UserImgMask)
	if _, err := pt.AllocPage(stackTop - hal.PageSize); err != nil {
		pt.Teardown()
		return nil, err
	}

	tf := &trap.TrapFrame{}
	tf.SP = stackTop
	tf.ELR = uint64(hal.UserImgBase)
	tf.TTBR[0] = kernPT
	tf.TTBR[1] = pt.RootPhysAddr()
	tf.SPSR = trap.SPSREL0Preemptible

	return &Process{TrapFrame: tf, PageTable: pt, kind: Ready}, nil
}

// Load creates a process and populates its image by reading path from fs
// page by page, starting at USER_IMG_BASE, until EOF, then reserves the
// stack as New does. A short final read that exactly fills a page may
// still trigger one extra page allocation for the next, empty read; this
// mirrors the source's own documented behavior rather than special-casing
// it away.
func Load(allocator vmm.PhysAllocator, kernPT uint64, fs fsapi.FS, path string) (*Process, error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, err
	}

	pt := vmm.NewUser(allocator)
	vaddr := uint64(hal.UserImgBase)
	for {
		page, aerr := pt.AllocPage(vaddr)
		if aerr != nil {
			pt.Teardown()
			return nil, aerr
		}
		// An interrupted read is resumed at the byte it stopped at, so the
		// bytes already copied into page are kept.
		n := 0
		var rerr error
		for {
			var m int
			m, rerr = io.ReadFull(r, page[n:])
			n += m
			if !errors.Is(rerr, fsapi.ErrInterrupted) {
				break
			}
		}
		if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
			pt.Teardown()
			return nil, rerr
		}
		vaddr += hal.PageSize
		if n < len(page) {
			break
		}
	}

	stackTop := hal.PageAlign(uint64(hal.UserImgBase) + hal.UserImgMask)
	if _, err := pt.AllocPage(stackTop - hal.PageSize); err != nil {
		pt.Teardown()
		return nil, err
	}

	tf := &trap.TrapFrame{}
	tf.SP = stackTop
	tf.ELR = uint64(hal.UserImgBase)
	tf.TTBR[0] = kernPT
	tf.TTBR[1] = pt.RootPhysAddr()
	tf.SPSR = trap.SPSREL0Preemptible

	return &Process{TrapFrame: tf, PageTable: pt, kind: Ready}, nil
}

// State reports the process's coarse scheduling state.
func (p *Process) State() Kind { return p.kind }

// SetReady forces the process back to Ready, used by the scheduler after
// a wait predicate fires.
func (p *Process) SetReady() { p.kind = Ready; p.pred = nil }

// SetRunning marks the process as the one currently executing.
func (p *Process) SetRunning() { p.kind = Running }

// SetDead marks the process as terminated; callers are responsible for
// tearing down its page table.
func (p *Process) SetDead() { p.kind = Dead; p.pred = nil }

// SetWaiting transitions to Waiting with the given predicate.
func (p *Process) SetWaiting(pred Predicate) {
	p.kind = Waiting
	p.pred = pred
}

// IsReady consults State: Ready is always true; Waiting polls its
// predicate and transitions to Ready on success; Running/Dead are always
// false.
func (p *Process) IsReady() bool {
	switch p.kind {
	case Ready:
		return true
	case Waiting:
		if p.pred(p) {
			p.SetReady()
			return true
		}
		return false
	default:
		return false
	}
}

// Teardown frees the process's user page table back to the allocator.
func (p *Process) Teardown() { p.PageTable.Teardown() }

// Debug renders id, state, and trap frame, the Go analogue of the
// source's impl fmt::Debug for Process (id/tf/state fields).
func (p *Process) Debug() string {
	return fmt.Sprintf("Process{id=%d, state=%v, tf=%+v}", p.TrapFrame.Pid(), p.kind, p.TrapFrame)
}

// String implements fmt.Stringer with the same id/state summary Debug
// gives, without the full trap frame dump.
func (p *Process) String() string {
	return fmt.Sprintf("Process{id=%d, state=%v}", p.TrapFrame.Pid(), p.kind)
}
