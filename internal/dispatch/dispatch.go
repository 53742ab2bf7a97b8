// Package dispatch implements handle_exception, the other half of
// Component C: it classifies a taken exception (already decoded into an
// Info/ESR pair by the vectors) and routes it to the interrupt registry,
// the syscall layer, or the debug shell. Grounded on
// kern/src/traps/mod.rs (original_source) for the three-way
// Synchronous/IRQ/FIQ-SError branch.
package dispatch

import (
	"pikernel/internal/intc"
	"pikernel/internal/irq"
	"pikernel/internal/trap"
)

// SyscallHandler is the narrow seam into Component G; defined here
// (rather than importing internal/kapi) so dispatch and kapi have no
// compile-time dependency on each other — only cmd/kernel's wiring needs
// to know both concrete types.
type SyscallHandler interface {
	Dispatch(tf *trap.TrapFrame, svc uint16)
}

// Debugger is the external in-kernel debug shell BRK traps into.
type Debugger interface {
	Break(tf *trap.TrapFrame)
}

// Logger receives a one-line diagnostic for exception kinds this stage
// does not otherwise act on (FIQ, SError, unrecognized synchronous
// syndromes, unhandled user faults).
type Logger interface {
	Logf(format string, args ...interface{})
}

// Dispatcher holds the collaborators handle_exception routes into.
type Dispatcher struct {
	Intc    *intc.Controller
	IRQ     *irq.Registry
	Syscall SyscallHandler
	Debug   Debugger
	Log     Logger
}

// New returns a Dispatcher wired to its collaborators.
func New(ic *intc.Controller, reg *irq.Registry, sc SyscallHandler, dbg Debugger, log Logger) *Dispatcher {
	return &Dispatcher{Intc: ic, IRQ: reg, Syscall: sc, Debug: dbg, Log: log}
}

// HandleException is handle_exception(info, esr, tf): the routing
// function every exception vector eventually calls into.
func (d *Dispatcher) HandleException(info trap.Info, esr uint64, tf *trap.TrapFrame) {
	switch info.Kind {
	case trap.KindSynchronous:
		d.handleSynchronous(esr, tf)
	case trap.KindIRQ:
		d.handleIRQ(tf)
	case trap.KindFIQ, trap.KindSError:
		d.logf("dispatch: unhandled %v (source %d)", info.Kind, info.Source)
	default:
		d.logf("dispatch: unknown exception kind %d (source %d)", info.Kind, info.Source)
	}
}

func (d *Dispatcher) handleSynchronous(esr uint64, tf *trap.TrapFrame) {
	s := trap.DecodeSyndrome(esr)
	switch s.Kind {
	case trap.Brk:
		if d.Debug != nil {
			d.Debug.Break(tf)
		}
		tf.ELR += 4 // skip the BRK instruction on return
	case trap.Svc:
		d.Syscall.Dispatch(tf, s.Comment)
	default:
		// Real user faults (DataAbort, InstrAbort, ...) are logged rather
		// than terminated, an explicitly undecided tradeoff rather than an
		// oversight (spec.md §9: "whether they should be is not decided").
		d.logf("dispatch: unhandled synchronous syndrome %v at elr=%#x", s, tf.ELR)
	}
}

func (d *Dispatcher) handleIRQ(tf *trap.TrapFrame) {
	for _, i := range intc.All() {
		if d.Intc.IsPending(i) {
			d.IRQ.Invoke(i, tf)
		}
	}
}

func (d *Dispatcher) logf(format string, args ...interface{}) {
	if d.Log != nil {
		d.Log.Logf(format, args...)
	}
}
