// Package irq is the fixed-size interrupt-handler registry (Component D):
// a map from interrupt source to the closure that services it. Grounded
// on kern/src/traps/irq.rs (original_source) for the fixed-array-of-
// optional-handlers shape, and the teacher's gic_qemu.go for the
// "register a handler once at boot, only invoke afterward" discipline.
package irq

import (
	"sync"

	"pikernel/internal/intc"
	"pikernel/internal/trap"
)

// Handler services a pending interrupt, given the trap frame active when
// the IRQ was taken; it may mutate tf to drive a context switch.
type Handler func(tf *trap.TrapFrame)

// Registry is the fixed 8-slot handler table, one slot per intc.Interrupt.
// All registration happens during bootstrap; once the scheduler is
// running, handlers are invoked but never replaced.
type Registry struct {
	mu       sync.Mutex
	handlers [intc.MaxInterrupts]Handler
}

// New returns an empty registry.
func New() *Registry { return &Registry{} }

// Register stores h as the handler for i, replacing any previous handler.
func (r *Registry) Register(i intc.Interrupt, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[i.Index()] = h
}

// Invoke calls the handler registered for i, if any, passing tf. It
// reports whether a handler was present.
func (r *Registry) Invoke(i intc.Interrupt, tf *trap.TrapFrame) bool {
	r.mu.Lock()
	h := r.handlers[i.Index()]
	r.mu.Unlock()
	if h == nil {
		return false
	}
	h(tf)
	return true
}
