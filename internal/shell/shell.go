// Package shell is the in-kernel debug shell BRK traps into, an external
// collaborator out of the core's scope. NoOp is the default wired in when
// no interactive shell is present (e.g. running headless under QEMU);
// grounded on the teacher's own shell entry point in kernel.go, reduced
// here to the single seam dispatch needs.
package shell

import "pikernel/internal/trap"

// NoOp is a Debugger that does nothing, the default before a real shell
// is wired in.
type NoOp struct{}

// Break implements dispatch.Debugger.
func (NoOp) Break(tf *trap.TrapFrame) {}
