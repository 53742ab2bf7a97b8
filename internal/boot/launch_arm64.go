//go:build arm64

package boot

import (
	_ "unsafe" // for go:linkname

	"pikernel/internal/trap"
)

// contextRestore loads every field of a trap.TrapFrame into the
// corresponding register (including TTBR0/1_EL1, SPSR_EL1, ELR_EL1) and
// issues eret, handing the CPU to EL0 at tf.ELR. Its body lives in the
// boot assembly; spec.md §9 places the register-restore/eret sequence out
// of this module's scope.
//
//go:linkname contextRestore context_restore
//go:nosplit
func contextRestore(tf *trap.TrapFrame)

// StartFirstProcess hands control to the first ready process in the queue
// and, once it has, never returns. Bootstrap calls this once, after Start
// has armed the preemption tick, to leave the Go runtime and begin
// executing user code. If no process is ready it returns false without
// handing control to anything.
func (k *Kernel) StartFirstProcess() bool {
	var tf trap.TrapFrame
	if _, ok := k.Sched.SwitchTo(&tf); !ok {
		return false
	}
	contextRestore(&tf)
	return true
}
