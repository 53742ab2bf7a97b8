// Package trap defines the TrapFrame the exception vectors spill to and
// reload from, and the ESR_EL1 decoding used to classify synchronous
// exceptions. Grounded on kern/src/traps/frame.rs and
// kern/src/traps/syndrome.rs (original_source); the field layout is fixed
// by the (out-of-scope) assembly save/restore routines, so it must not be
// reordered or padded beyond natural alignment.
package trap

// TrapFrame is the packed snapshot of all CPU state an exception vector
// saves on entry and reloads on eret. The field order matches spec.md's
// layout byte-for-byte: ttbr[2], elr, spsr, sp, tpidr, 32 128-bit SIMD
// registers, then 32 64-bit general registers.
type TrapFrame struct {
	TTBR  [2]uint64
	ELR   uint64
	SPSR  uint64
	SP    uint64
	TPIDR uint64
	QRegs [32][2]uint64 // each entry is one 128-bit Q register, low/high halves
	XRegs [32]uint64
}

// SPSR bits this kernel cares about: EL0t with F, A, D masked and I (IRQ)
// left unmasked so preemption works at EL0.
const (
	spsrModeEL0t = 0b0000
	spsrF        = 1 << 6
	spsrA        = 1 << 8
	spsrD        = 1 << 9
)

// SPSREL0Preemptible is the SPSR_EL1 value Process.New installs: EL0t,
// FIQ/SError/Debug masked, IRQ unmasked.
const SPSREL0Preemptible = spsrModeEL0t | spsrF | spsrA | spsrD

// Pid reports the owning process's id, stashed in TPIDR_EL0 by Scheduler.Add.
func (tf *TrapFrame) Pid() uint64 { return tf.TPIDR }

// SetPid stamps the owning process's id into TPIDR_EL0.
func (tf *TrapFrame) SetPid(id uint64) { tf.TPIDR = id }

// SetReturn writes a syscall's result registers: x0 and the x7 status code.
func (tf *TrapFrame) SetReturn(x0 uint64, status uint64) {
	tf.XRegs[0] = x0
	tf.XRegs[7] = status
}

// Arg returns xregs[n], a syscall's n'th input register.
func (tf *TrapFrame) Arg(n int) uint64 { return tf.XRegs[n] }
