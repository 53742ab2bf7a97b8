// Package boot is Component H: two-phase bootstrap. Initialize wires the
// allocator, filesystem, interrupt controller/registry, and kernel page
// table in the fixed order spec.md §9 documents (allocator → filesystem →
// IRQ → VMM → scheduler); Start arms the preemption tick and hands control
// to the first process. Grounded on kern/src/init.rs and
// kern/src/shell.rs's boot sequence (original_source), and the teacher's
// kernel.go top-level init for the "build every singleton, then never
// again" shape.
package boot

import (
	"errors"

	"pikernel/internal/alloc"
	"pikernel/internal/console"
	"pikernel/internal/dispatch"
	"pikernel/internal/fsapi"
	"pikernel/internal/hal"
	"pikernel/internal/intc"
	"pikernel/internal/irq"
	"pikernel/internal/kapi"
	"pikernel/internal/proc"
	"pikernel/internal/sched"
	"pikernel/internal/shell"
	"pikernel/internal/timer"
	"pikernel/internal/trap"
	"pikernel/internal/vmm"
)

// wireIdle is the scheduler's low-power retry hook. Left nil on the host
// (Switch then busy-loops through SwitchTo retries); idle_arm64.go's init
// points it at hal.WaitForInterrupt before Initialize ever runs.
var wireIdle func()

// Kernel holds every global singleton spec.md §9 names, assembled once by
// Initialize and never torn down.
type Kernel struct {
	Alloc    *alloc.Allocator
	FS       fsapi.FS
	Intc     *intc.Controller
	IRQ      *irq.Registry
	KernPT   *vmm.PageTable
	Sched    *sched.Scheduler
	Timer    *timer.Timer
	Syscall  *kapi.Dispatcher
	Dispatch *dispatch.Dispatcher
	Console  console.Writer
}

// Config names the fixed resources Initialize needs: the physical RAM
// window the allocator owns, the MMIO window the kernel table identity-
// maps as Device memory, and the hardware register sets.
type Config struct {
	RAMStart, RAMEnd uintptr
	IOBase, IOEnd    uint64
	IntcRegs         intc.Regs
	TimerRegs        timer.Regs
	FS               fsapi.FS
	Console          console.Writer
	Debug            dispatch.Debugger // nil defaults to shell.NoOp
}

// Initialize builds every singleton in the fixed order: allocator,
// filesystem, IRQ (controller + registry), VMM (kernel identity map),
// scheduler. It does not start the tick or touch any process; see Start.
func Initialize(cfg Config) (*Kernel, error) {
	a := alloc.New(cfg.RAMStart, cfg.RAMEnd)

	fs := cfg.FS

	ic := intc.New(cfg.IntcRegs)
	reg := irq.New()

	kernPT := vmm.NewEmpty(a)
	ramSize := uint64(cfg.RAMEnd - cfg.RAMStart)
	if err := kernPT.IdentityMap(uint64(cfg.RAMStart), ramSize, vmm.AttrNormal, vmm.ShInner); err != nil {
		return nil, err
	}
	if err := kernPT.IdentityMap(cfg.IOBase, cfg.IOEnd-cfg.IOBase, vmm.AttrDevice, vmm.ShOuter); err != nil {
		return nil, err
	}

	s := sched.New()
	s.Idle = wireIdle
	tm := timer.New(cfg.TimerRegs)
	sc := kapi.New(s, tm, cfg.Console)

	debug := cfg.Debug
	if debug == nil {
		debug = shell.NoOp{}
	}
	logger := &console.Logger{W: cfg.Console}
	disp := dispatch.New(ic, reg, sc, debug, logger)

	return &Kernel{
		Alloc:    a,
		FS:       fs,
		Intc:     ic,
		IRQ:      reg,
		KernPT:   kernPT,
		Sched:    s,
		Timer:    tm,
		Syscall:  sc,
		Dispatch: disp,
		Console:  cfg.Console,
	}, nil
}

// Start registers the Timer1 tick handler, enables the interrupt, and arms
// the first tick. It must run after at least one process has been added
// via AddProcess; handing control to that process's trap frame is the
// assembly-boundary job of StartFirstProcess (context_restore + eret),
// out of this package's scope per spec.md §9.
func (k *Kernel) Start() {
	k.IRQ.Register(intc.Timer1, func(tf *trap.TrapFrame) {
		k.Timer.ArmTick(hal.Tick)
		k.Sched.Switch(proc.Ready, tf)
	})
	k.Intc.Enable(intc.Timer1)
	k.Timer.ArmTick(hal.Tick)
}

// AddProcess loads path through the filesystem collaborator and enqueues
// the resulting process on the scheduler, returning its assigned pid.
func (k *Kernel) AddProcess(path string) (uint64, error) {
	p, err := proc.Load(k.Alloc, k.KernPT.RootPhysAddr(), k.FS, path)
	if err != nil {
		return 0, err
	}
	pid, ok := k.Sched.Add(p)
	if !ok {
		return 0, errTooManyProcesses
	}
	return pid, nil
}

var errTooManyProcesses = errors.New("boot: scheduler id counter overflowed")
