//go:build arm64

// Command kernel is the bare-metal entry point: KernelMain is called from
// the boot assembly once the MMU and stack are set up, and never returns.
// main itself is a dummy required by "package main" for this to build as
// an ordinary Go binary; the teacher's own mazboot/golang/main package
// carries no func main at all, relying on its boot assembly to jump
// straight to KernelMain, but this module's simpler boot sequence doesn't
// patch the runtime's own startup path, so a conventional main is kept as
// the documented no-op entry go build expects.
package main

import (
	"pikernel/internal/boot"
	"pikernel/internal/console"
	"pikernel/internal/fsapi"
	"pikernel/internal/hal"
	"pikernel/internal/intc"
	"pikernel/internal/timer"
)

func main() {}

// KernelMain wires every singleton via internal/boot and hands control to
// the first process, loaded from rootFS. r0/r1/atags mirror the registers
// the teacher's boot.s passes into kernel_main; this module's boot
// assembly is out of scope (spec.md §9), so they are accepted but unused
// beyond documenting the real calling convention.
//
//go:noinline
func KernelMain(r0, r1, atags uint32) {
	_, _, _ = r0, r1, atags

	uart := console.UART{}
	cfg := boot.Config{
		RAMStart:  uintptr(hal.RAMBase),
		RAMEnd:    uintptr(hal.RAMEnd),
		IOBase:    hal.IOBase,
		IOEnd:     hal.IOBaseEnd,
		IntcRegs:  intc.Registers(),
		TimerRegs: timer.Registers(),
		FS:        rootFS(),
		Console:   uart,
	}

	k, err := boot.Initialize(cfg)
	if err != nil {
		panic(err)
	}

	if _, err := k.AddProcess(initProgramPath); err != nil {
		panic(err)
	}

	k.Start()
	k.StartFirstProcess()
}

// initProgramPath is the first user program loaded at boot, per spec.md
// §9's "the kernel starts exactly one process from a fixed path" note.
const initProgramPath = "/init"

// rootFS returns the filesystem collaborator process.Load reads the init
// program from. The real FAT32/MBR reader is an external collaborator out
// of this module's scope (spec.md's Non-goals); wiring it in is the same
// kind of out-of-scope boundary as internal/boot's context_restore. It
// returns an empty MemFS, so loading initProgramPath from it fails and
// KernelMain panics with that error.
func rootFS() fsapi.FS {
	return fsapi.NewMemFS(nil)
}
