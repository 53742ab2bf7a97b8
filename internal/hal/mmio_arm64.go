//go:build arm64

package hal

import _ "unsafe" // for go:linkname

// Link to external assembly functions providing raw MMIO access and
// barriers, exactly as the teacher declares mmio_read/mmio_write/dsb:
// bodies live in the boot assembly, out of scope for this module.

//go:linkname mmioWrite mmio_write
//go:nosplit
func mmioWrite(reg uintptr, data uint32)

//go:linkname mmioRead mmio_read
//go:nosplit
func mmioRead(reg uintptr) uint32

//go:linkname dsb dsb
//go:nosplit
func dsb()

//go:linkname wfi wfi
//go:nosplit
func wfi()

// MMIOWrite writes a 32-bit value to a memory-mapped register.
func MMIOWrite(reg uintptr, data uint32) { mmioWrite(reg, data) }

// MMIORead reads a 32-bit value from a memory-mapped register.
func MMIORead(reg uintptr) uint32 { return mmioRead(reg) }

// DataSyncBarrier issues a DSB, ordering prior memory accesses against
// whatever follows (page table edits before TLB-sensitive operations).
func DataSyncBarrier() { dsb() }

// WaitForInterrupt issues a WFI, the low-power idle the scheduler's
// Switch loop uses while waiting for some process to become ready.
func WaitForInterrupt() { wfi() }
