package vmm

import (
	"fmt"
	"strings"
	"unsafe"

	"pikernel/internal/hal"
)

// EntriesPerTable is the number of descriptors in one L2 or L3 table:
// 2^L3IndexBits, filling exactly one 64 KiB page when an entry is 8 bytes.
const EntriesPerTable = 1 << hal.L3IndexBits

// PhysAllocator is the page-frame source a page table draws from. It is
// satisfied by *alloc.Allocator; naming the interface here (rather than
// importing internal/alloc's concrete type) keeps vmm's own tests free of
// a real bump allocator's bookkeeping.
//
// Alloc's returned addresses are dereferenced directly (an L3 table is
// written through a pointer cast over the returned address), so any
// PhysAllocator wired in here must hand out real backing memory, the same
// contract the kernel's own allocator satisfies by carving its arena out
// of the BSS/heap region above __end.
type PhysAllocator interface {
	Alloc(size, align uintptr) uintptr
	Dealloc(ptr, size, align uintptr)
}

// L3Table is one leaf translation table: EntriesPerTable page descriptors.
type L3Table struct {
	entries [EntriesPerTable]RawEntry
}

func (t *L3Table) get(idx int) RawEntry    { return t.entries[idx] }
func (t *L3Table) set(idx int, e RawEntry) { t.entries[idx] = e }

// physAddr reports the address this table would be mapped at if installed
// into a real L2 slot: the table's own backing storage address. On arm64,
// before the MMU's identity map is torn down, a Go object's address and
// its physical address coincide, matching how the teacher's boot code
// treats BSS/heap addresses as physical during bring-up.
func (t *L3Table) physAddr() uint64 { return uint64(uintptr(unsafe.Pointer(t))) }

// L2Table holds the UsedL2Slots top-level entries the kernel actually
// wires up; the rest of the architectural 8192-entry L2 range is never
// populated, matching spec.md's "two used slots" layout.
type L2Table struct {
	entries [hal.UsedL2Slots]RawEntry
	l3      [hal.UsedL2Slots]*L3Table
}

// PageTable is a handle to an L2Table and the allocator it draws L3 tables
// and page frames from.
type PageTable struct {
	alloc PhysAllocator
	l2    *L2Table
}

func l2Index(vaddr uint64) int {
	return int((vaddr >> (hal.L3IndexBits + 16)) & (hal.UsedL2Slots - 1))
}

func l3Index(vaddr uint64) int {
	return int((vaddr >> 16) & (1<<hal.L3IndexBits - 1))
}

// ErrOutOfRange reports a virtual address outside the two populated L2
// slots' coverage.
type ErrOutOfRange struct{ VAddr uint64 }

func (e ErrOutOfRange) Error() string {
	return fmt.Sprintf("vmm: vaddr %#x outside the mapped L2 range", e.VAddr)
}

// newTable allocates a fresh, empty page table backed by alloc. L3 tables
// are built lazily, on first Map into a given L2 slot, since most
// processes touch only one or two of the UsedL2Slots regions.
func newTable(alloc PhysAllocator) *PageTable {
	return &PageTable{alloc: alloc, l2: &L2Table{}}
}

// NewEmpty returns a page table with no mappings installed, the building
// block both NewKernel and NewUser start from.
func NewEmpty(alloc PhysAllocator) *PageTable { return newTable(alloc) }

// IdentityMap maps every page in [base, base+size) to itself (vaddr ==
// paddr) with kernel-only permissions and the given attribute. Bootstrap
// calls this once for RAM (Normal/Inner) and once for the MMIO window
// (Device/Outer) to build the kernel table, per spec.md §4.B.
func (pt *PageTable) IdentityMap(base, size uint64, attr EntryAttr, sh EntrySh) error {
	for off := uint64(0); off < size; off += hal.PageSize {
		if err := pt.mapFixed(base+off, base+off, PermKernRW, attr, sh); err != nil {
			return err
		}
	}
	return nil
}

// NewKernel builds the kernel's identity-mapped table over a single
// region; most callers with both a RAM and an MMIO window to map should
// use NewEmpty followed by two IdentityMap calls instead.
func NewKernel(alloc PhysAllocator, base, size uint64, attr EntryAttr) (*PageTable, error) {
	pt := newTable(alloc)
	if err := pt.IdentityMap(base, size, attr, ShInner); err != nil {
		return nil, err
	}
	return pt, nil
}

// NewUser builds an empty user address space rooted at hal.UserImgBase;
// pages are added on demand by Alloc (the lazy fault-in path Process.Load
// drives) rather than all at once.
func NewUser(alloc PhysAllocator) *PageTable {
	return newTable(alloc)
}

// l3For returns the L3 table covering vaddr's L2 slot, allocating it (and
// zeroing it) on first use. Callers that accept arbitrary, unvalidated
// vaddrs (Alloc) must range-check before calling, since l2Index only
// extracts bits and never rejects an out-of-range address.
func (pt *PageTable) l3For(vaddr uint64) (*L3Table, int, error) {
	l2i := l2Index(vaddr)
	if pt.l2.l3[l2i] == nil {
		raw := pt.alloc.Alloc(unsafe.Sizeof(L3Table{}), hal.PageSize)
		if raw == 0 {
			return nil, 0, fmt.Errorf("vmm: out of memory allocating L3 table")
		}
		t := (*L3Table)(unsafe.Pointer(raw))
		*t = L3Table{}
		pt.l2.l3[l2i] = t
		pt.l2.entries[l2i] = NewTableEntry(t.physAddr(), PermKernRW)
	}
	return pt.l2.l3[l2i], l3Index(vaddr), nil
}

// mapFixed installs a page descriptor mapping vaddr to a caller-chosen
// physical frame, used by NewKernel's identity map where the frame is the
// vaddr itself rather than a fresh allocation.
func (pt *PageTable) mapFixed(vaddr, paddr uint64, perm EntryPerm, attr EntryAttr, sh EntrySh) error {
	l3, idx, err := pt.l3For(vaddr)
	if err != nil {
		return err
	}
	l3.set(idx, NewPageEntry(paddr, perm, attr, sh))
	return nil
}

// Alloc installs a fresh page frame at vaddr, allocated from pt's
// allocator, and returns its physical address. It is a no-op returning the
// existing frame's address if vaddr is already mapped, matching
// Process::load's "don't double-allocate a page already faulted in"
// expectation.
//
// l2Index/l3Index only ever extract bits, so they cannot by themselves
// reject a vaddr outside the region the two L2 slots cover — a large
// enough vaddr would alias back into slot 0 or 1 instead of failing. Alloc
// checks the real range explicitly so a runaway user vaddr is rejected
// rather than silently aliased.
func (pt *PageTable) Alloc(vaddr uint64) (uint64, error) {
	if vaddr < hal.UserImgBase || vaddr-hal.UserImgBase > hal.UserImgMask {
		return 0, ErrOutOfRange{vaddr}
	}
	l3, idx, err := pt.l3For(vaddr)
	if err != nil {
		return 0, err
	}
	if e := l3.get(idx); e.IsValid() {
		return e.Addr(), nil
	}
	frame := pt.alloc.Alloc(hal.PageSize, hal.PageSize)
	if frame == 0 {
		return 0, fmt.Errorf("vmm: out of memory allocating user page")
	}
	l3.set(idx, NewPageEntry(uint64(frame), PermUserRW, AttrNormal, ShInner))
	return uint64(frame), nil
}

// RootPhysAddr returns the physical address of this table's L2Table, the
// value a process stamps into TTBR1_EL1 (or TTBR0_EL1 for the kernel
// table) to activate it.
func (pt *PageTable) RootPhysAddr() uint64 { return uint64(uintptr(unsafe.Pointer(pt.l2))) }

// AllocPage installs a fresh page at vaddr (as Alloc) and returns a byte
// slice viewing its contents, the "mutable byte slice over the page" the
// loader writes a user image's bytes into.
func (pt *PageTable) AllocPage(vaddr uint64) ([]byte, error) {
	frame, err := pt.Alloc(vaddr)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(frame))), hal.PageSize), nil
}

// Lookup translates vaddr to its mapped physical address, reporting ok
// false if no page is resident there.
func (pt *PageTable) Lookup(vaddr uint64) (paddr uint64, ok bool) {
	l2i := l2Index(vaddr)
	if pt.l2.l3[l2i] == nil {
		return 0, false
	}
	e := pt.l2.l3[l2i].get(l3Index(vaddr))
	if !e.IsValid() {
		return 0, false
	}
	return e.Addr() | (vaddr & (hal.PageSize - 1)), true
}

// Debug renders a truncated dump of pt: the L2 slots, then for each
// populated L3 table the first 32 entries and the last 8 (reversed),
// matching the teacher's own PageTable fmt::Debug truncation rather than
// dumping all EntriesPerTable descriptors.
func (pt *PageTable) Debug() string {
	var b strings.Builder
	fmt.Fprintf(&b, "L2: %v\n", pt.l2.entries)
	for i, t := range pt.l2.l3 {
		if t == nil {
			continue
		}
		fmt.Fprintf(&b, "L3[%d] first 32: %v\n", i, t.entries[:32])
		last := t.entries[EntriesPerTable-8:]
		fmt.Fprintf(&b, "L3[%d] last 8 (reversed):", i)
		for j := len(last) - 1; j >= 0; j-- {
			fmt.Fprintf(&b, " %#x", uint64(last[j]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// String implements fmt.Stringer with the same truncated dump Debug
// returns.
func (pt *PageTable) String() string { return pt.Debug() }

// Teardown returns every page frame and L3 table this table owns to the
// allocator. It does not attempt to coalesce frees across size classes,
// matching the allocator's no-coalescing contract.
func (pt *PageTable) Teardown() {
	for i, t := range pt.l2.l3 {
		if t == nil {
			continue
		}
		for idx := 0; idx < EntriesPerTable; idx++ {
			if e := t.get(idx); e.IsValid() {
				pt.alloc.Dealloc(uintptr(e.Addr()), hal.PageSize, hal.PageSize)
			}
		}
		pt.alloc.Dealloc(uintptr(t.physAddr()), unsafe.Sizeof(L3Table{}), hal.PageSize)
		pt.l2.l3[i] = nil
		pt.l2.entries[i] = Invalid
	}
}
