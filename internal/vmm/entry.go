// Package vmm implements the two-level (L2/L3) AArch64 translation table
// manager: the kernel identity map and per-process user address spaces.
// Grounded on kern/src/vm/pagetable.rs (original_source) for the L2/L3
// structure and descriptor fields, and on the teacher's bitfield package
// for the "pack a hardware word from named fields" idiom — applied here
// directly as bit constants (rather than through reflection) because a
// page-table entry is written on every page-in, a path where reflect-based
// packing would be an unjustified allocation and speed cost the teacher
// itself avoids by hand-coding VMSA bit constants.
package vmm

// EntryAttr selects the MAIR attribute index: Normal cacheable memory, or
// Device (peripheral MMIO).
type EntryAttr uint64

const (
	AttrNormal EntryAttr = 0
	AttrDevice EntryAttr = 1
)

// EntryPerm selects the access-permission bits.
type EntryPerm uint64

const (
	PermKernRW EntryPerm = 0
	PermUserRW EntryPerm = 1
)

// EntrySh selects the shareability domain, using the real ARMv8 encoding
// (0b10 outer shareable, 0b11 inner shareable).
type EntrySh uint64

const (
	ShOuter EntrySh = 0b10
	ShInner EntrySh = 0b11
)

// Raw descriptor bit layout, common to L2 (table) and L3 (page) entries.
const (
	bitValid    = 1 << 0
	bitType     = 1 << 1 // table/page marker; always 1 for the entries we build
	attrShift   = 2
	attrMask    = 0x7 << attrShift
	apShift     = 6
	apMask      = 0x3 << apShift
	shShift     = 8
	shMask      = 0x3 << shShift
	bitAF       = 1 << 10
	addrShift   = 16
	addrLowBits = 48 // physical address bits [47:16] per spec.md §3
	addrMask    = ((uint64(1) << addrLowBits) - 1) &^ ((uint64(1) << addrShift) - 1)
)

// RawEntry is a 64-bit AArch64 translation descriptor. The same encoding
// serves both L2 (pointing at an L3 table) and L3 (pointing at a page or
// MMIO frame) entries; only the semantics of "what ADDR points to" differ.
type RawEntry uint64

// NewTableEntry builds an L2 entry pointing at an L3 table physical
// address, matching PageTable::new's per-slot fill in pagetable.rs.
func NewTableEntry(l3PhysAddr uint64, perm EntryPerm) RawEntry {
	var e uint64
	e |= bitValid
	e |= bitType
	e |= bitAF
	e |= (uint64(perm) << apShift) & apMask
	e |= l3PhysAddr & addrMask
	return RawEntry(e)
}

// NewPageEntry builds an L3 entry mapping a physical page/frame.
func NewPageEntry(physAddr uint64, perm EntryPerm, attr EntryAttr, sh EntrySh) RawEntry {
	var e uint64
	e |= bitValid
	e |= bitType
	e |= bitAF
	e |= (uint64(attr) << attrShift) & attrMask
	e |= (uint64(perm) << apShift) & apMask
	e |= (uint64(sh) << shShift) & shMask
	e |= physAddr & addrMask
	return RawEntry(e)
}

// IsValid reports whether the entry's VALID bit is set.
func (e RawEntry) IsValid() bool { return uint64(e)&bitValid != 0 }

// Addr extracts the physical address field, valid only if IsValid is true.
func (e RawEntry) Addr() uint64 { return uint64(e) & addrMask }

// Invalid is the zero-value "unmapped" descriptor.
const Invalid RawEntry = 0
