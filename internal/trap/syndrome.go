package trap

import (
	"fmt"

	"pikernel/internal/bitfield"
)

// Info mirrors the C-ABI struct the exception vectors pass to
// handle_exception: which of the eight vectors fired, in Source, and the
// broad exception kind.
type Info struct {
	Source uint16
	Kind   Kind
}

// Kind is the coarse exception category, matching AArch64's four taken
// exception classes at a given level.
type Kind uint16

const (
	KindSynchronous Kind = iota
	KindIRQ
	KindFIQ
	KindSError
)

func (k Kind) String() string {
	switch k {
	case KindSynchronous:
		return "Synchronous"
	case KindIRQ:
		return "IRQ"
	case KindFIQ:
		return "FIQ"
	case KindSError:
		return "SError"
	default:
		return "Unknown"
	}
}

// ec is the ESR_EL1 exception class, bits [31:26], real AArch64 encodings.
type ec uint8

const (
	ecSVC             ec = 0x15
	ecBRK             ec = 0x3C
	ecDataAbortLower  ec = 0x24
	ecDataAbortSame   ec = 0x25
	ecInstrAbortLower ec = 0x20
	ecInstrAbortSame  ec = 0x21
)

// SyndromeKind classifies a decoded synchronous exception.
type SyndromeKind int

const (
	Unknown SyndromeKind = iota
	Brk
	Svc
	DataAbort
	InstrAbort
)

func (k SyndromeKind) String() string {
	switch k {
	case Brk:
		return "Brk"
	case Svc:
		return "Svc"
	case DataAbort:
		return "DataAbort"
	case InstrAbort:
		return "InstrAbort"
	default:
		return "Unknown"
	}
}

// Fault classifies the abort-specific status code DataAbort/InstrAbort carry
// in ESR_EL1.ISS[5:0], matching Fault::from(u32) in syndrome.rs.
type Fault int

const (
	FaultNone Fault = iota
	FaultAddressSize
	FaultTranslation
	FaultAccessFlag
	FaultPermission
	FaultAlignment
	FaultTlbConflict
	FaultOther
)

func (f Fault) String() string {
	switch f {
	case FaultAddressSize:
		return "AddressSize"
	case FaultTranslation:
		return "Translation"
	case FaultAccessFlag:
		return "AccessFlag"
	case FaultPermission:
		return "Permission"
	case FaultAlignment:
		return "Alignment"
	case FaultTlbConflict:
		return "TlbConflict"
	case FaultOther:
		return "Other"
	default:
		return "None"
	}
}

// faultFromStatus classifies the 6-bit DFSC/IFSC status code exactly as
// Fault::from(u32) does: contiguous status ranges for each fault family,
// two fixed codes for Alignment/TlbConflict, everything else Other.
func faultFromStatus(status uint8) Fault {
	switch {
	case status <= 0b0011:
		return FaultAddressSize
	case status >= 0b0100 && status <= 0b0111:
		return FaultTranslation
	case status >= 0b1001 && status <= 0b1011:
		return FaultAccessFlag
	case status >= 0b1101 && status <= 0b1111:
		return FaultPermission
	case status == 0b100001:
		return FaultAlignment
	case status == 0b110000:
		return FaultTlbConflict
	default:
		return FaultOther
	}
}

// Syndrome is the decoded form of ESR_EL1 for a synchronous exception.
// Comment carries the 16-bit immediate for Brk/Svc (ESR_EL1.ISS[15:0]); it
// is zero and meaningless for the other kinds. FaultKind/FaultLevel carry
// the abort-specific status for DataAbort/InstrAbort (fault_level in
// syndrome.rs: the status code's low 2 bits); both are zero/FaultNone for
// every other kind.
type Syndrome struct {
	Kind       SyndromeKind
	Comment    uint16
	FaultKind  Fault
	FaultLevel uint8
}

// String renders a structured description of the decoded syndrome, using
// the fault taxonomy for aborts and the immediate for Brk/Svc.
func (s Syndrome) String() string {
	switch s.Kind {
	case DataAbort, InstrAbort:
		return fmt.Sprintf("%v{kind=%v, level=%d}", s.Kind, s.FaultKind, s.FaultLevel)
	case Brk, Svc:
		return fmt.Sprintf("%v(%d)", s.Kind, s.Comment)
	default:
		return s.Kind.String()
	}
}

// esrFields is the bitfield.Unpack shape of ESR_EL1 for a synchronous
// exception: ISS[15:0] as the low 16 bits, 10 bits this decoder ignores,
// then EC in bits [31:26]. A single decode runs per exception, nowhere
// near the page-table hot path internal/vmm avoids reflection on.
type esrFields struct {
	ISS16 uint16 `bitfield:",16"`
	ISSHi uint16 `bitfield:",10"`
	Class uint8  `bitfield:",6"`
}

// DecodeSyndrome extracts EC from esr (bits 31:26) and classifies it.
func DecodeSyndrome(esr uint64) Syndrome {
	var f esrFields
	if err := bitfield.Unpack(esr, &f); err != nil {
		return Syndrome{Kind: Unknown}
	}
	switch ec(f.Class) {
	case ecSVC:
		return Syndrome{Kind: Svc, Comment: f.ISS16}
	case ecBRK:
		return Syndrome{Kind: Brk, Comment: f.ISS16}
	case ecDataAbortLower, ecDataAbortSame:
		status := uint8(f.ISS16 & 0x3F)
		return Syndrome{Kind: DataAbort, FaultKind: faultFromStatus(status), FaultLevel: status & 0b11}
	case ecInstrAbortLower, ecInstrAbortSame:
		status := uint8(f.ISS16 & 0x3F)
		return Syndrome{Kind: InstrAbort, FaultKind: faultFromStatus(status), FaultLevel: status & 0b11}
	default:
		return Syndrome{Kind: Unknown}
	}
}
