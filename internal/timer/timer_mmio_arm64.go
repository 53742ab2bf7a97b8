//go:build arm64

package timer

import "pikernel/internal/hal"

// System timer register offsets within IO_BASE, Broadcom layout.
const (
	timerBase = hal.IOBase + 0x3000
	offCS     = 0x00 // control/status: match flags in bits 0-3
	offCLO    = 0x04 // counter low 32 bits
	offCHI    = 0x08 // counter high 32 bits
	offC1     = 0x10 // compare 1 (Timer1)

	matchBit1 = 1 << 1
)

// mmioRegs implements Regs over the real system timer MMIO window.
type mmioRegs struct{}

// Registers returns the live hardware register set.
func Registers() Regs { return mmioRegs{} }

func (mmioRegs) Counter() uint64 {
	hi := uint64(hal.MMIORead(timerBase + offCHI))
	lo := uint64(hal.MMIORead(timerBase + offCLO))
	return hi<<32 | lo
}

func (mmioRegs) SetCompare1(v uint64) {
	hal.MMIOWrite(timerBase+offC1, uint32(v))
}

func (mmioRegs) AckMatch1() {
	hal.MMIOWrite(timerBase+offCS, matchBit1)
}
