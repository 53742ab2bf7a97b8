// Package intc is the interrupt controller collaborator: it knows which
// of the eight interrupt sources the kernel cares about are pending, and
// lets the bootstrap enable/disable them. The register layout is grounded
// on lib/pi/src/interrupt.rs (original_source) and the fixed base in
// spec.md §6.
package intc

// Interrupt identifies one of the sources the kernel's IRQ registry can
// route. Values match the real IRQ numbers on the controller, not the
// compact index used to address the registry (see Index).
type Interrupt uint32

const (
	Timer1 Interrupt = 1
	Timer3 Interrupt = 3
	Usb    Interrupt = 9
	Gpio0  Interrupt = 49
	Gpio1  Interrupt = 50
	Gpio2  Interrupt = 51
	Gpio3  Interrupt = 52
	Uart   Interrupt = 57
)

// MaxInterrupts is the fixed size of the IRQ registry (internal/irq).
const MaxInterrupts = 8

// All enumerates every interrupt source the dispatcher polls on an IRQ
// exception, in registry-index order.
func All() []Interrupt {
	return []Interrupt{Timer1, Timer3, Usb, Gpio0, Gpio1, Gpio2, Gpio3, Uart}
}

// Index maps an Interrupt to its slot in the fixed 8-entry registry.
func (i Interrupt) Index() int {
	switch i {
	case Timer1:
		return 0
	case Timer3:
		return 1
	case Usb:
		return 2
	case Gpio0:
		return 3
	case Gpio1:
		return 4
	case Gpio2:
		return 5
	case Gpio3:
		return 6
	case Uart:
		return 7
	default:
		panic("intc: unknown interrupt")
	}
}

func (i Interrupt) String() string {
	switch i {
	case Timer1:
		return "Timer1"
	case Timer3:
		return "Timer3"
	case Usb:
		return "Usb"
	case Gpio0:
		return "Gpio0"
	case Gpio1:
		return "Gpio1"
	case Gpio2:
		return "Gpio2"
	case Gpio3:
		return "Gpio3"
	case Uart:
		return "Uart"
	default:
		return "Unknown"
	}
}

// bankBit splits an interrupt's raw number into (bank, bit) for the
// two-bank {IRQ_ENABLE,IRQ_DISABLE,IRQ_PENDING}[2] register pairs.
func bankBit(i Interrupt) (bank int, bit uint32) {
	v := uint32(i)
	if v < 32 {
		return 0, v
	}
	return 1, v - 32
}

// Regs abstracts the ten interrupt-controller registers (basic pending,
// two pending banks, FIQ control, two enable banks, basic enable, two
// disable banks, basic disable) so Controller's logic is testable without
// real MMIO. The arm64 build provides an implementation backed by
// hal.MMIORead/MMIOWrite at IO_BASE + 0xB200 (see intc_mmio_arm64.go).
type Regs interface {
	Pending(bank int) uint32
	Enable(bank int, mask uint32)
	Disable(bank int, mask uint32)
}

// Controller is a handle to the interrupt controller.
type Controller struct {
	regs Regs
}

// New returns a Controller driving regs.
func New(regs Regs) *Controller {
	return &Controller{regs: regs}
}

// Enable enables the interrupt i.
func (c *Controller) Enable(i Interrupt) {
	bank, bit := bankBit(i)
	c.regs.Enable(bank, 1<<bit)
}

// Disable disables the interrupt i.
func (c *Controller) Disable(i Interrupt) {
	bank, bit := bankBit(i)
	c.regs.Disable(bank, 1<<bit)
}

// IsPending reports whether i currently has an unserviced interrupt.
func (c *Controller) IsPending(i Interrupt) bool {
	bank, bit := bankBit(i)
	return c.regs.Pending(bank)&(1<<bit) != 0
}
