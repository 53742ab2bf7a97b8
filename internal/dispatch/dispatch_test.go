package dispatch

import (
	"testing"

	"pikernel/internal/intc"
	"pikernel/internal/irq"
	"pikernel/internal/trap"
)

type fakeRegs struct {
	pending [2]uint32
	enabled [2]uint32
}

func (f *fakeRegs) Pending(bank int) uint32      { return f.pending[bank] }
func (f *fakeRegs) Enable(bank int, mask uint32) { f.enabled[bank] |= mask }
func (f *fakeRegs) Disable(bank int, mask uint32) { f.enabled[bank] &^= mask }

type fakeSyscall struct {
	called bool
	svc    uint16
}

func (f *fakeSyscall) Dispatch(tf *trap.TrapFrame, svc uint16) {
	f.called = true
	f.svc = svc
}

type fakeDebugger struct{ called bool }

func (f *fakeDebugger) Break(tf *trap.TrapFrame) { f.called = true }

type fakeLogger struct{ lines []string }

func (f *fakeLogger) Logf(format string, args ...interface{}) {
	f.lines = append(f.lines, format)
}

func newDispatcher() (*Dispatcher, *fakeRegs, *irq.Registry, *fakeSyscall, *fakeDebugger, *fakeLogger) {
	regs := &fakeRegs{}
	ic := intc.New(regs)
	reg := irq.New()
	sc := &fakeSyscall{}
	dbg := &fakeDebugger{}
	log := &fakeLogger{}
	return New(ic, reg, sc, dbg, log), regs, reg, sc, dbg, log
}

func TestSvcRoutesToSyscall(t *testing.T) {
	d, _, _, sc, _, _ := newDispatcher()
	var tf trap.TrapFrame
	esr := uint64(0x15)<<26 | 2 // SVC #2 (exit)

	d.HandleException(trap.Info{Kind: trap.KindSynchronous}, esr, &tf)
	if !sc.called || sc.svc != 2 {
		t.Errorf("syscall dispatch: called=%v svc=%d, want true/2", sc.called, sc.svc)
	}
}

func TestBrkEntersDebuggerAndSkipsInstruction(t *testing.T) {
	d, _, _, _, dbg, _ := newDispatcher()
	tf := trap.TrapFrame{ELR: 0x1000}
	esr := uint64(0x3C) << 26

	d.HandleException(trap.Info{Kind: trap.KindSynchronous}, esr, &tf)
	if !dbg.called {
		t.Error("Brk did not invoke the debugger")
	}
	if tf.ELR != 0x1004 {
		t.Errorf("ELR = %#x, want %#x (advanced by 4)", tf.ELR, 0x1004)
	}
}

func TestUnhandledSynchronousLogs(t *testing.T) {
	d, _, _, _, _, log := newDispatcher()
	var tf trap.TrapFrame
	esr := uint64(0x24) << 26 // DataAbort

	d.HandleException(trap.Info{Kind: trap.KindSynchronous}, esr, &tf)
	if len(log.lines) == 0 {
		t.Error("unhandled DataAbort did not log")
	}
}

func TestIRQInvokesRegisteredHandlerForPendingSource(t *testing.T) {
	d, regs, reg, _, _, _ := newDispatcher()
	regs.pending[0] = 1 << 1 // Timer1's bit

	invoked := false
	reg.Register(intc.Timer1, func(tf *trap.TrapFrame) { invoked = true })

	var tf trap.TrapFrame
	d.HandleException(trap.Info{Kind: trap.KindIRQ}, 0, &tf)
	if !invoked {
		t.Error("pending Timer1 IRQ did not invoke its handler")
	}
}

func TestIRQSkipsNonPendingSources(t *testing.T) {
	d, _, reg, _, _, _ := newDispatcher()
	invoked := false
	reg.Register(intc.Uart, func(tf *trap.TrapFrame) { invoked = true })

	var tf trap.TrapFrame
	d.HandleException(trap.Info{Kind: trap.KindIRQ}, 0, &tf)
	if invoked {
		t.Error("non-pending Uart IRQ invoked its handler")
	}
}

func TestFIQLogsAndReturns(t *testing.T) {
	d, _, _, _, _, log := newDispatcher()
	var tf trap.TrapFrame
	d.HandleException(trap.Info{Kind: trap.KindFIQ}, 0, &tf)
	if len(log.lines) == 0 {
		t.Error("FIQ did not log")
	}
}
