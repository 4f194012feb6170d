// Package trap implements spec.md §4.4's trap dispatch: decoding scause
// on entry to Kerneltrap and routing to the right handler. The actual
// trap vector — the assembly stub that saves registers and calls
// Kerneltrap — is out of scope (spec.md §1, §4.4); TrapInitHart only
// installs its address, obtained from platform.KernelVecAddr, into stvec.
package trap

import (
	"sync/atomic"

	"github.com/doodah30/riscv-os/kernel/diag"
	"github.com/doodah30/riscv-os/kernel/kfmt"
	"github.com/doodah30/riscv-os/platform"
)

// scause interrupt-bit and cause-code layout.
const (
	interruptBit = uint64(1) << 63
	causeMask    = interruptBit - 1

	// causeSTI is the Supervisor Timer Interrupt cause code.
	causeSTI = 5
	// causeSEI is the Supervisor External Interrupt cause code.
	causeSEI = 9
)

// IRQHandler handles one device's PLIC interrupt.
type IRQHandler func(irq uint32)

// ticks is the monotonic timer-interrupt counter spec.md §6 exposes via
// Ticks. It is only ever incremented from the timer-interrupt path, but
// read from arbitrary contexts, hence the atomic access.
var ticks uint64

// The indirections below mirror the teacher's flushTLBEntryFn/switchPDTFn
// pattern: Kerneltrap calls these package vars rather than platform.* directly,
// so trap_test.go can substitute fakes for the CSR reads without reaching into
// the platform package's own internals.
var (
	readSCauseFn    = platform.ReadSCause
	readSepcFn      = platform.ReadSepc
	readStvalFn     = platform.ReadStval
	readTimeFn      = platform.ReadTime
	writeStimecmpFn = platform.WriteStimecmp
	plicClaimFn     = platform.PlicClaim
	plicCompleteFn  = platform.PlicComplete
	haltFn          = platform.Halt
	clearSipSTIEFn  = platform.ClearSipSTIE
)

// heartbeatInterval is how often (in ticks) the timer path logs a
// heartbeat line, per spec.md §4.4's dispatch table.
const heartbeatInterval = 100

// irqHandlers maps a PLIC IRQ number to the handler registered for it.
// spec.md §4.4 says external interrupts are dispatched "to its handler"
// for known devices without specifying how devices register one; this is
// this repository's answer, generalized from the teacher's
// HandleExceptionWithCode per-exception registration table to
// per-IRQ-line registration.
var irqHandlers = map[uint32]IRQHandler{}

// RegisterIRQHandler installs h as the handler for irq. Registering a
// second handler for the same irq replaces the first; TrapInitHart does
// not call this, callers (device drivers) do, before enabling the
// corresponding interrupt source.
func RegisterIRQHandler(irq uint32, h IRQHandler) {
	irqHandlers[irq] = h
}

// Ticks returns the number of supervisor timer interrupts handled so far.
// The counter is a single package-level value shared by every hart that
// takes timer interrupts, not a per-hart count.
func Ticks() uint64 {
	return atomic.LoadUint64(&ticks)
}

// TrapInitHart installs the trap-vector stub's address into stvec for the
// calling hart and arms the first timer interrupt. It must run after
// kas.Kvminithart has activated paging, since the trap vector address is
// a kernel virtual address.
func TrapInitHart() {
	platform.WriteStvec(platform.KernelVecAddr())
	armNextTick()
}

// armNextTick schedules the next timer interrupt TimerInterval ticks from
// now.
func armNextTick() {
	writeStimecmpFn(readTimeFn() + platform.TimerInterval)
}

// Kerneltrap is called by the assembly trap vector on every trap taken
// while already in supervisor mode. It decodes scause and dispatches per
// spec.md §4.4's table: a timer interrupt bumps Ticks and re-arms the
// next one; an external interrupt claims, dispatches, and completes the
// PLIC cycle; anything else (an unknown interrupt code or any synchronous
// exception) is fatal — this kernel has no page-fault or syscall handling
// to fall back to (spec.md's Non-goals rule out user processes entirely).
func Kerneltrap() {
	scause := readSCauseFn()

	if scause&interruptBit != 0 {
		switch scause & causeMask {
		case causeSTI:
			n := atomic.AddUint64(&ticks, 1)
			if n%heartbeatInterval == 0 {
				kfmt.Printf("trap: heartbeat, ticks=%d\n", n)
			}
			armNextTick()
			clearSipSTIEFn()
			return
		case causeSEI:
			dispatchExternalInterrupt()
			return
		default:
			fatal(scause)
		}
		return
	}

	fatal(scause)
}

// dispatchExternalInterrupt runs the PLIC claim/dispatch/complete cycle.
// An IRQ with no registered handler is completed and logged rather than
// treated as fatal: spec.md §4.4's fatal case is reserved for unrecognized
// *interrupt kinds* (unknown scause codes), not a device that simply has
// no driver registered yet.
func dispatchExternalInterrupt() {
	irq := plicClaimFn()
	if irq == 0 {
		return
	}

	if h, ok := irqHandlers[irq]; ok {
		h(irq)
	} else {
		kfmt.Printf("trap: no handler registered for irq %d\n", irq)
	}

	plicCompleteFn(irq)
}

// fatal handles an unrecognized or synchronous trap: dump diagnostic
// state and halt. There is no recovery path for a synchronous exception
// in a kernel with no user-mode faulting code.
func fatal(scause uint64) {
	diag.DumpTrapFrame(scause, readSepcFn(), readStvalFn(), 0)
	haltFn()
}
