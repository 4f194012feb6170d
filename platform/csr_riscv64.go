//go:build riscv64

package platform

// The functions below have no Go body: they are implemented in the
// assembly stub that backs this core's machine-mode bootstrap and trap
// vector, both explicitly out of scope for this repository (spec.md §1,
// §4.4). This is the same idiom the teacher uses for cpu.Halt and
// vmm.switchPDT: a bare declaration, body supplied at link time.

// hwReadTime reads the mtime CSR (via the sstc extension or an SBI call).
func hwReadTime() uint64

// hwWriteStimecmp programs the stimecmp CSR to deadline.
func hwWriteStimecmp(deadline uint64)

// hwSfenceVMA executes sfence.vma, invalidating the entire TLB.
func hwSfenceVMA()

// hwSfenceVMAVa executes sfence.vma for a single virtual address.
func hwSfenceVMAVa(va uint64)

// hwWriteSatp programs the satp CSR, activating Sv39 paging with the given
// root page table's physical page number.
func hwWriteSatp(ppn uint64)

// hwReadSCause reads the scause CSR.
func hwReadSCause() uint64

// hwReadSepc reads the sepc CSR.
func hwReadSepc() uint64

// hwReadStval reads the stval CSR.
func hwReadStval() uint64

// hwWriteStvec installs the trap-vector address.
func hwWriteStvec(addr uint64)

// hwPutChar writes a single byte to the UART transmit register, spinning
// until the transmit FIFO has room.
func hwPutChar(c byte)

// hwPlicInit performs PLIC-wide (not per-hart) initialization.
func hwPlicInit()

// hwPlicInitHart enables and sets the priority threshold for the calling
// hart's PLIC context.
func hwPlicInitHart()

// hwPlicClaim claims the highest-priority pending IRQ, or 0 if none.
func hwPlicClaim() uint32

// hwPlicComplete signals completion of handling for irq.
func hwPlicComplete(irq uint32)

// hwKernelVecAddr returns the address of the assembly trap-vector stub
// (spec.md §4.4's "out of scope" trap entry point) that TrapInitHart
// installs into stvec.
func hwKernelVecAddr() uint64

// hwHalt parks the calling hart (wfi in a loop), matching the teacher's
// cpu.Halt body-less idiom. Used by the fatal-exception path: there is
// nothing left to run once a synchronous exception with no handler has
// been diagnosed.
func hwHalt()

// hwClearSipSTIE clears the STIE bit in sip, acknowledging the supervisor
// timer interrupt so it does not refire before the next stimecmp deadline.
func hwClearSipSTIE()
