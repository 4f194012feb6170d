package platform

// Each exported primitive below is a thin wrapper around an indirection
// variable, following the teacher's flushTLBEntryFn/switchPDTFn pattern
// (kernel/mem/vmm/map.go, kernel/mem/vmm/pdt.go): tests substitute the var
// with a fake to exercise callers without touching real hardware state.
var (
	readTimeFn      = hwReadTime
	writeStimecmpFn = hwWriteStimecmp
	sfenceVMAFn     = hwSfenceVMA
	sfenceVMAVaFn   = hwSfenceVMAVa
	writeSatpFn     = hwWriteSatp
	readSCauseFn    = hwReadSCause
	readSepcFn      = hwReadSepc
	readStvalFn     = hwReadStval
	writeStvecFn    = hwWriteStvec
	putCharFn       = hwPutChar
	plicInitFn      = hwPlicInit
	plicInitHartFn  = hwPlicInitHart
	plicClaimFn     = hwPlicClaim
	plicCompleteFn  = hwPlicComplete
	kernelVecAddrFn = hwKernelVecAddr
	haltFn          = hwHalt
	clearSipSTIEFn  = hwClearSipSTIE
)

// ReadTime returns the current value of the mtime counter.
func ReadTime() uint64 { return readTimeFn() }

// WriteStimecmp arms the next timer interrupt for deadline.
func WriteStimecmp(deadline uint64) { writeStimecmpFn(deadline) }

// SfenceVMA invalidates the entire TLB on the calling hart.
func SfenceVMA() { sfenceVMAFn() }

// SfenceVMAVa invalidates the TLB entry for a single virtual address.
func SfenceVMAVa(va uint64) { sfenceVMAVaFn(va) }

// WriteSatp activates Sv39 paging with the root table at physical page
// number ppn.
func WriteSatp(ppn uint64) { writeSatpFn(ppn) }

// ReadSCause returns the scause CSR.
func ReadSCause() uint64 { return readSCauseFn() }

// ReadSepc returns the sepc CSR.
func ReadSepc() uint64 { return readSepcFn() }

// ReadStval returns the stval CSR.
func ReadStval() uint64 { return readStvalFn() }

// WriteStvec installs the trap-vector entry address.
func WriteStvec(addr uint64) { writeStvecFn(addr) }

// PutChar writes a single byte to the UART.
func PutChar(c byte) { putCharFn(c) }

// PutStr writes s to the UART one byte at a time.
func PutStr(s string) {
	for i := 0; i < len(s); i++ {
		PutChar(s[i])
	}
}

// PlicInit performs PLIC-wide initialization. Safe to call once, from one
// hart, before any hart calls PlicInitHart.
func PlicInit() { plicInitFn() }

// PlicInitHart enables the calling hart's PLIC context.
func PlicInitHart() { plicInitHartFn() }

// PlicClaim claims the highest-priority pending IRQ, returning 0 if none
// is pending.
func PlicClaim() uint32 { return plicClaimFn() }

// PlicComplete signals that irq has been fully handled.
func PlicComplete(irq uint32) { plicCompleteFn(irq) }

// KernelVecAddr returns the address of the assembly trap-vector stub.
func KernelVecAddr() uint64 { return kernelVecAddrFn() }

// Halt parks the calling hart; it does not return.
func Halt() { haltFn() }

// ClearSipSTIE clears the pending supervisor-timer-interrupt bit in sip.
func ClearSipSTIE() { clearSipSTIEFn() }
