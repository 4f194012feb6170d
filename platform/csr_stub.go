//go:build !riscv64

package platform

// This build tag only matters for `go test`: the kernel is never built for
// any GOARCH other than riscv64. These stand-ins let the rest of kernel/
// compile and exercise its logic on a hosted development machine, where
// there is no UART, PLIC, or satp CSR to touch. They hold just enough
// state to make the package's own tests meaningful; real semantics are in
// csr_riscv64.go.

import "sync/atomic"

var stubClock uint64

func hwReadTime() uint64 { return atomic.LoadUint64(&stubClock) }

func hwWriteStimecmp(deadline uint64) { atomic.StoreUint64(&stubClock, deadline) }

func hwSfenceVMA() {}

func hwSfenceVMAVa(va uint64) {}

func hwWriteSatp(ppn uint64) {}

func hwReadSCause() uint64 { return 0 }

func hwReadSepc() uint64 { return 0 }

func hwReadStval() uint64 { return 0 }

func hwWriteStvec(addr uint64) {}

func hwPutChar(c byte) {}

func hwPlicInit() {}

func hwPlicInitHart() {}

func hwPlicClaim() uint32 { return 0 }

func hwPlicComplete(irq uint32) {}

func hwKernelVecAddr() uint64 { return 0 }

func hwHalt() {}

func hwClearSipSTIE() {}
