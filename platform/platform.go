// Package platform holds the board-specific constants and the CSR/MMIO
// primitives that this kernel core treats as external collaborators: the
// machine-mode bootstrap, the trap-vector assembly stub, and the raw
// register accesses neither has sensible Go semantics for. None of it is
// kernel policy; it is the seam spec.md's EXTERNAL INTERFACES section
// describes.
package platform

import "github.com/doodah30/riscv-os/kernel/mem"

// Board memory layout. These are the fixed MMIO windows of the target
// platform's devicetree; a real multi-board kernel would read them from the
// devicetree blob, but spec.md treats board discovery as out of scope and
// names these as platform constants instead.
const (
	// KERNBASE is the physical address the kernel image is linked at and
	// where the direct-mapped kernel arena begins.
	KERNBASE mem.Pa = 0x80200000

	// PHYSTOP is the first physical address past installed RAM.
	PHYSTOP mem.Pa = 0x88000000

	// UART0 is the NS16550-compatible UART's MMIO base.
	UART0 mem.Pa = 0x10000000

	// PLIC is the platform-level interrupt controller's MMIO base.
	PLIC mem.Pa = 0x0C000000

	// CLINT is the core-local interruptor's MMIO base (timer + software
	// interrupts).
	CLINT mem.Pa = 0x02000000

	// VIRTIO0 is the first VirtIO MMIO transport window. Zero means "not
	// present on this board"; kas.Kvminit omits absent regions.
	VIRTIO0 mem.Pa = 0x10001000

	// NCPU is the number of harts this build supports.
	NCPU = 8

	// TimerInterval is the number of mtime ticks between successive
	// timer interrupts on one hart.
	TimerInterval uint64 = 1000000
)
