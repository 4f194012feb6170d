// Package kernel provides Kmain, the sole Go entry point this core
// exposes to the out-of-scope machine-mode bootstrap (spec.md §1): the
// assembly that sets up an initial stack and satp=0 environment calls
// Kmain once, with paging still disabled, and never expects it to
// return. Grounded on the teacher's kernel/kmain.go (Kmain(multibootInfoPtr
// uintptr), body replaced entirely since there is no multiboot or
// terminal here): the same "single entry point, infinite loop at the end"
// shape, wiring spec.md §2's five components into one boot sequence
// instead of gopher-os's HAL/terminal bring-up.
package kernel

import (
	"github.com/doodah30/riscv-os/kernel/kas"
	"github.com/doodah30/riscv-os/kernel/kfmt"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
	"github.com/doodah30/riscv-os/kernel/trap"
	"github.com/doodah30/riscv-os/platform"
)

// Kmain boots one hart: hart 0 initializes the physical frame allocator
// and builds the kernel address space exactly once; every hart (0
// included) then activates paging and installs its own trap vector. It
// does not return.
//
//go:noinline
func Kmain(hartID int) {
	if hartID == 0 {
		pmm.Default.Init(platform.KERNBASE, platform.PHYSTOP)

		if err := kas.Kvminit(); err != nil {
			Panic(err)
		}
	}

	if err := kas.Kvminithart(); err != nil {
		Panic(err)
	}

	trap.TrapInitHart()

	kfmt.Printf("hart %d: up, kernel arena [0x%x, 0x%x)\n", hartID, uint64(platform.KERNBASE), uint64(platform.PHYSTOP))

	for {
		platform.Halt()
	}
}
