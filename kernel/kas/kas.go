// Package kas builds and activates the kernel's own address space:
// spec.md §4.3's Kvminit (construct the mappings, paging still disabled)
// and Kvminithart (turn Sv39 paging on for the calling hart). Every
// mapping goes through KernelMap, a single internal helper, so the
// argument-order inconsistency spec.md §9 flags in the original design
// (some call sites passing (va, pa, size, perm), others (va, size, pa,
// perm)) cannot recur here: there is exactly one call shape.
package kas

import (
	"github.com/doodah30/riscv-os/kernel/kerror"
	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
	"github.com/doodah30/riscv-os/kernel/mem/vmm"
	"github.com/doodah30/riscv-os/platform"
)

// region describes one fixed mapping Kvminit installs into the kernel
// page table.
type region struct {
	name string
	va   mem.Va
	pa   mem.Pa
	size mem.Size
	perm vmm.PTE
}

var (
	// kernelRoot is the kernel's own root page table, built once by
	// Kvminit and activated by Kvminithart on every hart that calls it.
	kernelRoot  *vmm.Table
	kernelFrame pmm.Frame

	// initDone guards Kvminit's idempotence: a second call is a no-op,
	// per spec.md §4.3.
	initDone bool
)

// ErrNotInitialized is returned by Kvminithart if called before Kvminit
// has successfully completed on any hart.
var ErrNotInitialized = &kerror.Error{Module: "kas", Message: "kernel address space not initialized"}

// KernelMap installs one mapping into the kernel address space using the
// uniform (va, size, pa, perm) argument order, the single call shape
// every Kvminit region list below uses.
func KernelMap(va mem.Va, size mem.Size, pa mem.Pa, perm vmm.PTE) error {
	return vmm.MapRange(kernelRoot, va, size, pa, perm, pmm.Default.Alloc)
}

// regions returns the fixed list of windows Kvminit maps, built from
// platform constants. A region whose platform constant is the zero value
// (not present on this board, e.g. platform.VIRTIO0 on a board without
// VirtIO) is omitted rather than mapped at physical address 0.
func regions() []region {
	rs := []region{
		{"uart", mem.Va(platform.UART0), platform.UART0, mem.PageSize, vmm.FlagR | vmm.FlagW},
		{"plic", mem.Va(platform.PLIC), platform.PLIC, 0x400000, vmm.FlagR | vmm.FlagW},
		{"clint", mem.Va(platform.CLINT), platform.CLINT, 0x10000, vmm.FlagR | vmm.FlagW},
		{"kernel-arena", mem.Va(platform.KERNBASE), platform.KERNBASE,
			mem.Size(uint64(platform.PHYSTOP) - uint64(platform.KERNBASE)),
			vmm.FlagR | vmm.FlagW | vmm.FlagX},
		{"virtio0", mem.Va(platform.VIRTIO0), platform.VIRTIO0, mem.PageSize, vmm.FlagR | vmm.FlagW},
	}

	present := rs[:0]
	for _, r := range rs {
		if r.pa != 0 {
			present = append(present, r)
		}
	}

	return present
}

// Kvminit constructs the kernel's page table in memory, mapping the fixed
// region list above. Paging is not yet active when this runs (or has not
// been activated on the calling hart) — Kvminithart is what does that. A
// second call to Kvminit after the first has succeeded is a no-op.
func Kvminit() error {
	if initDone {
		return nil
	}

	root, frame, err := vmm.CreateRoot(pmm.Default.Alloc)
	if err != nil {
		return err
	}

	kernelRoot, kernelFrame = root, frame

	for _, r := range regions() {
		if err := KernelMap(r.va, r.size, r.pa, r.perm); err != nil {
			kernelRoot, kernelFrame = nil, pmm.NoFrame
			return err
		}
	}

	initDone = true
	return nil
}

// Kvminithart activates Sv39 paging on the calling hart using the table
// Kvminit built. It must be called once per hart, after Kvminit has
// completed (by any hart — the page table is shared).
func Kvminithart() error {
	if !initDone {
		return ErrNotInitialized
	}

	ppn := uint64(kernelFrame.Address()) >> mem.PGSHIFT
	platform.WriteSatp(ppn)
	platform.SfenceVMA()
	return nil
}
