package vmm

import (
	"unsafe"

	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
)

// entriesPerTable is the number of PTEs in one Sv39 page-table level
// (512 entries of 8 bytes each fill exactly one PGSIZE page).
const entriesPerTable = mem.PGSIZE / 8

// Table is one level of the Sv39 radix tree: 512 page-table entries
// occupying exactly one physical page.
type Table [entriesPerTable]PTE

// FrameAllocFn supplies a fresh, zero-filled frame, or ok=false when the
// frame allocator is exhausted. Operations that need to allocate take
// one of these rather than referring to pmm.Default directly, so tests
// can substitute a fake, the same indirection the teacher's
// FrameAllocatorFn provides.
type FrameAllocFn func() (pmm.Frame, bool)

// tableAt reinterprets the physical page at pa as a Table. Valid only
// while paging is disabled (this core's construction-time assumption) or
// while pa is within the kernel's direct map.
func tableAt(pa mem.Pa) *Table {
	return (*Table)(unsafe.Pointer(uintptr(pa)))
}

// TableAt exports tableAt for kernel/diag, which needs to descend into
// child tables while walking the tree top-down for PrintPageTable.
func TableAt(pa mem.Pa) *Table { return tableAt(pa) }

// Entry returns the i'th PTE of t.
func (t *Table) Entry(i int) PTE { return t[i] }

// vpn extracts the 9-bit virtual page number field for the given Sv39
// level (0 = lowest, 2 = highest) out of va.
func vpn(va mem.Va, level uint) uint64 {
	return (uint64(va) >> (mem.PGSHIFT + 9*level)) & 0x1FF
}

// walk descends the three-level radix tree rooted at root to find the
// level-0 PTE governing va. When alloc is true and an intermediate table
// is missing, walk installs a freshly allocated one; when alloc is false,
// a missing intermediate table makes walk return nil. walk never
// allocates the final leaf entry itself — that decision belongs to the
// caller (MapRange refuses to overwrite an already-valid leaf; Resolve
// and UnmapRange only ever read one).
func walk(root *Table, va mem.Va, alloc bool, allocFn FrameAllocFn) *PTE {
	cur := root
	for level := 2; level > 0; level-- {
		slot := &cur[vpn(va, uint(level))]
		if slot.Valid() {
			cur = tableAt(slot.Frame().Address())
			continue
		}

		if !alloc {
			return nil
		}

		child, ok := allocFn()
		if !ok {
			return nil
		}

		*slot = 0
		slot.SetFrame(child)
		slot.SetFlags(FlagV)
		cur = tableAt(child.Address())
	}

	return &cur[vpn(va, 0)]
}
