package vmm

import (
	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
)

// Teardown frees every non-leaf table frame reachable from root (levels 2
// and 1), then frees root's own frame. Leaf frames — the actual mapped
// pages — are never touched: whoever owns them (Shrink, UnmapRange, or a
// caller managing them directly) is responsible for freeing them
// separately. This mirrors real Sv39 kernels' page-table-only teardown
// (e.g. xv6's freewalk): the structural table frames and the mapped
// content frames have different lifetimes.
//
// size is accepted for symmetry with MapRange/UnmapRange/Grow/Shrink but
// is not needed by the traversal itself: walking every populated
// non-leaf entry of root visits exactly the tables this address space
// ever allocated, regardless of how large the caller believes the
// mapped region to be.
func Teardown(root *Table, rootFrame pmm.Frame, size mem.Size) {
	_ = size
	teardownLevel(root, 2)
	pmm.Default.Free(rootFrame)
}

// teardownLevel recursively frees every non-leaf child table reachable
// from t, a table at the given level (2 or 1). Level 0 tables contain
// only leaf entries (or are absent), so a call on a level-0 table returns
// at once and the recursion bottoms out there.
func teardownLevel(t *Table, level int) {
	if level == 0 {
		return
	}

	for i := range t {
		pte := &t[i]
		if !pte.Valid() || pte.Leaf() {
			continue
		}

		child := tableAt(pte.Frame().Address())
		teardownLevel(child, level-1)
		pmm.Default.Free(pte.Frame())
	}
}
