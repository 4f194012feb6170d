package vmm

import (
	"github.com/doodah30/riscv-os/kernel/kerror"
	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
	"github.com/doodah30/riscv-os/platform"
)

// Errors this package can return. ErrOutOfMemory is not declared here: a
// failed allocation surfaces as pmm.ErrOutOfMemory itself, unwrapped, per
// spec.md §7's propagation rule.
var (
	// ErrAlreadyMapped is returned by MapRange when any page in the
	// requested range already has a valid mapping.
	ErrAlreadyMapped = &kerror.Error{Module: "vmm", Message: "page already mapped"}

	// ErrInvalidArgument is returned by Grow when newSize <= oldSize. No
	// other function in this package returns it; a zero-size MapRange or
	// UnmapRange is a no-op.
	ErrInvalidArgument = &kerror.Error{Module: "vmm", Message: "invalid argument"}
)

// defaultPerm is applied by Grow to newly mapped anonymous pages:
// read/write/user-accessible, not executable, per spec.md §4.2's Grow
// contract ("map it with permissions R|W|U").
const defaultPerm = FlagR | FlagW | FlagU

// CreateRoot allocates and returns a fresh, empty root table (level 2)
// along with the frame backing it. The returned table is already
// zero-filled because FrameAllocFn frames always are (pmm.Allocator.Alloc
// zeroes on allocation, not on free).
func CreateRoot(allocFn FrameAllocFn) (*Table, pmm.Frame, error) {
	f, ok := allocFn()
	if !ok {
		return nil, pmm.NoFrame, pmm.ErrOutOfMemory
	}
	return tableAt(f.Address()), f, nil
}

// Walk returns the level-0 PTE governing va, allocating intermediate
// tables along the way when alloc is true. It returns nil, nil when no
// mapping exists and alloc is false, or nil, pmm.ErrOutOfMemory when an
// intermediate table needed allocating but the allocator was exhausted.
func Walk(root *Table, va mem.Va, alloc bool, allocFn FrameAllocFn) (*PTE, error) {
	pte := walk(root, va, alloc, allocFn)
	if pte == nil && alloc {
		return nil, pmm.ErrOutOfMemory
	}
	return pte, nil
}

// pageRange returns the inclusive first and last page-aligned virtual
// addresses covered by [va, va+size). last is va+size-1 rounded down, so a
// range that ends exactly at the top of the address space does not
// overflow; the callers then walk from first to last and stop on equality
// rather than stepping one page past last, which could wrap.
func pageRange(va mem.Va, size mem.Size) (first, last mem.Va) {
	first = va.PageRoundDown()
	last = mem.Va(uint64(va)+uint64(size)-1) &^ (mem.PGSIZE - 1)
	return first, last
}

// MapRange installs mappings for every page in [va, va+size) to the
// correspondingly offset physical pages starting at pa, with permission
// bits perm. va and pa are rounded down to a page boundary and every page
// that overlaps [va, va+size) is mapped: exactly ceil(size/PGSIZE) pages
// for a page-aligned va, one more when an unaligned va makes the range
// straddle an extra page boundary. Every page in
// the range must be currently unmapped — MapRange never overwrites an
// existing valid leaf, returning ErrAlreadyMapped instead, leaving any
// pages it mapped before hitting the conflict in place (spec.md's MapRange
// is not transactional; a caller that needs all-or-nothing semantics
// calls UnmapRange itself on failure).
func MapRange(root *Table, va mem.Va, size mem.Size, pa mem.Pa, perm PTE, allocFn FrameAllocFn) error {
	if size == 0 {
		return nil
	}

	first, last := pageRange(va, size)
	p := pa.PageRoundDown()

	a := first
	for {
		pte, err := Walk(root, a, true, allocFn)
		if err != nil {
			return err
		}
		if pte.Valid() {
			return ErrAlreadyMapped
		}

		*pte = 0
		pte.SetFrame(pmm.Frame(p))
		pte.SetFlags(FlagV | perm)

		if a == last {
			break
		}
		a = a.Add(mem.PGSIZE)
		p += mem.PGSIZE
	}

	platform.SfenceVMA()
	return nil
}

// UnmapRange clears the mapping for every page in [va, va+size) and frees
// the frame each mapped page pointed at back to pmm.Default. Pages in the
// range that are already unmapped are skipped. UnmapRange always frees,
// never merely unmaps, so a caller that does not own the backing frames
// must not call it on them; Clone (clone.go) gives the copy frames of its
// own, which the holder of the copy may unmap freely.
func UnmapRange(root *Table, va mem.Va, size mem.Size) {
	if size == 0 {
		return
	}

	first, last := pageRange(va, size)

	for a := first; ; a = a.Add(mem.PGSIZE) {
		pte, _ := Walk(root, a, false, nil)
		if pte != nil && pte.Valid() {
			pmm.Default.Free(pte.Frame())
			*pte = 0
		}
		if a == last {
			break
		}
	}

	platform.SfenceVMA()
}

// Resolve translates va to its mapped physical address, or returns 0 if
// va has no valid leaf mapping. 0 doubles as "no mapping" because this
// kernel never maps physical address 0 (it sits below platform.KERNBASE),
// matching spec.md §4.2's literal contract.
func Resolve(root *Table, va mem.Va) mem.Pa {
	pte, _ := Walk(root, va, false, nil)
	if pte == nil || !pte.Leaf() {
		return 0
	}
	return mem.Pa(pte.PPN()<<mem.PGSHIFT) | mem.Pa(va.PageOffset())
}
