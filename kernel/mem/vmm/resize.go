package vmm

import (
	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
)

// Grow extends the mapped region of root from oldSize to newSize,
// mapping freshly allocated, zero-filled anonymous pages over the newly
// covered range with R|W|U permission (spec.md §4.2). newSize must be
// strictly greater than oldSize; anything else is ErrInvalidArgument,
// since a Grow that isn't actually growing is a caller bug, not a
// recoverable situation Grow itself should paper over.
//
// If the allocator runs out of frames partway through, Grow unwinds
// every page it mapped during this call (freeing the backing frames and
// clearing the PTEs) before returning pmm.ErrOutOfMemory, so a failed
// Grow never leaves the address space larger than oldSize.
func Grow(root *Table, oldSize, newSize mem.Size, allocFn FrameAllocFn) error {
	if newSize <= oldSize {
		return ErrInvalidArgument
	}

	start := mem.Va(uint64(oldSize)).PageRoundUp()
	end := mem.Va(uint64(newSize)).PageRoundUp()

	var mapped []mem.Va
	for a := start; a < end; a = a.Add(mem.PGSIZE) {
		f, ok := allocFn()
		if !ok {
			unwindGrow(root, mapped)
			return pmm.ErrOutOfMemory
		}

		if err := MapRange(root, a, mem.PageSize, f.Address(), defaultPerm, allocFn); err != nil {
			pmm.Default.Free(f)
			unwindGrow(root, mapped)
			return err
		}
		mapped = append(mapped, a)
	}

	return nil
}

func unwindGrow(root *Table, mapped []mem.Va) {
	for _, a := range mapped {
		UnmapRange(root, a, mem.PageSize)
	}
}

// Shrink releases every page in [PageRoundUp(newSize), PageRoundUp(oldSize))
// back to pmm.Default,
// i.e. everything Grow would have added to go from newSize up to
// oldSize. newSize >= oldSize is a no-op, not an error: unlike Grow,
// asking to "shrink" to a size that is not smaller is harmless.
func Shrink(root *Table, oldSize, newSize mem.Size) {
	if newSize >= oldSize {
		return
	}

	start := mem.Va(uint64(newSize)).PageRoundUp()
	end := mem.Va(uint64(oldSize)).PageRoundUp()
	if end <= start {
		return
	}

	UnmapRange(root, start, mem.Size(uint64(end)-uint64(start)))
}
