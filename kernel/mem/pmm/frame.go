package pmm

import "github.com/doodah30/riscv-os/kernel/mem"

// Frame identifies one PGSIZE-sized unit of physical memory by its base
// physical address. Unlike the teacher's Frame (a page index scaled by
// PageShift), this Frame IS the address: spec.md §9's intrusive-freelist
// design stores the "next free frame" pointer directly inside the free
// frame at that address, so there is no index-to-address translation to
// do anywhere in the allocator.
type Frame mem.Pa

// NoFrame is the zero Frame, used both as "no next frame" (end of
// freelist) and as the Alloc failure value. Physical address 0 is never a
// valid RAM frame on this platform (RAM starts at platform.KERNBASE, well
// above it), so it is a safe sentinel.
const NoFrame Frame = 0

// Address returns the physical address of this frame.
func (f Frame) Address() mem.Pa { return mem.Pa(f) }

// Aligned reports whether f sits on a PGSIZE boundary.
func (f Frame) Aligned() bool { return uint64(f)&(mem.PGSIZE-1) == 0 }
