package pmm

import (
	"unsafe"

	"github.com/doodah30/riscv-os/kernel/kerror"
	"github.com/doodah30/riscv-os/kernel/ksync"
	"github.com/doodah30/riscv-os/kernel/mem"
)

// ErrOutOfMemory is returned by Alloc when the freelist is empty. Any
// vmm operation that ultimately calls Alloc propagates this same value
// rather than wrapping it in a package-specific error (spec.md §7).
var ErrOutOfMemory = &kerror.Error{Module: "pmm", Message: "no free frame available"}

// Stats reports the allocator's introspection counters (spec.md §4.1).
type Stats struct {
	// Total is the number of frames ever installed by Init.
	Total uint64
	// Free is the number of frames currently on the freelist.
	Free uint64
	// Allocs is the number of successful Alloc calls since Init.
	Allocs uint64
}

// Allocator is an intrusive-freelist physical frame allocator: the "next
// free frame" pointer for each free frame is written into the first 8
// bytes of the frame itself, so the freelist costs no memory beyond the
// frames it manages. It is safe for concurrent use; on a single-hart
// build the guarding ksync.Mutex degenerates to an uncontended
// compare-and-swap, per spec.md §5.
type Allocator struct {
	mu     ksync.Mutex
	head   Frame
	total  uint64
	free   uint64
	allocs uint64
}

// Default is the process-wide frame allocator. kas.Kvminit and friends
// use it directly rather than threading an *Allocator through every call;
// spec.md §4.1 describes exactly one frame allocator per kernel image.
var Default Allocator

// Init installs every PGSIZE-aligned frame in [start, end) onto the
// freelist. start is rounded up and end rounded down to a page boundary,
// so a caller may pass an arbitrary physical memory region (e.g. the
// bytes left over after the kernel image) without precomputing alignment.
// Init is not idempotent: calling it twice replaces the freelist built by
// the first call, losing track of any frames already allocated from it.
func (a *Allocator) Init(start, end mem.Pa) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.head, a.total, a.free, a.allocs = NoFrame, 0, 0, 0

	alignedStart := start.PageRoundUp()
	alignedEnd := end.PageRoundDown()
	if alignedEnd <= alignedStart {
		return
	}

	for p := alignedStart; p < alignedEnd; p += mem.Pa(mem.PGSIZE) {
		a.installLocked(Frame(p))
	}
}

// installLocked pushes f onto the freelist and counts it towards Total.
// Callers must hold a.mu.
func (a *Allocator) installLocked(f Frame) {
	writeNext(f, a.head)
	a.head = f
	a.total++
	a.free++
}

// Alloc removes one frame from the freelist, zeroes its contents, and
// returns it. Zeroing happens here (alloc-time), not on Free, so that a
// frame a caller is still using is never silently cleared by an
// unrelated Free of a different frame racing with a reader. The zero-fill
// runs under a.mu, not after releasing it (spec.md §4.1): otherwise a
// second Alloc (on another hart) could observe and hand out the same
// frame's stale contents before this call finishes clearing it. ok is
// false and the returned Frame is NoFrame when the freelist is empty.
func (a *Allocator) Alloc() (f Frame, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.head == NoFrame {
		return NoFrame, false
	}

	f = a.head
	a.head = readNext(f)
	a.free--
	a.allocs++

	zero(f)
	return f, true
}

// Free returns a frame to the allocator, making it available to future
// Alloc calls. Freeing NoFrame is a no-op. Freeing a misaligned address
// is also a no-op: it cannot be a frame this allocator ever handed out,
// so the call is ignored rather than corrupting the freelist. Freeing a
// frame twice, or a frame the caller does not own, silently corrupts the
// freelist (the same caller-discipline requirement as any intrusive
// freelist) — callers must get this right themselves; the allocator
// cannot detect it without extra per-frame bookkeeping.
func (a *Allocator) Free(f Frame) {
	if f == NoFrame || !f.Aligned() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	writeNext(f, a.head)
	a.head = f
	a.free++
}

// Stats returns a snapshot of the allocator's counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{Total: a.total, Free: a.free, Allocs: a.allocs}
}

// readNext reads the 8-byte "next free frame" pointer stored at f's own
// address. f must currently be on the freelist (i.e. not in use).
func readNext(f Frame) Frame {
	return Frame(*(*uint64)(unsafe.Pointer(uintptr(f))))
}

// writeNext stores next as the "next free frame" pointer at f's address.
func writeNext(f Frame, next Frame) {
	*(*uint64)(unsafe.Pointer(uintptr(f))) = uint64(next)
}

// zero clears all PGSIZE bytes of frame f. Performed by reinterpreting
// the frame's physical address as a byte slice header, the same
// construction the teacher's mem.Memset uses to avoid a bounds-checked
// loop over individually-addressed bytes.
func zero(f Frame) {
	p := unsafe.Pointer(uintptr(f))
	mem.Memset(uintptr(p), 0, mem.PageSize)
}
