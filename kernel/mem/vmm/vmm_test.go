package vmm

import (
	"testing"
	"unsafe"

	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAllocator backs pmm.Default with a real hosted Go buffer large
// enough for pages frames and returns pmm.Default.Alloc as the
// FrameAllocFn every operation under test needs. Each call resets
// pmm.Default's state, so tests don't interfere with one another despite
// sharing the package-level singleton.
func newAllocator(t *testing.T, pages int) FrameAllocFn {
	t.Helper()
	buf := make([]byte, (pages+1)*mem.PGSIZE)
	start := mem.Pa(uintptr(unsafe.Pointer(&buf[0]))).PageRoundUp()
	end := start + mem.Pa(pages*mem.PGSIZE)
	pmm.Default.Init(start, end)
	return pmm.Default.Alloc
}

func TestMapAndResolve(t *testing.T) {
	allocFn := newAllocator(t, 16)

	root, rootFrame, err := CreateRoot(allocFn)
	require.NoError(t, err)

	backing, ok := allocFn()
	require.True(t, ok)

	const va = mem.Va(0x1000_0000)
	err = MapRange(root, va, mem.PageSize, backing.Address(), FlagR|FlagW, allocFn)
	require.NoError(t, err)

	got := Resolve(root, va)
	assert.Equal(t, backing.Address(), got)

	// An address inside the same page resolves to the matching offset.
	got = Resolve(root, va+0x123)
	assert.Equal(t, backing.Address()+0x123, got)

	// An unmapped address resolves to 0.
	assert.Equal(t, mem.Pa(0), Resolve(root, va+mem.PGSIZE))

	Teardown(root, rootFrame, mem.PageSize)
}

func TestMapRangeCoversWholeRequestIncludingPartialLastPage(t *testing.T) {
	allocFn := newAllocator(t, 16)
	root, rootFrame, err := CreateRoot(allocFn)
	require.NoError(t, err)

	backing, ok := allocFn()
	require.True(t, ok)

	const va = mem.Va(0x2000_0000)
	// Request 1 byte over a page boundary: must map 2 pages, not 1.
	err = MapRange(root, va, mem.Size(mem.PGSIZE+1), backing.Address(), FlagR, allocFn)
	require.NoError(t, err)

	assert.NotEqual(t, mem.Pa(0), Resolve(root, va))
	assert.NotEqual(t, mem.Pa(0), Resolve(root, va.Add(mem.PGSIZE)))

	Teardown(root, rootFrame, mem.Size(2*mem.PGSIZE))
}

func TestDoubleMapRejection(t *testing.T) {
	allocFn := newAllocator(t, 16)
	root, rootFrame, err := CreateRoot(allocFn)
	require.NoError(t, err)

	backing, ok := allocFn()
	require.True(t, ok)

	const va = mem.Va(0x3000_0000)
	require.NoError(t, MapRange(root, va, mem.PageSize, backing.Address(), FlagR, allocFn))

	err = MapRange(root, va, mem.PageSize, backing.Address(), FlagR, allocFn)
	assert.Same(t, ErrAlreadyMapped, err)

	Teardown(root, rootFrame, mem.PageSize)
}

func TestUnmapRangeFreesFrames(t *testing.T) {
	allocFn := newAllocator(t, 16)
	root, rootFrame, err := CreateRoot(allocFn)
	require.NoError(t, err)

	backing, ok := allocFn()
	require.True(t, ok)

	const va = mem.Va(0x4000_0000)
	require.NoError(t, MapRange(root, va, mem.PageSize, backing.Address(), FlagR, allocFn))

	before := pmm.Default.Stats().Free
	UnmapRange(root, va, mem.PageSize)
	after := pmm.Default.Stats().Free

	assert.Equal(t, before+1, after, "UnmapRange must return the backing frame to the allocator")
	assert.Equal(t, mem.Pa(0), Resolve(root, va))

	Teardown(root, rootFrame, mem.PageSize)
}

func TestTeardownAccounting(t *testing.T) {
	allocFn := newAllocator(t, 512)
	root, rootFrame, err := CreateRoot(allocFn)
	require.NoError(t, err)

	// Map enough widely-spaced pages to force multiple level-1 and
	// level-0 tables into existence.
	vas := []mem.Va{0, 1 << 21, 2 << 21, 1 << 30, (1 << 30) + (1 << 21)}
	for _, va := range vas {
		backing, ok := allocFn()
		require.True(t, ok)
		require.NoError(t, MapRange(root, va, mem.PageSize, backing.Address(), FlagR, allocFn))
	}

	statsBeforeTeardown := pmm.Default.Stats()

	for _, va := range vas {
		UnmapRange(root, va, mem.PageSize)
	}
	Teardown(root, rootFrame, 1<<31)

	statsAfter := pmm.Default.Stats()
	assert.Greater(t, statsAfter.Free, statsBeforeTeardown.Free,
		"Teardown must free the table frames in addition to the leaves UnmapRange already freed")
	assert.Equal(t, statsAfter.Total, statsAfter.Free, "every allocated frame must have been returned")
}

func TestSparseClone(t *testing.T) {
	allocFn := newAllocator(t, 512)
	srcRoot, srcFrame, err := CreateRoot(allocFn)
	require.NoError(t, err)

	mappedVA := mem.Va(0)
	holeVA := mem.Va(1 << 21) // a full level-0 table away: sparse

	backing, ok := allocFn()
	require.True(t, ok)
	*pageBytes(backing.Address()) = [mem.PGSIZE]byte{} // zero, then mark it
	pageBytes(backing.Address())[0] = 0xAB

	require.NoError(t, MapRange(srcRoot, mappedVA, mem.PageSize, backing.Address(), FlagR|FlagW, allocFn))

	size := mem.Size(holeVA) + mem.PageSize
	dstRoot, dstFrame, err := Clone(srcRoot, size, allocFn)
	require.NoError(t, err)

	assert.NotEqual(t, mem.Pa(0), Resolve(dstRoot, mappedVA), "populated page must be present in the clone")
	assert.Equal(t, mem.Pa(0), Resolve(dstRoot, holeVA), "hole must remain absent in the clone, not backed by a zero page")

	clonedPA := Resolve(dstRoot, mappedVA)
	assert.NotEqual(t, backing.Address(), clonedPA, "clone must use an independent frame, not alias the source")
	assert.Equal(t, byte(0xAB), pageBytes(clonedPA)[0], "clone must copy the source page's contents")

	UnmapRange(srcRoot, mappedVA, mem.PageSize)
	Teardown(srcRoot, srcFrame, size)
	UnmapRange(dstRoot, mappedVA, mem.PageSize)
	Teardown(dstRoot, dstFrame, size)
}

func TestGrowAndShrink(t *testing.T) {
	allocFn := newAllocator(t, 512)
	root, rootFrame, err := CreateRoot(allocFn)
	require.NoError(t, err)

	require.NoError(t, Grow(root, 0, 3*mem.PageSize, allocFn))
	for i := uint64(0); i < 3; i++ {
		assert.NotEqual(t, mem.Pa(0), Resolve(root, mem.Va(i*mem.PGSIZE)))
	}

	assert.Same(t, ErrInvalidArgument, Grow(root, 3*mem.PageSize, 2*mem.PageSize, allocFn))

	Shrink(root, 3*mem.PageSize, mem.PageSize)
	assert.NotEqual(t, mem.Pa(0), Resolve(root, 0))
	assert.Equal(t, mem.Pa(0), Resolve(root, mem.Va(mem.PGSIZE)))
	assert.Equal(t, mem.Pa(0), Resolve(root, mem.Va(2*mem.PGSIZE)))

	Shrink(root, mem.PageSize, 0)
	assert.Equal(t, mem.Pa(0), Resolve(root, 0))

	Teardown(root, rootFrame, 3*mem.PageSize)
}
