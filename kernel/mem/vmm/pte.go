// Package vmm implements the Sv39 page-table engine of spec.md §4.2: the
// three-level radix tree of 512-entry tables, and the operations
// (CreateRoot, Walk, MapRange, UnmapRange, Resolve, Grow, Shrink, Clone,
// Teardown) that build and tear it down. It runs with paging disabled —
// kas.Kvminithart is what turns it on — so every table frame is reached by
// dereferencing its physical address directly, unlike the teacher's x86
// engine, which runs under already-active paging and must reach tables
// through a recursive self-mapping trick instead.
package vmm

import (
	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/pmm"
)

// PTE is one Sv39 page-table entry. Bit layout:
//
//	63........54 53....................10 9..8 7 6 5 4 3 2 1 0
//	 reserved          PPN[43:0]           RSW D A G U X W R V
type PTE uint64

// Permission and state flags, mirroring the teacher's PTE method set
// (HasFlags/SetFlags/Frame) one-for-one but adapted to Sv39's bit
// positions instead of x86's.
const (
	FlagV PTE = 1 << 0 // Valid
	FlagR PTE = 1 << 1 // Readable
	FlagW PTE = 1 << 2 // Writable
	FlagX PTE = 1 << 3 // Executable
	FlagU PTE = 1 << 4 // User-accessible
	FlagG PTE = 1 << 5 // Global
	FlagA PTE = 1 << 6 // Accessed
	FlagD PTE = 1 << 7 // Dirty

	rwxMask = FlagR | FlagW | FlagX
	ppnShift = 10
)

// HasFlags reports whether every bit set in want is also set in p.
func (p PTE) HasFlags(want PTE) bool { return p&want == want }

// SetFlags sets every bit in f.
func (p *PTE) SetFlags(f PTE) { *p |= f }

// ClearFlags clears every bit in f.
func (p *PTE) ClearFlags(f PTE) { *p &^= f }

// Flags returns the flag bits of p: the low 10 bits (V R W X U G A D and
// RSW). The reserved bits above the PPN field are not included.
func (p PTE) Flags() PTE { return p & (1<<ppnShift - 1) }

// Valid reports whether the V bit is set.
func (p PTE) Valid() bool { return p.HasFlags(FlagV) }

// Leaf reports whether p is a valid leaf entry (V set and at least one of
// R/W/X set). A valid entry with none of R/W/X set is a pointer to the
// next-level table, per the Sv39 spec.
func (p PTE) Leaf() bool { return p.Valid() && p&rwxMask != 0 }

// PPN returns the physical page number encoded in p.
func (p PTE) PPN() uint64 { return uint64(p) >> ppnShift }

// SetPPN overwrites p's PPN field, leaving the flag bits untouched.
func (p *PTE) SetPPN(ppn uint64) {
	*p = p.Flags() | PTE(ppn<<ppnShift)
}

// Frame returns the physical frame p's PPN points at.
func (p PTE) Frame() pmm.Frame { return pmm.Frame(p.PPN() << mem.PGSHIFT) }

// SetFrame sets p's PPN field from a frame's physical address, leaving
// the flag bits untouched.
func (p *PTE) SetFrame(f pmm.Frame) { p.SetPPN(uint64(f) >> mem.PGSHIFT) }
