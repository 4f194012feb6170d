// Package diag implements spec.md §4.5's diagnostics: a page-table
// pretty-printer and a trap-frame dump, both built on kernel/kfmt so they
// never allocate. Grounded on the teacher's Regs.Print/Frame.Print
// register-dump idiom (src/gopheros/kernel/irq/interrupt_amd64.go),
// generalized from dumping x86 general-purpose registers to dumping the
// RISC-V scause/sepc/stval/sstatus quartet spec.md's fatal-exception path
// needs.
package diag

import (
	"github.com/doodah30/riscv-os/kernel/kfmt"
	"github.com/doodah30/riscv-os/kernel/mem"
	"github.com/doodah30/riscv-os/kernel/mem/vmm"
)

// PrintPageTable walks root top-down and prints one line per populated
// entry, per spec.md §4.5's exact format:
//
//	NODE: VA range [start, end] -> child PA P
//	LEAF: VA [start, end] => PA P size S flags VRWXUGAD
//
// Size at level L is 4096 << (9*L) (4 KiB / 2 MiB / 1 GiB), per spec.md
// §4.5. A level-0 entry is always printed as a LEAF, even if malformed (V
// set but none of R/W/X), since level 0 cannot contain pointers to a
// further table to descend into — there is nowhere else for
// PrintPageTable to go with such an entry.
func PrintPageTable(root *vmm.Table) {
	printLevel(root, 2, 0)
}

// levelSize returns the span in bytes of one entry at the given Sv39
// level: 4 KiB at level 0, 2 MiB at level 1, 1 GiB at level 2.
func levelSize(level int) uint64 {
	return uint64(mem.PGSIZE) << (9 * uint(level))
}

func printLevel(t *vmm.Table, level int, baseVA mem.Va) {
	for i := 0; i < 512; i++ {
		pte := t.Entry(i)
		if !pte.Valid() {
			continue
		}

		start := baseVA | mem.Va(uint64(i)<<(mem.PGSHIFT+9*uint(level)))
		end := start.Add(levelSize(level) - 1)

		if level == 0 || pte.Leaf() {
			kfmt.Printf("LEAF: VA [0x%x, 0x%x] => PA 0x%x size %d flags %s\n",
				uint64(start), uint64(end), uint64(pte.Frame().Address()), levelSize(level), flagString(pte))
			continue
		}

		kfmt.Printf("NODE: VA range [0x%x, 0x%x] -> child PA 0x%x\n", uint64(start), uint64(end), uint64(pte.Frame().Address()))
		printLevel(vmm.TableAt(pte.Frame().Address()), level-1, start)
	}
}

// flagString renders the 8 Sv39 PTE flag bits in VRWXUGAD order, printing
// the letter when set or '-' when clear, per spec.md §4.5's literal
// "flags VRWXUGAD" format.
func flagString(pte vmm.PTE) string {
	letters := [8]byte{'V', 'R', 'W', 'X', 'U', 'G', 'A', 'D'}
	flags := [8]vmm.PTE{vmm.FlagV, vmm.FlagR, vmm.FlagW, vmm.FlagX, vmm.FlagU, vmm.FlagG, vmm.FlagA, vmm.FlagD}

	var buf [8]byte
	for i, f := range flags {
		if pte.HasFlags(f) {
			buf[i] = letters[i]
		} else {
			buf[i] = '-'
		}
	}
	return string(buf[:])
}

// DumpTrapFrame prints the register quartet a fatal synchronous exception
// is diagnosed from: scause (raw, undecoded — the caller has already
// decided this is fatal), sepc (the faulting instruction), stval (the
// faulting address or a decode of the bad instruction, per the RISC-V
// privileged spec), and sstatus.
func DumpTrapFrame(cause, epc, tval, status uint64) {
	kfmt.Printf("fatal trap: scause=0x%x sepc=0x%x stval=0x%x sstatus=0x%x\n",
		cause, epc, tval, status)
}
