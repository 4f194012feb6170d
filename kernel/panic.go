package kernel

import (
	"github.com/doodah30/riscv-os/kernel/kerror"
	"github.com/doodah30/riscv-os/kernel/kfmt"
	"github.com/doodah30/riscv-os/platform"
)

var (
	// haltFn is mocked by tests; in production it is platform.Halt.
	haltFn = platform.Halt

	errRuntimePanic = &kerror.Error{Module: "rt", Message: "unknown cause"}
)

// Panic prints the supplied error (if any) and halts the calling hart.
// Calls to Panic never return. It accepts the same argument shapes the
// teacher's Panic did (*kerror.Error, string, error), so a build that
// wires runtime.gopanic redirection back in (out of scope here — spec.md
// has no user-mode or runtime-panic recovery story) could still target it.
func Panic(e interface{}) {
	var err *kerror.Error

	switch t := e.(type) {
	case *kerror.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	kfmt.Printf("\n-----------------------------------\n")
	if err != nil {
		kfmt.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	kfmt.Printf("*** kernel panic: system halted ***")
	kfmt.Printf("\n-----------------------------------\n")

	haltFn()
}
