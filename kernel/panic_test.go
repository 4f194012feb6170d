package kernel

import (
	"bytes"
	"errors"
	"testing"

	"github.com/doodah30/riscv-os/kernel/kerror"
	"github.com/doodah30/riscv-os/kernel/kfmt"
	"github.com/stretchr/testify/assert"
)

func TestPanic(t *testing.T) {
	defer func() { haltFn = func() {} }()

	var haltCalled bool
	haltFn = func() { haltCalled = true }

	t.Run("with error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		kfmt.SetOutputSink(&buf)
		defer kfmt.SetOutputSink(nil)

		Panic(&kerror.Error{Module: "test", Message: "panic test"})

		exp := "\n-----------------------------------\n[test] unrecoverable error: panic test\n*** kernel panic: system halted ***\n-----------------------------------\n"
		assert.Equal(t, exp, buf.String())
		assert.True(t, haltCalled, "expected haltFn to be called by Panic")
	})

	t.Run("without error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		kfmt.SetOutputSink(&buf)
		defer kfmt.SetOutputSink(nil)

		Panic(nil)

		exp := "\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n"
		assert.Equal(t, exp, buf.String())
		assert.True(t, haltCalled, "expected haltFn to be called by Panic")
	})

	t.Run("with plain error value", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		kfmt.SetOutputSink(&buf)
		defer kfmt.SetOutputSink(nil)

		Panic(errors.New("boom"))

		assert.Contains(t, buf.String(), "[rt] unrecoverable error: boom")
		assert.True(t, haltCalled)
	})
}
