package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintf(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no args", nil, "no args"},
		{"%t", []interface{}{true}, "true"},
		{"%t", []interface{}{false}, "false"},
		{"%s arg", []interface{}{"STRING"}, "STRING arg"},
		{"%s arg", []interface{}{[]byte("BYTES")}, "BYTES arg"},
		{"'%4s'", []interface{}{"AB"}, "'  AB'"},
		{"%d", []interface{}{int(-5)}, "-5"},
		{"%d", []interface{}{uint32(42)}, "42"},
		{"%u", []interface{}{int64(-1)}, "18446744073709551615"},
		{"%o", []interface{}{uint16(0777)}, "777"},
		{"%x", []interface{}{uint64(0xDEAD)}, "dead"},
		{"%04x", []interface{}{uint8(0xA)}, "000a"},
		{"%llu", []interface{}{uint64(123456789)}, "123456789"},
		{"%llx", []interface{}{uint64(0xFF)}, "ff"},
		{"%c", []interface{}{byte('A')}, "A"},
		{"%%", nil, "%"},
		{"%s %d", []interface{}{"x"}, "x (MISSING)"},
		{"%d", []interface{}{"not an int"}, "%!(WRONGTYPE)"},
		{"%d", []interface{}{1, 2}, "1%!(EXTRA)"},
	}

	for i, spec := range specs {
		var buf bytes.Buffer
		Fprintf(&buf, spec.format, spec.args...)
		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] Fprintf(%q, %v): expected %q; got %q", i, spec.format, spec.args, spec.exp, got)
		}
	}
}

func TestFmtPointer(t *testing.T) {
	var buf bytes.Buffer
	Fprintf(&buf, "%p", uintptr(0x1000))
	if got, exp := buf.String(), "0x0000000000001000"; got != exp {
		t.Errorf("expected %q; got %q", exp, got)
	}
}

func TestPrintfUsesOutputSink(t *testing.T) {
	defer func() { outputSink = nil }()

	var buf bytes.Buffer
	SetOutputSink(&buf)
	Printf("value=%d", 7)

	if got, exp := buf.String(), "value=7"; got != exp {
		t.Errorf("expected %q; got %q", exp, got)
	}
}

func TestPrintfBuffersBeforeSinkIsSet(t *testing.T) {
	defer func() {
		outputSink = nil
		earlyPrintBuffer = ringBuffer{}
	}()

	outputSink = nil
	earlyPrintBuffer = ringBuffer{}

	Printf("buffered")

	var buf bytes.Buffer
	SetOutputSink(&buf)
	if got, exp := buf.String(), "buffered"; got != exp {
		t.Errorf("expected early output %q to be flushed to the sink; got %q", exp, got)
	}
}
