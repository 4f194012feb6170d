// Package kfmt is the kernel's non-allocating formatter: the Formatter
// collaborator spec.md §6 names. Printf/Fprintf implement the same verb
// scanner and "hide the escaping slice from the compiler" trick as the
// teacher's kfmt package, extended with the %u, %llu, %llx, %p and %c
// verbs spec.md's diagnostics output (kernel/diag) needs beyond the
// teacher's %s/%o/%d/%x/%t subset.
package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize is the scratch buffer size used to format one integer value.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")

	numFmtBuf = []byte("012345678901234567890123456789012")

	// singleByte is a shared one-byte buffer used to pass individual
	// characters to doWrite without allocating a new slice each time.
	singleByte = []byte(" ")

	// earlyPrintBuffer holds Printf output emitted before SetOutputSink
	// is called (e.g. before kas.Kvminithart has mapped the UART).
	earlyPrintBuffer ringBuffer

	// outputSink is where Printf writes when set; nil routes to
	// earlyPrintBuffer instead.
	outputSink io.Writer
)

// SetOutputSink directs future Printf calls to w and flushes anything
// buffered in earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// Printf writes a formatted string to the current output sink (or the
// early ring buffer if none has been set yet). It performs no heap
// allocations, so it is safe to call before pmm.Init.
//
// Supported verbs:
//
//	%s   uninterpreted bytes of a string or []byte
//	%c   a single byte or rune
//	%d   signed decimal
//	%u   unsigned decimal
//	%o   unsigned octal
//	%x   unsigned hex, lower-case
//	%llu unsigned decimal (64-bit emphasis, same as %u)
//	%llx unsigned hex (64-bit emphasis, same as %x)
//	%p   pointer, printed as 0x-prefixed hex
//	%t   "true" or "false"
//	%%   a literal percent sign
//
// An optional decimal width may precede %d, %u, %o, %x and %s; %x and %o
// pad with '0', %d, %u and %s pad with spaces. %p always prints 16 hex
// digits, and %t and %c ignore any width.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w instead of the current sink.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		nextCh                       byte
		nextArgIndex                 int
		blockStart, blockEnd, padLen int
		fmtLen                       = len(format)
	)

	for blockEnd < fmtLen {
		nextCh = format[blockEnd]
		if nextCh != '%' {
			blockEnd++
			continue
		}

		if blockStart < blockEnd {
			for i := blockStart; i < blockEnd; i++ {
				singleByte[0] = format[i]
				doWrite(w, singleByte)
			}
		}

		padLen = 0
		blockEnd++
	parseFmt:
		for ; blockEnd < fmtLen; blockEnd++ {
			nextCh = format[blockEnd]
			switch {
			case nextCh == '%':
				singleByte[0] = '%'
				doWrite(w, singleByte)
				break parseFmt
			case nextCh >= '0' && nextCh <= '9':
				padLen = (padLen * 10) + int(nextCh-'0')
				continue
			case nextCh == 'l':
				// swallow the "ll" prefix of %llu/%llx; the verb that
				// follows selects the actual formatting.
				continue
			case nextCh == 'd' || nextCh == 'x' || nextCh == 'o' || nextCh == 'u' ||
				nextCh == 's' || nextCh == 't' || nextCh == 'p' || nextCh == 'c':
				if nextArgIndex >= len(args) {
					doWrite(w, errMissingArg)
					break parseFmt
				}

				switch nextCh {
				case 'o':
					fmtInt(w, args[nextArgIndex], 8, padLen, false)
				case 'd':
					fmtInt(w, args[nextArgIndex], 10, padLen, true)
				case 'u':
					fmtInt(w, args[nextArgIndex], 10, padLen, false)
				case 'x':
					fmtInt(w, args[nextArgIndex], 16, padLen, false)
				case 's':
					fmtString(w, args[nextArgIndex], padLen)
				case 't':
					fmtBool(w, args[nextArgIndex])
				case 'p':
					fmtPointer(w, args[nextArgIndex])
				case 'c':
					fmtChar(w, args[nextArgIndex])
				}

				nextArgIndex++
				break parseFmt
			default:
				doWrite(w, errNoVerb)
				break parseFmt
			}
		}
		blockStart, blockEnd = blockEnd+1, blockEnd+1
	}

	if blockStart != blockEnd {
		for i := blockStart; i < blockEnd; i++ {
			singleByte[0] = format[i]
			doWrite(w, singleByte)
		}
	}

	for ; nextArgIndex < len(args); nextArgIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}
	if b {
		doWrite(w, []byte("true"))
	} else {
		doWrite(w, []byte("false"))
	}
}

func fmtChar(w io.Writer, v interface{}) {
	switch c := v.(type) {
	case byte:
		singleByte[0] = c
		doWrite(w, singleByte)
	case rune:
		singleByte[0] = byte(c)
		doWrite(w, singleByte)
	case int:
		singleByte[0] = byte(c)
		doWrite(w, singleByte)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtPointer(w io.Writer, v interface{}) {
	var uval uint64
	switch p := v.(type) {
	case uintptr:
		uval = uint64(p)
	case unsafe.Pointer:
		uval = uint64(uintptr(p))
	default:
		doWrite(w, errWrongArgType)
		return
	}
	doWrite(w, []byte("0x"))
	fmtInt(w, uval, 16, 16, false)
}

func fmtString(w io.Writer, v interface{}, padLen int) {
	switch castedVal := v.(type) {
	case string:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		for i := 0; i < len(castedVal); i++ {
			singleByte[0] = castedVal[i]
			doWrite(w, singleByte)
		}
	case []byte:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		doWrite(w, castedVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtRepeat(w io.Writer, ch byte, count int) {
	singleByte[0] = ch
	for i := 0; i < count; i++ {
		doWrite(w, singleByte)
	}
}

// fmtInt formats v (any built-in integer type) in the given base, applying
// padLen of padding. When signed is true, negative values are printed
// with a leading '-'; otherwise v is treated as unsigned regardless of its
// Go type's signedness (this is how %u/%llu interpret a negative int).
func fmtInt(w io.Writer, v interface{}, base, padLen int, signed bool) {
	var (
		sval             int64
		uval             uint64
		divider          uint64
		padCh            byte
		left, right, end int
	)

	if padLen >= maxBufSize {
		padLen = maxBufSize - 1
	}

	switch base {
	case 8:
		divider, padCh = 8, '0'
	case 10:
		divider, padCh = 10, ' '
	case 16:
		divider, padCh = 16, '0'
	}

	switch tv := v.(type) {
	case uint8:
		uval = uint64(tv)
	case uint16:
		uval = uint64(tv)
	case uint32:
		uval = uint64(tv)
	case uint64:
		uval = tv
	case uint:
		uval = uint64(tv)
	case uintptr:
		uval = uint64(tv)
	case int8:
		sval = int64(tv)
	case int16:
		sval = int64(tv)
	case int32:
		sval = int64(tv)
	case int64:
		sval = tv
	case int:
		sval = int64(tv)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if signed && sval < 0 {
		uval = uint64(-sval)
	} else if sval != 0 {
		uval = uint64(sval)
	}

	for right < maxBufSize {
		remainder := uval % divider
		if remainder < 10 {
			numFmtBuf[right] = byte(remainder) + '0'
		} else {
			numFmtBuf[right] = byte(remainder-10) + 'a'
		}
		right++

		uval /= divider
		if uval == 0 {
			break
		}
	}

	for ; right-left < padLen; right++ {
		numFmtBuf[right] = padCh
	}

	if signed && sval < 0 {
		for end = right - 1; numFmtBuf[end] == ' '; end-- {
		}
		if end == right-1 {
			right++
		}
		numFmtBuf[end+1] = '-'
	}

	end = right
	for right = right - 1; left < right; left, right = left+1, right-1 {
		numFmtBuf[left], numFmtBuf[right] = numFmtBuf[right], numFmtBuf[left]
	}

	doWrite(w, numFmtBuf[0:end])
}

// doWrite hides p from escape analysis via the noEscape hack below; without
// it, every Printf call would be flagged as escaping (because outputSink's
// dynamic type is unknown to the compiler) and would allocate via
// runtime.convT2E, which crashes the kernel before pmm.Init has run.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
