// Package kfmt provides a minimal, allocation-free replacement for fmt that
// is safe to use from the earliest stages of boot, before any allocator is
// available and before the console driver has been probed.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize bounds the scratch buffer used to render an integer in any
// supported base. 64 bits in base 8 needs at most 22 digits, so this leaves
// ample room for a sign and generous padding.
const numBufSize = 32

var (
	msgMissingArg = []byte("(MISSING)")
	msgBadType    = []byte("%!(WRONGTYPE)")
	msgBadVerb    = []byte("%!(NOVERB)")
	msgExtraArgs  = []byte("%!(EXTRA)")
	litTrue       = []byte("true")
	litFalse      = []byte("false")
	litPercent    = []byte("%")
	litMinus      = []byte("-")

	// numBuf and padBuf are package-level scratch space rather than local
	// arrays: a local array whose slice is handed to an io.Writer resolved
	// only at runtime gets forced onto the heap by escape analysis, which
	// this package cannot afford before mm.Init has run. Reuse is safe
	// because this kernel is single-hart and cooperative.
	numBuf [numBufSize]byte
	padBuf [numBufSize]byte

	// earlyBuf queues output produced before a console driver has
	// registered itself via SetOutputSink.
	earlyBuf ringBuffer

	// sink is where Printf sends formatted output. Output is queued into
	// earlyBuf instead whenever sink is nil.
	sink io.Writer
)

// SetOutputSink directs all future Printf output to w, and flushes
// anything queued in earlyBuf to it first.
func SetOutputSink(w io.Writer) {
	sink = w
	if w != nil {
		io.Copy(w, &earlyBuf)
	}
}

// GetOutputSink returns the currently configured output sink, or nil if
// output is still being queued in earlyBuf.
func GetOutputSink() io.Writer {
	return sink
}

// Printf formats according to a format string and writes to the current
// output sink (or queues the result if none has been set yet). It supports
// a deliberately small subset of fmt's verbs:
//
//	%s  the raw bytes of a string or []byte
//	%d  a signed or unsigned integer, base 10
//	%o  a signed or unsigned integer, base 8
//	%x  a signed or unsigned integer, base 16, lower-case
//	%t  "true" or "false"
//
// An optional decimal width may precede any verb; strings and base-10
// integers pad with spaces, base-8/16 integers pad with zeroes. %p is not
// supported: formatting a pointer usefully needs reflect, which allocates,
// and nothing in this kernel may allocate before mm.Init has run.
func Printf(format string, args ...interface{}) {
	Fprintf(sink, format, args...)
}

// Fprintf behaves exactly like Printf but writes the formatted output to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	argN := 0
	pos := 0

	for pos < len(format) {
		litStart := pos
		for pos < len(format) && format[pos] != '%' {
			pos++
		}
		if pos > litStart {
			write(w, stringBytes(format[litStart:pos]))
		}
		if pos >= len(format) {
			break
		}
		pos++ // consume '%'

		if pos >= len(format) {
			write(w, msgBadVerb)
			break
		}

		width := 0
		for pos < len(format) && format[pos] >= '0' && format[pos] <= '9' {
			width = width*10 + int(format[pos]-'0')
			pos++
		}
		if width > numBufSize-1 {
			width = numBufSize - 1
		}

		if pos >= len(format) {
			write(w, msgBadVerb)
			break
		}

		verb := format[pos]
		pos++

		switch verb {
		case '%':
			write(w, litPercent)
			continue
		case 'd', 'o', 'x', 's', 't':
			// handled below, once an argument has been confirmed available
		default:
			write(w, msgBadVerb)
			continue
		}

		if argN >= len(args) {
			write(w, msgMissingArg)
			continue
		}

		switch verb {
		case 'd':
			writeInt(w, args[argN], 10, width)
		case 'o':
			writeInt(w, args[argN], 8, width)
		case 'x':
			writeInt(w, args[argN], 16, width)
		case 's':
			writeString(w, args[argN], width)
		case 't':
			writeBool(w, args[argN])
		}
		argN++
	}

	for ; argN < len(args); argN++ {
		write(w, msgExtraArgs)
	}
}

// writeBool writes "true" or "false" for a bool argument, or msgBadType
// for anything else.
func writeBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	if !ok {
		write(w, msgBadType)
		return
	}
	if b {
		write(w, litTrue)
	} else {
		write(w, litFalse)
	}
}

// writeString writes a string or []byte argument, left-padded with spaces
// to width.
func writeString(w io.Writer, v interface{}, width int) {
	var b []byte
	switch tv := v.(type) {
	case string:
		b = stringBytes(tv)
	case []byte:
		b = tv
	default:
		write(w, msgBadType)
		return
	}

	padWith(w, ' ', width-len(b))
	write(w, b)
}

// writeInt writes any built-in signed or unsigned integer type in the given
// base, left-padded to width (spaces for base 10, zeroes otherwise).
func writeInt(w io.Writer, v interface{}, base, width int) {
	neg, mag, ok := splitInt(v)
	if !ok {
		write(w, msgBadType)
		return
	}

	padCh := byte(' ')
	if base != 10 {
		padCh = '0'
	}

	digitsFrom := formatDigits(mag, uint64(base))
	digitCount := numBufSize - digitsFrom

	// Space-padding counts the sign as part of the field width (so %10d
	// of -5 gives eight spaces then "-5"); zero-padding does not (%010x
	// of a negative value zero-fills to width purely on digit count and
	// then prepends the sign, so the result can run one byte past width).
	signCost := 0
	if neg && padCh == ' ' {
		signCost = 1
	}
	pad := width - digitCount - signCost
	if pad < 0 {
		pad = 0
	}

	switch {
	case neg && padCh == '0':
		write(w, litMinus)
		padWith(w, padCh, pad)
	case neg:
		padWith(w, padCh, pad)
		write(w, litMinus)
	default:
		padWith(w, padCh, pad)
	}

	write(w, numBuf[digitsFrom:])
}

// formatDigits renders the unsigned magnitude mag in base into numBuf,
// building digits from the end of the buffer backward, and returns the
// index of the first digit written.
func formatDigits(mag uint64, base uint64) int {
	i := numBufSize
	for {
		i--
		d := byte(mag % base)
		if d < 10 {
			numBuf[i] = '0' + d
		} else {
			numBuf[i] = 'a' + (d - 10)
		}
		mag /= base
		if mag == 0 {
			return i
		}
	}
}

// splitInt normalizes any built-in integer type into a sign flag plus an
// unsigned magnitude.
func splitInt(v interface{}) (neg bool, mag uint64, ok bool) {
	switch tv := v.(type) {
	case int:
		return signOf(int64(tv))
	case int8:
		return signOf(int64(tv))
	case int16:
		return signOf(int64(tv))
	case int32:
		return signOf(int64(tv))
	case int64:
		return signOf(tv)
	case uint8:
		return false, uint64(tv), true
	case uint16:
		return false, uint64(tv), true
	case uint32:
		return false, uint64(tv), true
	case uint64:
		return false, tv, true
	case uintptr:
		return false, uint64(tv), true
	default:
		return false, 0, false
	}
}

func signOf(v int64) (bool, uint64, bool) {
	if v < 0 {
		return true, uint64(-v), true
	}
	return false, uint64(v), true
}

// padWith writes n copies of ch. Negative n is treated as zero.
func padWith(w io.Writer, ch byte, n int) {
	if n <= 0 {
		return
	}
	if n > len(padBuf) {
		n = len(padBuf)
	}
	for i := 0; i < n; i++ {
		padBuf[i] = ch
	}
	write(w, padBuf[:n])
}

// stringBytes views s as a []byte without copying. Safe here because kfmt
// never retains or mutates the result past the call that produced it.
func stringBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// write sends p to w, or to earlyBuf if no sink has been registered yet.
func write(w io.Writer, p []byte) {
	sendTo(w, hideFromEscapeAnalysis(unsafe.Pointer(&p)))
}

func sendTo(w io.Writer, pptr unsafe.Pointer) {
	p := *(*[]byte)(pptr)
	if w == nil {
		earlyBuf.Write(p)
		return
	}
	w.Write(p)
}

// hideFromEscapeAnalysis obscures a pointer from the compiler's escape
// analysis, adapted from the same technique the Go runtime uses in its own
// print path (runtime/stubs.go's noescape). Without it, the compiler can't
// prove p's slice header doesn't escape through the io.Writer call below,
// and would otherwise have to heap-allocate it — unsafe this early, since
// mm.Init may not have run yet.
//
//go:nosplit
func hideFromEscapeAnalysis(p unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) ^ 0)
}
