package kfmt

import (
	"bytes"
	"errors"
	"riscvkernel/kernel"
	"riscvkernel/kernel/cpu"
	"testing"
)

func TestPanic(t *testing.T) {
	defer func() {
		halt = cpu.Halt
		sink = nil
	}()

	var halted bool
	halt = func() { halted = true }

	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{
			name: "kernel error",
			in:   &kernel.Error{Module: "test", Message: "panic test"},
			want: banner + "[test] unrecoverable error: panic test\n*** kernel panic: system halted ***" + banner,
		},
		{
			name: "stdlib error",
			in:   errors.New("go error"),
			want: banner + "[rt] unrecoverable error: go error\n*** kernel panic: system halted ***" + banner,
		},
		{
			name: "bare string",
			in:   "string error",
			want: banner + "[rt] unrecoverable error: string error\n*** kernel panic: system halted ***" + banner,
		},
		{
			name: "nil",
			in:   nil,
			want: banner + "*** kernel panic: system halted ***" + banner,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			halted = false
			var buf bytes.Buffer
			SetOutputSink(&buf)

			Panic(c.in)

			if got := buf.String(); got != c.want {
				t.Fatalf("expected:\n%q\ngot:\n%q", c.want, got)
			}
			if !halted {
				t.Fatal("expected Panic to call halt")
			}
		})
	}
}

func TestAsKernelErrorPassesThroughKernelError(t *testing.T) {
	want := &kernel.Error{Module: "m", Message: "msg"}
	if got := asKernelError(want); got != want {
		t.Fatalf("expected the same *kernel.Error back, got %v", got)
	}
}

func TestAsKernelErrorNilStaysNil(t *testing.T) {
	if got := asKernelError(nil); got != nil {
		t.Fatalf("expected nil for a nil input, got %v", got)
	}
}

func TestAsKernelErrorWrapsUnrecognizedValue(t *testing.T) {
	got := asKernelError(42)
	if got == nil || got.Message != "panic with an unrecognized value" {
		t.Fatalf("expected a generic wrapped error, got %+v", got)
	}
}
