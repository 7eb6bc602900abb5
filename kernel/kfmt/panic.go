package kfmt

import (
	"riscvkernel/kernel"
	"riscvkernel/kernel/cpu"
)

// halt is a package var rather than a direct cpu.Halt call so tests can
// substitute a non-halting stand-in and observe that Panic reached it.
var halt = cpu.Halt

// genericFailure wraps any failure Panic is handed that isn't already a
// *kernel.Error: a bare string, or a stdlib error returned by code outside
// this kernel's own packages.
var genericFailure = &kernel.Error{Module: "rt", Message: "unknown cause"}

const banner = "\n-----------------------------------\n"

// Panic reports e on the console and halts the hart. It never returns. Any
// required service that fails to come up in kmain funnels through here;
// the trap dispatcher's fatal-trap branch prints its own diagnostic and
// calls cpu.Halt directly instead.
func Panic(e interface{}) {
	err := asKernelError(e)

	Printf(banner)
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf(banner)

	halt()
}

// asKernelError normalizes whatever Panic was handed into a *kernel.Error,
// or nil if e was nil.
func asKernelError(e interface{}) *kernel.Error {
	switch v := e.(type) {
	case nil:
		return nil
	case *kernel.Error:
		return v
	case string:
		genericFailure.Message = v
		return genericFailure
	case error:
		genericFailure.Message = v.Error()
		return genericFailure
	default:
		genericFailure.Message = "panic with an unrecognized value"
		return genericFailure
	}
}
