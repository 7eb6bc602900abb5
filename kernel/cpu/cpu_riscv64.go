// Package cpu wraps the handful of RISC-V machine-mode primitives that
// cannot be expressed in portable Go: reading/writing the stack pointer,
// halting the hart, and fencing memory around a stack switch. Every function
// declared without a body in this file is implemented in cpu_riscv64.s; the
// contract for each is documented here rather than in the assembly.
package cpu

// Halt stops instruction execution by looping on wfi (wait for interrupt).
// Used by kfmt.Panic as the terminal action after an unrecoverable error has
// been reported; it never returns.
func Halt()

// ReadSP returns the current stack pointer. The scheduler calls this
// immediately before switching onto a task's stack, so that the value can be
// stashed away and restored once the task suspends.
func ReadSP() uintptr

// SwitchStack installs sp as the stack pointer and returns. Callers must not
// assume anything about the contents of registers that were live in the
// caller's frame: this is a raw stack swap, not a context switch of general
// purpose registers, mirroring the semantics the task entry functions in
// this kernel are written against (a task's entry never expects to resume
// mid-function; it suspends only by returning or via syscall).
func SwitchStack(sp uintptr)

// Fence issues a `fence rw,rw` instruction, ensuring that memory writes
// performed by the outgoing context are visible to the incoming context
// across a stack switch, and vice versa. Required around both halves of the
// switch performed by the scheduler (run_process) and the return hook
// (scheduler_process_return).
func Fence()

// ReadMCause returns the value of the mcause CSR, identifying why a trap
// was taken. The trap dispatcher uses this, via IsEnvironmentCall, to
// distinguish an environment call from every other, fatal, trap cause.
func ReadMCause() uint64

// ReadMEPC returns the value of the mepc CSR (the address the trapped
// instruction will resume at).
func ReadMEPC() uintptr

// WriteMEPC sets the mepc CSR. The trap dispatcher uses this both to step
// past a handled `ecall` (mepc+4) and to redirect execution to the kernel
// resume address when a task exits, yields, or blocks.
func WriteMEPC(pc uintptr)

// mcauseEnvironmentCall is the mcause value loaded when a hart traps on an
// ecall issued from a task.
const mcauseEnvironmentCall = 11

// IsEnvironmentCall reports whether cause (an mcause value) identifies an
// ecall trap rather than some other exception or interrupt.
func IsEnvironmentCall(cause uint64) bool {
	return cause == mcauseEnvironmentCall
}
