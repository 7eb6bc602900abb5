// Package trap implements the high-level trap dispatcher described in
// spec.md §4.6: it decodes mcause, dispatches the six syscalls a task can
// issue via ecall, and resumes either the caller (non-blocking path) or the
// scheduler's return hook (exit, yield, or a semaphore wait that blocks).
//
// The low-level trap vector itself — saving caller-visible register state
// and calling Dispatch — is boot assembly and out of scope per spec.md §1;
// this package picks up from "a7 holds the syscall id, a0..a3 hold its
// arguments" onward.
package trap

import (
	"riscvkernel/kernel/cpu"
	"riscvkernel/kernel/kfmt"
	"riscvkernel/kernel/proc"
	"riscvkernel/kernel/sched"
	"riscvkernel/kernel/sem"
)

// Syscall numbers, per spec.md §6.
const (
	SyscallExit       = 93
	SyscallYield      = 124
	SyscallSemCreate  = 150
	SyscallSemWait    = 151
	SyscallSemSignal  = 152
	SyscallSemDestroy = 153
)

// Dispatcher couples the process and semaphore tables the trap handler acts
// on. It is a thin layer over kernel/proc, kernel/sem and kernel/sched: it
// owns none of their state, only the syscall-id-to-operation mapping.
type Dispatcher struct {
	Procs *proc.Table
	Sems  *sem.Table
}

// New returns a Dispatcher over the given tables and installs it as Active.
func New(procs *proc.Table, sems *sem.Table) *Dispatcher {
	d := &Dispatcher{Procs: procs, Sems: sems}
	Active = d
	return d
}

// Active is the Dispatcher the boot assembly's trap vector reaches through
// HandleTrap. It is set by New, mirroring kernel/sched's Active singleton.
var Active *Dispatcher

// HandleTrap is the single Go-level entry point the trap vector (out of
// scope per spec.md §1) calls after saving the trapped register state into
// regs. It exists so that boot assembly has one fixed symbol to call
// regardless of which Dispatcher instance kmain created.
func HandleTrap(regs *Regs) {
	Active.Dispatch(regs)
}

// Regs is the subset of trapped register state the dispatcher needs: the
// syscall id and up to four arguments (a7 and a0..a3), plus the Result to
// write back into a0. mepc is not part of it: Dispatch reads and writes
// mepc directly through kernel/cpu.
// The boot assembly's trap vector is responsible for populating this from
// the saved context and for actually restoring registers on return; this
// struct is the seam between that assembly and this package.
type Regs struct {
	ID   uint64
	Arg0 int
	Arg1 int
	Arg2 int
	Arg3 int

	// Result is written by Dispatch for syscalls that return a value in
	// a0; the trap vector copies it back into the saved a0 slot.
	Result int
}

// Dispatch implements spec.md §4.6 in full. It reads mcause via cpu; if the
// trap is not an environment call it prints a diagnostic and halts forever
// (the only unrecoverable failure in this kernel). Otherwise it dispatches
// on regs.ID and returns.
func (d *Dispatcher) Dispatch(regs *Regs) {
	cause := cpu.ReadMCause()
	if !cpu.IsEnvironmentCall(cause) {
		kfmt.Printf("Error: Unhandled trap! mcause = %x\n", cause)
		cpu.Halt()
	}

	switch regs.ID {
	case SyscallExit:
		d.doExit()
		return // mepc now points at the return hook, not mepc+4

	case SyscallYield:
		d.doYield()
		return // same: redirected to the return hook

	case SyscallSemCreate:
		regs.Result = d.doSemCreate(regs.Arg0)
		d.advance()

	case SyscallSemWait:
		if d.doSemWait(regs.Arg0) {
			return // redirected to the return hook; never falls through
		}
		regs.Result = 0
		d.advance()

	case SyscallSemSignal:
		d.doSemSignal(regs.Arg0)
		regs.Result = 0
		d.advance()

	case SyscallSemDestroy:
		regs.Result = d.doSemDestroy(regs.Arg0)
		d.advance()

	default:
		// spec.md §8 scenario 6 describes an unknown syscall id as a
		// diagnostic followed by the task continuing past its ecall, not
		// a redirect to the return hook — there is nothing to unwind,
		// since no table operation ran. advance (not a jump to
		// KernelResumePC) is what makes that externally observable.
		kfmt.Printf("(trap) unknown syscall id %d\n", regs.ID)
		regs.Result = -1
		d.advance()
	}
}

// advance steps mepc past the ecall instruction (4 bytes, since this
// kernel targets no compressed-instruction ecall encoding) so a
// non-blocking syscall resumes the caller on the very next instruction.
func (d *Dispatcher) advance() {
	cpu.WriteMEPC(cpu.ReadMEPC() + 4)
}

// doExit implements spec.md §4.6 step 5: terminate the current task and
// redirect mepc to the scheduler's return hook. It never returns to the
// caller.
func (d *Dispatcher) doExit() {
	d.Procs.TerminateProcess(d.Procs.Current)
	cpu.WriteMEPC(sched.KernelResumePC)
}

// doYield implements spec.md §4.6 step 6: if the current task is RUNNING,
// mark it READY, then behave exactly as doExit does for the mepc/return
// path — the task is not terminated, only suspended, so the return hook
// will find it READY (not ZOMBIE) and leave its slot alone.
func (d *Dispatcher) doYield() {
	if p := d.Procs.ByPID(d.Procs.Current); p != nil && p.State == proc.StateRunning {
		p.State = proc.StateReady
	}
	cpu.WriteMEPC(sched.KernelResumePC)
}

// doSemCreate implements SEM_CREATE: the initial count is a0, owner is the
// current PID. Returns the new id, or -1 on failure.
func (d *Dispatcher) doSemCreate(initial int) int {
	id, err := d.Sems.Create(initial, d.Procs.Current)
	if err != nil {
		return -1
	}
	return id
}

// doSemWait implements SEM_WAIT. It reports whether the current task must
// block; if so, it has already redirected the kernel stack pointer and
// mepc to the return hook, mirroring the source's in-line stack-pointer
// and PC redirection from inside the semaphore logic itself (spec.md §4.6
// step 7: "this never returns to the caller").
func (d *Dispatcher) doSemWait(id int) (blocked bool) {
	current := d.Procs.ByPID(d.Procs.Current)
	if current == nil {
		return false
	}

	wouldBlock, err := d.Sems.Wait(id, current)
	if err != nil || !wouldBlock {
		return false
	}

	cpu.WriteMEPC(sched.KernelResumePC)
	sched.ResumeFromBlockedWait()
	return true
}

// doSemSignal implements SEM_SIGNAL. It never preempts the caller: the
// woken task simply becomes eligible for the scheduler's next round-robin
// pass, per spec.md §4.4.
func (d *Dispatcher) doSemSignal(id int) {
	d.Sems.Signal(id)
}

// doSemDestroy implements SEM_DESTROY, returning 0 on success or -1 if the
// id is unknown or the semaphore still has waiters (the resolved open
// question from spec.md §9: this kernel rejects destroying a semaphore
// with blocked waiters rather than silently abandoning them).
func (d *Dispatcher) doSemDestroy(id int) int {
	if err := d.Sems.Destroy(id); err != nil {
		return -1
	}
	return 0
}
