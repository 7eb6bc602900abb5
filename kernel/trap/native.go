package trap

import "riscvkernel/kernel/proc"

// The methods in this file are the in-process equivalent of the ecall ABI
// above, for Go-native tasks (the shell in kernel/shell, and this kernel's
// own demo/test tasks) that run in the kernel's own address space and
// therefore never actually trap: they call straight into the same table
// operations Dispatch uses on behalf of a raw binary task arriving via
// ecall, without touching mcause/mepc at all — there is no pending trap
// frame to redirect, because nothing trapped.
//
// Because this kernel's PCB stores only stack_top (where a dispatch starts
// execution), not a live, resumable register/PC context, a task's entry
// function is called fresh on every dispatch and must track its own
// progress through external state if it spans more than one dispatch —
// exactly as spec.md §9's raw-register note and cpu.SwitchStack's contract
// both imply. A Go-native task that wants to "yield" calls Yield and then
// returns from its Entry function; the scheduler's return hook sees it
// still READY (not ZOMBIE) and leaves it for the next round-robin pass.

// Yield marks the calling task READY (if it is RUNNING) without touching
// any trap state. The caller must return from its Entry function
// immediately afterward.
func (d *Dispatcher) Yield() {
	if p := d.Procs.ByPID(d.Procs.Current); p != nil && p.State == proc.StateRunning {
		p.State = proc.StateReady
	}
}

// Exit terminates the calling task. The caller must return from its Entry
// function immediately afterward.
func (d *Dispatcher) Exit() {
	d.Procs.TerminateProcess(d.Procs.Current)
}

// SemCreate creates a semaphore owned by the calling task, returning its
// id, or -1 on failure.
func (d *Dispatcher) SemCreate(initial int) int {
	return d.doSemCreate(initial)
}

// SemWait decrements semaphore id's count and reports whether the calling
// task must now block. When blocked is true, the caller must return from
// its Entry function immediately: the task's state is already BLOCKED_SEM
// and it has been linked onto the semaphore's wait list, exactly as a
// real blocking ecall would leave it.
func (d *Dispatcher) SemWait(id int) (blocked bool) {
	current := d.Procs.ByPID(d.Procs.Current)
	if current == nil {
		return false
	}

	wouldBlock, err := d.Sems.Wait(id, current)
	return err == nil && wouldBlock
}

// SemSignal increments semaphore id's count, waking one blocked waiter (if
// any) without preempting the caller.
func (d *Dispatcher) SemSignal(id int) {
	d.doSemSignal(id)
}

// SemDestroy frees semaphore id, returning 0 on success or -1 if the id
// is unknown or the semaphore still has waiters.
func (d *Dispatcher) SemDestroy(id int) int {
	return d.doSemDestroy(id)
}
