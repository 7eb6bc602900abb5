// Package sched implements the cooperative scheduler: round-robin task
// selection, the stack-switch entry into a task, and the return hook that
// every task exit path — normal return, SYSCALL_EXIT, SYSCALL_YIELD, or a
// blocking SYSCALL_SEM_WAIT — re-enters to give control back to the kernel.
//
// The scheduler is a singleton by design: spec.md §9 calls out that the
// process table, semaphore table and filesystem are process-wide mutable
// state with no locks, because the single-hart cooperative model means a
// lock would only mask a bug if preemption ever crept in. Active holds the
// one instance kernel/trap dispatches through.
package sched

import (
	"riscvkernel/kernel/cpu"
	"riscvkernel/kernel/kfmt"
	"riscvkernel/kernel/proc"
	"unsafe"
)

// KernelSavedSP holds the kernel's own stack pointer while a task is
// running, so that any of the task's three exit paths can restore it.
var KernelSavedSP uintptr

// KernelResumePC holds the address control should jump to when a task
// suspends via a path other than a normal return: the trap dispatcher sets
// mepc to this value for SYSCALL_EXIT and SYSCALL_YIELD, and for a
// SYSCALL_SEM_WAIT that blocks. It is always the code address of
// ProcessReturn, read out of its func value through the same funcval layout
// proc.CreateProcessFromBinary uses to wrap a raw entry address as a func().
var KernelResumePC uintptr

// Active is the scheduler instance kernel/trap dispatches syscalls
// through. It is set by New.
var Active *Scheduler

// Scheduler couples a process table with the shell entry point it creates
// on first run, and drives the round-robin loop described in spec.md §4.5.
type Scheduler struct {
	Procs *proc.Table

	// ShellEntry is the task function installed as PID-owning "shell"
	// the first time Run finds every slot FREE. It is supplied by the
	// caller (kmain) rather than imported directly, so this package has
	// no dependency on kernel/shell or anything it in turn depends on.
	ShellEntry func()
}

// New returns a Scheduler over procs, using shellEntry as the bootstrap
// shell task's entry point, and installs it as Active.
func New(procs *proc.Table, shellEntry func()) *Scheduler {
	s := &Scheduler{Procs: procs, ShellEntry: shellEntry}
	Active = s
	KernelResumePC = resumeHookAddr()
	return s
}

// resumeHookAddr returns the code address of ProcessReturn: a func value
// points at a funcval whose first word is that address, the same layout
// proc.entryAt relies on. This is the Go-level equivalent of the source's
// `kernel_resume_pc = (uintptr_t)&scheduler_process_return`.
func resumeHookAddr() uintptr {
	fn := ProcessReturn
	fv := *(**struct{ fn uintptr })(unsafe.Pointer(&fn))
	return fv.fn
}

// bootstrapShell creates the "shell" task described in spec.md §4.5, used
// the first time Run observes an entirely empty process table.
func (s *Scheduler) bootstrapShell() {
	pid, err := s.Procs.CreateProcess(s.ShellEntry, "shell", proc.DefaultStackSize)
	if err != nil {
		kfmt.Printf("(scheduler) failed to create shell process: %s\n", err.Message)
		return
	}
	kfmt.Printf("(scheduler) process created for 'shell' [PID %d]\n", pid)
}

// idle is invoked when no task is runnable. The real kernel has nothing
// else to do but wait for an interrupt; tests substitute idleFn.
var idleFn = cpu.Halt

// Run is the scheduler loop: bootstrap the shell if the table is empty,
// then repeatedly select and dispatch the next runnable task. On real
// hardware this never returns; RunOnce is exposed separately so tests can
// drive one dispatch at a time without spinning forever on an empty table.
func (s *Scheduler) Run() {
	if s.Procs.Count() == 0 {
		s.bootstrapShell()
	}

	for {
		if !s.RunOnce() {
			idleFn()
		}
	}
}

// RunOnce selects the next runnable task via the process table's
// round-robin scan and dispatches it. It reports whether a task was found
// and run.
func (s *Scheduler) RunOnce() bool {
	p := s.Procs.NextReady()
	if p == nil {
		return false
	}
	s.runProcess(p)
	return true
}

// RunPID dispatches the process named by pid directly, bypassing the
// round-robin scan — the Go equivalent of the source's
// scheduler_run_pid, used by the shell's `run` command to launch a
// freshly created task synchronously and wait for it to suspend or exit
// before returning control to the shell's own Entry call. It reports
// whether pid named a live process with an entry point; the process's
// state is not checked.
func (s *Scheduler) RunPID(pid int) bool {
	p := s.Procs.ByPID(pid)
	if p == nil || p.Entry == nil {
		return false
	}
	s.runProcess(p)
	return true
}

// runProcess implements spec.md §4.5's run_process: save the kernel stack
// pointer, point the resume PC at the return hook, switch onto the task's
// stack, mark it RUNNING, and call its entry. If entry returns normally,
// the return hook is invoked explicitly — the task exited without going
// through a syscall, so nothing else is going to call it. A task still
// RUNNING at that point is marked ZOMBIE first, so the hook reclaims its
// slot; one that yielded or blocked before returning keeps its state.
func (s *Scheduler) runProcess(p *proc.PCB) {
	if p == nil || p.Entry == nil {
		return
	}

	KernelSavedSP = cpu.ReadSP()
	cpu.Fence()
	cpu.SwitchStack(p.StackTop)

	s.Procs.Current = p.PID
	p.State = proc.StateRunning

	p.Entry()

	if p.State == proc.StateRunning {
		p.State = proc.StateZombie
	}
	ProcessReturn()
}

// ResumeFromBlockedWait is the blocking half of SYSCALL_SEM_WAIT (spec.md
// §4.6 step 7): called by kernel/trap once kernel/sem has confirmed the
// current task must block, after mepc has already been redirected to
// KernelResumePC. It performs exactly the stack-pointer restoration half
// of ProcessReturn, but — unlike ProcessReturn — never reclaims the
// outgoing PCB, because it is BLOCKED_SEM, not ZOMBIE: spec.md §4.5 is
// explicit that only the return hook's ZOMBIE branch reclaims a slot, and
// a blocked task must stay exactly as its semaphore's wait list left it
// until some later sem_signal marks it READY again.
//
// On real hardware this is the in-line stack/PC redirection spec.md §4.6
// describes as never returning to the caller; here it returns normally to
// kernel/trap, whose own caller (the boot assembly trap vector, out of
// scope) performs the mret that actually resumes execution at mepc.
func ResumeFromBlockedWait() {
	cpu.SwitchStack(KernelSavedSP)
	cpu.Fence()
	if Active != nil {
		Active.Procs.Current = 0
	}
}

// ProcessReturn is spec.md §4.5's scheduler_process_return: the return hook
// every task exit path re-enters, whether by a normal return (called
// directly, above) or by the trap dispatcher redirecting mepc here for
// SYSCALL_EXIT/SYSCALL_YIELD, or by kernel/trap's blocking SYSCALL_SEM_WAIT
// path doing the same. It restores the kernel stack pointer, reclaims the outgoing
// PCB's slot if (and only if) it is ZOMBIE — a blocked task is left exactly
// as BLOCKED_SEM, per spec.md §4.5 — and clears Current so the loop in Run
// picks the next runnable task.
func ProcessReturn() {
	cpu.SwitchStack(KernelSavedSP)
	cpu.Fence()

	s := Active
	if p := s.Procs.ByPID(s.Procs.Current); p != nil && p.State == proc.StateZombie {
		s.Procs.ResumeScanAt(p.PID)
		*p = proc.PCB{BlockedSemID: -1}
	}

	s.Procs.Current = 0
}
