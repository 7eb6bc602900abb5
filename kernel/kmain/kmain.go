// Package kmain wires every subsystem together into the boot sequence
// described by spec.md §2 and grounded in original_source/kernel.cpp's
// sequential Service bring-up: bump allocator, Go runtime bootstrap,
// hardware detection, process/semaphore tables, filesystem, embedded
// program installation, the trap dispatcher, and finally the scheduler
// loop that never returns.
package kmain

import (
	"riscvkernel/kernel"
	"riscvkernel/kernel/fs"
	"riscvkernel/kernel/goruntime"
	"riscvkernel/kernel/hal"
	"riscvkernel/kernel/kfmt"
	"riscvkernel/kernel/mm"
	"riscvkernel/kernel/proc"
	"riscvkernel/kernel/sched"
	"riscvkernel/kernel/sem"
	"riscvkernel/kernel/shell"
	"riscvkernel/kernel/trap"
	"riscvkernel/kernel/userprog"

	_ "riscvkernel/device/uart" // self-registers with the device package
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
	errNoConsole     = &kernel.Error{Module: "kmain", Message: "no console driver responded"}
)

// Kmain is the only Go symbol the boot assembly (out of scope per
// spec.md §1) calls, once it has parked the hart in machine mode with
// mtvec pointed at the trap vector and a usable stack. heapStart and
// heapEnd are the linker script's `_kernel_heap_start`/`_kernel_heap_end`
// symbols, read by that same boot assembly and passed in as plain
// arguments — mirroring gopheros's Kmain(multibootInfoPtr, kernelStart,
// kernelEnd uintptr) taking its own boot-time bounds as arguments rather
// than reaching for package-level linker symbols itself.
//
// Kmain never returns in normal operation; the scheduler loop it starts
// runs forever. If it somehow does return, that is treated exactly like
// any other unrecoverable failure.
//
//go:noinline
func Kmain(heapStart, heapEnd uintptr) {
	mm.Init(heapStart, heapEnd)

	if err := goruntime.Init(); err != nil {
		kfmt.Panic(err)
	}

	hal.DetectHardware()

	console, ok := hal.ActiveConsole().(shell.Console)
	if !ok {
		kfmt.Panic(errNoConsole)
	}

	procs := &proc.Table{}
	procs.Init()

	sems := &sem.Table{}
	sems.Init()

	fsys := fs.New()
	if err := userprog.Install(fsys); err != nil {
		kfmt.Panic(err)
	}

	trap.New(procs, sems)

	scheduler := sched.New(procs, nil)
	scheduler.ShellEntry = shell.New(fsys, procs, scheduler, console).Main

	scheduler.Run()

	// Use kfmt.Panic instead of panic so the compiler cannot treat this
	// call as dead code and eliminate it.
	kfmt.Panic(errKmainReturned)
}
