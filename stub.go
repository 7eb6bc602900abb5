package main

import "riscvkernel/kernel/kmain"

var heapStart, heapEnd uintptr

// main is a trampoline for the real kernel entry point, kmain.Kmain. It
// exists so the linker has a reason to keep kmain's code: the actual entry
// symbol the boot assembly (out of scope per spec.md §1) jumps to is this
// binary's _start, which sets up a usable stack and mtvec before falling
// into the Go runtime's call to main.
//
// heapStart and heapEnd are package-level variables rather than inline
// zero literals so the compiler cannot constant-fold this call away; the
// boot assembly overwrites them (via their linker-visible symbol names)
// with `_kernel_heap_start`/`_kernel_heap_end` before main runs.
func main() {
	kmain.Kmain(heapStart, heapEnd)
}
