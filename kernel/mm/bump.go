// Package mm implements the kernel's only allocator: a bump allocator over
// a region whose bounds are handed in by the boot assembly from the linker
// script's `_kernel_heap_start`/`_kernel_heap_end` symbols. Allocations are
// permanent; there is no free. This is sufficient because the kernel never
// reclaims a task's code or stack memory, only the PCB slot that referenced
// it.
package mm

import "riscvkernel/kernel"

// alignment is the byte alignment applied to every allocation.
const alignment = 16

// PageSize is the unit used by AllocPage.
const PageSize = 4096

var (
	heapPtr   uintptr
	heapLimit uintptr

	// ErrOutOfMemory is returned when an allocation would exceed the heap
	// region handed to this kernel by the linker script.
	ErrOutOfMemory = &kernel.Error{Module: "mm", Message: "out of memory"}

	// ErrNotInitialized is returned by Alloc if Init has not yet been
	// called.
	ErrNotInitialized = &kernel.Error{Module: "mm", Message: "heap not initialized"}
)

// Init records the bounds of the heap region this allocator may hand out,
// as reported by the boot assembly from the linker script's
// `_kernel_heap_start`/`_kernel_heap_end` symbols.
func Init(heapStart, heapEnd uintptr) {
	heapPtr = heapStart
	heapLimit = heapEnd
}

// Alloc hands out size bytes, 16-byte aligned, from the kernel heap. It
// never returns fewer than size usable bytes and never reclaims memory.
// Alloc fails if size is zero, Init has not been called, or the heap is
// exhausted; it never partially advances the heap pointer on failure.
func Alloc(size uintptr) (uintptr, *kernel.Error) {
	if heapLimit == 0 {
		return 0, ErrNotInitialized
	}
	if size == 0 {
		return 0, ErrOutOfMemory
	}

	aligned := (size + alignment - 1) &^ (alignment - 1)
	if heapPtr+aligned > heapLimit {
		return 0, ErrOutOfMemory
	}

	addr := heapPtr
	heapPtr += aligned
	return addr, nil
}

// AllocPage allocates a single PageSize-byte region.
func AllocPage() (uintptr, *kernel.Error) {
	return Alloc(PageSize)
}

// ProcessMemory bundles the two allocations backing a task: its code region
// and its stack region.
type ProcessMemory struct {
	Code      uintptr
	CodeSize  uintptr
	Stack     uintptr
	StackSize uintptr
}

// AllocProcessMemory allocates a code region of codeSize bytes and a stack
// region of stackSize bytes. If either allocation fails, the returned
// ProcessMemory is the zero value: there is no way to return a single
// successful half, since the allocator cannot free it again.
func AllocProcessMemory(codeSize, stackSize uintptr) (ProcessMemory, *kernel.Error) {
	code, err := Alloc(codeSize)
	if err != nil {
		return ProcessMemory{}, err
	}

	stack, err := Alloc(stackSize)
	if err != nil {
		return ProcessMemory{}, err
	}

	return ProcessMemory{Code: code, CodeSize: codeSize, Stack: stack, StackSize: stackSize}, nil
}
