// Package goruntime bootstraps the pieces of the Go runtime that this
// kernel needs before ordinary Go code — maps, interfaces, heap allocation
// via new/make — can be used: alginit, modulesinit, typelinksinit,
// itabsinit, and mallocinit. mallocinit in turn calls back into sysReserve,
// sysMap and sysAlloc, which this file replaces with implementations backed
// by the kernel's bump allocator.
//
// Because this kernel runs with the MMU off — there is no paging, per this
// kernel's non-goals — "reserving" and "mapping" address space collapse
// into a single operation: every address the Go runtime sees is already a
// physical one, handed out permanently by mm.Alloc.
package goruntime

import (
	"riscvkernel/kernel"
	"riscvkernel/kernel/mm"
	"unsafe"
)

var (
	allocFn = mm.Alloc

	mallocInitFn    = mallocInit
	algInitFn       = algInit
	modulesInitFn   = modulesInit
	typeLinksInitFn = typeLinksInit
	itabsInitFn     = itabsInit

	// prngSeed seeds the pseudo-random number generator used by getRandomData.
	prngSeed = 0xdeadc0de
)

//go:linkname algInit runtime.alginit
func algInit()

//go:linkname modulesInit runtime.modulesinit
func modulesInit()

//go:linkname typeLinksInit runtime.typelinksinit
func typeLinksInit()

//go:linkname itabsInit runtime.itabsinit
func itabsInit()

//go:linkname mallocInit runtime.mallocinit
func mallocInit()

// sysReserve reserves address space without establishing any mapping. On
// this kernel there is no distinction between reserving and mapping, so
// this allocates outright.
//
//go:redirect-from runtime.sysReserve
//go:nosplit
func sysReserve(_ unsafe.Pointer, size uintptr, reserved *bool) unsafe.Pointer {
	addr, err := allocFn(size)
	if err != nil {
		panic(err)
	}

	*reserved = true
	return unsafe.Pointer(addr)
}

// sysMap establishes a mapping for a region previously reserved via
// sysReserve. Since sysReserve already allocated real memory, sysMap is a
// no-op that returns the address unchanged.
//
//go:redirect-from runtime.sysMap
//go:nosplit
func sysMap(virtAddr unsafe.Pointer, size uintptr, reserved bool, sysStat *uint64) unsafe.Pointer {
	if !reserved {
		panic("sysMap should only be called with reserved=true")
	}

	*sysStat += uint64(size)
	return virtAddr
}

// sysAlloc allocates size bytes and returns the resulting address, or the
// nil pointer if the kernel heap is exhausted.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	addr, err := allocFn(size)
	if err != nil {
		return unsafe.Pointer(uintptr(0))
	}

	*sysStat += uint64(size)
	return unsafe.Pointer(addr)
}

// nanotime returns a monotonically increasing clock value. This kernel has
// no timer source in its core, so this is a dummy implementation invoked by
// the allocator during span bookkeeping.
//
//go:redirect-from runtime.nanotime
//go:nosplit
func nanotime() uint64 {
	for i := 0; i < 100; i++ {
	}
	return 1
}

// getRandomData populates r with pseudo-random bytes. The runtime normally
// reads /dev/random; there is no such source here, so a small LCG stands in.
//
//go:redirect-from runtime.getRandomData
func getRandomData(r []byte) {
	for i := range r {
		prngSeed = (prngSeed * 58321) + 11113
		r[i] = byte((prngSeed >> 16) & 255)
	}
}

// Init enables the Go runtime features the rest of the kernel depends on:
// heap allocation (new, make), map primitives, and interfaces. It must run
// after mm.Init and before any other kernel package uses those features.
func Init() *kernel.Error {
	mallocInitFn()
	algInitFn()
	modulesInitFn()
	typeLinksInitFn()
	itabsInitFn()

	return nil
}
