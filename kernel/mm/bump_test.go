package mm

import (
	"testing"
	"unsafe"
)

func resetHeap(t *testing.T, size int) {
	t.Helper()
	buf := make([]byte, size)
	start := uintptr(unsafe.Pointer(&buf[0]))
	Init(start, start+uintptr(size))
	t.Cleanup(func() { heapPtr, heapLimit = 0, 0 })
}

func TestAllocAlignsAndAdvances(t *testing.T) {
	resetHeap(t, 4096)

	a, err := Alloc(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := Alloc(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b-a != alignment {
		t.Fatalf("expected second allocation to start %d bytes after the first; got %d", alignment, b-a)
	}
}

func TestAllocZeroSizeFails(t *testing.T) {
	resetHeap(t, 4096)

	if _, err := Alloc(0); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory for zero-size alloc; got %v", err)
	}
}

func TestAllocOutOfMemoryDoesNotPartiallyAdvance(t *testing.T) {
	resetHeap(t, 32)

	before := heapPtr
	if _, err := Alloc(64); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory; got %v", err)
	}

	if heapPtr != before {
		t.Fatalf("expected heap pointer to be unchanged after a failed allocation")
	}
}

func TestAllocExactlyFillingRemainingHeapSucceeds(t *testing.T) {
	resetHeap(t, 16)

	if _, err := Alloc(16); err != nil {
		t.Fatalf("expected an allocation that exactly fills the remaining heap to succeed, got %v", err)
	}

	if _, err := Alloc(1); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory once the heap is exactly exhausted; got %v", err)
	}
}

func TestAllocBeforeInitFails(t *testing.T) {
	heapPtr, heapLimit = 0, 0

	if _, err := Alloc(16); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized; got %v", err)
	}
}

func TestAllocPageSize(t *testing.T) {
	resetHeap(t, PageSize*2)

	before := heapPtr
	if _, err := AllocPage(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if heapPtr-before != PageSize {
		t.Fatalf("expected AllocPage to advance the heap by %d bytes; advanced by %d", PageSize, heapPtr-before)
	}
}

func TestAllocProcessMemoryBundlesBothOrNeither(t *testing.T) {
	resetHeap(t, 256)

	pm, err := AllocProcessMemory(64, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pm.Code == 0 || pm.Stack == 0 {
		t.Fatalf("expected both code and stack to be allocated: %+v", pm)
	}

	resetHeap(t, 32)

	pm, err = AllocProcessMemory(64, 64)
	if err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory; got %v", err)
	}
	if pm.Code != 0 || pm.Stack != 0 {
		t.Fatalf("expected zero-value ProcessMemory on failure; got %+v", pm)
	}
}
