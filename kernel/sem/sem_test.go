package sem

import (
	"riscvkernel/kernel/proc"
	"testing"
)

func TestCreateIssuesIncreasingIDs(t *testing.T) {
	var table Table
	table.Init()

	id1, err := table.Create(1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := table.Create(0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected distinct ids; got %d and %d", id1, id2)
	}
}

func TestCreateFailsWhenTableFull(t *testing.T) {
	var table Table
	table.Init()

	for i := 0; i < MaxSems; i++ {
		if _, err := table.Create(0, 1); err != nil {
			t.Fatalf("unexpected error on slot %d: %v", i, err)
		}
	}

	if _, err := table.Create(0, 1); err != ErrTableFull {
		t.Fatalf("expected ErrTableFull; got %v", err)
	}
}

func TestWaitBlocksOnNegativeCountAndInvariantHolds(t *testing.T) {
	var table Table
	table.Init()
	id, _ := table.Create(0, 1)

	var p proc.PCB
	p.PID = 1
	p.State = proc.StateRunning

	blocked, err := table.Wait(id, &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !blocked {
		t.Fatal("expected Wait on a zero-count semaphore to block")
	}
	if p.State != proc.StateBlockedSem {
		t.Fatalf("expected PCB to be BLOCKED_SEM; got %v", p.State)
	}

	s := table.Get(id)
	if s.Count() != -1 {
		t.Fatalf("expected count -1; got %d", s.Count())
	}
	if s.WaitLen() != 1 {
		t.Fatalf("expected wait list length 1; got %d", s.WaitLen())
	}
}

func TestWaitDoesNotBlockWhenCountStaysNonNegative(t *testing.T) {
	var table Table
	table.Init()
	id, _ := table.Create(1, 1)

	var p proc.PCB
	p.State = proc.StateRunning

	blocked, err := table.Wait(id, &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blocked {
		t.Fatal("expected Wait on a positive-count semaphore not to block")
	}
	if p.State != proc.StateRunning {
		t.Fatalf("expected PCB state untouched; got %v", p.State)
	}
}

func TestSignalWakesExactlyOneWaiterFIFO(t *testing.T) {
	var table Table
	table.Init()
	id, _ := table.Create(0, 1)

	var a, b proc.PCB
	a.PID, b.PID = 1, 2
	a.State, b.State = proc.StateRunning, proc.StateRunning

	table.Wait(id, &a)
	table.Wait(id, &b)

	if err := table.Signal(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.State != proc.StateReady {
		t.Fatalf("expected first waiter (FIFO head) to be woken; got state %v", a.State)
	}
	if b.State != proc.StateBlockedSem {
		t.Fatalf("expected second waiter to remain blocked; got state %v", b.State)
	}

	s := table.Get(id)
	if s.WaitLen() != 1 {
		t.Fatalf("expected one waiter left; got %d", s.WaitLen())
	}
}

func TestSignalWithoutWaitersJustIncrements(t *testing.T) {
	var table Table
	table.Init()
	id, _ := table.Create(0, 1)

	if err := table.Signal(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := table.Get(id)
	if s.Count() != 1 {
		t.Fatalf("expected count 1; got %d", s.Count())
	}
	if s.WaitLen() != 0 {
		t.Fatalf("expected no waiters; got %d", s.WaitLen())
	}
}

func TestDestroyRejectsWhenWaitersRemain(t *testing.T) {
	var table Table
	table.Init()
	id, _ := table.Create(0, 1)

	var p proc.PCB
	p.State = proc.StateRunning
	table.Wait(id, &p)

	if err := table.Destroy(id); err != ErrWaitersRemain {
		t.Fatalf("expected ErrWaitersRemain; got %v", err)
	}
	if table.Get(id) == nil {
		t.Fatal("expected semaphore to remain live after rejected destroy")
	}
}

func TestDestroySucceedsWhenWaitListEmpty(t *testing.T) {
	var table Table
	table.Init()
	id, _ := table.Create(1, 1)

	if err := table.Destroy(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Get(id) != nil {
		t.Fatal("expected semaphore to be gone after destroy")
	}
}

func TestUnknownIDOperationsReturnErrNotFound(t *testing.T) {
	var table Table
	table.Init()

	var p proc.PCB
	if _, err := table.Wait(999, &p); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from Wait; got %v", err)
	}
	if err := table.Signal(999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from Signal; got %v", err)
	}
	if err := table.Destroy(999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from Destroy; got %v", err)
	}
}

// TestBinarySemaphoreMutualExclusionScenario grounds the table directly in
// end-to-end scenario 2: a binary semaphore serializes two tasks so that
// each one's pair of critical-section prints is never interleaved with the
// other's.
func TestBinarySemaphoreMutualExclusionScenario(t *testing.T) {
	var table Table
	table.Init()
	sid, _ := table.Create(1, 1)

	var a, b proc.PCB
	a.PID, b.PID = 1, 2
	a.State, b.State = proc.StateRunning, proc.StateRunning

	if blocked, _ := table.Wait(sid, &a); blocked {
		t.Fatal("expected first waiter on a free binary semaphore not to block")
	}
	if blocked, _ := table.Wait(sid, &b); !blocked {
		t.Fatal("expected second waiter on a held binary semaphore to block")
	}

	table.Signal(sid)
	if b.State != proc.StateReady {
		t.Fatalf("expected signal to wake the waiting task; got %v", b.State)
	}
}

// TestProducerConsumerScenario grounds the table in end-to-end scenario 3:
// the consumer starts first and blocks on "full"; the producer's signal
// wakes it.
func TestProducerConsumerScenario(t *testing.T) {
	var table Table
	table.Init()
	full, _ := table.Create(0, 1)
	empty, _ := table.Create(1, 1)

	var consumer, producer proc.PCB
	consumer.PID, producer.PID = 1, 2
	consumer.State, producer.State = proc.StateRunning, proc.StateRunning

	if blocked, _ := table.Wait(full, &consumer); !blocked {
		t.Fatal("expected consumer to block waiting on an empty 'full' semaphore")
	}

	if blocked, _ := table.Wait(empty, &producer); blocked {
		t.Fatal("expected producer to acquire 'empty' without blocking")
	}
	table.Signal(full)

	if consumer.State != proc.StateReady {
		t.Fatalf("expected producer's signal to wake the consumer; got %v", consumer.State)
	}

	table.Signal(empty)
}
