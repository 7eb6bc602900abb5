// Package sem implements the counting-semaphore table: a fixed array of
// slots, each with a signed count, an owner PID, and a FIFO wait-list of
// blocked PCBs. It knows nothing about how a blocked task is actually
// suspended or resumed; the caller (kernel/trap) is responsible for the
// stack-pointer and mepc redirection once Wait reports that the calling
// task must block.
package sem

import (
	"riscvkernel/kernel"
	"riscvkernel/kernel/proc"
)

// MaxSems is the capacity of the semaphore table.
const MaxSems = 32

var (
	// ErrTableFull is returned when every semaphore slot is occupied.
	ErrTableFull = &kernel.Error{Module: "sem", Message: "semaphore table full"}

	// ErrNotFound is returned when an id names no live semaphore.
	ErrNotFound = &kernel.Error{Module: "sem", Message: "unknown semaphore id"}

	// ErrWaitersRemain is returned by Destroy when the wait list is
	// non-empty. Destroying a semaphore with blocked waiters would leave
	// them stuck in BLOCKED_SEM forever, so Destroy rejects instead.
	ErrWaitersRemain = &kernel.Error{Module: "sem", Message: "semaphore has blocked waiters"}
)

// Semaphore is one slot of the table.
type Semaphore struct {
	id      int
	inUse   bool
	count   int
	owner   int
	waitHead *proc.PCB
	waitTail *proc.PCB
}

// ID returns the semaphore's id, or 0 if the slot is free.
func (s *Semaphore) ID() int {
	if !s.inUse {
		return 0
	}
	return s.id
}

// Count returns the semaphore's current signed count.
func (s *Semaphore) Count() int { return s.count }

// Owner returns the PID that created the semaphore.
func (s *Semaphore) Owner() int { return s.owner }

// WaitLen returns the number of PCBs currently on the wait list, by
// walking the intrusive list. Intended for tests asserting §3's invariant.
func (s *Semaphore) WaitLen() int {
	n := 0
	for p := s.waitHead; p != nil; p = p.NextBlocked {
		n++
	}
	return n
}

// Table is the semaphore table.
type Table struct {
	sems   [MaxSems]Semaphore
	nextID int
}

// Init resets every slot to unused and restarts the id counter at 1.
func (t *Table) Init() {
	for i := range t.sems {
		t.sems[i] = Semaphore{}
	}
	t.nextID = 1
}

func (t *Table) findFreeSlot() *Semaphore {
	for i := range t.sems {
		if !t.sems[i].inUse {
			return &t.sems[i]
		}
	}
	return nil
}

// Get looks up a semaphore by id, returning nil if unknown.
func (t *Table) Get(id int) *Semaphore {
	if id <= 0 {
		return nil
	}
	for i := range t.sems {
		if t.sems[i].inUse && t.sems[i].id == id {
			return &t.sems[i]
		}
	}
	return nil
}

// Create claims a free slot, stores initial and owner, and returns the new
// id. Returns -1 and ErrTableFull if every slot is occupied.
func (t *Table) Create(initial int, owner int) (int, *kernel.Error) {
	slot := t.findFreeSlot()
	if slot == nil {
		return -1, ErrTableFull
	}

	slot.inUse = true
	slot.id = t.nextID
	t.nextID++
	slot.count = initial
	slot.owner = owner
	slot.waitHead = nil
	slot.waitTail = nil

	return slot.id, nil
}

// Wait decrements the semaphore's count. If the result is negative, current
// is pushed onto the wait list's tail (FIFO: tail-insert, head-pop — a
// deliberate deviation from head-insertion, which can starve waiters) and
// its state is set to BLOCKED_SEM. Wait reports wouldBlock = true in that
// case; the caller is responsible for actually suspending current's
// context, since this package has no notion of stacks or program counters.
//
// current must not already be linked onto another semaphore's wait list;
// that would violate the "at most one blocked-list" invariant.
func (t *Table) Wait(id int, current *proc.PCB) (wouldBlock bool, err *kernel.Error) {
	s := t.Get(id)
	if s == nil {
		return false, ErrNotFound
	}

	s.count--
	if s.count >= 0 {
		return false, nil
	}

	current.State = proc.StateBlockedSem
	current.BlockedSemID = id
	current.NextBlocked = nil

	if s.waitTail == nil {
		s.waitHead = current
	} else {
		s.waitTail.NextBlocked = current
	}
	s.waitTail = current

	return true, nil
}

// Signal increments the semaphore's count. If there were waiters (count was
// at or below zero before the increment), it pops the head of the wait
// list and marks that PCB READY. Signal never preempts the caller; the
// woken task simply becomes eligible for the scheduler's next round-robin
// pass.
func (t *Table) Signal(id int) *kernel.Error {
	s := t.Get(id)
	if s == nil {
		return ErrNotFound
	}

	hadWaiters := s.count < 0
	s.count++

	if hadWaiters {
		woken := s.waitHead
		s.waitHead = woken.NextBlocked
		if s.waitHead == nil {
			s.waitTail = nil
		}
		woken.NextBlocked = nil
		woken.BlockedSemID = -1
		woken.State = proc.StateReady
	}

	return nil
}

// Destroy frees the semaphore's slot. It rejects the operation if the wait
// list is non-empty (the resolved choice for this kernel: the source
// silently drops such waiters, leaving them BLOCKED_SEM forever, which this
// implementation refuses to do).
func (t *Table) Destroy(id int) *kernel.Error {
	s := t.Get(id)
	if s == nil {
		return ErrNotFound
	}
	if s.waitHead != nil {
		return ErrWaitersRemain
	}

	*s = Semaphore{}
	return nil
}
