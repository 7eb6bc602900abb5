// Package proc implements the process table: a static array of process
// control blocks, PID issuance, and the lifecycle transitions between them.
// It knows nothing about how a task is actually resumed or suspended; that
// mechanism lives in kernel/sched and kernel/trap.
package proc

import (
	"riscvkernel/kernel"
	"riscvkernel/kernel/mm"
	"unsafe"
)

// MaxProcs is the capacity of the process table.
const MaxProcs = 16

// DefaultStackSize is the stack size used for the initial shell task.
const DefaultStackSize = 4096

// maxNameLen bounds a process name, including its terminator, matching the
// filesystem's own name limit.
const maxNameLen = 16

// alignDown16Mask clears an address's low four bits, rounding it down to
// the nearest 16-byte boundary.
const alignDown16Mask = ^uintptr(0xF)

// State is a PCB's lifecycle state.
type State int

const (
	StateFree State = iota
	StateReady
	StateRunning
	StateBlockedSem
	StateSleep // reserved; unused by this kernel
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlockedSem:
		return "blocked_sem"
	case StateSleep:
		return "sleep"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// PCB is a process control block.
type PCB struct {
	PID  int
	name [maxNameLen]byte
	nameLen int

	Entry     func()
	StackBase uintptr
	StackTop  uintptr
	StackSize uintptr

	State        State
	BlockedSemID int

	// NextBlocked is an intrusive singly-linked pointer used by a
	// semaphore's wait list. It is nil unless the PCB is currently on
	// exactly one such list.
	NextBlocked *PCB
}

// Name returns the process's name.
func (p *PCB) Name() string {
	return string(p.name[:p.nameLen])
}

var (
	// ErrTableFull is returned when every PCB slot is occupied.
	ErrTableFull = &kernel.Error{Module: "proc", Message: "process table full"}
)

// Table is the process table: a fixed array of PCBs plus the bookkeeping
// needed to issue PIDs and pick the next slot to run.
type Table struct {
	procs   [MaxProcs]PCB
	nextPID int

	// Current holds the PID of the running process, or 0 if none.
	Current int

	// lastRun is the table index NextReady last returned, or -1 if it has
	// never returned one; the next scan always starts at lastRun+1.
	lastRun int
}

// Init resets every slot to FREE, resets the PID counter, and clears the
// current process.
func (t *Table) Init() {
	for i := range t.procs {
		t.procs[i] = PCB{BlockedSemID: -1}
	}
	t.nextPID = 1
	t.Current = 0
	t.lastRun = -1
}

func (t *Table) findFreeSlot() *PCB {
	for i := range t.procs {
		if t.procs[i].State == StateFree {
			return &t.procs[i]
		}
	}
	return nil
}

// ByPID returns the PCB with the given PID, or nil if none is live.
func (t *Table) ByPID(pid int) *PCB {
	if pid <= 0 {
		return nil
	}
	for i := range t.procs {
		if t.procs[i].State != StateFree && t.procs[i].PID == pid {
			return &t.procs[i]
		}
	}
	return nil
}

func (t *Table) initSlot(slot *PCB, name string, stackBase, stackSize uintptr) {
	slot.PID = t.nextPID
	t.nextPID++
	slot.nameLen = copy(slot.name[:maxNameLen-1], name)
	slot.StackBase = stackBase
	slot.StackSize = stackSize
	slot.StackTop = (stackBase + stackSize) & alignDown16Mask
	slot.State = StateReady
	slot.BlockedSemID = -1
	slot.NextBlocked = nil
}

// CreateProcess claims a free slot, allocates a stack_size-byte stack, and
// marks the new PCB READY. It returns the new PID, or a negative sentinel
// (-1) and the underlying error on failure.
func (t *Table) CreateProcess(entry func(), name string, stackSize uintptr) (int, *kernel.Error) {
	slot := t.findFreeSlot()
	if slot == nil {
		return -1, ErrTableFull
	}

	stackBase, err := mm.Alloc(stackSize)
	if err != nil {
		return -1, err
	}

	t.initSlot(slot, name, stackBase, stackSize)
	slot.Entry = entry

	return slot.PID, nil
}

// CreateProcessFromBinary allocates a code region, rounds len(code) up to
// 16 bytes, copies code into it, and creates a process whose entry is the
// start of that region.
func (t *Table) CreateProcessFromBinary(code []byte, name string, stackSize uintptr) (int, *kernel.Error) {
	slot := t.findFreeSlot()
	if slot == nil {
		return -1, ErrTableFull
	}

	codeSize := (uintptr(len(code)) + 15) &^ 15
	pm, err := mm.AllocProcessMemory(codeSize, stackSize)
	if err != nil {
		return -1, err
	}

	if len(code) > 0 {
		kernel.Memcopy(uintptr(unsafe.Pointer(&code[0])), pm.Code, uintptr(len(code)))
	}

	t.initSlot(slot, name, pm.Stack, pm.StackSize)
	slot.Entry = entryAt(pm.Code)

	return slot.PID, nil
}

// funcval mirrors the layout the Go runtime uses for a func value: a
// pointer to a struct whose first (and, for a closure with no captures,
// only) word is the code address to jump to.
type funcval struct {
	fn uintptr
}

// entryAt returns a callable func() value that jumps to addr when called.
// This is how a task loaded from a raw binary image is executed: for such
// a task the code region itself is the entry point.
func entryAt(addr uintptr) func() {
	fv := &funcval{fn: addr}
	return *(*func())(unsafe.Pointer(&fv))
}

// TerminateProcess marks pid ZOMBIE. It is a no-op if pid does not name a
// live process. Slot reclamation happens later, in the scheduler's return
// hook.
func (t *Table) TerminateProcess(pid int) {
	if p := t.ByPID(pid); p != nil {
		p.State = StateZombie
	}
}

// Snapshot returns every process table slot, including free ones, for use
// by read-only reporting tools (the shell's `ps`) and tests.
func (t *Table) Snapshot() []PCB {
	out := make([]PCB, MaxProcs)
	copy(out, t.procs[:])
	return out
}

// MaxProcsConst returns the process table's fixed capacity.
func (t *Table) MaxProcsConst() int { return MaxProcs }

// Count returns the number of non-FREE slots.
func (t *Table) Count() int {
	n := 0
	for i := range t.procs {
		if t.procs[i].State != StateFree {
			n++
		}
	}
	return n
}

// indexOfPID returns the table index of the slot holding pid, or -1.
func (t *Table) indexOfPID(pid int) int {
	for i := range t.procs {
		if t.procs[i].State != StateFree && t.procs[i].PID == pid {
			return i
		}
	}
	return -1
}

// NextReady scans the table in round-robin order, starting one slot past
// the last slot handed out by a previous call, and returns the first PCB
// in state READY or RUNNING. The scan is bounded by MaxProcs. Returns nil
// if no process is runnable.
func (t *Table) NextReady() *PCB {
	start := t.lastRun + 1
	for offset := 0; offset < MaxProcs; offset++ {
		i := (start + offset) % MaxProcs
		if s := t.procs[i].State; s == StateReady || s == StateRunning {
			t.lastRun = i
			return &t.procs[i]
		}
	}
	return nil
}

// ResumeScanAt sets the round-robin cursor to the slot holding pid, so the
// next NextReady call resumes from just after the currently-running task.
// It is a no-op if pid does not name a live process.
func (t *Table) ResumeScanAt(pid int) {
	if i := t.indexOfPID(pid); i >= 0 {
		t.lastRun = i
	}
}
