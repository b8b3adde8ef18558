package kernel

import (
	"fmt"
	"sync"
)

// TaskFlags records the PCB status bits student-distrib packs into
// pcb->flags: whether the task is currently schedulable, whether it is
// blocked waiting on a child's halt, and whether it has mapped the video
// window via vidmap.
type TaskFlags uint8

const (
	TaskExecuting TaskFlags = 1 << iota
	TaskWaitingForChild
	TaskVidInUse
)

// FileDescriptor is one slot of a process's open-file table. Ops is nil
// for an unused slot; Kernel.Open selects it from the directory entry's
// type at open time.
type FileDescriptor struct {
	Ops   FileOps
	Inode uint32 // virtualized RTC rate, or on-disk inode number
	Pos   uint32 // read offset for regular files; next entry index for directories; unused for RTC
	InUse bool
}

// PCB is a process control block: everything a context switch, a syscall,
// or the scheduler needs to know about one process. PCBs live in a fixed
// arena indexed by PID (ProcTable.pcbs), the Go analogue of student-distrib
// deriving a PCB's address directly from its PID via get_pcb.
type PCB struct {
	PID        PID
	ParentPID  PID
	Terminal   int // which of the NumTerminals this process belongs to
	Flags      TaskFlags
	Context    Context
	Files      [NumFDs]FileDescriptor
	Args       string
	ExitStatus uint32
	ExitedWith bool

	// waitCh is closed by Halt so a blocked parent's Execute/Halt-wait can
	// observe child exit without a spin loop (student-distrib spins on
	// TASK_WAITING_FOR_CHILD from interrupt context; a goroutine can just
	// block on a channel).
	waitCh chan struct{}
}

// ProcTable owns the PID bitmap, the PCB arena, the per-terminal
// "most recent foreground process" head, and the kernel's notion of which
// PID is presently executing. Grounded on tasks/process.c's module-level
// globals (pid_map, terminal_pid_head, active_pid), gathered into one
// mutex-guarded struct instead of free globals per Go convention.
type ProcTable struct {
	mu sync.Mutex

	alloc            *PIDAllocator
	pcbs             [MaxPID + 1]*PCB
	terminalPIDHead  [NumTerminals]PID
	activePID        PID
}

// NewProcTable returns an empty table with no terminal yet bound to a
// foreground process and no active PID.
func NewProcTable() *ProcTable {
	pt := &ProcTable{alloc: NewPIDAllocator()}
	for t := range pt.terminalPIDHead {
		pt.terminalPIDHead[t] = NoPID
	}
	pt.activePID = NoPID
	return pt
}

// New reserves a PID and initializes its PCB, mirroring init_pcb: ESP/EBP
// primed to the top of the user stack, stdin/stdout bound to the owning
// terminal, parent_pid set to the caller's PID. The new process's terminal
// is inherited from the parent PCB when parent names a live process;
// bootTerminal is used only for the parentless case (the very first
// process spawned in a terminal, or a respawned shell), exactly as
// init_pcb falls back to get_active_terminal() when parent_pcb is NULL.
func (pt *ProcTable) New(parent PID, bootTerminal int, args string, terms *TerminalMux) (*PCB, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pid := pt.alloc.Reserve()
	if pid == NoPID {
		return nil, fmt.Errorf("kernel: no free pid (max %d tasks)", MaxTasks)
	}

	terminal := bootTerminal
	if parent.Valid() {
		if parentPCB := pt.pcbs[parent]; parentPCB != nil {
			terminal = parentPCB.Terminal
		}
	}

	pcb := &PCB{
		PID:       pid,
		ParentPID: parent,
		Terminal:  terminal,
		Flags:     TaskExecuting,
		Args:      args,
		waitCh:    make(chan struct{}),
	}
	pcb.Context.ESP = UserStackTop
	pcb.Context.EBP = UserStackTop
	pcb.Files[StdinFD] = FileDescriptor{Ops: terminalInOps{terms}, InUse: true}
	pcb.Files[StdoutFD] = FileDescriptor{Ops: terminalOutOps{terms}, InUse: true}

	pt.pcbs[pid] = pcb
	return pcb, nil
}

// Get returns the PCB for pid, or nil if pid is unallocated.
func (pt *ProcTable) Get(pid PID) *PCB {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if !pid.Valid() {
		return nil
	}
	return pt.pcbs[pid]
}

// Free releases pid's PCB slot and bitmap entry after Halt has finished
// unwinding it.
func (pt *ProcTable) Free(pid PID) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if err := pt.alloc.Free(pid); err != nil {
		return err
	}
	pt.pcbs[pid] = nil
	return nil
}

// ActivePID returns the PID the scheduler currently has running.
func (pt *ProcTable) ActivePID() PID {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.activePID
}

// SetActivePID records which PID is now running; called by the scheduler
// immediately before waking the goroutines parked in Checkpoint.
func (pt *ProcTable) SetActivePID(pid PID) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.activePID = pid
}

// TerminalPIDHead returns the most recently executed (innermost shell)
// process bound to terminal t, or NoPID if nothing has run there yet.
func (pt *ProcTable) TerminalPIDHead(t int) PID {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if t < 0 || t >= NumTerminals {
		return NoPID
	}
	return pt.terminalPIDHead[t]
}

// SetTerminalPIDHead records pid as the foreground process of terminal t.
func (pt *ProcTable) SetTerminalPIDHead(t int, pid PID) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if t < 0 || t >= NumTerminals {
		return
	}
	pt.terminalPIDHead[t] = pid
}

// NumTasks returns the count of currently live processes.
func (pt *ProcTable) NumTasks() int {
	return pt.alloc.NumTasks()
}

// Snapshot is a point-in-time, lock-free copy of one PCB's scheduling-
// relevant fields, used by reporting tools (cmd/kernel's progs listing)
// that must not hold the table lock while formatting output.
type Snapshot struct {
	PID       PID
	ParentPID PID
	Terminal  int
	Flags     TaskFlags
}

// Snapshots returns a Snapshot for every currently live process, ordered by
// PID.
func (pt *ProcTable) Snapshots() []Snapshot {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	out := make([]Snapshot, 0, pt.alloc.numTask)
	for pid, pcb := range pt.pcbs {
		if pcb == nil {
			continue
		}
		out = append(out, Snapshot{
			PID:       PID(pid),
			ParentPID: pcb.ParentPID,
			Terminal:  pcb.Terminal,
			Flags:     pcb.Flags,
		})
	}
	return out
}
