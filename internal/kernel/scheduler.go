package kernel

import (
	"sync"
	"time"
)

// Scheduler drives preemptive round-robin multitasking. Grounded on
// scheduler/scheduler.c's pit_handler/get_next_pid (scan for the next
// TASK_EXECUTING pid starting just after the currently active one,
// wrapping around) and tasks/process.c's pause_task/resume_task.
//
// Go cannot pivot another goroutine's stack the way resume_task's inline
// assembly does, so "run this process" is modeled as a long-lived
// goroutine representing one CPU: it may proceed only while the process
// table's active PID names it, and it must call Checkpoint at each
// syscall boundary to give the scheduler a chance to hand the CPU to
// someone else. That is the "single primitive with a precise pre/post
// contract" stand-in for the interrupt-driven context switch: Checkpoint's
// post-condition is always "the caller is now the active pid."
type Scheduler struct {
	procs *ProcTable

	mu   sync.Mutex
	cond *sync.Cond

	tickerStop chan struct{}
	tickerDone chan struct{}
	stopOnce   sync.Once
}

// NewScheduler returns a scheduler with no registered processes and no
// ticker running.
func NewScheduler(procs *ProcTable) *Scheduler {
	s := &Scheduler{procs: procs}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Register exists for symmetry with Unregister and callers that want to
// announce a new process before its first Resume; scheduling itself keys
// entirely off ProcTable's active-PID field and each PCB's TaskExecuting
// flag, so there is nothing to record here.
func (s *Scheduler) Register(PID) {}

// Unregister exists for symmetry with Register; once Halt frees a PID's
// PCB slot, Tick's scan simply never sees that pid again, so there is
// nothing left here to drop.
func (s *Scheduler) Unregister(PID) {}

// Resume hands pid the CPU and wakes any goroutine parked in Checkpoint.
// Grounded on resume_task's tss.esp0/active_pid update, minus the actual
// register-frame pivot.
func (s *Scheduler) Resume(pid PID) {
	s.procs.SetActivePID(pid)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Checkpoint blocks the calling goroutine until pid is the active PID.
// The Kernel's Open/Close/Read/Write/Getargs/Vidmap/SetHandler/Sigreturn
// methods call this on entry (Execute and Halt do not), which makes
// syscall entry the kernel's guaranteed preemption point —
// matching the distillation's note that in practice preemption happens at
// syscall/trap boundaries even though the timer can in principle interrupt
// anywhere.
func (s *Scheduler) Checkpoint(pid PID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.procs.ActivePID() != pid {
		s.cond.Wait()
	}
}

// Tick performs one PIT-driven scheduling decision: find the next
// TASK_EXECUTING pid after the currently active one (wrapping), and hand
// it the CPU. If no other process is executing, the active process keeps
// running uninterrupted. Grounded on pit_handler calling get_next_pid then
// resume_task.
func (s *Scheduler) Tick() {
	active := s.procs.ActivePID()
	start := 0
	if active.Valid() {
		start = int(active) + 1
	}
	for i := 0; i <= MaxPID; i++ {
		pid := PID((start + i) % (MaxPID + 1))
		pcb := s.procs.Get(pid)
		if pcb == nil {
			continue
		}
		if pcb.Flags&TaskExecuting != 0 {
			if pid != active {
				s.Resume(pid)
			}
			return
		}
	}
}

// Start spawns the PIT-substitute ticker goroutine, grounded on the
// teacher's cursor-blink ticker pattern in video_terminal.go (time.Ticker
// plus a done channel plus sync.Once for idempotent Stop).
func (s *Scheduler) Start(quantum time.Duration) {
	s.tickerStop = make(chan struct{})
	s.tickerDone = make(chan struct{})
	go func() {
		defer close(s.tickerDone)
		ticker := time.NewTicker(quantum)
		defer ticker.Stop()
		for {
			select {
			case <-s.tickerStop:
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

// Stop halts the ticker goroutine and waits for it to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.tickerStop == nil {
			return
		}
		close(s.tickerStop)
		<-s.tickerDone
	})
}

// FocusTerminal switches the foreground terminal, swaps video memory so
// vidmapped processes see the right framebuffer, and resumes whichever
// process most recently ran on the new foreground terminal, handing it the
// CPU immediately rather than waiting for the next tick. Grounded on
// process.c's focus_terminal (save/restore screen contents via
// setup_user_video_mem, then move the scheduling token).
func (s *Scheduler) FocusTerminal(terms *TerminalMux, addr *AddressSpace, t int) {
	old := terms.Foreground()
	if old == t {
		return
	}
	addr.SwapTerminal(old, t)
	terms.SetForeground(t)
	head := s.procs.TerminalPIDHead(t)
	if !head.Valid() {
		return
	}
	s.Resume(head)
}
