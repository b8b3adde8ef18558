package kernel

import "fmt"

// RaiseException implements the CPU-exception half of trap dispatch: the
// exception vector IS the fault code. If a process was executing when the
// fault arrived, it is halted as though it had called halt(0xFF), and the
// parent observes StatusExceptionHalt rather than an ordinary exit status
// — do_halt's special case for "the kernel forced this, the process
// didn't choose it." With no active process (a fault during kernel-only
// code, or during boot), this is a diagnostic halt and nothing more, since
// there is no parent left to report to. Grounded on spec.md's exception
// dispatch description and on handleInterrupt's vector-driven dispatch
// shape in cpu_x86.go, reused for faults instead of real-mode IRQs.
func (k *Kernel) RaiseException(vector byte) {
	pid := k.Procs.ActivePID()
	if !pid.Valid() {
		fmt.Printf("kernel: exception vector 0x%02x with no active process\n", vector)
		return
	}
	k.Halt(pid, StatusExceptionHalt)
}

// KeyEvent is one decoded keyboard event delivered to the kernel by the
// host input adapter (cmd/kernel's term-based reader). Scan-code-to-ASCII
// translation and modifier tracking are the external collaborator's job
// per spec.md's Non-goals; the kernel only sees the decoded result.
type KeyEvent struct {
	Ch   byte
	Ctrl bool
	Alt  bool
	// FKey is 1, 2 or 3 when this event is Alt+F1/F2/F3 (terminal
	// switch), 0 otherwise.
	FKey int
}

// KeyboardIRQ handles one decoded keyboard event: Alt+F{1,2,3} switches
// the foreground terminal (student-distrib's keyboard_irq calling
// focus_terminal), Ctrl+L calls ClearScreen on the foreground terminal
// (which resets its cursor; the frontend clears its own display), and
// anything else is routed to the foreground terminal's line buffer via
// TerminalMux.Input.
func (k *Kernel) KeyboardIRQ(ev KeyEvent) {
	if ev.Alt && ev.FKey >= 1 && ev.FKey <= NumTerminals {
		k.Sched.FocusTerminal(k.Terms, k.Addr, ev.FKey-1)
		return
	}
	if ev.Ctrl && ev.Ch == 'l' {
		k.Terms.ClearScreen(k.Terms.Foreground())
		return
	}
	k.Terms.Input(k.Terms.Foreground(), ev.Ch)
}

// TimerIRQ drives the scheduler's round-robin tick. Exposed separately
// from Scheduler.Tick so cmd/kernel's boot sequence can wire it to
// whichever timer source it chooses (a ticker, in this port) the same way
// it wires KeyboardIRQ to a host input source.
func (k *Kernel) TimerIRQ() {
	k.Sched.Tick()
}

// RTCIRQ advances the virtualized real-time clock's reference counter.
func (k *Kernel) RTCIRQ() {
	k.RTC.Tick()
}
