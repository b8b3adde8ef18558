package kernel

import "testing"

func TestRaiseExceptionHaltsActiveProcessWithExceptionStatus(t *testing.T) {
	k := newTestKernel(t)
	pcb, err := k.Procs.New(NoPID, 0, "", k.Terms)
	if err != nil {
		t.Fatalf("Procs.New failed: %v", err)
	}
	k.Sched.Resume(pcb.PID)

	k.RaiseException(13) // general-protection fault vector

	if pcb.ExitStatus != StatusExceptionHalt {
		t.Fatalf("expected exit status %d, got %d", StatusExceptionHalt, pcb.ExitStatus)
	}
	if k.Procs.Get(pcb.PID) != nil {
		t.Fatalf("expected pcb to be freed after exception halt")
	}
}

func TestRaiseExceptionWithNoActiveProcessIsNoop(t *testing.T) {
	k := newTestKernel(t)
	// No process has ever been resumed; ActivePID is NoPID.
	k.RaiseException(0)
}

func TestKeyboardIRQRoutesToForegroundTerminal(t *testing.T) {
	k := newTestKernel(t)
	k.Terms.BeginReading(0)

	k.KeyboardIRQ(KeyEvent{Ch: 'a'})
	k.KeyboardIRQ(KeyEvent{Ch: '\n'})

	buf := make([]byte, 8)
	n, err := k.Terms.Read(0, buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "a\n" {
		t.Fatalf("expected %q, got %q", "a\n", buf[:n])
	}
}

func TestKeyboardIRQAltFKeySwitchesForeground(t *testing.T) {
	k := newTestKernel(t)
	pcb, err := k.Procs.New(NoPID, 1, "", k.Terms)
	if err != nil {
		t.Fatalf("Procs.New failed: %v", err)
	}
	k.Procs.SetTerminalPIDHead(1, pcb.PID)

	k.KeyboardIRQ(KeyEvent{Alt: true, FKey: 2})

	if k.Terms.Foreground() != 1 {
		t.Fatalf("expected foreground terminal 1, got %d", k.Terms.Foreground())
	}
}
