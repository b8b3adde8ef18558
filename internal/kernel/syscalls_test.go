package kernel

import "testing"

func echoProgram(k *Kernel, pid PID) {
	var args [MaxArgsLen]byte
	if err := k.Getargs(pid, args[:]); err != nil {
		return
	}
	n := 0
	for n < len(args) && args[n] != 0 {
		n++
	}
	_, _ = k.Write(pid, StdoutFD, args[:n])
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k := NewKernel("shell")
	k.Register("echo", echoProgram)
	if _, err := k.FS.AddFile("echo", BuiltinImage("echo")); err != nil {
		t.Fatalf("AddFile(echo) failed: %v", err)
	}
	return k
}

func TestExecuteRunsBuiltinAndReportsStatus(t *testing.T) {
	k := newTestKernel(t)

	var got []byte
	k.Terms.SetOutputHook(0, func(c byte) { got = append(got, c) })

	status, err := k.Execute(NoPID, 0, "echo hello")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if status != StatusOK {
		t.Fatalf("expected status %d, got %d", StatusOK, status)
	}
	if string(got) != "hello" {
		t.Fatalf("expected echoed output %q, got %q", "hello", got)
	}
}

func TestExecuteClearsAndRestoresParentExecuting(t *testing.T) {
	k := newTestKernel(t)

	var parentPID PID
	var sawWaitingForChild, sawNotExecutingDuringChild bool

	child := func(k *Kernel, pid PID) {
		parent := k.Procs.Get(parentPID)
		if parent == nil {
			t.Errorf("parent PCB missing while child ran")
			return
		}
		sawWaitingForChild = parent.Flags&TaskWaitingForChild != 0
		sawNotExecutingDuringChild = parent.Flags&TaskExecuting == 0
	}
	k.Register("child", child)
	if _, err := k.FS.AddFile("child", BuiltinImage("child")); err != nil {
		t.Fatalf("AddFile(child) failed: %v", err)
	}

	var executingRestoredAfterChild, waitingClearedAfterChild bool
	parent := func(k *Kernel, pid PID) {
		parentPID = pid
		if _, err := k.Execute(pid, 0, "child"); err != nil {
			t.Errorf("nested Execute failed: %v", err)
		}
		pcb := k.Procs.Get(pid)
		executingRestoredAfterChild = pcb.Flags&TaskExecuting != 0
		waitingClearedAfterChild = pcb.Flags&TaskWaitingForChild == 0
	}
	k.Register("parent", parent)
	if _, err := k.FS.AddFile("parent", BuiltinImage("parent")); err != nil {
		t.Fatalf("AddFile(parent) failed: %v", err)
	}

	if _, err := k.Execute(NoPID, 0, "parent"); err != nil {
		t.Fatalf("Execute(parent) failed: %v", err)
	}

	if !sawWaitingForChild {
		t.Fatalf("expected parent to have TaskWaitingForChild set while child ran")
	}
	if !sawNotExecutingDuringChild {
		t.Fatalf("expected parent's TaskExecuting cleared while child ran")
	}
	if !executingRestoredAfterChild {
		t.Fatalf("expected parent's TaskExecuting restored after child halted")
	}
	if !waitingClearedAfterChild {
		t.Fatalf("expected parent's TaskWaitingForChild cleared after child halted")
	}
}

func TestExecuteLoadsImageIntoAddressSpace(t *testing.T) {
	k := newTestKernel(t)

	var gotImageAtEntry bool
	selfcheck := func(k *Kernel, pid PID) {
		slot, err := k.Addr.Slot(pid)
		if err != nil {
			t.Errorf("Slot failed: %v", err)
			return
		}
		offset := ProgramEntry & (UserSlotSize - 1)
		want := BuiltinImage("selfcheck")
		gotImageAtEntry = string(slot[offset:offset+len(want)]) == string(want)
	}
	k.Register("selfcheck", selfcheck)
	if _, err := k.FS.AddFile("selfcheck", BuiltinImage("selfcheck")); err != nil {
		t.Fatalf("AddFile(selfcheck) failed: %v", err)
	}

	if _, err := k.Execute(NoPID, 0, "selfcheck"); err != nil {
		t.Fatalf("Execute(selfcheck) failed: %v", err)
	}
	if !gotImageAtEntry {
		t.Fatalf("expected the executable image to be loaded into the process's address space at ProgramEntry's offset")
	}
}

func TestExecuteUnknownProgram(t *testing.T) {
	k := newTestKernel(t)
	if _, err := k.Execute(NoPID, 0, "nope"); err == nil {
		t.Fatalf("expected error executing unknown program")
	}
}

func TestExecuteCommandParsingSkipsLeadingSpaces(t *testing.T) {
	name, args := parseCommand("   echo    hello   world  ")
	if name != "echo" {
		t.Fatalf("expected name %q, got %q", "echo", name)
	}
	if args != "hello   world  " {
		t.Fatalf("expected args %q, got %q", "hello   world  ", args)
	}
}

func TestOpenAssignsFirstFreeDescriptorAboveStdio(t *testing.T) {
	k := newTestKernel(t)
	pcb, err := k.Procs.New(NoPID, 0, "", k.Terms)
	if err != nil {
		t.Fatalf("Procs.New failed: %v", err)
	}
	k.Sched.Register(pcb.PID)

	k.Sched.Resume(pcb.PID)
	fd, err := k.Open(pcb.PID, "rtc")
	if err != nil {
		t.Fatalf("Open(rtc) failed: %v", err)
	}
	if fd != 2 {
		t.Fatalf("expected first free fd to be 2, got %d", fd)
	}

	k.Sched.Resume(pcb.PID)
	if err := k.Close(pcb.PID, fd); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	k.Sched.Resume(pcb.PID)
	if err := k.Close(pcb.PID, StdinFD); err == nil {
		t.Fatalf("expected closing stdin to fail")
	}
}

func TestGetargsRejectsOversizeArguments(t *testing.T) {
	k := newTestKernel(t)
	pcb, err := k.Procs.New(NoPID, 0, string(make([]byte, MaxArgsLen)), k.Terms)
	if err != nil {
		t.Fatalf("Procs.New failed: %v", err)
	}
	k.Sched.Register(pcb.PID)
	k.Sched.Resume(pcb.PID)

	var buf [MaxArgsLen]byte
	if err := k.Getargs(pcb.PID, buf[:]); err == nil {
		t.Fatalf("expected error for arguments that do not fit with a NUL terminator")
	}
}
