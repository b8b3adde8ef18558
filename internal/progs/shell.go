// Package progs holds the kernel's built-in user programs: the shell and
// a handful of coreutil-style commands it can launch. They are "native"
// executables in the sense student-distrib's shell/cat/counter/hello
// checkpoint programs are native — ordinary code compiled into the same
// binary as the kernel, reached through the same open/read/write/close/
// execute/halt surface as any other process.
package progs

import (
	"strings"

	"github.com/intuitionamiga/kernel391/internal/kernel"
)

// Shell is the built-in program relaunched in a terminal whenever its last
// process halts. It prints a prompt, reads one line, and execute()s it,
// blocking until the child halts — the same read-eval loop
// student-distrib's shell.c runs, with no shell special-cases: counter is a
// separate registered program, and pingpong and fish are not provided.
// Satisfies
// kernel.ProgramFunc.
func Shell(k *kernel.Kernel, pid kernel.PID) {
	shellLoop(k, pid)
}

// shellLoop never needs its own terminal number directly: every syscall it
// makes (Execute, Read, Write) already targets the terminal the kernel
// bound to pid at execute() time.
func shellLoop(k *kernel.Kernel, pid kernel.PID) {
	for {
		prompt := []byte("391OS> ")
		if _, err := k.Write(pid, kernel.StdoutFD, prompt); err != nil {
			return
		}

		line, ok := readLine(k, pid)
		if !ok {
			return
		}
		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}
		if cmd == "exit" {
			return
		}

		status, err := k.Execute(pid, 0, cmd)
		if err != nil {
			k.Write(pid, kernel.StdoutFD, []byte(err.Error()+"\n"))
			continue
		}
		if status == kernel.StatusExceptionHalt {
			k.Write(pid, kernel.StdoutFD, []byte("program terminated by exception\n"))
		}
	}
}

func readLine(k *kernel.Kernel, pid kernel.PID) (string, bool) {
	var buf [kernel.TerminalBufSize]byte
	n, err := k.Read(pid, kernel.StdinFD, buf[:])
	if err != nil || n == 0 {
		return "", false
	}
	return strings.TrimRight(string(buf[:n]), "\n"), true
}
