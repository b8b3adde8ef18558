package kernel

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// runLua executes a Lua-scripted user program inside pid's syscall surface:
// the script's print() writes through the process's stdout descriptor and
// its io.read()-style helper reads a line through its stdin descriptor, so
// a Lua "executable" is indistinguishable from a native one to the rest of
// the kernel (same fd table, same terminal, same halt accounting). This is
// the kernel's one non-native executable format, standing in for the
// bytecode a real process would otherwise need a full instruction decoder
// to run — deliberately out of scope per the re-architecture guidance.
func runLua(k *Kernel, pid PID, script string) {
	L := lua.NewState()
	defer L.Close()

	out := &fdWriter{k: k, pid: pid}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		out.writeLine(strings.Join(parts, "\t"))
		return 0
	}))
	L.SetGlobal("readline", L.NewFunction(func(L *lua.LState) int {
		line, ok := readLineFromFD(k, pid)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(line))
		return 1
	}))

	if err := L.DoString(script); err != nil {
		out.writeLine("lua: " + err.Error())
	}
}

// fdWriter adapts a process's stdout descriptor to incremental line
// writes, buffering nothing beyond what write() itself does.
type fdWriter struct {
	k   *Kernel
	pid PID
}

func (w *fdWriter) writeLine(s string) {
	_, _ = w.k.Write(w.pid, StdoutFD, []byte(s+"\n"))
}

// readLineFromFD performs a blocking line read against a process's stdin
// descriptor, used by the readline() binding exposed to Lua scripts.
func readLineFromFD(k *Kernel, pid PID) (string, bool) {
	buf := make([]byte, TerminalBufSize)
	n, err := k.Read(pid, StdinFD, buf)
	if err != nil || n == 0 {
		return "", false
	}
	line := strings.TrimRight(string(buf[:n]), "\n")
	return line, true
}
