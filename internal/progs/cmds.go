package progs

import (
	"strconv"
	"strings"

	"github.com/intuitionamiga/kernel391/internal/kernel"
)

// Cat opens its first argument as a regular file and streams its contents
// to stdout. Grounded on student-distrib's checkpoint "cat" test program,
// which exercises open/read/write/close against the read-only filesystem
// the same way a real shell command would.
func Cat(k *kernel.Kernel, pid kernel.PID) {
	var argBuf [kernel.MaxArgsLen]byte
	if err := k.Getargs(pid, argBuf[:]); err != nil {
		k.Write(pid, kernel.StdoutFD, []byte("cat: missing filename\n"))
		return
	}
	name := strings.TrimRight(string(argBuf[:]), "\x00")
	name = strings.TrimSpace(name)
	if name == "" {
		k.Write(pid, kernel.StdoutFD, []byte("cat: missing filename\n"))
		return
	}

	fd, err := k.Open(pid, name)
	if err != nil {
		k.Write(pid, kernel.StdoutFD, []byte("cat: "+err.Error()+"\n"))
		return
	}
	defer k.Close(pid, fd)

	buf := make([]byte, 256)
	for {
		n, err := k.Read(pid, fd, buf)
		if err != nil || n == 0 {
			return
		}
		if _, err := k.Write(pid, kernel.StdoutFD, buf[:n]); err != nil {
			return
		}
	}
}

// Ls lists the filesystem's directory entries, one per line. Grounded on
// student-distrib's checkpoint "ls" program (open "." as a directory,
// read() repeatedly until empty).
func Ls(k *kernel.Kernel, pid kernel.PID) {
	fd, err := k.Open(pid, ".")
	if err != nil {
		k.Write(pid, kernel.StdoutFD, []byte("ls: "+err.Error()+"\n"))
		return
	}
	defer k.Close(pid, fd)

	buf := make([]byte, 33)
	for {
		n, err := k.Read(pid, fd, buf)
		if err != nil || n == 0 {
			return
		}
		k.Write(pid, kernel.StdoutFD, buf[:n])
		k.Write(pid, kernel.StdoutFD, []byte("\n"))
	}
}

// Counter prints an incrementing count once per virtualized RTC tick at
// the rate given as its argument (default 2 Hz), ten times, then exits.
// Grounded on student-distrib's checkpoint "counter" test program, the
// canonical RTC-driven exerciser.
func Counter(k *kernel.Kernel, pid kernel.PID) {
	rate := uint32(kernel.FreqDefaultHz)
	var argBuf [kernel.MaxArgsLen]byte
	if err := k.Getargs(pid, argBuf[:]); err == nil {
		if s := strings.TrimSpace(strings.TrimRight(string(argBuf[:]), "\x00")); s != "" {
			if v, err := strconv.Atoi(s); err == nil && v > 0 {
				rate = uint32(v)
			}
		}
	}

	fd, err := k.Open(pid, "rtc")
	if err != nil {
		k.Write(pid, kernel.StdoutFD, []byte("counter: "+err.Error()+"\n"))
		return
	}
	defer k.Close(pid, fd)

	var rateBuf [4]byte
	rateBuf[0] = byte(rate)
	rateBuf[1] = byte(rate >> 8)
	rateBuf[2] = byte(rate >> 16)
	rateBuf[3] = byte(rate >> 24)
	if _, err := k.Write(pid, fd, rateBuf[:]); err != nil {
		k.Write(pid, kernel.StdoutFD, []byte("counter: "+err.Error()+"\n"))
		return
	}

	for i := 1; i <= 10; i++ {
		if _, err := k.Read(pid, fd, nil); err != nil {
			return
		}
		k.Write(pid, kernel.StdoutFD, []byte(strconv.Itoa(i)+"\n"))
	}
}

// Register installs every built-in program under its conventional name
// and adds a matching filesystem entry so execute() can find it, mirroring
// how student-distrib's boot sequence seeds its read-only filesystem
// module with the checkpoint test programs.
func Register(k *kernel.Kernel) error {
	k.Register("shell", Shell)
	k.Register("cat", Cat)
	k.Register("ls", Ls)
	k.Register("counter", Counter)

	if err := k.FS.AddRTCEntry(); err != nil {
		return err
	}
	for _, name := range []string{"shell", "cat", "ls", "counter"} {
		if _, err := k.FS.AddFile(name, kernel.BuiltinImage(name)); err != nil {
			return err
		}
	}
	return nil
}
