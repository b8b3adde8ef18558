package kernel

import "fmt"

// FileOps is the per-descriptor-type operation vector. student-distrib
// selects one of five static file_ops tables (stdin, stdout, regular
// file, directory, RTC) at open() time and stores a pointer to it in the
// descriptor; Go models the same "tagged variant selected once, invoked
// many times" shape as an interface stored in the descriptor instead of a
// function-pointer struct.
type FileOps interface {
	Open(pcb *PCB, fd int) error
	Read(pcb *PCB, fd int, buf []byte) (int, error)
	Write(pcb *PCB, fd int, buf []byte) (int, error)
	Close(pcb *PCB, fd int) error
}

// errNotSupported is returned by the half of every op-vector that
// student-distrib wires to syscall_fail (e.g. write on stdin, read on
// stdout, open/close on either).
var errNotSupported = fmt.Errorf("operation not supported on this descriptor")

// terminalInOps backs fd 0. Grounded on process.c's stdin_fops
// ({.read = terminal_read, .write = syscall_fail}).
type terminalInOps struct{ terms *TerminalMux }

func (terminalInOps) Open(*PCB, int) error                 { return errNotSupported }
func (terminalInOps) Close(*PCB, int) error                 { return errNotSupported }
func (terminalInOps) Write(*PCB, int, []byte) (int, error) { return 0, errNotSupported }
func (o terminalInOps) Read(pcb *PCB, fd int, buf []byte) (int, error) {
	return o.terms.Read(pcb.Terminal, buf)
}

// terminalOutOps backs fd 1. Grounded on process.c's stdout_fops
// ({.write = terminal_write, .read = syscall_fail}).
type terminalOutOps struct{ terms *TerminalMux }

func (terminalOutOps) Open(*PCB, int) error                 { return errNotSupported }
func (terminalOutOps) Close(*PCB, int) error                 { return errNotSupported }
func (terminalOutOps) Read(*PCB, int, []byte) (int, error) { return 0, errNotSupported }
func (o terminalOutOps) Write(pcb *PCB, fd int, buf []byte) (int, error) {
	return o.terms.Write(pcb.Terminal, buf)
}

// rtcOps backs an RTC descriptor. Grounded on devices/rtc.c.
type rtcOps struct{ rtc *RTC }

func (o rtcOps) Open(pcb *PCB, fd int) error {
	pcb.Files[fd].Inode = FreqDefaultHz
	return nil
}
func (o rtcOps) Close(*PCB, int) error { return nil }
func (o rtcOps) Read(pcb *PCB, fd int, _ []byte) (int, error) {
	o.rtc.WaitForTick(pcb.Files[fd].Inode)
	return 0, nil
}
func (o rtcOps) Write(pcb *PCB, fd int, buf []byte) (int, error) {
	if len(buf) != 4 {
		return 0, errNotSupported
	}
	rate := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	if !validRTCRate(rate) {
		return 0, errNotSupported
	}
	pcb.Files[fd].Inode = rate
	return 4, nil
}

// fileOps backs a regular on-disk file descriptor. Grounded on
// storage/filesys.c's read-only file table (read_data, dentry lookup).
type fileOps struct{ fs *FileSystem }

func (o fileOps) Open(*PCB, int) error  { return nil }
func (o fileOps) Close(*PCB, int) error { return nil }
func (o fileOps) Write(*PCB, int, []byte) (int, error) {
	return 0, errNotSupported
}
func (o fileOps) Read(pcb *PCB, fd int, buf []byte) (int, error) {
	fdesc := &pcb.Files[fd]
	n, err := o.fs.ReadData(fdesc.Inode, fdesc.Pos, buf)
	if err != nil {
		return 0, err
	}
	fdesc.Pos += uint32(n)
	return n, nil
}

// dirOps backs a directory descriptor, returning one filename per Read
// call and an empty read once the directory is exhausted. Grounded on
// storage/filesys.c's directory-read semantics (each read() advances to
// the next dentry).
type dirOps struct{ fs *FileSystem }

func (o dirOps) Open(*PCB, int) error  { return nil }
func (o dirOps) Close(*PCB, int) error { return nil }
func (o dirOps) Write(*PCB, int, []byte) (int, error) {
	return 0, errNotSupported
}
func (o dirOps) Read(pcb *PCB, fd int, buf []byte) (int, error) {
	fdesc := &pcb.Files[fd]
	name, ok := o.fs.DentryName(int(fdesc.Pos))
	if !ok {
		return 0, nil
	}
	fdesc.Pos++
	n := copy(buf, name)
	return n, nil
}
