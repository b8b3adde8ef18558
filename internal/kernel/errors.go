package kernel

import "fmt"

// errInvalidPID reports an operation against a PID that is out of range
// or not currently reserved. Internal plumbing uses ordinary errors, and
// the syscall-facing Kernel methods return them as their error result
// alongside their status value (-1 from Open/Read/Write, a status of 0
// from Execute).
func errInvalidPID(pid PID) error {
	return fmt.Errorf("kernel: invalid pid %d", pid)
}
