package kernel

import "fmt"

// User-slot sizing, grounded on memory/paging.c's one-4MiB-page-per-task
// model (USER_PAGE_SIZE) and the teacher's MachineBus address map
// constants (VECTOR_TABLE/PROG_START/STACK_START in machine_bus.go), scaled
// down to a frame pool sized for MaxTasks concurrent processes instead of a
// full physical address space.
const (
	UserSlotSize  = 4 * 1024 * 1024
	ProgramEntry  = 0x08048000 // conventional load address processes expect
	VideoPageSize = 4 * 1024
)

// AddressSpace owns the physical backing store for every process's 4 MiB
// user slot, plus the video memory a process can vidmap. It replaces
// machine_bus.go's single flat 32 MiB array with one slot per PID,
// addressed the same way get_pcb derives a PCB address from a PID: by
// table lookup, never by pointer arithmetic a Go program could not safely
// perform.
//
// Video memory models setup_user_video_mem/disable_user_video's swap
// between live VRAM and a terminal's private backing page: vram is the one
// physical-like framebuffer actually scanned out, and shadow holds each
// non-foreground terminal's own copy. SwapTerminal moves content between
// them on every terminal switch, exactly as the original's focus_terminal
// saves the outgoing terminal's screen into its backing page and restores
// the incoming one from its own.
type AddressSpace struct {
	slots  [MaxPID + 1][]byte
	vram   []byte
	shadow [NumTerminals][]byte
}

// NewAddressSpace allocates the frame pool and one video page per terminal
// plus the live VRAM page. User slots are not mapped to any process until
// Map is called.
func NewAddressSpace() *AddressSpace {
	as := &AddressSpace{vram: make([]byte, VideoPageSize)}
	for t := range as.shadow {
		as.shadow[t] = make([]byte, VideoPageSize)
	}
	return as
}

// Map backs pid's user slot with a fresh zeroed 4 MiB frame, the Go
// analogue of setup_task_page remapping page directory entry 32 to a
// physical frame selected by PID. Calling Map on an already-mapped PID
// replaces its frame (a fresh exec always gets a clean slot).
func (as *AddressSpace) Map(pid PID) error {
	if !pid.Valid() {
		return errInvalidPID(pid)
	}
	as.slots[pid] = make([]byte, UserSlotSize)
	return nil
}

// Unmap releases pid's user-slot frame, mirroring delete_task_page.
func (as *AddressSpace) Unmap(pid PID) {
	if pid.Valid() {
		as.slots[pid] = nil
	}
}

// Slot returns pid's mapped user-space memory, or an error if nothing is
// mapped (the process never executed, or has already halted).
func (as *AddressSpace) Slot(pid PID) ([]byte, error) {
	if !pid.Valid() || as.slots[pid] == nil {
		return nil, fmt.Errorf("kernel: pid %d has no mapped address space", pid)
	}
	return as.slots[pid], nil
}

// LoadImage copies a program image into pid's user slot starting at
// ProgramEntry's offset within the slot, matching student-distrib's
// loader copying the executable straight to virtual address 0x08048000
// after setup_task_page has pointed that page at the new frame.
func (as *AddressSpace) LoadImage(pid PID, image []byte) error {
	slot, err := as.Slot(pid)
	if err != nil {
		return err
	}
	const offset = ProgramEntry & (UserSlotSize - 1)
	if offset+len(image) > len(slot) {
		return fmt.Errorf("kernel: program image too large for user slot (%d bytes)", len(image))
	}
	copy(slot[offset:], image)
	return nil
}

// VideoPage returns the physical page vidmap should map into a process
// running on terminal t: live VRAM when t is the foreground terminal,
// otherwise that terminal's private shadow page. Mirrors
// setup_user_video_mem pointing the user's video page at VRAM only when
// the requesting task's terminal is the one currently displayed.
func (as *AddressSpace) VideoPage(t, foreground int) []byte {
	if t == foreground {
		return as.vram
	}
	if t < 0 || t >= NumTerminals {
		return as.shadow[foreground]
	}
	return as.shadow[t]
}

// SwapTerminal moves video content between live VRAM and terminals' shadow
// pages on a foreground switch: the outgoing terminal's on-screen contents
// are saved into its shadow page, then the incoming terminal's shadow page
// is copied into VRAM to become what's on screen. Grounded on
// focus_terminal's save-then-restore of the two terminals' screen buffers.
func (as *AddressSpace) SwapTerminal(from, to int) {
	if from == to {
		return
	}
	if from >= 0 && from < NumTerminals {
		copy(as.shadow[from], as.vram)
	}
	if to >= 0 && to < NumTerminals {
		copy(as.vram, as.shadow[to])
	}
}
