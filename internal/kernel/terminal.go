package kernel

import "sync"

// Terminal is one virtual terminal's line buffer and cursor position.
// Grounded on devices/terminal.c's line_buf_t and the teacher's
// TerminalMMIO: a fixed ring/line buffer guarded by its own lock rather
// than the scheduler's resume token, because the keyboard-IRQ goroutine and
// a Read-blocked process touch it concurrently (the one piece of kernel
// state that keeps a mutex per the spin-lock-degenerates-to-mutex guidance).
type Terminal struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      [TerminalBufSize]byte
	index    int
	reading  bool
	cursorX  int
	cursorY  int
	onOutput func(rune byte) // render hook; nil until a frontend attaches
}

func newTerminal() *Terminal {
	t := &Terminal{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// TerminalMux owns the NumTerminals virtual terminals and tracks which one
// is currently displayed. Grounded on terminal.c's package-level `active`
// and `terminals[NUM_TERMINALS]` globals, gathered into a struct.
type TerminalMux struct {
	mu         sync.Mutex
	terminals  [NumTerminals]*Terminal
	foreground int
}

// NewTerminalMux returns a multiplexer with terminal 0 foregrounded and
// every line buffer empty.
func NewTerminalMux() *TerminalMux {
	m := &TerminalMux{}
	for i := range m.terminals {
		m.terminals[i] = newTerminal()
	}
	return m
}

// Foreground returns the index of the terminal currently on screen.
func (m *TerminalMux) Foreground() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foreground
}

// SetForeground switches the displayed terminal. The caller (the keyboard
// driver, on Alt+F-key) is responsible for pausing/resuming the
// corresponding processes via the scheduler; this only flips which
// terminal is "active" for echo/read purposes, matching terminal.c's
// set_terminal.
func (m *TerminalMux) SetForeground(t int) {
	if t < 0 || t >= NumTerminals {
		return
	}
	m.mu.Lock()
	m.foreground = t
	m.mu.Unlock()
}

// SetOutputHook attaches a render callback for terminal t's output byte
// stream (invoked from Write and from echoed Input bytes), mirroring how
// TerminalMMIO.SetCharOutputCallback wires a VideoTerminal in the teacher.
func (m *TerminalMux) SetOutputHook(t int, hook func(byte)) {
	if t < 0 || t >= NumTerminals {
		return
	}
	term := m.terminals[t]
	term.mu.Lock()
	term.onOutput = hook
	term.mu.Unlock()
}

// BeginReading marks terminal t as having a pending read without blocking,
// the test seam student-distrib calls terminal_fake_reading: it lets a
// test push bytes through Input and assert buffer state without racing a
// live Read call (Input only clears the buffer on '\n' when nobody's
// reading).
func (m *TerminalMux) BeginReading(t int) {
	if t < 0 || t >= NumTerminals {
		return
	}
	term := m.terminals[t]
	term.mu.Lock()
	term.reading = true
	term.mu.Unlock()
}

// Input delivers one raw keyboard byte to terminal t: canonical-mode
// editing (backspace, newline-terminates-line), buffer-full rejection, and
// echo. Grounded line-for-line on terminal_input. The echo goes to t's own
// output hook whichever process is active, so a byte typed into t never
// reaches another terminal's display — the effect the original achieves by
// retargeting the video-memory pointer for the duration of the putc. No
// separate off-screen copy of the echo is kept.
func (m *TerminalMux) Input(t int, c byte) bool {
	if t < 0 || t >= NumTerminals {
		return false
	}
	term := m.terminals[t]
	term.mu.Lock()
	defer term.mu.Unlock()

	ok := true
	switch {
	case c == '\n' && !term.reading:
		term.index = 0
		for i := range term.buf {
			term.buf[i] = 0
		}
	case c == '\b':
		if term.index != 0 {
			term.index--
			term.buf[term.index] = 0
		} else {
			ok = false
		}
	case (c == '\n' && term.index < TerminalBufSize) || term.index < TerminalBufSize-1:
		term.buf[term.index] = c
		term.index++
	default:
		ok = false
	}

	if ok && term.onOutput != nil {
		term.onOutput(c)
	}
	if ok {
		term.cond.Broadcast()
	}
	return ok
}

// ClearScreen re-initializes terminal t's on-screen state while leaving its
// line buffer untouched content-wise (the caller's frontend is expected to
// have already wiped the glyph grid); this just resets the cursor, mirroring
// terminal_clear_screen's cursor reset after the reprint.
func (m *TerminalMux) ClearScreen(t int) {
	if t < 0 || t >= NumTerminals {
		return
	}
	term := m.terminals[t]
	term.mu.Lock()
	term.cursorX, term.cursorY = 0, 0
	term.mu.Unlock()
}

// Write implements the write() syscall for a terminal-bound stdout
// descriptor: every byte is emitted unconditionally, no line-buffer
// interaction. Grounded on terminal_write.
func (m *TerminalMux) Write(t int, buf []byte) (int, error) {
	if t < 0 || t >= NumTerminals {
		return 0, errNotSupported
	}
	term := m.terminals[t]
	term.mu.Lock()
	defer term.mu.Unlock()
	for _, c := range buf {
		if term.onOutput != nil {
			term.onOutput(c)
		}
	}
	return len(buf), nil
}

// Read implements the read() syscall for a terminal-bound stdin
// descriptor: block until the line buffer holds a complete '\n'-terminated
// line, then drain it. Grounded on terminal_read's busy-wait-on-lock loop,
// translated into a condition-variable wait since this runs on an ordinary
// goroutine rather than in interrupt context.
func (m *TerminalMux) Read(t int, buf []byte) (int, error) {
	if t < 0 || t >= NumTerminals {
		return 0, errNotSupported
	}
	term := m.terminals[t]
	term.mu.Lock()
	defer term.mu.Unlock()

	term.reading = true
	for term.index < TerminalBufSize && (term.index == 0 || term.buf[term.index-1] != '\n') {
		term.cond.Wait()
	}

	n := len(buf)
	if term.index < n {
		n = term.index
	}
	copy(buf, term.buf[:n])

	term.index = 0
	for i := range term.buf {
		term.buf[i] = 0
	}
	term.reading = false

	return n, nil
}

// CursorPos returns the saved screen position for terminal t, used when
// switching it back into the foreground.
func (m *TerminalMux) CursorPos(t int) (x, y int) {
	if t < 0 || t >= NumTerminals {
		return 0, 0
	}
	term := m.terminals[t]
	term.mu.Lock()
	defer term.mu.Unlock()
	return term.cursorX, term.cursorY
}

// SetCursorPos records the screen position of terminal t, mirroring
// set_terminal_pos.
func (m *TerminalMux) SetCursorPos(t, x, y int) {
	if t < 0 || t >= NumTerminals {
		return
	}
	term := m.terminals[t]
	term.mu.Lock()
	term.cursorX, term.cursorY = x, y
	term.mu.Unlock()
}
