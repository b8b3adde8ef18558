// host.go - raw-stdin keyboard host for non-GUI ("headless") mode.
//
// Grounded on terminal_host.go's TerminalHost: golang.org/x/term.MakeRaw to
// disable line buffering and OS echo, a nonblocking syscall.Read loop on a
// background goroutine, the same CR-to-LF and DEL-to-BS translation, and
// the same stopCh/done/sync.Once shutdown sequence. Where the teacher
// routes bytes into a TerminalMMIO device, this host feeds them straight
// into kernel.KeyboardIRQ.
package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/intuitionamiga/kernel391/internal/kernel"
)

type stdinHost struct {
	k            *kernel.Kernel
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func newStdinHost(k *kernel.Kernel) *stdinHost {
	return &stdinHost{
		k:      k,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start switches stdin to raw, non-blocking mode and begins feeding bytes
// into the kernel's keyboard trap on a background goroutine.
func (h *stdinHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kernel: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "kernel: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				b := buf[0]
				if b == '\r' {
					b = '\n'
				}
				if b == 0x7F {
					b = 0x08
				}
				h.deliver(b)
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

const ctrlL byte = 0x0C

// deliver decodes the two control bytes this raw-mode reader recognizes
// before handing the byte to the kernel's keyboard trap: Ctrl+C restores
// stdin and exits the program (raw mode turns it into a plain byte rather
// than a signal), and Ctrl+L clears the screen. Terminal switching
// (Alt+F1..F3) isn't reachable from a plain stdin stream in headless mode;
// it's only wired in the GUI frontend, which sees real key events instead
// of a decoded byte stream.
func (h *stdinHost) deliver(b byte) {
	if b == 0x03 { // Ctrl+C
		_ = syscall.SetNonblock(h.fd, false)
		_ = term.Restore(h.fd, h.oldTermState)
		os.Exit(0)
	}
	if b == ctrlL {
		h.k.KeyboardIRQ(kernel.KeyEvent{Ch: 'l', Ctrl: true})
		return
	}
	h.k.KeyboardIRQ(kernel.KeyEvent{Ch: b})
}

// Stop terminates the reader goroutine and restores stdin to its original
// mode.
func (h *stdinHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
