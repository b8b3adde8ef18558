// gui.go - ebiten windowed frontend for the terminal multiplexer.
//
// Grounded on video_backend_ebiten.go's EbitenOutput: the same
// Update/Draw/Layout Game loop, the same AppendInputChars + special-key
// translation table for keyboard input, and the same Ctrl+Shift+V
// clipboard-paste path via golang.design/x/clipboard. Where the teacher
// blits a raw pixel framebuffer, this frontend instead keeps a glyph grid
// per terminal (fed by kernel.TerminalMux.SetOutputHook) and renders it with
// ebiten's bundled text package, since there's no machine-generated video
// memory here — only a stream of characters the kernel has written.
package main

import (
	"fmt"
	"image/color"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/intuitionamiga/kernel391/internal/kernel"
)

const (
	gridCols  = 80
	gridRows  = 25
	cellW     = 7
	cellH     = 13
	winWidth  = gridCols * cellW
	winHeight = gridRows * cellH
)

// termGrid is one terminal's on-screen character grid, independent of the
// kernel's own line buffer (which only holds the unterminated input line).
type termGrid struct {
	mu        sync.Mutex
	cells     [gridRows][gridCols]byte
	cursorX   int
	cursorY   int
}

func newTermGrid() *termGrid {
	g := &termGrid{}
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	return g
}

func (g *termGrid) put(c byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch c {
	case '\n':
		g.cursorX = 0
		g.cursorY++
	case '\b':
		if g.cursorX > 0 {
			g.cursorX--
			g.cells[g.cursorY][g.cursorX] = ' '
		}
	default:
		if g.cursorX >= gridCols {
			g.cursorX = 0
			g.cursorY++
		}
		if g.cursorY >= gridRows {
			g.scroll()
			g.cursorY = gridRows - 1
		}
		g.cells[g.cursorY][g.cursorX] = c
		g.cursorX++
	}
	if g.cursorY >= gridRows {
		g.scroll()
		g.cursorY = gridRows - 1
	}
}

func (g *termGrid) scroll() {
	for r := 0; r < gridRows-1; r++ {
		g.cells[r] = g.cells[r+1]
	}
	for c := range g.cells[gridRows-1] {
		g.cells[gridRows-1][c] = ' '
	}
}

func (g *termGrid) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	g.cursorX, g.cursorY = 0, 0
}

func (g *termGrid) line(row int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return string(g.cells[row][:])
}

// guiFrontend is the ebiten Game implementation driving the kernel's
// terminals interactively: keyboard input is routed through trap.go's
// KeyboardIRQ, and each terminal's output hook feeds a termGrid for
// rendering.
type guiFrontend struct {
	k         *kernel.Kernel
	grids     [kernel.NumTerminals]*termGrid
	face      *basicfont.Face
	clipOnce  sync.Once
	clipOK    bool
}

func newGUIFrontend(k *kernel.Kernel) *guiFrontend {
	g := &guiFrontend{k: k, face: basicfont.Face7x13}
	for t := range g.grids {
		g.grids[t] = newTermGrid()
		term := t
		k.Terms.SetOutputHook(term, func(c byte) { g.grids[term].put(c) })
	}
	return g
}

func (g *guiFrontend) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	fg := g.k.Terms.Foreground()

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	alt := ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight)

	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.handlePaste(fg)
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.k.KeyboardIRQ(kernel.KeyEvent{Ch: 'l', Ctrl: true})
		g.grids[fg].clear()
	}
	for i, key := range []ebiten.Key{ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3} {
		if alt && inpututil.IsKeyJustPressed(key) {
			g.k.KeyboardIRQ(kernel.KeyEvent{Alt: true, FKey: i + 1})
		}
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r > 0 && r <= 0xFF {
			g.k.KeyboardIRQ(kernel.KeyEvent{Ch: byte(r)})
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		g.k.KeyboardIRQ(kernel.KeyEvent{Ch: '\n'})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.k.KeyboardIRQ(kernel.KeyEvent{Ch: '\b'})
	}

	return nil
}

func (g *guiFrontend) handlePaste(fg int) {
	g.clipOnce.Do(func() { g.clipOK = clipboard.Init() == nil })
	if !g.clipOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	for _, b := range data {
		if b == '\r' {
			continue
		}
		g.k.KeyboardIRQ(kernel.KeyEvent{Ch: b})
	}
}

func (g *guiFrontend) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	fg := g.k.Terms.Foreground()
	grid := g.grids[fg]
	for row := 0; row < gridRows; row++ {
		text.Draw(screen, grid.line(row), g.face, 2, (row+1)*cellH, color.RGBA{0x20, 0xE0, 0x20, 0xFF})
	}
	ebiten.SetWindowTitle(fmt.Sprintf("391OS - terminal %d", fg+1))
}

func (g *guiFrontend) Layout(_, _ int) (int, int) {
	return winWidth, winHeight
}

// ebitenRunGame sets up the window the way EbitenOutput.Start does and
// blocks until the window is closed.
func ebitenRunGame(g *guiFrontend) {
	ebiten.SetWindowSize(winWidth, winHeight)
	ebiten.SetWindowTitle("391OS")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	if err := ebiten.RunGame(g); err != nil {
		fmt.Fprintf(os.Stderr, "kernel391: gui exited: %v\n", err)
	}
}
