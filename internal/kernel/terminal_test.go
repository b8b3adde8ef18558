package kernel

import "testing"

func TestTerminalMuxInputEchoesAndBuffers(t *testing.T) {
	m := NewTerminalMux()
	m.BeginReading(0)
	var echoed []byte
	m.SetOutputHook(0, func(c byte) { echoed = append(echoed, c) })

	for _, c := range []byte("hi\n") {
		if ok := m.Input(0, c); !ok {
			t.Fatalf("Input(%q) rejected unexpectedly", c)
		}
	}
	if string(echoed) != "hi\n" {
		t.Fatalf("expected echo %q, got %q", "hi\n", echoed)
	}

	var buf [16]byte
	n, err := m.Read(0, buf[:])
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(buf[:n]) != "hi\n" {
		t.Fatalf("expected %q, got %q", "hi\n", buf[:n])
	}
}

func TestTerminalMuxInputBackspace(t *testing.T) {
	m := NewTerminalMux()
	m.BeginReading(0)

	for _, c := range []byte("ab") {
		m.Input(0, c)
	}
	if ok := m.Input(0, '\b'); !ok {
		t.Fatalf("backspace should succeed with content in buffer")
	}
	m.Input(0, 'c')
	m.Input(0, '\n')

	var buf [16]byte
	n, _ := m.Read(0, buf[:])
	if string(buf[:n]) != "ac\n" {
		t.Fatalf("expected %q, got %q", "ac\n", buf[:n])
	}
}

func TestTerminalMuxBackspaceOnEmptyFails(t *testing.T) {
	m := NewTerminalMux()
	if ok := m.Input(0, '\b'); ok {
		t.Fatalf("backspace on empty buffer should fail")
	}
}

func TestTerminalMuxClearsOnNewlineWhenNotReading(t *testing.T) {
	m := NewTerminalMux()
	// Not reading: a bare newline clears the buffer instead of
	// terminating a line (mirrors terminal_input's behavior for
	// unsolicited Enter presses at an idle prompt).
	m.Input(0, 'x')
	m.Input(0, '\n')

	m.BeginReading(0)
	m.Input(0, '\n')
	var buf [16]byte
	n, _ := m.Read(0, buf[:])
	if string(buf[:n]) != "\n" {
		t.Fatalf("expected lone newline, got %q", buf[:n])
	}
}

func TestTerminalMuxForeground(t *testing.T) {
	m := NewTerminalMux()
	if m.Foreground() != 0 {
		t.Fatalf("expected default foreground 0, got %d", m.Foreground())
	}
	m.SetForeground(2)
	if m.Foreground() != 2 {
		t.Fatalf("expected foreground 2, got %d", m.Foreground())
	}
	m.SetForeground(99) // out of range, ignored
	if m.Foreground() != 2 {
		t.Fatalf("out-of-range SetForeground should be ignored, got %d", m.Foreground())
	}
}

func TestTerminalMuxWrite(t *testing.T) {
	m := NewTerminalMux()
	var got []byte
	m.SetOutputHook(1, func(c byte) { got = append(got, c) })

	n, err := m.Write(1, []byte("ok"))
	if err != nil || n != 2 {
		t.Fatalf("Write returned (%d, %v), want (2, nil)", n, err)
	}
	if string(got) != "ok" {
		t.Fatalf("expected output hook to see %q, got %q", "ok", got)
	}
}
