package progs

import (
	"strings"
	"testing"

	"github.com/intuitionamiga/kernel391/internal/kernel"
)

func newTestKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	k := kernel.NewKernel("shell")
	if err := Register(k); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return k
}

func TestCatPrintsFileContents(t *testing.T) {
	k := newTestKernel(t)
	if _, err := k.FS.AddFile("greeting", []byte("hello from disk")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	var out []byte
	k.Terms.SetOutputHook(0, func(c byte) { out = append(out, c) })

	status, err := k.Execute(kernel.NoPID, 0, "cat greeting")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if status != kernel.StatusOK {
		t.Fatalf("expected status %d, got %d", kernel.StatusOK, status)
	}
	if string(out) != "hello from disk" {
		t.Fatalf("expected %q, got %q", "hello from disk", out)
	}
}

func TestLsListsDirectoryEntries(t *testing.T) {
	k := newTestKernel(t)
	if _, err := k.FS.AddFile("myfile", []byte("x")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	var out []byte
	k.Terms.SetOutputHook(0, func(c byte) { out = append(out, c) })

	if _, err := k.Execute(kernel.NoPID, 0, "ls"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(string(out), "myfile") {
		t.Fatalf("expected ls output to contain %q, got %q", "myfile", out)
	}
}

func TestCatMissingFileReportsError(t *testing.T) {
	k := newTestKernel(t)

	var out []byte
	k.Terms.SetOutputHook(0, func(c byte) { out = append(out, c) })

	if _, err := k.Execute(kernel.NoPID, 0, "cat nope"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(string(out), "cat:") {
		t.Fatalf("expected error message prefixed with %q, got %q", "cat:", out)
	}
}
