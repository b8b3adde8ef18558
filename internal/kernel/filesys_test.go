package kernel

import "testing"

func TestFileSystemAddAndLookup(t *testing.T) {
	fs := NewFileSystem()

	ino, err := fs.AddFile("hello", []byte("hi there"))
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	typ, gotIno, ok := fs.Lookup("hello")
	if !ok {
		t.Fatalf("Lookup(hello) failed")
	}
	if typ != DentryFile || gotIno != ino {
		t.Fatalf("Lookup returned (%v, %d), want (%v, %d)", typ, gotIno, DentryFile, ino)
	}

	if _, _, ok := fs.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) unexpectedly succeeded")
	}
}

func TestFileSystemReadData(t *testing.T) {
	fs := NewFileSystem()
	ino, _ := fs.AddFile("f", []byte("0123456789"))

	buf := make([]byte, 4)
	n, err := fs.ReadData(ino, 3, buf)
	if err != nil {
		t.Fatalf("ReadData failed: %v", err)
	}
	if string(buf[:n]) != "3456" {
		t.Fatalf("expected %q, got %q", "3456", buf[:n])
	}

	n, err = fs.ReadData(ino, 10, buf)
	if err != nil || n != 0 {
		t.Fatalf("expected (0, nil) at EOF, got (%d, %v)", n, err)
	}
}

func TestFileSystemDirectoryListing(t *testing.T) {
	fs := NewFileSystem()
	fs.AddFile("a", []byte("x"))
	fs.AddFile("b", []byte("y"))

	names := []string{}
	for i := 0; ; i++ {
		name, ok := fs.DentryName(i)
		if !ok {
			break
		}
		names = append(names, name)
	}

	want := []string{".", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("entry %d: expected %q, got %q", i, n, names[i])
		}
	}
}

func TestFileSystemRejectsOverlongName(t *testing.T) {
	fs := NewFileSystem()
	longName := ""
	for i := 0; i < dentryNameLen+1; i++ {
		longName += "x"
	}
	if _, err := fs.AddFile(longName, nil); err == nil {
		t.Fatalf("expected error for filename longer than %d bytes", dentryNameLen)
	}
}
