package kernel

import "fmt"

// Read-only filesystem, grounded on storage/filesys.c's boot-block layout:
// a single boot block holding stats plus up to 63 directory entries,
// followed by one inode block per file, followed by the data blocks all
// inodes draw from. This repo has no real block device; the image is
// synthesized in memory at boot from the programs in internal/progs (see
// cmd/kernel's seeding step), standing in for the multiboot module
// student-distrib loads from GRUB.

const (
	dentryNameLen  = 32
	maxDentries    = 63
	dentryRFU      = 24 // reserved-for-future-use padding in the on-disk dentry
	fsBlockSize    = 4096
)

// DentryType mirrors the three directory-entry type codes filesys.c
// assigns (0 = RTC device file, 1 = directory, 2 = regular file).
type DentryType int

const (
	DentryRTC DentryType = iota
	DentryDir
	DentryFile
)

type dentry struct {
	name  string
	typ   DentryType
	inode uint32
}

type inode struct {
	length uint32
	data   []byte
}

// FileSystem is the in-memory read-only filesystem mounted at boot.
type FileSystem struct {
	dentries []dentry
	inodes   []inode
}

// NewFileSystem returns a filesystem holding only the "." directory
// entry; files and the RTC entry are added afterwards with AddFile and
// AddRTCEntry. Nothing removes or rewrites an entry once added.
func NewFileSystem() *FileSystem {
	fs := &FileSystem{}
	fs.dentries = append(fs.dentries, dentry{name: ".", typ: DentryDir})
	return fs
}

// AddFile registers a regular file under name with the given content,
// returning its inode number. Grounded on filesys.c treating "." as
// dentry 0 (the directory itself) and every subsequent dentry as a
// directory-resident file.
func (fs *FileSystem) AddFile(name string, content []byte) (uint32, error) {
	if len(name) == 0 || len(name) > dentryNameLen {
		return 0, fmt.Errorf("kernel: filename %q exceeds %d bytes", name, dentryNameLen)
	}
	if len(fs.dentries) >= maxDentries {
		return 0, fmt.Errorf("kernel: directory full (max %d entries)", maxDentries)
	}
	ino := uint32(len(fs.inodes))
	fs.inodes = append(fs.inodes, inode{length: uint32(len(content)), data: content})
	fs.dentries = append(fs.dentries, dentry{name: name, typ: DentryFile, inode: ino})
	return ino, nil
}

// AddRTCEntry registers the "rtc" device file's directory entry (inode 0,
// since RTC reads/writes never touch inode-backed data).
func (fs *FileSystem) AddRTCEntry() error {
	if len(fs.dentries) >= maxDentries {
		return fmt.Errorf("kernel: directory full (max %d entries)", maxDentries)
	}
	fs.dentries = append(fs.dentries, dentry{name: "rtc", typ: DentryRTC})
	return nil
}

// Lookup finds a directory entry by exact name (case-sensitive, up to
// dentryNameLen bytes — names are not NUL-padded-compared beyond that,
// matching read_dentry_by_name's strncmp(... ,32)).
func (fs *FileSystem) Lookup(name string) (typ DentryType, inode uint32, ok bool) {
	if len(name) > dentryNameLen {
		name = name[:dentryNameLen]
	}
	for _, d := range fs.dentries {
		if d.name == name {
			return d.typ, d.inode, true
		}
	}
	return 0, 0, false
}

// DentryName returns the name of the i'th directory entry (including the
// "." entry at index 0), for the directory read() op-vector which returns
// one name per call and advances the caller's file position.
func (fs *FileSystem) DentryName(i int) (string, bool) {
	if i < 0 || i >= len(fs.dentries) {
		return "", false
	}
	return fs.dentries[i].name, true
}

// ReadData copies up to len(buf) bytes from inode ino starting at offset
// into buf, returning the number of bytes copied (0 at end of file).
// Grounded on filesys.c's read_data, minus the on-disk data-block
// indirection since the in-memory image keeps each inode's bytes
// contiguous.
func (fs *FileSystem) ReadData(ino uint32, offset uint32, buf []byte) (int, error) {
	if int(ino) >= len(fs.inodes) {
		return 0, fmt.Errorf("kernel: invalid inode %d", ino)
	}
	data := fs.inodes[ino].data
	if offset >= uint32(len(data)) {
		return 0, nil
	}
	n := copy(buf, data[offset:])
	return n, nil
}

// Length returns the byte length recorded for inode ino.
func (fs *FileSystem) Length(ino uint32) uint32 {
	if int(ino) >= len(fs.inodes) {
		return 0
	}
	return fs.inodes[ino].length
}
