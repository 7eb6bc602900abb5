// Package fs implements a FAT-like, pool-backed, in-memory filesystem:
// directories and files are drawn from fixed-size pools, never allocated
// dynamically, and removal simply clears an in-use flag and compacts the
// owning directory's child list.
package fs

import "riscvkernel/kernel"

// MaxNameLen bounds a directory or file name, including its terminator.
const MaxNameLen = 16

// MaxDirs is the capacity of the directory pool and of any one directory's
// subdirectory list.
const MaxDirs = 16

// MaxFiles is the capacity of the file pool and of any one directory's file
// list.
const MaxFiles = 64

// MaxFileSize is the fixed capacity of a file's data buffer.
const MaxFileSize = 16384

var (
	// ErrInvalidName is returned for an empty name, a name containing '/',
	// a name that is all spaces, or a name too long to fit MaxNameLen.
	ErrInvalidName = &kernel.Error{Module: "fs", Message: "invalid name"}

	// ErrExists is returned by mkdir/touch when an entry with that name
	// already exists in the target directory.
	ErrExists = &kernel.Error{Module: "fs", Message: "entry already exists"}

	// ErrFull is returned when a directory's child list, or the
	// corresponding pool, has no room left.
	ErrFull = &kernel.Error{Module: "fs", Message: "directory or pool full"}

	// ErrNotFound is returned when a named directory or file does not
	// exist.
	ErrNotFound = &kernel.Error{Module: "fs", Message: "not found"}

	// ErrNotEmpty is returned by Rmdir when the target still has
	// subdirectories or files.
	ErrNotEmpty = &kernel.Error{Module: "fs", Message: "directory not empty"}

	// ErrTooLarge describes a read past a file's stored size. Cat always
	// returns exactly the stored bytes and does not return it.
	ErrTooLarge = &kernel.Error{Module: "fs", Message: "read past file size"}
)

// Directory is a node in the filesystem tree. Storage for every Directory
// other than the root singleton comes from FS's directory pool; a Directory
// never outlives the pool slot backing it.
type Directory struct {
	name       [MaxNameLen]byte
	nameLen    int
	parent     *Directory
	subdirs    [MaxDirs]*Directory
	subdirCnt  int
	files      [MaxFiles]*File
	fileCnt    int
	used       bool
}

// Name returns the directory's name.
func (d *Directory) Name() string {
	return string(d.name[:d.nameLen])
}

// Parent returns the directory's parent, or nil at the root.
func (d *Directory) Parent() *Directory {
	return d.parent
}

// File is a fixed-capacity file. Storage comes from FS's file pool.
type File struct {
	name    [MaxNameLen]byte
	nameLen int
	data    [MaxFileSize]byte
	size    int
	used    bool
}

// Name returns the file's name.
func (f *File) Name() string {
	return string(f.name[:f.nameLen])
}

// Size returns the number of valid bytes in the file.
func (f *File) Size() int {
	return f.size
}

// FS is a complete filesystem instance: a root directory plus the
// directory and file pools every Directory and File is drawn from.
type FS struct {
	root Directory

	dirPool  [MaxDirs]Directory
	filePool [MaxFiles]File
}

// New returns an initialized, empty filesystem with a root directory named
// "/".
func New() *FS {
	fsys := &FS{}
	fsys.root.nameLen = copyName(&fsys.root.name, "/")
	fsys.root.parent = nil
	fsys.root.used = true
	return fsys
}

// Root returns the filesystem's root directory.
func (fsys *FS) Root() *Directory {
	return &fsys.root
}

func isNameInvalid(name string) bool {
	if len(name) == 0 || len(name) >= MaxNameLen {
		return true
	}

	allSpaces := true
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return true
		}
		if name[i] != ' ' {
			allSpaces = false
		}
	}
	return allSpaces
}

func copyName(dst *[MaxNameLen]byte, name string) int {
	n := copy(dst[:MaxNameLen-1], name)
	return n
}

// FindSubdir returns dir's immediate child named name, or nil.
func (fsys *FS) FindSubdir(dir *Directory, name string) *Directory {
	for i := 0; i < dir.subdirCnt; i++ {
		if dir.subdirs[i].Name() == name {
			return dir.subdirs[i]
		}
	}
	return nil
}

// FindFile returns the file named name directly inside dir, or nil.
func (fsys *FS) FindFile(dir *Directory, name string) *File {
	for i := 0; i < dir.fileCnt; i++ {
		if dir.files[i].Name() == name {
			return dir.files[i]
		}
	}
	return nil
}

// Mkdir creates a new subdirectory named name inside dir.
func (fsys *FS) Mkdir(dir *Directory, name string) (*Directory, *kernel.Error) {
	if isNameInvalid(name) {
		return nil, ErrInvalidName
	}
	if dir.subdirCnt >= MaxDirs {
		return nil, ErrFull
	}
	if fsys.FindSubdir(dir, name) != nil {
		return nil, ErrExists
	}

	for i := range fsys.dirPool {
		slot := &fsys.dirPool[i]
		if slot.used {
			continue
		}

		slot.used = true
		slot.nameLen = copyName(&slot.name, name)
		slot.parent = dir
		slot.subdirCnt = 0
		slot.fileCnt = 0

		dir.subdirs[dir.subdirCnt] = slot
		dir.subdirCnt++
		return slot, nil
	}

	return nil, ErrFull
}

// Touch creates a new, empty file named name inside dir.
func (fsys *FS) Touch(dir *Directory, name string) (*File, *kernel.Error) {
	if isNameInvalid(name) {
		return nil, ErrInvalidName
	}
	if dir.fileCnt >= MaxFiles {
		return nil, ErrFull
	}
	if fsys.FindFile(dir, name) != nil {
		return nil, ErrExists
	}

	for i := range fsys.filePool {
		slot := &fsys.filePool[i]
		if slot.used {
			continue
		}

		slot.used = true
		slot.nameLen = copyName(&slot.name, name)
		slot.size = 0

		dir.files[dir.fileCnt] = slot
		dir.fileCnt++
		return slot, nil
	}

	return nil, ErrFull
}

// Rmdir removes the subdirectory named name from dir, provided it has no
// subdirectories or files of its own.
func (fsys *FS) Rmdir(dir *Directory, name string) *kernel.Error {
	for i := 0; i < dir.subdirCnt; i++ {
		sub := dir.subdirs[i]
		if sub.Name() != name {
			continue
		}

		if sub.subdirCnt > 0 || sub.fileCnt > 0 {
			return ErrNotEmpty
		}

		sub.used = false
		copy(dir.subdirs[i:dir.subdirCnt-1], dir.subdirs[i+1:dir.subdirCnt])
		dir.subdirCnt--
		return nil
	}
	return ErrNotFound
}

// Rm removes the file named name from dir.
func (fsys *FS) Rm(dir *Directory, name string) *kernel.Error {
	for i := 0; i < dir.fileCnt; i++ {
		if dir.files[i].Name() != name {
			continue
		}

		dir.files[i].used = false
		copy(dir.files[i:dir.fileCnt-1], dir.files[i+1:dir.fileCnt])
		dir.fileCnt--
		return nil
	}
	return ErrNotFound
}

// Mv moves the file named name from srcDir to dstDir. Either both
// directories' file lists are updated, or neither is.
func (fsys *FS) Mv(srcDir *Directory, name string, dstDir *Directory) *kernel.Error {
	f := fsys.FindFile(srcDir, name)
	if f == nil {
		return ErrNotFound
	}
	if dstDir.fileCnt >= MaxFiles {
		return ErrFull
	}

	if err := fsys.Rm(srcDir, name); err != nil {
		return err
	}

	dstDir.files[dstDir.fileCnt] = f
	dstDir.fileCnt++
	return nil
}

// Write overwrites the file's contents with data, truncating at
// MaxFileSize.
func (fsys *FS) Write(f *File, data []byte) {
	n := copy(f.data[:], data)
	f.size = n
}

// Append adds data to the end of the file's contents, truncating at
// MaxFileSize.
func (fsys *FS) Append(f *File, data []byte) {
	n := copy(f.data[f.size:], data)
	f.size += n
}

// Cat returns the file's contents as text: exactly f.Size() bytes, followed
// by a single trailing newline.
func (fsys *FS) Cat(f *File) []byte {
	out := make([]byte, f.size+1)
	copy(out, f.data[:f.size])
	out[f.size] = '\n'
	return out
}

// UsedDirs returns the number of in-use directory pool slots.
func (fsys *FS) UsedDirs() int {
	n := 0
	for i := range fsys.dirPool {
		if fsys.dirPool[i].used {
			n++
		}
	}
	return n
}

// FreeDirs returns the number of free directory pool slots.
func (fsys *FS) FreeDirs() int { return MaxDirs - fsys.UsedDirs() }

// UsedFiles returns the number of in-use file pool slots.
func (fsys *FS) UsedFiles() int {
	n := 0
	for i := range fsys.filePool {
		if fsys.filePool[i].used {
			n++
		}
	}
	return n
}

// FreeFiles returns the number of free file pool slots.
func (fsys *FS) FreeFiles() int { return MaxFiles - fsys.UsedFiles() }

// Path returns dir's absolute path from the root, built by walking Parent
// pointers, the same traversal original_source/shell.cpp's update_cwd_path
// performs.
func (fsys *FS) Path(dir *Directory) string {
	if dir == &fsys.root || dir.parent == nil {
		return "/"
	}

	var segs [MaxDirs]string
	n := 0
	for d := dir; d != nil && d.parent != nil; d = d.parent {
		segs[n] = d.Name()
		n++
	}

	out := make([]byte, 0, MaxNameLen*n+n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, '/')
		out = append(out, segs[i]...)
	}
	return string(out)
}

// TotalFileBytes returns the sum of Size() across every in-use file.
func (fsys *FS) TotalFileBytes() int {
	total := 0
	for i := range fsys.filePool {
		if fsys.filePool[i].used {
			total += fsys.filePool[i].size
		}
	}
	return total
}
