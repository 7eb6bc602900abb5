package fs

import (
	"riscvkernel/kernel"
	"strings"
)

// Resolve walks path starting from start. A leading '/' restarts the walk
// at the filesystem root. '.' is a no-op segment; '..' walks to the
// segment's parent, or is a no-op at the root. Resolve returns nil if any
// intermediate segment does not exist.
func (fsys *FS) Resolve(start *Directory, path string) *Directory {
	cur := start
	if strings.HasPrefix(path, "/") {
		cur = &fsys.root
		path = path[1:]
	}

	if path == "" {
		return cur
	}

	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if cur.parent != nil {
				cur = cur.parent
			}
		default:
			next := fsys.FindSubdir(cur, seg)
			if next == nil {
				return nil
			}
			cur = next
		}
	}

	return cur
}

// MkdirRecursive walks or creates each '/'-separated segment of path
// starting from start, returning the final directory. An empty segment or
// a segment too long to be a valid name is a hard error.
func (fsys *FS) MkdirRecursive(start *Directory, path string) (*Directory, *kernel.Error) {
	if start == nil || path == "" {
		return nil, ErrInvalidName
	}

	cur := start
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || len(seg) >= MaxNameLen {
			return nil, ErrInvalidName
		}

		next := fsys.FindSubdir(cur, seg)
		if next == nil {
			var err *kernel.Error
			next, err = fsys.Mkdir(cur, seg)
			if err != nil {
				return nil, err
			}
		}
		cur = next
	}

	return cur, nil
}

// TouchRecursive splits path into a parent path and a final file name,
// resolves the parent starting from start, and returns it along with the
// final name. It does not create the file itself; the caller is expected
// to follow up with Touch. A path with no '/' resolves its parent to
// start. A trailing slash (no final segment) is rejected.
func (fsys *FS) TouchRecursive(start *Directory, path string) (*Directory, string, *kernel.Error) {
	lastSlash := strings.LastIndexByte(path, '/')
	if lastSlash < 0 {
		return start, path, nil
	}

	name := path[lastSlash+1:]
	if isNameInvalid(name) {
		return nil, "", ErrInvalidName
	}

	parent := fsys.Resolve(start, path[:lastSlash])
	if parent == nil {
		return nil, "", ErrNotFound
	}

	return parent, name, nil
}

// Ls returns the names of dir's subdirectories and files, resolving path
// (if non-empty) relative to dir first.
func (fsys *FS) Ls(dir *Directory, path string) (subdirs, files []string, err *kernel.Error) {
	target := dir
	if path != "" {
		target = fsys.Resolve(dir, path)
		if target == nil {
			return nil, nil, ErrNotFound
		}
	}

	for i := 0; i < target.subdirCnt; i++ {
		subdirs = append(subdirs, target.subdirs[i].Name())
	}
	for i := 0; i < target.fileCnt; i++ {
		files = append(files, target.files[i].Name())
	}

	return subdirs, files, nil
}
