// Package userprog implements the kernel side of spec.md §6's
// embedded-program table contract: at boot, kmain copies each program's
// assembly source into a FAT file under /user_programs, and — when a
// program also ships a compiled binary — makes it launchable via
// kernel/proc's CreateProcessFromBinary.
//
// The build-time step that actually cross-compiles a .S source into a
// flat binary and generates the real embedded_files table is out of scope
// per spec.md §1; this package ships a small table of trivial RISC-V
// assembly sources via go:embed so Install and the shell's `run` command
// have something real to exercise. None of them carry a compiled Binary
// — original_source/kernel.cpp's service_userprog only ever copied
// source text for the programs available at distillation time, so this
// repo's table follows suit and leaves Binary nil; CreateProcessFromBinary
// is still reachable (and tested) via a synthetic in-memory Program built
// by tests.
package userprog

import (
	_ "embed"
	"riscvkernel/kernel"
	"riscvkernel/kernel/fs"
	"riscvkernel/kernel/proc"
)

// userProgramsDir is the directory original_source/kernel.cpp's
// service_userprog creates and populates.
const userProgramsDir = "user_programs"

//go:embed programs/hello.S
var helloSource []byte

//go:embed programs/counter.S
var counterSource []byte

// Program mirrors original_source/embedded_user_programs.h's
// EmbeddedFile: a name, an optional compiled Binary, and the Source text
// that is always installed as a FAT file regardless of whether a Binary
// is present.
type Program struct {
	Name   string
	Binary []byte
	Source []byte
}

// Table is the kernel's embedded-program table, populated at init time
// from the sources embedded via go:embed above. A real build would
// populate Binary for each entry too; see the package doc comment.
var Table = []Program{
	{Name: "hello", Source: helloSource},
	{Name: "counter", Source: counterSource},
}

// ErrNoPrograms is returned by Install if the table is empty — mirroring
// original_source/kernel.cpp's service_userprog, which reports failure
// when embedded_file_count is zero.
var ErrNoPrograms = &kernel.Error{Module: "userprog", Message: "no embedded programs"}

// Install recreates original_source/kernel.cpp's service_userprog: it
// creates /user_programs (if absent) and, for every entry in Table,
// writes a file named "<name>.S" containing Source, truncated at
// fs.MaxFileSize. It is idempotent: re-running Install against a
// filesystem that already has the files looks each one up, reuses it
// instead of calling Touch, and rewrites its contents from Source, so a
// re-run neither fails on an existing file nor leaves a program image
// empty.
func Install(fsys *fs.FS) *kernel.Error {
	if len(Table) == 0 {
		return ErrNoPrograms
	}

	dir, err := fsys.MkdirRecursive(fsys.Root(), userProgramsDir)
	if err != nil {
		return err
	}

	for _, p := range Table {
		if err := installOne(fsys, dir, p); err != nil {
			return err
		}
	}

	return nil
}

func installOne(fsys *fs.FS, dir *fs.Directory, p Program) *kernel.Error {
	name := sourceFileName(p.Name)

	f := fsys.FindFile(dir, name)
	if f == nil {
		var err *kernel.Error
		f, err = fsys.Touch(dir, name)
		if err != nil {
			return err
		}
	}

	data := p.Source
	if len(data) > fs.MaxFileSize {
		data = data[:fs.MaxFileSize]
	}
	fsys.Write(f, data)

	return nil
}

// sourceFileName appends the ".S" suffix original_source/kernel.cpp uses
// for a program's installed source file, truncating name so the result
// still fits fs.MaxNameLen.
func sourceFileName(name string) string {
	maxBase := fs.MaxNameLen - 1 - len(".S")
	if len(name) > maxBase {
		name = name[:maxBase]
	}
	return name + ".S"
}

// Find returns the table entry named name, or nil.
func Find(name string) *Program {
	for i := range Table {
		if Table[i].Name == name {
			return &Table[i]
		}
	}
	return nil
}

// ErrNoBinary is returned by CreateProcess when the program has no
// compiled Binary, so there is nothing scheduler_run_pid could dispatch —
// original_source/shell.cpp's cmd_run reports exactly this case as
// "Program has no binary or doesn't exist".
var ErrNoBinary = &kernel.Error{Module: "userprog", Message: "program has no binary"}

// CreateProcess is the Go side of original_source/shell.cpp's cmd_run:
// given a Program with a compiled Binary, it installs the binary as a new
// process via proc.Table.CreateProcessFromBinary, named after the program
// (not its ".S" source file). It is the binary-install half of the
// service_userprog contract spec.md's distillation dropped — see
// kernel/shell, which calls this from the `run` command.
func CreateProcess(procs *proc.Table, p Program, stackSize uintptr) (int, *kernel.Error) {
	if len(p.Binary) == 0 {
		return -1, ErrNoBinary
	}
	return procs.CreateProcessFromBinary(p.Binary, p.Name, stackSize)
}
