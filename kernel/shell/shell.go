// Package shell implements the bootstrap task the scheduler creates the
// first time it finds an entirely empty process table: a minimal
// interactive command line over the kernel's filesystem and process
// table, grounded in original_source/shell.cpp's command set.
//
// spec.md places "the interactive shell's line editor and command parser"
// out of scope as an external collaborator, so this package is
// deliberately thin: it exists to give the scheduler's bootstrap contract
// something real to run, not to reimplement a production shell's parser.
package shell

import (
	"riscvkernel/kernel/fs"
	"riscvkernel/kernel/kfmt"
	"riscvkernel/kernel/proc"
	"riscvkernel/kernel/sched"
	"riscvkernel/kernel/userprog"
	"strings"
)

// maxLineLen bounds a single input line, matching original_source/shell.cpp's
// 128-byte line buffer.
const maxLineLen = 128

const (
	ctrlD     = 0x04
	backspace = 0x08
	del       = 0x7F
)

// Console is the byte-oriented I/O contract the shell needs: something to
// write prompts and command output to, and something to read keystrokes
// from one byte at a time. device/uart.Console satisfies it.
type Console interface {
	Write(p []byte) (int, error)
	ReadByte() (byte, error)
}

// State is the shell's own state: the filesystem and process table it
// operates on, the scheduler it asks to run user programs, the console it
// talks over, and the current working directory.
type State struct {
	FS     *fs.FS
	Procs  *proc.Table
	Sched  *sched.Scheduler
	Console Console

	cwd *fs.Directory
}

// New returns a shell State ready to run as a task's entry point via
// State.Main.
func New(fsys *fs.FS, procs *proc.Table, scheduler *sched.Scheduler, console Console) *State {
	return &State{FS: fsys, Procs: procs, Sched: scheduler, Console: console, cwd: fsys.Root()}
}

// Main is the shell task's entry point: original_source/shell.cpp's
// shell_main, an infinite read-eval-print loop. Like the source, it never
// returns — the shell owns the hart except when a `run` command hands it
// to a user program via Sched.RunPID.
func (s *State) Main() {
	for {
		s.printPrompt()
		line := s.readLine()
		s.handleCommand(line)
	}
}

func (s *State) printPrompt() {
	kfmt.Fprintf(s.Console, "(shell) user [%s] > ", s.FS.Path(s.cwd))
}

// readLine implements spec.md §6's console contract: backspace (\b or DEL)
// erases the previous character, and \r or \n ends the line. It does not
// interpret escape sequences (arrow keys); a plain byte in that range is
// simply appended to the line, matching this shell's deliberately thin
// scope.
func (s *State) readLine() string {
	var buf [maxLineLen]byte
	pos := 0

	for {
		c, err := s.Console.ReadByte()
		if err != nil {
			continue
		}

		switch {
		case c == '\r' || c == '\n':
			kfmt.Fprintf(s.Console, "\n")
			return string(buf[:pos])

		case c == backspace || c == del:
			if pos > 0 {
				pos--
				kfmt.Fprintf(s.Console, "\b \b")
			}

		case pos < maxLineLen-1:
			buf[pos] = c
			pos++
			s.Console.Write(buf[pos-1 : pos])
		}
	}
}

// readUntilEOF is cmd_edit's inner loop, shared by the edit and append
// commands: read bytes into a fixed-capacity buffer, translating \r to \n
// on the way in and echoing every character, until Ctrl-D or the buffer
// fills.
func (s *State) readUntilEOF(buf []byte) int {
	pos := 0
	for pos < len(buf) {
		c, err := s.Console.ReadByte()
		if err != nil {
			continue
		}
		if c == ctrlD {
			break
		}
		if c == '\r' || c == '\n' {
			c = '\n'
		}
		buf[pos] = c
		pos++
		s.Console.Write(buf[pos-1 : pos])
	}
	return pos
}

// handleCommand splits line into a command word and the remainder as its
// argument string, then dispatches it — original_source/shell.cpp's
// handle_command.
func (s *State) handleCommand(line string) {
	cmd, args := splitCommand(line)
	if cmd == "" {
		return
	}

	fn, ok := commands[cmd]
	if !ok {
		kfmt.Fprintf(s.Console, "Unknown command: %s\n", cmd)
		return
	}
	fn(s, args)
}

func splitCommand(line string) (cmd, args string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}

	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

var commands = map[string]func(*State, string){
	"help":   (*State).cmdHelp,
	"echo":   (*State).cmdEcho,
	"clear":  (*State).cmdClear,
	"mkdir":  (*State).cmdMkdir,
	"rmdir":  (*State).cmdRmdir,
	"ls":     (*State).cmdLs,
	"touch":  (*State).cmdTouch,
	"rm":     (*State).cmdRm,
	"mv":     (*State).cmdMv,
	"cd":     (*State).cmdCd,
	"df":     (*State).cmdDf,
	"pwd":    (*State).cmdPwd,
	"ps":     (*State).cmdPs,
	"cat":    (*State).cmdCat,
	"edit":   (*State).cmdEdit,
	"append": (*State).cmdAppend,
	"run":    (*State).cmdRun,
	"exit":   (*State).cmdExit,
}

func (s *State) cmdHelp(string) {
	kfmt.Fprintf(s.Console, "Available Commands:\n")
	kfmt.Fprintf(s.Console, "  help              Show this help message.\n")
	kfmt.Fprintf(s.Console, "  echo <args>       Echo arguments.\n")
	kfmt.Fprintf(s.Console, "  clear             Clear the screen.\n")
	kfmt.Fprintf(s.Console, "  mkdir <path>      Create a new directory.\n")
	kfmt.Fprintf(s.Console, "  rmdir <name>      Remove a directory.\n")
	kfmt.Fprintf(s.Console, "  ls [path]         List files and directories.\n")
	kfmt.Fprintf(s.Console, "  touch <path>      Create a new file.\n")
	kfmt.Fprintf(s.Console, "  rm <name>         Delete a file.\n")
	kfmt.Fprintf(s.Console, "  mv <src> <dest>   Move a file to another directory.\n")
	kfmt.Fprintf(s.Console, "  cd <dir>          Change current directory.\n")
	kfmt.Fprintf(s.Console, "  df                Display current storage and resources.\n")
	kfmt.Fprintf(s.Console, "  pwd               Print current working directory.\n")
	kfmt.Fprintf(s.Console, "  ps                Display all currently running processes.\n")
	kfmt.Fprintf(s.Console, "  cat <name>        Dump a file's contents to the console.\n")
	kfmt.Fprintf(s.Console, "  edit <name>       Overwrite a file's contents.\n")
	kfmt.Fprintf(s.Console, "  append <name>     Append to a file's contents.\n")
	kfmt.Fprintf(s.Console, "  run <name>        Run a user program.\n")
	kfmt.Fprintf(s.Console, "  exit              Advises how to exit the OS.\n")
}

func (s *State) cmdEcho(args string) {
	kfmt.Fprintf(s.Console, "%s\n", args)
}

func (s *State) cmdClear(string) {
	kfmt.Fprintf(s.Console, "\033[2J\033[H")
}

func (s *State) cmdMkdir(args string) {
	if args == "" {
		kfmt.Fprintf(s.Console, "Usage: mkdir <path>\n")
		return
	}
	if _, err := s.FS.MkdirRecursive(s.cwd, args); err != nil {
		kfmt.Fprintf(s.Console, "Failed to create directory: %s\n", err.Message)
		return
	}
	kfmt.Fprintf(s.Console, "Directory created.\n")
}

func (s *State) cmdRmdir(args string) {
	if err := s.FS.Rmdir(s.cwd, args); err != nil {
		kfmt.Fprintf(s.Console, "Failed to remove directory: %s\n", err.Message)
		return
	}
	kfmt.Fprintf(s.Console, "Directory removed.\n")
}

func (s *State) cmdLs(args string) {
	subdirs, files, err := s.FS.Ls(s.cwd, args)
	if err != nil {
		kfmt.Fprintf(s.Console, "%s\n", err.Message)
		return
	}
	for _, name := range subdirs {
		kfmt.Fprintf(s.Console, "%s/\n", name)
	}
	for _, name := range files {
		kfmt.Fprintf(s.Console, "%s\n", name)
	}
}

func (s *State) cmdTouch(args string) {
	if args == "" {
		kfmt.Fprintf(s.Console, "Usage: touch <path>\n")
		return
	}

	parent, name, err := s.FS.TouchRecursive(s.cwd, args)
	if err != nil {
		kfmt.Fprintf(s.Console, "Invalid path.\n")
		return
	}
	if _, err := s.FS.Touch(parent, name); err != nil {
		kfmt.Fprintf(s.Console, "Failed to create file: %s\n", err.Message)
		return
	}
	kfmt.Fprintf(s.Console, "File created.\n")
}

func (s *State) cmdRm(args string) {
	if err := s.FS.Rm(s.cwd, args); err != nil {
		kfmt.Fprintf(s.Console, "File not found.\n")
		return
	}
	kfmt.Fprintf(s.Console, "File removed.\n")
}

func (s *State) cmdMv(args string) {
	src, dest := splitCommand(args)
	if src == "" || dest == "" {
		kfmt.Fprintf(s.Console, "Usage: mv <src> <dest>\n")
		return
	}

	destDir := s.FS.Resolve(s.cwd, dest)
	if destDir == nil {
		kfmt.Fprintf(s.Console, "Move failed: invalid destination\n")
		return
	}

	if err := s.FS.Mv(s.cwd, src, destDir); err != nil {
		kfmt.Fprintf(s.Console, "Move failed: %s\n", err.Message)
		return
	}
	kfmt.Fprintf(s.Console, "Moved successfully.\n")
}

func (s *State) cmdCd(args string) {
	if args == "" {
		return
	}
	dir := s.FS.Resolve(s.cwd, args)
	if dir == nil {
		kfmt.Fprintf(s.Console, "Error: directory not found\n")
		return
	}
	s.cwd = dir
}

func (s *State) cmdDf(string) {
	kfmt.Fprintf(s.Console, "Resource\tUsed\tFree\tMax\n")
	kfmt.Fprintf(s.Console, "Directories\t%d\t%d\t%d\n", s.FS.UsedDirs(), s.FS.FreeDirs(), fs.MaxDirs)
	kfmt.Fprintf(s.Console, "Files\t\t%d\t%d\t%d\n", s.FS.UsedFiles(), s.FS.FreeFiles(), fs.MaxFiles)
	kfmt.Fprintf(s.Console, "Used Space: %d bytes\n", s.FS.TotalFileBytes())
	kfmt.Fprintf(s.Console, "Total Space: %d bytes\n", fs.MaxFiles*fs.MaxFileSize)
}

func (s *State) cmdPwd(string) {
	kfmt.Fprintf(s.Console, "%s\n", s.FS.Path(s.cwd))
}

func (s *State) cmdPs(string) {
	kfmt.Fprintf(s.Console, "PID\tName\t\tState\n")
	for _, p := range s.Procs.Snapshot() {
		if p.State == proc.StateFree {
			continue
		}
		kfmt.Fprintf(s.Console, "%d\t%s\t\t%s\n", p.PID, p.Name(), p.State.String())
	}
}

func (s *State) cmdCat(args string) {
	if args == "" {
		kfmt.Fprintf(s.Console, "Usage: cat <filename>\n")
		return
	}

	f := s.FS.FindFile(s.cwd, args)
	if f == nil {
		kfmt.Fprintf(s.Console, "File not found\n")
		return
	}
	s.Console.Write(s.FS.Cat(f))
}

func (s *State) cmdEdit(args string)   { s.edit(args, false) }
func (s *State) cmdAppend(args string) { s.edit(args, true) }

// edit is the shared body of cmdEdit and cmdAppend, mirroring
// original_source/shell.cpp's cmd_edit(args, append_mode).
func (s *State) edit(args string, appendMode bool) {
	if args == "" {
		kfmt.Fprintf(s.Console, "Usage: edit|append <filename>\n")
		return
	}

	f := s.FS.FindFile(s.cwd, args)
	if f == nil {
		kfmt.Fprintf(s.Console, "File not found\n")
		return
	}

	if appendMode {
		kfmt.Fprintf(s.Console, "Append mode (Ctrl+D to finish):\n")
		var buf [fs.MaxFileSize]byte
		n := s.readUntilEOF(buf[:])
		s.FS.Append(f, buf[:n])
	} else {
		kfmt.Fprintf(s.Console, "Enter new content (end with Ctrl+D):\n")
		var buf [fs.MaxFileSize]byte
		n := s.readUntilEOF(buf[:])
		s.FS.Write(f, buf[:n])
	}

	kfmt.Fprintf(s.Console, "\nFile updated.\n")
}

// cmdRun implements original_source/shell.cpp's cmd_run: it only works from
// inside /user_programs, requires a ".S" source filename, looks up the
// matching userprog.Program by its base name, installs its compiled
// binary as a new process, and runs it to completion synchronously via
// Sched.RunPID before returning control to the shell's own loop.
func (s *State) cmdRun(args string) {
	if args == "" {
		kfmt.Fprintf(s.Console, "Usage: run <program.S>\n")
		return
	}
	if s.cwd.Name() != "user_programs" {
		kfmt.Fprintf(s.Console, "Error: No user programs were found\n")
		return
	}

	base := strings.TrimSuffix(args, ".S")
	if base == args {
		kfmt.Fprintf(s.Console, "Error: You must specify an assembly (.S) file\n")
		return
	}

	p := userprog.Find(base)
	if p == nil {
		kfmt.Fprintf(s.Console, "Error: Program has no binary or doesn't exist\n")
		return
	}

	pid, err := userprog.CreateProcess(s.Procs, *p, proc.DefaultStackSize)
	if err != nil {
		kfmt.Fprintf(s.Console, "Error: Program has no binary or doesn't exist\n")
		return
	}

	if !s.Sched.RunPID(pid) {
		kfmt.Fprintf(s.Console, "Error: Failed to run process\n")
	}
}

func (s *State) cmdExit(string) {
	kfmt.Fprintf(s.Console, "To perform a clean exit, power off the machine.\n")
}
