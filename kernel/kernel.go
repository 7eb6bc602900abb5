// Package kernel provides what every subsystem of the core shares: the
// sentinel error type returned across the kernel/task boundary and the
// raw memory helpers in mem_util.go. The unrecoverable-failure path lives
// in kernel/kfmt as kfmt.Panic.
package kernel

// Error describes a kernel error. All kernel errors are defined as package
// level variables that are pointers to this structure. This requirement
// stems from the fact that no allocator is available during early boot, so
// errors.New (which allocates) cannot be used.
type Error struct {
	// Module is the subsystem where the error originated.
	Module string

	// Message is the human-readable error description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
