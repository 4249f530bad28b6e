// Package trap is the process core's view of the trampoline/trap machinery.
// Frame keeps just the fields the core itself reads or writes; how a real
// trap saves and restores registers or returns to user mode is not modeled.
package trap

// Frame is the saved user-register page. The core only ever touches the
// PC, SP, and return-value/argument registers, and copies the whole frame
// wholesale on fork, so that's all that's modeled.
type Frame struct {
	PC   uint64 // saved program counter / epc
	SP   uint64 // saved user stack pointer
	A0   uint64 // return value / first argument register
	A1   uint64 // second argument register
}

// Copy returns a copy of f, for fork's wholesale trapframe duplication.
func (f Frame) Copy() Frame { return f }

// Return models handing control back to user mode. Here "user mode" is the
// Program function bound to the slot, so Return is a named seam with
// nothing left to do by the time it is called.
func Return(*Frame) {}
