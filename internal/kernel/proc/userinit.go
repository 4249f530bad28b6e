package proc

import "github.com/oscore/teachkernel/internal/kernel/vm"

// initcodeImage stands in for the embedded initcode blob. It is never
// executed as machine code (the Program closure is what actually runs), so
// it is a single marker byte mapped at address 0, keeping the map-one-page
// boot step.
var initcodeImage = []byte{0x00}

// Userinit creates the very first process, exactly once at boot. program
// replaces the fixed machine-code image: it is the closure that actually
// runs in the new slot.
func (t *Table) Userinit(program Program) *Proc {
	p, err := t.allocproc()
	if err != nil {
		panic("proc: no free slot for userinit")
	}

	if err := p.Pagetable.First(initcodeImage); err != nil {
		panic(err)
	}
	p.Sz = vm.PageSize
	p.Trapframe.PC = 0
	p.Trapframe.SP = vm.PageSize
	p.Name = "initcode"
	p.Cwd = t.FS.Namei("/")
	p.Program = program

	p.setState(RUNNABLE)
	t.InitProc = p
	t.wakeSchedulers()
	p.Unlock()

	return p
}
