package proc

import (
	"fmt"
	"io"
)

// Dump prints one line per non-UNUSED slot: "<pid> <state> <name>". It
// takes no lock so it still works when the machine is otherwise wedged.
func (t *Table) Dump(w io.Writer) {
	fmt.Fprintln(w)
	for _, p := range t.Procs {
		if p.state == UNUSED {
			continue
		}
		fmt.Fprintf(w, "%d %s %s\n", p.Pid, p.state, p.Name)
	}
}
