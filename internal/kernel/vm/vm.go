// Package vm is the process core's view of the virtual-memory subsystem.
// The hardware-level work (page tables, mappings, physical allocation) is
// not modeled; what lives here is the thin, refcounted ownership model that
// clone, fork, growproc, and freeproc actually depend on.
package vm

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// PageSize mirrors PGSIZE: the unit the core allocates trapframes and the
// initial user image in.
const PageSize = 4096

// Size is a byte count of mapped user address space, analogous to p->sz.
type Size uint64

// String renders a Size compactly, unit-scaled, for debug output.
func (s Size) String() string {
	const unit = 1024
	v := uint64(s)
	switch {
	case v >= 1<<30:
		return fmt.Sprintf("%.2fGB", float64(v)/(1<<30))
	case v >= 1<<20:
		return fmt.Sprintf("%.2fMB", float64(v)/(1<<20))
	case v >= 1<<10:
		return fmt.Sprintf("%.2fKB", float64(v)/unit)
	default:
		return fmt.Sprintf("%dB", v)
	}
}

var (
	// ErrOOM stands in for a failed physical-page allocation.
	ErrOOM = errors.New("vm: out of simulated memory")
)

// PageTable is the owned, possibly-shared address space of a thread group.
// A real page table maps virtual to physical pages; this one tracks the
// mapped byte count and a reference count so that thread siblings can share
// one address space without a double free on teardown: the last releaser
// frees the backing pages, everyone else just drops their reference.
type PageTable struct {
	mu    sync.Mutex
	sz    Size
	pages map[Size][]byte // simulated physical backing, keyed by page offset
	refs  atomic.Int32
}

// Create returns a fresh, empty page table with one reference. The
// trampoline/trapframe mapping step is folded in, since those pages are
// supervisor-only and never touched by the process core.
func Create() *PageTable {
	pt := &PageTable{pages: make(map[Size][]byte)}
	pt.refs.Store(1)
	return pt
}

// First maps one page at address 0 and copies img into it, the step
// userinit performs for the embedded initcode blob.
func (pt *PageTable) First(img []byte) error {
	if len(img) > PageSize {
		return fmt.Errorf("vm: image of %d bytes exceeds page size", len(img))
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	page := make([]byte, PageSize)
	copy(page, img)
	pt.pages[0] = page
	pt.sz = PageSize
	return nil
}

// Alloc grows the table by delta bytes, backing whole pages as needed, and
// returns the new size. The simulated allocator never fails, so the error is
// always nil.
func (pt *PageTable) Alloc(delta Size) (Size, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	newSz := pt.sz + delta
	for off := roundDown(pt.sz); off < roundUp(newSz); off += PageSize {
		if _, ok := pt.pages[off]; !ok {
			pt.pages[off] = make([]byte, PageSize)
		}
	}
	pt.sz = newSz
	return pt.sz, nil
}

// Dealloc shrinks the table by delta bytes, freeing pages that fall
// entirely outside the new size.
func (pt *PageTable) Dealloc(delta Size) Size {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	newSz := pt.sz
	if delta > newSz {
		newSz = 0
	} else {
		newSz -= delta
	}
	for off := roundUp(newSz); off < roundUp(pt.sz); off += PageSize {
		delete(pt.pages, off)
	}
	pt.sz = newSz
	return pt.sz
}

// Size returns the table's current mapped size.
func (pt *PageTable) Size() Size {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.sz
}

// Fork deep-copies this table into a brand-new, independently owned one.
func (pt *PageTable) Fork() *PageTable {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	cp := &PageTable{sz: pt.sz, pages: make(map[Size][]byte, len(pt.pages))}
	for off, page := range pt.pages {
		dup := make([]byte, len(page))
		copy(dup, page)
		cp.pages[off] = dup
	}
	cp.refs.Store(1)
	return cp
}

// Share returns pt with its refcount incremented, for clone's shared
// address-space semantics.
func (pt *PageTable) Share() *PageTable {
	pt.refs.Add(1)
	return pt
}

// Release drops a reference. It frees the simulated backing pages only when
// the last holder releases; callers must not touch pt after a Release that
// returns true.
func (pt *PageTable) Release() (freed bool) {
	if pt.refs.Add(-1) == 0 {
		pt.mu.Lock()
		pt.pages = nil
		pt.sz = 0
		pt.mu.Unlock()
		return true
	}
	return false
}

// Refs reports the current reference count, for tests asserting thread-group
// membership accounting.
func (pt *PageTable) Refs() int32 { return pt.refs.Load() }

func roundUp(s Size) Size {
	if s%PageSize == 0 {
		return s
	}
	return (s/PageSize + 1) * PageSize
}

func roundDown(s Size) Size {
	return (s / PageSize) * PageSize
}
