// Package fs is the process core's view of the filesystem. It implements
// just enough refcounted File/Inode behavior for fork and clone to duplicate
// descriptors and for exit to release them, plus the transaction bracket
// exit uses around releasing cwd.
package fs

import (
	"sync"
	"sync/atomic"
)

// Inode is a refcounted directory/file entry.
type Inode struct {
	Path string
	refs atomic.Int32
}

// Dup increments the refcount and returns the same inode.
func (ip *Inode) Dup() *Inode {
	ip.refs.Add(1)
	return ip
}

// Put decrements the refcount. Reaching zero would release the on-disk
// inode in a real filesystem; here there is nothing further to free.
func (ip *Inode) Put() {
	ip.refs.Add(-1)
}

// Refs reports the current reference count, for tests.
func (ip *Inode) Refs() int32 { return ip.refs.Load() }

// File is a refcounted open-file description.
type File struct {
	Name string
	refs atomic.Int32
}

// Dup increments the refcount and returns the same file.
func (f *File) Dup() *File {
	f.refs.Add(1)
	return f
}

// Close decrements the refcount; at zero the description is considered
// released.
func (f *File) Close() {
	f.refs.Add(-1)
}

// Refs reports the current reference count, for tests.
func (f *File) Refs() int32 { return f.refs.Load() }

// FS is the minimal filesystem the core talks to: name resolution and a
// transaction bracket around operations that touch inodes.
type FS struct {
	mu        sync.Mutex
	root      *Inode
	initOnce  sync.Once
	didInit   bool
}

// New returns an FS rooted at "/", unopened until Init runs. Initialization
// is deferred to the first scheduled process because a real one reads the
// disk and so needs sleep to work.
func New() *FS {
	return &FS{}
}

// Namei resolves a path to an inode with one reference. Only "/" is
// modeled; anything else still succeeds, so scenario code can name
// arbitrary working directories.
func (f *FS) Namei(path string) *Inode {
	ip := &Inode{Path: path}
	ip.refs.Store(1)
	return ip
}

// BeginOp opens a filesystem transaction. This stub has no log to commit,
// so the bracket only serializes against Init for determinism in tests that
// assert ordering.
func (f *FS) BeginOp() {
	f.mu.Lock()
}

// EndOp closes the transaction opened by BeginOp.
func (f *FS) EndOp() {
	f.mu.Unlock()
}

// Init performs filesystem initialization. It runs exactly once, from
// inside the first scheduled process's own goroutine, because a real
// implementation recovers the log by reading from disk and that requires
// sleep to work.
func (f *FS) Init() {
	f.initOnce.Do(func() {
		f.mu.Lock()
		f.root = &Inode{Path: "/"}
		f.root.refs.Store(1)
		f.didInit = true
		f.mu.Unlock()
	})
}

// Initialized reports whether Init has run, for tests asserting it happens
// exactly once, on the first scheduled process.
func (f *FS) Initialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.didInit
}
