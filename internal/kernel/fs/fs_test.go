package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileDupClose(t *testing.T) {
	f := &File{Name: "f1"}
	f.refs.Store(1)

	dup := f.Dup()
	assert.Same(t, f, dup)
	assert.EqualValues(t, 2, f.Refs())

	f.Close()
	assert.EqualValues(t, 1, f.Refs())
}

func TestInodeDupPut(t *testing.T) {
	ip := &Inode{Path: "/"}
	ip.refs.Store(1)

	ip.Dup()
	assert.EqualValues(t, 2, ip.Refs())
	ip.Put()
	assert.EqualValues(t, 1, ip.Refs())
}

func TestFSInitOnce(t *testing.T) {
	f := New()
	assert.False(t, f.Initialized())
	f.Init()
	f.Init()
	assert.True(t, f.Initialized())
}

func TestFSNamei(t *testing.T) {
	f := New()
	ip := f.Namei("/")
	assert.Equal(t, "/", ip.Path)
	assert.EqualValues(t, 1, ip.Refs())
}

func TestFSBeginEndOp(t *testing.T) {
	f := New()
	f.BeginOp()
	f.EndOp()
	f.BeginOp()
	f.EndOp()
}
