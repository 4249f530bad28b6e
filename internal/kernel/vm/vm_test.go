package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageTableFirstAndAlloc(t *testing.T) {
	pt := Create()
	require.NoError(t, pt.First([]byte{0x01, 0x02, 0x03}))
	assert.EqualValues(t, PageSize, pt.Size())

	sz, err := pt.Alloc(PageSize + 1)
	require.NoError(t, err)
	assert.EqualValues(t, PageSize*2+1, sz)
}

func TestPageTableDealloc(t *testing.T) {
	pt := Create()
	_, err := pt.Alloc(PageSize * 3)
	require.NoError(t, err)

	sz := pt.Dealloc(PageSize)
	assert.EqualValues(t, PageSize*2, sz)

	sz = pt.Dealloc(PageSize * 10)
	assert.EqualValues(t, 0, sz)
}

func TestPageTableForkIsIndependent(t *testing.T) {
	pt := Create()
	require.NoError(t, pt.First([]byte{0xAA}))

	child := pt.Fork()
	_, err := child.Alloc(PageSize)
	require.NoError(t, err)

	assert.EqualValues(t, PageSize, pt.Size(), "parent must be unaffected by child growth")
	assert.EqualValues(t, PageSize*2, child.Size())
}

func TestPageTableShareRefcounting(t *testing.T) {
	pt := Create()
	assert.EqualValues(t, 1, pt.Refs())

	shared := pt.Share()
	assert.Same(t, pt, shared)
	assert.EqualValues(t, 2, pt.Refs())

	freed := pt.Release()
	assert.False(t, freed, "first release of two refs must not free")

	freed = pt.Release()
	assert.True(t, freed, "last release must free")
}

func TestSizeString(t *testing.T) {
	assert.Equal(t, "512B", Size(512).String())
	assert.Equal(t, "2.00KB", Size(2048).String())
	assert.Equal(t, "1.00MB", Size(1<<20).String())
}
