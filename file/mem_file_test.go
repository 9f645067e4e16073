package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFile_AllocateReadWriteDelete(t *testing.T) {
	f := NewMemFile("F")

	p, err := f.AllocatePage()
	require.NoError(t, err)

	copy(p.Data[:], []byte("hello"))
	require.NoError(t, f.WritePage(p))

	got, err := f.ReadPage(p.ID())
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Data[:5])
	assert.Equal(t, 1, f.WriteCount[p.ID()])

	require.NoError(t, f.DeletePage(p.ID()))
	_, err = f.ReadPage(p.ID())
	assert.Error(t, err)
}

func TestMemFile_DistinctFilesHaveDistinctIdentity(t *testing.T) {
	a := NewMemFile("A")
	b := NewMemFile("B")
	assert.NotEqual(t, a.Identity(), b.Identity())
}
