package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundToPages(t *testing.T) {
	page := PageSize()
	assert.Equal(t, page, RoundToPages(0))
	assert.Equal(t, page, RoundToPages(1))
	assert.Equal(t, page, RoundToPages(page))
	assert.Equal(t, 2*page, RoundToPages(page+1))
}

func TestDoubleMappedMirrors(t *testing.T) {
	if !Available() {
		t.Skip("double mapping unavailable on this platform")
	}

	m, err := New(PageSize())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, PageSize(), m.Size())
	assert.Len(t, m.Bytes(), 2*m.Size())

	b := m.Bytes()
	for i := 0; i < m.Size(); i++ {
		b[i] = byte(i)
	}
	// the second half is the same physical memory
	for i := 0; i < m.Size(); i++ {
		assert.Equal(t, b[i], b[i+m.Size()])
	}

	// writes beyond the size land in the first half as well
	b[m.Size()] = 0xAA
	assert.Equal(t, byte(0xAA), b[0])
}

func TestDoubleMappedClose(t *testing.T) {
	if !Available() {
		t.Skip("double mapping unavailable on this platform")
	}
	m, err := New(1)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
