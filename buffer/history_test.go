package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCapacityZero(t *testing.T) {
	_, err := NewHistory[int](0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHistoryPushAndIndex(t *testing.T) {
	for _, capacity := range []int{5, 3, 10} {
		h, err := NewHistory[int](capacity)
		require.NoError(t, err)
		assert.Equal(t, capacity, h.Capacity())
		assert.Equal(t, 0, h.Size())

		for i := 1; i <= capacity+1; i++ {
			h.PushBack(i)
		}
		assert.Equal(t, capacity, h.Capacity())
		assert.Equal(t, capacity, h.Size())

		// index 0 is the most recent sample
		assert.Equal(t, capacity+1, h.Index(0))
		assert.Equal(t, capacity, h.Index(1))

		v, err := h.At(0)
		require.NoError(t, err)
		assert.Equal(t, capacity+1, v)
		v, err = h.At(1)
		require.NoError(t, err)
		assert.Equal(t, capacity, v)
	}
}

func TestHistoryRanges(t *testing.T) {
	h, err := NewHistory[int](5)
	require.NoError(t, err)
	h.PushBackBulk([]int{1, 2, 3})
	h.PushBackBulk([]int{4, 5, 6})
	assert.Equal(t, 5, h.Capacity())
	assert.Equal(t, 5, h.Size())

	span, err := h.GetSpan(0, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 5, 4}, span)

	span, err = h.GetSpan(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4, 3}, span)

	span, err = h.GetSpan(0, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 5, 4, 3, 2}, span)

	span, err = h.GetSpan(1, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4, 3, 2}, span)

	_, err = h.GetSpan(2, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	var forward []int
	for i := 0; i < h.Size(); i++ {
		forward = append(forward, h.Index(i))
	}
	assert.Equal(t, []int{6, 5, 4, 3, 2}, forward)

	var walked []int
	h.ForEach(func(v int) { walked = append(walked, v) })
	assert.Equal(t, []int{6, 5, 4, 3, 2}, walked)

	var reverse []int
	h.ForEachReverse(func(v int) { reverse = append(reverse, v) })
	assert.Equal(t, []int{2, 3, 4, 5, 6}, reverse)
}

func TestHistoryEdgeCases(t *testing.T) {
	one, err := NewHistory[int](1)
	require.NoError(t, err)
	assert.Equal(t, 1, one.Capacity())
	assert.Equal(t, 0, one.Size())
	one.PushBack(41)
	one.PushBack(42)
	assert.Equal(t, 1, one.Size())
	assert.Equal(t, 42, one.Index(0))

	_, err = one.At(2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	overflow, err := NewHistory[int](5)
	require.NoError(t, err)
	overflow.PushBackBulk([]int{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 6, overflow.Index(0))
	overflow.PushBackBulk([]int{7, 8, 9})
	assert.Equal(t, 9, overflow.Index(0))
}

func TestHistoryReset(t *testing.T) {
	h, err := NewHistory[float64](5)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		h.PushBack(float64(i) * 0.1)
	}
	assert.Equal(t, 5, h.Size())

	h.Reset(0)
	assert.Equal(t, 0, h.Size())
	for _, v := range h.Data() {
		assert.Equal(t, 0.0, v)
	}

	h.Reset(2.0)
	assert.Equal(t, 0, h.Size())
	for _, v := range h.Data() {
		assert.Equal(t, 2.0, v)
	}
}
