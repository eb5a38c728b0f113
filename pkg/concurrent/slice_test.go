package concurrent

import (
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noLimit = math.MaxInt

func TestSlice_AppendBounded(t *testing.T) {
	s := NewSlice[int]()

	n, ok := s.AppendBounded(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, n)
	n, ok = s.AppendBounded(2, 2)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = s.AppendBounded(3, 2)
	assert.False(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1, 2}, s.Drain())

	_, ok = s.AppendBounded(3, 2)
	assert.True(t, ok)
}

func TestSlice_Drain(t *testing.T) {
	s := NewSlice[string]()
	assert.Empty(t, s.Drain())

	s.AppendBounded("a", noLimit)
	s.AppendBounded("b", noLimit)

	assert.Equal(t, []string{"a", "b"}, s.Drain())
	assert.Equal(t, 0, s.Length())

	s.AppendBounded("c", noLimit)
	assert.Equal(t, []string{"c"}, s.Drain())
}

func TestSlice_ConcurrentAppendAndDrain(t *testing.T) {
	const writers = 8
	const perWriter = 500

	s := NewSlice[int]()
	var wg sync.WaitGroup

	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				s.AppendBounded(w*perWriter+i, noLimit)
			}
		}()
	}

	done := make(chan struct{})
	var drained []int
	go func() {
		defer close(done)
		for len(drained) < writers*perWriter {
			drained = append(drained, s.Drain()...)
		}
	}()

	wg.Wait()
	<-done
	drained = append(drained, s.Drain()...)

	require.Len(t, drained, writers*perWriter)

	// Per-writer order survives interleaving.
	for w := range writers {
		var own []int
		for _, v := range drained {
			if v/perWriter == w {
				own = append(own, v)
			}
		}
		assert.True(t, slices.IsSorted(own), "writer %d reordered", w)
	}

	slices.Sort(drained)
	assert.Equal(t, writers*perWriter, len(slices.Compact(drained)), "duplicates drained")
}
