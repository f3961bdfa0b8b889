package dat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailPoolAllocGrowsFromThreeSlots(t *testing.T) {
	p := newTailPool[int]()
	idx := p.alloc()
	assert.Equal(t, 0, idx)
	assert.Equal(t, daPoolBegin, len(p.slots), "tail pool follows the same doubling-from-daPoolBegin sequence as the double array")
	assert.Equal(t, 1, p.used)
}

func TestTailPoolFreeAndReallocInAscendingOrder(t *testing.T) {
	p := newTailPool[int]()
	a := p.alloc()
	b := p.alloc()
	c := p.alloc()

	p.free(b, nil, nil)
	p.free(a, nil, nil)

	// Ascending-order free chain means the smaller index comes back first.
	first := p.alloc()
	assert.Equal(t, a, first)
	second := p.alloc()
	assert.Equal(t, b, second)

	_ = c
}

func TestTailPoolFreeRunsDestructors(t *testing.T) {
	p := newTailPool[int]()
	idx := p.alloc()
	p.setSuffix(idx, []byte("suffix"))
	p.slots[idx].key = []byte("key")
	p.slots[idx].val = 42

	var gotKey []byte
	var gotVal int
	p.free(idx, func(k []byte) { gotKey = k }, func(v int) { gotVal = v })

	assert.Equal(t, []byte("key"), gotKey)
	assert.Equal(t, 42, gotVal)
	assert.Nil(t, p.slots[idx].suffix)
	assert.False(t, p.slots[idx].inUse)
}

func TestTailPoolGrowPreservesExistingSlots(t *testing.T) {
	p := newTailPool[int]()
	idx := p.alloc()
	p.setSuffix(idx, []byte("x"))

	for i := 0; i < 10; i++ {
		p.alloc()
	}

	require.Equal(t, []byte("x"), p.getSuffix(idx))
}
