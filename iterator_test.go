package dat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorInvalidatedByDeleteAfterCreation(t *testing.T) {
	trie := newTestTrie(t)
	require.NoError(t, trie.Add([]byte("car"), 1))
	require.NoError(t, trie.Add([]byte("cart"), 2))

	it := trie.PrefixSearch([]byte("ca*"))

	// Deleting after the iterator exists invalidates it rather than
	// silently shrinking the snapshot underneath the caller.
	require.NoError(t, trie.Delete([]byte("cart")))

	_, err := it.Next()
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindInvalidIterator, derr.Kind)
}

func TestIteratorAscendingSymbolOrder(t *testing.T) {
	trie := newTestTrie(t)
	for _, k := range []string{"cz", "ca", "cm"} {
		require.NoError(t, trie.Add([]byte(k), 0))
	}

	it := trie.PrefixSearch([]byte("c*"))
	var got []string
	for {
		entry, err := it.Next()
		if err == ErrIteratorDone {
			break
		}
		require.NoError(t, err)
		got = append(got, string(entry.Key()))
	}
	assert.Equal(t, []string{"ca", "cm", "cz"}, got)
}
