package dat

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intEncodeVal(v int) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return buf[:]
}

func intDecodeVal(b []byte) int {
	return int(binary.LittleEndian.Uint64(b))
}

func newPersistableTestTrie(t *testing.T) *Trie[int] {
	t.Helper()
	alpha, err := ASCIIAlphabet()
	require.NoError(t, err)
	trie, err := New(&Type[int]{Alphabet: alpha, EncodeVal: intEncodeVal, DecodeVal: intDecodeVal})
	require.NoError(t, err)
	return trie
}

func TestWriteToReadFromRoundTrip(t *testing.T) {
	trie := newPersistableTestTrie(t)
	keys := map[string]int{"car": 1, "cart": 2, "cat": 3, "dog": 4}
	for k, v := range keys {
		require.NoError(t, trie.Add([]byte(k), v))
	}

	var buf bytes.Buffer
	n, err := trie.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	restored := newPersistableTestTrie(t)
	_, err = restored.ReadFrom(&buf)
	require.NoError(t, err)

	assert.Equal(t, trie.Len(), restored.Len())
	for k, v := range keys {
		entry, err := restored.Find([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, v, entry.Val())
	}
}

func TestReadFromRejectsBadSignature(t *testing.T) {
	trie := newPersistableTestTrie(t)
	_, err := trie.ReadFrom(bytes.NewReader([]byte("not a trie")))
	require.Error(t, err)
}

func TestWriteToRequiresEncodeVal(t *testing.T) {
	alpha, err := ASCIIAlphabet()
	require.NoError(t, err)
	trie, err := New(&Type[int]{Alphabet: alpha})
	require.NoError(t, err)
	require.NoError(t, trie.Add([]byte("car"), 1))

	var buf bytes.Buffer
	_, err = trie.WriteTo(&buf)
	require.Error(t, err)
}
