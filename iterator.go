package dat

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Iterator walks the keys reachable from a given point in the trie.
// Unlike a live cursor, it materializes the full list of matching tail
// indices at creation time via an explicit-stack depth-first search;
// Next then simply advances through that snapshot. fingerprint is
// checked on every call so that mutating the trie between Next calls
// is reported as KindInvalidIterator rather than silently returning
// entries from a stale layout.
type Iterator[V any] struct {
	trie        *Trie[V]
	indices     []int
	cursor      int
	fingerprint uint64
}

func (t *Trie[V]) fingerprint() uint64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(t.da.base)))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(t.tail.slots)))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(t.tail.used))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(t.tail.firstFree))
	return xxhash.Sum64(buf[:])
}

func (t *Trie[V]) emptyIterator() *Iterator[V] {
	return &Iterator[V]{trie: t, cursor: -1, fingerprint: t.fingerprint()}
}

// iteratorFrom enumerates every key reachable below double-array cell
// s, in ascending symbol order at each branch.
func (t *Trie[V]) iteratorFrom(s int) *Iterator[V] {
	return &Iterator[V]{trie: t, indices: t.collectTailIndices(s), cursor: -1, fingerprint: t.fingerprint()}
}

func (t *Trie[V]) collectTailIndices(root int) []int {
	var indices []int
	stack := []int{root}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		base := t.da.base[s]
		if base < 0 {
			indices = append(indices, -base-tailStartBlock)
			continue
		}
		syms := t.da.childSymbols(s)
		for i := len(syms) - 1; i >= 0; i-- {
			stack = append(stack, base+int(syms[i]))
		}
	}
	return indices
}

// Release discards the iterator's snapshot. The underlying storage in
// the original container was a heap-allocated list the iterator owned
// outright; here the snapshot is an ordinary slice the garbage
// collector already reclaims, so Release exists only so callers
// written against that lifecycle still compile and read naturally.
func (it *Iterator[V]) Release() {
	it.indices = nil
}

// Next advances to the next matching entry, returning ErrIteratorDone
// once the snapshot is exhausted.
func (it *Iterator[V]) Next() (*TailEntry[V], error) {
	if it.fingerprint != it.trie.fingerprint() {
		return nil, &Error{Kind: KindInvalidIterator, Op: "Next"}
	}
	it.cursor++
	if it.cursor >= len(it.indices) {
		return nil, ErrIteratorDone
	}
	slot := it.trie.tail.entry(it.indices[it.cursor])
	return &TailEntry[V]{key: slot.key, val: slot.val}, nil
}

// PrefixSearch returns an iterator over every key with the given
// prefix. The first '*' in pattern ends the literal prefix: everything
// before it is matched literally and enumeration starts where that
// prefix ends. The '*' and anything after it are never walked or
// matched against keys; there is no glob matching. Without a '*',
// only an exact match of pattern is returned.
func (t *Trie[V]) PrefixSearch(pattern []byte) *Iterator[V] {
	hasWildcard := bytes.IndexByte(pattern, '*') >= 0
	prefix := pattern
	if idx := bytes.IndexByte(pattern, '*'); idx >= 0 {
		prefix = pattern[:idx]
	}

	internal, err := t.typ.Alphabet.Encode(prefix)
	if err != nil {
		return t.emptyIterator()
	}

	s := daPoolRoot
	i := 0
	for !t.da.branchEnd(s) {
		if internal[i] == 0 && hasWildcard {
			return t.iteratorFrom(s)
		}
		next, ok := t.da.walk(s, internal[i])
		if !ok {
			return t.emptyIterator()
		}
		s = next
		if internal[i] == 0 {
			break
		}
		i++
	}

	tailIdx := -t.da.base[s] - tailStartBlock
	suffixIdx := 0
	for {
		if internal[i] == 0 && hasWildcard {
			return t.iteratorFrom(s)
		}
		if !t.walkTail(tailIdx, &suffixIdx, internal[i]) {
			return t.emptyIterator()
		}
		if internal[i] == 0 {
			break
		}
		i++
	}
	return t.iteratorFrom(s)
}
