package dat

import "fmt"

// TailEntry is the stored record for one key: the full external key
// (kept redundantly for fast retrieval, mirroring the branch-derived
// encoding) and its value.
type TailEntry[V any] struct {
	key []byte
	val V
}

func (e *TailEntry[V]) Key() []byte { return e.key }
func (e *TailEntry[V]) Val() V      { return e.val }

// Type configures a Trie: the mandatory Alphabet plus optional hooks
// mirroring a classic dictionary type descriptor. Dup/Destructor hooks
// let a caller manage reference-counted or pooled keys/values; when
// left nil the container stores values as-is and performs no cleanup
// beyond dropping its own references. EncodeVal/DecodeVal are required
// only by WriteTo/ReadFrom, which need to turn an opaque V into bytes.
type Type[V any] struct {
	Alphabet *Alphabet

	KeyDup        func([]byte) []byte
	ValDup        func(V) V
	KeyCompare    func(a, b []byte) int
	KeyDestructor func([]byte)
	ValDestructor func(V)

	EncodeVal func(V) []byte
	DecodeVal func([]byte) V
}

// Trie is an associative container keyed by []byte, backed by a
// double-array trie with tail-pool compression of non-branching
// suffixes.
type Trie[V any] struct {
	da   *doubleArray
	tail *tailPool[V]
	typ  *Type[V]
}

// New creates an empty Trie configured by typ. typ.Alphabet is
// required; every other field is optional.
func New[V any](typ *Type[V]) (*Trie[V], error) {
	if typ == nil || typ.Alphabet == nil {
		return nil, wrapInternal("New", fmt.Errorf("a Type with an Alphabet is required"))
	}
	return &Trie[V]{da: newDoubleArray(), tail: newTailPool[V](), typ: typ}, nil
}

// Len reports the number of live keys.
func (t *Trie[V]) Len() int { return t.tail.used }

// Expand ensures the double array can address at least size cells,
// growing it eagerly rather than waiting for an insert to trigger the
// growth. It reports KindCapacityExhausted if size is out of range.
func (t *Trie[V]) Expand(size int) error {
	if err := t.da.expand(size); err != nil {
		return err
	}
	return nil
}

func (t *Trie[V]) String() string {
	return fmt.Sprintf("dat.Trie{cells:%d, keys:%d, tailSlots:%d}", len(t.da.base), t.tail.used, len(t.tail.slots))
}

func (t *Trie[V]) dupKey(key []byte) []byte {
	if t.typ.KeyDup != nil {
		return t.typ.KeyDup(key)
	}
	return append([]byte(nil), key...)
}

// Add inserts key with val. It reports KindDuplicateKey if key is
// already present; callers that want upsert semantics should pair it
// with Find or use Replace.
func (t *Trie[V]) Add(key []byte, val V) error {
	internal, err := t.typ.Alphabet.Encode(key)
	if err != nil {
		return err
	}
	return t.addKey(internal, key, val)
}

// addKey walks the branch phase then the tail phase of internal,
// creating whatever branch/tail structure is needed to store key/val
// at the point where internal first diverges from everything already
// stored. It mirrors the original single combined walk: on branch
// mismatch it installs a new branch+tail immediately; on tail mismatch
// it splits the existing tail at the point recorded when the tail
// phase began (sep), not at the point the mismatch was detected.
func (t *Trie[V]) addKey(internal, key []byte, val V) error {
	s := daPoolRoot
	i := 0
	for !t.da.branchEnd(s) {
		next, ok := t.da.walk(s, internal[i])
		if !ok {
			tailIdx, err := t.insertInBranch(s, internal[i:])
			if err != nil {
				return err
			}
			return t.installKeyVal(tailIdx, key, val)
		}
		s = next
		if internal[i] == 0 {
			break
		}
		i++
	}

	sep := i
	tailIdx := -t.da.base[s] - tailStartBlock
	suffixIdx := 0
	for {
		if !t.walkTail(tailIdx, &suffixIdx, internal[i]) {
			newTailIdx, err := t.insertInTail(s, internal[sep:])
			if err != nil {
				return err
			}
			return t.installKeyVal(newTailIdx, key, val)
		}
		if internal[i] == 0 {
			break
		}
		i++
	}

	// Every byte of internal matched an existing key exactly.
	return &Error{Kind: KindDuplicateKey, Op: "Add"}
}

func (t *Trie[V]) installKeyVal(tailIdx int, key []byte, val V) error {
	slot := t.tail.entry(tailIdx)
	slot.key = t.dupKey(key)
	if t.typ.ValDup != nil {
		slot.val = t.typ.ValDup(val)
	} else {
		slot.val = val
	}
	return nil
}

// walkTail advances suffixIdx past c if the tail entry at tailIdx has
// c at its current suffix position.
func (t *Trie[V]) walkTail(tailIdx int, suffixIdx *int, c byte) bool {
	suffix := t.tail.getSuffix(tailIdx)
	if suffix == nil {
		return false
	}
	if *suffixIdx >= len(suffix) {
		return false
	}
	if suffix[*suffixIdx] != c {
		return false
	}
	if c != 0 {
		*suffixIdx++
	}
	return true
}

// insertInBranch installs a brand-new arc out of sepNode labelled by
// suffix's first symbol, storing the remainder of suffix as a new
// tail entry.
func (t *Trie[V]) insertInBranch(sepNode int, suffix []byte) (int, error) {
	newDA, err := t.da.insertArc(sepNode, suffix[0])
	if err != nil {
		return 0, err
	}
	rest := suffix
	if suffix[0] != 0 {
		rest = suffix[1:]
	}
	newTail := t.tail.alloc()
	t.tail.setSuffix(newTail, rest)
	t.da.base[newDA] = -(newTail + tailStartBlock)
	return newTail, nil
}

// insertInTail splits the tail entry reachable from sepNode at the
// point where its stored suffix diverges from the new suffix,
// rebuilding the shared prefix as branch cells and re-homing the old
// tail under whichever arc it still needs.
func (t *Trie[V]) insertInTail(sepNode int, suffix []byte) (int, error) {
	oldTail := -t.da.base[sepNode] - tailStartBlock
	oldSuffix := t.tail.getSuffix(oldTail)
	if oldSuffix == nil {
		return 0, wrapInternal("insertInTail", fmt.Errorf("missing tail suffix at %d", oldTail))
	}

	s := sepNode
	i := 0
	for i < len(oldSuffix) && i < len(suffix) && oldSuffix[i] == suffix[i] {
		next, err := t.da.insertArc(s, oldSuffix[i])
		if err != nil {
			t.da.prune(sepNode, s)
			t.da.base[sepNode] = -(oldTail + tailStartBlock)
			return 0, err
		}
		s = next
		if oldSuffix[i] == 0 {
			break
		}
		i++
	}

	oldChar := byte(0)
	if i < len(oldSuffix) {
		oldChar = oldSuffix[i]
	}
	oldDA, err := t.da.insertArc(s, oldChar)
	if err != nil {
		t.da.prune(sepNode, s)
		t.da.base[sepNode] = -(oldTail + tailStartBlock)
		return 0, err
	}

	rest := oldSuffix[i:]
	if oldChar != 0 && len(rest) > 0 {
		rest = rest[1:]
	}
	t.tail.setSuffix(oldTail, rest)
	t.da.base[oldDA] = -(oldTail + tailStartBlock)

	newSuffix := suffix[i:]
	return t.insertInBranch(s, newSuffix)
}

// Find looks up key, returning its stored entry.
func (t *Trie[V]) Find(key []byte) (*TailEntry[V], error) {
	internal, err := t.typ.Alphabet.Encode(key)
	if err != nil {
		return nil, err
	}
	idx, ok := t.locate(internal)
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "Find"}
	}
	slot := t.tail.entry(idx)
	return &TailEntry[V]{key: slot.key, val: slot.val}, nil
}

// locate walks internal to an exact match, returning its tail index.
func (t *Trie[V]) locate(internal []byte) (int, bool) {
	s := daPoolRoot
	i := 0
	for !t.da.branchEnd(s) {
		next, ok := t.da.walk(s, internal[i])
		if !ok {
			return 0, false
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
		if !t.walkTail(tailIdx, &suffixIdx, internal[i]) {
			return 0, false
		}
		if internal[i] == 0 {
			break
		}
		i++
	}
	return tailIdx, true
}

// Replace overwrites the value stored for an existing key, reporting
// KindNotFound if key is absent. The new value is installed first and
// the old value is then passed through ValDestructor
// (install-new-then-destroy-old).
func (t *Trie[V]) Replace(key []byte, val V) error {
	internal, err := t.typ.Alphabet.Encode(key)
	if err != nil {
		return err
	}
	idx, ok := t.locate(internal)
	if !ok {
		return &Error{Kind: KindNotFound, Op: "Replace"}
	}
	slot := t.tail.entry(idx)
	old := slot.val
	if t.typ.ValDup != nil {
		slot.val = t.typ.ValDup(val)
	} else {
		slot.val = val
	}
	if t.typ.ValDestructor != nil {
		t.typ.ValDestructor(old)
	}
	return nil
}

// Delete removes key, freeing its tail slot and pruning any branch
// cells left without children.
func (t *Trie[V]) Delete(key []byte) error {
	internal, err := t.typ.Alphabet.Encode(key)
	if err != nil {
		return err
	}
	s := daPoolRoot
	i := 0
	for !t.da.branchEnd(s) {
		next, ok := t.da.walk(s, internal[i])
		if !ok {
			return &Error{Kind: KindNotFound, Op: "Delete"}
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
		if !t.walkTail(tailIdx, &suffixIdx, internal[i]) {
			return &Error{Kind: KindNotFound, Op: "Delete"}
		}
		if internal[i] == 0 {
			break
		}
		i++
	}

	t.tail.free(tailIdx, t.typ.KeyDestructor, t.typ.ValDestructor)
	t.da.base[s] = trieIndexError
	t.da.prune(daPoolRoot, s)
	return nil
}

// Empty discards every key, invoking progress (if non-nil) every
// 65536 tail slots visited.
func (t *Trie[V]) Empty(progress func()) {
	for i := range t.tail.slots {
		if progress != nil && i&65535 == 0 {
			progress()
		}
		slot := &t.tail.slots[i]
		if !slot.inUse {
			continue
		}
		if t.typ.KeyDestructor != nil {
			t.typ.KeyDestructor(slot.key)
		}
		if t.typ.ValDestructor != nil {
			t.typ.ValDestructor(slot.val)
		}
	}
	t.da = newDoubleArray()
	t.tail = newTailPool[V]()
}
