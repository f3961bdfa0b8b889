package dat

import "sort"

// doubleArray is the base/check pair encoding the trie's branching
// structure. Cell s has a child on symbol c at base[s]+c exactly when
// check[base[s]+c] == s. A negative base marks a terminal cell whose
// key tail lives in the tail pool at index -base[s]-tailStartBlock.
// Cells not currently claimed by any node are threaded onto a doubly
// linked free ring: base[s] = -prevFree, check[s] = -nextFree.
type doubleArray struct {
	base  []int
	check []int
}

func newDoubleArray() *doubleArray {
	d := &doubleArray{
		base:  make([]int, daPoolBegin),
		check: make([]int, daPoolBegin),
	}
	d.base[0] = daSignature
	d.check[0] = daPoolBegin
	d.base[daPoolFree] = -daPoolFree
	d.check[daPoolFree] = -daPoolFree
	d.base[daPoolRoot] = daPoolBegin
	d.check[daPoolRoot] = 0
	return d
}

func (d *doubleArray) getBase(i int) int {
	if i < 0 || i >= len(d.base) {
		return trieIndexError
	}
	return d.base[i]
}

func (d *doubleArray) getCheck(i int) int {
	if i < 0 || i >= len(d.check) {
		return trieIndexError
	}
	return d.check[i]
}

func (d *doubleArray) branchEnd(s int) bool {
	return d.getBase(s) < 0
}

// walk follows the arc out of s labelled sym, returning the child cell
// and true, or (s, false) if no such arc exists.
func (d *doubleArray) walk(s int, sym byte) (int, bool) {
	next := d.getBase(s) + int(sym)
	if d.getCheck(next) == s {
		return next, true
	}
	return s, false
}

// expand grows the array so that index size is addressable, following
// the same doubling sequence used everywhere else in the container.
func (d *doubleArray) expand(size int) error {
	if size <= 0 || size >= trieIndexMax {
		return &Error{Kind: KindCapacityExhausted, Op: "expand"}
	}
	if len(d.base) > size {
		return nil
	}
	newSize := nextPoolSize(size)
	oldSize := len(d.base)

	newBase := make([]int, newSize)
	newCheck := make([]int, newSize)
	copy(newBase, d.base)
	copy(newCheck, d.check)
	d.base, d.check = newBase, newCheck

	for i := oldSize; i < newSize-1; i++ {
		d.check[i] = -(i + 1)
		d.base[i+1] = -i
	}
	freeTail := -d.base[daPoolFree]
	d.check[freeTail] = -oldSize
	d.base[oldSize] = -freeTail
	d.check[newSize-1] = -daPoolFree
	d.base[daPoolFree] = -(newSize - 1)

	d.check[0] = newSize
	return nil
}

// prepareSpace ensures idx is addressable and currently free.
func (d *doubleArray) prepareSpace(idx int) bool {
	if err := d.expand(idx); err != nil {
		return false
	}
	return d.check[idx] < 0
}

// assignCell removes cell s from the free ring, leaving it ready to
// be claimed by the caller.
func (d *doubleArray) assignCell(s int) {
	prev := -d.base[s]
	next := -d.check[s]
	if prev == s {
		prev = daPoolFree
	}
	if next == s {
		next = daPoolFree
	}
	d.check[prev] = -next
	d.base[next] = -prev
}

// freeCell returns cell s to the free ring, keeping the ring in
// ascending index order starting the scan from the anchor.
func (d *doubleArray) freeCell(s int) {
	prev := daPoolFree
	for {
		next := -d.check[prev]
		if next == daPoolFree || next > s {
			break
		}
		prev = next
	}
	next := -d.check[prev]
	d.base[s] = -prev
	d.check[s] = -next
	d.check[prev] = -s
	d.base[next] = -s
}

// symbolSpanAt bounds how many symbol offsets starting at base are
// both within the 0..trieCharMax symbol range and within the current
// array capacity.
func (d *doubleArray) symbolSpanAt(base int) int {
	maxC := symbolSpan
	if trieIndexMax-base < maxC {
		maxC = trieIndexMax - base
	}
	if len(d.base)-base < maxC {
		maxC = len(d.base) - base
	}
	if maxC < 0 {
		maxC = 0
	}
	return maxC
}

func (d *doubleArray) hasChildren(s int) bool {
	base := d.base[s]
	if base <= 0 {
		return false
	}
	maxC := d.symbolSpanAt(base)
	for c := 0; c < maxC; c++ {
		if d.check[base+c] == s {
			return true
		}
	}
	return false
}

// childSymbols returns, in ascending order, the symbols for which s
// currently has a child.
func (d *doubleArray) childSymbols(s int) []byte {
	base := d.base[s]
	if base <= 0 {
		return nil
	}
	maxC := d.symbolSpanAt(base)
	syms := make([]byte, 0, 4)
	for c := 0; c < maxC; c++ {
		if d.check[base+c] == s {
			syms = append(syms, byte(c))
		}
	}
	return syms
}

func insertSymbolSorted(syms []byte, c byte) []byte {
	i := sort.Search(len(syms), func(i int) bool { return syms[i] >= c })
	if i < len(syms) && syms[i] == c {
		return syms
	}
	syms = append(syms, 0)
	copy(syms[i+1:], syms[i:])
	syms[i] = c
	return syms
}

func (d *doubleArray) fitSymbols(base int, symbols []byte) bool {
	for _, sym := range symbols {
		if base > trieIndexMax-int(sym) {
			return false
		}
		if !d.prepareSpace(base + int(sym)) {
			return false
		}
	}
	return true
}

// findFreeBase scans the free ring for a base such that base+c is free
// for every symbol c in symbols, expanding the array as needed.
func (d *doubleArray) findFreeBase(symbols []byte) (int, error) {
	firstSym := int(symbols[0])
	s := -d.check[daPoolFree]
	for s != daPoolFree && s < firstSym+daPoolBegin {
		s = -d.check[s]
	}
	if s == daPoolFree {
		s = firstSym + daPoolBegin
		for {
			if err := d.expand(s); err != nil {
				return 0, err
			}
			if d.check[s] < 0 {
				break
			}
			s++
		}
	}
	for !d.fitSymbols(s-firstSym, symbols) {
		if -d.check[s] == daPoolFree {
			if err := d.expand(len(d.base)); err != nil {
				return 0, err
			}
		}
		s = -d.check[s]
	}
	return s - firstSym, nil
}

// insertArc ensures s has a child on sym, relocating s's children to a
// fresh base if the natural cell is already claimed by another parent.
func (d *doubleArray) insertArc(s int, sym byte) (int, error) {
	base := d.base[s]
	var next int
	if base > 0 {
		next = base + int(sym)
		if d.getCheck(next) == s {
			return next, nil
		}
		if base > trieIndexMax-int(sym) || !d.prepareSpace(next) {
			syms := insertSymbolSorted(d.childSymbols(s), sym)
			newBase, err := d.findFreeBase(syms)
			if err != nil {
				return 0, err
			}
			d.reindex(s, newBase)
			next = newBase + int(sym)
		}
	} else {
		newBase, err := d.findFreeBase([]byte{sym})
		if err != nil {
			return 0, err
		}
		d.base[s] = newBase
		next = newBase + int(sym)
	}
	d.assignCell(next)
	d.check[next] = s
	return next, nil
}

// reindex moves all of s's children from its current base to newBase,
// repointing grandchildren's check fields along the way.
func (d *doubleArray) reindex(s, newBase int) {
	oldBase := d.base[s]
	syms := d.childSymbols(s)
	for _, sym := range syms {
		oldNext := oldBase + int(sym)
		newNext := newBase + int(sym)
		oldNextBase := d.base[oldNext]

		d.assignCell(newNext)
		d.check[newNext] = s
		d.base[newNext] = oldNextBase

		if oldNextBase > 0 {
			maxC := d.symbolSpanAt(oldNextBase)
			for c := 0; c < maxC; c++ {
				if d.check[oldNextBase+c] == oldNext {
					d.check[oldNextBase+c] = newNext
				}
			}
		}
		d.freeCell(oldNext)
	}
	d.base[s] = newBase
}

// prune walks up from s toward (but not including) p, freeing cells
// that have no remaining children.
func (d *doubleArray) prune(p, s int) {
	for p != s && !d.hasChildren(s) {
		parent := d.check[s]
		d.freeCell(s)
		s = parent
	}
}
