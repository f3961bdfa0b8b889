package dat

import (
	"fmt"
	"sort"
)

// AlphabetRange declares one contiguous band of external byte values,
// e.g. {'a', 'z'} for lowercase ASCII. A Alphabet is built from one or
// more disjoint ranges; together they may cover at most trieCharMax
// distinct byte values, since internal symbols must fit in [1,255]
// with 0 reserved for the terminator.
type AlphabetRange struct {
	Begin byte
	End   byte
}

// Alphabet maps external key bytes onto the dense internal symbol
// range the double array indexes with. It is immutable once built.
type Alphabet struct {
	ranges  []AlphabetRange
	offsets []int
	width   int
}

// NewAlphabet builds an Alphabet from the given ranges. Ranges may be
// passed in any order; they are sorted and must not overlap.
func NewAlphabet(ranges ...AlphabetRange) (*Alphabet, error) {
	if len(ranges) == 0 {
		return nil, wrapInternal("NewAlphabet", fmt.Errorf("at least one range is required"))
	}
	sorted := append([]AlphabetRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Begin < sorted[j].Begin })

	offsets := make([]int, len(sorted))
	width := 0
	for i, r := range sorted {
		if r.End < r.Begin {
			return nil, wrapInternal("NewAlphabet", fmt.Errorf("invalid range [%d,%d]", r.Begin, r.End))
		}
		if i > 0 && int(r.Begin) <= int(sorted[i-1].End) {
			return nil, wrapInternal("NewAlphabet", fmt.Errorf("ranges [%d,%d] and [%d,%d] overlap", sorted[i-1].Begin, sorted[i-1].End, r.Begin, r.End))
		}
		offsets[i] = width
		width += int(r.End) - int(r.Begin) + 1
	}
	if width > trieCharMax {
		return nil, wrapInternal("NewAlphabet", fmt.Errorf("alphabet width %d exceeds the %d symbol limit", width, trieCharMax))
	}
	return &Alphabet{ranges: sorted, offsets: offsets, width: width}, nil
}

// FullByteAlphabet covers byte values 0x00 through 0xFE. 0xFF is left
// out of the default since a single alphabet can address at most 255
// distinct symbols; callers needing it can declare their own ranges.
func FullByteAlphabet() (*Alphabet, error) {
	return NewAlphabet(AlphabetRange{Begin: 0x00, End: 0xfe})
}

// ASCIIAlphabet covers the 7-bit ASCII range, the common case for
// human-readable keys.
func ASCIIAlphabet() (*Alphabet, error) {
	return NewAlphabet(AlphabetRange{Begin: 0x00, End: 0x7f})
}

// Encode translates an external key into its internal symbol sequence,
// appending the 0 terminator. It fails with KindAlphabetViolation if
// any byte falls outside the configured ranges.
func (a *Alphabet) Encode(key []byte) ([]byte, error) {
	out := make([]byte, 0, len(key)+1)
	for _, b := range key {
		sym, ok := a.encodeByte(b)
		if !ok {
			return nil, newAlphabetErr("Encode", b)
		}
		out = append(out, sym)
	}
	return append(out, 0), nil
}

func (a *Alphabet) encodeByte(b byte) (byte, bool) {
	for i, r := range a.ranges {
		if b >= r.Begin && b <= r.End {
			return byte(1 + a.offsets[i] + int(b-r.Begin)), true
		}
	}
	return 0, false
}

// Decode translates an internal symbol sequence (terminator excluded
// or included, either is accepted) back to the external byte string.
func (a *Alphabet) Decode(internal []byte) []byte {
	out := make([]byte, 0, len(internal))
	for _, sym := range internal {
		if sym == 0 {
			break
		}
		out = append(out, a.decodeSymbol(sym))
	}
	return out
}

func (a *Alphabet) decodeSymbol(sym byte) byte {
	v := int(sym) - 1
	for i, r := range a.ranges {
		width := int(r.End) - int(r.Begin) + 1
		if v < a.offsets[i]+width {
			return r.Begin + byte(v-a.offsets[i])
		}
	}
	return 0
}
