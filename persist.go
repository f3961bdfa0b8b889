package dat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteTo serializes the trie to w: a direct, byte-exact dump of the
// base/check arrays followed by the tail pool. Cell 0 of the dump
// already carries the signature and cell count, since that is exactly
// what the in-memory header cell holds.
//
// Persisting values requires typ.EncodeVal; WriteTo reports
// KindInternal if it is unset. encoding/gob was considered and
// rejected for this layer: gob is self-describing and renegotiates a
// type's wire encoding across the stream, which cannot produce the
// fixed cell-for-cell layout this format calls for.
func (t *Trie[V]) WriteTo(w io.Writer) (int64, error) {
	if t.typ.EncodeVal == nil {
		return 0, wrapInternal("WriteTo", fmt.Errorf("Type.EncodeVal is required to persist values"))
	}

	bw := bufio.NewWriter(w)
	var n int64

	writeInt := func(v int64) error {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		nn, err := bw.Write(buf[:])
		n += int64(nn)
		return err
	}
	writeBytes := func(b []byte) error {
		if err := writeInt(int64(len(b))); err != nil {
			return err
		}
		nn, err := bw.Write(b)
		n += int64(nn)
		return err
	}

	if err := writeInt(daSignature); err != nil {
		return n, err
	}
	if err := writeInt(int64(len(t.da.base))); err != nil {
		return n, err
	}
	for s := 1; s < len(t.da.base); s++ {
		if err := writeInt(int64(t.da.base[s])); err != nil {
			return n, err
		}
		if err := writeInt(int64(t.da.check[s])); err != nil {
			return n, err
		}
	}

	if err := writeInt(tailSignature); err != nil {
		return n, err
	}
	if err := writeInt(int64(len(t.tail.slots))); err != nil {
		return n, err
	}
	for i := range t.tail.slots {
		slot := &t.tail.slots[i]
		if err := writeInt(boolToInt(slot.inUse)); err != nil {
			return n, err
		}
		if !slot.inUse {
			if err := writeInt(int64(slot.nextFree)); err != nil {
				return n, err
			}
			continue
		}
		if err := writeBytes(slot.suffix); err != nil {
			return n, err
		}
		if err := writeBytes(slot.key); err != nil {
			return n, err
		}
		if err := writeBytes(t.typ.EncodeVal(slot.val)); err != nil {
			return n, err
		}
	}

	return n, bw.Flush()
}

// ReadFrom replaces the trie's contents with a layout previously
// produced by WriteTo. It reports KindInternal on any signature
// mismatch or truncated stream.
func (t *Trie[V]) ReadFrom(r io.Reader) (int64, error) {
	if t.typ.DecodeVal == nil {
		return 0, wrapInternal("ReadFrom", fmt.Errorf("Type.DecodeVal is required to restore values"))
	}

	br := bufio.NewReader(r)
	var n int64

	readInt := func() (int64, error) {
		var buf [8]byte
		nn, err := io.ReadFull(br, buf[:])
		n += int64(nn)
		if err != nil {
			return 0, wrapInternal("ReadFrom", err)
		}
		return int64(binary.LittleEndian.Uint64(buf[:])), nil
	}
	readBytes := func() ([]byte, error) {
		size, err := readInt()
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return nil, nil
		}
		buf := make([]byte, size)
		nn, err := io.ReadFull(br, buf)
		n += int64(nn)
		if err != nil {
			return nil, wrapInternal("ReadFrom", err)
		}
		return buf, nil
	}

	sig, err := readInt()
	if err != nil {
		return n, err
	}
	if sig != daSignature {
		return n, wrapInternal("ReadFrom", fmt.Errorf("bad double-array signature %#x", sig))
	}
	cellCount, err := readInt()
	if err != nil {
		return n, err
	}
	da := &doubleArray{base: make([]int, cellCount), check: make([]int, cellCount)}
	da.base[0] = daSignature
	da.check[0] = int(cellCount)
	for s := 1; s < int(cellCount); s++ {
		base, err := readInt()
		if err != nil {
			return n, err
		}
		check, err := readInt()
		if err != nil {
			return n, err
		}
		da.base[s] = int(base)
		da.check[s] = int(check)
	}

	tailSig, err := readInt()
	if err != nil {
		return n, err
	}
	if tailSig != tailSignature {
		return n, wrapInternal("ReadFrom", fmt.Errorf("bad tail-pool signature %#x", tailSig))
	}
	slotCount, err := readInt()
	if err != nil {
		return n, err
	}
	pool := &tailPool[V]{slots: make([]tailSlot[V], slotCount), firstFree: -1}
	used := 0
	for i := range pool.slots {
		inUse, err := readInt()
		if err != nil {
			return n, err
		}
		if inUse == 0 {
			nextFree, err := readInt()
			if err != nil {
				return n, err
			}
			pool.slots[i].nextFree = int(nextFree)
			continue
		}
		suffix, err := readBytes()
		if err != nil {
			return n, err
		}
		key, err := readBytes()
		if err != nil {
			return n, err
		}
		valBytes, err := readBytes()
		if err != nil {
			return n, err
		}
		pool.slots[i] = tailSlot[V]{
			suffix:   suffix,
			key:      key,
			val:      t.typ.DecodeVal(valBytes),
			nextFree: -1,
			inUse:    true,
		}
		used++
	}
	pool.used = used
	pool.firstFree = rebuildFreeChain(pool.slots)

	t.da = da
	t.tail = pool
	return n, nil
}

// rebuildFreeChain recomputes firstFree from the persisted nextFree
// links, which on disk already describe an ascending chain.
func rebuildFreeChain[V any](slots []tailSlot[V]) int {
	for i := range slots {
		if !slots[i].inUse {
			return i
		}
	}
	return -1
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
