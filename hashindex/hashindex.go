// Package hashindex implements the (file, page-id) -> frame-id mapping the
// buffer manager consults to know whether a page is currently resident.
// It is an open-chained hash table, matching the original BufHashTbl this
// package's contract is modeled on, rather than a bare Go map: bucket
// selection is a real hash (cespare/xxhash/v2 over the key's bytes) and
// collisions chain through a linked bucket list.
package hashindex

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/cespare/xxhash/v2"

	"clockpool/file"
	"clockpool/page"
)

// ErrNotFound is returned by Lookup and Remove when the key is absent.
// Callers inside buffer.Pool use it as hash-miss control flow and never let
// it cross the Pool's own public API.
var ErrNotFound = errors.New("hashindex: key not found")

// Key identifies a resident page by the file that owns it and its page
// number within that file.
type Key struct {
	File file.Identity
	Page page.ID
}

type entry struct {
	key     Key
	frameID int
	next    *entry
}

// Index is a fixed-bucket-count chained hash table. It never resizes; the
// caller guarantees the live entry count never exceeds the numBufs the
// table was sized for.
type Index struct {
	buckets []*entry
	count   int
}

// DefaultLoadFactor is the multiplier applied to numBufs when sizing the
// bucket table, matching the original buffer manager's 1.2x.
const DefaultLoadFactor = 1.2

// New returns an Index sized for a buffer pool of numBufs frames using
// DefaultLoadFactor. The bucket count is numBufs*loadFactor rounded to an
// odd number, 2*round(numBufs*loadFactor/2)+1.
func New(numBufs int) *Index {
	return NewWithLoadFactor(numBufs, DefaultLoadFactor)
}

// NewWithLoadFactor is New with an explicit bucket-count multiplier.
func NewWithLoadFactor(numBufs int, loadFactor float64) *Index {
	size := 2*int(math.Round(float64(numBufs)*loadFactor/2)) + 1
	if size < 1 {
		size = 1
	}
	return &Index{buckets: make([]*entry, size)}
}

func (idx *Index) bucketFor(k Key) int {
	var buf [24]byte
	fid, _ := k.File.MarshalBinary()
	copy(buf[:16], fid)
	binary.BigEndian.PutUint64(buf[16:], uint64(k.Page))
	h := xxhash.Sum64(buf[:])
	return int(h % uint64(len(idx.buckets)))
}

// Lookup returns the frame id resident for key, or ErrNotFound.
func (idx *Index) Lookup(key Key) (int, error) {
	b := idx.bucketFor(key)
	for e := idx.buckets[b]; e != nil; e = e.next {
		if e.key == key {
			return e.frameID, nil
		}
	}
	return 0, ErrNotFound
}

// Insert adds key -> frameID. The caller guarantees key is not already
// present.
func (idx *Index) Insert(key Key, frameID int) {
	b := idx.bucketFor(key)
	idx.buckets[b] = &entry{key: key, frameID: frameID, next: idx.buckets[b]}
	idx.count++
}

// Remove deletes key, returning ErrNotFound if it was absent.
func (idx *Index) Remove(key Key) error {
	b := idx.bucketFor(key)
	var prev *entry
	for e := idx.buckets[b]; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				idx.buckets[b] = e.next
			} else {
				prev.next = e.next
			}
			idx.count--
			return nil
		}
		prev = e
	}
	return ErrNotFound
}

// Len returns the number of live entries.
func (idx *Index) Len() int {
	return idx.count
}
