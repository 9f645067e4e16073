// Package buffer implements the fixed-size clock-sweep buffer pool
// manager: the frame descriptor table, the page pool, and the public
// pin/unpin/flush/dispose contract built on top of them.
package buffer

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/dustin/go-humanize"

	"clockpool/file"
	"clockpool/hashindex"
	"clockpool/page"
)

// Pool is the buffer pool manager: a fixed-length frame table and page
// pool, a hash index mapping resident pages to frames, and a clock hand
// driving eviction. All public methods are safe for concurrent use; Pool
// serialises them behind a single coarse lock, per this component's
// single-threaded contract.
type Pool struct {
	mu sync.Mutex

	numBufs int
	frames  []descriptor
	pages   []page.Page
	index   *hashindex.Index

	clockHand int

	log *log.Logger
}

// NewPool allocates a Pool of numBufs frames. The pool, frame table, and
// hash index are owned by the Pool until Close.
func NewPool(numBufs int, opts ...Option) *Pool {
	if numBufs <= 0 {
		panic("buffer: numBufs must be positive")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	frames := make([]descriptor, numBufs)
	for i := range frames {
		frames[i].frameNo = i
		frames[i].pageID = page.InvalidID
	}

	return &Pool{
		numBufs:   numBufs,
		frames:    frames,
		pages:     make([]page.Page, numBufs),
		index:     hashindex.NewWithLoadFactor(numBufs, o.hashLoadFactor),
		clockHand: numBufs - 1,
		log:       o.logger,
	}
}

// NumBufs returns the fixed number of frames this pool was constructed
// with.
func (p *Pool) NumBufs() int {
	return p.numBufs
}

func (p *Pool) key(f file.Handle, id page.ID) hashindex.Key {
	return hashindex.Key{File: f.Identity(), Page: id}
}

// allocBuf runs the clock sweep and returns a frame ready to receive an
// incoming page: invalid, unpinned, and removed from the hash index if it
// was previously resident. Caller must hold p.mu.
func (p *Pool) allocBuf() (int, error) {
	pinnedSeen := 0

	for {
		p.clockHand = (p.clockHand + 1) % p.numBufs
		f := &p.frames[p.clockHand]

		if !f.valid {
			break
		}

		if f.refBit {
			f.refBit = false
			if f.pinCount == 0 {
				// an unpinned frame was seen, so not every frame is pinned.
				pinnedSeen = 0
			}
			continue
		}

		if f.pinCount > 0 {
			pinnedSeen++
			if pinnedSeen >= p.numBufs {
				p.log.Printf("buffer: sweep exhausted, all %d frames pinned", p.numBufs)
				return 0, ErrBufferExceeded
			}
			continue
		}

		// valid, unreferenced, unpinned: evict it.
		if f.dirty {
			p.log.Printf("buffer: evicting dirty frame %d (file=%s page=%d)", p.clockHand, f.file.Filename(), f.pageID)
			if err := f.file.WritePage(&p.pages[p.clockHand]); err != nil {
				return 0, fmt.Errorf("buffer: write back frame %d of %q: %w", p.clockHand, f.file.Filename(), err)
			}
			f.dirty = false
		}
		if err := p.index.Remove(p.key(f.file, f.pageID)); err != nil {
			return 0, fmt.Errorf("buffer: evicting frame %d: %w", p.clockHand, err)
		}
		break
	}

	p.frames[p.clockHand].clear()
	return p.clockHand, nil
}

// ReadPage returns a pinned reference to the contents of (f, id), loading
// it from disk on a cache miss. The reference is valid until the matching
// UnpinPage call; callers must not retain it afterward.
func (p *Pool) ReadPage(f file.Handle, id page.ID) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.key(f, id)
	if frameID, err := p.index.Lookup(key); err == nil {
		fr := &p.frames[frameID]
		fr.refBit = true
		fr.pinCount++
		return &p.pages[frameID], nil
	}

	frameID, err := p.allocBuf()
	if err != nil {
		return nil, err
	}

	loaded, err := f.ReadPage(id)
	if err != nil {
		return nil, fmt.Errorf("buffer: read page %d of %q: %w", id, f.Filename(), err)
	}
	p.pages[frameID] = *loaded

	p.index.Insert(key, frameID)
	p.frames[frameID].set(f, id)

	return &p.pages[frameID], nil
}

// AllocPage asks f for a fresh on-disk page, buffers it in a pinned frame,
// and returns its page id together with a reference to the frame.
func (p *Pool) AllocPage(f file.Handle) (page.ID, *page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	newPage, err := f.AllocatePage()
	if err != nil {
		return page.InvalidID, nil, fmt.Errorf("buffer: allocate page on %q: %w", f.Filename(), err)
	}

	frameID, err := p.allocBuf()
	if err != nil {
		return page.InvalidID, nil, err
	}

	p.pages[frameID] = *newPage
	id := newPage.ID()

	p.index.Insert(p.key(f, id), frameID)
	p.frames[frameID].set(f, id)

	return id, &p.pages[frameID], nil
}

// UnpinPage decrements the pin count for (f, id). If the page is not
// currently resident, UnpinPage succeeds silently (the hash-miss is
// internal control flow, never surfaced). If dirty is true, the frame is
// marked dirty; dirty is never cleared by an unpin with dirty == false.
func (p *Pool) UnpinPage(f file.Handle, id page.ID, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, err := p.index.Lookup(p.key(f, id))
	if err != nil {
		return nil
	}

	fr := &p.frames[frameID]
	if fr.pinCount == 0 {
		return ErrPageNotPinned
	}

	fr.pinCount--
	if dirty {
		fr.dirty = true
	}
	return nil
}

// FlushFile writes back every dirty, resident page belonging to f and
// clears every frame holding a page of f, dirty or clean. It fails fast on the first pinned or inconsistent
// frame it finds; frames already cleaned earlier in the same call remain
// cleaned.
func (p *Pool) FlushFile(f file.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := f.Identity()
	for i := range p.frames {
		fr := &p.frames[i]
		if fr.file == nil || fr.file.Identity() != id {
			continue
		}

		if fr.pinCount > 0 {
			return ErrPagePinned
		}
		if !fr.valid {
			return ErrBadBuffer
		}

		if fr.dirty {
			if err := f.WritePage(&p.pages[i]); err != nil {
				return fmt.Errorf("buffer: flush page %d of %q: %w", fr.pageID, f.Filename(), err)
			}
			fr.dirty = false
		}

		if err := p.index.Remove(p.key(f, fr.pageID)); err != nil {
			return fmt.Errorf("buffer: flush page %d of %q: %w", fr.pageID, f.Filename(), err)
		}
		fr.clear()
	}
	return nil
}

// DisposePage removes (f, id) from the pool if resident, discarding any
// dirty bit without write-back, then asks f to delete the page regardless
// of whether it was buffered.
func (p *Pool) DisposePage(f file.Handle, id page.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.key(f, id)
	if frameID, err := p.index.Lookup(key); err == nil {
		p.index.Remove(key)
		p.frames[frameID].clear()
	}

	if err := f.DeletePage(id); err != nil {
		return fmt.Errorf("buffer: dispose page %d of %q: %w", id, f.Filename(), err)
	}
	return nil
}

// Close writes back every valid, dirty frame and releases the pool.
// Closing a Pool while any frame has a nonzero pin count is a programming
// error; Close does not panic for it, it simply flushes what it can.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.frames {
		fr := &p.frames[i]
		if fr.valid && fr.dirty {
			if err := fr.file.WritePage(&p.pages[i]); err != nil {
				return fmt.Errorf("buffer: close: write back frame %d of %q: %w", i, fr.file.Filename(), err)
			}
			fr.dirty = false
		}
	}
	return nil
}

// Dump writes one diagnostic line per frame followed by a valid-frame
// summary to w. The output format is not part of this package's contract
// and may change.
func (p *Pool) Dump(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	valid := 0
	for i := range p.frames {
		fr := &p.frames[i]
		fmt.Fprintf(w, "FrameNo:%d valid:%t dirty:%t pin:%d ref:%t", fr.frameNo, fr.valid, fr.dirty, fr.pinCount, fr.refBit)
		if fr.valid {
			fmt.Fprintf(w, " file:%s page:%d", fr.file.Filename(), fr.pageID)
			valid++
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total Number of Valid Frames:%d (%s of %s)\n",
		valid,
		humanize.Bytes(uint64(valid*page.Size)),
		humanize.Bytes(uint64(p.numBufs*page.Size)))
}
