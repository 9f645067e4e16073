package file

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"clockpool/page"
)

// DiskFile is a reference Handle implementation backed by a plain OS file.
// Page 0 is reserved as a header slot, written as zeros; on reopen the
// last-allocated page id is recovered from the file size. Pages are fixed
// Size-byte slots at offset id*Size, matching the
// teacher's own flat page-per-slot disk manager.
type DiskFile struct {
	mu         sync.Mutex
	f          *os.File
	name       string
	id         Identity
	lastPageID page.ID
}

// OpenDiskFile opens or creates name as a DiskFile.
func OpenDiskFile(name string) (*DiskFile, error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open disk file %q: %w", name, err)
	}

	df := &DiskFile{
		f:    f,
		name: name,
		id:   uuid.New(),
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat disk file %q: %w", name, err)
	}

	if stat.Size() == 0 {
		// reserve page 0 for the header; first allocatable page is 1.
		df.lastPageID = 0
		if err := df.writeHeader(); err != nil {
			return nil, err
		}
	} else {
		df.lastPageID = page.ID(stat.Size()/int64(page.Size) - 1)
	}

	return df, nil
}

func (d *DiskFile) writeHeader() error {
	var hdr [page.Size]byte
	if _, err := d.f.WriteAt(hdr[:], 0); err != nil {
		return fmt.Errorf("write header of %q: %w", d.name, err)
	}
	return nil
}

func (d *DiskFile) ReadPage(id page.ID) (*page.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := page.New(id)
	n, err := d.f.ReadAt(p.Data[:], int64(id)*int64(page.Size))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read page %d of %q: %w", id, d.name, err)
	}
	if n != page.Size && err == io.EOF {
		return nil, fmt.Errorf("read page %d of %q: %w", id, d.name, io.EOF)
	}
	return p, nil
}

func (d *DiskFile) WritePage(p *page.Page) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.f.WriteAt(p.Data[:], int64(p.ID())*int64(page.Size))
	if err != nil {
		return fmt.Errorf("write page %d of %q: %w", p.ID(), d.name, err)
	}
	if n != page.Size {
		return fmt.Errorf("write page %d of %q: short write (%d of %d bytes)", p.ID(), d.name, n, page.Size)
	}
	return nil
}

func (d *DiskFile) AllocatePage() (*page.Page, error) {
	d.mu.Lock()
	d.lastPageID++
	id := d.lastPageID
	d.mu.Unlock()

	p := page.New(id)
	if err := d.WritePage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePage zeroes id's slot. DiskFile keeps no free list of its own; page
// ids are never reused by AllocatePage.
func (d *DiskFile) DeletePage(id page.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero [page.Size]byte
	if _, err := d.f.WriteAt(zero[:], int64(id)*int64(page.Size)); err != nil {
		return fmt.Errorf("delete page %d of %q: %w", id, d.name, err)
	}
	return nil
}

func (d *DiskFile) Filename() string {
	return d.name
}

func (d *DiskFile) Identity() Identity {
	return d.id
}

// Close releases the OS file handle. It does not flush any buffer pool
// that may still hold this file's pages; callers must flush and close
// their pool first.
func (d *DiskFile) Close() error {
	return d.f.Close()
}

var _ Handle = &DiskFile{}
