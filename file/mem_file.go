package file

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"clockpool/page"
)

// MemFile is an in-memory Handle used by buffer package tests to drive the
// clock-sweep and hash-index logic without touching disk.
type MemFile struct {
	mu     sync.Mutex
	name   string
	id     Identity
	pages  map[page.ID][page.Size]byte
	nextID page.ID

	// WriteCount records how many times WritePage was called per page id,
	// so tests can assert write-back happened exactly once.
	WriteCount map[page.ID]int
}

// NewMemFile returns an empty MemFile named name.
func NewMemFile(name string) *MemFile {
	return &MemFile{
		name:       name,
		id:         uuid.New(),
		pages:      map[page.ID][page.Size]byte{},
		WriteCount: map[page.ID]int{},
	}
}

func (m *MemFile) ReadPage(id page.ID) (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.pages[id]
	if !ok {
		return nil, fmt.Errorf("read page %d of %q: no such page", id, m.name)
	}
	p := page.New(id)
	p.Data = data
	return p, nil
}

func (m *MemFile) WritePage(p *page.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pages[p.ID()]; !ok {
		return fmt.Errorf("write page %d of %q: no such page", p.ID(), m.name)
	}
	m.pages[p.ID()] = p.Data
	m.WriteCount[p.ID()]++
	return nil
}

func (m *MemFile) AllocatePage() (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.pages[id] = [page.Size]byte{}
	return page.New(id), nil
}

func (m *MemFile) DeletePage(id page.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pages[id]; !ok {
		return fmt.Errorf("delete page %d of %q: no such page", id, m.name)
	}
	delete(m.pages, id)
	return nil
}

func (m *MemFile) Filename() string {
	return m.name
}

func (m *MemFile) Identity() Identity {
	return m.id
}

var _ Handle = &MemFile{}
