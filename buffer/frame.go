package buffer

import (
	"clockpool/file"
	"clockpool/page"
)

// descriptor is the per-frame metadata the clock algorithm and pin
// discipline operate on. frameNo never changes after construction; every
// other field is mutated only by the owning Pool under its lock.
type descriptor struct {
	frameNo  int
	file     file.Handle // weak: the pool never owns this
	pageID   page.ID
	valid    bool
	dirty    bool
	pinCount int
	refBit   bool
}

// clear resets a frame to its invalid, unowned state.
func (d *descriptor) clear() {
	d.file = nil
	d.pageID = page.InvalidID
	d.valid = false
	d.dirty = false
	d.pinCount = 0
	d.refBit = false
}

// set transitions an invalid frame into residency for (f, id), pinned once
// with its second-chance bit set, matching BufDesc::Set in the original
// buffer manager.
func (d *descriptor) set(f file.Handle, id page.ID) {
	d.file = f
	d.pageID = id
	d.valid = true
	d.pinCount = 1
	d.refBit = true
	d.dirty = false
}
