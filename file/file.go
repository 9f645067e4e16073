// Package file defines the File contract the buffer manager consumes. The
// buffer manager never owns a Handle's lifecycle or knows its on-disk
// layout; it only borrows one for the duration of callers' pins. This
// package also ships a disk-backed reference implementation (DiskFile) and
// an in-memory test double (MemFile) so the rest of the module is runnable
// and testable without a real access-method layer sitting above it.
package file

import (
	"clockpool/page"

	"github.com/google/uuid"
)

// Identity is an opaque token identifying a file across calls, stable for
// as long as any of the file's pages may be pinned. A uuid.UUID is a
// stronger, copyable stand-in for the "pointer identity is acceptable"
// token the buffer manager's contract allows.
type Identity = uuid.UUID

// Handle is the external collaborator the buffer manager reads from and
// writes to. The buffer manager uses Identity, not Go pointer equality, as
// the file component of a hash-index key.
type Handle interface {
	// ReadPage returns the current on-disk contents of id. Fails if id is
	// not valid for this file.
	ReadPage(id page.ID) (*page.Page, error)

	// WritePage durably persists p at its own page number.
	WritePage(p *page.Page) error

	// AllocatePage assigns a new, unique page number within this file and
	// returns a page for it. Both implementations in this package record
	// the new, zeroed page at once, so ReadPage succeeds on it.
	AllocatePage() (*page.Page, error)

	// DeletePage removes id from this file. Idempotent-by-contract is not
	// required; the buffer manager calls it exactly once per DisposePage.
	DeletePage(id page.ID) error

	// Filename is used solely for error reporting.
	Filename() string

	// Identity is the stable token the buffer manager uses to key its hash
	// index. Two Handle values that refer to the same underlying file must
	// return equal Identity values.
	Identity() Identity
}
