package buffer

import "errors"

// ErrBufferExceeded is returned by an operation that needs a free frame
// when a full clock sweep finds every frame pinned. The requesting
// operation has no effect.
var ErrBufferExceeded = errors.New("buffer: no unpinned frame available")

// ErrPageNotPinned is returned by UnpinPage when the target frame's
// pin count is already zero.
var ErrPageNotPinned = errors.New("buffer: page is not pinned")

// ErrPagePinned is returned by FlushFile when it encounters a pinned frame
// belonging to the file being flushed.
var ErrPagePinned = errors.New("buffer: cannot flush a pinned page")

// ErrBadBuffer is returned by FlushFile when it finds a frame tagged with
// the file being flushed but marked invalid. This indicates the frame
// table and hash index have diverged and should never happen in a correct
// program.
var ErrBadBuffer = errors.New("buffer: frame tagged with file is not valid")
