package buffer

import (
	"log"

	"clockpool/hashindex"
)

// Option configures a Pool at construction time. Mirrors the teacher's own
// pattern of a plain constructor plus a variant taking extra collaborators
// (NewBufferPool vs. NewBufferPoolWithDM), expressed here as functional
// options rather than a second constructor per combination.
type Option func(*options)

type options struct {
	logger         *log.Logger
	hashLoadFactor float64
}

func defaultOptions() options {
	return options{
		logger:         log.Default(),
		hashLoadFactor: hashindex.DefaultLoadFactor,
	}
}

// WithLogger overrides the *log.Logger a Pool uses for diagnostic and
// lifecycle messages. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHashLoadFactor overrides the bucket-count multiplier used to size the
// pool's hash index. Defaults to hashindex.DefaultLoadFactor.
func WithHashLoadFactor(f float64) Option {
	return func(o *options) { o.hashLoadFactor = f }
}
