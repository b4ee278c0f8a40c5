package btree

import "github.com/dacapoday/btindex"

var (
	ErrInvalidArgument = btindex.ErrInvalidArgument
	ErrUnsupported     = btindex.ErrUnsupported
	ErrCorrupted       = btindex.ErrCorrupted
	ErrOutOfRange      = btindex.ErrOutOfRange
	ErrNotFound        = btindex.ErrNotFound
	ErrRemoved         = btindex.ErrRemoved
	ErrStale           = btindex.ErrStale
)

var corruptedf = btindex.Corruptedf
