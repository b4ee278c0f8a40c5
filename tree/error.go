package tree

import "github.com/dacapoday/btindex"

var (
	ErrInvalidArgument = btindex.ErrInvalidArgument
	ErrAlreadyLinked   = btindex.ErrAlreadyLinked
	ErrOutOfRange      = btindex.ErrOutOfRange
	ErrCorrupted       = btindex.ErrCorrupted
)

var corruptedf = btindex.Corruptedf
