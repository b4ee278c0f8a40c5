package list

import "github.com/dacapoday/btindex"

var (
	ErrInvalidArgument = btindex.ErrInvalidArgument
	ErrOutOfRange      = btindex.ErrOutOfRange
	ErrCorrupted       = btindex.ErrCorrupted
)

var corruptedf = btindex.Corruptedf
