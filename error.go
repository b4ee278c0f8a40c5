package btindex

import "github.com/cockroachdb/errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupported     = errors.New("unsupported")
	ErrCorrupted       = errors.New("corruption detected")
	ErrAlreadyLinked   = errors.New("already linked")
	ErrOutOfRange      = errors.New("out of range")
	ErrNotFound        = errors.New("not found")
	ErrRemoved         = errors.New("removed")
	ErrStale           = errors.New("stale handle")
)

// Corruptedf reports an internal bookkeeping mismatch. The returned error
// wraps ErrCorrupted and carries an assertion failure.
func Corruptedf(format string, args ...any) error {
	return errors.WithAssertionFailure(errors.Wrapf(ErrCorrupted, format, args...))
}
