package transcript

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPeerDeclaration   = errors.New(`missing peer declaration: no "created peers peer1=<id> peer2=<id>" line in log`)
	ErrMissingProjectIdentifier = errors.New(`missing project identifier: no project_id="<id>" in log`)
	ErrMalformedFetchspec       = errors.New("malformed fetchspec entry")
)

// MalformedFetchspecError reports a fetcher line whose ref list could not be
// split into from:to pairs. It unwraps to ErrMalformedFetchspec.
type MalformedFetchspecError struct {
	LineNo int // 1-based; zero when the line was expanded on its own
	Entry  string
	Reason string
}

func (e *MalformedFetchspecError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("%v on line %d: %s: %q", ErrMalformedFetchspec, e.LineNo, e.Reason, e.Entry)
	}
	return fmt.Sprintf("%v: %s: %q", ErrMalformedFetchspec, e.Reason, e.Entry)
}

func (e *MalformedFetchspecError) Unwrap() error {
	return ErrMalformedFetchspec
}

// IsFormatError reports whether err means the log itself does not have the
// expected shape, as opposed to an I/O or storage failure.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrMissingPeerDeclaration) ||
		errors.Is(err, ErrMissingProjectIdentifier) ||
		errors.Is(err, ErrMalformedFetchspec)
}
