package sigpatch

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrAddressOverflow   = errors.New("address arithmetic overflow")
	ErrDisplacementRange = errors.New("displacement does not fit in 32 bits")
	ErrOutOfRange        = errors.New("address out of range")
	ErrModuleNotFound    = errors.New("module not found")
	ErrUnsupported       = errors.New("not supported on this platform")
	ErrInvalidCatalog    = errors.New("invalid catalog")
)

// PatternError describes where a textual pattern is malformed.
type PatternError struct {
	Pattern string
	Pos     int
	Reason  string
}

func (e *PatternError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
	}
	return fmt.Sprintf("invalid pattern %q at %d: %s", e.Pattern, e.Pos, e.Reason)
}

func (e *PatternError) Unwrap() error { return ErrInvalidPattern }

// NotFoundError is returned when a signature's pattern has fewer matches
// than its occurrence index asks for. It usually means the host binary is a
// build the catalog does not know.
type NotFoundError struct {
	Name       string
	Pattern    string
	Occurrence int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("signature %q not found (pattern %q, occurrence %d)", e.Name, e.Pattern, e.Occurrence)
}

func (e *NotFoundError) Unwrap() error { return ErrSignatureNotFound }

// ProtectionError reports a failed page protection change.
type ProtectionError struct {
	Addr Address
	Size int
	Prot Protection
	Err  error
}

func (e *ProtectionError) Error() string {
	return fmt.Sprintf("protect %s+%#x as %s: %v", e.Addr, e.Size, e.Prot, e.Err)
}

func (e *ProtectionError) Unwrap() error { return e.Err }

// ErrInvalidPatch is returned for patch bytes outside 0..255 that are not Skip.
var ErrInvalidPatch = errors.New("invalid patch byte")
