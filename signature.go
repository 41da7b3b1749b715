package sigpatch

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Signature is a named location in the host module, found once by pattern
// scanning, together with the bytes it held before anything was patched.
type Signature struct {
	name     string
	address  Address
	original []byte
}

// NewSignature scans mod for def's pattern and resolves the signature. The
// def.PatchLen bytes at the resolved address are saved before returning.
func NewSignature(mem Memory, mod Module, def Definition) (*Signature, error) {
	p, err := CompilePattern(def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("signature %q: %w", def.Name, err)
	}
	if def.PatchLen < 0 {
		return nil, fmt.Errorf("%w: signature %q has negative patch length", ErrInvalidCatalog, def.Name)
	}

	match, ok, err := ScanModule(mem, mod, p, def.Occurrence)
	if err != nil {
		return nil, fmt.Errorf("signature %q: scan %s: %w", def.Name, mod, err)
	}
	if !ok {
		return nil, &NotFoundError{Name: def.Name, Pattern: def.Pattern, Occurrence: def.Occurrence}
	}

	addr, err := match.Offset(def.Offset)
	if err != nil {
		return nil, fmt.Errorf("signature %q: %w", def.Name, err)
	}

	if def.PatchLen > 0 && !mod.covers(addr, def.PatchLen) {
		return nil, fmt.Errorf("%w: signature %q: %s+%#x is not readable in %s", ErrOutOfRange, def.Name, addr, def.PatchLen, mod)
	}

	original, err := mem.Read(addr, def.PatchLen)
	if err != nil {
		return nil, fmt.Errorf("signature %q: save original bytes: %w", def.Name, err)
	}

	logger.WithFields(logrus.Fields{
		"signature": def.Name,
		"address":   addr,
		"size":      def.PatchLen,
	}).Debug("signature resolved")

	return &Signature{name: def.Name, address: addr, original: original}, nil
}

func (s *Signature) Name() string {
	return s.name
}

func (s *Signature) Address() Address {
	return s.address
}

// Original returns a copy of the bytes saved at construction.
func (s *Signature) Original() []byte {
	b := make([]byte, len(s.original))
	copy(b, s.original)
	return b
}

// PatchLen is the number of bytes the signature may patch and restores.
func (s *Signature) PatchLen() int {
	return len(s.original)
}

// Restore writes the saved bytes back over the whole patch span.
func (s *Signature) Restore(p *Patcher) error {
	if len(s.original) == 0 {
		return nil
	}
	if err := p.WriteBytes(s.address, s.original); err != nil {
		return fmt.Errorf("restore %q: %w", s.name, err)
	}
	return nil
}

// Follow treats the signature address as a rel32 field and returns the
// address it points to.
func (s *Signature) Follow(mem Memory) (Address, error) {
	return Follow(mem, s.address)
}

func (s *Signature) String() string {
	return fmt.Sprintf("%s@%s", s.name, s.address)
}
