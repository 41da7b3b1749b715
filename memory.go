package sigpatch

import (
	"strconv"
	"strings"
)

// Protection is a set of page access rights. Platforms whose protection
// values carry more than read/write/execute keep their raw value in the bits
// above the access bits, so a saved protection can be restored exactly.
type Protection uint32

const (
	ProtRead Protection = 1 << iota
	ProtWrite
	ProtExec

	ProtNone Protection = 0
	ProtRWX             = ProtRead | ProtWrite | ProtExec
)

const nativeShift = 8

func withNative(access Protection, native uint32) Protection {
	return access&ProtRWX | Protection(native)<<nativeShift
}

func (p Protection) native() (uint32, bool) {
	n := uint32(p >> nativeShift)
	return n, n != 0
}

// Access strips platform specific bits.
func (p Protection) Access() Protection {
	return p & ProtRWX
}

func (p Protection) String() string {
	var sb strings.Builder
	for _, f := range []struct {
		bit Protection
		c   byte
	}{{ProtRead, 'r'}, {ProtWrite, 'w'}, {ProtExec, 'x'}} {
		if p&f.bit != 0 {
			sb.WriteByte(f.c)
		} else {
			sb.WriteByte('-')
		}
	}
	if n, ok := p.native(); ok {
		sb.WriteString("(0x")
		sb.WriteString(strconv.FormatUint(uint64(n), 16))
		sb.WriteByte(')')
	}
	return sb.String()
}

// Memory is the address space signatures are resolved and patched in.
//
// Write does not change page protection; the Patcher wraps it with Protect.
// Protect returns the protection that was in effect before the call, as seen
// on the first page of the range.
type Memory interface {
	Read(addr Address, n int) ([]byte, error)
	Write(addr Address, data []byte) error
	Protect(addr Address, n int, prot Protection) (Protection, error)
}

// Viewer is implemented by memories that can expose a range without copying.
// The returned slice aliases live memory and must not be retained.
type Viewer interface {
	View(addr Address, n int) ([]byte, error)
}

// view returns a read-only window over [addr, addr+n), copying only when the
// memory cannot alias.
func view(mem Memory, addr Address, n int) ([]byte, error) {
	if v, ok := mem.(Viewer); ok {
		return v.View(addr, n)
	}
	return mem.Read(addr, n)
}

// Region is a readable address range.
type Region struct {
	Start Address
	End   Address
	Prot  Protection
}

// Size is the byte length of the region.
func (r Region) Size() uint64 {
	return uint64(r.End - r.Start)
}

// Contains reports whether addr lies in the region.
func (r Region) Contains(addr Address) bool {
	return addr >= r.Start && addr < r.End
}
