//go:build !linux && !windows

package sigpatch

func (processMemory) Protect(addr Address, n int, prot Protection) (Protection, error) {
	return ProtNone, ErrUnsupported
}
