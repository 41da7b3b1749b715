//go:build linux

package sigpatch

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func unixProt(p Protection) int {
	prot := unix.PROT_NONE
	if p&ProtRead != 0 {
		prot |= unix.PROT_READ
	}
	if p&ProtWrite != 0 {
		prot |= unix.PROT_WRITE
	}
	if p&ProtExec != 0 {
		prot |= unix.PROT_EXEC
	}
	return prot
}

func setPageProtection(addr uintptr, length int, prot int) error {
	pageSize := unix.Getpagesize()
	for p := getPageAddr(addr); p < addr+uintptr(length); p += uintptr(pageSize) {
		page := makeSliceFromPointer(p, pageSize)
		if err := unix.Mprotect(page, prot); err != nil {
			return fmt.Errorf("mprotect %#x: %w", p, err)
		}
	}
	return nil
}

// Protect changes the protection of every page covering [addr, addr+n).
// mprotect does not report the previous flags, so they are looked up in
// /proc/self/maps first.
func (processMemory) Protect(addr Address, n int, prot Protection) (Protection, error) {
	if err := checkRange(addr, n); err != nil {
		return ProtNone, err
	}
	if n == 0 {
		return ProtNone, fmt.Errorf("%w: empty protect range at %s", ErrOutOfRange, addr)
	}

	maps, err := selfMaps()
	if err != nil {
		return ProtNone, err
	}
	old, ok := protectionAt(maps, addr)
	if !ok {
		return ProtNone, fmt.Errorf("%w: %s is not mapped", ErrOutOfRange, addr)
	}

	if err := setPageProtection(addr.Pointer(), n, unixProt(prot.Access())); err != nil {
		return old, err
	}
	return old, nil
}
