//go:build windows

package sigpatch

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func windowsProt(p Protection) uint32 {
	if n, ok := p.native(); ok {
		return n
	}

	switch p.Access() {
	case ProtRead:
		return windows.PAGE_READONLY
	case ProtRead | ProtWrite, ProtWrite:
		return windows.PAGE_READWRITE
	case ProtExec:
		return windows.PAGE_EXECUTE
	case ProtRead | ProtExec:
		return windows.PAGE_EXECUTE_READ
	case ProtRWX, ProtWrite | ProtExec:
		return windows.PAGE_EXECUTE_READWRITE
	}
	return windows.PAGE_NOACCESS
}

func accessFromWindows(prot uint32) Protection {
	switch prot & 0xff {
	case windows.PAGE_READONLY:
		return ProtRead
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		return ProtRead | ProtWrite
	case windows.PAGE_EXECUTE:
		return ProtExec
	case windows.PAGE_EXECUTE_READ:
		return ProtRead | ProtExec
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		return ProtRWX
	}
	return ProtNone
}

// Protect wraps VirtualProtect. The previous value is kept verbatim so that
// modifiers such as PAGE_GUARD survive a restore.
func (processMemory) Protect(addr Address, n int, prot Protection) (Protection, error) {
	if err := checkRange(addr, n); err != nil {
		return ProtNone, err
	}
	if n == 0 {
		return ProtNone, fmt.Errorf("%w: empty protect range at %s", ErrOutOfRange, addr)
	}

	var old uint32
	if err := windows.VirtualProtect(addr.Pointer(), uintptr(n), windowsProt(prot), &old); err != nil {
		return ProtNone, fmt.Errorf("VirtualProtect %s: %w", addr, err)
	}
	return withNative(accessFromWindows(old), old), nil
}
