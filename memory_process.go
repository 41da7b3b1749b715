package sigpatch

import (
	"fmt"
	"os"
	"unsafe"
)

// processMemory is the address space of the current process. Reads and
// writes go straight through unsafe slices, so callers must only touch
// mapped ranges.
type processMemory struct{}

// ProcessMemory returns the memory of the current process.
func ProcessMemory() Memory {
	return processMemory{}
}

func makeSliceFromPointer(p uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), length)
}

func getPageAddr(ptr uintptr) uintptr {
	return ptr & ^(uintptr(os.Getpagesize() - 1))
}

func checkRange(addr Address, n int) error {
	if addr == 0 || n < 0 {
		return fmt.Errorf("%w: %s+%#x", ErrOutOfRange, addr, n)
	}
	if _, err := addr.Add(int64(n)); err != nil {
		return err
	}
	return nil
}

func (processMemory) View(addr Address, n int) ([]byte, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	return makeSliceFromPointer(addr.Pointer(), n), nil
}

func (m processMemory) Read(addr Address, n int) ([]byte, error) {
	v, err := m.View(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, v)
	return out, nil
}

func (processMemory) Write(addr Address, data []byte) error {
	if err := checkRange(addr, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	copy(makeSliceFromPointer(addr.Pointer(), len(data)), data)
	return nil
}
