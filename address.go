package sigpatch

import (
	"fmt"
	"math"
)

// Address is an absolute location in a process address space.
type Address uint64

// Add returns a+delta, failing instead of wrapping around.
func (a Address) Add(delta int64) (Address, error) {
	if delta >= 0 {
		if uint64(delta) > math.MaxUint64-uint64(a) {
			return 0, fmt.Errorf("%w: %s + %#x", ErrAddressOverflow, a, delta)
		}
		return a + Address(delta), nil
	}

	d := uint64(-(delta + 1)) + 1 // safe for math.MinInt64
	if d > uint64(a) {
		return 0, fmt.Errorf("%w: %s - %#x", ErrAddressOverflow, a, d)
	}
	return a - Address(d), nil
}

// Offset returns a+off. A signature offset is unsigned and at most 16 bits.
func (a Address) Offset(off uint16) (Address, error) {
	return a.Add(int64(off))
}

// Sub returns the signed distance a-b.
func (a Address) Sub(b Address) (int64, error) {
	if a >= b {
		d := uint64(a - b)
		if d > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s - %s", ErrAddressOverflow, a, b)
		}
		return int64(d), nil
	}

	d := uint64(b - a)
	if d > uint64(math.MaxInt64)+1 {
		return 0, fmt.Errorf("%w: %s - %s", ErrAddressOverflow, a, b)
	}
	return -int64(d-1) - 1, nil
}

// Pointer converts a to a uintptr. Only used where memory is dereferenced.
func (a Address) Pointer() uintptr {
	return uintptr(a)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}
