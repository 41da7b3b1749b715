package sigpatch

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Rel32Size is the width of a relative displacement field.
const Rel32Size = 4

// Displacement returns the signed distance dest-origin as it is stored in a
// rel32 operand. origin is the address right after the displacement field,
// which is where the CPU measures from.
func Displacement(origin, dest Address) (int32, error) {
	d, err := dest.Sub(origin)
	if err != nil {
		return 0, fmt.Errorf("%w: %s -> %s", ErrDisplacementRange, origin, dest)
	}
	if d < math.MinInt32 || d > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s -> %s is %#x", ErrDisplacementRange, origin, dest, d)
	}
	return int32(d), nil
}

// Follow reads the rel32 field at field and returns the absolute address it
// refers to: field + 4 + displacement.
func Follow(mem Memory, field Address) (Address, error) {
	raw, err := mem.Read(field, Rel32Size)
	if err != nil {
		return 0, err
	}

	d := int32(binary.LittleEndian.Uint32(raw))
	next, err := field.Add(Rel32Size)
	if err != nil {
		return 0, err
	}
	return next.Add(int64(d))
}

// PutRel32 stores d little endian in b[:4].
func PutRel32(b []byte, d int32) {
	binary.LittleEndian.PutUint32(b, uint32(d))
}

// EncodeRel32 builds opcode followed by a rel32 operand that makes an
// instruction placed at at refer to dest.
func EncodeRel32(opcode []byte, at, dest Address) ([]byte, error) {
	end, err := at.Add(int64(len(opcode) + Rel32Size))
	if err != nil {
		return nil, err
	}
	d, err := Displacement(end, dest)
	if err != nil {
		return nil, err
	}

	code := make([]byte, len(opcode)+Rel32Size)
	copy(code, opcode)
	PutRel32(code[len(opcode):], d)
	return code, nil
}
