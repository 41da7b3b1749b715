package sigpatch

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// PatchByte is one position of a patch: a byte value, or Skip.
type PatchByte int16

// Skip leaves the byte at its position unmodified.
const Skip PatchByte = -1

// Bytes turns a plain byte slice into a patch that overwrites every byte.
func Bytes(b []byte) []PatchByte {
	out := make([]PatchByte, len(b))
	for i, v := range b {
		out[i] = PatchByte(v)
	}
	return out
}

// ParsePatch reads a patch in pattern syntax, "??" standing for Skip:
// "E9 ?? ?? ?? ?? 90".
func ParsePatch(text string) ([]PatchByte, error) {
	p, err := CompilePattern(text)
	if err != nil {
		return nil, err
	}

	out := make([]PatchByte, p.Len())
	for i := range out {
		if m := p.At(i); m.Wildcard {
			out[i] = Skip
		} else {
			out[i] = PatchByte(m.Value)
		}
	}
	return out, nil
}

// Patcher writes to memory that may be mapped read-only, making the pages
// writable for the duration of each write.
type Patcher struct {
	mem      Memory
	pageSize int
}

func NewPatcher(mem Memory) *Patcher {
	return &Patcher{mem: mem, pageSize: os.Getpagesize()}
}

func (p *Patcher) Memory() Memory {
	return p.mem
}

type pageChunk struct {
	addr Address
	n    int
}

func pageChunks(addr Address, n int, pageSize int) []pageChunk {
	var chunks []pageChunk
	for n > 0 {
		next := (uint64(addr)/uint64(pageSize) + 1) * uint64(pageSize)
		size := n
		if span := next - uint64(addr); span < uint64(n) {
			size = int(span)
		}
		chunks = append(chunks, pageChunk{addr: addr, n: size})
		addr += Address(size)
		n -= size
	}
	return chunks
}

// withWritable makes [addr, addr+n) writable and executable, runs fn, then
// puts the previous protection back page by page. A page already RWX is
// left alone. Failing to make a page writable aborts before fn runs; failing
// to restore is logged and otherwise ignored since the write already
// happened.
func (p *Patcher) withWritable(addr Address, n int, fn func() error) error {
	type change struct {
		pageChunk
		old Protection
	}

	var changes []change
	restore := func() {
		for i := len(changes) - 1; i >= 0; i-- {
			c := changes[i]
			if c.old == ProtRWX {
				continue
			}
			if _, err := p.mem.Protect(c.addr, c.n, c.old); err != nil {
				logger.WithError(err).WithFields(logrus.Fields{
					"address":    c.addr,
					"size":       c.n,
					"protection": c.old,
				}).Warn("failed to restore page protection")
			}
		}
	}

	for _, c := range pageChunks(addr, n, p.pageSize) {
		old, err := p.mem.Protect(c.addr, c.n, ProtRWX)
		if err != nil {
			restore()
			return &ProtectionError{Addr: c.addr, Size: c.n, Prot: ProtRWX, Err: err}
		}
		changes = append(changes, change{pageChunk: c, old: old})
	}
	defer restore()

	return fn()
}

// Write applies patch at addr. Positions holding Skip keep their current
// value, so a caller can replace an opcode and keep its operand.
func (p *Patcher) Write(addr Address, patch []PatchByte) error {
	touched := false
	for i, b := range patch {
		if b == Skip {
			continue
		}
		if b < 0 || b > 0xff {
			return fmt.Errorf("%w: position %d holds %d", ErrInvalidPatch, i, b)
		}
		touched = true
	}
	if !touched {
		return nil
	}
	if _, err := addr.Add(int64(len(patch))); err != nil {
		return err
	}

	err := p.withWritable(addr, len(patch), func() error {
		for start := 0; start < len(patch); {
			if patch[start] == Skip {
				start++
				continue
			}
			end := start
			for end < len(patch) && patch[end] != Skip {
				end++
			}

			run := make([]byte, end-start)
			for i := range run {
				run[i] = byte(patch[start+i])
			}
			if err := p.mem.Write(addr+Address(start), run); err != nil {
				return err
			}
			start = end
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"address": addr, "size": len(patch)}).Debug("patched")
	return nil
}

// WriteBytes overwrites len(data) bytes at addr.
func (p *Patcher) WriteBytes(addr Address, data []byte) error {
	return p.Write(addr, Bytes(data))
}

// FillNops overwrites n bytes at addr with single byte no-ops.
func (p *Patcher) FillNops(addr Address, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative nop count %d", ErrOutOfRange, n)
	}
	return p.WriteBytes(addr, bytes.Repeat([]byte{opNop}, n))
}

// WriteJump replaces the instructions at from with "jmp rel32" to to. The
// tail of the last overwritten instruction is filled with no-ops. It returns
// the number of bytes written.
func (p *Patcher) WriteJump(from, to Address) (int, error) {
	return p.writeBranch(opJmpRel32, from, to)
}

// WriteCall is WriteJump with "call rel32".
func (p *Patcher) WriteCall(from, to Address) (int, error) {
	return p.writeBranch(opCallRel32, from, to)
}

func (p *Patcher) writeBranch(opcode byte, from, to Address) (int, error) {
	code, err := EncodeRel32([]byte{opcode}, from, to)
	if err != nil {
		return 0, err
	}

	window, err := p.readWindow(from, len(code)-1+maxInstLen)
	if err != nil {
		return 0, err
	}
	span, err := InstructionSpan(window, len(code), ArchMode())
	if err != nil {
		return 0, fmt.Errorf("branch at %s: %w", from, err)
	}

	padded := append(code, bytes.Repeat([]byte{opNop}, span-len(code))...)
	if err := p.WriteBytes(from, padded); err != nil {
		return 0, err
	}
	return span, nil
}

// readWindow reads up to n bytes at addr, settling for fewer when the end of
// readable memory comes first.
func (p *Patcher) readWindow(addr Address, n int) ([]byte, error) {
	var err error
	for ; n > 0; n-- {
		var b []byte
		if b, err = p.mem.Read(addr, n); err == nil {
			return b, nil
		}
	}
	return nil, err
}
