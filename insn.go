package sigpatch

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/arch/x86/x86asm"
)

const (
	opNop       = 0x90
	opCallRel32 = 0xe8
	opJmpRel32  = 0xe9

	// maxInstLen is the longest legal x86 instruction.
	maxInstLen = 15
)

// ArchMode returns the x86 decoding mode of the running program.
func ArchMode() int {
	switch runtime.GOARCH {
	case "386":
		return 32
	default:
		return 64
	}
}

// InstructionSpan returns the length of the shortest run of whole
// instructions at the start of code that covers at least least bytes.
func InstructionSpan(code []byte, least int, mode int) (int, error) {
	if mode != 32 && mode != 64 {
		return 0, fmt.Errorf("invalid mode %d", mode)
	}
	if len(code) < least {
		return 0, fmt.Errorf("need %d bytes, have %d", least, len(code))
	}

	curLen := 0
	for curLen < least {
		d := code[curLen:]
		if len(d) == 0 {
			return 0, errors.New("instruction runs past the end of the code")
		}

		inst, err := x86asm.Decode(d, mode)
		if err != nil || (inst.Opcode == 0 && inst.Len == 1 && inst.Prefix[0] == x86asm.Prefix(d[0])) {
			return 0, fmt.Errorf("undecodable instruction at +%#x", curLen)
		}

		curLen += inst.Len
	}

	return curLen, nil
}
