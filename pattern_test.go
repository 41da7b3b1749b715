package sigpatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern(t *testing.T) {
	p, err := CompilePattern("8D 75 D0 B8 ?? ?? ?? ?? E8")
	require.NoError(t, err)

	assert.Equal(t, 9, p.Len())
	assert.Equal(t, Matcher{Value: 0x8d}, p.At(0))
	assert.Equal(t, Matcher{Value: 0xb8}, p.At(3))
	for i := 4; i < 8; i++ {
		assert.True(t, p.At(i).Wildcard, "position %d", i)
	}
	assert.Equal(t, Matcher{Value: 0xe8}, p.At(8))
	assert.Equal(t, "8D 75 D0 B8 ?? ?? ?? ?? E8", p.String())
	assert.Equal(t, "8D 75 D0 B8 ?? ?? ?? ?? E8", p.Source())
}

func TestCompilePatternCompactAndLowerCase(t *testing.T) {
	a, err := CompilePattern("8d75d0b8????????e8")
	require.NoError(t, err)
	b := MustCompilePattern("8D 75 D0 B8 ?? ?? ?? ?? E8")

	assert.Equal(t, b.Matchers(), a.Matchers())
	assert.Equal(t, b.String(), a.String())
}

func TestCompilePatternInvalid(t *testing.T) {
	for _, text := range []string{
		"8D7",
		"8D 7",
		"",
		"   ",
		"?A",
		"8D ?",
		"GG",
		"8D-75",
		"8 D 7 5",
		"8D7 5",
		"?? ?",
	} {
		_, err := CompilePattern(text)
		assert.ErrorIs(t, err, ErrInvalidPattern, "pattern %q", text)

		var pe *PatternError
		assert.True(t, errors.As(err, &pe), "pattern %q", text)
	}
}

func TestCompilePatternErrorPosition(t *testing.T) {
	_, err := CompilePattern("8D 75 ZZ")
	var pe *PatternError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 6, pe.Pos)
	assert.Contains(t, err.Error(), "ZZ")

	_, err = CompilePattern("8D 75\tD0B 8")
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 6, pe.Pos)
}

func TestCompilePatternMixedSpacing(t *testing.T) {
	a, err := CompilePattern(" 8D75 D0\tB8 ????\n????E8 ")
	require.NoError(t, err)
	assert.Equal(t, "8D 75 D0 B8 ?? ?? ?? ?? E8", a.String())
}

func TestMustCompilePatternPanics(t *testing.T) {
	assert.Panics(t, func() { MustCompilePattern("8D7") })
}

func TestPatternFromBytes(t *testing.T) {
	p := PatternFromBytes([]byte{0x90, 0xc3})
	assert.Equal(t, "90 C3", p.String())
	assert.True(t, p.MatchAt([]byte{0x00, 0x90, 0xc3}, 1))
	assert.False(t, p.MatchAt([]byte{0x00, 0x90, 0xc3}, 0))
	assert.False(t, p.MatchAt([]byte{0x00, 0x90, 0xc3}, 2))
}

func TestPatternMatchersIsCopy(t *testing.T) {
	p := MustCompilePattern("AA BB")
	m := p.Matchers()
	m[0].Value = 0x00
	assert.Equal(t, byte(0xaa), p.At(0).Value)
}
