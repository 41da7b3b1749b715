package sigpatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressAdd(t *testing.T) {
	a, err := Address(0x1000).Add(0x10)
	require.NoError(t, err)
	assert.Equal(t, Address(0x1010), a)

	a, err = Address(0x1000).Add(-0x1000)
	require.NoError(t, err)
	assert.Equal(t, Address(0), a)

	_, err = Address(0x10).Add(-0x11)
	assert.ErrorIs(t, err, ErrAddressOverflow)

	_, err = Address(math.MaxUint64).Add(1)
	assert.ErrorIs(t, err, ErrAddressOverflow)

	_, err = Address(0).Add(math.MinInt64)
	assert.ErrorIs(t, err, ErrAddressOverflow)

	a, err = Address(1 << 63).Add(math.MinInt64)
	require.NoError(t, err)
	assert.Equal(t, Address(0), a)
}

func TestAddressOffset(t *testing.T) {
	a, err := Address(0x400000).Offset(4)
	require.NoError(t, err)
	assert.Equal(t, Address(0x400004), a)

	_, err = Address(math.MaxUint64 - 1).Offset(2)
	assert.ErrorIs(t, err, ErrAddressOverflow)
}

func TestAddressSub(t *testing.T) {
	d, err := Address(0x2000).Sub(0x1000)
	require.NoError(t, err)
	assert.Equal(t, int64(0x1000), d)

	d, err = Address(0x1000).Sub(0x2000)
	require.NoError(t, err)
	assert.Equal(t, int64(-0x1000), d)

	d, err = Address(0).Sub(1 << 63)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), d)

	_, err = Address(math.MaxUint64).Sub(0)
	assert.ErrorIs(t, err, ErrAddressOverflow)
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "0x7ff612340000", Address(0x7ff612340000).String())
}
