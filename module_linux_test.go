//go:build linux

package sigpatch

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleFromMaps(t *testing.T) {
	maps, err := fixtureMaps(t, sampleMaps)
	require.NoError(t, err)

	mod, err := moduleFromMaps(maps, "host")
	require.NoError(t, err)
	assert.Equal(t, "host", mod.Name)
	assert.Equal(t, "/opt/game/bin/host", mod.Path)
	assert.Equal(t, Address(0x400000), mod.Base)
	assert.Equal(t, uint64(0xa2000), mod.Size)
	assert.Len(t, mod.Regions, 4)

	mod, err = moduleFromMaps(maps, "/usr/lib/libc.so.6")
	require.NoError(t, err)
	assert.Equal(t, "libc.so.6", mod.Name)
	assert.Equal(t, uint64(0x20000), mod.Size)

	_, err = moduleFromMaps(maps, "[heap]")
	require.NoError(t, err)

	_, err = moduleFromMaps(maps, "missing.so")
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestHostModuleContainsCode(t *testing.T) {
	mod, err := HostModule("")
	require.NoError(t, err)

	fn := Address(reflect.ValueOf(TestHostModuleContainsCode).Pointer())
	assert.True(t, mod.Contains(fn), "%s does not contain %s", mod, fn)
	assert.NotEmpty(t, mod.readable())
}
