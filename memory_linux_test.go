//go:build linux

package sigpatch

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// mapPages returns n fresh read-only anonymous pages.
func mapPages(t *testing.T, n int, fill []byte) []byte {
	t.Helper()

	size := n * unix.Getpagesize()
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	require.NoError(t, err)
	t.Cleanup(func() { unix.Munmap(mem) })

	copy(mem, fill)
	require.NoError(t, unix.Mprotect(mem, unix.PROT_READ))
	return mem
}

func addressOf(b []byte) Address {
	return Address(uintptr(unsafe.Pointer(&b[0])))
}

func currentProt(t *testing.T, addr Address) Protection {
	t.Helper()

	maps, err := selfMaps()
	require.NoError(t, err)
	prot, ok := protectionAt(maps, addr)
	require.True(t, ok)
	return prot
}

func TestProcessMemoryProtect(t *testing.T) {
	mem := mapPages(t, 1, nil)
	addr := addressOf(mem)
	pm := ProcessMemory()

	old, err := pm.Protect(addr, 16, ProtRead|ProtWrite)
	require.NoError(t, err)
	assert.Equal(t, ProtRead, old)
	assert.Equal(t, ProtRead|ProtWrite, currentProt(t, addr))

	old, err = pm.Protect(addr, 16, ProtRead)
	require.NoError(t, err)
	assert.Equal(t, ProtRead|ProtWrite, old)

	_, err = pm.Protect(addr, 0, ProtRead)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = pm.Protect(0, 1, ProtRead)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestProcessMemoryPatchRestoresProtection(t *testing.T) {
	pageSize := unix.Getpagesize()
	mem := mapPages(t, 2, nil)
	addr := addressOf(mem)
	p := NewPatcher(ProcessMemory())

	// straddles the page boundary
	at := addr + Address(pageSize-2)
	require.NoError(t, p.WriteBytes(at, []byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, mem[pageSize-2:pageSize+2])

	assert.Equal(t, ProtRead, currentProt(t, addr))
	assert.Equal(t, ProtRead, currentProt(t, addr+Address(pageSize)))
}

func TestProcessMemoryRegistry(t *testing.T) {
	code := []byte{
		0x00, 0x00, 0x8d, 0x75, 0xd0, 0xb8, 0x64, 0x00, 0x00, 0x00, 0xe8, 0x00,
	}
	mem := mapPages(t, 1, code)
	addr := addressOf(mem)
	mod := Module{
		Name:    "anon",
		Base:    addr,
		Size:    uint64(len(mem)),
		Regions: []Region{{Start: addr, End: addr + Address(len(mem)), Prot: ProtRead}},
	}

	reg := NewRegistry(ProcessMemory(), mod)
	require.NoError(t, reg.RegisterAll(Catalog{
		{Name: "health", Pattern: "8D 75 D0 B8 ?? ?? ?? ?? E8", Offset: 4, PatchLen: 4},
	}))

	sig := reg.MustSignature("health")
	assert.Equal(t, addr+6, sig.Address())
	assert.Equal(t, []byte{0x64, 0, 0, 0}, sig.Original())

	p := NewPatcher(ProcessMemory())
	require.NoError(t, p.WriteBytes(sig.Address(), []byte{0xff, 0xff, 0, 0}))
	assert.Equal(t, []byte{0xff, 0xff, 0, 0}, mem[6:10])

	require.NoError(t, reg.RestoreAll(p))
	assert.Equal(t, code, mem[:len(code)])
	assert.Equal(t, ProtRead, currentProt(t, addr))
}

func TestNewSignatureStopsAtGuardPage(t *testing.T) {
	pageSize := unix.Getpagesize()
	mem := mapPages(t, 2, nil)
	require.NoError(t, unix.Mprotect(mem[:pageSize], unix.PROT_READ|unix.PROT_WRITE))
	copy(mem[pageSize-4:], []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, unix.Mprotect(mem[:pageSize], unix.PROT_READ))
	require.NoError(t, unix.Mprotect(mem[pageSize:], unix.PROT_NONE))

	addr := addressOf(mem)
	mod := Module{
		Name:    "anon",
		Base:    addr,
		Size:    uint64(len(mem)),
		Regions: []Region{{Start: addr, End: addr + Address(pageSize), Prot: ProtRead}},
	}

	_, err := NewSignature(ProcessMemory(), mod, Definition{Name: "edge", Pattern: "DE AD BE EF", Offset: 2, PatchLen: 8})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), `"edge"`)

	sig, err := NewSignature(ProcessMemory(), mod, Definition{Name: "edge", Pattern: "DE AD BE EF", Offset: 2, PatchLen: 2})
	require.NoError(t, err)
	assert.Equal(t, addr+Address(pageSize-2), sig.Address())
	assert.Equal(t, []byte{0xbe, 0xef}, sig.Original())
}
