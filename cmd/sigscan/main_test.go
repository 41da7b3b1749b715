package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brahma-adshonor/sigpatch"
)

const testCatalog = `
- name: health
  pattern: "8D 75 D0 B8 ?? ?? ?? ?? E8"
  offset: 4
  patch_len: 4
- name: ret
  pattern: "C3"
  occurrence: 1
`

func writeFixtures(t *testing.T) (catalog, image string) {
	t.Helper()

	dir := t.TempDir()
	catalog = filepath.Join(dir, "sigs.yaml")
	image = filepath.Join(dir, "dump.bin")

	code := []byte{
		0x55, 0x8d, 0x75, 0xd0, 0xb8, 0x64, 0x00, 0x00, 0x00, 0xe8, 0xc3, 0x00,
		0xc3, 0x90,
	}
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalog), 0o644))
	require.NoError(t, os.WriteFile(image, code, 0o644))
	return catalog, image
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { sigpatch.SetLogger(nil) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd(logrus.New())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScan(t *testing.T) {
	catalog, image := writeFixtures(t)

	out, err := run(t, "scan", "--catalog", catalog, "--image", image, "--base", "0x400000")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `health\s+0x400005\s+0x5\s+-\s+64000000`, out)
	assert.Regexp(t, `ret\s+0x40000c\s+0xc`, out)
}

func TestScanAll(t *testing.T) {
	catalog, image := writeFixtures(t)

	out, err := run(t, "scan", "--catalog", catalog, "--image", image, "--base", "0x1000", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "ret: 2 matches\n  [0] 0x100a\n  [1] 0x100c\n")
	assert.Contains(t, out, "health: 1 matches\n")
}

func TestScanUnsupportedBuild(t *testing.T) {
	_, image := writeFixtures(t)
	catalog := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("- {name: gone, pattern: \"DE AD BE EF\"}\n"), 0o644))

	_, err := run(t, "scan", "--catalog", catalog, "--image", image)
	require.Error(t, err)
	assert.ErrorIs(t, err, sigpatch.ErrSignatureNotFound)
	assert.Contains(t, err.Error(), "does not look like a supported build")
}

func TestScanRequiresFlags(t *testing.T) {
	_, err := run(t, "scan")
	assert.Error(t, err)

	catalog, image := writeFixtures(t)
	_, err = run(t, "scan", "--catalog", catalog, "--image", image, "--base", "nope")
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	out, err := run(t, "compile", "8d75d0b8????????e8", "c3")
	require.NoError(t, err)
	assert.Equal(t, "8D 75 D0 B8 ?? ?? ?? ?? E8\t(9 bytes)\nC3\t(1 bytes)\n", out)

	_, err = run(t, "compile", "8D7")
	assert.ErrorIs(t, err, sigpatch.ErrInvalidPattern)
}

func TestLogLevelFlag(t *testing.T) {
	_, err := run(t, "--log-level", "verbose", "compile", "90")
	assert.Error(t, err)
}
