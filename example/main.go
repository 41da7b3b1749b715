//go:build linux

// Example resolves a small catalog inside an anonymous code page of the
// running process, patches the resolved sites and puts them back.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/brahma-adshonor/sigpatch"
)

// Two copies of a tiny routine: mov ecx, [rbp-0x30]; mov eax, imm32; call
// rel32; test al, al; jz +5; mov al, 1; ret.
var code = []byte{
	0x55, 0x48, 0x89, 0xe5, 0x48, 0x83, 0xec, 0x30,
	0x8d, 0x75, 0xd0, 0xb8, 0x64, 0x00, 0x00, 0x00, 0xe8, 0x10, 0x00, 0x00, 0x00,
	0x84, 0xc0, 0x74, 0x05, 0xb0, 0x01, 0xc3,
	0x90, 0x90, 0x90, 0x90,
	0x55, 0x48, 0x89, 0xe5, 0x48, 0x83, 0xec, 0x30,
	0x84, 0xc0, 0x74, 0x05, 0xb0, 0x01, 0xc3,
}

const catalog = `
- name: health_init
  pattern: "8D 75 D0 B8 ?? ?? ?? ?? E8"
  offset: 4
  patch_len: 4
- name: health_call
  pattern: "B8 ?? ?? ?? ?? E8"
  offset: 6
  patch_len: 4
- name: license_check
  pattern: "74 05 B0 01 C3"
  occurrence: 1
  patch_len: 2
`

func main() {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	sigpatch.SetLogger(log)

	if err := run(log); err != nil {
		log.WithError(err).Error("example failed")
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	page, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return err
	}
	defer unix.Munmap(page)

	copy(page, code)
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return err
	}

	base := sigpatch.Address(uintptr(unsafe.Pointer(&page[0])))
	mod := sigpatch.Module{
		Name: "anon",
		Base: base,
		Size: uint64(len(page)),
		Regions: []sigpatch.Region{
			{Start: base, End: base + sigpatch.Address(len(page)), Prot: sigpatch.ProtRead | sigpatch.ProtExec},
		},
	}

	cat, err := sigpatch.LoadCatalog(strings.NewReader(catalog))
	if err != nil {
		return err
	}

	mem := sigpatch.ProcessMemory()
	reg := sigpatch.NewRegistry(mem, mod)
	if err := reg.RegisterAll(cat); err != nil {
		return err
	}
	for _, sig := range reg.Signatures() {
		fmt.Printf("%-14s %s  +%#x  %s\n", sig.Name(), sig.Address(), uint64(sig.Address()-base), hex.EncodeToString(sig.Original()))
	}

	target, err := reg.MustSignature("health_call").Follow(mem)
	if err != nil {
		return err
	}
	fmt.Printf("health_call lands at %s\n", target)

	p := sigpatch.NewPatcher(mem)
	if err := p.WriteBytes(reg.MustAddress("health_init"), []byte{0xe7, 0x03, 0x00, 0x00}); err != nil {
		return err
	}
	if err := p.FillNops(reg.MustAddress("license_check"), 2); err != nil {
		return err
	}
	entry, err := mem.Read(base, 32)
	if err != nil {
		return err
	}
	n, err := p.WriteJump(base, target)
	if err != nil {
		return err
	}
	log.WithField("len", n).Info("entry redirected")
	fmt.Printf("patched:  %s\n", hex.EncodeToString(page[:len(code)]))

	if err := reg.RestoreAll(p); err != nil {
		return err
	}
	if err := p.WriteBytes(base, entry[:n]); err != nil {
		return err
	}
	fmt.Printf("restored: %s\n", hex.EncodeToString(page[:len(code)]))
	return nil
}
