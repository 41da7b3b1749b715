package sigpatch

import (
	"bytes"
	"debug/elf"
	"debug/pe"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Image is a Memory backed by a byte buffer mapped at Base. It stands in for
// a loaded module when resolving a catalog offline and in tests.
type Image struct {
	Name string
	Base Address
	data []byte
	prot Protection
	syms SymbolTable
}

// NewImage maps data at base. The buffer is used as is, not copied.
func NewImage(name string, base Address, data []byte) *Image {
	return &Image{Name: name, Base: base, data: data, prot: ProtRead | ProtExec}
}

// Bytes returns the backing buffer.
func (im *Image) Bytes() []byte {
	return im.data
}

// Size is the number of mapped bytes.
func (im *Image) Size() int {
	return len(im.data)
}

// Protection reports the current protection of the image.
func (im *Image) Protection() Protection {
	return im.prot
}

// Symbols returns the image's symbol table, empty unless it was loaded from
// an ELF file that carries one.
func (im *Image) Symbols() SymbolTable {
	return im.syms
}

// Module describes the image as a loaded module.
func (im *Image) Module() Module {
	end := im.Base + Address(len(im.data))
	return Module{
		Name:    im.Name,
		Path:    im.Name,
		Base:    im.Base,
		Size:    uint64(len(im.data)),
		Regions: []Region{{Start: im.Base, End: end, Prot: im.prot}},
	}
}

func (im *Image) offset(addr Address, n int) (int, error) {
	if n < 0 || addr < im.Base {
		return 0, fmt.Errorf("%w: %s+%#x outside image %s", ErrOutOfRange, addr, n, im.Name)
	}
	off := uint64(addr - im.Base)
	if off > uint64(len(im.data)) || uint64(n) > uint64(len(im.data))-off {
		return 0, fmt.Errorf("%w: %s+%#x outside image %s", ErrOutOfRange, addr, n, im.Name)
	}
	return int(off), nil
}

func (im *Image) View(addr Address, n int) ([]byte, error) {
	off, err := im.offset(addr, n)
	if err != nil {
		return nil, err
	}
	return im.data[off : off+n], nil
}

func (im *Image) Read(addr Address, n int) ([]byte, error) {
	v, err := im.View(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, v)
	return out, nil
}

// Write fails unless the image is currently writable, mirroring a real page.
func (im *Image) Write(addr Address, data []byte) error {
	off, err := im.offset(addr, len(data))
	if err != nil {
		return err
	}
	if im.prot&ProtWrite == 0 {
		return fmt.Errorf("write %s: image %s is %s", addr, im.Name, im.prot)
	}
	copy(im.data[off:], data)
	return nil
}

// Protect applies prot to the whole image.
func (im *Image) Protect(addr Address, n int, prot Protection) (Protection, error) {
	if _, err := im.offset(addr, n); err != nil {
		return ProtNone, err
	}
	old := im.prot
	im.prot = prot
	return old, nil
}

// LoadImage reads an executable and lays it out as it would be mapped. ELF
// and PE files are placed segment by segment; anything else is mapped as raw
// bytes. A zero base selects the file's preferred load address.
func LoadImage(path string, base Address) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	switch {
	case bytes.HasPrefix(raw, []byte(elf.ELFMAG)):
		return loadELF(name, raw, base)
	case bytes.HasPrefix(raw, []byte("MZ")):
		im, err := loadPE(name, raw, base)
		if err == nil {
			return im, nil
		}
		logger.WithError(err).WithField("image", name).Debug("not a PE file, mapping raw bytes")
	}

	return NewImage(name, base, raw), nil
}

func loadELF(name string, raw []byte, base Address) (*Image, error) {
	f, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var loads []*elf.Prog
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Memsz == 0 {
			continue
		}
		if p.Filesz > p.Memsz {
			return nil, fmt.Errorf("segment at %#x holds %d file bytes in %d memory bytes", p.Vaddr, p.Filesz, p.Memsz)
		}
		if p.Vaddr+p.Memsz < p.Vaddr {
			return nil, fmt.Errorf("segment at %#x wraps the address space", p.Vaddr)
		}
		loads = append(loads, p)
	}
	if len(loads) == 0 {
		return nil, errors.New("elf has no loadable segments")
	}

	low, high := loads[0].Vaddr, loads[0].Vaddr+loads[0].Memsz
	for _, p := range loads[1:] {
		if p.Vaddr < low {
			low = p.Vaddr
		}
		if end := p.Vaddr + p.Memsz; end > high {
			high = end
		}
	}
	if high-low > 1<<32 {
		return nil, fmt.Errorf("elf image spans %#x bytes", high-low)
	}

	data := make([]byte, high-low)
	for _, p := range loads {
		n, err := p.ReadAt(data[p.Vaddr-low:p.Vaddr-low+p.Filesz], 0)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read segment at %#x: %w", p.Vaddr, err)
		}
		if uint64(n) != p.Filesz {
			return nil, fmt.Errorf("short segment at %#x: %d of %d bytes", p.Vaddr, n, p.Filesz)
		}
	}

	if base == 0 {
		base = Address(low)
	}
	im := NewImage(name, base, data)
	im.syms = elfSymbols(f, uint64(base)-low)
	return im, nil
}

func loadPE(name string, raw []byte, base Address) (*Image, error) {
	f, err := pe.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var imageBase uint64
	var sizeOfImage, sizeOfHeaders uint32
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		imageBase, sizeOfImage, sizeOfHeaders = uint64(oh.ImageBase), oh.SizeOfImage, oh.SizeOfHeaders
	case *pe.OptionalHeader64:
		imageBase, sizeOfImage, sizeOfHeaders = oh.ImageBase, oh.SizeOfImage, oh.SizeOfHeaders
	default:
		return nil, errors.New("pe file has no optional header")
	}

	data := make([]byte, sizeOfImage)
	copy(data, raw[:min(int(sizeOfHeaders), len(raw), len(data))])
	for _, s := range f.Sections {
		if s.VirtualAddress >= sizeOfImage {
			continue
		}
		sd, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("read section %s: %w", s.Name, err)
		}
		limit := s.VirtualSize
		if limit == 0 || limit > uint32(len(sd)) {
			limit = uint32(len(sd))
		}
		copy(data[s.VirtualAddress:], sd[:limit])
	}

	if base == 0 {
		base = Address(imageBase)
	}
	return NewImage(name, base, data), nil
}
