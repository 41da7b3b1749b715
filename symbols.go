package sigpatch

import (
	"debug/elf"
	"errors"
	"fmt"
	"sort"
)

// Symbol is a named range of an image, usually a function.
type Symbol struct {
	Name string
	Addr Address
	Size uint64
}

// SymbolTable is a list of symbols sorted by address.
type SymbolTable []Symbol

func (a SymbolTable) Len() int           { return len(a) }
func (a SymbolTable) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a SymbolTable) Less(i, j int) bool { return a[i].Addr < a[j].Addr }

// elfSymbols collects the function and object symbols of f, moved by delta
// when the image is not mapped at its link address.
func elfSymbols(f *elf.File, delta uint64) SymbolTable {
	syms, err := f.Symbols()
	if err != nil {
		return nil
	}

	var t SymbolTable
	for _, s := range syms {
		typ := elf.ST_TYPE(s.Info)
		if s.Value == 0 || (typ != elf.STT_FUNC && typ != elf.STT_OBJECT) {
			continue
		}
		t = append(t, Symbol{Name: s.Name, Addr: Address(s.Value + delta), Size: s.Size})
	}
	sort.Stable(t)
	return t
}

// Lookup finds the symbol covering addr. Only the symbols starting at the
// nearest address at or below addr are considered; functions do not nest.
func (a SymbolTable) Lookup(addr Address) (Symbol, bool) {
	i := sort.Search(len(a), func(i int) bool { return a[i].Addr > addr })
	if i == 0 {
		return Symbol{}, false
	}
	start := a[i-1].Addr
	for j := i - 1; j >= 0 && a[j].Addr == start; j-- {
		if addr-start < Address(a[j].Size) {
			return a[j], true
		}
	}
	return Symbol{}, false
}

// FuncSize returns the size of the symbol starting exactly at addr.
func (a SymbolTable) FuncSize(addr Address) (uint64, error) {
	if len(a) == 0 {
		return 0, errors.New("no symbols")
	}

	i := sort.Search(len(a), func(i int) bool { return a[i].Addr >= addr })
	if i < len(a) && a[i].Addr == addr {
		return a[i].Size, nil
	}
	return 0, fmt.Errorf("no symbol starts at %s", addr)
}

// Describe renders addr as symbol+offset, or the bare address when no symbol
// covers it.
func (a SymbolTable) Describe(addr Address) string {
	s, ok := a.Lookup(addr)
	if !ok {
		return addr.String()
	}
	if addr == s.Addr {
		return s.Name
	}
	return fmt.Sprintf("%s+%#x", s.Name, uint64(addr-s.Addr))
}
