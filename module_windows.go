//go:build windows

package sigpatch

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

func hostModule(name string) (Module, error) {
	var namePtr *uint16
	if name != "" {
		p, err := windows.UTF16PtrFromString(name)
		if err != nil {
			return Module{}, err
		}
		namePtr = p
	}

	var h windows.Handle
	flags := uint32(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT)
	if err := windows.GetModuleHandleEx(flags, namePtr, &h); err != nil {
		return Module{}, fmt.Errorf("%w: %s: %v", ErrModuleNotFound, name, err)
	}

	var info windows.ModuleInfo
	if err := windows.GetModuleInformation(windows.CurrentProcess(), h, &info, uint32(unsafe.Sizeof(info))); err != nil {
		return Module{}, fmt.Errorf("GetModuleInformation %s: %w", name, err)
	}

	path := name
	buf := make([]uint16, windows.MAX_PATH)
	if n, err := windows.GetModuleFileName(h, &buf[0], uint32(len(buf))); err == nil {
		path = windows.UTF16ToString(buf[:n])
	}

	if name == "" {
		name = filepath.Base(path)
	}

	mod := Module{
		Name: name,
		Path: path,
		Base: Address(info.BaseOfDll),
		Size: uint64(info.SizeOfImage),
	}
	mod.Regions = queryRegions(mod.Base, mod.End())
	return mod, nil
}

// queryRegions walks [start, end) with VirtualQuery and keeps committed pages
// that can be read without faulting.
func queryRegions(start, end Address) []Region {
	var regions []Region
	for addr := start; addr < end; {
		var mbi windows.MemoryBasicInformation
		if err := windows.VirtualQuery(addr.Pointer(), &mbi, unsafe.Sizeof(mbi)); err != nil || mbi.RegionSize == 0 {
			break
		}

		next := Address(mbi.BaseAddress) + Address(mbi.RegionSize)
		prot := accessFromWindows(mbi.Protect)
		if mbi.State == windows.MEM_COMMIT && mbi.Protect&windows.PAGE_GUARD == 0 && prot&ProtRead != 0 {
			r := Region{Start: addr, End: min(next, end), Prot: prot}
			regions = append(regions, r)
		}
		addr = next
	}
	return regions
}
