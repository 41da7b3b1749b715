//go:build linux

package sigpatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"
)

func executablePath() (string, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return "", err
	}
	return p.Exe()
}

func hostModule(name string) (Module, error) {
	if name == "" {
		exe, err := executablePath()
		if err != nil {
			return Module{}, fmt.Errorf("resolve executable: %w", err)
		}
		name = exe
	}

	maps, err := selfMaps()
	if err != nil {
		return Module{}, err
	}
	return moduleFromMaps(maps, name)
}

// moduleFromMaps groups the mappings backed by the named file. name may be a
// full path or a base name.
func moduleFromMaps(maps []mapping, name string) (Module, error) {
	mod := Module{Name: filepath.Base(name)}
	found := false
	for _, m := range maps {
		if m.Path == "" || (m.Path != name && filepath.Base(m.Path) != name) {
			continue
		}
		if !found {
			mod.Path = m.Path
			mod.Base = m.Start
			found = true
		} else if m.Path != mod.Path {
			continue
		}
		if m.Start < mod.Base {
			mod.Base = m.Start
		}
		if end := uint64(m.End - mod.Base); end > mod.Size {
			mod.Size = end
		}
		if m.Prot&ProtRead != 0 {
			mod.Regions = append(mod.Regions, Region{Start: m.Start, End: m.End, Prot: m.Prot})
		}
	}

	if !found {
		return Module{}, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return mod, nil
}
