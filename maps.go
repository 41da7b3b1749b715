//go:build linux

package sigpatch

import (
	"strings"

	"github.com/prometheus/procfs"
)

// mapping is one entry of /proc/<pid>/maps.
type mapping struct {
	Start Address
	End   Address
	Prot  Protection
	Path  string
}

func selfMaps() ([]mapping, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, err
	}
	p, err := fs.Self()
	if err != nil {
		return nil, err
	}
	return procMaps(p)
}

func readMaps(fs procfs.FS, pid int) ([]mapping, error) {
	p, err := fs.Proc(pid)
	if err != nil {
		return nil, err
	}
	return procMaps(p)
}

func procMaps(p procfs.Proc) ([]mapping, error) {
	pms, err := p.ProcMaps()
	if err != nil {
		return nil, err
	}

	maps := make([]mapping, 0, len(pms))
	for _, pm := range pms {
		m := mapping{
			Start: Address(pm.StartAddr),
			End:   Address(pm.EndAddr),
			Path:  strings.TrimSuffix(pm.Pathname, " (deleted)"),
		}
		if pm.Perms != nil {
			if pm.Perms.Read {
				m.Prot |= ProtRead
			}
			if pm.Perms.Write {
				m.Prot |= ProtWrite
			}
			if pm.Perms.Execute {
				m.Prot |= ProtExec
			}
		}
		maps = append(maps, m)
	}
	return maps, nil
}

// protectionAt finds the protection of the mapping containing addr.
func protectionAt(maps []mapping, addr Address) (Protection, bool) {
	for _, m := range maps {
		if addr >= m.Start && addr < m.End {
			return m.Prot, true
		}
	}
	return ProtNone, false
}
