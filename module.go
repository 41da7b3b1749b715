package sigpatch

import "fmt"

// Module is a loaded executable image: where it starts, how far it extends,
// and which parts of it can be read.
type Module struct {
	Name string
	Path string
	Base Address
	Size uint64

	// Regions lists the readable ranges in ascending order. When empty the
	// whole [Base, Base+Size) range is taken as readable.
	Regions []Region
}

func (m Module) String() string {
	return fmt.Sprintf("%s@%s+%#x", m.Name, m.Base, m.Size)
}

// End is one past the last byte of the module.
func (m Module) End() Address {
	return m.Base + Address(m.Size)
}

// Contains reports whether addr lies inside the module.
func (m Module) Contains(addr Address) bool {
	return addr >= m.Base && addr < m.End()
}

// covers reports whether [addr, addr+n) lies inside one readable range.
func (m Module) covers(addr Address, n int) bool {
	end, err := addr.Add(int64(n))
	if err != nil {
		return false
	}
	for _, r := range m.readable() {
		if addr >= r.Start && end <= r.End {
			return true
		}
	}
	return false
}

// readable returns the ranges to scan, with adjacent regions merged so a
// pattern can match across a mapping boundary.
func (m Module) readable() []Region {
	if len(m.Regions) == 0 {
		if m.Size == 0 {
			return nil
		}
		return []Region{{Start: m.Base, End: m.End(), Prot: ProtRead}}
	}

	var out []Region
	for _, r := range m.Regions {
		if r.End <= r.Start {
			continue
		}
		if n := len(out); n > 0 && out[n-1].End == r.Start {
			out[n-1].End = r.End
			out[n-1].Prot |= r.Prot
			continue
		}
		out = append(out, r)
	}
	return out
}

// HostModule locates a module loaded in the current process. An empty name
// selects the main executable.
func HostModule(name string) (Module, error) {
	return hostModule(name)
}
