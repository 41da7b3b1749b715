package sigpatch

// Find returns the address of the occurrence-th match (counting from zero)
// of p in data, where data is mapped at base. It reports false when there
// are fewer matches, when occurrence is negative, or when p is empty.
func Find(data []byte, base Address, p Pattern, occurrence int) (Address, bool) {
	if occurrence < 0 {
		return 0, false
	}

	_, off, ok := findFrom(data, p, occurrence)
	if !ok {
		return 0, false
	}
	return base + Address(off), true
}

// FindAll returns every match of p in data, in ascending order.
func FindAll(data []byte, base Address, p Pattern) []Address {
	var out []Address
	for i := 0; i+p.Len() <= len(data) && p.Len() > 0; i++ {
		if p.MatchAt(data, i) {
			out = append(out, base+Address(i))
		}
	}
	return out
}

// findFrom returns the offset of the skip-th match in data. When there is
// no such match it returns how many matches are still to be skipped, so the
// count can be carried over to the next region.
func findFrom(data []byte, p Pattern, skip int) (int, int, bool) {
	n := p.Len()
	if n == 0 {
		return skip, 0, false
	}

	// the first exact byte narrows candidates cheaply
	anchor := -1
	for k := 0; k < n; k++ {
		if !p.At(k).Wildcard {
			anchor = k
			break
		}
	}

	for i := 0; i+n <= len(data); i++ {
		if anchor >= 0 && data[i+anchor] != p.At(anchor).Value {
			continue
		}
		if !p.MatchAt(data, i) {
			continue
		}
		if skip == 0 {
			return 0, i, true
		}
		skip--
	}
	return skip, 0, false
}

// ScanModule searches the readable regions of mod, in address order, for the
// occurrence-th match of p. Matches are counted across regions.
func ScanModule(mem Memory, mod Module, p Pattern, occurrence int) (Address, bool, error) {
	if occurrence < 0 || p.Len() == 0 {
		return 0, false, nil
	}

	skip := occurrence
	for _, r := range mod.readable() {
		size := r.Size()
		if size < uint64(p.Len()) {
			continue
		}

		data, err := view(mem, r.Start, int(size))
		if err != nil {
			return 0, false, err
		}

		var off int
		var ok bool
		skip, off, ok = findFrom(data, p, skip)
		if ok {
			addr := r.Start + Address(off)
			logger.WithField("module", mod.Name).WithField("address", addr).Debugf("pattern %s matched", p)
			return addr, true, nil
		}
	}
	return 0, false, nil
}

// ScanModuleAll returns every match of p across the readable regions of mod.
func ScanModuleAll(mem Memory, mod Module, p Pattern) ([]Address, error) {
	var out []Address
	for _, r := range mod.readable() {
		if r.Size() < uint64(p.Len()) {
			continue
		}
		data, err := view(mem, r.Start, int(r.Size()))
		if err != nil {
			return nil, err
		}
		out = append(out, FindAll(data, r.Start, p)...)
	}
	return out, nil
}
