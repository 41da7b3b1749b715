package sigpatch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition describes one signature: where to find it and how many bytes
// at the resolved address may be patched.
type Definition struct {
	Name       string `yaml:"name"`
	Pattern    string `yaml:"pattern"`
	Offset     uint16 `yaml:"offset"`
	Occurrence int    `yaml:"occurrence"`
	PatchLen   int    `yaml:"patch_len"`
}

// Catalog is an ordered list of definitions. Order matters: registration
// follows it and stops at the first failure.
type Catalog []Definition

// Validate checks that names are set and unique and that every pattern
// compiles. All problems are reported together.
func (c Catalog) Validate() error {
	var errs []error
	seen := make(map[string]int, len(c))
	for i, def := range c {
		if def.Name == "" {
			errs = append(errs, fmt.Errorf("%w: entry %d has no name", ErrInvalidCatalog, i))
		} else if j, dup := seen[def.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: entry %d reuses name %q of entry %d", ErrInvalidCatalog, i, def.Name, j))
		} else {
			seen[def.Name] = i
		}

		if _, err := CompilePattern(def.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("%w: entry %d (%s): %w", ErrInvalidCatalog, i, def.Name, err))
		}
		if def.Occurrence < 0 {
			errs = append(errs, fmt.Errorf("%w: entry %d (%s): negative occurrence", ErrInvalidCatalog, i, def.Name))
		}
		if def.PatchLen < 0 {
			errs = append(errs, fmt.Errorf("%w: entry %d (%s): negative patch_len", ErrInvalidCatalog, i, def.Name))
		}
	}
	return errors.Join(errs...)
}

// Names lists definition names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, def := range c {
		names[i] = def.Name
	}
	return names
}

// LoadCatalog decodes a YAML list of definitions and validates it.
func LoadCatalog(r io.Reader) (Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
