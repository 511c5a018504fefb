package alias

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the top-level structure of an alias YAML file.
//
// Example:
//
//	aliases:
//	  - name: "Coca Cola 350ml"
//	    variants: ["coca", "cocacola", "coquita"]
//	  - name: "Cerveza Pilsen"
//	    variants: ["chela", "pilsen", "birra"]
type File struct {
	Aliases []Set `yaml:"aliases"`
}

// LoadFile reads an alias YAML file and returns a [MemStore] holding it.
func LoadFile(path string) (*MemStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("alias: open %q: %w", path, err)
	}
	defer f.Close()

	s, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("alias: parse %q: %w", path, err)
	}
	return s, nil
}

// LoadFromReader parses alias YAML from r.
func LoadFromReader(r io.Reader) (*MemStore, error) {
	var af File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&af); err != nil {
		return nil, fmt.Errorf("alias: decode yaml: %w", err)
	}
	for i, set := range af.Aliases {
		if Key(set.Canonical) == "" {
			return nil, fmt.Errorf("alias: aliases[%d].name: %w", i, ErrEmptyName)
		}
	}
	return NewMemStore(af.Aliases...), nil
}

// Encode writes sets to w in the format [LoadFromReader] reads, sorted by
// canonical name.
func Encode(w io.Writer, sets []Set) error {
	sorted := slices.Clone(sets)
	slices.SortFunc(sorted, func(a, b Set) int { return strings.Compare(a.Canonical, b.Canonical) })

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Aliases: sorted}); err != nil {
		return fmt.Errorf("alias: encode yaml: %w", err)
	}
	return enc.Close()
}
