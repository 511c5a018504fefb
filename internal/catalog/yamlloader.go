package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a catalog YAML file.
//
// Example:
//
//	name: "Bodega central"
//	entries:
//	  - code: CC350
//	    name: "Coca Cola 350ml"
//	    unit: lata
//	    quantity: 24
type File struct {
	Name    string  `yaml:"name"`
	Entries []Entry `yaml:"entries"`
}

// LoadFile reads, parses and validates a catalog YAML file from disk.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()

	entries, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return entries, nil
}

// LoadFromReader parses catalog YAML from r, assigns positions in file order
// and validates the result.
func LoadFromReader(r io.Reader) ([]Entry, error) {
	var cf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	for i := range cf.Entries {
		cf.Entries[i].Position = i
	}
	if err := Validate(cf.Entries); err != nil {
		return nil, err
	}
	return cf.Entries, nil
}
