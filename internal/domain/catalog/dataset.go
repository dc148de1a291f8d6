package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var defaultDataset []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog built from the embedded dataset. The embedded
// file is part of the binary, so a decoding failure is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(bytes.NewReader(defaultDataset))
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded dataset: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load decodes a TOML dataset and indexes it.
func Load(r io.Reader) (*Catalog, error) {
	var ds Dataset
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode catalog dataset: %w", err)
	}
	return New(ds.Entries, ds.Panels)
}

// LoadFile reads a TOML dataset from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
