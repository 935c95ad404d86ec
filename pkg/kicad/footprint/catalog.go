// Package footprint checks symbol footprint associations of the form
// Library:Footprint against a catalog of footprint libraries, and rewrites
// library nicknames in .lib files.
package footprint

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directory and file suffixes of KiCad footprint libraries.
const (
	LibrarySuffix   = ".pretty"
	FootprintSuffix = ".kicad_mod"
)

// Catalog maps a footprint library nickname to the footprint names it holds.
type Catalog map[string]map[string]struct{}

// NewCatalog returns an empty catalog.
func NewCatalog() Catalog {
	return make(Catalog)
}

// AddLibrary registers a nickname, possibly without footprints.
func (c Catalog) AddLibrary(nickname string) {
	if _, ok := c[nickname]; !ok {
		c[nickname] = make(map[string]struct{})
	}
}

// Add registers footprint name in library nickname.
func (c Catalog) Add(nickname, name string) {
	c.AddLibrary(nickname)
	c[nickname][name] = struct{}{}
}

// HasLibrary reports whether nickname is known.
func (c Catalog) HasLibrary(nickname string) bool {
	_, ok := c[nickname]
	return ok
}

// Has reports whether footprint name exists in library nickname.
func (c Catalog) Has(nickname, name string) bool {
	_, ok := c[nickname][name]
	return ok
}

// Libraries returns the sorted nicknames.
func (c Catalog) Libraries() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of footprints across all libraries.
func (c Catalog) Len() int {
	n := 0
	for _, fps := range c {
		n += len(fps)
	}
	return n
}

// LoadCatalog lists every <nickname>.pretty directory directly under dir and
// the <name>.kicad_mod files inside it.
func LoadCatalog(dir string) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	cat := NewCatalog()
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), LibrarySuffix) {
			continue
		}
		nickname := strings.TrimSuffix(e.Name(), LibrarySuffix)
		cat.AddLibrary(nickname)

		files, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), FootprintSuffix) {
				continue
			}
			cat.Add(nickname, strings.TrimSuffix(f.Name(), FootprintSuffix))
		}
	}
	return cat, nil
}
