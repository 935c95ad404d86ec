package footprint

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

// footprintLine matches the footprint field of a legacy record and captures
// the library nickname.
var footprintLine = regexp.MustCompile(`^F2 "([^:]*):(?:[^:"]*)"`)

// Remapper rewrites footprint library nicknames in F2 lines.
type Remapper struct {
	// Table maps old nicknames to new ones.
	Table map[string]string

	// Valid nicknames are left alone unless Force is set.
	Valid map[string]struct{}
	Force bool

	unmapped map[string]struct{}
}

// NewRemapper creates a remapper. valid may be nil.
func NewRemapper(table map[string]string, valid Catalog) *Remapper {
	r := &Remapper{
		Table:    table,
		Valid:    make(map[string]struct{}),
		unmapped: make(map[string]struct{}),
	}
	for nick := range valid {
		r.Valid[nick] = struct{}{}
	}
	return r
}

// RewriteLine returns line with its footprint nickname replaced according to
// the table. Lines that are not footprint fields, point at a valid library,
// or have no mapping come back unchanged with changed false.
func (r *Remapper) RewriteLine(line string) (out string, changed bool) {
	m := footprintLine.FindStringSubmatchIndex(line)
	if m == nil {
		return line, false
	}
	nickname := line[m[2]:m[3]]

	if _, ok := r.Valid[nickname]; ok && !r.Force {
		return line, false
	}
	replacement, ok := r.Table[nickname]
	if !ok || replacement == "" || replacement == nickname {
		if !ok && r.unmapped != nil {
			r.unmapped[nickname] = struct{}{}
		}
		return line, false
	}
	return line[:m[2]] + replacement + line[m[3]:], true
}

// Unmapped returns the sorted invalid nicknames seen without a mapping.
func (r *Remapper) Unmapped() []string {
	out := make([]string, 0, len(r.unmapped))
	for n := range r.unmapped {
		if _, ok := r.Valid[n]; ok {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Rewrite applies RewriteLine to every line of text.
func (r *Remapper) Rewrite(text string) (string, int) {
	var sb strings.Builder
	changed := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		out, ok := r.RewriteLine(line)
		if ok {
			changed++
		}
		sb.WriteString(out)
	}
	return sb.String(), changed
}

// RemapFile rewrites the .lib file at path. With dryRun the file is left
// untouched and only the number of lines that would change is returned.
func (r *Remapper) RemapFile(path string, dryRun bool) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	out, changed := r.Rewrite(string(data))
	if dryRun || changed == 0 {
		return changed, nil
	}
	if err := schlib.WriteFileAtomic(path, []byte(out)); err != nil {
		return 0, err
	}
	return changed, nil
}

// LoadRemapTable reads an old-to-new nickname mapping from a YAML or JSON
// file.
func LoadRemapTable(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	table := make(map[string]string)
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("remap table %s: %w", path, err)
	}
	for old, repl := range table {
		if old == "" || strings.ContainsAny(old+repl, ":\"") {
			return nil, fmt.Errorf("remap table %s: invalid entry %q -> %q", path, old, repl)
		}
	}
	return table, nil
}
