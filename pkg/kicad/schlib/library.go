package schlib

import (
	"fmt"
	"sort"
)

// Library is a named collection of symbols. Names (primary and alias) are
// unique ignoring case.
type Library struct {
	Name    string
	symbols []*Symbol
}

// NewLibrary creates an empty library.
func NewLibrary(name string) *Library {
	return &Library{Name: name}
}

// Add appends a symbol. It fails if any of the symbol's names is already used.
func (l *Library) Add(s *Symbol) error {
	if s == nil {
		return invalidf("nil symbol")
	}
	for _, name := range s.Names() {
		if existing := l.Get(name); existing != nil {
			return fmt.Errorf("%w: %s already defined by %s", ErrDuplicateSymbol, name, existing.Name())
		}
	}
	l.symbols = append(l.symbols, s)
	return nil
}

// Get returns the symbol with the given primary or alias name, or nil.
func (l *Library) Get(name string) *Symbol {
	for _, s := range l.symbols {
		if s.HasName(name) {
			return s
		}
	}
	return nil
}

// Len returns the number of symbols.
func (l *Library) Len() int {
	return len(l.symbols)
}

// Symbols returns the symbols sorted by primary name, ignoring case.
func (l *Library) Symbols() []*Symbol {
	out := append([]*Symbol(nil), l.symbols...)
	sort.SliceStable(out, func(i, j int) bool {
		return nameLess(out[i].Name(), out[j].Name())
	})
	return out
}

// Descriptions returns every primary and alias description, sorted by name.
func (l *Library) Descriptions() []Description {
	var descs []Description
	for _, s := range l.symbols {
		descs = append(descs, s.Description)
		descs = append(descs, s.Aliases...)
	}
	sort.SliceStable(descs, func(i, j int) bool {
		return nameLess(descs[i].Name, descs[j].Name)
	})
	return descs
}

// Stats summarises a library.
type Stats struct {
	Symbols int // unique definitions
	Aliases int
}

// Total returns the number of names a user can place.
func (s Stats) Total() int {
	return s.Symbols + s.Aliases
}

// Stats counts symbols and aliases.
func (l *Library) Stats() Stats {
	st := Stats{Symbols: len(l.symbols)}
	for _, s := range l.symbols {
		st.Aliases += len(s.Aliases)
	}
	return st
}

// applyDoc copies documentation onto the symbol or alias that owns its name.
// It reports false when no such name exists.
func (l *Library) applyDoc(doc Description) bool {
	for _, s := range l.symbols {
		if s.Description.Equal(doc) {
			doc.Name = s.Description.Name
			s.Description = doc
			return true
		}
		for i := range s.Aliases {
			if s.Aliases[i].Equal(doc) {
				doc.Name = s.Aliases[i].Name
				s.Aliases[i] = doc
				return true
			}
		}
	}
	return false
}
