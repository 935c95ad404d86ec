package schlib

import (
	"fmt"
	"sort"
	"strings"
)

// Options are the DEF-line settings of a symbol.
type Options struct {
	Designator     string // reference prefix, e.g. "U" or "R"
	TextOffset     int    // pin name offset in mils
	DrawPinNumbers bool
	DrawPinNames   bool
	UnitCount      int
	UnitsLocked    bool // units are not interchangeable
	Power          bool // power symbol
}

// DefaultOptions returns designator "U", text offset 40, pin names and
// numbers drawn, one unit.
func DefaultOptions() Options {
	return Options{
		Designator:     "U",
		TextOffset:     40,
		DrawPinNumbers: true,
		DrawPinNames:   true,
		UnitCount:      1,
	}
}

// Validate checks the DEF-line settings.
func (o Options) Validate() error {
	if o.Designator == "" || strings.ContainsAny(o.Designator, " \t\r\n\"") {
		return invalidf("designator %q", o.Designator)
	}
	if o.TextOffset < 0 {
		return invalidf("text offset %d is negative", o.TextOffset)
	}
	if o.UnitCount < 1 {
		return invalidf("unit count %d must be at least 1", o.UnitCount)
	}
	return nil
}

// Symbol is one component definition of a library.
type Symbol struct {
	Description      Description
	Options          Options
	Fields           []Field
	Aliases          []Description
	FootprintFilters []string
	Graphics         []Primitive
}

// New creates a symbol with the four fixed fields: reference, value (the
// symbol name), an invisible footprint and an invisible datasheet.
func New(desc Description, opts Options) (*Symbol, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	footprint := NewField(FieldFootprint, "")
	footprint.Visibility = Invisible
	datasheet := NewField(FieldDatasheet, desc.Datasheet)
	datasheet.Visibility = Invisible

	return &Symbol{
		Description: desc,
		Options:     opts,
		Fields: []Field{
			NewField(FieldReference, opts.Designator),
			NewField(FieldValue, desc.Name),
			footprint,
			datasheet,
		},
	}, nil
}

// Name returns the primary name.
func (s *Symbol) Name() string {
	return s.Description.Name
}

// Designator returns the reference prefix.
func (s *Symbol) Designator() string {
	return s.Options.Designator
}

// Names returns the primary name followed by every alias name.
func (s *Symbol) Names() []string {
	names := make([]string, 0, 1+len(s.Aliases))
	names = append(names, s.Description.Name)
	for _, a := range s.Aliases {
		names = append(names, a.Name)
	}
	return names
}

// HasName reports whether name is the primary name or an alias, ignoring case.
func (s *Symbol) HasName(name string) bool {
	for _, n := range s.Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// AddAlias appends an alias. Blank documentation fields are copied from the
// symbol's own description at this moment; later edits to the symbol do not
// reach the alias.
func (s *Symbol) AddAlias(alias Description) error {
	if err := alias.Validate(); err != nil {
		return err
	}
	if s.HasName(alias.Name) {
		return fmt.Errorf("%w: %s already names symbol %s", ErrDuplicateAlias, alias.Name, s.Description.Name)
	}
	s.Aliases = append(s.Aliases, alias.inherit(s.Description))
	return nil
}

// Alias returns the alias called name, ignoring case.
func (s *Symbol) Alias(name string) (Description, bool) {
	for _, a := range s.Aliases {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Description{}, false
}

// AddFilter appends a footprint filter pattern.
func (s *Symbol) AddFilter(pattern string) {
	s.FootprintFilters = append(s.FootprintFilters, pattern)
}

// AddItem appends a graphical primitive. Geometry is not checked here.
func (s *Symbol) AddItem(p Primitive) {
	if p == nil {
		return
	}
	s.Graphics = append(s.Graphics, p)
}

// Pins returns the pins in drawing order.
func (s *Symbol) Pins() []*Pin {
	var pins []*Pin
	for _, g := range s.Graphics {
		if p, ok := g.(*Pin); ok {
			pins = append(pins, p)
		}
	}
	return pins
}

// Field returns the field with the given number, or nil.
func (s *Symbol) Field(number int) *Field {
	for i := range s.Fields {
		if s.Fields[i].Number == number {
			return &s.Fields[i]
		}
	}
	return nil
}

// SetField stores f, replacing any field with the same number.
func (s *Symbol) SetField(f Field) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if existing := s.Field(f.Number); existing != nil {
		*existing = f
		return nil
	}
	s.Fields = append(s.Fields, f)
	sort.SliceStable(s.Fields, func(i, j int) bool {
		return s.Fields[i].Number < s.Fields[j].Number
	})
	return nil
}

// Footprint returns the footprint field text.
func (s *Symbol) Footprint() string {
	if f := s.Field(FieldFootprint); f != nil {
		return f.Text
	}
	return ""
}

// Value returns the value field text.
func (s *Symbol) Value() string {
	if f := s.Field(FieldValue); f != nil {
		return f.Text
	}
	return ""
}

// Validate checks the symbol and everything it holds.
func (s *Symbol) Validate() error {
	if err := s.Description.Validate(); err != nil {
		return err
	}
	if err := s.Options.Validate(); err != nil {
		return err
	}
	for n := FieldReference; n < FirstUserField; n++ {
		if s.Field(n) == nil {
			return invalidf("symbol %s has no F%d field", s.Description.Name, n)
		}
	}
	seen := make(map[int]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Number] {
			return invalidf("symbol %s has two F%d fields", s.Description.Name, f.Number)
		}
		seen[f.Number] = true
		if err := f.Validate(); err != nil {
			return err
		}
	}
	names := map[string]bool{lowerName(s.Description.Name): true}
	for _, a := range s.Aliases {
		if err := a.Validate(); err != nil {
			return err
		}
		if names[lowerName(a.Name)] {
			return fmt.Errorf("%w: %s", ErrDuplicateAlias, a.Name)
		}
		names[lowerName(a.Name)] = true
	}
	for _, f := range s.FootprintFilters {
		if f == "" || strings.ContainsAny(f, " \t\r\n") {
			return invalidf("symbol %s footprint filter %q", s.Description.Name, f)
		}
	}
	for _, g := range s.Graphics {
		if g == nil {
			return invalidf("symbol %s has a nil primitive", s.Description.Name)
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("symbol %s: %w", s.Description.Name, err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *Symbol) Clone() *Symbol {
	c := *s
	c.Fields = append([]Field(nil), s.Fields...)
	c.Aliases = append([]Description(nil), s.Aliases...)
	c.FootprintFilters = append([]string(nil), s.FootprintFilters...)
	c.Graphics = make([]Primitive, len(s.Graphics))
	for i, g := range s.Graphics {
		c.Graphics[i] = clonePrimitive(g)
	}
	return &c
}

// sortedAliases returns the aliases ordered by name, ignoring case.
func (s *Symbol) sortedAliases() []Description {
	aliases := append([]Description(nil), s.Aliases...)
	sort.SliceStable(aliases, func(i, j int) bool {
		return nameLess(aliases[i].Name, aliases[j].Name)
	})
	return aliases
}

// nameLess orders names case-insensitively, falling back to a byte
// comparison so the order is total.
func nameLess(a, b string) bool {
	la, lb := lowerName(a), lowerName(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// Encode renders the symbol as a legacy DEF ... ENDDEF record. Aliases are
// listed sorted by name so output does not depend on insertion order.
func (s *Symbol) Encode() string {
	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	line("#")
	line("# %s", s.Description.Name)
	line("#")

	locked, option := "F", "N"
	if s.Options.UnitsLocked {
		locked = "L"
	}
	if s.Options.Power {
		option = "P"
	}
	line("DEF %s %s 0 %d %s %s %d %s %s",
		s.Description.Name, s.Options.Designator, s.Options.TextOffset,
		yesNo(s.Options.DrawPinNumbers), yesNo(s.Options.DrawPinNames),
		s.Options.UnitCount, locked, option)

	for _, f := range s.Fields {
		line("%s", f.Encode())
	}

	if len(s.Aliases) > 0 {
		aliases := s.sortedAliases()
		names := make([]string, len(aliases))
		for i, a := range aliases {
			names[i] = a.Name
		}
		line("ALIAS %s", strings.Join(names, " "))
	}

	if len(s.FootprintFilters) > 0 {
		line("$FPLIST")
		for _, f := range s.FootprintFilters {
			line(" %s", f)
		}
		line("$ENDFPLIST")
	}

	line("DRAW")
	for _, g := range s.Graphics {
		line("%s", g.Encode())
	}
	line("ENDDRAW")
	line("ENDDEF")

	return sb.String()
}

// decodeDef parses a DEF line into a new symbol.
func decodeDef(tokens []string) (*Symbol, error) {
	if len(tokens) < 3 {
		return nil, fmt.Errorf("%w: DEF line has %d values", ErrMalformedLine, len(tokens))
	}

	opts := DefaultOptions()
	opts.Designator = tokens[2]
	if len(tokens) > 4 {
		v, err := atoi(tokens[4])
		if err != nil {
			return nil, err
		}
		opts.TextOffset = v
	}
	if len(tokens) > 5 {
		opts.DrawPinNumbers = tokens[5] == "Y"
	}
	if len(tokens) > 6 {
		opts.DrawPinNames = tokens[6] == "Y"
	}
	if len(tokens) > 7 {
		v, err := atoi(tokens[7])
		if err != nil {
			return nil, err
		}
		opts.UnitCount = v
	}
	if len(tokens) > 8 {
		opts.UnitsLocked = tokens[8] == "L"
	}
	if len(tokens) > 9 {
		opts.Power = tokens[9] == "P"
	}

	return New(Description{Name: tokens[1]}, opts)
}
