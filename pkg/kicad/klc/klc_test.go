package klc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/symlib/pkg/kicad/footprint"
	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

func newSymbol(t *testing.T, fp string, visible bool) *schlib.Symbol {
	t.Helper()
	s, err := schlib.New(schlib.Description{Name: "LM358", Description: "Dual op amp"}, schlib.DefaultOptions())
	require.NoError(t, err)
	f := s.Field(schlib.FieldFootprint)
	f.Text = fp
	if visible {
		f.Visibility = schlib.Visible
	}
	return s
}

func hasSeverity(diags []Diagnostic, sev Severity) bool {
	for _, d := range diags {
		if d.Severity == sev {
			return true
		}
	}
	return false
}

func TestFootprintFieldRule(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		visible bool
		fail    bool
		errors  int
	}{
		{"empty", "", true, false, 0},
		{"valid", "LibA:Part", false, false, 0},
		{"two colons", "LibA:LibB:Part", false, true, 1},
		{"no colon", "Part", false, true, 1},
		{"leading colon", ":Part", false, true, 1},
		{"trailing colon", "LibA:", false, true, 1},
		{"illegal character", "LibA:Part*", false, true, 1},
		{"visible", "LibA:Part", true, true, 0},
		{"visible and malformed", "LibA/Part", true, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fail, diags := FootprintFieldRule{}.Check(newSymbol(t, tt.text, tt.visible))
			assert.Equal(t, tt.fail, fail)

			errors := 0
			for _, d := range diags {
				if d.Severity == Error {
					errors++
				}
				assert.Equal(t, High, d.Verbosity)
			}
			assert.Equal(t, tt.errors, errors)
		})
	}
}

func TestFootprintFieldRuleVisibleWarning(t *testing.T) {
	fail, diags := FootprintFieldRule{}.Check(newSymbol(t, "LibA:Part", true))
	require.True(t, fail)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
	assert.Equal(t, "Footprint field 'LibA:Part' should be set to invisible.", diags[0].Message)
}

func TestFootprintFieldRuleFixUnsupported(t *testing.T) {
	sym := newSymbol(t, "LibA:LibB:Part", false)
	fixed, diags := FootprintFieldRule{}.Fix(sym)
	assert.Same(t, sym, fixed)
	require.Len(t, diags, 1)
	assert.Equal(t, Diagnostic{Severity: Info, Verbosity: Normal, Message: "FIX: not supported"}, diags[0])
}

func TestDocStringRule(t *testing.T) {
	sym := newSymbol(t, "", false)
	fail, _ := DocStringRule{}.Check(sym)
	assert.False(t, fail)

	sym.Description.Description = "  "
	fail, diags := DocStringRule{}.Check(sym)
	assert.True(t, fail)
	assert.True(t, hasSeverity(diags, Error))

	fixed, diags := DocStringRule{}.Fix(sym)
	assert.Same(t, sym, fixed)
	assert.Empty(t, diags)
}

func TestValueFieldRule(t *testing.T) {
	sym := newSymbol(t, "", false)
	sym.Field(schlib.FieldValue).Text = "LM2904"
	sym.Field(schlib.FieldValue).Visibility = schlib.Invisible

	fail, diags := ValueFieldRule{}.Check(sym)
	assert.True(t, fail)
	assert.Len(t, diags, 2)

	fixed, diags := ValueFieldRule{}.Fix(sym)
	require.NotNil(t, fixed)
	assert.NotSame(t, sym, fixed)
	assert.Equal(t, "LM358", fixed.Value())
	assert.True(t, fixed.Field(schlib.FieldValue).IsVisible())
	assert.Equal(t, "LM2904", sym.Value(), "fix must not modify its input")
	assert.True(t, hasSeverity(diags, Info))

	fail, _ = ValueFieldRule{}.Check(fixed)
	assert.False(t, fail)
}

func TestFootprintExistsRule(t *testing.T) {
	cat := footprint.NewCatalog()
	cat.Add("Resistor_THT", "R_0805")
	rule := FootprintExistsRule{Catalog: cat}

	tests := []struct {
		text string
		fail bool
	}{
		{"", false},
		{"BadFormat", true},
		{"Unknown:R_0805", true},
		{"Resistor_THT:Missing", true},
		{"Resistor_THT:R_0805", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			fail, _ := rule.Check(newSymbol(t, tt.text, false))
			assert.Equal(t, tt.fail, fail)
		})
	}
}

// mutatingRule changes the symbol it is given during Check.
type mutatingRule struct{}

func (mutatingRule) ID() string          { return "mutate" }
func (mutatingRule) Description() string { return "test" }
func (mutatingRule) Check(sym *schlib.Symbol) (bool, []Diagnostic) {
	sym.Field(schlib.FieldFootprint).Text = "A:B:C"
	sym.Field(schlib.FieldFootprint).Visibility = schlib.Visible
	return false, nil
}
func (mutatingRule) Fix(sym *schlib.Symbol) (*schlib.Symbol, []Diagnostic) { return sym, nil }

func TestRunIndependentRules(t *testing.T) {
	sym := newSymbol(t, "LibA:Part", false)
	rules := []Rule{mutatingRule{}, FootprintFieldRule{}, DocStringRule{}}

	results := Run(sym, rules, High)
	require.Len(t, results, 3)
	assert.Equal(t, "mutate", results[0].RuleID)
	assert.Equal(t, "3.9", results[1].RuleID)
	assert.Equal(t, "doc", results[2].RuleID)
	assert.False(t, results[1].Fail, "rule saw another rule's changes")
	assert.Equal(t, "LibA:Part", sym.Footprint())
}

func TestRunVerbosityFilter(t *testing.T) {
	sym := newSymbol(t, "LibA:LibB:Part", false)

	normal := Run(sym, []Rule{FootprintFieldRule{}}, Normal)
	assert.True(t, normal[0].Fail)
	assert.Empty(t, normal[0].Diagnostics)

	high := Run(sym, []Rule{FootprintFieldRule{}}, High)
	assert.True(t, high[0].Fail)
	assert.True(t, hasSeverity(high[0].Diagnostics, Error))
}

func TestRunLibrary(t *testing.T) {
	lib := schlib.NewLibrary("test")
	for _, name := range []string{"B", "A"} {
		s, err := schlib.New(schlib.Description{Name: name}, schlib.DefaultOptions())
		require.NoError(t, err)
		require.NoError(t, lib.Add(s))
	}

	results := RunLibrary(lib, Default().Rules(), Normal)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Symbol)
	assert.Equal(t, 1, results[0].Failed())
}

func TestFixAll(t *testing.T) {
	sym := newSymbol(t, "LibA:LibB:Part", false)
	sym.Field(schlib.FieldValue).Text = "wrong"

	fixed, diags := FixAll(sym, Default().Rules(), Normal)
	assert.Equal(t, "LM358", fixed.Value())
	assert.Equal(t, "wrong", sym.Value())
	assert.Len(t, diags, 2)
}

func TestRegistry(t *testing.T) {
	reg := Default()
	assert.ErrorIs(t, reg.Register(FootprintFieldRule{}), ErrDuplicateRule)
	assert.Error(t, reg.Register(nil))

	require.NoError(t, reg.Register(FootprintExistsRule{}))
	r, ok := reg.Get("fp-exists")
	require.True(t, ok)
	assert.Equal(t, "fp-exists", r.ID())

	selected, err := reg.Select([]string{"value", "3.9"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "3.9", selected[0].ID())
	assert.Equal(t, "value", selected[1].ID())

	_, err = reg.Select([]string{"nope"})
	assert.Error(t, err)

	all, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestParseVerbosity(t *testing.T) {
	v, err := ParseVerbosity("high")
	require.NoError(t, err)
	assert.Equal(t, High, v)

	_, err = ParseVerbosity("loud")
	assert.Error(t, err)
}
