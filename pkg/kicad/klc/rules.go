package klc

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/symlib/pkg/kicad/footprint"
	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

// illegalPathChars may not appear in a footprint association. The single
// Library:Footprint separator is checked separately.
const illegalPathChars = `\/*?"<>|`

func notFixable() []Diagnostic {
	return []Diagnostic{{Severity: Info, Verbosity: Normal, Message: "FIX: not supported"}}
}

// FootprintFieldRule checks that the default footprint is an invisible
// Library:Footprint reference.
type FootprintFieldRule struct{}

func (FootprintFieldRule) ID() string { return "3.9" }

func (FootprintFieldRule) Description() string {
	return "Default component footprint is appropriately set."
}

func (FootprintFieldRule) Check(sym *schlib.Symbol) (bool, []Diagnostic) {
	fp := sym.Field(schlib.FieldFootprint)
	if fp == nil || fp.Text == "" {
		return false, nil
	}

	var (
		fail  bool
		diags []Diagnostic
	)
	prefix := fmt.Sprintf("Footprint field '%s' ", fp.Text)

	if fp.IsVisible() {
		fail = true
		diags = append(diags, Diagnostic{Warning, High, prefix + "should be set to invisible."})
	}
	if strings.Count(fp.Text, ":") != 1 || strings.HasPrefix(fp.Text, ":") || strings.HasSuffix(fp.Text, ":") {
		fail = true
		diags = append(diags, Diagnostic{Error, High, prefix + "should be of the format Library:Footprint"})
	}
	if strings.ContainsAny(fp.Text, illegalPathChars) {
		fail = true
		diags = append(diags, Diagnostic{Error, High, prefix + "contains illegal filename characters"})
	}
	return fail, diags
}

func (FootprintFieldRule) Fix(sym *schlib.Symbol) (*schlib.Symbol, []Diagnostic) {
	return sym, notFixable()
}

// DocStringRule checks that a symbol has a description.
type DocStringRule struct{}

func (DocStringRule) ID() string { return "doc" }

func (DocStringRule) Description() string {
	return "Component has a description."
}

func (DocStringRule) Check(sym *schlib.Symbol) (bool, []Diagnostic) {
	if strings.TrimSpace(sym.Description.Description) != "" {
		return false, nil
	}
	return true, []Diagnostic{{Error, Normal, fmt.Sprintf("Component '%s' has no description", sym.Name())}}
}

// Fix leaves the symbol alone; a description has to be written by hand.
func (DocStringRule) Fix(sym *schlib.Symbol) (*schlib.Symbol, []Diagnostic) {
	return sym, nil
}

// ValueFieldRule checks that the value field is visible and holds the
// symbol name.
type ValueFieldRule struct{}

func (ValueFieldRule) ID() string { return "value" }

func (ValueFieldRule) Description() string {
	return "Value field matches the component name and is visible."
}

func (ValueFieldRule) Check(sym *schlib.Symbol) (bool, []Diagnostic) {
	f := sym.Field(schlib.FieldValue)
	if f == nil {
		return true, []Diagnostic{{Error, Normal, "Value field is missing"}}
	}

	var (
		fail  bool
		diags []Diagnostic
	)
	if f.Text != sym.Name() {
		fail = true
		diags = append(diags, Diagnostic{Error, Normal,
			fmt.Sprintf("Value field '%s' does not match component name '%s'", f.Text, sym.Name())})
	}
	if !f.IsVisible() && !sym.Options.Power {
		fail = true
		diags = append(diags, Diagnostic{Warning, High, "Value field should be visible"})
	}
	return fail, diags
}

func (ValueFieldRule) Fix(sym *schlib.Symbol) (*schlib.Symbol, []Diagnostic) {
	fixed := sym.Clone()
	f := fixed.Field(schlib.FieldValue)
	if f == nil {
		nf := schlib.NewField(schlib.FieldValue, fixed.Name())
		if err := fixed.SetField(nf); err != nil {
			return sym, []Diagnostic{{Error, Normal, "FIX: " + err.Error()}}
		}
		return fixed, []Diagnostic{{Info, Normal, "FIX: added value field"}}
	}
	f.Text = fixed.Name()
	if !fixed.Options.Power {
		f.Visibility = schlib.Visible
	}
	return fixed, []Diagnostic{{Info, Normal, fmt.Sprintf("FIX: set value field to '%s'", fixed.Name())}}
}

// FootprintExistsRule checks the default footprint against a catalog of
// footprint libraries.
type FootprintExistsRule struct {
	Catalog footprint.Catalog
}

func (FootprintExistsRule) ID() string { return "fp-exists" }

func (FootprintExistsRule) Description() string {
	return "Default footprint exists in the footprint libraries."
}

func (r FootprintExistsRule) Check(sym *schlib.Symbol) (bool, []Diagnostic) {
	text := sym.Footprint()
	switch st := footprint.Classify(text, r.Catalog); st {
	case footprint.StatusEmpty:
		return false, []Diagnostic{{Info, High, "No default footprint"}}
	case footprint.StatusValid:
		return false, nil
	case footprint.StatusMalformed:
		return true, []Diagnostic{{Error, Normal, fmt.Sprintf("Footprint '%s' is not of the form Library:Footprint", text)}}
	case footprint.StatusUnknownLibrary:
		nick, _, _ := footprint.Split(text)
		return true, []Diagnostic{{Error, Normal, fmt.Sprintf("Footprint library '%s' does not exist", nick)}}
	default:
		return true, []Diagnostic{{Error, Normal, fmt.Sprintf("Footprint '%s' does not exist", text)}}
	}
}

func (FootprintExistsRule) Fix(sym *schlib.Symbol) (*schlib.Symbol, []Diagnostic) {
	return sym, notFixable()
}
