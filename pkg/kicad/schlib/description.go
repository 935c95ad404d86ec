// Package schlib models KiCad legacy schematic symbol libraries (.lib with
// companion .dcm documentation files) and reads and writes them.
package schlib

import (
	"strings"
)

// Description holds a symbol's documentation: the part of a component that
// lives in the .dcm file. Aliases are Descriptions too.
type Description struct {
	Name        string
	Description string
	Keywords    string
	Datasheet   string
}

// Equal compares names case-insensitively.
func (d Description) Equal(other Description) bool {
	return strings.EqualFold(d.Name, other.Name)
}

// Validate checks that the description can be written to both files.
func (d Description) Validate() error {
	if d.Name == "" {
		return invalidf("description name is empty")
	}
	if strings.ContainsAny(d.Name, " \t\r\n\"") {
		return invalidf("description name %q contains whitespace or quotes", d.Name)
	}
	for _, v := range []string{d.Description, d.Keywords, d.Datasheet} {
		if strings.ContainsAny(v, "\r\n") {
			return invalidf("description %s contains a line break", d.Name)
		}
	}
	return nil
}

// inherit fills blank documentation fields from parent.
func (d Description) inherit(parent Description) Description {
	if d.Description == "" {
		d.Description = parent.Description
	}
	if d.Keywords == "" {
		d.Keywords = parent.Keywords
	}
	if d.Datasheet == "" {
		d.Datasheet = parent.Datasheet
	}
	return d
}

func lowerName(name string) string {
	return strings.ToLower(name)
}
