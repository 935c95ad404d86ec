package schlib

import (
	"fmt"
	"strings"
)

// Fixed field numbers. Numbers from FirstUserField on are user fields.
const (
	FieldReference = 0
	FieldValue     = 1
	FieldFootprint = 2
	FieldDatasheet = 3
	FirstUserField = 4
)

// DefaultTextSize is the text size, in mils, of newly created fields.
const DefaultTextSize = 50

// TextOrientation is the direction field text is drawn in.
type TextOrientation string

const (
	Horizontal TextOrientation = "H"
	Vertical   TextOrientation = "V"
)

// Visibility of a field.
type Visibility string

const (
	Visible   Visibility = "V"
	Invisible Visibility = "I"
)

// Justify is a text justification code.
type Justify string

const (
	JustifyLeft   Justify = "L"
	JustifyCenter Justify = "C"
	JustifyRight  Justify = "R"
	JustifyTop    Justify = "T"
	JustifyBottom Justify = "B"
)

// Point is a coordinate in mils.
type Point struct {
	X int
	Y int
}

// Field is one F-line of a symbol.
type Field struct {
	Number      int
	Text        string
	Name        string // required for user fields
	Position    Point
	Size        int
	Orientation TextOrientation
	Visibility  Visibility
	HJustify    Justify
	VJustify    Justify
	Italic      bool
	Bold        bool
}

// NewField returns a visible, horizontal, centred field with default size.
func NewField(number int, text string) Field {
	return Field{
		Number:      number,
		Text:        text,
		Size:        DefaultTextSize,
		Orientation: Horizontal,
		Visibility:  Visible,
		HJustify:    JustifyCenter,
		VJustify:    JustifyCenter,
	}
}

// IsVisible reports whether the field is drawn.
func (f Field) IsVisible() bool {
	return f.Visibility == Visible
}

// Validate checks the field against the F-line schema.
func (f Field) Validate() error {
	if f.Number < 0 {
		return invalidf("field number %d is negative", f.Number)
	}
	if f.Number >= FirstUserField && f.Name == "" {
		return invalidf("user field F%d has no name", f.Number)
	}
	if strings.ContainsAny(f.Text, "\"\r\n") || strings.ContainsAny(f.Name, "\"\r\n") {
		return invalidf("field F%d contains quotes or line breaks", f.Number)
	}
	if f.Size < 0 {
		return invalidf("field F%d has negative size", f.Number)
	}
	switch f.Orientation {
	case Horizontal, Vertical:
	default:
		return invalidf("field F%d has orientation %q", f.Number, f.Orientation)
	}
	switch f.Visibility {
	case Visible, Invisible:
	default:
		return invalidf("field F%d has visibility %q", f.Number, f.Visibility)
	}
	switch f.HJustify {
	case JustifyLeft, JustifyCenter, JustifyRight:
	default:
		return invalidf("field F%d has horizontal justification %q", f.Number, f.HJustify)
	}
	switch f.VJustify {
	case JustifyTop, JustifyCenter, JustifyBottom:
	default:
		return invalidf("field F%d has vertical justification %q", f.Number, f.VJustify)
	}
	return nil
}

// Encode renders the field as an F-line, e.g. F0 "U" 0 50 50 H V C CNN.
func (f Field) Encode() string {
	italic, bold := "N", "N"
	if f.Italic {
		italic = "I"
	}
	if f.Bold {
		bold = "B"
	}
	line := fmt.Sprintf("F%d \"%s\" %d %d %d %s %s %s %s%s%s",
		f.Number, f.Text, f.Position.X, f.Position.Y, f.Size,
		f.Orientation, f.Visibility, f.HJustify, f.VJustify, italic, bold)
	if f.Number >= FirstUserField {
		line += fmt.Sprintf(" \"%s\"", f.Name)
	}
	return line
}

// decodeField parses the tokens of an F-line. The first token is "F<n>".
func decodeField(tokens []string) (Field, error) {
	if len(tokens) < 2 {
		return Field{}, fmt.Errorf("%w: field line has %d values", ErrMalformedLine, len(tokens))
	}

	var number int
	if _, err := fmt.Sscanf(tokens[0], "F%d", &number); err != nil {
		return Field{}, fmt.Errorf("%w: field tag %q", ErrMalformedLine, tokens[0])
	}

	f := NewField(number, tokens[1])
	ints := []*int{&f.Position.X, &f.Position.Y, &f.Size}
	for i, dst := range ints {
		idx := 2 + i
		if idx >= len(tokens) {
			break
		}
		v, err := atoi(tokens[idx])
		if err != nil {
			return Field{}, err
		}
		*dst = v
	}
	if len(tokens) > 5 {
		f.Orientation = TextOrientation(tokens[5])
	}
	if len(tokens) > 6 {
		f.Visibility = Visibility(tokens[6])
	}
	if len(tokens) > 7 {
		f.HJustify = Justify(tokens[7])
	}
	if len(tokens) > 8 && tokens[8] != "" {
		style := tokens[8]
		f.VJustify = Justify(style[:1])
		f.Italic = len(style) > 1 && style[1] == 'I'
		f.Bold = len(style) > 2 && style[2] == 'B'
	}
	if len(tokens) > 9 {
		f.Name = tokens[9]
	}

	if err := f.Validate(); err != nil {
		return Field{}, err
	}
	return f, nil
}
