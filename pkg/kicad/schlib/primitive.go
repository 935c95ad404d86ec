package schlib

import (
	"fmt"
	"strconv"
	"strings"
)

// Primitive tags inside a DRAW block.
const (
	TagLine      = "P"
	TagRectangle = "S"
	TagPin       = "X"
)

// Fill mode of a closed shape.
type Fill string

const (
	FillNone       Fill = "N"
	FillForeground Fill = "F"
	FillBackground Fill = "f"
)

// Attrs are the attributes shared by drawn shapes.
type Attrs struct {
	Unit      int // alternate body of a multi-unit part, from 1
	Convert   int // alternate (De Morgan) representation, from 1
	Thickness int
	Fill      Fill
}

// DefaultAttrs returns unit 1, representation 1, zero thickness and no fill.
func DefaultAttrs() Attrs {
	return Attrs{Unit: 1, Convert: 1, Fill: FillNone}
}

// Validate checks the shared attribute ranges.
func (a Attrs) Validate() error {
	if a.Unit < 1 {
		return invalidf("unit %d must be at least 1", a.Unit)
	}
	if a.Convert < 1 {
		return invalidf("convert %d must be at least 1", a.Convert)
	}
	if a.Thickness < 0 {
		return invalidf("thickness %d is negative", a.Thickness)
	}
	switch a.Fill {
	case FillNone, FillForeground, FillBackground:
	default:
		return invalidf("fill %q", a.Fill)
	}
	return nil
}

// Primitive is one graphical item of a DRAW block.
type Primitive interface {
	// Tag returns the leading line tag (P, S or X)
	Tag() string

	// Encode returns the DRAW-block line
	Encode() string

	// Validate checks the primitive's attributes
	Validate() error
}

// Line is an open or closed polyline.
type Line struct {
	Points []Point
	Attrs
}

// NewLine creates a polyline through points.
func NewLine(attrs Attrs, points ...Point) (*Line, error) {
	l := &Line{Points: append([]Point(nil), points...), Attrs: attrs}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// AddPoint appends a vertex.
func (l *Line) AddPoint(p Point) {
	l.Points = append(l.Points, p)
}

func (l *Line) Tag() string     { return TagLine }
func (l *Line) Validate() error { return l.Attrs.Validate() }

// Encode renders P <n> <unit> <convert> <thickness> <x y>... <fill>.
func (l *Line) Encode() string {
	parts := []string{
		TagLine,
		strconv.Itoa(len(l.Points)),
		strconv.Itoa(l.Unit),
		strconv.Itoa(l.Convert),
		strconv.Itoa(l.Thickness),
	}
	for _, p := range l.Points {
		parts = append(parts, strconv.Itoa(p.X), strconv.Itoa(p.Y))
	}
	parts = append(parts, string(l.Fill))
	return strings.Join(parts, " ")
}

// Rectangle is an axis-aligned box given by two opposite corners.
type Rectangle struct {
	Start Point
	End   Point
	Attrs
}

// NewRectangle creates a rectangle from corner (x1, y1) to (x2, y2).
func NewRectangle(x1, y1, x2, y2 int, attrs Attrs) (*Rectangle, error) {
	r := &Rectangle{Start: Point{x1, y1}, End: Point{x2, y2}, Attrs: attrs}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rectangle) Tag() string     { return TagRectangle }
func (r *Rectangle) Validate() error { return r.Attrs.Validate() }

// Encode renders S <x1> <y1> <x2> <y2> <unit> <convert> <thickness> <fill>.
func (r *Rectangle) Encode() string {
	return fmt.Sprintf("S %d %d %d %d %d %d %d %s",
		r.Start.X, r.Start.Y, r.End.X, r.End.Y,
		r.Unit, r.Convert, r.Thickness, r.Fill)
}

// PinOrientation is the direction a pin points in, from its connection point.
type PinOrientation string

const (
	PinLeft  PinOrientation = "L"
	PinRight PinOrientation = "R"
	PinUp    PinOrientation = "U"
	PinDown  PinOrientation = "D"
)

// ElectricalType is a pin's electrical function.
type ElectricalType string

const (
	Input         ElectricalType = "I"
	Output        ElectricalType = "O"
	Bidirectional ElectricalType = "B"
	Tristate      ElectricalType = "T"
	Passive       ElectricalType = "P"
	Unspecified   ElectricalType = "U"
	PowerInput    ElectricalType = "W"
	PowerOutput   ElectricalType = "w"
	OpenCollector ElectricalType = "C"
	OpenEmitter   ElectricalType = "E"
	NotConnected  ElectricalType = "N"
)

var electricalTypeNames = map[ElectricalType]string{
	Input:         "Input",
	Output:        "Output",
	Bidirectional: "Bidirectional",
	Tristate:      "Tristate",
	Passive:       "Passive",
	Unspecified:   "Unspecified",
	PowerInput:    "Power Input",
	PowerOutput:   "Power Output",
	OpenCollector: "Open Collector",
	OpenEmitter:   "Open Emitter",
	NotConnected:  "No Connect",
}

func (t ElectricalType) String() string {
	if name, ok := electricalTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ElectricalType(%q)", string(t))
}

// PinStyle is a pin's graphic style. The zero value is a plain line.
type PinStyle string

const (
	StyleLine        PinStyle = ""
	StyleInverted    PinStyle = "I"
	StyleClock       PinStyle = "C"
	StyleInputLow    PinStyle = "L"
	StyleClockLow    PinStyle = "CL"
	StyleOutputLow   PinStyle = "V"
	StyleFallingEdge PinStyle = "F"
	StyleNonLogic    PinStyle = "X"
)

var pinStyleNames = map[PinStyle]string{
	StyleLine:        "Normal",
	StyleInverted:    "Inverted",
	StyleClock:       "Clock",
	StyleInputLow:    "Input Low",
	StyleClockLow:    "Clock Low",
	StyleOutputLow:   "Output Low",
	StyleFallingEdge: "Falling Edge Clock",
	StyleNonLogic:    "Non-logic",
}

func (s PinStyle) String() string {
	if name, ok := pinStyleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PinStyle(%q)", string(s))
}

// Pin is a symbol pin.
type Pin struct {
	Name        string // "~" for an unnamed pin
	Number      string
	Position    Point
	Length      int
	Orientation PinOrientation
	Type        ElectricalType
	Style       PinStyle
	Hidden      bool
	NameSize    int
	NumberSize  int
	Unit        int
	Convert     int
}

// NewPin creates a passive pin of length 100 pointing right with default
// text sizes. Adjust the returned pin and call Validate after changing it.
func NewPin(name, number string, x, y int) (*Pin, error) {
	p := &Pin{
		Name:        name,
		Number:      number,
		Position:    Point{x, y},
		Length:      100,
		Orientation: PinRight,
		Type:        Passive,
		NameSize:    DefaultTextSize,
		NumberSize:  DefaultTextSize,
		Unit:        1,
		Convert:     1,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pin) Tag() string { return TagPin }

// Validate checks every enumerated attribute. It never modifies the pin.
func (p *Pin) Validate() error {
	if p.Name == "" || strings.ContainsAny(p.Name, " \t\r\n\"") {
		return invalidf("pin name %q", p.Name)
	}
	if p.Number == "" || strings.ContainsAny(p.Number, " \t\r\n\"") {
		return invalidf("pin %s number %q", p.Name, p.Number)
	}
	switch p.Orientation {
	case PinLeft, PinRight, PinUp, PinDown:
	default:
		return invalidf("pin %s orientation %q", p.Number, p.Orientation)
	}
	if _, ok := electricalTypeNames[p.Type]; !ok {
		return invalidf("pin %s electrical type %q", p.Number, string(p.Type))
	}
	if _, ok := pinStyleNames[p.Style]; !ok {
		return invalidf("pin %s style %q", p.Number, string(p.Style))
	}
	if p.NameSize < 0 || p.NumberSize < 0 {
		return invalidf("pin %s has negative text size", p.Number)
	}
	if p.Unit < 1 || p.Convert < 1 {
		return invalidf("pin %s unit %d convert %d must be at least 1", p.Number, p.Unit, p.Convert)
	}
	return nil
}

// Encode renders X <name> <number> <x> <y> <length> <orientation>
// <nameSize> <numberSize> <unit> <convert> <type> [<style>].
// The style word is omitted for a plain visible pin; hidden pins prefix it
// with N.
func (p *Pin) Encode() string {
	line := fmt.Sprintf("X %s %s %d %d %d %s %d %d %d %d %s",
		p.Name, p.Number, p.Position.X, p.Position.Y, p.Length, p.Orientation,
		p.NameSize, p.NumberSize, p.Unit, p.Convert, string(p.Type))
	style := string(p.Style)
	if p.Hidden {
		style = "N" + style
	}
	if style != "" {
		line += " " + style
	}
	return line
}

func decodePrimitive(tokens []string) (Primitive, error) {
	switch tokens[0] {
	case TagLine:
		return decodeLine(tokens)
	case TagRectangle:
		return decodeRectangle(tokens)
	case TagPin:
		return decodePin(tokens)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitiveTag, tokens[0])
	}
}

func decodeLine(tokens []string) (Primitive, error) {
	if len(tokens) < 5 {
		return nil, fmt.Errorf("%w: polyline has %d values", ErrMalformedLine, len(tokens))
	}
	head, err := atois(tokens[1:5])
	if err != nil {
		return nil, err
	}
	n := head[0]
	if n < 0 || len(tokens) < 5+2*n {
		return nil, fmt.Errorf("%w: polyline declares %d points", ErrMalformedLine, n)
	}
	coords, err := atois(tokens[5 : 5+2*n])
	if err != nil {
		return nil, err
	}

	attrs := Attrs{Unit: head[1], Convert: head[2], Thickness: head[3], Fill: FillNone}
	if len(tokens) > 5+2*n {
		attrs.Fill = Fill(tokens[5+2*n])
	}
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{coords[2*i], coords[2*i+1]}
	}
	return NewLine(attrs, points...)
}

func decodeRectangle(tokens []string) (Primitive, error) {
	if len(tokens) < 8 {
		return nil, fmt.Errorf("%w: rectangle has %d values", ErrMalformedLine, len(tokens))
	}
	v, err := atois(tokens[1:8])
	if err != nil {
		return nil, err
	}
	attrs := Attrs{Unit: v[4], Convert: v[5], Thickness: v[6], Fill: FillNone}
	if len(tokens) > 8 {
		attrs.Fill = Fill(tokens[8])
	}
	return NewRectangle(v[0], v[1], v[2], v[3], attrs)
}

func decodePin(tokens []string) (Primitive, error) {
	if len(tokens) < 12 {
		return nil, fmt.Errorf("%w: pin has %d values", ErrMalformedLine, len(tokens))
	}
	v, err := atois(tokens[3:6])
	if err != nil {
		return nil, err
	}
	w, err := atois(tokens[7:11])
	if err != nil {
		return nil, err
	}

	p := &Pin{
		Name:        tokens[1],
		Number:      tokens[2],
		Position:    Point{v[0], v[1]},
		Length:      v[2],
		Orientation: PinOrientation(tokens[6]),
		NameSize:    w[0],
		NumberSize:  w[1],
		Unit:        w[2],
		Convert:     w[3],
	}

	// Type and style are usually separate words; accept them joined too.
	kind := tokens[11]
	style := ""
	if len(tokens) > 12 {
		style = tokens[12]
	} else if len(kind) > 1 {
		kind, style = kind[:1], kind[1:]
	}
	p.Type = ElectricalType(kind)
	if strings.HasPrefix(style, "N") {
		p.Hidden = true
		style = style[1:]
	}
	p.Style = PinStyle(style)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func clonePrimitive(p Primitive) Primitive {
	switch v := p.(type) {
	case *Line:
		c := *v
		c.Points = append([]Point(nil), v.Points...)
		return &c
	case *Rectangle:
		c := *v
		return &c
	case *Pin:
		c := *v
		return &c
	}
	return p
}
