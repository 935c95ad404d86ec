package kicadsym

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
	"github.com/OpenTraceLab/symlib/pkg/kicad/sexp"
)

// mmPerMil converts .kicad_sym millimetres to legacy mils.
const mmPerMil = 0.0254

func toMils(mm float64) int {
	return int(math.Round(mm / mmPerMil))
}

var fixedFields = map[string]int{
	"Reference": schlib.FieldReference,
	"Value":     schlib.FieldValue,
	"Footprint": schlib.FieldFootprint,
	"Datasheet": schlib.FieldDatasheet,
}

var pinTypes = map[string]schlib.ElectricalType{
	"input":          schlib.Input,
	"output":         schlib.Output,
	"bidirectional":  schlib.Bidirectional,
	"tri_state":      schlib.Tristate,
	"passive":        schlib.Passive,
	"unspecified":    schlib.Unspecified,
	"free":           schlib.Unspecified,
	"power_in":       schlib.PowerInput,
	"power_out":      schlib.PowerOutput,
	"open_collector": schlib.OpenCollector,
	"open_emitter":   schlib.OpenEmitter,
	"no_connect":     schlib.NotConnected,
}

var pinStyles = map[string]schlib.PinStyle{
	"line":            schlib.StyleLine,
	"inverted":        schlib.StyleInverted,
	"clock":           schlib.StyleClock,
	"input_low":       schlib.StyleInputLow,
	"clock_low":       schlib.StyleClockLow,
	"output_low":      schlib.StyleOutputLow,
	"edge_clock_high": schlib.StyleFallingEdge,
	"non_logic":       schlib.StyleNonLogic,
}

var fills = map[string]schlib.Fill{
	"none":       schlib.FillNone,
	"outline":    schlib.FillForeground,
	"color":      schlib.FillForeground,
	"background": schlib.FillBackground,
}

type property struct {
	key   string
	value string
	node  sexp.List
}

func properties(node sexp.List) []property {
	var props []property
	for _, pn := range sexp.FindAllNodes(node, "property") {
		key, err := sexp.GetString(pn, 1)
		if err != nil {
			continue
		}
		value, _ := sexp.GetString(pn, 2)
		props = append(props, property{key: key, value: value, node: pn})
	}
	return props
}

// isHidden handles both the bare "hide" flag and the (hide yes) form.
func isHidden(node sexp.List) bool {
	if sexp.HasSymbol(node, "hide") {
		return true
	}
	if h, found := sexp.FindNode(node, "hide"); found {
		v, _ := sexp.GetString(h, 1)
		return v == "yes"
	}
	return false
}

// textSize returns the font height of an (effects ...) node in mils.
func textSize(effects sexp.List) (int, bool) {
	font, found := sexp.FindNode(effects, "font")
	if !found {
		return 0, false
	}
	size, found := sexp.FindNode(font, "size")
	if !found {
		return 0, false
	}
	h, err := sexp.GetFloat(size, 1)
	if err != nil {
		return 0, false
	}
	return toMils(h), true
}

func parseField(p property, number int) (schlib.Field, error) {
	f := schlib.NewField(number, p.value)
	if number >= schlib.FirstUserField {
		f.Name = p.key
	}

	if atNode, found := sexp.FindNode(p.node, "at"); found {
		pos, angle, err := getPosition(atNode)
		if err != nil {
			return schlib.Field{}, err
		}
		f.Position = pos
		if angle == 90 || angle == 270 {
			f.Orientation = schlib.Vertical
		}
	}

	hidden := isHidden(p.node)
	if effects, found := sexp.FindNode(p.node, "effects"); found {
		hidden = hidden || isHidden(effects)
		if size, ok := textSize(effects); ok {
			f.Size = size
		}
		if font, found := sexp.FindNode(effects, "font"); found {
			f.Italic = sexp.HasSymbol(font, "italic")
			f.Bold = sexp.HasSymbol(font, "bold")
		}
		if just, found := sexp.FindNode(effects, "justify"); found {
			for _, j := range just[1:] {
				switch sexp.Text(j) {
				case "left":
					f.HJustify = schlib.JustifyLeft
				case "right":
					f.HJustify = schlib.JustifyRight
				case "top":
					f.VJustify = schlib.JustifyTop
				case "bottom":
					f.VJustify = schlib.JustifyBottom
				}
			}
		}
	}
	if hidden {
		f.Visibility = schlib.Invisible
	}

	if err := f.Validate(); err != nil {
		return schlib.Field{}, fmt.Errorf("property %s: %w", p.key, err)
	}
	return f, nil
}

// getPosition extracts position (in mils) and angle from an (at X Y [angle])
// node.
func getPosition(s sexp.List) (schlib.Point, int, error) {
	x, err := sexp.GetFloat(s, 1)
	if err != nil {
		return schlib.Point{}, 0, fmt.Errorf("failed to parse X coordinate: %w", err)
	}
	y, err := sexp.GetFloat(s, 2)
	if err != nil {
		return schlib.Point{}, 0, fmt.Errorf("failed to parse Y coordinate: %w", err)
	}

	angle := 0
	if len(s) > 3 {
		a, err := sexp.GetFloat(s, 3)
		if err == nil {
			angle = (int(math.Round(a))%360 + 360) % 360
		}
	}
	return schlib.Point{X: toMils(x), Y: toMils(y)}, angle, nil
}

// getPositionXY extracts just X,Y (in mils) from nodes like (start X Y).
func getPositionXY(s sexp.List) (schlib.Point, error) {
	p, _, err := getPosition(s)
	return p, err
}

// unitIndex splits the "<name>_<unit>_<convert>" name of a nested unit.
func unitIndex(name string) (unit, convert int, err error) {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: unit name %q", ErrUnsupported, name)
	}
	convert, err = strconv.Atoi(name[i+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: unit name %q", ErrUnsupported, name)
	}
	rest := name[:i]
	unit, err = strconv.Atoi(rest[strings.LastIndex(rest, "_")+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: unit name %q", ErrUnsupported, name)
	}
	return unit, convert, nil
}

// shapeAttrs reads stroke width and fill type into attrs.
func shapeAttrs(node sexp.List, attrs schlib.Attrs) (schlib.Attrs, error) {
	if stroke, found := sexp.FindNode(node, "stroke"); found {
		if w, found := sexp.FindNode(stroke, "width"); found {
			if v, err := sexp.GetFloat(w, 1); err == nil {
				attrs.Thickness = toMils(v)
			}
		}
	}
	if fill, found := sexp.FindNode(node, "fill"); found {
		if t, found := sexp.FindNode(fill, "type"); found {
			kind, _ := sexp.GetString(t, 1)
			f, ok := fills[kind]
			if !ok {
				return attrs, fmt.Errorf("%w: fill type %q", ErrUnsupported, kind)
			}
			attrs.Fill = f
		}
	}
	return attrs, nil
}

// parseRectangle parses a rectangle graphic element
func parseRectangle(node sexp.List, attrs schlib.Attrs) (schlib.Primitive, error) {
	var start, end schlib.Point
	if startNode, found := sexp.FindNode(node, "start"); found {
		p, err := getPositionXY(startNode)
		if err != nil {
			return nil, err
		}
		start = p
	}
	if endNode, found := sexp.FindNode(node, "end"); found {
		p, err := getPositionXY(endNode)
		if err != nil {
			return nil, err
		}
		end = p
	}
	attrs, err := shapeAttrs(node, attrs)
	if err != nil {
		return nil, err
	}
	return schlib.NewRectangle(start.X, start.Y, end.X, end.Y, attrs)
}

// parseGraphicPolyline parses a polyline graphic element
func parseGraphicPolyline(node sexp.List, attrs schlib.Attrs) (schlib.Primitive, error) {
	var points []schlib.Point
	if ptsNode, found := sexp.FindNode(node, "pts"); found {
		for _, xy := range sexp.FindAllNodes(ptsNode, "xy") {
			p, err := getPositionXY(xy)
			if err != nil {
				return nil, err
			}
			points = append(points, p)
		}
	}
	attrs, err := shapeAttrs(node, attrs)
	if err != nil {
		return nil, err
	}
	return schlib.NewLine(attrs, points...)
}

// parsePin parses a pin definition
func parsePin(node sexp.List, attrs schlib.Attrs) (schlib.Primitive, error) {
	typ, _ := sexp.GetString(node, 1)
	style, _ := sexp.GetString(node, 2)

	et, ok := pinTypes[typ]
	if !ok {
		return nil, fmt.Errorf("%w: pin type %q", ErrUnsupported, typ)
	}
	ps, ok := pinStyles[style]
	if !ok {
		return nil, fmt.Errorf("%w: pin style %q", ErrUnsupported, style)
	}

	pin := &schlib.Pin{
		Name:        "~",
		Orientation: schlib.PinRight,
		Type:        et,
		Style:       ps,
		Hidden:      isHidden(node),
		NameSize:    schlib.DefaultTextSize,
		NumberSize:  schlib.DefaultTextSize,
		Unit:        attrs.Unit,
		Convert:     attrs.Convert,
	}

	if atNode, found := sexp.FindNode(node, "at"); found {
		pos, angle, err := getPosition(atNode)
		if err != nil {
			return nil, err
		}
		pin.Position = pos
		switch angle {
		case 0:
			pin.Orientation = schlib.PinRight
		case 90:
			pin.Orientation = schlib.PinUp
		case 180:
			pin.Orientation = schlib.PinLeft
		case 270:
			pin.Orientation = schlib.PinDown
		default:
			return nil, fmt.Errorf("%w: pin angle %d", ErrUnsupported, angle)
		}
	}

	if lenNode, found := sexp.FindNode(node, "length"); found {
		v, err := sexp.GetFloat(lenNode, 1)
		if err != nil {
			return nil, err
		}
		pin.Length = toMils(v)
	}

	if nameNode, found := sexp.FindNode(node, "name"); found {
		if name, _ := sexp.GetString(nameNode, 1); name != "" {
			pin.Name = name
		}
		if effects, found := sexp.FindNode(nameNode, "effects"); found {
			if size, ok := textSize(effects); ok {
				pin.NameSize = size
			}
		}
	}

	if numNode, found := sexp.FindNode(node, "number"); found {
		pin.Number, _ = sexp.GetString(numNode, 1)
		if effects, found := sexp.FindNode(numNode, "effects"); found {
			if size, ok := textSize(effects); ok {
				pin.NumberSize = size
			}
		}
	}

	if err := pin.Validate(); err != nil {
		return nil, err
	}
	return pin, nil
}
