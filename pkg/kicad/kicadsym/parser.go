// Package kicadsym reads KiCad 6+ .kicad_sym symbol libraries into the legacy
// symbol model, so the same conventions and writers apply to both formats.
//
// Only what the legacy format can express is kept: properties, pins,
// rectangles and polylines. Circles, arcs, text and beziers are skipped.
package kicadsym

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
	"github.com/OpenTraceLab/symlib/pkg/kicad/sexp"
)

// Minimum supported KiCad version for symbol libraries (6.0 = 20211014)
const MinSupportedVersion = 20211014

var (
	// ErrNotSymbolLibrary is returned when the root node is not
	// (kicad_symbol_lib ...).
	ErrNotSymbolLibrary = errors.New("not a KiCad symbol library")

	// ErrUnsupported is returned for constructs the legacy model cannot hold.
	ErrUnsupported = errors.New("unsupported construct")
)

// ParseFile reads a .kicad_sym file. The library is named after the file.
func ParseFile(filename string) (*schlib.Library, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return decode(file, name, filename)
}

// Decode reads a .kicad_sym library from r. Symbols that cannot be converted
// are skipped and reported in the returned schlib.ParseErrors.
func Decode(r io.Reader, name string) (*schlib.Library, error) {
	return decode(r, name, "")
}

func decode(r io.Reader, name, file string) (*schlib.Library, error) {
	nodes, err := sexp.ParseReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrNotSymbolLibrary)
	}

	root := nodes[0]
	rootName, err := sexp.NodeName(root)
	if err != nil || rootName != "kicad_symbol_lib" {
		return nil, fmt.Errorf("%w: root is %q", ErrNotSymbolLibrary, rootName)
	}
	if vNode, found := sexp.FindNode(root, "version"); found {
		version, err := sexp.GetInt(vNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse version: %w", err)
		}
		if version < MinSupportedVersion {
			return nil, fmt.Errorf("%w: version %d is older than %d", ErrUnsupported, version, MinSupportedVersion)
		}
	}

	lib := schlib.NewLibrary(name)
	var errs schlib.ParseErrors
	fail := func(symName string, err error) {
		errs = append(errs, &schlib.RecordError{File: file, Name: symName, Err: err})
	}

	// Derived symbols become aliases once every base symbol is known.
	type derived struct {
		parent string
		desc   schlib.Description
	}
	var pending []derived

	for _, node := range sexp.FindAllNodes(root, "symbol") {
		symName := symbolName(node)

		if ext, found := sexp.FindNode(node, "extends"); found {
			parent, _ := sexp.GetString(ext, 1)
			pending = append(pending, derived{parent: parent, desc: description(symName, node)})
			continue
		}

		sym, err := parseSymbol(node)
		if err != nil {
			fail(symName, err)
			continue
		}
		if err := lib.Add(sym); err != nil {
			fail(symName, err)
		}
	}

	for _, d := range pending {
		parent := lib.Get(d.parent)
		if parent == nil {
			fail(d.desc.Name, fmt.Errorf("%w: extends unknown symbol %q", ErrUnsupported, d.parent))
			continue
		}
		if other := lib.Get(d.desc.Name); other != nil {
			fail(d.desc.Name, fmt.Errorf("%w: %s already defined by %s", schlib.ErrDuplicateSymbol, d.desc.Name, other.Name()))
			continue
		}
		if err := parent.AddAlias(d.desc); err != nil {
			fail(d.desc.Name, err)
		}
	}

	if len(errs) == 0 {
		return lib, nil
	}
	return lib, errs
}

// symbolName returns the symbol name without any library prefix.
func symbolName(node sexp.List) string {
	name, _ := sexp.GetString(node, 1)
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// description collects the documentation properties of a symbol.
func description(name string, node sexp.List) schlib.Description {
	d := schlib.Description{Name: name}
	for _, p := range properties(node) {
		switch p.key {
		case "ki_description", "Description":
			d.Description = p.value
		case "ki_keywords":
			d.Keywords = p.value
		case "Datasheet":
			d.Datasheet = p.value
		}
	}
	return d
}

// parseSymbol converts one top-level (symbol ...) definition.
func parseSymbol(node sexp.List) (*schlib.Symbol, error) {
	opts := schlib.DefaultOptions()
	props := properties(node)
	for _, p := range props {
		if p.key == "Reference" && p.value != "" {
			opts.Designator = p.value
		}
	}

	if pnNode, found := sexp.FindNode(node, "pin_numbers"); found {
		opts.DrawPinNumbers = !isHidden(pnNode)
	}
	if pnNode, found := sexp.FindNode(node, "pin_names"); found {
		opts.DrawPinNames = !isHidden(pnNode)
		if offNode, found := sexp.FindNode(pnNode, "offset"); found {
			if v, err := sexp.GetFloat(offNode, 1); err == nil {
				opts.TextOffset = toMils(v)
			}
		}
	}
	if _, found := sexp.FindNode(node, "power"); found {
		opts.Power = true
	}

	sym, err := schlib.New(description(symbolName(node), node), opts)
	if err != nil {
		return nil, err
	}

	nextUser := schlib.FirstUserField
	for _, p := range props {
		number, ok := fixedFields[p.key]
		switch {
		case ok:
		case strings.HasPrefix(p.key, "ki_") || p.key == "Description":
			if p.key == "ki_fp_filters" {
				for _, f := range strings.Fields(p.value) {
					sym.AddFilter(f)
				}
			}
			continue
		default:
			number = nextUser
			nextUser++
		}

		f, err := parseField(p, number)
		if err != nil {
			return nil, err
		}
		if err := sym.SetField(f); err != nil {
			return nil, err
		}
	}

	units := 1
	for _, unitNode := range sexp.FindAllNodes(node, "symbol") {
		unitName, _ := sexp.GetString(unitNode, 1)
		unit, convert, err := unitIndex(unitName)
		if err != nil {
			return nil, err
		}
		units = max(units, unit)

		attrs := schlib.DefaultAttrs()
		attrs.Unit = max(unit, 1)
		attrs.Convert = max(convert, 1)
		if err := parseUnit(sym, unitNode, attrs); err != nil {
			return nil, err
		}
	}
	sym.Options.UnitCount = units

	return sym, nil
}

// parseUnit adds the drawable items of a nested unit symbol in file order.
func parseUnit(sym *schlib.Symbol, node sexp.List, attrs schlib.Attrs) error {
	for _, child := range node {
		name, err := sexp.NodeName(child)
		if err != nil {
			continue
		}
		item := child.(sexp.List)

		var prim schlib.Primitive
		switch name {
		case "rectangle":
			prim, err = parseRectangle(item, attrs)
		case "polyline":
			prim, err = parseGraphicPolyline(item, attrs)
		case "pin":
			prim, err = parsePin(item, attrs)
		default:
			continue
		}
		if err != nil {
			return err
		}
		sym.AddItem(prim)
	}
	return nil
}
