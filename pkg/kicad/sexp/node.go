// Package sexp provides the S-expression reader, writer and formatter used by
// the newer generation of KiCad file formats (.kicad_sym, .kicad_mod, ...).
//
// Trees are built from four node kinds: Number, String, Symbol and List.
// A parsed tree is a plain value; two trees are equal when their structure is
// equal (reflect.DeepEqual or Equal).
package sexp

import (
	"errors"
	"strings"
)

var (
	// ErrUnbalancedParens is returned when a ')' has no matching '(' or the
	// input ends inside an open list.
	ErrUnbalancedParens = errors.New("unbalanced parentheses")

	// ErrEmpty is returned by Parse when the input holds no expression.
	ErrEmpty = errors.New("no s-expression found")
)

// Node is a single S-expression: an atom or a list.
type Node interface {
	// IsLeaf returns true for atoms (Number, String, Symbol)
	IsLeaf() bool

	// String returns the single-line serialized form
	String() string
}

// Number is a numeric atom. Integral values are written without a decimal point.
type Number float64

// String is a quoted text atom.
type String string

// Symbol is a bare, unquoted token.
type Symbol string

// List is an ordered sequence of nodes.
type List []Node

func (Number) IsLeaf() bool { return true }
func (String) IsLeaf() bool { return true }
func (Symbol) IsLeaf() bool { return true }
func (List) IsLeaf() bool   { return false }

func (n Number) String() string { return Write(n) }
func (s String) String() string { return Write(s) }
func (s Symbol) String() string { return Write(s) }
func (l List) String() string   { return Write(l) }

// Len returns the number of elements in the list
func (l List) Len() int { return len(l) }

// Get returns the element at index, or nil when out of range
func (l List) Get(index int) Node {
	if index < 0 || index >= len(l) {
		return nil
	}
	return l[index]
}

// Text returns the textual value of an atom: the symbol name, the unquoted
// string, or the written number. Lists and nil yield "".
func Text(n Node) string {
	switch v := n.(type) {
	case Symbol:
		return string(v)
	case String:
		return string(v)
	case Number:
		return Write(v)
	default:
		return ""
	}
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av == bv
	}
	return false
}

// needsQuoting reports whether bare text would not survive a re-parse as a
// single atom.
func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\r\n\f\v()\"")
}
