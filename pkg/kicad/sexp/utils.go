package sexp

import (
	"fmt"
	"strconv"
)

// S-expression navigation helpers

// NodeName returns the leading symbol of a list, e.g. "at" for (at 1 2).
func NodeName(n Node) (string, error) {
	l, ok := n.(List)
	if !ok {
		return "", fmt.Errorf("expected list, got %T", n)
	}
	if len(l) == 0 {
		return "", fmt.Errorf("empty list has no name")
	}
	sym, ok := l[0].(Symbol)
	if !ok {
		return "", fmt.Errorf("expected symbol at head of list, got %T", l[0])
	}
	return string(sym), nil
}

// FindNode returns the first direct child list whose name is key.
// Example: FindNode(node, "at") finds (at 100 50).
func FindNode(n Node, key string) (List, bool) {
	l, ok := n.(List)
	if !ok {
		return nil, false
	}
	for _, item := range l {
		if name, err := NodeName(item); err == nil && name == key {
			return item.(List), true
		}
	}
	return nil, false
}

// FindAllNodes returns every direct child list whose name is key.
func FindAllNodes(n Node, key string) []List {
	var results []List
	l, ok := n.(List)
	if !ok {
		return results
	}
	for _, item := range l {
		if name, err := NodeName(item); err == nil && name == key {
			results = append(results, item.(List))
		}
	}
	return results
}

// HasSymbol reports whether a bare symbol appears among the list's direct
// children, e.g. HasSymbol((pin_numbers hide), "hide").
func HasSymbol(n Node, sym string) bool {
	l, ok := n.(List)
	if !ok {
		return false
	}
	for _, item := range l[min(1, len(l)):] {
		if s, ok := item.(Symbol); ok && string(s) == sym {
			return true
		}
	}
	return false
}

// Typed value extraction helpers

// GetString returns the text of the atom at index (0 is the list name).
func GetString(n Node, index int) (string, error) {
	l, ok := n.(List)
	if !ok {
		return "", fmt.Errorf("expected list, got leaf")
	}
	if index < 0 || index >= len(l) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(l))
	}
	if !l[index].IsLeaf() {
		return "", fmt.Errorf("expected atom at index %d, got list", index)
	}
	return Text(l[index]), nil
}

// GetFloat returns the numeric value of the atom at index.
func GetFloat(n Node, index int) (float64, error) {
	l, ok := n.(List)
	if ok && index >= 0 && index < len(l) {
		if num, isNum := l[index].(Number); isNum {
			return float64(num), nil
		}
	}

	str, err := GetString(n, index)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", str, err)
	}
	return val, nil
}

// GetInt returns the atom at index as an int; fractional values are rejected.
func GetInt(n Node, index int) (int, error) {
	f, err := GetFloat(n, index)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("expected integer at index %d, got %v", index, f)
	}
	return int(f), nil
}
