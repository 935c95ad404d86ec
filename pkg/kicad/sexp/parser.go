package sexp

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// Parse parses text and returns its first top-level expression.
func Parse(text string) (Node, error) {
	nodes, err := ParseAll(text)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrEmpty
	}
	return nodes[0], nil
}

// ParseAll parses every top-level expression in text.
// No partial tree is returned on error.
func ParseAll(text string) ([]Node, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	var stack []List
	out := List{}

	for _, tok := range tokens {
		switch tok.kind {
		case kindOpen:
			stack = append(stack, out)
			out = List{}

		case kindClose:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected ')' at %s", ErrUnbalancedParens, tok.pos)
			}
			done := out
			out = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			out = append(out, done)

		case kindNumber:
			v, err := strconv.ParseFloat(tok.value, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at %s: %w", tok.value, tok.pos, err)
			}
			out = append(out, Number(v))

		case kindString:
			out = append(out, String(tok.value[1:len(tok.value)-1]))

		case kindSymbol:
			out = append(out, Symbol(tok.value))
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: %d list(s) left open at end of input", ErrUnbalancedParens, len(stack))
	}

	return []Node(out), nil
}

// ParseReader reads all of r and parses it with ParseAll.
func ParseReader(r io.Reader) ([]Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseAll(string(data))
}

// ParseFile reads and parses a file holding S-expressions.
func ParseFile(filename string) ([]Node, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseAll(string(data))
}
