package sexp

import (
	"fmt"
	"strings"
)

// FormatOptions controls Format.
type FormatOptions struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// MaxNesting is the deepest level at which a '(' starts a new line.
	// Lists nested deeper stay on their parent's line.
	MaxNesting int
}

// DefaultFormatOptions returns two-space indentation with line breaks down
// to nesting level 2.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{Indent: 2, MaxNesting: 2}
}

// Format re-tokenizes text and re-emits it with a newline and indentation
// before every '(' up to opts.MaxNesting. Atoms are copied verbatim, so
// numbers keep their original spelling.
func Format(text string, opts FormatOptions) (string, error) {
	if opts.Indent < 0 || opts.MaxNesting < 0 {
		return "", fmt.Errorf("invalid format options: indent %d, max nesting %d", opts.Indent, opts.MaxNesting)
	}

	tokens, err := tokenize(text)
	if err != nil {
		return "", err
	}

	var out []byte
	depth := 0

	for _, tok := range tokens {
		switch tok.kind {
		case kindOpen:
			if len(out) > 0 {
				if depth <= opts.MaxNesting {
					out = trimTrailingSpace(out)
					out = append(out, '\n')
					out = append(out, strings.Repeat(" ", opts.Indent*depth)...)
				} else if out[len(out)-1] == ')' {
					out = append(out, ' ')
				}
			}
			depth++
			out = append(out, '(')

		case kindClose:
			if depth == 0 {
				return "", fmt.Errorf("%w: unexpected ')' at %s", ErrUnbalancedParens, tok.pos)
			}
			out = trimTrailingSpace(out)
			depth--
			out = append(out, ')')

		default:
			if len(out) > 0 && out[len(out)-1] == ')' {
				out = append(out, ' ')
			}
			out = append(out, tok.value...)
			out = append(out, ' ')
		}
	}

	if depth != 0 {
		return "", fmt.Errorf("%w: %d list(s) left open at end of input", ErrUnbalancedParens, depth)
	}

	out = trimTrailingSpace(out)
	out = append(out, '\n')
	return string(out), nil
}

func trimTrailingSpace(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == ' ' {
		return b[:len(b)-1]
	}
	return b
}
