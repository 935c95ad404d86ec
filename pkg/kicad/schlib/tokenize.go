package schlib

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
)

// lineLexer splits a legacy library line into whitespace separated words,
// keeping quoted field text together.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Quoted", Pattern: `"[^"]*"`},
	{Name: "Word", Pattern: `[^\s"]+`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Stray", Pattern: `"`},
})

var (
	lineSymbols = lineLexer.Symbols()

	tokQuoted     = lineSymbols["Quoted"]
	tokWhitespace = lineSymbols["Whitespace"]
	tokStray      = lineSymbols["Stray"]
)

// splitLine returns the words of line with quotes removed from quoted text.
func splitLine(line string) ([]string, error) {
	lex, err := lineLexer.LexString("", line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}

	var words []string
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLine, err)
		}
		switch {
		case tok.EOF():
			return words, nil
		case tok.Type == tokWhitespace:
		case tok.Type == tokStray:
			return nil, fmt.Errorf("%w: unterminated quote at column %d", ErrMalformedLine, tok.Pos.Column)
		case tok.Type == tokQuoted:
			words = append(words, tok.Value[1:len(tok.Value)-1])
		default:
			words = append(words, tok.Value)
		}
	}
}

func atoi(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: expected integer, got %q", ErrMalformedLine, s)
	}
	return v, nil
}

// atois converts every word to an int.
func atois(words []string) ([]int, error) {
	out := make([]int, len(words))
	for i, w := range words {
		v, err := atoi(w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
