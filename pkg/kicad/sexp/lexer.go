package sexp

import (
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/v2/lexer"
)

// sexpLexer recognises every token class in one regular-expression pass.
// Rules are tried in order, so quoted strings win over bare atoms.
var sexpLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Atom", Pattern: `[^()\s]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	lexSymbols = sexpLexer.Symbols()

	tokLParen     = lexSymbols["LParen"]
	tokRParen     = lexSymbols["RParen"]
	tokString     = lexSymbols["String"]
	tokWhitespace = lexSymbols["Whitespace"]

	// Decimal with mandatory fraction, or a plain (optionally negative) integer.
	numberPattern = regexp.MustCompile(`^(?:[+-]?[0-9]+\.[0-9]+|-?[0-9]+)$`)
)

type tokenKind int

const (
	kindOpen tokenKind = iota
	kindClose
	kindNumber
	kindString
	kindSymbol
)

type token struct {
	kind  tokenKind
	value string
	pos   lexer.Position
}

// tokenize splits text into tokens, dropping whitespace.
func tokenize(text string) ([]token, error) {
	lex, err := sexpLexer.LexString("", text)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}

	var tokens []token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("lex: %w", err)
		}
		if tok.EOF() {
			return tokens, nil
		}

		switch tok.Type {
		case tokWhitespace:
			continue
		case tokLParen:
			tokens = append(tokens, token{kind: kindOpen, value: tok.Value, pos: tok.Pos})
		case tokRParen:
			tokens = append(tokens, token{kind: kindClose, value: tok.Value, pos: tok.Pos})
		case tokString:
			tokens = append(tokens, token{kind: kindString, value: tok.Value, pos: tok.Pos})
		default:
			kind := kindSymbol
			if numberPattern.MatchString(tok.Value) {
				kind = kindNumber
			}
			tokens = append(tokens, token{kind: kind, value: tok.Value, pos: tok.Pos})
		}
	}
}
