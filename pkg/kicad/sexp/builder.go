package sexp

import "strings"

// Builder assembles pretty-printed S-expression text incrementally.
// Groups may start on a new line, optionally one level deeper; items are
// rendered with Item.
type Builder struct {
	// IndentSize is the number of spaces per level (default 2).
	IndentSize int

	sb        strings.Builder
	indent    int
	needSpace bool
}

// NewBuilder creates a builder. A non-empty key opens the outermost group
// on the current line.
func NewBuilder(key string) *Builder {
	b := &Builder{IndentSize: 2}
	if key != "" {
		b.StartGroup(key, false, false)
	}
	return b
}

func (b *Builder) newline() {
	b.sb.WriteByte('\n')
	b.sb.WriteString(strings.Repeat(" ", b.IndentSize*b.indent))
	b.needSpace = false
}

// StartGroup opens "(key". With newline the group starts on a fresh line;
// indent additionally increases the nesting level first.
func (b *Builder) StartGroup(key string, newline, indent bool) {
	if newline && indent {
		b.indent++
	}
	if newline {
		b.newline()
	} else if b.needSpace {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteByte('(')
	b.sb.WriteString(key)
	b.needSpace = key != ""
}

// EndGroup closes the current group. With newline the ')' goes on its own
// line one level shallower.
func (b *Builder) EndGroup(newline bool) {
	if newline {
		b.Unindent()
		b.newline()
	}
	b.sb.WriteByte(')')
	b.needSpace = true
}

// AddItems appends items rendered with Item.
func (b *Builder) AddItems(newline, indent bool, items ...any) {
	if indent {
		b.indent++
	}
	if newline {
		b.newline()
	}
	for _, item := range items {
		b.writeAtom(Item(item, ""))
	}
}

// AddKeyed appends (key value).
func (b *Builder) AddKeyed(key string, value any, newline, indent bool) {
	if indent {
		b.indent++
	}
	if newline {
		b.newline()
	}
	b.writeAtom(Item(value, key))
}

// AddOptItem appends (key value) unless value is nil, zero, false or "".
func (b *Builder) AddOptItem(key string, value any, newline, indent bool) {
	switch v := value.(type) {
	case nil:
		return
	case bool:
		if !v {
			return
		}
	case int:
		if v == 0 {
			return
		}
	case float64:
		if v == 0 {
			return
		}
	case string:
		if v == "" {
			return
		}
	}
	b.AddKeyed(key, value, newline, indent)
}

// NewLine moves to a fresh line, optionally one level deeper.
func (b *Builder) NewLine(indent bool) {
	if indent {
		b.indent++
	}
	b.newline()
}

// Unindent decreases the nesting level, never below zero.
func (b *Builder) Unindent() {
	if b.indent > 0 {
		b.indent--
	}
}

func (b *Builder) writeAtom(s string) {
	if b.needSpace {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteString(s)
	b.needSpace = true
}

// String returns the text built so far.
func (b *Builder) String() string {
	return b.sb.String()
}
