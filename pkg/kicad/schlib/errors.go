package schlib

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned when a constructor or setter receives a
	// value that does not satisfy the model's schema.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateAlias is returned by Symbol.AddAlias when the name is
	// already used by the symbol or one of its aliases.
	ErrDuplicateAlias = errors.New("duplicate alias")

	// ErrDuplicateSymbol is returned by Library.Add on a name collision.
	ErrDuplicateSymbol = errors.New("duplicate symbol")

	// ErrUnknownPrimitiveTag is returned for a DRAW line with an unsupported tag.
	ErrUnknownPrimitiveTag = errors.New("unknown primitive tag")

	// ErrUnterminatedRecord is returned for a DEF without a matching ENDDEF.
	ErrUnterminatedRecord = errors.New("unterminated record")

	// ErrMalformedLine is returned when a line has missing or unparsable values.
	ErrMalformedLine = errors.New("malformed line")
)

// RecordError describes a record that could not be decoded.
type RecordError struct {
	File string
	Line int    // line where the failure was detected, 0 if unknown
	Name string // symbol name, if the DEF line was readable
	Err  error
}

func (e *RecordError) Error() string {
	var parts []string
	if e.File != "" {
		parts = append(parts, e.File)
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("%d", e.Line))
	}
	if e.Name != "" {
		parts = append(parts, "symbol "+e.Name)
	}
	parts = append(parts, e.Err.Error())
	return strings.Join(parts, ": ")
}

func (e *RecordError) Unwrap() error { return e.Err }

// ParseErrors collects every record that failed while decoding a file.
// Records decoded successfully are kept in the returned library.
type ParseErrors []*RecordError

func (p ParseErrors) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	msgs := make([]string, len(p))
	for i, e := range p {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d records failed to parse:\n%s", len(p), strings.Join(msgs, "\n"))
}

func (p ParseErrors) Unwrap() []error {
	errs := make([]error, len(p))
	for i, e := range p {
		errs[i] = e
	}
	return errs
}

func (p ParseErrors) orNil() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
