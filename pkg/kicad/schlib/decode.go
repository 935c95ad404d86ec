package schlib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxLineLength = 1024 * 1024

type decodeState int

const (
	stateTop decodeState = iota
	stateDef
	stateFPList
	stateDraw
	stateSkip // rest of a failed record
)

// libDecoder holds the state of one .lib pass.
type libDecoder struct {
	file  string
	lib   *Library
	errs  ParseErrors
	state decodeState
	cur   *Symbol
	start int // line of the current DEF
}

func (d *libDecoder) fail(line int, name string, err error) {
	d.errs = append(d.errs, &RecordError{File: d.file, Line: line, Name: name, Err: err})
}

// abort records err against the current record and skips to its ENDDEF.
func (d *libDecoder) abort(line int, err error) {
	name := ""
	if d.cur != nil {
		name = d.cur.Name()
	}
	d.fail(line, name, err)
	d.cur = nil
	d.state = stateSkip
}

func (d *libDecoder) begin(line int, tokens []string) {
	d.start = line
	sym, err := decodeDef(tokens)
	if err != nil {
		name := ""
		if len(tokens) > 1 {
			name = tokens[1]
		}
		d.fail(line, name, err)
		d.cur = nil
		d.state = stateSkip
		return
	}
	d.cur = sym
	d.state = stateDef
}

func (d *libDecoder) finish(line int) {
	if err := d.lib.Add(d.cur); err != nil {
		d.fail(line, d.cur.Name(), err)
	}
	d.cur = nil
	d.state = stateTop
}

func (d *libDecoder) unterminated(line int) {
	d.fail(d.start, d.cur.Name(), fmt.Errorf("%w: DEF at line %d has no ENDDEF before line %d", ErrUnterminatedRecord, d.start, line))
	d.cur = nil
}

func (d *libDecoder) line(n int, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	if d.state == stateTop {
		if strings.HasPrefix(trimmed, "DEF ") {
			d.decodeTokens(n, trimmed, d.begin)
		}
		// Header, comments and footer are ignored.
		return
	}

	// DEF and ENDDEF bracket records in every other state.
	if strings.HasPrefix(trimmed, "DEF ") {
		if d.state != stateSkip {
			d.unterminated(n)
		}
		d.decodeTokens(n, trimmed, d.begin)
		return
	}
	if trimmed == "ENDDEF" {
		if d.state == stateSkip {
			d.state = stateTop
			return
		}
		d.finish(n)
		return
	}

	switch d.state {
	case stateSkip:
		return

	case stateFPList:
		if trimmed == "$ENDFPLIST" {
			d.state = stateDef
			return
		}
		d.cur.AddFilter(trimmed)

	case stateDraw:
		if trimmed == "ENDDRAW" {
			d.state = stateDef
			return
		}
		d.decodeTokens(n, trimmed, func(n int, tokens []string) {
			prim, err := decodePrimitive(tokens)
			if err != nil {
				d.abort(n, err)
				return
			}
			d.cur.AddItem(prim)
		})

	case stateDef:
		switch {
		case trimmed == "$FPLIST":
			d.state = stateFPList
		case trimmed == "DRAW":
			d.state = stateDraw
		case strings.HasPrefix(trimmed, "ALIAS"):
			for _, name := range strings.Fields(trimmed)[1:] {
				if err := d.cur.AddAlias(Description{Name: name}); err != nil {
					d.abort(n, err)
					return
				}
			}
		case isFieldLine(trimmed):
			d.decodeTokens(n, trimmed, func(n int, tokens []string) {
				f, err := decodeField(tokens)
				if err == nil {
					err = d.cur.SetField(f)
				}
				if err != nil {
					d.abort(n, err)
				}
			})
		}
		// Other record lines (comments, unsupported headers) are ignored.
	}
}

// decodeTokens splits a line and hands the words to fn, aborting the
// current record on a tokenizer error.
func (d *libDecoder) decodeTokens(n int, text string, fn func(int, []string)) {
	tokens, err := splitLine(text)
	if err != nil {
		if d.state == stateTop {
			d.fail(n, "", err)
			d.state = stateSkip
			return
		}
		d.abort(n, err)
		return
	}
	fn(n, tokens)
}

func isFieldLine(s string) bool {
	return len(s) > 1 && s[0] == 'F' && s[1] >= '0' && s[1] <= '9'
}

// Decode reads a .lib stream. Records that fail to decode are skipped and
// reported in the returned ParseErrors; every other record is kept.
func Decode(r io.Reader, name string) (*Library, error) {
	return decodeLib(r, name, "")
}

func decodeLib(r io.Reader, name, file string) (*Library, error) {
	d := &libDecoder{file: file, lib: NewLibrary(name)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	n := 0
	for scanner.Scan() {
		n++
		d.line(n, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	switch d.state {
	case stateDef, stateFPList, stateDraw:
		d.unterminated(n + 1)
	}

	return d.lib, d.errs.orNil()
}

// DecodeDoc reads a .dcm stream and applies each $CMP entry to the symbol or
// alias of the same name in lib. Entries for unknown names are ignored.
func DecodeDoc(r io.Reader, lib *Library) error {
	return decodeDoc(r, lib, "")
}

func decodeDoc(r io.Reader, lib *Library, file string) error {
	var (
		errs  ParseErrors
		cur   *Description
		start int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimRight(scanner.Text(), "\r")
		tag, rest, _ := strings.Cut(text, " ")

		switch {
		case tag == "$CMP":
			if cur != nil {
				errs = append(errs, &RecordError{File: file, Line: start, Name: cur.Name,
					Err: fmt.Errorf("%w: $CMP without $ENDCMP", ErrUnterminatedRecord)})
			}
			cur = &Description{Name: strings.TrimSpace(rest)}
			start = n
		case cur == nil:
			// Header, comments and footer.
		case tag == "$ENDCMP":
			lib.applyDoc(*cur)
			cur = nil
		case tag == "D":
			cur.Description = strings.TrimSpace(rest)
		case tag == "K":
			cur.Keywords = strings.TrimSpace(rest)
		case tag == "F":
			cur.Datasheet = strings.TrimSpace(rest)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if cur != nil {
		errs = append(errs, &RecordError{File: file, Line: start, Name: cur.Name,
			Err: fmt.Errorf("%w: $CMP without $ENDCMP", ErrUnterminatedRecord)})
	}
	return errs.orNil()
}

// DocPath returns the .dcm path that accompanies a .lib path.
func DocPath(libPath string) string {
	return strings.TrimSuffix(libPath, filepath.Ext(libPath)) + ".dcm"
}

// Load reads a .lib file and, when present, its companion .dcm file. The
// library is named after the file. I/O errors are returned as they are;
// decode failures come back as ParseErrors alongside the partial library.
func Load(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	lib, err := decodeLib(f, name, path)
	var errs ParseErrors
	if err != nil && !errors.As(err, &errs) {
		return nil, err
	}

	docPath := DocPath(path)
	df, err := os.Open(docPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return lib, errs.orNil()
	case err != nil:
		return nil, err
	}
	defer df.Close()

	if err := decodeDoc(df, lib, docPath); err != nil {
		var docErrs ParseErrors
		if !errors.As(err, &docErrs) {
			return nil, err
		}
		errs = append(errs, docErrs...)
	}
	return lib, errs.orNil()
}
