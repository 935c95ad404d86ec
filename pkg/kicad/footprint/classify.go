package footprint

import (
	"sort"
	"strings"

	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

// Status is the outcome of checking one footprint association.
type Status int

// Statuses in the order they are checked; the first that applies wins.
const (
	StatusEmpty Status = iota
	StatusMalformed
	StatusUnknownLibrary
	StatusUnknownFootprint
	StatusValid
)

var statusNames = []string{
	"empty",
	"malformed-pattern",
	"unknown-library",
	"unknown-footprint",
	"valid",
}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Split separates Library:Footprint. ok is false unless the text holds
// exactly one colon with text on both sides.
func Split(text string) (nickname, name string, ok bool) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Classify checks a footprint field against cat.
func Classify(text string, cat Catalog) Status {
	if text == "" {
		return StatusEmpty
	}
	nickname, name, ok := Split(text)
	if !ok {
		return StatusMalformed
	}
	if !cat.HasLibrary(nickname) {
		return StatusUnknownLibrary
	}
	if !cat.Has(nickname, name) {
		return StatusUnknownFootprint
	}
	return StatusValid
}

// Entry is one symbol's association.
type Entry struct {
	Symbol    string
	Footprint string
}

// Report groups the symbols of a library by association status.
type Report struct {
	Library string
	Entries map[Status][]Entry
}

// Check classifies the footprint field of every symbol in lib.
func Check(lib *schlib.Library, cat Catalog) *Report {
	r := &Report{Library: lib.Name, Entries: make(map[Status][]Entry)}
	for _, s := range lib.Symbols() {
		fp := s.Footprint()
		st := Classify(fp, cat)
		r.Entries[st] = append(r.Entries[st], Entry{Symbol: s.Name(), Footprint: fp})
	}
	return r
}

// Count returns the number of symbols with status st.
func (r *Report) Count(st Status) int {
	return len(r.Entries[st])
}

// Problems returns the number of symbols that are neither valid nor empty.
func (r *Report) Problems() int {
	return r.Count(StatusMalformed) + r.Count(StatusUnknownLibrary) + r.Count(StatusUnknownFootprint)
}

// Statuses returns the statuses present in the report, in check order.
func (r *Report) Statuses() []Status {
	var out []Status
	for st := range r.Entries {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
