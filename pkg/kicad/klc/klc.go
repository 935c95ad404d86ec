// Package klc runs KiCad Library Convention rules against symbols.
//
// Each rule is independent: Run hands every rule its own copy of the symbol,
// so nothing one rule does can influence another.
package klc

import (
	"fmt"

	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

// Severity of a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Verbosity is the level at which a diagnostic starts being reported.
type Verbosity int

const (
	Normal Verbosity = iota
	High
)

func (v Verbosity) String() string {
	switch v {
	case Normal:
		return "normal"
	case High:
		return "high"
	}
	return fmt.Sprintf("Verbosity(%d)", int(v))
}

// ParseVerbosity accepts "normal" or "high" (or "0"/"1").
func ParseVerbosity(s string) (Verbosity, error) {
	switch s {
	case "", "normal", "0":
		return Normal, nil
	case "high", "1":
		return High, nil
	}
	return Normal, fmt.Errorf("unknown verbosity %q", s)
}

// Diagnostic is one message emitted by a rule.
type Diagnostic struct {
	Severity  Severity
	Verbosity Verbosity
	Message   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Rule is a single convention check with an optional fix.
type Rule interface {
	// ID returns the convention number, e.g. "3.9"
	ID() string

	// Description returns a one-line summary of the convention
	Description() string

	// Check reports whether sym violates the rule
	Check(sym *schlib.Symbol) (fail bool, diags []Diagnostic)

	// Fix returns a corrected symbol, or sym itself when the rule cannot
	// fix anything
	Fix(sym *schlib.Symbol) (*schlib.Symbol, []Diagnostic)
}

// Result is the outcome of one rule on one symbol.
type Result struct {
	RuleID      string
	Fail        bool
	Diagnostics []Diagnostic
}

// Filter drops diagnostics above verbosity.
func Filter(diags []Diagnostic, verbosity Verbosity) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Verbosity <= verbosity {
			out = append(out, d)
		}
	}
	return out
}

// Run checks sym against rules, in order, and returns one result per rule.
func Run(sym *schlib.Symbol, rules []Rule, verbosity Verbosity) []Result {
	results := make([]Result, len(rules))
	for i, r := range rules {
		fail, diags := r.Check(sym.Clone())
		results[i] = Result{
			RuleID:      r.ID(),
			Fail:        fail,
			Diagnostics: Filter(diags, verbosity),
		}
	}
	return results
}

// SymbolResults are the results of every rule for one symbol.
type SymbolResults struct {
	Symbol  string
	Results []Result
}

// Failed returns the number of failing rules.
func (s SymbolResults) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Fail {
			n++
		}
	}
	return n
}

// RunLibrary checks every symbol of lib, in name order.
func RunLibrary(lib *schlib.Library, rules []Rule, verbosity Verbosity) []SymbolResults {
	symbols := lib.Symbols()
	out := make([]SymbolResults, len(symbols))
	for i, s := range symbols {
		out[i] = SymbolResults{Symbol: s.Name(), Results: Run(s, rules, verbosity)}
	}
	return out
}

// FixAll applies the fix of every failing rule in turn and returns the
// resulting symbol. sym itself is not modified.
func FixAll(sym *schlib.Symbol, rules []Rule, verbosity Verbosity) (*schlib.Symbol, []Diagnostic) {
	cur := sym.Clone()
	var diags []Diagnostic
	for _, r := range rules {
		if fail, _ := r.Check(cur.Clone()); !fail {
			continue
		}
		fixed, d := r.Fix(cur)
		diags = append(diags, Filter(d, verbosity)...)
		if fixed != nil {
			cur = fixed
		}
	}
	return cur, diags
}
