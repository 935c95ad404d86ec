package klc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateRule is returned when two rules share an ID.
var ErrDuplicateRule = errors.New("duplicate rule")

// Registry holds rules in registration order.
type Registry struct {
	rules []Rule
	byID  map[string]Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Rule)}
}

// Register adds r.
func (reg *Registry) Register(r Rule) error {
	if r == nil {
		return fmt.Errorf("nil rule")
	}
	id := r.ID()
	if id == "" {
		return fmt.Errorf("rule ID() is empty")
	}
	if _, exists := reg.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, id)
	}
	reg.byID[id] = r
	reg.rules = append(reg.rules, r)
	return nil
}

// Get returns the rule with the given ID.
func (reg *Registry) Get(id string) (Rule, bool) {
	r, ok := reg.byID[id]
	return r, ok
}

// Rules returns every rule in registration order.
func (reg *Registry) Rules() []Rule {
	return append([]Rule(nil), reg.rules...)
}

// Select returns the rules named in ids, in registration order. An empty
// ids selects every rule. Unknown IDs are an error.
func (reg *Registry) Select(ids []string) ([]Rule, error) {
	if len(ids) == 0 {
		return reg.Rules(), nil
	}
	want := make(map[string]bool, len(ids))
	var unknown []string
	for _, id := range ids {
		if _, ok := reg.byID[id]; !ok {
			unknown = append(unknown, id)
		}
		want[id] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown rules: %s", strings.Join(unknown, ", "))
	}
	var out []Rule
	for _, r := range reg.rules {
		if want[r.ID()] {
			out = append(out, r)
		}
	}
	return out, nil
}

// Default returns a registry with the built-in symbol rules. The footprint
// existence rule needs a catalog and is registered by the caller.
func Default() *Registry {
	reg := NewRegistry()
	for _, r := range []Rule{
		FootprintFieldRule{},
		DocStringRule{},
		ValueFieldRule{},
	} {
		if err := reg.Register(r); err != nil {
			panic(err)
		}
	}
	return reg
}
