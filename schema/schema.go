// Package schema declares the shape of a solvable dataset: an ordered field
// list, an ordered table of default values and an ordered list of
// one-directional computation rules.
//
// A Schema is pure configuration; it carries no solving logic. The engine in
// package solver walks the rules and defaults in their declared order, so
// both orders are semantically significant: rule order decides which rule
// claims a field when several could, and default order decides which
// completion an underdetermined dataset converges to.
package schema

import (
	"fmt"
	"slices"
)

// Values maps field names to their numeric value. A field absent from the
// map is unknown; the engine never uses NaN or any other sentinel to mean
// "not yet derived".
type Values map[string]float64

// Clone returns a copy of v.
func (v Values) Clone() Values {
	c := make(Values, len(v))
	for k, val := range v {
		c[k] = val
	}
	return c
}

// Default is a fallback value for a field, applied only when the supplied
// inputs and the rules cannot determine the field.
type Default struct {
	Field string  `yaml:"field"`
	Value float64 `yaml:"value"`
}

// ComputeFunc derives a value from the currently known fields. It returns
// ok=false when an input it needs is still unknown; the rule then stays
// active and is retried on the next pass.
//
// A ComputeFunc must be pure: it reads known and returns a value, nothing
// else. The engine performs the write and the consistency check.
type ComputeFunc func(known Values) (float64, bool)

// Rule is a one-directional computation deriving Target from other fields.
// Inverse relations are not derived automatically: if net = qty * rate is
// declared, qty = net / rate must be declared as its own rule.
type Rule struct {
	// Target is the field the rule derives.
	Target string

	// Compute produces the derived value, or ok=false when it cannot
	// compute yet.
	Compute ComputeFunc

	// Expr is the source text when the rule was compiled from an
	// arithmetic expression. Empty for rules built from a Go function.
	Expr string
}

func (r Rule) String() string {
	if r.Expr != "" {
		return fmt.Sprintf("%s = %s", r.Target, r.Expr)
	}
	return fmt.Sprintf("%s = func(...)", r.Target)
}

// Schema is the full declaration of a dataset shape. Fields is the closed
// set of field names; Defaults and Rules may only reference fields in it.
type Schema struct {
	Fields   []string
	Defaults []Default
	Rules    []Rule
}

// HasField reports whether name is part of the schema.
func (s *Schema) HasField(name string) bool {
	return slices.Contains(s.Fields, name)
}

// Validate checks that the declaration is internally coherent: no duplicate
// fields, every default and every rule target names a declared field, every
// rule has a Compute, and expression rules only reference declared fields.
//
// A Validate failure is a programming error in the schema declaration, not
// a property of any particular input; the solver assumes a valid schema.
func (s *Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema declares no fields")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f == "" {
			return fmt.Errorf("schema declares an empty field name")
		}
		if _, ok := seen[f]; ok {
			return fmt.Errorf("duplicate field %q", f)
		}
		seen[f] = struct{}{}
	}
	for _, d := range s.Defaults {
		if _, ok := seen[d.Field]; !ok {
			return fmt.Errorf("default for unknown field %q", d.Field)
		}
	}
	for i, r := range s.Rules {
		if _, ok := seen[r.Target]; !ok {
			return fmt.Errorf("rule %d targets unknown field %q", i, r.Target)
		}
		if r.Compute == nil {
			return fmt.Errorf("rule %d (%s) has no compute function", i, r.Target)
		}
		if r.Expr == "" {
			continue
		}
		needs, err := exprIdents(r.Expr)
		if err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, r.Target, err)
		}
		for _, n := range needs {
			if _, ok := seen[n]; !ok {
				return fmt.Errorf("rule %d (%s) references unknown field %q", i, r.Target, n)
			}
		}
	}
	return nil
}
