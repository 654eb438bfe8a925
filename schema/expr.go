package schema

import (
	"fmt"
	"math"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// NewRule compiles an arithmetic expression over field names into a Rule
// deriving target. The expression may reference any schema field by name,
// e.g.
//
//	NewRule("net_amount", "qty * rate")
//
// At solve time the rule computes only once every referenced field is known;
// until then it reports "cannot compute yet" and stays active. A run that
// produces NaN or an infinity (a division by zero while the dataset is still
// being filled in) is likewise treated as not yet computable rather than
// poisoning the dataset.
func NewRule(target, src string) (Rule, error) {
	program, err := expr.Compile(src, expr.AllowUndefinedVariables(), expr.AsFloat64())
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: compile %q: %w", target, src, err)
	}
	needs, err := exprIdents(src)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", target, err)
	}
	compute := func(known Values) (float64, bool) {
		for _, n := range needs {
			if _, ok := known[n]; !ok {
				return 0, false
			}
		}
		out, err := expr.Run(program, map[string]float64(known))
		if err != nil {
			return 0, false
		}
		v, ok := out.(float64)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	return Rule{Target: target, Compute: compute, Expr: src}, nil
}

// MustRule is NewRule, panicking on error. For statically declared schemas.
func MustRule(target, src string) Rule {
	r, err := NewRule(target, src)
	if err != nil {
		panic(err)
	}
	return r
}

// exprIdents returns the field names referenced by an expression, in order
// of first appearance.
func exprIdents(src string) ([]string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	c := &identCollector{}
	ast.Walk(&tree.Node, c)
	return c.idents, nil
}

type identCollector struct {
	idents []string
}

func (c *identCollector) Visit(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	if !slices.Contains(c.idents, id.Value) {
		c.idents = append(c.idents, id.Value)
	}
}
