// Package fixpoint solves partially-specified numeric datasets whose fields
// are linked by known algebraic relations, filling in missing fields and
// detecting contradictions among supplied ones.
//
// A domain declares its shape once — an ordered field list, an ordered
// default table and an ordered pool of one-directional rules — with package
// schema, and completes datasets against it with package solver:
//
//	res, err := solver.Solve(invoice.New(), schema.Values{"net_amount": 100})
//
// The engine iterates the rule pool to a fixpoint, consuming each rule the
// first time it produces a value, and falls back on the schema's defaults,
// one at a time and in declared order, when the supplied data alone leaves
// the dataset stuck. Two values for the same field that disagree beyond
// tolerance abort the solve with an explicit contradiction.
package fixpoint

import "github.com/blang/semver/v4"

var Version = semver.MustParse("0.1.0")
