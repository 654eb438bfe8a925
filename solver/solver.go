// Package solver fills in partially-specified numeric datasets whose fields
// are linked by known algebraic relations, and detects contradictions among
// the supplied values.
//
// The engine is a fixpoint iteration over a pool of one-directional rules.
// One pass attempts every still-active rule once, in declared order; a rule
// that produces a value is consumed and never retried, a rule whose inputs
// are still unknown stays active for the next pass. Passes repeat until the
// dataset is fully determined or a pass makes no progress. A stuck dataset
// is retried after injecting the next untried default value from the
// schema's default table, in declared order; injecting one default can make
// previously-stuck rules computable, so each injection is followed by a full
// resolve attempt before the next default is considered.
//
// Every value a rule or a default proposes passes through a single
// consistency check: a field that already holds a value only accepts
// candidates equal to it within tolerance (relative, or absolute when the
// held value is zero). A candidate beyond tolerance aborts the whole solve
// with an [UnsatisfiedError].
//
// Solve is a pure function of the schema and the input: it owns all state it
// mutates and is safe for concurrent use with the same schema.
package solver

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/consensys/fixpoint/schema"
)

// Status discriminates the two non-aborting solve outcomes.
type Status uint8

const (
	// StatusSolved means every schema field has a value.
	StatusSolved Status = iota
	// StatusUnderspecified means fields remain unknown even after every
	// applicable default was tried. It is a normal negative outcome, not
	// an error.
	StatusUnderspecified
)

func (s Status) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusUnderspecified:
		return "underspecified"
	default:
		return "unknown status"
	}
}

// Result is the outcome of a completed (non-aborted) solve.
type Result struct {
	Status Status

	// Values holds every schema field when Status is StatusSolved. When
	// StatusUnderspecified it holds the partial progress, for diagnostics.
	Values schema.Values

	// Applied lists the defaults that were injected, in injection order.
	// Empty when the inputs and rules alone determined the dataset.
	Applied []schema.Default
}

// Solved reports whether the dataset was fully determined.
func (r *Result) Solved() bool { return r.Status == StatusSolved }

// Solve completes the dataset described by sch from the given partial input.
// Fields absent from input start unknown. It returns a Result carrying
// either the fully-determined values or the underspecified status, or an
// [UnsatisfiedError] if two values for the same field disagree beyond
// tolerance. An input field that is not part of the schema is an error.
func Solve(sch *schema.Schema, input schema.Values, opts ...Option) (*Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	vals := make(schema.Values, len(sch.Fields))
	for f, v := range input {
		if !sch.HasField(f) {
			return nil, fmt.Errorf("input field %q is not in the schema", f)
		}
		vals[f] = v
	}

	e := &engine{
		sch:    sch,
		vals:   vals,
		active: bitset.New(uint(len(sch.Rules))),
		tol:    cfg.Tolerance,
		log:    cfg.Logger,
	}
	for i := range sch.Rules {
		e.active.Set(uint(i))
	}

	solved, err := e.fixpoint()
	if err != nil {
		return nil, err
	}

	// Stuck. Inject defaults one at a time, in declared order, re-running
	// the fixpoint loop after each; rules consumed before the stuck point
	// stay consumed. Which default goes in first decides which fields end
	// up default-derived versus rule-derived, so the order is part of the
	// schema's contract.
	var applied []schema.Default
	for i := 0; !solved && i < len(sch.Defaults); i++ {
		d := sch.Defaults[i]
		if _, known := e.vals[d.Field]; known {
			continue
		}
		e.log.Debug().Str("field", d.Field).Float64("value", d.Value).Msg("applying default")
		if err := e.assign(d.Field, d.Value); err != nil {
			return nil, err
		}
		applied = append(applied, d)
		if solved, err = e.fixpoint(); err != nil {
			return nil, err
		}
	}

	if !solved {
		e.log.Debug().Int("unknowns", e.unknowns()).Msg("dataset underspecified")
		return &Result{Status: StatusUnderspecified, Values: e.vals, Applied: applied}, nil
	}
	return &Result{Status: StatusSolved, Values: e.vals, Applied: applied}, nil
}

// engine is the per-solve state: the value store, the active-rule set and
// the tolerance. It lives for one Solve call only.
type engine struct {
	sch    *schema.Schema
	vals   schema.Values
	active *bitset.BitSet // bit i set = sch.Rules[i] not yet consumed
	tol    float64
	log    zerolog.Logger
}

// assign routes a candidate value through the consistency check. It is the
// sole write path for rule outputs and defaults: an unknown field accepts
// the candidate, a known field only confirms it within tolerance.
func (e *engine) assign(field string, candidate float64) error {
	have, ok := e.vals[field]
	if !ok {
		e.vals[field] = candidate
		return nil
	}
	diff := math.Abs(candidate - have)
	if have != 0 {
		diff /= math.Abs(have)
	}
	if diff > e.tol {
		return &UnsatisfiedError{Field: field, Have: have, Got: candidate}
	}
	// Confirmation within tolerance; the held value wins.
	return nil
}

// unknowns counts schema fields with no value yet.
func (e *engine) unknowns() int {
	n := 0
	for _, f := range e.sch.Fields {
		if _, ok := e.vals[f]; !ok {
			n++
		}
	}
	return n
}

// pass attempts every active rule once, in declared order. A rule that
// produces a value is consumed, whether the value was new or merely
// confirmed a known one; a rule that cannot compute yet stays active, since
// a rule earlier in the same pass may have just supplied one of its inputs.
func (e *engine) pass() error {
	for i, ok := e.active.NextSet(0); ok; i, ok = e.active.NextSet(i + 1) {
		r := e.sch.Rules[i]
		v, computed := r.Compute(e.vals)
		if !computed {
			continue
		}
		if err := e.assign(r.Target, v); err != nil {
			return err
		}
		e.active.Clear(i)
	}
	return nil
}

// fixpoint runs passes until the dataset is complete (solved=true) or a
// pass leaves the unknown count unchanged (solved=false, stuck). The
// unknown count strictly decreases between passes, so at most
// len(sch.Fields)+1 passes run.
func (e *engine) fixpoint() (bool, error) {
	prev := -1
	for {
		n := e.unknowns()
		if n == 0 {
			return true, nil
		}
		if n == prev {
			return false, nil
		}
		prev = n
		e.log.Trace().Int("unknowns", n).Uint("active", e.active.Count()).Msg("pass")
		if err := e.pass(); err != nil {
			return false, err
		}
	}
}
