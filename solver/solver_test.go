package solver_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/fixpoint/schema"
	"github.com/consensys/fixpoint/solver"
)

// funcRule builds a rule from a plain Go function gated on its inputs.
func funcRule(target string, needs []string, fn func(schema.Values) float64) schema.Rule {
	return schema.Rule{
		Target: target,
		Compute: func(known schema.Values) (float64, bool) {
			for _, n := range needs {
				if _, ok := known[n]; !ok {
					return 0, false
				}
			}
			return fn(known), true
		},
	}
}

func TestSolveChain(t *testing.T) {
	assert := require.New(t)

	s := &schema.Schema{
		Fields: []string{"a", "b", "c"},
		Rules: []schema.Rule{
			funcRule("b", []string{"a"}, func(v schema.Values) float64 { return 2 * v["a"] }),
			funcRule("c", []string{"b"}, func(v schema.Values) float64 { return v["b"] + 1 }),
		},
	}
	assert.NoError(s.Validate())

	res, err := solver.Solve(s, schema.Values{"a": 3})
	assert.NoError(err)
	assert.True(res.Solved())
	assert.Equal(schema.Values{"a": 3, "b": 6, "c": 7}, res.Values)
	assert.Empty(res.Applied)
}

func TestSolveConfirmationConsumesRule(t *testing.T) {
	assert := require.New(t)

	s := &schema.Schema{
		Fields: []string{"a", "b", "c"},
		Rules: []schema.Rule{
			funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] }),
			funcRule("c", []string{"a", "b"}, func(v schema.Values) float64 { return v["a"] + v["b"] }),
		},
	}

	// b is supplied and the first rule merely confirms it.
	res, err := solver.Solve(s, schema.Values{"a": 1, "b": 1})
	assert.NoError(err)
	assert.True(res.Solved())
	assert.Equal(schema.Values{"a": 1, "b": 1, "c": 2}, res.Values)
}

func TestSolveRuleProducesOnce(t *testing.T) {
	assert := require.New(t)

	produced := 0
	s := &schema.Schema{
		Fields: []string{"a", "b", "c"},
		Rules: []schema.Rule{
			{
				Target: "b",
				Compute: func(known schema.Values) (float64, bool) {
					if _, ok := known["a"]; !ok {
						return 0, false
					}
					produced++
					return known["a"], true
				},
			},
		},
		Defaults: []schema.Default{{Field: "c", Value: 5}},
	}

	// The first attempt computes b and gets stuck on c; the default retry
	// must not re-apply the consumed rule.
	res, err := solver.Solve(s, schema.Values{"a": 1})
	assert.NoError(err)
	assert.True(res.Solved())
	assert.Equal(1, produced)
	assert.Equal([]schema.Default{{Field: "c", Value: 5}}, res.Applied)
}

func TestSolveToleranceBoundary(t *testing.T) {
	// Two rules derive the same field from the same input, differing by a
	// controlled relative amount.
	build := func(eps float64) *schema.Schema {
		return &schema.Schema{
			Fields: []string{"a", "b"},
			Rules: []schema.Rule{
				funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] }),
				funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] * (1 + eps) }),
			},
		}
	}

	t.Run("just under", func(t *testing.T) {
		res, err := solver.Solve(build(9e-7), schema.Values{"a": 1})
		require.NoError(t, err)
		require.True(t, res.Solved())
		require.Equal(t, 1.0, res.Values["b"]) // first write wins
	})

	t.Run("just over", func(t *testing.T) {
		_, err := solver.Solve(build(2e-6), schema.Values{"a": 1})
		require.ErrorIs(t, err, solver.ErrUnsatisfied)

		var uerr *solver.UnsatisfiedError
		require.True(t, errors.As(err, &uerr))
		require.Equal(t, "b", uerr.Field)
		require.Equal(t, 1.0, uerr.Have)
		require.InDelta(t, 1.000002, uerr.Got, 1e-9)
	})
}

func TestSolveToleranceZeroBaseline(t *testing.T) {
	// When the held value is zero the comparison is absolute, not
	// relative, so a tiny nonzero candidate still counts as equal.
	build := func(eps float64) *schema.Schema {
		return &schema.Schema{
			Fields: []string{"a", "b"},
			Rules: []schema.Rule{
				funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] }),
				funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] + eps }),
			},
		}
	}

	res, err := solver.Solve(build(9e-7), schema.Values{"a": 0})
	require.NoError(t, err)
	require.True(t, res.Solved())

	_, err = solver.Solve(build(2e-6), schema.Values{"a": 0})
	require.ErrorIs(t, err, solver.ErrUnsatisfied)
}

func TestSolveUnderspecified(t *testing.T) {
	assert := require.New(t)

	s := &schema.Schema{
		Fields: []string{"a", "b", "c"},
		Rules: []schema.Rule{
			funcRule("c", []string{"a", "b"}, func(v schema.Values) float64 { return v["a"] * v["b"] }),
		},
		Defaults: []schema.Default{{Field: "a", Value: 1}},
	}

	// a's default alone cannot determine b or c.
	res, err := solver.Solve(s, schema.Values{})
	assert.NoError(err)
	assert.False(res.Solved())
	assert.Equal(solver.StatusUnderspecified, res.Status)
	assert.Equal([]schema.Default{{Field: "a", Value: 1}}, res.Applied)
	assert.Equal(schema.Values{"a": 1}, res.Values)
}

func TestSolveIdempotent(t *testing.T) {
	assert := require.New(t)

	s := &schema.Schema{
		Fields: []string{"a", "b"},
		Rules: []schema.Rule{
			funcRule("b", []string{"a"}, func(v schema.Values) float64 { return 2 * v["a"] }),
		},
		Defaults: []schema.Default{{Field: "a", Value: 7}},
	}

	in := schema.Values{"a": 4, "b": 8}
	res, err := solver.Solve(s, in.Clone())
	assert.NoError(err)
	assert.True(res.Solved())
	assert.Equal(in, res.Values)
	assert.Empty(res.Applied)
}

func TestSolveInputOutsideSchema(t *testing.T) {
	s := &schema.Schema{Fields: []string{"a"}}
	_, err := solver.Solve(s, schema.Values{"nope": 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, solver.ErrUnsatisfied)
}

func TestSolveSkipsKnownDefaults(t *testing.T) {
	assert := require.New(t)

	s := &schema.Schema{
		Fields: []string{"a", "b"},
		Rules: []schema.Rule{
			funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] + 1 }),
		},
		// A default that would contradict the supplied a must be skipped,
		// not applied, because a is already known.
		Defaults: []schema.Default{{Field: "a", Value: 100}},
	}

	res, err := solver.Solve(s, schema.Values{"a": 2})
	assert.NoError(err)
	assert.True(res.Solved())
	assert.Equal(schema.Values{"a": 2, "b": 3}, res.Values)
	assert.Empty(res.Applied)
}

func TestWithTolerance(t *testing.T) {
	s := &schema.Schema{
		Fields: []string{"a", "b"},
		Rules: []schema.Rule{
			funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] }),
			funcRule("b", []string{"a"}, func(v schema.Values) float64 { return v["a"] * 1.005 }),
		},
	}

	// 0.5% apart: rejected at the default tolerance, accepted at 1%.
	_, err := solver.Solve(s, schema.Values{"a": 1})
	require.ErrorIs(t, err, solver.ErrUnsatisfied)

	res, err := solver.Solve(s, schema.Values{"a": 1}, solver.WithTolerance(0.01))
	require.NoError(t, err)
	require.True(t, res.Solved())

	_, err = solver.Solve(s, schema.Values{"a": 1}, solver.WithTolerance(-1))
	require.Error(t, err)
}
