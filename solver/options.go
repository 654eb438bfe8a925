package solver

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/consensys/fixpoint/logger"
)

// DefaultTolerance is the equality tolerance used when [WithTolerance] is
// not supplied: values are considered equal when their relative difference
// (absolute, at a zero baseline) is at most 1e-6.
const DefaultTolerance = 1e-6

// Option defines option for altering the behavior of the solver (Solve
// function). See the descriptions of functions returning instances of this
// type for implemented options.
type Option func(*Config) error

// Config is the configuration for the solver with the options applied.
type Config struct {
	Tolerance float64        // defaults to DefaultTolerance
	Logger    zerolog.Logger // defaults to fixpoint logger
}

// NewConfig returns a default config with the given options applied.
func NewConfig(opts ...Option) (Config, error) {
	cfg := Config{
		Tolerance: DefaultTolerance,
		Logger:    logger.Logger(),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// WithTolerance overrides the equality tolerance used by the consistency
// check. Tightening it makes the solver reject datasets that only agree
// approximately; loosening it accepts rougher inputs.
func WithTolerance(tol float64) Option {
	return func(cfg *Config) error {
		if tol <= 0 {
			return fmt.Errorf("invalid tolerance: %v", tol)
		}
		cfg.Tolerance = tol
		return nil
	}
}

// WithLogger specifies a zerolog.Logger as a destination for the solver's
// progress logs. By default, uses the fixpoint logger. zerolog.Nop() will
// disable logging.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *Config) error {
		cfg.Logger = l
		return nil
	}
}
