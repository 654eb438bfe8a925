// fixpoint is a CLI around the dataset solver: it loads a schema
// declaration (YAML, or the built-in invoice line-item schema), completes a
// partially-specified dataset given as field=value arguments and prints the
// result.
//
//	fixpoint solve net_amount=100
//	fixpoint solve --schema item.yaml qty=3 rate=10
//
// Exit codes: 0 solved, 1 contradictory input, 2 underspecified.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/consensys/fixpoint/examples/invoice"
	"github.com/consensys/fixpoint/logger"
	"github.com/consensys/fixpoint/schema"
	"github.com/consensys/fixpoint/solver"
)

var (
	fSchemaPath string
	fTolerance  float64
	fVerbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fixpoint",
		Short: "fixpoint completes partially-specified numeric datasets",
	}

	solveCmd := &cobra.Command{
		Use:   "solve [field=value]...",
		Short: "solve a dataset against a schema",
		Run:   cmdSolve,
	}
	solveCmd.PersistentFlags().StringVar(&fSchemaPath, "schema", "", "path to a YAML schema declaration (default: built-in invoice schema)")
	solveCmd.PersistentFlags().Float64Var(&fTolerance, "tolerance", solver.DefaultTolerance, "equality tolerance for the consistency check")
	solveCmd.PersistentFlags().BoolVarP(&fVerbose, "verbose", "v", false, "log solver progress")
	rootCmd.AddCommand(solveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(-1)
	}
}

func cmdSolve(cmd *cobra.Command, args []string) {
	if !fVerbose {
		logger.Disable()
	}

	sch := invoice.New()
	if fSchemaPath != "" {
		var err error
		sch, err = schema.LoadFile(fSchemaPath)
		if err != nil {
			fmt.Println("can't load schema:", err)
			os.Exit(-1)
		}
	}

	input, err := parseInput(sch, args)
	if err != nil {
		fmt.Println(err)
		_ = cmd.Usage()
		os.Exit(-1)
	}

	res, err := solver.Solve(sch, input, solver.WithTolerance(fTolerance))
	if err != nil {
		var uerr *solver.UnsatisfiedError
		if errors.As(err, &uerr) {
			fmt.Printf("contradiction: field %q is %v from the given data but %v from the declared relations\n",
				uerr.Field, uerr.Have, uerr.Got)
			os.Exit(1)
		}
		fmt.Println("error:", err)
		os.Exit(-1)
	}

	printValues(sch, res.Values)
	for _, d := range res.Applied {
		fmt.Printf("# %s defaulted to %v\n", d.Field, d.Value)
	}
	if !res.Solved() {
		fmt.Println("# dataset is underspecified; fields marked ? could not be determined")
		os.Exit(2)
	}
}

// parseInput turns field=value arguments into a partial dataset.
func parseInput(sch *schema.Schema, args []string) (schema.Values, error) {
	input := make(schema.Values, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid argument %q, want field=value", arg)
		}
		if !sch.HasField(name) {
			return nil, fmt.Errorf("unknown field %q, schema has %s", name, strings.Join(sch.Fields, ", "))
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %q", name, raw)
		}
		input[name] = v
	}
	return input, nil
}

// printValues prints one line per schema field, in schema order.
func printValues(sch *schema.Schema, vals schema.Values) {
	for _, f := range sch.Fields {
		if v, ok := vals[f]; ok {
			fmt.Printf("%-16s %v\n", f, v)
		} else {
			fmt.Printf("%-16s ?\n", f)
		}
	}
}
