package main

import (
	"fmt"
	"io"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-json"
	"github.com/scott-cotton/cli"
)

func queryMain(cfg *QueryConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Query.Parse(cc, args)
	if err != nil {
		cfg.Query.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: query requires an expression", cli.ErrUsage)
	}
	program, err := compileQuery(args[0])
	if err != nil {
		return err
	}
	inputs, err := readInputs(cc.In, args[1:])
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := query(cc.Out, program, in); err != nil {
			return err
		}
	}
	return nil
}

// compileQuery compiles src so that keys missing from a document read as nil.
func compileQuery(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return program, nil
}

// query evaluates program with the record of in as its environment and
// writes the result as JSON.
func query(w io.Writer, program *vm.Program, in input) error {
	env, err := transformInput(in, true)
	if err != nil {
		return err
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return fmt.Errorf("%s: %w", in.name, err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%s: %w", in.name, err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
