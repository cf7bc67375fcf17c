package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/clpl-lang/clpl-go"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"
)

func fmtMain(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		cfg.Fmt.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	inputs, err := readInputs(cc.In, args)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := cfg.format(cc.Out, in); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *FmtConfig) format(w io.Writer, in input) error {
	doc, err := clpl.Parse(in.data)
	if err != nil {
		return fmt.Errorf("%s:%w", in.name, err)
	}
	out, err := clpl.Stringify(doc, cfg.Indent)
	if err != nil {
		return fmt.Errorf("%s: %w", in.name, err)
	}
	if len(out) > 0 {
		out = append(out, '\n')
	}
	if !cfg.D {
		_, err = w.Write(out)
		return err
	}
	return cfg.diff(w, in.name, string(in.data), string(out))
}

// diff writes a word diff from before to after, with deletions in [- -]
// and insertions in {+ +}.
func (cfg *FmtConfig) diff(w io.Writer, name, before, after string) error {
	if before == after {
		log.Debug().Str("file", name).Msg("already formatted")
		return nil
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	header := cfg.paint(w, color.Bold)
	del := cfg.paint(w, color.FgRed)
	ins := cfg.paint(w, color.FgGreen)
	if _, err := header.Fprintf(w, "--- %s\n+++ %s\n", name, name); err != nil {
		return err
	}
	for _, d := range diffs {
		var err error
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			_, err = del.Fprint(w, "[-"+d.Text+"-]")
		case diffmatchpatch.DiffInsert:
			_, err = ins.Fprint(w, "{+"+d.Text+"+}")
		default:
			_, err = io.WriteString(w, d.Text)
		}
		if err != nil {
			return err
		}
	}
	if len(after) == 0 || after[len(after)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

func checkMain(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		cfg.Check.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	inputs, err := readInputs(cc.In, args)
	if err != nil {
		return err
	}
	failed := 0
	for _, in := range inputs {
		ok, err := cfg.check(cc.Out, in)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		log.Debug().Int("failed", failed).Int("files", len(inputs)).Msg("check")
		return cli.ExitCodeErr(1)
	}
	return nil
}

// check parses in and reports whether it is valid, printing the error when
// it is not.
func (cfg *CheckConfig) check(w io.Writer, in input) (bool, error) {
	_, err := clpl.Parse(in.data)
	if err == nil {
		return true, nil
	}
	var perr *clpl.ParseError
	if !errors.As(err, &perr) {
		return false, err
	}
	loc := cfg.paint(w, color.Bold)
	msg := cfg.paint(w, color.FgRed)
	if _, err := loc.Fprintf(w, "%s:%d:%d:", in.name, perr.Line, perr.Column); err != nil {
		return false, err
	}
	_, err = msg.Fprintf(w, " %s\n", perr.Msg)
	return false, err
}
