package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	V     bool `cli:"name=v aliases=verbose desc='log diagnostics to stderr'"`
	Color bool `cli:"name=color desc='colour output even when it is not a terminal'"`

	Main *cli.Command
}

// colors reports whether output written to w should carry ANSI colour.
func (cfg *MainConfig) colors(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// paint returns a color that is enabled exactly when w is coloured.
func (cfg *MainConfig) paint(w io.Writer, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if cfg.colors(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

type FmtConfig struct {
	*MainConfig

	Indent int  `cli:"name=indent desc='spaces per nesting level, 0 writes one line'"`
	D      bool `cli:"name=d desc='print a diff against the input instead of the result'"`

	Fmt *cli.Command
}

type CheckConfig struct {
	*MainConfig

	Check *cli.Command
}

type JSONConfig struct {
	*MainConfig

	Record bool `cli:"name=record desc='sort keys instead of keeping document order'"`

	JSON *cli.Command
}

type YAMLConfig struct {
	*MainConfig

	Record bool `cli:"name=record desc='sort keys instead of keeping document order'"`

	YAML *cli.Command
}

type ImportConfig struct {
	*MainConfig

	From   string `cli:"name=from desc='input format: json, yaml or toml'"`
	Indent int    `cli:"name=indent desc='spaces per nesting level, 0 writes one line'"`

	Import *cli.Command
}

type QueryConfig struct {
	*MainConfig

	Query *cli.Command
}
