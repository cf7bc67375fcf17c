package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "clpl").
		WithSynopsis("clpl [opts] command [opts]").
		WithDescription("clpl formats, checks and converts CLPL documents.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return clplMain(cfg, cc, args)
		}).
		WithSubs(
			FmtCommand(cfg),
			CheckCommand(cfg),
			JSONCommand(cfg),
			YAMLCommand(cfg),
			ImportCommand(cfg),
			QueryCommand(cfg))
}

func FmtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FmtConfig{MainConfig: mainCfg, Indent: 4}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Fmt, "fmt").
		WithAliases("f").
		WithSynopsis("fmt [-indent n] [-d] [files]").
		WithDescription("Parse documents and write them back in canonical form.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return fmtMain(cfg, cc, args)
		})
}

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithAliases("c").
		WithSynopsis("check [files]").
		WithDescription("Report the first syntax error in each document.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return checkMain(cfg, cc, args)
		})
}

func JSONCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &JSONConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.JSON, "json").
		WithAliases("j").
		WithSynopsis("json [-record] [files]").
		WithDescription("Convert documents to JSON.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return jsonMain(cfg, cc, args)
		})
}

func YAMLCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &YAMLConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.YAML, "yaml").
		WithAliases("y").
		WithSynopsis("yaml [-record] [files]").
		WithDescription("Convert documents to YAML.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return yamlMain(cfg, cc, args)
		})
}

func ImportCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ImportConfig{MainConfig: mainCfg, From: "json", Indent: 4}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Import, "import").
		WithAliases("i").
		WithSynopsis("import [-from json|yaml|toml] [-indent n] [files]").
		WithDescription("Convert JSON, YAML or TOML documents to CLPL.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return importMain(cfg, cc, args)
		})
}

func QueryCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueryConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Query, "query").
		WithAliases("q").
		WithSynopsis("query expr [files]").
		WithDescription("Evaluate an expression against each document, with its top-level keys as variables.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return queryMain(cfg, cc, args)
		})
}
