package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/xel/cli/cmd"
	"github.com/ardnew/xel/log"
	"github.com/ardnew/xel/pkg"
)

// CLI is the xel command line.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Root    []string         `help:"Root object document in YAML or JSON, or - for stdin (repeatable)" name:"root" short:"r" type:"existingfile"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Eval cmd.Eval `cmd:"" help:"Evaluate an expression"`
	AST  cmd.AST  `cmd:"" help:"Print the syntax tree of an expression"`
	Init cmd.Init `cmd:"" help:"Write the configuration file"`
	Repl cmd.Repl `cmd:"" help:"Start an interactive session"`
}

// Run parses args and runs the selected command. Kong calls exit for
// --help, --version, and usage errors.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	if err := mkdirAllRequired(); err != nil {
		return err
	}

	var cli CLI

	// Kong only decodes level and format as it reaches them, so the logger
	// flags are applied up front to cover everything logged while parsing.
	cli.Log.scan(args)

	parser, err := cli.parser(exit, configPath(baseConfig))
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx = log.NewContext(ctx, log.Default())
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Root)

	defer cli.Pprof.start(ctx)()

	ktx.BindTo(ctx, (*context.Context)(nil))

	return ktx.Run()
}

func (c *CLI) parser(exit func(int), config string) (*kong.Kong, error) {
	vars := kong.Vars{
		"version":            pkg.Version(),
		cmd.ConfigIdentifier: config,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}

	return kong.New(c,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{c.Log.group(), c.Pprof.group()}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(resolveYAML, config),
		vars.CloneWith(c.Log.vars()).CloneWith(c.Pprof.vars()),
	)
}
