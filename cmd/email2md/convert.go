package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/inbucket/email2md/pkg/convert"
	"github.com/inbucket/email2md/pkg/input"
	"github.com/rs/zerolog/log"
)

type convertCmd struct {
	renderFlags
}

func (*convertCmd) Name() string {
	return "convert"
}

func (*convertCmd) Synopsis() string {
	return "convert an EML or MSG message to Markdown or HTML (default)"
}

func (*convertCmd) Usage() string {
	return `convert [flags] [input]:
	render input, or standard input when omitted or "-", to stdout
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, "attachment directory, defaults to the input's")
}

func (c *convertCmd) Execute(
	_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := args[0].(*env)
	inputs, err := parseInterspersed(f)
	if err != nil {
		return usage(e.stderr, err.Error())
	}
	if len(inputs) > 1 {
		return usage(e.stderr, "at most one input may be given")
	}
	closeLog, err := c.applyConfig(e, f)
	if err != nil {
		return usage(e.stderr, err.Error())
	}
	defer closeLog()
	opts, err := c.options()
	if err != nil {
		return usage(e.stderr, err.Error())
	}

	logger := log.With().Str("phase", "convert").Logger()
	conv := convert.New()
	conv.Logger = &logger
	conv.Resolver = &input.Resolver{Stdin: e.stdin, Logger: &logger}
	src := input.FromStdin()
	if len(inputs) == 1 {
		src = input.FromPath(inputs[0])
	}
	res, err := c.render(conv, src, opts)
	if err != nil {
		return failure(e, err)
	}
	fmt.Fprint(e.stdout, res.Output)
	if !strings.HasSuffix(res.Output, "\n") {
		fmt.Fprintln(e.stdout)
	}
	return subcommands.ExitSuccess
}

// failure reports a conversion error; a missing input file gets its own message.
func failure(e *env, err error) subcommands.ExitStatus {
	var nf *input.NotFoundError
	if errors.As(err, &nf) {
		fmt.Fprintf(e.stderr, "File not found: %s\n", nf.Path)
		return subcommands.ExitFailure
	}
	return fatal(e.stderr, err)
}
