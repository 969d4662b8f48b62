package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/inbucket/email2md/pkg/input"
)

type detectCmd struct{}

func (*detectCmd) Name() string {
	return "detect"
}

func (*detectCmd) Synopsis() string {
	return "print the detected format of a message"
}

func (*detectCmd) Usage() string {
	return `detect [input]:
	print msg or eml for input, or standard input when omitted or "-"
`
}

func (*detectCmd) SetFlags(f *flag.FlagSet) {}

func (*detectCmd) Execute(
	_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := args[0].(*env)
	if f.NArg() > 1 {
		return usage(e.stderr, "at most one input may be given")
	}
	src := input.FromStdin()
	if f.NArg() == 1 {
		src = input.FromPath(f.Arg(0))
	}
	r := &input.Resolver{Stdin: e.stdin}
	in, err := r.Resolve(src)
	if err != nil {
		return failure(e, err)
	}
	fmt.Fprintln(e.stdout, in.Format)
	return subcommands.ExitSuccess
}
