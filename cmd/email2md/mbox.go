package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/inbucket/email2md/pkg/attach"
	"github.com/inbucket/email2md/pkg/convert"
	"github.com/inbucket/email2md/pkg/input"
	"github.com/inbucket/email2md/pkg/mailbox"
	"github.com/inbucket/email2md/pkg/stringutil"
	"github.com/rs/zerolog/log"
)

type mboxCmd struct {
	renderFlags
}

func (*mboxCmd) Name() string {
	return "mbox"
}

func (*mboxCmd) Synopsis() string {
	return "convert every message of an mbox file into its own file"
}

func (*mboxCmd) Usage() string {
	return `mbox [flags] <mbox>:
	render each message of mbox to <name>-0001.md, <name>-0002.md, ... in the output dir
`
}

func (m *mboxCmd) SetFlags(f *flag.FlagSet) {
	m.setFlags(f, "output and attachment directory, defaults to the mbox's")
}

func (m *mboxCmd) Execute(
	_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := args[0].(*env)
	inputs, err := parseInterspersed(f)
	if err != nil {
		return usage(e.stderr, err.Error())
	}
	if len(inputs) != 1 {
		return usage(e.stderr, "exactly one mbox file must be given")
	}
	path := inputs[0]
	closeLog, err := m.applyConfig(e, f)
	if err != nil {
		return usage(e.stderr, err.Error())
	}
	defer closeLog()
	opts, err := m.options()
	if err != nil {
		return usage(e.stderr, err.Error())
	}

	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failure(e, &input.NotFoundError{Path: path, Err: err})
		}
		return fatal(e.stderr, err)
	}
	defer func() { _ = fh.Close() }()

	dir := opts.OutputDir()
	if dir == "" {
		dir = filepath.Dir(path)
	}
	logger := log.With().Str("phase", "mbox").Str("path", path).Logger()
	conv := convert.New()
	conv.Logger = &logger
	conv.WorkDir = dir
	w := &attach.Writer{Dir: dir, Logger: &logger}
	stem, _ := stringutil.SplitExt(filepath.Base(path))

	failed := 0
	n, err := mailbox.Each(fh, func(n int, eml []byte) error {
		res, err := m.render(conv, input.FromBytes(eml), opts)
		if err != nil {
			// One bad message does not stop the rest of the mailbox.
			logger.Error().Err(err).Int("message", n).Msg("Failed to convert message")
			fmt.Fprintf(e.stderr, "Error: message %d: %v\n", n, err)
			failed++
			return nil
		}
		saved, err := w.Write([]attach.File{{
			Name:    fmt.Sprintf("%s-%04d%s", stem, n, m.extension()),
			Content: []byte(res.Output),
		}})
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, saved[0].Path)
		return nil
	})
	if err != nil {
		return fatal(e.stderr, err)
	}
	logger.Info().Int("messages", n).Int("failed", failed).Msg("Converted mailbox")
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
