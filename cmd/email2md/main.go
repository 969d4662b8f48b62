// main is the email2md command line converter
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/google/subcommands"
	"github.com/inbucket/email2md/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// version contains the build version number, populated during linking.
	version = "undefined"

	// date contains the build date, populated during linking.
	date = "undefined"
)

// env carries the process streams and configuration to the subcommands.
type env struct {
	conf   *config.Root
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line args and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	config.Version = version
	config.BuildDate = date
	conf, err := config.Process()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return int(subcommands.ExitUsageError)
	}

	top := flag.NewFlagSet("email2md", flag.ContinueOnError)
	top.SetOutput(stderr)
	help := top.Bool("help", false, "Displays help on commands and env variables.")
	showVersion := top.Bool("version", false, "Displays the version and build date.")
	cdr := subcommands.NewCommander(top, "email2md")
	cdr.Output = stdout
	cdr.Error = stderr

	// Setup standard helpers
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(cdr.CommandsCommand(), "")

	// Setup my commands
	cdr.Register(&convertCmd{}, "")
	cdr.Register(&mboxCmd{}, "")
	cdr.Register(&detectCmd{}, "")

	err = top.Parse(withDefaultCommand(args, cdr))
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		return int(subcommands.ExitUsageError)
	}
	if *help || err != nil {
		cdr.Explain(stderr)
		fmt.Fprintln(stderr, "")
		if err := config.Usage(stderr); err != nil {
			fmt.Fprintf(stderr, "Configuration error: %v\n", err)
			return int(subcommands.ExitFailure)
		}
		return int(subcommands.ExitSuccess)
	}
	if *showVersion {
		fmt.Fprintf(stdout, "email2md %v (%v)\n", config.Version, config.BuildDate)
		return int(subcommands.ExitSuccess)
	}
	e := &env{conf: conf, stdin: stdin, stdout: stdout, stderr: stderr}
	return int(cdr.Execute(context.Background(), e))
}

// withDefaultCommand inserts the convert command unless args begin with a command name or a
// top level flag.
func withDefaultCommand(args []string, cdr *subcommands.Commander) []string {
	if len(args) > 0 {
		switch strings.TrimLeft(args[0], "-") {
		case "help", "h", "version":
			if strings.HasPrefix(args[0], "-") {
				return args
			}
		}
		known := false
		cdr.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
			if c.Name() == args[0] {
				known = true
			}
		})
		if known {
			return args
		}
	}
	return append([]string{"convert"}, args...)
}

// openLog configures zerolog output, returns func to close logfile.  Logs go to stderr unless
// logfile names stdout or a file.
func openLog(level string, logfile string, json bool, stderr io.Writer) (close func(), err error) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		return nil, fmt.Errorf("Log level %q not one of: debug, info, warn, error", level)
	}
	close = func() {}
	var w io.Writer
	color := runtime.GOOS != "windows"
	switch logfile {
	case "", "stderr":
		w = stderr
	case "stdout":
		w = os.Stdout
	default:
		logf, err := os.OpenFile(logfile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, err
		}
		bw := bufio.NewWriter(logf)
		w = bw
		color = false
		close = func() {
			_ = bw.Flush()
			_ = logf.Close()
		}
	}
	w = zerolog.SyncWriter(w)
	if json {
		log.Logger = log.Output(w)
		return close, nil
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     w,
		NoColor: !color,
	})
	return close, nil
}

func fatal(w io.Writer, err error) subcommands.ExitStatus {
	fmt.Fprintf(w, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func usage(w io.Writer, msg string) subcommands.ExitStatus {
	fmt.Fprintf(w, "Error: %s\n", msg)
	return subcommands.ExitUsageError
}
