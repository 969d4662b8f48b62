package main

import (
	"errors"
	"flag"
	"strings"

	"github.com/inbucket/email2md/pkg/config"
	"github.com/inbucket/email2md/pkg/convert"
	"github.com/inbucket/email2md/pkg/input"
	"github.com/rs/zerolog/log"
)

// stringsFlag collects the values of a repeatable flag.
type stringsFlag []string

func (s *stringsFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringsFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// stringsFlag must implement flag.Value
var _ flag.Value = &stringsFlag{}

// renderFlags are the rendering and logging flags shared by convert and mbox.
type renderFlags struct {
	html             bool
	noHeaders        bool
	headers          stringsFlag
	noImages         bool
	saveAttachments  bool
	referenceImages  bool
	outputDir        string
	noHrefs          bool
	noAttachmentList bool
	noFallbackPlain  bool
	sanitize         bool
	logLevel         string
	logFile          string
	logJSON          bool
}

func (r *renderFlags) setFlags(f *flag.FlagSet, outputDirHelp string) {
	f.BoolVar(&r.html, "html", false, "output HTML instead of Markdown")
	f.BoolVar(&r.noHeaders, "no-headers", false, "omit the header block")
	f.Var(&r.headers, "header", "include only this header, repeatable")
	f.BoolVar(&r.noImages, "no-images", false, "remove images")
	f.BoolVar(&r.saveAttachments, "save-attachments", false, "write attachments to the output dir")
	f.BoolVar(&r.referenceImages, "reference-images", false,
		"link images to saved files instead of inlining, requires -save-attachments")
	f.StringVar(&r.outputDir, "output-dir", "", outputDirHelp)
	f.StringVar(&r.outputDir, "o", "", "shorthand for -output-dir")
	f.BoolVar(&r.noHrefs, "no-hrefs", false, "strip link targets, keeping link text")
	f.BoolVar(&r.noAttachmentList, "no-attachment-list", false, "omit the attachment list")
	f.BoolVar(&r.noFallbackPlain, "no-fallback-plain", false,
		"render no body when the message has no HTML part")
	f.BoolVar(&r.sanitize, "sanitize", false, "sanitize the HTML body")
	f.StringVar(&r.logLevel, "loglevel", "", "debug, info, warn, or error")
	f.StringVar(&r.logFile, "logfile", "stderr", "write log to stderr, stdout or the named file")
	f.BoolVar(&r.logJSON, "logjson", false, "logs are written in JSON format")
}

// applyConfig fills flags left unset from the environment configuration and sets up logging.
func (r *renderFlags) applyConfig(e *env, f *flag.FlagSet) (closeLog func(), err error) {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if !set["output-dir"] && !set["o"] {
		r.outputDir = e.conf.OutputDir
	}
	if !set["sanitize"] {
		r.sanitize = e.conf.Sanitize
	}
	if !set["loglevel"] {
		r.logLevel = e.conf.LogLevel
	}
	if !set["logjson"] {
		r.logJSON = e.conf.LogJSON
	}
	closeLog, err = openLog(r.logLevel, r.logFile, r.logJSON, e.stderr)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("version", config.Version).Str("buildDate", config.BuildDate).
		Msg("email2md starting")
	return closeLog, nil
}

// options validates the flags as conversion Options.
func (r *renderFlags) options() (convert.Options, error) {
	var opts []convert.Option
	add := func(on bool, opt convert.Option) {
		if on {
			opts = append(opts, opt)
		}
	}
	add(r.noHeaders, convert.WithoutHeaders())
	add(len(r.headers) > 0, convert.WithHeaders(r.headers...))
	add(r.noImages, convert.WithoutImages())
	add(r.referenceImages, convert.WithReferencedImages())
	add(r.saveAttachments, convert.WithSaveAttachments())
	add(r.outputDir != "", convert.WithOutputDir(r.outputDir))
	add(r.noHrefs, convert.WithoutHrefs())
	add(r.noAttachmentList, convert.WithoutAttachmentList())
	add(r.noFallbackPlain, convert.WithoutPlainFallback())
	add(r.sanitize, convert.WithSanitize())
	o, err := convert.NewOptions(opts...)
	if errors.Is(err, convert.ErrInvalidConfiguration) {
		return o, errors.New("-reference-images requires -save-attachments")
	}
	return o, err
}

// render runs the conversion selected by -html.
func (r *renderFlags) render(
	conv *convert.Converter, src input.Source, opts convert.Options) (*convert.Result, error) {
	if r.html {
		return conv.HTML(src, opts)
	}
	return conv.Markdown(src, opts)
}

// extension is the file extension of rendered output.
func (r *renderFlags) extension() string {
	if r.html {
		return ".html"
	}
	return ".md"
}

// parseInterspersed continues parsing f past positional arguments, so flags may follow the
// input, and returns the positionals.
func parseInterspersed(f *flag.FlagSet) ([]string, error) {
	var positionals []string
	rest := f.Args()
	for len(rest) > 0 {
		if rest[0] == "-" || !strings.HasPrefix(rest[0], "-") {
			positionals = append(positionals, rest[0])
			rest = rest[1:]
			continue
		}
		if err := f.Parse(rest); err != nil {
			return nil, err
		}
		rest = f.Args()
	}
	return positionals, nil
}
