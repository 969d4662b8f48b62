// Package convert renders EML and MSG messages as HTML or Markdown.
package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inbucket/email2md/pkg/attach"
	"github.com/inbucket/email2md/pkg/format"
	"github.com/inbucket/email2md/pkg/input"
	"github.com/inbucket/email2md/pkg/markdown"
	"github.com/inbucket/email2md/pkg/message"
	"github.com/inbucket/email2md/pkg/outlook"
	"github.com/rs/zerolog"
)

// MSGDecoder turns an Outlook compound file into an equivalent RFC822 message.
type MSGDecoder interface {
	Decode(msg []byte) ([]byte, error)
}

// MarkdownRenderer turns an HTML document into Markdown.
type MarkdownRenderer interface {
	Render(html string) (string, error)
}

// Result is the outcome of a conversion.
type Result struct {
	Output string
	// Format is the detected input format.
	Format format.Format
	// Saved lists the files written, in write order.
	Saved    []attach.Saved
	Warnings []input.Warning
}

// Converter runs conversions.  Nil fields fall back to the defaults installed by New.
type Converter struct {
	Decoder  MSGDecoder
	Renderer MarkdownRenderer
	Resolver *input.Resolver
	// WorkDir is the output directory for stdin and byte sources, the process working directory
	// when empty.
	WorkDir string
	Logger  *zerolog.Logger
}

// New returns a Converter with the default MSG decoder and Markdown renderer.
func New() *Converter {
	return &Converter{
		Decoder:  &outlook.Decoder{},
		Renderer: markdown.New(),
		Resolver: &input.Resolver{},
	}
}

// ToHTML converts src to HTML with a default Converter.
func ToHTML(src input.Source, opts Options) (string, error) {
	res, err := New().HTML(src, opts)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// ToMarkdown converts src to Markdown with a default Converter.
func ToMarkdown(src input.Source, opts Options) (string, error) {
	res, err := New().Markdown(src, opts)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// HTML converts src to an HTML fragment.
func (c *Converter) HTML(src input.Source, opts Options) (*Result, error) {
	return c.convert(src, opts)
}

// Markdown converts src to Markdown.  The HTML rendering is built first and handed to the
// Renderer.
func (c *Converter) Markdown(src input.Source, opts Options) (*Result, error) {
	res, err := c.convert(src, opts)
	if err != nil {
		return nil, err
	}
	renderer := c.Renderer
	if renderer == nil {
		renderer = markdown.New()
	}
	out, err := renderer.Render(res.Output)
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	res.Output = out
	return res, nil
}

func (c *Converter) convert(src input.Source, opts Options) (*Result, error) {
	logger := c.logger().With().Str("module", "convert").Str("source", src.String()).Logger()
	resolver := c.Resolver
	if resolver == nil {
		resolver = &input.Resolver{Logger: c.Logger}
	}
	in, err := resolver.Resolve(src)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("format", in.Format.String()).Int("size", len(in.Data)).Msg("Resolved input")

	eml := in.Data
	if in.Format == format.MSG {
		decoder := c.Decoder
		if decoder == nil {
			decoder = &outlook.Decoder{Logger: c.Logger}
		}
		// Decoder errors are returned as is.
		if eml, err = decoder.Decode(in.Data); err != nil {
			return nil, err
		}
		logger.Debug().Int("size", len(eml)).Msg("Decoded MSG")
	}

	email, err := message.Parse(eml)
	if err != nil {
		return nil, err
	}
	logger.Debug().Bool("html", email.HasHTML).Bool("text", email.HasText).
		Int("inlines", len(email.Inlines)).Int("attachments", len(email.Attachments)).
		Msg("Parsed message")

	a := &assembler{
		email: email,
		opts:  opts,
		saved: make(map[*message.Part]attach.Saved),
	}
	res := &Result{Format: in.Format}
	if opts.SaveAttachments() {
		parts := append([]*message.Part(nil), email.Attachments...)
		if opts.referencedImages() {
			parts = append(parts, email.InlineParts()...)
		}
		if len(parts) > 0 {
			dir, err := c.outputDir(opts, in)
			if err != nil {
				return nil, err
			}
			files := make([]attach.File, len(parts))
			for i, p := range parts {
				files[i] = attach.File{Name: p.FileName, Content: p.Content}
			}
			w := &attach.Writer{Dir: dir, Logger: c.Logger}
			saved, err := w.Write(files)
			if err != nil {
				return nil, err
			}
			for i, s := range saved {
				a.saved[parts[i]] = s
			}
			res.Saved = saved
		}
	}

	if res.Output, err = a.assemble(); err != nil {
		return nil, err
	}
	res.Warnings = append(append(res.Warnings, in.Warnings...), a.warnings...)
	for _, w := range a.warnings {
		logger.Warn().Str("kind", w.Kind).Msg(w.Message)
	}
	return res, nil
}

// outputDir resolves where attachments are written: the option, the directory holding the input
// file, or the working directory.
func (c *Converter) outputDir(opts Options, in *input.Input) (string, error) {
	if dir := opts.OutputDir(); dir != "" {
		return dir, nil
	}
	if in.Path != "" {
		return filepath.Dir(in.Path), nil
	}
	if c.WorkDir != "" {
		return c.WorkDir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	return dir, nil
}

func (c *Converter) logger() *zerolog.Logger {
	if c.Logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return c.Logger
}
