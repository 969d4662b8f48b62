// Package input obtains raw message bytes from a file, a byte slice or standard input.
package input

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/inbucket/email2md/pkg/format"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when an input path does not exist.
var ErrNotFound = errors.New("file not found")

type kind int

const (
	kindStdin kind = iota
	kindBytes
	kindPath
)

// Source describes where a message comes from.  The zero value reads standard input.
type Source struct {
	kind kind
	data []byte
	path string
}

// FromBytes returns a Source for an in-memory message.
func FromBytes(data []byte) Source {
	return Source{kind: kindBytes, data: data}
}

// FromPath returns a Source for a file.  The path "-" selects standard input.
func FromPath(path string) Source {
	if path == "-" {
		return FromStdin()
	}
	return Source{kind: kindPath, path: path}
}

// FromStdin returns a Source reading the whole of standard input.
func FromStdin() Source {
	return Source{kind: kindStdin}
}

// Path returns the filesystem path of the source, or "" for bytes and stdin.
func (s Source) Path() string {
	return s.path
}

func (s Source) String() string {
	switch s.kind {
	case kindPath:
		return s.path
	case kindBytes:
		return fmt.Sprintf("<%d bytes>", len(s.data))
	}
	return "<stdin>"
}

// Warning is a non-fatal diagnostic produced while reading or converting a message.
type Warning struct {
	Kind    string
	Message string
}

// Kinds of Warning.
const (
	WarnExtensionMismatch = "extension-mismatch"
	WarnUnresolvedCID     = "unresolved-cid"
)

func (w Warning) String() string {
	return w.Kind + ": " + w.Message
}

// Input holds the resolved message bytes.
type Input struct {
	Data     []byte
	Format   format.Format
	Path     string
	Warnings []Warning
}

// Resolver reads Sources.
type Resolver struct {
	// Stdin is read for stdin sources, os.Stdin when nil.
	Stdin io.Reader
	// Logger receives diagnostics, discarded when nil.
	Logger *zerolog.Logger
}

// Resolve reads the message described by src and detects its format.
func (r *Resolver) Resolve(src Source) (*Input, error) {
	switch src.kind {
	case kindBytes:
		return &Input{Data: src.data, Format: format.Detect(src.data)}, nil
	case kindPath:
		return r.resolvePath(src.path)
	}
	stdin := r.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return &Input{Data: data, Format: format.Detect(data)}, nil
}

func (r *Resolver) resolvePath(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, err
	}
	in := &Input{Data: data, Format: format.Detect(data), Path: path}
	if ext, known := format.FromExtension(path); known && ext != in.Format {
		w := Warning{
			Kind: WarnExtensionMismatch,
			Message: fmt.Sprintf("file extension %s doesn't match detected format %s",
				ext.Extension(), in.Format.Extension()),
		}
		in.Warnings = append(in.Warnings, w)
		r.logger().Warn().Str("module", "input").Str("path", path).
			Str("detected", in.Format.String()).Msg(w.Message)
	}
	return in, nil
}

func (r *Resolver) logger() *zerolog.Logger {
	if r.Logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return r.Logger
}

// NotFoundError reports a missing input file.  It matches both ErrNotFound and fs.ErrNotExist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return "file not found: " + e.Path
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
