// Package attach writes message parts into an output directory without overwriting existing files.
package attach

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/inbucket/email2md/pkg/stringutil"
	"github.com/rs/zerolog"
)

// fallbackName is used when a suggested filename reduces to nothing.
const fallbackName = "attachment.bin"

// maxSuffix bounds the disambiguation search for a single file.
const maxSuffix = 10000

// File is a part to be written.
type File struct {
	Name    string
	Content []byte
}

// Saved describes a file written to disk.
type Saved struct {
	// Original is the suggested filename.
	Original string
	// Name is the final filename inside the output directory.
	Name string
	// Path is the absolute path of the written file.
	Path string
}

// WriteError reports a failed attachment write.
type WriteError struct {
	Name string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write attachment %q to %s: %v", e.Name, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer materializes files into Dir.
type Writer struct {
	Dir    string
	Logger *zerolog.Logger
}

// Write creates one file per entry of files, in order.  A name already present on disk, or used
// by an earlier entry, receives a -1, -2, ... suffix before its extension.  The first failure
// aborts the call; files already written are left in place.
func (w *Writer) Write(files []File) ([]Saved, error) {
	dir, err := filepath.Abs(w.Dir)
	if err != nil {
		return nil, &WriteError{Path: w.Dir, Err: err}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &WriteError{Path: dir, Err: err}
	}
	saved := make([]Saved, 0, len(files))
	used := make(map[string]bool, len(files))
	for _, f := range files {
		s, err := w.writeFile(dir, f, used)
		if err != nil {
			return saved, err
		}
		w.logger().Debug().Str("module", "attach").Str("name", s.Name).Str("path", s.Path).
			Int("size", len(f.Content)).Msg("Wrote attachment")
		saved = append(saved, s)
	}
	return saved, nil
}

func (w *Writer) writeFile(dir string, f File, used map[string]bool) (Saved, error) {
	base := stringutil.SafeFileName(f.Name)
	if base == "" {
		base = fallbackName
	}
	for n := 0; n < maxSuffix; n++ {
		name := stringutil.Disambiguate(base, n)
		if used[name] {
			continue
		}
		path := filepath.Join(dir, name)
		fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return Saved{}, &WriteError{Name: f.Name, Path: path, Err: err}
		}
		used[name] = true
		_, err = fh.Write(f.Content)
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return Saved{}, &WriteError{Name: f.Name, Path: path, Err: err}
		}
		return Saved{Original: f.Name, Name: name, Path: path}, nil
	}
	return Saved{}, &WriteError{Name: f.Name, Path: filepath.Join(dir, base),
		Err: errors.New("no free filename")}
}

func (w *Writer) logger() *zerolog.Logger {
	if w.Logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return w.Logger
}
