package convert

import (
	"fmt"
	"path/filepath"
)

// Options controls what a conversion renders and whether it touches the filesystem.  Options are
// immutable; the zero value renders everything with images inlined and writes no files.
type Options struct {
	noHeaders        bool
	headers          []string
	noImages         bool
	referenceImages  bool
	saveAttachments  bool
	outputDir        string
	noHrefs          bool
	noAttachmentList bool
	noPlainFallback  bool
	sanitize         bool
}

// Option configures Options in NewOptions.
type Option func(*Options)

// NewOptions applies opts to the defaults and validates the result.  Referenced images require
// attachment saving, otherwise the returned error wraps ErrInvalidConfiguration.
func NewOptions(opts ...Option) (Options, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.referenceImages && !o.saveAttachments {
		return Options{}, fmt.Errorf(
			"%w: referenced images require attachment saving", ErrInvalidConfiguration)
	}
	return o, nil
}

// WithoutHeaders omits the header block.
func WithoutHeaders() Option {
	return func(o *Options) { o.noHeaders = true }
}

// WithHeaders limits the header block to names, in the given order.  No names means all headers.
func WithHeaders(names ...string) Option {
	return func(o *Options) {
		if len(names) == 0 {
			o.headers = nil
			return
		}
		o.headers = append([]string(nil), names...)
	}
}

// WithoutImages removes every image from the body.
func WithoutImages() Option {
	return func(o *Options) { o.noImages = true }
}

// WithReferencedImages points images at their saved files instead of embedding them.
func WithReferencedImages() Option {
	return func(o *Options) { o.referenceImages = true }
}

// WithSaveAttachments writes attachments to the output directory.
func WithSaveAttachments() Option {
	return func(o *Options) { o.saveAttachments = true }
}

// WithOutputDir sets the directory attachments are written to.  An empty dir unsets it.
func WithOutputDir(dir string) Option {
	return func(o *Options) {
		if dir == "" {
			o.outputDir = ""
			return
		}
		o.outputDir = filepath.Clean(dir)
	}
}

// WithoutHrefs strips href from every anchor, keeping the link text.
func WithoutHrefs() Option {
	return func(o *Options) { o.noHrefs = true }
}

// WithoutAttachmentList omits the attachment block.
func WithoutAttachmentList() Option {
	return func(o *Options) { o.noAttachmentList = true }
}

// WithoutPlainFallback renders no body for messages lacking an HTML part.
func WithoutPlainFallback() Option {
	return func(o *Options) { o.noPlainFallback = true }
}

// WithSanitize passes the body through the HTML sanitizer.
func WithSanitize() Option {
	return func(o *Options) { o.sanitize = true }
}

func (o Options) IncludeHeaders() bool { return !o.noHeaders }

// Headers returns the header allow-list, nil when all headers are rendered.
func (o Options) Headers() []string { return append([]string(nil), o.headers...) }

func (o Options) AllHeaders() bool { return len(o.headers) == 0 }

func (o Options) IncludeImages() bool { return !o.noImages }

func (o Options) InlineImages() bool { return !o.referenceImages }

func (o Options) SaveAttachments() bool { return o.saveAttachments }

// OutputDir returns the configured output directory, "" when unset.
func (o Options) OutputDir() string { return o.outputDir }

func (o Options) IncludeHrefs() bool { return !o.noHrefs }

func (o Options) IncludeAttachmentList() bool { return !o.noAttachmentList }

func (o Options) FallbackToPlain() bool { return !o.noPlainFallback }

func (o Options) Sanitize() bool { return o.sanitize }

// referencedImages reports whether inline images are written out and linked.
func (o Options) referencedImages() bool {
	return o.IncludeImages() && !o.InlineImages()
}
