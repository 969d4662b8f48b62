// Package message extracts headers, bodies, inline media and attachments from an RFC822 message.
package message

import (
	"sort"
	"strings"
)

// Header is a single header field, in the order it appeared in the source.
type Header struct {
	Name  string
	Value string
}

// Part is a leaf MIME part that is not one of the message bodies.
type Part struct {
	// Content holds the decoded payload.
	Content []byte
	// ContentType is the lower-case media type, eg image/png.
	ContentType string
	// FileName is the suggested filename, synthesized when the source has none.
	FileName string
	// ContentID is the Content-ID without angle brackets, may be empty.
	ContentID string
	// Index is the position of the part in a depth-first walk of the message.
	Index int
}

// Email is a read-only view over a parsed message.
type Email struct {
	Headers []Header

	HTML    string
	HasHTML bool
	Text    string
	HasText bool

	// Inlines holds the parts referenced from the HTML body by cid: URL, keyed by Content-ID.
	Inlines map[string]*Part
	// Attachments holds every other part, in document order.
	Attachments []*Part
}

// HeaderValues returns every header named name, compared case-insensitively, in source order.
func (e *Email) HeaderValues(name string) []Header {
	var hs []Header
	for _, h := range e.Headers {
		if strings.EqualFold(h.Name, name) {
			hs = append(hs, h)
		}
	}
	return hs
}

// Inline resolves a cid: reference, with or without the scheme and angle brackets.
func (e *Email) Inline(ref string) *Part {
	return e.Inlines[NormalizeCID(ref)]
}

// InlineParts returns the inline parts in document order.
func (e *Email) InlineParts() []*Part {
	parts := make([]*Part, 0, len(e.Inlines))
	for _, p := range e.Inlines {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Index < parts[j].Index })
	return parts
}
