// Package markdown turns assembled HTML into Markdown.
package markdown

import (
	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Renderer converts HTML documents to Markdown.  It is safe for concurrent use.
type Renderer struct {
	conv *md.Converter
}

// New returns a Renderer producing ATX headings, ** for strong text, - bullets and fenced code
// blocks.
func New() *Renderer {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		StrongDelimiter:  "**",
		EmDelimiter:      "_",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		Fence:            "```",
	})
	return &Renderer{conv: conv}
}

// Render converts html to Markdown.
func (r *Renderer) Render(html string) (string, error) {
	return r.conv.ConvertString(html)
}
