package convert

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/inbucket/email2md/pkg/attach"
	"github.com/inbucket/email2md/pkg/input"
	"github.com/inbucket/email2md/pkg/message"
	"github.com/inbucket/email2md/pkg/sanitize"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// assembler builds the HTML document for one conversion.
type assembler struct {
	email    *message.Email
	opts     Options
	saved    map[*message.Part]attach.Saved
	warnings []input.Warning
}

// assemble returns the header block, attachment list and body, joined by newlines.  Empty
// fragments are skipped.
func (a *assembler) assemble() (string, error) {
	var frags []string
	if a.opts.IncludeHeaders() {
		if f := a.headerBlock(); f != "" {
			frags = append(frags, f)
		}
	}
	if a.opts.IncludeAttachmentList() {
		if f := a.attachmentBlock(); f != "" {
			frags = append(frags, f)
		}
	}
	body, err := a.body()
	if err != nil {
		return "", err
	}
	if body != "" {
		frags = append(frags, body)
	}
	return strings.Join(frags, "\n"), nil
}

func (a *assembler) headerBlock() string {
	var headers []message.Header
	if a.opts.AllHeaders() {
		headers = a.email.Headers
	} else {
		for _, name := range a.opts.Headers() {
			headers = append(headers, a.email.HeaderValues(name)...)
		}
	}
	if len(headers) == 0 {
		return ""
	}
	b := &strings.Builder{}
	b.WriteString(`<div class="email-headers">`)
	for _, h := range headers {
		fmt.Fprintf(b, "<p><strong>%s:</strong> %s</p>",
			html.EscapeString(h.Name), html.EscapeString(h.Value))
	}
	b.WriteString("</div>")
	return b.String()
}

func (a *assembler) attachmentBlock() string {
	if len(a.email.Attachments) == 0 {
		return ""
	}
	b := &strings.Builder{}
	b.WriteString(`<div class="attachments"><p><strong>Attachments:</strong></p><ul>`)
	for _, p := range a.email.Attachments {
		fmt.Fprintf(b, "<li>%s</li>", html.EscapeString(a.displayName(p)))
	}
	b.WriteString("</ul></div>")
	return b.String()
}

// displayName is the on-disk name of a saved part, its suggested name otherwise.
func (a *assembler) displayName(p *message.Part) string {
	if s, ok := a.saved[p]; ok {
		return s.Name
	}
	return p.FileName
}

func (a *assembler) body() (string, error) {
	var body string
	switch {
	case a.email.HasHTML:
		var err error
		body, err = a.transformHTML(a.email.HTML)
		if err != nil {
			return "", err
		}
	case a.email.HasText && a.opts.FallbackToPlain():
		return "<pre>" + html.EscapeString(a.email.Text) + "</pre>", nil
	default:
		return "", nil
	}
	if a.opts.Sanitize() {
		return sanitize.HTML(body)
	}
	return body, nil
}

// transformHTML parses doc, rewrites images and links, and renders the children of its body.
func (a *assembler) transformHTML(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse html body: %w", err)
	}
	body := findBody(root)
	if body == nil {
		return "", nil
	}
	a.transformNode(body)
	buf := &bytes.Buffer{}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(buf, c); err != nil {
			return "", fmt.Errorf("render html body: %w", err)
		}
	}
	return buf.String(), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func (a *assembler) transformNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			if c.DataAtom == atom.Img && !a.opts.IncludeImages() {
				n.RemoveChild(c)
				c = next
				continue
			}
			a.transformElement(c)
		}
		a.transformNode(c)
		c = next
	}
}

func (a *assembler) transformElement(n *html.Node) {
	if n.DataAtom == atom.A && !a.opts.IncludeHrefs() {
		removeAttr(n, "href")
	}
	attrs := n.Attr[:0]
	var resolved *message.Part
	for _, at := range n.Attr {
		if !message.IsCIDRef(at.Val) {
			attrs = append(attrs, at)
			continue
		}
		if !a.opts.IncludeImages() {
			continue
		}
		part := a.email.Inline(at.Val)
		if part == nil {
			a.warnings = append(a.warnings, input.Warning{
				Kind:    input.WarnUnresolvedCID,
				Message: fmt.Sprintf("no inline part for %s", at.Val),
			})
			attrs = append(attrs, at)
			continue
		}
		at.Val = a.imageSource(part)
		if at.Key == "src" {
			resolved = part
		}
		attrs = append(attrs, at)
	}
	n.Attr = attrs
	if n.DataAtom == atom.Img && resolved != nil && !hasAttr(n, "alt") {
		setAttr(n, "alt", resolved.FileName)
	}
}

// imageSource is the data URI of p, or the name of its saved file in reference mode.
func (a *assembler) imageSource(p *message.Part) string {
	if a.opts.InlineImages() {
		return "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Content)
	}
	if s, ok := a.saved[p]; ok {
		return url.PathEscape(s.Name)
	}
	return url.PathEscape(p.FileName)
}

func hasAttr(n *html.Node, key string) bool {
	for _, at := range n.Attr {
		if at.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, at := range n.Attr {
		if at.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, at := range n.Attr {
		if at.Key != key {
			attrs = append(attrs, at)
		}
	}
	n.Attr = attrs
}
