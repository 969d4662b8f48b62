package message

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/inbucket/email2md/pkg/stringutil"
	"github.com/jhillyerd/enmime/v2"
	zmessage "github.com/zostay/go-email/v2/message"
	"golang.org/x/net/html"
)

const (
	mediaHTML  = "text/html"
	mediaPlain = "text/plain"
)

// Parse reads an RFC822 message.  The first text/html and text/plain leaves not marked as
// attachments, in depth-first order, become the bodies.  Leaves carrying a Content-ID that the
// HTML body references by cid: URL become inline parts; every other leaf is an attachment.
func Parse(eml []byte) (*Email, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(eml))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	e := &Email{
		Headers: orderedHeaders(eml, env),
		Inlines: make(map[string]*Part),
	}
	if env.Root == nil {
		return e, nil
	}

	var candidates []*Part
	unnamed := 0
	index := 0
	walkLeaves(env.Root, func(p *enmime.Part) {
		index++
		ctype := strings.ToLower(p.ContentType)
		if ctype == "" {
			// RFC 2045 default.
			ctype = mediaPlain
		}
		body := !strings.EqualFold(p.Disposition, "attachment")
		switch {
		case body && ctype == mediaHTML && !e.HasHTML:
			e.HTML = string(p.Content)
			e.HasHTML = true
			return
		case body && ctype == mediaPlain && !e.HasText:
			e.Text = string(p.Content)
			e.HasText = true
			return
		}
		if len(p.Content) == 0 && p.FileName == "" {
			return
		}
		part := &Part{
			Content:     p.Content,
			ContentType: ctype,
			FileName:    p.FileName,
			ContentID:   NormalizeCID(p.ContentID),
			Index:       index,
		}
		if part.FileName == "" {
			part.FileName = suggestName(part, &unnamed)
		}
		candidates = append(candidates, part)
	})

	refs := map[string]bool{}
	if e.HasHTML {
		refs = cidReferences(e.HTML)
	}
	for _, part := range candidates {
		if part.ContentID != "" && refs[part.ContentID] && e.Inlines[part.ContentID] == nil {
			e.Inlines[part.ContentID] = part
			continue
		}
		e.Attachments = append(e.Attachments, part)
	}
	return e, nil
}

// walkLeaves calls fn for each leaf of the part tree, depth-first in document order.
func walkLeaves(p *enmime.Part, fn func(*enmime.Part)) {
	for ; p != nil; p = p.NextSibling {
		if p.FirstChild != nil {
			walkLeaves(p.FirstChild, fn)
			continue
		}
		fn(p)
	}
}

// suggestName invents a filename for a part without one.  Parts with a Content-ID are named after
// it, others are numbered.
func suggestName(p *Part, unnamed *int) string {
	ext := stringutil.ExtensionForType(p.ContentType)
	if p.ContentID != "" {
		local := p.ContentID
		if i := strings.IndexByte(local, '@'); i > 0 {
			local = local[:i]
		}
		if name := stringutil.SafeFileName(local); name != "" {
			return name + ext
		}
	}
	*unnamed++
	return "attachment-" + strconv.Itoa(*unnamed) + ext
}

// NormalizeCID strips an optional cid: scheme and angle brackets, and unescapes URL encoding.
func NormalizeCID(ref string) string {
	ref = strings.TrimSpace(ref)
	if len(ref) >= 4 && strings.EqualFold(ref[:4], "cid:") {
		ref = ref[4:]
	}
	ref = strings.TrimSuffix(strings.TrimPrefix(ref, "<"), ">")
	if u, err := url.PathUnescape(ref); err == nil {
		ref = u
	}
	return ref
}

// IsCIDRef reports whether an attribute value is a cid: URL.
func IsCIDRef(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) > 4 && strings.EqualFold(v[:4], "cid:")
}

// cidReferences collects the Content-IDs referenced by attribute values in an HTML document.
func cidReferences(doc string) map[string]bool {
	refs := make(map[string]bool)
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a read error, either way nothing is left to scan.
			return refs
		case html.StartTagToken, html.SelfClosingTagToken:
			if _, hasAttr := z.TagName(); !hasAttr {
				continue
			}
			for {
				_, val, more := z.TagAttr()
				if v := string(val); IsCIDRef(v) {
					refs[NormalizeCID(v)] = true
				}
				if !more {
					break
				}
			}
		}
	}
}

// orderedHeaders lists the top-level header fields in source order.  Field names come from
// go-email, which preserves order, values are RFC 2047 decoded by enmime.
func orderedHeaders(eml []byte, env *enmime.Envelope) []Header {
	var names []string
	if msg, err := zmessage.Parse(bytes.NewReader(eml), zmessage.WithoutMultipart()); err == nil {
		for _, f := range msg.GetHeader().ListFields() {
			names = append(names, f.Name())
		}
	} else {
		// Order is unrecoverable, fall back to a stable one.
		keys := env.GetHeaderKeys()
		sort.Strings(keys)
		for _, k := range keys {
			for range env.GetHeaderValues(k) {
				names = append(names, k)
			}
		}
	}

	seen := make(map[string]int, len(names))
	headers := make([]Header, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		values := env.GetHeaderValues(name)
		n := seen[key]
		seen[key]++
		if n >= len(values) {
			continue
		}
		headers = append(headers, Header{Name: name, Value: values[n]})
	}
	return headers
}
