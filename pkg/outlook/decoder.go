// Package outlook converts Outlook MSG compound files into RFC822 messages.
package outlook

import (
	"bytes"
	"errors"
	"io"
	"net/mail"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	"github.com/inbucket/email2md/pkg/stringutil"
	"github.com/jhillyerd/enmime/v2"
	"github.com/richardlehane/mscfb"
	"github.com/rs/zerolog"
	zheader "github.com/zostay/go-email/v2/message/header"
)

// ErrNoMessage is returned when a compound file carries no message properties.
var ErrNoMessage = errors.New("compound file has no message properties")

// Decoder reads MSG files.  The zero value is ready to use.
type Decoder struct {
	Logger *zerolog.Logger
}

// mapiMessage is the property set of an MSG file.
type mapiMessage struct {
	props       properties
	attachments []properties
	recipients  []properties
}

// Decode returns an RFC822 rendering of an MSG file.  Compound file errors are returned unwrapped.
func (d *Decoder) Decode(msg []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(msg))
	if err != nil {
		return nil, err
	}
	m, err := readMessage(doc)
	if err != nil {
		return nil, err
	}
	if len(m.props) == 0 {
		return nil, ErrNoMessage
	}
	d.logger().Debug().Str("module", "outlook").Str("class", m.props.str(tagMessageClass)).
		Int("properties", len(m.props)).Int("recipients", len(m.recipients)).
		Int("attachments", len(m.attachments)).
		Msg("Read MSG properties")
	return m.encode()
}

// readMessage collects the top-level property streams and those of each attachment and
// recipient storage.  Embedded message storages are skipped.
func readMessage(doc *mscfb.Reader) (*mapiMessage, error) {
	m := &mapiMessage{props: properties{}}
	attachments := make(map[string]properties)
	recipients := make(map[string]properties)
	for {
		entry, err := doc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() {
			continue
		}
		tag, typ, ok := parseStreamName(entry.Name)
		if !ok && entry.Name != propertiesStream {
			continue
		}
		var target properties
		header := storagePropsHeader
		switch {
		case len(entry.Path) == 0:
			target = m.props
			header = messagePropsHeader
		case len(entry.Path) == 1 && strings.HasPrefix(entry.Path[0], attachPrefix):
			target = storage(attachments, entry.Path[0])
		case len(entry.Path) == 1 && strings.HasPrefix(entry.Path[0], recipPrefix):
			target = storage(recipients, entry.Path[0])
		default:
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, err
		}
		if !ok {
			target.addFixed(data, header)
			continue
		}
		target[tag] = property{typ: typ, data: data}
	}
	m.attachments = sortedStorages(attachments)
	m.recipients = sortedStorages(recipients)
	return m, nil
}

func storage(storages map[string]properties, name string) properties {
	p := storages[name]
	if p == nil {
		p = properties{}
		storages[name] = p
	}
	return p
}

// sortedStorages orders storages by name.  Names carry the object number in hex, sorting them
// restores the stored order.
func sortedStorages(storages map[string]properties) []properties {
	names := make([]string, 0, len(storages))
	for name := range storages {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]properties, 0, len(names))
	for _, name := range names {
		list = append(list, storages[name])
	}
	return list
}

// encode builds the MIME tree: alternative bodies, wrapped in related when inline parts exist,
// wrapped in mixed when attachments exist.
func (m *mapiMessage) encode() ([]byte, error) {
	var alternatives []*enmime.Part
	if text := m.props.str(tagBody); text != "" {
		alternatives = append(alternatives, textPart("text/plain", text))
	}
	htmlBody := m.props.str(tagBodyHTML)
	if htmlBody != "" {
		alternatives = append(alternatives, textPart("text/html", htmlBody))
	}
	body := multipart("multipart/alternative", alternatives)

	var inlines, attachments []*enmime.Part
	for i, props := range m.attachments {
		p := attachmentPart(props, i+1)
		if p.ContentID != "" && htmlBody != "" {
			p.Disposition = "inline"
			inlines = append(inlines, p)
			continue
		}
		attachments = append(attachments, p)
	}
	if len(inlines) > 0 {
		body = multipart("multipart/related", append([]*enmime.Part{body}, inlines...))
	}
	if len(attachments) > 0 {
		var children []*enmime.Part
		if body != nil {
			children = append(children, body)
		}
		body = multipart("multipart/mixed", append(children, attachments...))
	}
	if body == nil {
		body = textPart("text/plain", "")
	}

	m.setHeaders(body)
	buf := &bytes.Buffer{}
	if err := body.Encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// setHeaders copies the transport headers onto root, synthesizing the addressing headers the
// transport headers lack.
func (m *mapiMessage) setHeaders(root *enmime.Part) {
	if root.Header == nil {
		root.Header = make(textproto.MIMEHeader)
	}
	h := root.Header
	for _, f := range transportHeaders(m.props.str(tagTransportHeaders)) {
		h[f.name] = append(h[f.name], f.value)
	}
	setMissing := func(name, value string) {
		if value == "" {
			return
		}
		for k := range h {
			if strings.EqualFold(k, name) {
				return
			}
		}
		h.Set(name, value)
	}
	if addr := m.props.first(tagSenderSMTPAddress, tagSenderAddress); addr != "" {
		name := m.props.str(tagSenderName)
		if name == addr {
			name = ""
		}
		setMissing("From", stringutil.StringAddress(&mail.Address{Name: name, Address: addr}))
	} else {
		setMissing("From", m.props.str(tagSenderName))
	}
	to, cc := m.recipientAddresses()
	if len(to) > 0 {
		setMissing("To", strings.Join(stringutil.StringAddressList(to), ", "))
	} else {
		setMissing("To", m.props.str(tagDisplayTo))
	}
	if len(cc) > 0 {
		setMissing("Cc", strings.Join(stringutil.StringAddressList(cc), ", "))
	} else {
		setMissing("Cc", m.props.str(tagDisplayCc))
	}
	setMissing("Subject", m.props.str(tagSubject))
	h["MIME-Version"] = []string{"1.0"}
}

// recipientAddresses splits the recipient storages into To and Cc addresses.  Bcc recipients
// are left out, as are exchange addresses without an SMTP form.
func (m *mapiMessage) recipientAddresses() (to, cc []*mail.Address) {
	for _, r := range m.recipients {
		addr := r.first(tagSMTPAddress, tagEmailAddress)
		if !strings.Contains(addr, "@") {
			addr = ""
		}
		name := r.str(tagDisplayName)
		if name == addr {
			name = ""
		}
		if name == "" && addr == "" {
			continue
		}
		a := &mail.Address{Name: name, Address: addr}
		typ, ok := r.long(tagRecipientType)
		switch {
		case !ok || typ == recipientTo:
			to = append(to, a)
		case typ == recipientCc:
			cc = append(cc, a)
		}
	}
	return to, cc
}

type headerField struct {
	name, value string
}

// transportHeaders parses the stored RFC822 header block, minus the fields describing the
// original MIME structure.  Values come back unfolded and decoded.
func transportHeaders(raw string) []headerField {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\n", "\r\n") + "\r\n"
	hdr, err := zheader.Parse([]byte(raw), zheader.CRLF)
	if hdr == nil || (err != nil && len(hdr.ListFields()) == 0) {
		return nil
	}
	var fields []headerField
	for _, f := range hdr.ListFields() {
		name := f.Name()
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "content-") || lower == "mime-version" {
			continue
		}
		fields = append(fields, headerField{name: name, value: f.Body()})
	}
	return fields
}

func textPart(contentType, content string) *enmime.Part {
	p := enmime.NewPart(contentType)
	p.Charset = "utf-8"
	p.Content = []byte(content)
	return p
}

// multipart wraps children, returning the only child as is and nil for none.
func multipart(contentType string, children []*enmime.Part) *enmime.Part {
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	p := enmime.NewPart(contentType)
	for _, c := range children {
		p.AddChild(c)
	}
	return p
}

func attachmentPart(props properties, n int) *enmime.Part {
	ctype := strings.ToLower(props.str(tagAttachMIMETag))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	p := enmime.NewPart(ctype)
	p.Content = props.bytes(tagAttachData)
	p.FileName = stringutil.SafeFileName(props.first(tagAttachLongName, tagAttachFileName))
	if p.FileName == "" {
		p.FileName = "attachment-" + strconv.Itoa(n) + stringutil.ExtensionForType(ctype)
	}
	p.ContentID = strings.TrimSuffix(strings.TrimPrefix(props.str(tagAttachContentID), "<"), ">")
	p.Disposition = "attachment"
	return p
}

func (d *Decoder) logger() *zerolog.Logger {
	if d.Logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return d.Logger
}
