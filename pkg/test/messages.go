// Package test contains message fixtures shared by the package tests.
package test

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Fixture contents referenced by tests.
var (
	// PNG1 and PNG2 are distinct truncated PNG payloads.
	PNG1 = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	PNG2 = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x02")

	// PDF is the content of the document.pdf attachment.
	PDF = []byte("Test document content")
)

// MSGMagic is the compound-file signature.
var MSGMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

const stdHeaders = `From: sender@example.com
To: recipient@example.com
Subject: %s
Date: Mon, 1 Jan 2024 12:00:00 +0000
MIME-Version: 1.0
`

// crlf converts LF line endings into CRLF.
func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// SimpleEML is a multipart/alternative message with plain and HTML bodies.
func SimpleEML() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Test Email") + `Content-Type: multipart/alternative; boundary="alt"

--alt
Content-Type: text/plain; charset="utf-8"

Plain text body
--alt
Content-Type: text/html; charset="utf-8"

<html><body><h1>Hello World</h1><p>This is a test.</p></body></html>
--alt--
`)
}

// EMLWithImages is an HTML message referencing an inline PNG by cid:image001.
func EMLWithImages() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Email with Images") + `Content-Type: multipart/alternative; boundary="alt"

--alt
Content-Type: multipart/related; boundary="rel"

--rel
Content-Type: text/html; charset="utf-8"

<html><body><p>Check out this image:</p><img src="cid:image001" alt="Test Image"></body></html>
--rel
Content-Type: image/png
Content-Disposition: inline; filename="test.png"
Content-Transfer-Encoding: base64
Content-ID: <image001>

` + b64(PNG1) + `
--rel--
--alt--
`)
}

// EMLWithTwoImages references two inline images, neither with an alt attribute.
func EMLWithTwoImages() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Multiple Images") + `Content-Type: multipart/related; boundary="rel"

--rel
Content-Type: text/html; charset="utf-8"

<html><body><img src="cid:img1"><img src="cid:img2"></body></html>
--rel
Content-Type: image/png
Content-Disposition: inline; filename="1.png"
Content-Transfer-Encoding: base64
Content-ID: <img1>

` + b64(PNG1) + `
--rel
Content-Type: image/png
Content-Disposition: inline; filename="2.png"
Content-Transfer-Encoding: base64
Content-ID: <img2>

` + b64(PNG2) + `
--rel--
`)
}

// EMLWithAttachments is an HTML message with a document.pdf attachment.
func EMLWithAttachments() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Email with Attachments") + `Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: text/html; charset="utf-8"

<html><body><p>Email with attachments</p></body></html>
--mix
Content-Type: application/pdf
Content-Disposition: attachment; filename="document.pdf"
Content-Transfer-Encoding: base64

` + b64(PDF) + `
--mix--
`)
}

// EMLPlainWithPDF is a plain text message with a document.pdf attachment.
func EMLPlainWithPDF() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Plain with PDF") + `Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: text/plain; charset="utf-8"

See attached.
--mix
Content-Type: application/pdf
Content-Disposition: attachment; filename="document.pdf"
Content-Transfer-Encoding: base64

` + b64(PDF) + `
--mix--
`)
}

// EMLDuplicateNames carries two attachments suggesting the same filename.
func EMLDuplicateNames() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Duplicates") + `Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: text/plain; charset="utf-8"

Two reports.
--mix
Content-Type: text/csv
Content-Disposition: attachment; filename="report.csv"

a,b
--mix
Content-Type: text/csv
Content-Disposition: attachment; filename="report.csv"

c,d
--mix--
`)
}

// EMLUnreferencedCID has an image with a Content-ID that the HTML never references.
func EMLUnreferencedCID() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Unreferenced") + `Content-Type: multipart/related; boundary="rel"

--rel
Content-Type: text/html; charset="utf-8"

<p>No pictures here.</p>
--rel
Content-Type: image/png
Content-Disposition: inline; filename="logo.png"
Content-Transfer-Encoding: base64
Content-ID: <logo@example.com>

` + b64(PNG1) + `
--rel--
`)
}

// EMLPlainOnly is a single-part text/plain message.
func EMLPlainOnly() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Plain Text Only") + `Content-Type: text/plain; charset="utf-8"

This is plain text only.
No HTML here.
`)
}

// EMLPlainMarkup is a text/plain message whose text looks like markup.
func EMLPlainMarkup() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Markup") + `Content-Type: text/plain; charset="utf-8"

if a < b && c > d { print("<b>bold</b>") }
`)
}

// EMLWithLinks is a single-part HTML message with two anchors.
func EMLWithLinks() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "Email with Links") + `Content-Type: text/html; charset="utf-8"

<html><body><p>Visit our <a href="https://example.com">website</a>.</p><p>Another <a href="https://test.com">link here</a>.</p></body></html>
`)
}

// EMLNoBody is a multipart message holding only an attachment.
func EMLNoBody() []byte {
	return crlf(fmt.Sprintf(stdHeaders, "No Body") + `Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: application/pdf
Content-Disposition: attachment; filename="document.pdf"
Content-Transfer-Encoding: base64

` + b64(PDF) + `
--mix--
`)
}
