// Package format classifies raw email bytes as Outlook MSG or RFC822 EML.
package format

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format identifies the serialization of an email message.
type Format int

const (
	// EML is a plain RFC822/MIME message.
	EML Format = iota
	// MSG is an Outlook compound-file message.
	MSG
)

// magic is the OLE2 compound-file signature found at offset 0 of every MSG file.
var magic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

// Detect inspects the leading bytes of data.  Anything that does not begin with the compound-file
// signature is treated as EML, including empty and short buffers.
func Detect(data []byte) Format {
	if bytes.HasPrefix(data, magic) {
		return MSG
	}
	return EML
}

// FromExtension maps the extension of path to a Format.  The second return value is false when
// the extension is neither .msg nor .eml.
func FromExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msg":
		return MSG, true
	case ".eml":
		return EML, true
	}
	return EML, false
}

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

func (f Format) String() string {
	if f == MSG {
		return "msg"
	}
	return "eml"
}
