package outlook

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MAPI property types stored as substreams.
const (
	typeInt32   uint16 = 0x0003
	typeString8 uint16 = 0x001e
	typeUnicode uint16 = 0x001f
	typeBinary  uint16 = 0x0102
)

// MAPI property tags.
const (
	tagSubject           uint16 = 0x0037
	tagMessageClass      uint16 = 0x001a
	tagTransportHeaders  uint16 = 0x007d
	tagDisplayCc         uint16 = 0x0e03
	tagDisplayTo         uint16 = 0x0e04
	tagSenderName        uint16 = 0x0c1a
	tagSenderAddress     uint16 = 0x0c1f
	tagSenderSMTPAddress uint16 = 0x5d01
	tagBody              uint16 = 0x1000
	tagBodyHTML          uint16 = 0x1013
	tagAttachData        uint16 = 0x3701
	tagAttachFileName    uint16 = 0x3704
	tagAttachLongName    uint16 = 0x3707
	tagAttachMIMETag     uint16 = 0x370e
	tagAttachContentID   uint16 = 0x3712
	tagRecipientType     uint16 = 0x0c15
	tagDisplayName       uint16 = 0x3001
	tagEmailAddress      uint16 = 0x3003
	tagSMTPAddress       uint16 = 0x39fe
)

// Recipient types.
const (
	recipientTo int32 = 1
	recipientCc int32 = 2
)

const (
	substgPrefix     = "__substg1.0_"
	attachPrefix     = "__attach_version1.0_"
	recipPrefix      = "__recip_version1.0_"
	propertiesStream = "__properties_version1.0"

	// Header lengths of the properties stream, entries follow.
	messagePropsHeader = 32
	storagePropsHeader = 8
)

type property struct {
	typ  uint16
	data []byte
}

// properties holds the property streams of one storage, keyed by tag.
type properties map[uint16]property

// parseStreamName splits a __substg1.0_TTTTPPPP stream name into property tag and type.
func parseStreamName(name string) (tag, typ uint16, ok bool) {
	if !strings.HasPrefix(name, substgPrefix) {
		return 0, 0, false
	}
	id := name[len(substgPrefix):]
	if len(id) != 8 {
		return 0, 0, false
	}
	t, err := strconv.ParseUint(id[:4], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseUint(id[4:], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint16(t), uint16(p), true
}

// addFixed stores the 32-bit integer entries of a properties stream.  Each 16 byte entry holds
// the type and tag, flags, then the value.
func (p properties) addFixed(data []byte, header int) {
	for off := header; off+16 <= len(data); off += 16 {
		typ := binary.LittleEndian.Uint16(data[off:])
		if typ != typeInt32 {
			continue
		}
		tag := binary.LittleEndian.Uint16(data[off+2:])
		p[tag] = property{typ: typ, data: data[off+8 : off+12]}
	}
}

func (p properties) long(tag uint16) (int32, bool) {
	prop, ok := p[tag]
	if !ok || prop.typ != typeInt32 || len(prop.data) < 4 {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(prop.data)), true
}

// str returns a string property.  Binary properties are returned as is.
func (p properties) str(tag uint16) string {
	prop, ok := p[tag]
	if !ok {
		return ""
	}
	var b []byte
	var err error
	switch prop.typ {
	case typeUnicode:
		b, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(prop.data)
	case typeString8:
		b, err = charmap.Windows1252.NewDecoder().Bytes(prop.data)
	case typeBinary:
		b = prop.data
	default:
		return ""
	}
	if err != nil {
		return ""
	}
	return string(bytes.TrimRight(b, "\x00"))
}

func (p properties) bytes(tag uint16) []byte {
	if prop, ok := p[tag]; ok && prop.typ == typeBinary {
		return prop.data
	}
	return nil
}

// first returns the first non-empty string property among tags.
func (p properties) first(tags ...uint16) string {
	for _, t := range tags {
		if s := p.str(t); s != "" {
			return s
		}
	}
	return ""
}
