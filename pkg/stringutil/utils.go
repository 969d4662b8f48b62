package stringutil

import (
	"net/mail"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// extensions maps common attachment media types to a file extension, used when a part suggests
// no filename of its own.
var extensions = map[string]string{
	"application/json":    ".json",
	"application/ms-tnef": ".dat",
	"application/pdf":     ".pdf",
	"application/zip":     ".zip",
	"image/bmp":           ".bmp",
	"image/gif":           ".gif",
	"image/jpeg":          ".jpg",
	"image/jpg":           ".jpg",
	"image/png":           ".png",
	"image/svg+xml":       ".svg",
	"image/tiff":          ".tif",
	"image/webp":          ".webp",
	"message/rfc822":      ".eml",
	"text/calendar":       ".ics",
	"text/csv":            ".csv",
	"text/html":           ".html",
	"text/plain":          ".txt",
}

// ExtensionForType returns the conventional extension for a media type, or ".bin".
func ExtensionForType(mediaType string) string {
	if ext, ok := extensions[strings.ToLower(mediaType)]; ok {
		return ext
	}
	return ".bin"
}

// SafeFileName reduces name to a single path element safe to create inside a directory.  Both
// slash styles are treated as separators, control characters are dropped, and names that would
// resolve to the directory itself become "".
func SafeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		switch r {
		case ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}

// Disambiguate inserts -n before the extension of name.  An n of zero returns name unchanged.
func Disambiguate(name string, n int) string {
	if n == 0 {
		return name
	}
	stem, ext := SplitExt(name)
	return stem + "-" + strconv.Itoa(n) + ext
}

// SplitExt splits name into stem and extension.  Leading dots do not start an extension, so
// ".profile" has no extension.
func SplitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// StringAddress converts an Address to a string.  If a nil address is provided, an empty string
// is returned.
func StringAddress(a *mail.Address) string {
	if a == nil {
		return ""
	}
	if a.Address == "" {
		return a.Name
	}
	return a.String()
}

// StringAddressList converts a list of addresses to a list of strings
func StringAddressList(addrs []*mail.Address) []string {
	s := make([]string, len(addrs))
	for i, a := range addrs {
		s[i] = StringAddress(a)
	}
	return s
}
