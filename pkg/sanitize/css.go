package sanitize

import (
	"bytes"
	"strings"

	"github.com/gorilla/css/scanner"
)

// allowedProperties lists the CSS properties kept in style attributes.  Layout and typography
// survive, anything able to position content over the page or load resources does not.
var allowedProperties = map[string]bool{
	"align":            true,
	"background-color": true,
	"border":           true,
	"border-bottom":    true,
	"border-collapse":  true,
	"border-color":     true,
	"border-left":      true,
	"border-radius":    true,
	"border-right":     true,
	"border-spacing":   true,
	"border-style":     true,
	"border-top":       true,
	"border-width":     true,
	"box-sizing":       true,
	"clear":            true,
	"color":            true,
	"display":          true,
	"font":             true,
	"font-family":      true,
	"font-size":        true,
	"font-style":       true,
	"font-weight":      true,
	"height":           true,
	"letter-spacing":   true,
	"line-height":      true,
	"list-style-type":  true,
	"margin":           true,
	"margin-bottom":    true,
	"margin-left":      true,
	"margin-right":     true,
	"margin-top":       true,
	"max-height":       true,
	"max-width":        true,
	"min-width":        true,
	"overflow":         true,
	"padding":          true,
	"padding-bottom":   true,
	"padding-left":     true,
	"padding-right":    true,
	"padding-top":      true,
	"table-layout":     true,
	"text-align":       true,
	"text-decoration":  true,
	"text-indent":      true,
	"text-transform":   true,
	"vertical-align":   true,
	"white-space":      true,
	"width":            true,
	"word-break":       true,
}

// filter holds the output and the declaration being copied.  A declaration reaches out only
// once its value is complete.
type filter struct {
	out, decl bytes.Buffer
}

func (f *filter) flush() {
	_, _ = f.out.Write(f.decl.Bytes())
	f.decl.Reset()
}

// stateHandler consumes one token and returns the handler for the next.
type stateHandler func(f *filter, t *scanner.Token) stateHandler

// Style filters a CSS declaration list down to allowed properties.  Unparseable input yields "".
func Style(input string) string {
	f := &filter{}
	scan := scanner.New(input)
	state := stateStart
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			f.flush()
			return f.out.String()
		case scanner.TokenError:
			return ""
		}
		state = state(f, t)
		if state == nil {
			return ""
		}
	}
}

// stateStart expects a property name.
func stateStart(f *filter, t *scanner.Token) stateHandler {
	switch t.Type {
	case scanner.TokenIdent:
		if !allowedProperties[strings.ToLower(t.Value)] {
			return stateSkip
		}
		f.decl.WriteString(t.Value)
		return stateValue
	case scanner.TokenS:
		return stateStart
	}
	// Unexpected token type, leave a marker and skip the declaration.
	f.out.WriteString("/*" + t.Type.String() + "*/")
	return stateSkip
}

// stateSkip discards tokens up to the end of the declaration.
func stateSkip(f *filter, t *scanner.Token) stateHandler {
	if t.Type == scanner.TokenChar && t.Value == ";" {
		return stateStart
	}
	return stateSkip
}

// stateValue copies the value of an allowed property.  A url() value drops the whole
// declaration.
func stateValue(f *filter, t *scanner.Token) stateHandler {
	if t.Type == scanner.TokenURI {
		f.decl.Reset()
		return stateSkip
	}
	f.decl.WriteString(t.Value)
	if t.Type == scanner.TokenChar && t.Value == ";" {
		f.flush()
		return stateStart
	}
	return stateValue
}
