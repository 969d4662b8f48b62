package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyle(t *testing.T) {
	testCases := []struct {
		input, want string
	}{
		{"", ""},
		{"color: red;", "color: red;"},
		{"COLOR: red;", "COLOR: red;"},
		{
			"background-color: black; color: white",
			"background-color: black;color: white",
		},
		{
			"background-color: black; invalid: true; color: white",
			"background-color: black;color: white",
		},
		{"position: absolute; z-index: 10;", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Style(tc.input))
		})
	}
}

func TestStyleDropsURLValues(t *testing.T) {
	testCases := []struct {
		input, want string
	}{
		{"background-color: url(http://evil.example/x.png); color: red;", "color: red;"},
		{"color: red; background-color: url(x.png)", "color: red;"},
		{"background-color: url(x.png)", ""},
		{"border: 1px url(x.png) solid; width: 10px", "width: 10px"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Style(tc.input))
		})
	}
}
